package sagas

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Step is a single unit of work in a saga.
// Compensate, when set, undoes Execute and runs only after Execute succeeded.
type Step struct {
	Name       string
	Execute    func(ctx context.Context) error
	Compensate func(ctx context.Context) error
	MaxRetries int
	RetryDelay time.Duration
}

// State represents the current state of a saga execution
type State string

const (
	StatePending      State = "PENDING"
	StateRunning      State = "RUNNING"
	StateCompleted    State = "COMPLETED"
	StateFailed       State = "FAILED"
	StateCompensating State = "COMPENSATING"
	StateCompensated  State = "COMPENSATED"
)

// ErrCompensationFailed is wrapped into the returned error when undo work did not finish
var ErrCompensationFailed = errors.New("saga compensation failed")

// Saga runs steps in order and, on failure, compensates completed steps in reverse
type Saga struct {
	id          string
	name        string
	steps       []Step
	state       State
	currentStep int
	logger      *zap.Logger
	fields      []zap.Field
}

// New creates a saga. Extra fields are attached to every log line.
func New(name string, logger *zap.Logger, fields ...zap.Field) *Saga {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Saga{
		id:     uuid.NewString(),
		name:   name,
		state:  StatePending,
		logger: logger,
		fields: fields,
	}
}

// AddStep appends a step
func (s *Saga) AddStep(step Step) *Saga {
	s.steps = append(s.steps, step)
	return s
}

// Then appends a step without compensation
func (s *Saga) Then(name string, execute func(context.Context) error) *Saga {
	return s.AddStep(Step{Name: name, Execute: execute})
}

// ThenCompensable appends a step that can be undone
func (s *Saga) ThenCompensable(name string, execute, compensate func(context.Context) error) *Saga {
	return s.AddStep(Step{Name: name, Execute: execute, Compensate: compensate})
}

// Execute runs the saga. The returned error wraps the failing step's error and,
// if undo work also failed, ErrCompensationFailed.
func (s *Saga) Execute(ctx context.Context) error {
	s.state = StateRunning
	s.log().Debug("Starting saga", zap.Int("total_steps", len(s.steps)))

	for i, step := range s.steps {
		s.currentStep = i
		if err := s.executeWithRetry(ctx, step); err != nil {
			s.state = StateFailed
			s.log().Error("Saga step failed", zap.String("step_name", step.Name), zap.Error(err))

			if compErr := s.compensate(ctx, i); compErr != nil {
				s.state = StateFailed
				return fmt.Errorf("saga %s failed at step %s: %w", s.name, step.Name,
					errors.Join(err, ErrCompensationFailed, compErr))
			}
			s.state = StateCompensated
			return fmt.Errorf("saga %s failed at step %s: %w", s.name, step.Name, err)
		}
	}

	s.state = StateCompleted
	s.log().Debug("Saga completed", zap.Int("completed_steps", len(s.steps)))
	return nil
}

func (s *Saga) executeWithRetry(ctx context.Context, step Step) error {
	attempts := step.MaxRetries
	if attempts < 1 {
		attempts = 1
	}
	delay := step.RetryDelay
	if delay <= 0 {
		delay = 100 * time.Millisecond
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return errors.Join(lastErr, ctx.Err())
			case <-timer.C:
			}
		}

		if err := ctx.Err(); err != nil {
			return err
		}
		lastErr = step.Execute(ctx)
		if lastErr == nil {
			return nil
		}
		if attempts > 1 {
			s.log().Warn("Saga step attempt failed",
				zap.String("step_name", step.Name),
				zap.Int("attempt", attempt+1),
				zap.Int("max_attempts", attempts),
				zap.Error(lastErr),
			)
		}
	}
	if attempts == 1 {
		return lastErr
	}
	return fmt.Errorf("step %s failed after %d attempts: %w", step.Name, attempts, lastErr)
}

// compensate undoes steps [0, failed) in reverse. Undo work must finish even if
// the caller gave up, so it runs on a context detached from cancellation.
func (s *Saga) compensate(ctx context.Context, failed int) error {
	s.state = StateCompensating
	ctx = context.WithoutCancel(ctx)

	var errs []error
	for i := failed - 1; i >= 0; i-- {
		step := s.steps[i]
		if step.Compensate == nil {
			continue
		}
		if err := step.Compensate(ctx); err != nil {
			s.log().Error("Compensation failed", zap.String("step_name", step.Name), zap.Error(err))
			errs = append(errs, fmt.Errorf("compensate %s: %w", step.Name, err))
			continue
		}
		s.log().Warn("Compensated saga step", zap.String("step_name", step.Name))
	}
	return errors.Join(errs...)
}

func (s *Saga) log() *zap.Logger {
	return s.logger.With(append([]zap.Field{
		zap.String("saga_id", s.id),
		zap.String("saga_name", s.name),
	}, s.fields...)...)
}

// State returns the current state of the saga
func (s *Saga) State() State {
	return s.state
}

// ID returns the saga ID
func (s *Saga) ID() string {
	return s.id
}

// CurrentStep returns the index of the step being executed or that failed
func (s *Saga) CurrentStep() int {
	return s.currentStep
}
