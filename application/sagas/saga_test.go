package sagas

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestSaga_CompletesAllSteps(t *testing.T) {
	var order []string
	saga := New("test", zap.NewNop()).
		Then("a", func(context.Context) error { order = append(order, "a"); return nil }).
		Then("b", func(context.Context) error { order = append(order, "b"); return nil })

	require.NoError(t, saga.Execute(context.Background()))
	assert.Equal(t, []string{"a", "b"}, order)
	assert.Equal(t, StateCompleted, saga.State())
	assert.NotEmpty(t, saga.ID())
}

func TestSaga_CompensatesInReverse(t *testing.T) {
	boom := errors.New("boom")
	var undone []string

	saga := New("test", zap.NewNop()).
		ThenCompensable("a",
			func(context.Context) error { return nil },
			func(context.Context) error { undone = append(undone, "a"); return nil }).
		ThenCompensable("b",
			func(context.Context) error { return nil },
			func(context.Context) error { undone = append(undone, "b"); return nil }).
		ThenCompensable("c",
			func(context.Context) error { return boom },
			func(context.Context) error { undone = append(undone, "c"); return nil })

	err := saga.Execute(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrCompensationFailed)
	assert.Equal(t, []string{"b", "a"}, undone, "the failing step is not compensated")
	assert.Equal(t, StateCompensated, saga.State())
	assert.Equal(t, 2, saga.CurrentStep())
}

func TestSaga_CompensationFailureIsReported(t *testing.T) {
	boom := errors.New("boom")
	undoErr := errors.New("undo failed")

	saga := New("test", nil).
		ThenCompensable("a",
			func(context.Context) error { return nil },
			func(context.Context) error { return undoErr }).
		Then("b", func(context.Context) error { return boom })

	err := saga.Execute(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, err, ErrCompensationFailed)
	assert.ErrorIs(t, err, undoErr)
	assert.Equal(t, StateFailed, saga.State())
}

func TestSaga_RetriesStep(t *testing.T) {
	calls := 0
	saga := New("test", zap.NewNop()).AddStep(Step{
		Name: "flaky",
		Execute: func(context.Context) error {
			calls++
			if calls < 3 {
				return errors.New("transient")
			}
			return nil
		},
		MaxRetries: 3,
		RetryDelay: time.Millisecond,
	})

	require.NoError(t, saga.Execute(context.Background()))
	assert.Equal(t, 3, calls)
}

func TestSaga_CompensatesOnDetachedContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var compensateCtxErr error

	saga := New("test", zap.NewNop()).
		ThenCompensable("a",
			func(context.Context) error { return nil },
			func(ctx context.Context) error { compensateCtxErr = ctx.Err(); return nil }).
		Then("b", func(context.Context) error {
			cancel()
			return errors.New("request aborted")
		})

	err := saga.Execute(ctx)
	require.Error(t, err)
	assert.NoError(t, compensateCtxErr)
}

func TestSaga_RetryStopsWhenContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	saga := New("test", zap.NewNop()).AddStep(Step{
		Name: "slow",
		Execute: func(context.Context) error {
			calls++
			cancel()
			return errors.New("transient")
		},
		MaxRetries: 5,
		RetryDelay: time.Hour,
	})

	err := saga.Execute(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
