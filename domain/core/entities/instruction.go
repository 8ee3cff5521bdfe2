package entities

import (
	"fmt"
	"strings"

	"recipebook/domain/core/valueobjects"
	pkgerrors "recipebook/pkg/errors"
)

// Instruction is one numbered step of a Recipe.
type Instruction struct {
	id       valueobjects.RecipeID
	recipeID valueobjects.RecipeID
	name     string
	step     string
	sequence int
}

// NewInstruction creates the step at 1-based sequence.
func NewInstruction(recipeID valueobjects.RecipeID, step string, sequence int) (*Instruction, error) {
	if recipeID.IsZero() {
		return nil, pkgerrors.NewValidationError("instruction must reference a recipe")
	}
	if strings.TrimSpace(step) == "" {
		return nil, pkgerrors.NewValidationError("instruction step cannot be empty")
	}
	if sequence < 1 {
		return nil, pkgerrors.NewValidationError("instruction sequence starts at 1")
	}
	return &Instruction{
		id:       valueobjects.NewRecipeID(),
		recipeID: recipeID,
		name:     StepName(sequence),
		step:     strings.TrimSpace(step),
		sequence: sequence,
	}, nil
}

// NewInstructions numbers steps by input order, 1..len(steps).
func NewInstructions(recipeID valueobjects.RecipeID, steps []string) ([]*Instruction, error) {
	out := make([]*Instruction, 0, len(steps))
	for i, step := range steps {
		instruction, err := NewInstruction(recipeID, step, i+1)
		if err != nil {
			return nil, err
		}
		out = append(out, instruction)
	}
	return out, nil
}

// ReconstructInstruction rebuilds an instruction from storage.
func ReconstructInstruction(id, recipeID valueobjects.RecipeID, name, step string, sequence int) *Instruction {
	if name == "" {
		name = StepName(sequence)
	}
	return &Instruction{id: id, recipeID: recipeID, name: name, step: step, sequence: sequence}
}

// StepName is the display name of a step, e.g. "Step 3".
func StepName(sequence int) string {
	return fmt.Sprintf("Step %d", sequence)
}

func (i *Instruction) ID() valueobjects.RecipeID       { return i.id }
func (i *Instruction) RecipeID() valueobjects.RecipeID { return i.recipeID }
func (i *Instruction) Name() string                    { return i.name }
func (i *Instruction) Step() string                    { return i.step }
func (i *Instruction) Sequence() int                   { return i.sequence }
