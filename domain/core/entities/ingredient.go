package entities

import (
	"strings"

	"recipebook/domain/core/valueobjects"
	pkgerrors "recipebook/pkg/errors"
)

// Ingredient is a dependent record of a Recipe.
type Ingredient struct {
	id       valueobjects.RecipeID
	recipeID valueobjects.RecipeID
	name     string
	amount   string
	position int
}

// FormatAmount joins quantity and unit the way the form displays them, e.g. "2 cups".
func FormatAmount(quantity, unit string) string {
	return strings.TrimSpace(strings.TrimSpace(quantity) + " " + strings.TrimSpace(unit))
}

// NewIngredient creates an ingredient for recipeID at the given input position.
func NewIngredient(recipeID valueobjects.RecipeID, name, amount string, position int) (*Ingredient, error) {
	if recipeID.IsZero() {
		return nil, pkgerrors.NewValidationError("ingredient must reference a recipe")
	}
	if strings.TrimSpace(name) == "" {
		return nil, pkgerrors.NewValidationError("ingredient name cannot be empty")
	}
	return &Ingredient{
		id:       valueobjects.NewRecipeID(),
		recipeID: recipeID,
		name:     strings.TrimSpace(name),
		amount:   strings.TrimSpace(amount),
		position: position,
	}, nil
}

// ReconstructIngredient rebuilds an ingredient from storage.
func ReconstructIngredient(id, recipeID valueobjects.RecipeID, name, amount string, position int) *Ingredient {
	return &Ingredient{id: id, recipeID: recipeID, name: name, amount: amount, position: position}
}

func (i *Ingredient) ID() valueobjects.RecipeID       { return i.id }
func (i *Ingredient) RecipeID() valueobjects.RecipeID { return i.recipeID }
func (i *Ingredient) Name() string                    { return i.name }
func (i *Ingredient) Amount() string                  { return i.amount }
func (i *Ingredient) Position() int                   { return i.position }
