package commands

import (
	"errors"

	"recipebook/domain/core/valueobjects"
)

// DeleteRecipeCommand removes a recipe together with its ingredients and instructions
type DeleteRecipeCommand struct {
	RecipeID string `json:"recipe_id"`
	UserID   string `json:"user_id"`
}

// Validate validates the DeleteRecipeCommand
func (c DeleteRecipeCommand) Validate() error {
	if c.UserID == "" {
		return errors.New("user ID is required")
	}
	if _, err := valueobjects.NewRecipeIDFromString(c.RecipeID); err != nil {
		return err
	}
	return nil
}
