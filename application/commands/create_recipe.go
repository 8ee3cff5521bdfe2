package commands

import (
	"errors"

	"recipebook/domain/core/validators"
	"recipebook/domain/core/valueobjects"
)

// IngredientInput is one ingredient row as entered in the form
type IngredientInput struct {
	Name     string `json:"name" yaml:"name"`
	Quantity string `json:"quantity" yaml:"quantity"`
	Unit     string `json:"unit" yaml:"unit"`
}

// CreateRecipeCommand represents the command to create a recipe with its ingredients and instructions
type CreateRecipeCommand struct {
	RecipeID     string            `json:"recipe_id"`
	UserID       string            `json:"user_id"`
	Title        string            `json:"title"`
	Description  string            `json:"description"`
	ImageURL     string            `json:"imageUrl"`
	PrepTime     int               `json:"prepTime"`
	CookTime     int               `json:"cookTime"`
	Servings     int               `json:"servings"`
	Difficulty   string            `json:"difficulty"`
	Ingredients  []IngredientInput `json:"ingredients"`
	Instructions []string          `json:"instructions"`
	Categories   []string          `json:"categories"`

	validator *validators.RecipeValidator
}

// WithValidator sets the validator used by Validate, e.g. one built from environment limits
func (c CreateRecipeCommand) WithValidator(v *validators.RecipeValidator) CreateRecipeCommand {
	c.validator = v
	return c
}

// Validate checks identifiers, then every form field
func (c CreateRecipeCommand) Validate() error {
	if c.UserID == "" {
		return errors.New("user ID is required")
	}
	if _, err := valueobjects.NewRecipeIDFromString(c.RecipeID); err != nil {
		return err
	}

	v := c.validator
	if v == nil {
		v = validators.NewRecipeValidator(nil)
	}
	return v.Validate(c.Draft())
}

// Draft converts the command into the validator's input
func (c CreateRecipeCommand) Draft() validators.RecipeDraft {
	ingredients := make([]validators.IngredientDraft, len(c.Ingredients))
	for i, in := range c.Ingredients {
		ingredients[i] = validators.IngredientDraft{Name: in.Name, Quantity: in.Quantity, Unit: in.Unit}
	}
	return validators.RecipeDraft{
		Title:        c.Title,
		Description:  c.Description,
		ImageURL:     c.ImageURL,
		PrepTime:     c.PrepTime,
		CookTime:     c.CookTime,
		Servings:     c.Servings,
		Difficulty:   c.Difficulty,
		Ingredients:  ingredients,
		Instructions: c.Instructions,
		Categories:   c.Categories,
	}
}
