package queries

import (
	"recipebook/domain/core/valueobjects"
)

const recipeCachePrefix = "recipe:"

// RecipeCacheKey is the cache key of a recipe detail. Every accepted spelling of
// an ID (upper case, braces, urn:uuid:) maps to the same key.
func RecipeCacheKey(recipeID string) string {
	if id, err := valueobjects.NewRecipeIDFromString(recipeID); err == nil {
		recipeID = id.String()
	}
	return recipeCachePrefix + recipeID
}

// GetRecipeQuery fetches one recipe with its ingredients and instructions
type GetRecipeQuery struct {
	RecipeID string
}

// Validate validates the GetRecipeQuery
func (q GetRecipeQuery) Validate() error {
	_, err := valueobjects.NewRecipeIDFromString(q.RecipeID)
	return err
}

// CacheKey makes the detail cacheable by the query bus
func (q GetRecipeQuery) CacheKey() string {
	return RecipeCacheKey(q.RecipeID)
}

// IngredientView is an ingredient of the detail view
type IngredientView struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Amount string `json:"amount"`
}

// InstructionView is a numbered step of the detail view
type InstructionView struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Step     string `json:"step"`
	Sequence int    `json:"sequence"`
}

// GetRecipeResult represents the recipe detail
type GetRecipeResult struct {
	RecipeSummary
	UpdatedAt    string            `json:"updatedAt"`
	Ingredients  []IngredientView  `json:"ingredients"`
	Instructions []InstructionView `json:"instructions"`
}
