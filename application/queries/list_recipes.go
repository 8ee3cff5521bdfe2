package queries

import (
	"errors"
	"time"

	"recipebook/domain/core/entities"
)

// ListRecipesQuery lists recipes newest first with optional search, category and owner filters
type ListRecipesQuery struct {
	Search   string
	Category string
	OwnerID  string
	Limit    int
	Offset   int
}

// Validate validates the ListRecipesQuery
func (q ListRecipesQuery) Validate() error {
	if q.Limit < 0 {
		return errors.New("limit cannot be negative")
	}
	if q.Offset < 0 {
		return errors.New("offset cannot be negative")
	}
	return nil
}

// Normalized applies the default and maximum page size
func (q ListRecipesQuery) Normalized(defaultLimit, maxLimit int) ListRecipesQuery {
	if q.Limit <= 0 {
		q.Limit = defaultLimit
	}
	if q.Limit > maxLimit {
		q.Limit = maxLimit
	}
	return q
}

// RecipeSummary is one row of the catalog listing
type RecipeSummary struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	ImageURL    string   `json:"imageUrl,omitempty"`
	PrepTime    int      `json:"prepTime"`
	CookTime    int      `json:"cookTime"`
	TotalTime   int      `json:"totalTime"`
	Servings    int      `json:"servings"`
	Difficulty  string   `json:"difficulty"`
	Categories  []string `json:"categories"`
	OwnerID     string   `json:"ownerId,omitempty"`
	CreatedAt   string   `json:"createdAt"`
}

// ListRecipesResult represents a page of recipes
type ListRecipesResult struct {
	Recipes []RecipeSummary `json:"recipes"`
	Count   int             `json:"count"`
	Limit   int             `json:"limit"`
	Offset  int             `json:"offset"`
	HasMore bool            `json:"hasMore"`
}

// NewRecipeSummary maps an entity to its listing row
func NewRecipeSummary(r *entities.Recipe) RecipeSummary {
	return RecipeSummary{
		ID:          r.ID().String(),
		Title:       r.Title(),
		Description: r.Description(),
		ImageURL:    r.ImageURL(),
		PrepTime:    r.PrepTime(),
		CookTime:    r.CookTime(),
		TotalTime:   r.TotalTime(),
		Servings:    r.Servings(),
		Difficulty:  r.Difficulty().String(),
		Categories:  r.Categories().Values(),
		OwnerID:     r.OwnerID(),
		CreatedAt:   r.CreatedAt().UTC().Format(time.RFC3339),
	}
}
