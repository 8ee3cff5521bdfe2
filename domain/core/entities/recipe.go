package entities

import (
	"strings"
	"time"

	"recipebook/domain/core/valueobjects"
	"recipebook/domain/events"
	pkgerrors "recipebook/pkg/errors"
)

// Recipe is the parent entity of the catalog.
// Ingredients and instructions reference it by ID and are stored separately.
type Recipe struct {
	id          valueobjects.RecipeID
	title       string
	description string
	imageURL    string
	prepTime    int
	cookTime    int
	servings    int
	difficulty  valueobjects.Difficulty
	categories  valueobjects.Categories
	ownerID     string
	createdAt   time.Time
	updatedAt   time.Time

	events []events.DomainEvent
}

// RecipeParams carries the attributes needed to create or rebuild a Recipe.
type RecipeParams struct {
	ID          valueobjects.RecipeID
	Title       string
	Description string
	ImageURL    string
	PrepTime    int
	CookTime    int
	Servings    int
	Difficulty  valueobjects.Difficulty
	Categories  valueobjects.Categories
	OwnerID     string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewRecipe creates a recipe, enforcing the invariants that hold for every stored recipe.
// A zero ID is replaced with a fresh one; a zero CreatedAt with the current time.
func NewRecipe(p RecipeParams) (*Recipe, error) {
	if strings.TrimSpace(p.Title) == "" {
		return nil, pkgerrors.NewValidationError("recipe title cannot be empty")
	}
	if p.Categories.IsEmpty() {
		return nil, pkgerrors.NewValidationError("recipe needs at least one category")
	}
	if p.Difficulty == "" {
		p.Difficulty = valueobjects.DefaultDifficulty
	}
	if !p.Difficulty.IsValid() {
		return nil, pkgerrors.NewValidationError("invalid difficulty: " + p.Difficulty.String())
	}
	if p.ID.IsZero() {
		p.ID = valueobjects.NewRecipeID()
	}

	now := time.Now().UTC()
	if !p.CreatedAt.IsZero() {
		now = p.CreatedAt.UTC()
	}
	return &Recipe{
		id:          p.ID,
		title:       strings.TrimSpace(p.Title),
		description: strings.TrimSpace(p.Description),
		imageURL:    strings.TrimSpace(p.ImageURL),
		prepTime:    p.PrepTime,
		cookTime:    p.CookTime,
		servings:    p.Servings,
		difficulty:  p.Difficulty,
		categories:  p.Categories,
		ownerID:     p.OwnerID,
		createdAt:   now,
		updatedAt:   now,
		events:      []events.DomainEvent{},
	}, nil
}

// ReconstructRecipe rebuilds a recipe from storage without re-running creation rules.
func ReconstructRecipe(p RecipeParams) *Recipe {
	difficulty := p.Difficulty
	if !difficulty.IsValid() {
		difficulty = valueobjects.DefaultDifficulty
	}
	return &Recipe{
		id:          p.ID,
		title:       p.Title,
		description: p.Description,
		imageURL:    p.ImageURL,
		prepTime:    p.PrepTime,
		cookTime:    p.CookTime,
		servings:    p.Servings,
		difficulty:  difficulty,
		categories:  p.Categories,
		ownerID:     p.OwnerID,
		createdAt:   p.CreatedAt,
		updatedAt:   p.UpdatedAt,
		events:      []events.DomainEvent{},
	}
}

// Getters

func (r *Recipe) ID() valueobjects.RecipeID           { return r.id }
func (r *Recipe) Title() string                       { return r.title }
func (r *Recipe) Description() string                 { return r.description }
func (r *Recipe) ImageURL() string                    { return r.imageURL }
func (r *Recipe) PrepTime() int                       { return r.prepTime }
func (r *Recipe) CookTime() int                       { return r.cookTime }
func (r *Recipe) Servings() int                       { return r.servings }
func (r *Recipe) Difficulty() valueobjects.Difficulty { return r.difficulty }
func (r *Recipe) Categories() valueobjects.Categories { return r.categories }
func (r *Recipe) OwnerID() string                     { return r.ownerID }
func (r *Recipe) CreatedAt() time.Time                { return r.createdAt }
func (r *Recipe) UpdatedAt() time.Time                { return r.updatedAt }

// TotalTime is prep plus cook time in minutes.
func (r *Recipe) TotalTime() int {
	return r.prepTime + r.cookTime
}

// IsOwnedBy reports whether userID may manage the recipe.
// Recipes stored without an owner are manageable by any authenticated user.
func (r *Recipe) IsOwnedBy(userID string) bool {
	return r.ownerID == "" || r.ownerID == userID
}

// MatchesSearch reports a case-insensitive substring match on title or description.
// A blank term matches everything.
func (r *Recipe) MatchesSearch(term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(r.title), term) ||
		strings.Contains(strings.ToLower(r.description), term)
}

// HasCategory reports membership of category. A blank value or "all" matches everything.
func (r *Recipe) HasCategory(category string) bool {
	category = strings.TrimSpace(category)
	if category == "" || strings.EqualFold(category, "all") {
		return true
	}
	return r.categories.Contains(category)
}

// RecordCreated registers the creation event once dependents are stored.
func (r *Recipe) RecordCreated(ingredientCount, instructionCount int) {
	r.addEvent(events.NewRecipeCreated(
		r.id, r.ownerID, r.title, r.categories,
		ingredientCount, instructionCount, time.Now().UTC(),
	))
}

// RecordDeleted registers the deletion event.
func (r *Recipe) RecordDeleted(deletedBy string) {
	r.addEvent(events.NewRecipeDeleted(r.id, deletedBy, r.title, time.Now().UTC()))
}

// GetUncommittedEvents returns events not yet published
func (r *Recipe) GetUncommittedEvents() []events.DomainEvent {
	return r.events
}

// MarkEventsAsCommitted clears the pending events
func (r *Recipe) MarkEventsAsCommitted() {
	r.events = []events.DomainEvent{}
}

func (r *Recipe) addEvent(event events.DomainEvent) {
	r.events = append(r.events, event)
}
