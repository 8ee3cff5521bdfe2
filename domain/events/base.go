package events

import (
	"time"

	"recipebook/domain/core/valueobjects"
)

// SourceRecipeService is the EventBridge source for events emitted by this service.
const SourceRecipeService = "recipebook.api"

// Event types
const (
	TypeRecipeCreated = "recipe.created"
	TypeRecipeDeleted = "recipe.deleted"
)

// DomainEvent is the base interface for all domain events
// Events represent something that has happened in the past
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
	GetVersion() int
}

// BaseEvent provides common event fields
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
	Version     int       `json:"version"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e BaseEvent) GetVersion() int         { return e.Version }

// RecipeCreated is raised once a recipe and all of its dependents are stored
type RecipeCreated struct {
	BaseEvent
	RecipeID         string   `json:"recipe_id"`
	OwnerID          string   `json:"owner_id"`
	Title            string   `json:"title"`
	Categories       []string `json:"categories"`
	IngredientCount  int      `json:"ingredient_count"`
	InstructionCount int      `json:"instruction_count"`
}

// NewRecipeCreated creates a RecipeCreated event
func NewRecipeCreated(
	recipeID valueobjects.RecipeID,
	ownerID, title string,
	categories valueobjects.Categories,
	ingredientCount, instructionCount int,
	timestamp time.Time,
) RecipeCreated {
	return RecipeCreated{
		BaseEvent: BaseEvent{
			AggregateID: recipeID.String(),
			EventType:   TypeRecipeCreated,
			Timestamp:   timestamp,
			Version:     1,
		},
		RecipeID:         recipeID.String(),
		OwnerID:          ownerID,
		Title:            title,
		Categories:       categories.Values(),
		IngredientCount:  ingredientCount,
		InstructionCount: instructionCount,
	}
}

// RecipeDeleted is raised when a recipe and its dependents are removed
type RecipeDeleted struct {
	BaseEvent
	RecipeID  string `json:"recipe_id"`
	DeletedBy string `json:"deleted_by"`
	Title     string `json:"title"`
}

// NewRecipeDeleted creates a RecipeDeleted event
func NewRecipeDeleted(recipeID valueobjects.RecipeID, deletedBy, title string, timestamp time.Time) RecipeDeleted {
	return RecipeDeleted{
		BaseEvent: BaseEvent{
			AggregateID: recipeID.String(),
			EventType:   TypeRecipeDeleted,
			Timestamp:   timestamp,
			Version:     1,
		},
		RecipeID:  recipeID.String(),
		DeletedBy: deletedBy,
		Title:     title,
	}
}
