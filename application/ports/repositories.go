package ports

import (
	"context"

	"recipebook/domain/core/entities"
	"recipebook/domain/core/valueobjects"
	"recipebook/domain/events"
)

// RecipeRepository defines the interface for recipe persistence.
// This is a port in hexagonal architecture; the stores live in infrastructure/persistence.
type RecipeRepository interface {
	// Save creates a recipe. Saving an existing ID is a conflict.
	Save(ctx context.Context, recipe *entities.Recipe) error

	// GetByID retrieves a recipe, returning a NOT_FOUND AppError when absent
	GetByID(ctx context.Context, id valueobjects.RecipeID) (*entities.Recipe, error)

	// List returns recipes newest first, filtered and paged by filter
	List(ctx context.Context, filter RecipeFilter) ([]*entities.Recipe, error)

	// Delete removes the recipe record only. Missing records are not an error.
	Delete(ctx context.Context, id valueobjects.RecipeID) error
}

// IngredientRepository persists the ingredients of a recipe
type IngredientRepository interface {
	// SaveBatch writes all ingredients atomically
	SaveBatch(ctx context.Context, ingredients []*entities.Ingredient) error

	// ListByRecipe returns ingredients ordered by position
	ListByRecipe(ctx context.Context, recipeID valueobjects.RecipeID) ([]*entities.Ingredient, error)

	// DeleteByRecipe removes every ingredient of the recipe
	DeleteByRecipe(ctx context.Context, recipeID valueobjects.RecipeID) error
}

// InstructionRepository persists the numbered steps of a recipe
type InstructionRepository interface {
	// SaveBatch writes all instructions atomically
	SaveBatch(ctx context.Context, instructions []*entities.Instruction) error

	// ListByRecipe returns instructions ordered by sequence
	ListByRecipe(ctx context.Context, recipeID valueobjects.RecipeID) ([]*entities.Instruction, error)

	// DeleteByRecipe removes every instruction of the recipe
	DeleteByRecipe(ctx context.Context, recipeID valueobjects.RecipeID) error
}

// HealthChecker is implemented by stores that can report readiness
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// RecipeFilter defines listing parameters
type RecipeFilter struct {
	// Search is a case-insensitive substring of title or description
	Search string
	// Category must be one of the recipe's categories; "" or "all" disables the filter
	Category string
	// OwnerID restricts results to one user's recipes
	OwnerID string
	Limit   int
	Offset  int
}

// Matches applies the filter predicate to a single recipe
func (f RecipeFilter) Matches(recipe *entities.Recipe) bool {
	if f.OwnerID != "" && recipe.OwnerID() != f.OwnerID {
		return false
	}
	return recipe.HasCategory(f.Category) && recipe.MatchesSearch(f.Search)
}

// EventPublisher defines the interface for publishing domain events
type EventPublisher interface {
	// Publish sends a single event
	Publish(ctx context.Context, event events.DomainEvent) error

	// PublishBatch sends multiple events
	PublishBatch(ctx context.Context, events []events.DomainEvent) error
}

// Cache defines the interface for caching
type Cache interface {
	// Get retrieves a value from cache
	Get(ctx context.Context, key string) (interface{}, bool)

	// Set stores a value in cache with TTL in seconds
	Set(ctx context.Context, key string, value interface{}, ttl int) error

	// Delete removes a value from cache
	Delete(ctx context.Context, key string) error

	// Clear removes all values from cache
	Clear(ctx context.Context) error
}

// Connection is a live WebSocket client registered through API Gateway
type Connection struct {
	ConnectionID string
	UserID       string
	ConnectedAt  int64
	ExpiresAt    int64
}

// ConnectionRepository tracks WebSocket connections for catalog notifications
type ConnectionRepository interface {
	Save(ctx context.Context, conn Connection) error
	Delete(ctx context.Context, connectionID string) error
	ListAll(ctx context.Context) ([]Connection, error)
}
