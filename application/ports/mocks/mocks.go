// Package mocks provides testify mocks of the application ports.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"recipebook/application/ports"
	"recipebook/domain/core/entities"
	"recipebook/domain/core/valueobjects"
	"recipebook/domain/events"
)

// MockRecipeRepository is a mock of ports.RecipeRepository
type MockRecipeRepository struct {
	mock.Mock
}

func (m *MockRecipeRepository) Save(ctx context.Context, recipe *entities.Recipe) error {
	args := m.Called(ctx, recipe)
	return args.Error(0)
}

func (m *MockRecipeRepository) GetByID(ctx context.Context, id valueobjects.RecipeID) (*entities.Recipe, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Recipe), args.Error(1)
}

func (m *MockRecipeRepository) List(ctx context.Context, filter ports.RecipeFilter) ([]*entities.Recipe, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Recipe), args.Error(1)
}

func (m *MockRecipeRepository) Delete(ctx context.Context, id valueobjects.RecipeID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockIngredientRepository is a mock of ports.IngredientRepository
type MockIngredientRepository struct {
	mock.Mock
}

func (m *MockIngredientRepository) SaveBatch(ctx context.Context, ingredients []*entities.Ingredient) error {
	args := m.Called(ctx, ingredients)
	return args.Error(0)
}

func (m *MockIngredientRepository) ListByRecipe(ctx context.Context, recipeID valueobjects.RecipeID) ([]*entities.Ingredient, error) {
	args := m.Called(ctx, recipeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Ingredient), args.Error(1)
}

func (m *MockIngredientRepository) DeleteByRecipe(ctx context.Context, recipeID valueobjects.RecipeID) error {
	args := m.Called(ctx, recipeID)
	return args.Error(0)
}

// MockInstructionRepository is a mock of ports.InstructionRepository
type MockInstructionRepository struct {
	mock.Mock
}

func (m *MockInstructionRepository) SaveBatch(ctx context.Context, instructions []*entities.Instruction) error {
	args := m.Called(ctx, instructions)
	return args.Error(0)
}

func (m *MockInstructionRepository) ListByRecipe(ctx context.Context, recipeID valueobjects.RecipeID) ([]*entities.Instruction, error) {
	args := m.Called(ctx, recipeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Instruction), args.Error(1)
}

func (m *MockInstructionRepository) DeleteByRecipe(ctx context.Context, recipeID valueobjects.RecipeID) error {
	args := m.Called(ctx, recipeID)
	return args.Error(0)
}

// MockEventPublisher is a mock of ports.EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, event events.DomainEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockEventPublisher) PublishBatch(ctx context.Context, evts []events.DomainEvent) error {
	args := m.Called(ctx, evts)
	return args.Error(0)
}

// MockCache is a mock of ports.Cache
type MockCache struct {
	mock.Mock
}

func (m *MockCache) Get(ctx context.Context, key string) (interface{}, bool) {
	args := m.Called(ctx, key)
	return args.Get(0), args.Bool(1)
}

func (m *MockCache) Set(ctx context.Context, key string, value interface{}, ttl int) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

func (m *MockCache) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockCache) Clear(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockConnectionRepository is a mock of ports.ConnectionRepository
type MockConnectionRepository struct {
	mock.Mock
}

func (m *MockConnectionRepository) Save(ctx context.Context, conn ports.Connection) error {
	args := m.Called(ctx, conn)
	return args.Error(0)
}

func (m *MockConnectionRepository) Delete(ctx context.Context, connectionID string) error {
	args := m.Called(ctx, connectionID)
	return args.Error(0)
}

func (m *MockConnectionRepository) ListAll(ctx context.Context) ([]ports.Connection, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ports.Connection), args.Error(1)
}

var (
	_ ports.RecipeRepository      = (*MockRecipeRepository)(nil)
	_ ports.IngredientRepository  = (*MockIngredientRepository)(nil)
	_ ports.InstructionRepository = (*MockInstructionRepository)(nil)
	_ ports.EventPublisher        = (*MockEventPublisher)(nil)
	_ ports.Cache                 = (*MockCache)(nil)
	_ ports.ConnectionRepository  = (*MockConnectionRepository)(nil)
)
