// Package memory is a process-local store used for development, the CLI and tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"recipebook/application/ports"
	"recipebook/domain/core/entities"
	"recipebook/domain/core/valueobjects"
	pkgerrors "recipebook/pkg/errors"
)

// Store holds all three collections behind one lock so batch writes are atomic
type Store struct {
	mu           sync.RWMutex
	recipes      map[string]*entities.Recipe
	ingredients  map[string][]*entities.Ingredient
	instructions map[string][]*entities.Instruction
}

// NewStore creates an empty Store
func NewStore() *Store {
	return &Store{
		recipes:      make(map[string]*entities.Recipe),
		ingredients:  make(map[string][]*entities.Ingredient),
		instructions: make(map[string][]*entities.Instruction),
	}
}

// Recipes returns the recipe collection
func (s *Store) Recipes() *RecipeRepository { return &RecipeRepository{s: s} }

// Ingredients returns the ingredient collection
func (s *Store) Ingredients() *IngredientRepository { return &IngredientRepository{s: s} }

// Instructions returns the instruction collection
func (s *Store) Instructions() *InstructionRepository { return &InstructionRepository{s: s} }

// Ping always succeeds
func (s *Store) Ping(context.Context) error { return nil }

// RecipeRepository implements ports.RecipeRepository
type RecipeRepository struct {
	s *Store
}

// Save creates the recipe; an existing ID is a conflict
func (r *RecipeRepository) Save(ctx context.Context, recipe *entities.Recipe) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	id := recipe.ID().String()
	if _, exists := r.s.recipes[id]; exists {
		return pkgerrors.NewConflictError("recipe already exists").WithDetail("recipe_id", id)
	}
	r.s.recipes[id] = recipe
	return nil
}

// GetByID retrieves a recipe by ID
func (r *RecipeRepository) GetByID(ctx context.Context, id valueobjects.RecipeID) (*entities.Recipe, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	recipe, ok := r.s.recipes[id.String()]
	if !ok {
		return nil, pkgerrors.NewNotFoundError("recipe").WithDetail("recipe_id", id.String())
	}
	return recipe, nil
}

// List returns matching recipes newest first, ties broken by ID
func (r *RecipeRepository) List(ctx context.Context, filter ports.RecipeFilter) ([]*entities.Recipe, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	matched := make([]*entities.Recipe, 0, len(r.s.recipes))
	for _, recipe := range r.s.recipes {
		if filter.Matches(recipe) {
			matched = append(matched, recipe)
		}
	}
	r.s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.CreatedAt().Equal(b.CreatedAt()) {
			return a.CreatedAt().After(b.CreatedAt())
		}
		return a.ID().String() > b.ID().String()
	})

	if filter.Offset >= len(matched) {
		return []*entities.Recipe{}, nil
	}
	matched = matched[filter.Offset:]
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return matched, nil
}

// Delete removes the recipe record
func (r *RecipeRepository) Delete(ctx context.Context, id valueobjects.RecipeID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.recipes, id.String())
	return nil
}

// Ping always succeeds
func (r *RecipeRepository) Ping(ctx context.Context) error { return r.s.Ping(ctx) }

// IngredientRepository implements ports.IngredientRepository
type IngredientRepository struct {
	s *Store
}

// SaveBatch appends all ingredients under one lock
func (r *IngredientRepository) SaveBatch(ctx context.Context, ingredients []*entities.Ingredient) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, in := range ingredients {
		key := in.RecipeID().String()
		r.s.ingredients[key] = append(r.s.ingredients[key], in)
	}
	return nil
}

// ListByRecipe returns ingredients ordered by position
func (r *IngredientRepository) ListByRecipe(ctx context.Context, recipeID valueobjects.RecipeID) ([]*entities.Ingredient, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	out := append([]*entities.Ingredient{}, r.s.ingredients[recipeID.String()]...)
	r.s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].Position() < out[j].Position() })
	return out, nil
}

// DeleteByRecipe removes every ingredient of the recipe
func (r *IngredientRepository) DeleteByRecipe(ctx context.Context, recipeID valueobjects.RecipeID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.ingredients, recipeID.String())
	return nil
}

// InstructionRepository implements ports.InstructionRepository
type InstructionRepository struct {
	s *Store
}

// SaveBatch appends all instructions under one lock
func (r *InstructionRepository) SaveBatch(ctx context.Context, instructions []*entities.Instruction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, st := range instructions {
		key := st.RecipeID().String()
		r.s.instructions[key] = append(r.s.instructions[key], st)
	}
	return nil
}

// ListByRecipe returns instructions ordered by sequence
func (r *InstructionRepository) ListByRecipe(ctx context.Context, recipeID valueobjects.RecipeID) ([]*entities.Instruction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	out := append([]*entities.Instruction{}, r.s.instructions[recipeID.String()]...)
	r.s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].Sequence() < out[j].Sequence() })
	return out, nil
}

// DeleteByRecipe removes every instruction of the recipe
func (r *InstructionRepository) DeleteByRecipe(ctx context.Context, recipeID valueobjects.RecipeID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.instructions, recipeID.String())
	return nil
}

var (
	_ ports.RecipeRepository      = (*RecipeRepository)(nil)
	_ ports.IngredientRepository  = (*IngredientRepository)(nil)
	_ ports.InstructionRepository = (*InstructionRepository)(nil)
	_ ports.HealthChecker         = (*RecipeRepository)(nil)
)
