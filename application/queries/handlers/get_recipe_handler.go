package handlers

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"recipebook/application/ports"
	"recipebook/application/queries"
	"recipebook/domain/core/entities"
	"recipebook/domain/core/valueobjects"
)

// GetRecipeHandler handles recipe detail queries
type GetRecipeHandler struct {
	recipeRepo      ports.RecipeRepository
	ingredientRepo  ports.IngredientRepository
	instructionRepo ports.InstructionRepository
	logger          *zap.Logger
}

// NewGetRecipeHandler creates a new recipe detail handler
func NewGetRecipeHandler(
	recipeRepo ports.RecipeRepository,
	ingredientRepo ports.IngredientRepository,
	instructionRepo ports.InstructionRepository,
	logger *zap.Logger,
) *GetRecipeHandler {
	return &GetRecipeHandler{
		recipeRepo:      recipeRepo,
		ingredientRepo:  ingredientRepo,
		instructionRepo: instructionRepo,
		logger:          logger,
	}
}

// Handle loads the recipe, then its ingredients and instructions concurrently
func (h *GetRecipeHandler) Handle(ctx context.Context, query queries.GetRecipeQuery) (*queries.GetRecipeResult, error) {
	recipeID, err := valueobjects.NewRecipeIDFromString(query.RecipeID)
	if err != nil {
		return nil, err
	}

	recipe, err := h.recipeRepo.GetByID(ctx, recipeID)
	if err != nil {
		return nil, fmt.Errorf("failed to get recipe: %w", err)
	}

	var (
		ingredients  []*entities.Ingredient
		instructions []*entities.Instruction
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		ingredients, err = h.ingredientRepo.ListByRecipe(gctx, recipeID)
		if err != nil {
			return fmt.Errorf("failed to list ingredients: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		instructions, err = h.instructionRepo.ListByRecipe(gctx, recipeID)
		if err != nil {
			return fmt.Errorf("failed to list instructions: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		h.logger.Error("Failed to load recipe details", zap.String("recipeID", query.RecipeID), zap.Error(err))
		return nil, err
	}

	result := &queries.GetRecipeResult{
		RecipeSummary: queries.NewRecipeSummary(recipe),
		UpdatedAt:     recipe.UpdatedAt().UTC().Format(time.RFC3339),
		Ingredients:   make([]queries.IngredientView, 0, len(ingredients)),
		Instructions:  make([]queries.InstructionView, 0, len(instructions)),
	}
	for _, in := range ingredients {
		result.Ingredients = append(result.Ingredients, queries.IngredientView{
			ID:     in.ID().String(),
			Name:   in.Name(),
			Amount: in.Amount(),
		})
	}
	for _, st := range instructions {
		result.Instructions = append(result.Instructions, queries.InstructionView{
			ID:       st.ID().String(),
			Name:     st.Name(),
			Step:     st.Step(),
			Sequence: st.Sequence(),
		})
	}
	return result, nil
}
