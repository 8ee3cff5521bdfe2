package handlers

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"recipebook/application/commands"
	"recipebook/application/ports"
	"recipebook/application/queries"
	"recipebook/domain/core/valueobjects"
	pkgerrors "recipebook/pkg/errors"
)

// DeleteRecipeHandler handles recipe deletion, cascading to ingredients and instructions
type DeleteRecipeHandler struct {
	recipeRepo      ports.RecipeRepository
	ingredientRepo  ports.IngredientRepository
	instructionRepo ports.InstructionRepository
	eventPublisher  ports.EventPublisher
	cache           ports.Cache
	logger          *zap.Logger
}

// NewDeleteRecipeHandler creates a new delete recipe handler. cache may be nil.
func NewDeleteRecipeHandler(
	recipeRepo ports.RecipeRepository,
	ingredientRepo ports.IngredientRepository,
	instructionRepo ports.InstructionRepository,
	eventPublisher ports.EventPublisher,
	cache ports.Cache,
	logger *zap.Logger,
) *DeleteRecipeHandler {
	return &DeleteRecipeHandler{
		recipeRepo:      recipeRepo,
		ingredientRepo:  ingredientRepo,
		instructionRepo: instructionRepo,
		eventPublisher:  eventPublisher,
		cache:           cache,
		logger:          logger,
	}
}

// Handle executes the delete recipe command
func (h *DeleteRecipeHandler) Handle(ctx context.Context, cmd commands.DeleteRecipeCommand) error {
	recipeID, err := valueobjects.NewRecipeIDFromString(cmd.RecipeID)
	if err != nil {
		return pkgerrors.NewValidationError(err.Error())
	}

	recipe, err := h.recipeRepo.GetByID(ctx, recipeID)
	if err != nil {
		return fmt.Errorf("failed to get recipe: %w", err)
	}
	if !recipe.IsOwnedBy(cmd.UserID) {
		h.logger.Warn("Rejected delete of another user's recipe",
			zap.String("recipeID", cmd.RecipeID),
			zap.String("userID", cmd.UserID),
		)
		return pkgerrors.NewForbiddenError("you can only delete your own recipes")
	}

	if err := h.instructionRepo.DeleteByRecipe(ctx, recipeID); err != nil {
		return fmt.Errorf("failed to delete instructions: %w", err)
	}
	if err := h.ingredientRepo.DeleteByRecipe(ctx, recipeID); err != nil {
		return fmt.Errorf("failed to delete ingredients: %w", err)
	}
	if err := h.recipeRepo.Delete(ctx, recipeID); err != nil {
		return fmt.Errorf("failed to delete recipe: %w", err)
	}

	if h.cache != nil {
		if err := h.cache.Delete(ctx, queries.RecipeCacheKey(recipeID.String())); err != nil {
			h.logger.Warn("Failed to evict cached recipe", zap.String("recipeID", cmd.RecipeID), zap.Error(err))
		}
	}

	recipe.RecordDeleted(cmd.UserID)
	if h.eventPublisher != nil {
		if err := h.eventPublisher.PublishBatch(ctx, recipe.GetUncommittedEvents()); err != nil {
			h.logger.Error("Failed to publish domain events", zap.String("recipeID", cmd.RecipeID), zap.Error(err))
		} else {
			recipe.MarkEventsAsCommitted()
		}
	}

	h.logger.Info("Recipe deleted", zap.String("recipeID", cmd.RecipeID), zap.String("userID", cmd.UserID))
	return nil
}
