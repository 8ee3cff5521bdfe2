package handlers

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"recipebook/application/commands"
	"recipebook/application/ports"
	"recipebook/application/sagas"
	"recipebook/domain/core/entities"
	"recipebook/domain/core/valueobjects"
)

// Tracer wraps a unit of work in a trace subsegment
type Tracer interface {
	TraceFunction(ctx context.Context, name string, fn func(context.Context) error) error
}

type noopTracer struct{}

func (noopTracer) TraceFunction(ctx context.Context, _ string, fn func(context.Context) error) error {
	return fn(ctx)
}

// CreateRecipeOrchestrator writes a recipe, then its ingredients, then its instructions.
// The three writes run as a saga: if a dependent write fails, everything stored
// under the recipe ID is purged so no partial recipe stays visible.
type CreateRecipeOrchestrator struct {
	recipeRepo      ports.RecipeRepository
	ingredientRepo  ports.IngredientRepository
	instructionRepo ports.InstructionRepository
	eventPublisher  ports.EventPublisher
	tracer          Tracer
	logger          *zap.Logger
}

// NewCreateRecipeOrchestrator creates a new orchestrator instance. tracer may be nil.
func NewCreateRecipeOrchestrator(
	recipeRepo ports.RecipeRepository,
	ingredientRepo ports.IngredientRepository,
	instructionRepo ports.InstructionRepository,
	eventPublisher ports.EventPublisher,
	tracer Tracer,
	logger *zap.Logger,
) *CreateRecipeOrchestrator {
	if tracer == nil {
		tracer = noopTracer{}
	}
	return &CreateRecipeOrchestrator{
		recipeRepo:      recipeRepo,
		ingredientRepo:  ingredientRepo,
		instructionRepo: instructionRepo,
		eventPublisher:  eventPublisher,
		tracer:          tracer,
		logger:          logger,
	}
}

// Handle creates the recipe described by cmd. cmd is assumed validated by the command bus.
func (o *CreateRecipeOrchestrator) Handle(ctx context.Context, cmd commands.CreateRecipeCommand) error {
	recipe, ingredients, instructions, err := o.build(cmd)
	if err != nil {
		return err
	}
	recipeID := recipe.ID()

	saga := sagas.New("create-recipe", o.logger, zap.String("recipeID", recipeID.String())).
		ThenCompensable("save-recipe",
			func(ctx context.Context) error {
				return o.tracer.TraceFunction(ctx, "SaveRecipe", func(ctx context.Context) error {
					return o.recipeRepo.Save(ctx, recipe)
				})
			},
			func(ctx context.Context) error {
				return o.purge(ctx, recipeID)
			}).
		Then("save-ingredients", func(ctx context.Context) error {
			return o.tracer.TraceFunction(ctx, "SaveIngredients", func(ctx context.Context) error {
				return o.ingredientRepo.SaveBatch(ctx, ingredients)
			})
		}).
		Then("save-instructions", func(ctx context.Context) error {
			return o.tracer.TraceFunction(ctx, "SaveInstructions", func(ctx context.Context) error {
				return o.instructionRepo.SaveBatch(ctx, instructions)
			})
		})

	if err := saga.Execute(ctx); err != nil {
		return fmt.Errorf("failed to create recipe: %w", err)
	}

	recipe.RecordCreated(len(ingredients), len(instructions))
	o.publish(ctx, recipe)

	o.logger.Info("Recipe created",
		zap.String("recipeID", recipeID.String()),
		zap.String("userID", cmd.UserID),
		zap.Int("ingredients", len(ingredients)),
		zap.Int("instructions", len(instructions)),
	)
	return nil
}

func (o *CreateRecipeOrchestrator) build(cmd commands.CreateRecipeCommand) (*entities.Recipe, []*entities.Ingredient, []*entities.Instruction, error) {
	recipeID, err := valueobjects.NewRecipeIDFromString(cmd.RecipeID)
	if err != nil {
		return nil, nil, nil, err
	}
	difficulty, err := valueobjects.ParseDifficulty(cmd.Difficulty)
	if err != nil {
		return nil, nil, nil, err
	}

	recipe, err := entities.NewRecipe(entities.RecipeParams{
		ID:          recipeID,
		Title:       cmd.Title,
		Description: cmd.Description,
		ImageURL:    cmd.ImageURL,
		PrepTime:    cmd.PrepTime,
		CookTime:    cmd.CookTime,
		Servings:    cmd.Servings,
		Difficulty:  difficulty,
		Categories:  valueobjects.NewCategories(cmd.Categories),
		OwnerID:     cmd.UserID,
	})
	if err != nil {
		return nil, nil, nil, err
	}

	ingredients := make([]*entities.Ingredient, 0, len(cmd.Ingredients))
	for i, in := range cmd.Ingredients {
		ingredient, err := entities.NewIngredient(recipeID, in.Name, entities.FormatAmount(in.Quantity, in.Unit), i)
		if err != nil {
			return nil, nil, nil, err
		}
		ingredients = append(ingredients, ingredient)
	}

	instructions, err := entities.NewInstructions(recipeID, cmd.Instructions)
	if err != nil {
		return nil, nil, nil, err
	}
	return recipe, ingredients, instructions, nil
}

// purge removes dependents before the parent so a reader never sees children without a recipe
func (o *CreateRecipeOrchestrator) purge(ctx context.Context, id valueobjects.RecipeID) error {
	if err := o.instructionRepo.DeleteByRecipe(ctx, id); err != nil {
		return fmt.Errorf("purge instructions: %w", err)
	}
	if err := o.ingredientRepo.DeleteByRecipe(ctx, id); err != nil {
		return fmt.Errorf("purge ingredients: %w", err)
	}
	if err := o.recipeRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("purge recipe: %w", err)
	}
	return nil
}

func (o *CreateRecipeOrchestrator) publish(ctx context.Context, recipe *entities.Recipe) {
	pending := recipe.GetUncommittedEvents()
	if len(pending) == 0 || o.eventPublisher == nil {
		return
	}
	if err := o.eventPublisher.PublishBatch(ctx, pending); err != nil {
		// The recipe is stored; a lost notification only delays live refresh.
		o.logger.Error("Failed to publish domain events",
			zap.String("recipeID", recipe.ID().String()),
			zap.Int("eventCount", len(pending)),
			zap.Error(err),
		)
		return
	}
	recipe.MarkEventsAsCommitted()
}
