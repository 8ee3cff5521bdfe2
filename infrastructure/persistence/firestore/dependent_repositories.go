package firestore

import (
	"context"
	"errors"

	"cloud.google.com/go/firestore"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"

	"recipebook/application/ports"
	"recipebook/domain/core/entities"
	"recipebook/domain/core/valueobjects"
)

type ingredientDoc struct {
	ID       string `firestore:"id"`
	RecipeID string `firestore:"recipe_id"`
	Name     string `firestore:"name"`
	Amount   string `firestore:"amount"`
	Position int    `firestore:"position"`
}

type instructionDoc struct {
	ID       string `firestore:"id"`
	RecipeID string `firestore:"recipe_id"`
	Name     string `firestore:"name"`
	Step     string `firestore:"step"`
	Sequence int    `firestore:"sequence"`
}

// IngredientRepository implements ports.IngredientRepository on the ingredients collection
type IngredientRepository struct {
	store
}

// NewIngredientRepository creates a new IngredientRepository
func NewIngredientRepository(client *firestore.Client, logger *zap.Logger) *IngredientRepository {
	return &IngredientRepository{store: store{client: client, logger: logger}}
}

// SaveBatch creates every ingredient in one transaction
func (r *IngredientRepository) SaveBatch(ctx context.Context, ingredients []*entities.Ingredient) error {
	docs := make(map[string]interface{}, len(ingredients))
	for _, in := range ingredients {
		docs[in.ID().String()] = ingredientDoc{
			ID:       in.ID().String(),
			RecipeID: in.RecipeID().String(),
			Name:     in.Name(),
			Amount:   in.Amount(),
			Position: in.Position(),
		}
	}
	return r.createAll(ctx, ingredientsCollection, docs)
}

// ListByRecipe returns ingredients ordered by position
func (r *IngredientRepository) ListByRecipe(ctx context.Context, recipeID valueobjects.RecipeID) ([]*entities.Ingredient, error) {
	iter := r.client.Collection(ingredientsCollection).
		Where("recipe_id", "==", recipeID.String()).
		OrderBy("position", firestore.Asc).
		Documents(ctx)
	defer iter.Stop()

	out := []*entities.Ingredient{}
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			return out, nil
		}
		if err != nil {
			return nil, translateError("Documents", err)
		}
		var doc ingredientDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, translateError("DataTo", err)
		}
		id, err := valueobjects.NewRecipeIDFromString(doc.ID)
		if err != nil {
			r.logger.Warn("Skipping ingredient with malformed id", zap.String("docID", snap.Ref.ID))
			continue
		}
		out = append(out, entities.ReconstructIngredient(id, recipeID, doc.Name, doc.Amount, doc.Position))
	}
}

// DeleteByRecipe removes every ingredient of the recipe
func (r *IngredientRepository) DeleteByRecipe(ctx context.Context, recipeID valueobjects.RecipeID) error {
	n, err := r.deleteWhere(ctx, ingredientsCollection, recipeID.String())
	if err != nil {
		return err
	}
	r.logger.Debug("Deleted ingredients", zap.String("recipeID", recipeID.String()), zap.Int("count", n))
	return nil
}

// InstructionRepository implements ports.InstructionRepository on the instructions collection
type InstructionRepository struct {
	store
}

// NewInstructionRepository creates a new InstructionRepository
func NewInstructionRepository(client *firestore.Client, logger *zap.Logger) *InstructionRepository {
	return &InstructionRepository{store: store{client: client, logger: logger}}
}

// SaveBatch creates every instruction in one transaction
func (r *InstructionRepository) SaveBatch(ctx context.Context, instructions []*entities.Instruction) error {
	docs := make(map[string]interface{}, len(instructions))
	for _, st := range instructions {
		docs[st.ID().String()] = instructionDoc{
			ID:       st.ID().String(),
			RecipeID: st.RecipeID().String(),
			Name:     st.Name(),
			Step:     st.Step(),
			Sequence: st.Sequence(),
		}
	}
	return r.createAll(ctx, instructionsCollection, docs)
}

// ListByRecipe returns instructions ordered by sequence
func (r *InstructionRepository) ListByRecipe(ctx context.Context, recipeID valueobjects.RecipeID) ([]*entities.Instruction, error) {
	iter := r.client.Collection(instructionsCollection).
		Where("recipe_id", "==", recipeID.String()).
		OrderBy("sequence", firestore.Asc).
		Documents(ctx)
	defer iter.Stop()

	out := []*entities.Instruction{}
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			return out, nil
		}
		if err != nil {
			return nil, translateError("Documents", err)
		}
		var doc instructionDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, translateError("DataTo", err)
		}
		id, err := valueobjects.NewRecipeIDFromString(doc.ID)
		if err != nil {
			r.logger.Warn("Skipping instruction with malformed id", zap.String("docID", snap.Ref.ID))
			continue
		}
		out = append(out, entities.ReconstructInstruction(id, recipeID, doc.Name, doc.Step, doc.Sequence))
	}
}

// DeleteByRecipe removes every instruction of the recipe
func (r *InstructionRepository) DeleteByRecipe(ctx context.Context, recipeID valueobjects.RecipeID) error {
	n, err := r.deleteWhere(ctx, instructionsCollection, recipeID.String())
	if err != nil {
		return err
	}
	r.logger.Debug("Deleted instructions", zap.String("recipeID", recipeID.String()), zap.Int("count", n))
	return nil
}

var (
	_ ports.IngredientRepository  = (*IngredientRepository)(nil)
	_ ports.InstructionRepository = (*InstructionRepository)(nil)
)
