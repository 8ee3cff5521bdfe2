package dynamodb

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"recipebook/application/ports"
	"recipebook/domain/core/entities"
	"recipebook/domain/core/valueobjects"
)

// childQuery selects the items under a recipe partition whose SK starts with prefix
func (t *table) childQuery(recipeID valueobjects.RecipeID, prefix string, keysOnly bool) (*dynamodb.QueryInput, error) {
	builder := expression.NewBuilder().WithKeyCondition(
		expression.Key("PK").Equal(expression.Value(recipePK(recipeID.String()))).
			And(expression.Key("SK").BeginsWith(prefix)),
	)
	if keysOnly {
		builder = builder.WithProjection(expression.NamesList(expression.Name("PK"), expression.Name("SK")))
	}
	expr, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build child query: %w", err)
	}
	return &dynamodb.QueryInput{
		TableName:                 aws.String(t.name),
		KeyConditionExpression:    expr.KeyCondition(),
		ProjectionExpression:      expr.Projection(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(true),
		ConsistentRead:            aws.Bool(true),
	}, nil
}

func (t *table) deleteChildren(ctx context.Context, recipeID valueobjects.RecipeID, prefix string) error {
	input, err := t.childQuery(recipeID, prefix, true)
	if err != nil {
		return err
	}
	keys, err := t.queryAll(ctx, input)
	if err != nil {
		return err
	}
	if err := t.batchDelete(ctx, keys); err != nil {
		return err
	}
	t.logger.Debug("Deleted recipe children",
		zap.String("recipeID", recipeID.String()),
		zap.String("prefix", prefix),
		zap.Int("count", len(keys)),
	)
	return nil
}

// IngredientRepository implements ports.IngredientRepository using DynamoDB
type IngredientRepository struct {
	table
}

// NewIngredientRepository creates a new IngredientRepository
func NewIngredientRepository(client API, tableName string, logger *zap.Logger) *IngredientRepository {
	return &IngredientRepository{table: table{client: client, name: tableName, logger: logger}}
}

type ingredientItem struct {
	PK           string `dynamodbav:"PK"`
	SK           string `dynamodbav:"SK"`
	EntityType   string `dynamodbav:"EntityType"`
	IngredientID string `dynamodbav:"IngredientID"`
	RecipeID     string `dynamodbav:"RecipeID"`
	Name         string `dynamodbav:"Name"`
	Amount       string `dynamodbav:"Amount"`
	Position     int    `dynamodbav:"Position"`
}

// SaveBatch writes ingredients in conditional transactions
func (r *IngredientRepository) SaveBatch(ctx context.Context, ingredients []*entities.Ingredient) error {
	items := make([]map[string]types.AttributeValue, 0, len(ingredients))
	for _, in := range ingredients {
		av, err := attributevalue.MarshalMap(ingredientItem{
			PK:           recipePK(in.RecipeID().String()),
			SK:           ingredientSK(in.Position()),
			EntityType:   entityIngredient,
			IngredientID: in.ID().String(),
			RecipeID:     in.RecipeID().String(),
			Name:         in.Name(),
			Amount:       in.Amount(),
			Position:     in.Position(),
		})
		if err != nil {
			return fmt.Errorf("failed to marshal ingredient: %w", err)
		}
		items = append(items, av)
	}
	return r.transactPut(ctx, items)
}

// ListByRecipe returns ingredients in position order; the zero-padded SK keeps them sorted
func (r *IngredientRepository) ListByRecipe(ctx context.Context, recipeID valueobjects.RecipeID) ([]*entities.Ingredient, error) {
	input, err := r.childQuery(recipeID, ingredientPrefix, false)
	if err != nil {
		return nil, err
	}
	raw, err := r.queryAll(ctx, input)
	if err != nil {
		return nil, err
	}
	var rows []ingredientItem
	if err := attributevalue.UnmarshalListOfMaps(raw, &rows); err != nil {
		return nil, fmt.Errorf("failed to unmarshal ingredients: %w", err)
	}
	out := make([]*entities.Ingredient, 0, len(rows))
	for _, row := range rows {
		out = append(out, entities.ReconstructIngredient(
			valueobjects.RecipeIDFromStorage(row.IngredientID),
			valueobjects.RecipeIDFromStorage(row.RecipeID),
			row.Name, row.Amount, row.Position,
		))
	}
	return out, nil
}

// DeleteByRecipe removes every ingredient item of the recipe
func (r *IngredientRepository) DeleteByRecipe(ctx context.Context, recipeID valueobjects.RecipeID) error {
	return r.deleteChildren(ctx, recipeID, ingredientPrefix)
}

// InstructionRepository implements ports.InstructionRepository using DynamoDB
type InstructionRepository struct {
	table
}

// NewInstructionRepository creates a new InstructionRepository
func NewInstructionRepository(client API, tableName string, logger *zap.Logger) *InstructionRepository {
	return &InstructionRepository{table: table{client: client, name: tableName, logger: logger}}
}

type instructionItem struct {
	PK            string `dynamodbav:"PK"`
	SK            string `dynamodbav:"SK"`
	EntityType    string `dynamodbav:"EntityType"`
	InstructionID string `dynamodbav:"InstructionID"`
	RecipeID      string `dynamodbav:"RecipeID"`
	Name          string `dynamodbav:"Name"`
	Step          string `dynamodbav:"Step"`
	Sequence      int    `dynamodbav:"Sequence"`
}

// SaveBatch writes instructions in conditional transactions
func (r *InstructionRepository) SaveBatch(ctx context.Context, instructions []*entities.Instruction) error {
	items := make([]map[string]types.AttributeValue, 0, len(instructions))
	for _, st := range instructions {
		av, err := attributevalue.MarshalMap(instructionItem{
			PK:            recipePK(st.RecipeID().String()),
			SK:            instructionSK(st.Sequence()),
			EntityType:    entityInstruction,
			InstructionID: st.ID().String(),
			RecipeID:      st.RecipeID().String(),
			Name:          st.Name(),
			Step:          st.Step(),
			Sequence:      st.Sequence(),
		})
		if err != nil {
			return fmt.Errorf("failed to marshal instruction: %w", err)
		}
		items = append(items, av)
	}
	return r.transactPut(ctx, items)
}

// ListByRecipe returns instructions in sequence order
func (r *InstructionRepository) ListByRecipe(ctx context.Context, recipeID valueobjects.RecipeID) ([]*entities.Instruction, error) {
	input, err := r.childQuery(recipeID, instructionPrefix, false)
	if err != nil {
		return nil, err
	}
	raw, err := r.queryAll(ctx, input)
	if err != nil {
		return nil, err
	}
	var rows []instructionItem
	if err := attributevalue.UnmarshalListOfMaps(raw, &rows); err != nil {
		return nil, fmt.Errorf("failed to unmarshal instructions: %w", err)
	}
	out := make([]*entities.Instruction, 0, len(rows))
	for _, row := range rows {
		out = append(out, entities.ReconstructInstruction(
			valueobjects.RecipeIDFromStorage(row.InstructionID),
			valueobjects.RecipeIDFromStorage(row.RecipeID),
			row.Name, row.Step, row.Sequence,
		))
	}
	return out, nil
}

// DeleteByRecipe removes every instruction item of the recipe
func (r *InstructionRepository) DeleteByRecipe(ctx context.Context, recipeID valueobjects.RecipeID) error {
	return r.deleteChildren(ctx, recipeID, instructionPrefix)
}

var (
	_ ports.IngredientRepository  = (*IngredientRepository)(nil)
	_ ports.InstructionRepository = (*InstructionRepository)(nil)
)
