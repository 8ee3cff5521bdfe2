package dynamodb

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"recipebook/application/ports"
	"recipebook/domain/core/entities"
	"recipebook/domain/core/valueobjects"
	pkgerrors "recipebook/pkg/errors"
	"recipebook/pkg/utils"
)

// listPageSize bounds how many items each GSI1 query evaluates before filtering
const listPageSize = 100

// RecipeRepository implements ports.RecipeRepository using DynamoDB
type RecipeRepository struct {
	table
}

// NewRecipeRepository creates a new RecipeRepository
func NewRecipeRepository(client API, tableName string, logger *zap.Logger) *RecipeRepository {
	return &RecipeRepository{table: table{client: client, name: tableName, logger: logger}}
}

// recipeItem represents the DynamoDB item structure for a recipe
type recipeItem struct {
	PK               string   `dynamodbav:"PK"`
	SK               string   `dynamodbav:"SK"`
	GSI1PK           string   `dynamodbav:"GSI1PK"`
	GSI1SK           string   `dynamodbav:"GSI1SK"`
	EntityType       string   `dynamodbav:"EntityType"`
	RecipeID         string   `dynamodbav:"RecipeID"`
	Title            string   `dynamodbav:"Title"`
	TitleLower       string   `dynamodbav:"TitleLower"`
	Description      string   `dynamodbav:"Description"`
	DescriptionLower string   `dynamodbav:"DescriptionLower"`
	ImageURL         string   `dynamodbav:"ImageURL,omitempty"`
	PrepTime         int      `dynamodbav:"PrepTime"`
	CookTime         int      `dynamodbav:"CookTime"`
	Servings         int      `dynamodbav:"Servings"`
	Difficulty       string   `dynamodbav:"Difficulty"`
	Categories       string   `dynamodbav:"Categories"`
	CategorySet      []string `dynamodbav:"CategorySet,stringset,omitempty"`
	OwnerID          string   `dynamodbav:"OwnerID,omitempty"`
	CreatedAt        string   `dynamodbav:"CreatedAt"`
	UpdatedAt        string   `dynamodbav:"UpdatedAt"`
}

func toRecipeItem(r *entities.Recipe) recipeItem {
	id := r.ID().String()
	return recipeItem{
		PK:               recipePK(id),
		SK:               metadataSK,
		GSI1PK:           recipeListPK,
		GSI1SK:           recipeListSK(r.CreatedAt(), id),
		EntityType:       entityRecipe,
		RecipeID:         id,
		Title:            r.Title(),
		TitleLower:       strings.ToLower(r.Title()),
		Description:      r.Description(),
		DescriptionLower: strings.ToLower(r.Description()),
		ImageURL:         r.ImageURL(),
		PrepTime:         r.PrepTime(),
		CookTime:         r.CookTime(),
		Servings:         r.Servings(),
		Difficulty:       r.Difficulty().String(),
		Categories:       r.Categories().String(),
		CategorySet:      r.Categories().Values(),
		OwnerID:          r.OwnerID(),
		CreatedAt:        utils.FormatTimestamp(r.CreatedAt()),
		UpdatedAt:        utils.FormatTimestamp(r.UpdatedAt()),
	}
}

func (item recipeItem) toEntity() (*entities.Recipe, error) {
	createdAt, err := utils.ParseTimestamp(item.CreatedAt)
	if err != nil {
		return nil, err
	}
	updatedAt, err := utils.ParseTimestamp(item.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return entities.ReconstructRecipe(entities.RecipeParams{
		ID:          valueobjects.RecipeIDFromStorage(item.RecipeID),
		Title:       item.Title,
		Description: item.Description,
		ImageURL:    item.ImageURL,
		PrepTime:    item.PrepTime,
		CookTime:    item.CookTime,
		Servings:    item.Servings,
		Difficulty:  valueobjects.Difficulty(item.Difficulty),
		Categories:  valueobjects.ParseCategories(item.Categories),
		OwnerID:     item.OwnerID,
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}), nil
}

// Save creates the recipe item. An existing item with the same ID is a conflict.
func (r *RecipeRepository) Save(ctx context.Context, recipe *entities.Recipe) error {
	av, err := attributevalue.MarshalMap(toRecipeItem(recipe))
	if err != nil {
		return fmt.Errorf("failed to marshal recipe: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.name),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err != nil {
		r.logger.Error("Failed to save recipe",
			zap.String("recipeID", recipe.ID().String()),
			zap.Error(err),
		)
		return translateWriteError("PutItem", err)
	}

	r.logger.Debug("Saved recipe", zap.String("recipeID", recipe.ID().String()))
	return nil
}

// GetByID retrieves a recipe by ID
func (r *RecipeRepository) GetByID(ctx context.Context, id valueobjects.RecipeID) (*entities.Recipe, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.name),
		Key:            keyOf(recipePK(id.String()), metadataSK),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("GetItem", err)
	}
	if len(out.Item) == 0 {
		return nil, pkgerrors.NewNotFoundError("recipe").WithDetail("recipe_id", id.String())
	}

	var item recipeItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal recipe: %w", err)
	}
	return item.toEntity()
}

// List queries GSI1 newest first. Filters are evaluated server side, so paging
// continues until offset+limit matching items were seen or the index is exhausted.
func (r *RecipeRepository) List(ctx context.Context, filter ports.RecipeFilter) ([]*entities.Recipe, error) {
	input, err := r.buildListQuery(filter)
	if err != nil {
		return nil, err
	}

	wanted := filter.Offset + filter.Limit
	var items []map[string]types.AttributeValue
	for {
		out, err := r.client.Query(ctx, input)
		if err != nil {
			r.logger.Error("Failed to list recipes", zap.Error(err))
			return nil, pkgerrors.NewDatabaseError("Query", err)
		}
		items = append(items, out.Items...)
		if len(out.LastEvaluatedKey) == 0 || (filter.Limit > 0 && len(items) >= wanted) {
			break
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}

	if filter.Offset >= len(items) {
		return []*entities.Recipe{}, nil
	}
	items = items[filter.Offset:]
	if filter.Limit > 0 && len(items) > filter.Limit {
		items = items[:filter.Limit]
	}

	var rows []recipeItem
	if err := attributevalue.UnmarshalListOfMaps(items, &rows); err != nil {
		return nil, fmt.Errorf("failed to unmarshal recipes: %w", err)
	}
	recipes := make([]*entities.Recipe, 0, len(rows))
	for _, row := range rows {
		recipe, err := row.toEntity()
		if err != nil {
			r.logger.Warn("Skipping malformed recipe item", zap.String("recipeID", row.RecipeID), zap.Error(err))
			continue
		}
		recipes = append(recipes, recipe)
	}
	return recipes, nil
}

func (r *RecipeRepository) buildListQuery(filter ports.RecipeFilter) (*dynamodb.QueryInput, error) {
	builder := expression.NewBuilder().
		WithKeyCondition(expression.Key("GSI1PK").Equal(expression.Value(recipeListPK)))

	var conditions []expression.ConditionBuilder
	if term := strings.ToLower(strings.TrimSpace(filter.Search)); term != "" {
		conditions = append(conditions, expression.Or(
			expression.Name("TitleLower").Contains(term),
			expression.Name("DescriptionLower").Contains(term),
		))
	}
	if category := strings.ToLower(strings.TrimSpace(filter.Category)); category != "" && category != "all" {
		conditions = append(conditions, expression.Name("CategorySet").Contains(category))
	}
	if filter.OwnerID != "" {
		conditions = append(conditions, expression.Name("OwnerID").Equal(expression.Value(filter.OwnerID)))
	}
	switch len(conditions) {
	case 0:
	case 1:
		builder = builder.WithFilter(conditions[0])
	default:
		builder = builder.WithFilter(expression.And(conditions[0], conditions[1], conditions[2:]...))
	}

	expr, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build list expression: %w", err)
	}
	return &dynamodb.QueryInput{
		TableName:                 aws.String(r.name),
		IndexName:                 aws.String(gsi1Name),
		KeyConditionExpression:    expr.KeyCondition(),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(false),
		Limit:                     aws.Int32(listPageSize),
	}, nil
}

// Delete removes the recipe item
func (r *RecipeRepository) Delete(ctx context.Context, id valueobjects.RecipeID) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.name),
		Key:       keyOf(recipePK(id.String()), metadataSK),
	})
	if err != nil {
		return pkgerrors.NewDatabaseError("DeleteItem", err)
	}
	return nil
}

var (
	_ ports.RecipeRepository = (*RecipeRepository)(nil)
	_ ports.HealthChecker    = (*RecipeRepository)(nil)
)
