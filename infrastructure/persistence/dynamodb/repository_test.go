package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"recipebook/application/ports"
	"recipebook/domain/core/entities"
	"recipebook/domain/core/valueobjects"
	pkgerrors "recipebook/pkg/errors"
)

// fakeAPI records requests and replays canned responses
type fakeAPI struct {
	putErr      error
	getItem     map[string]types.AttributeValue
	queryPages  []*dynamodb.QueryOutput
	batchOuts   []*dynamodb.BatchWriteItemOutput
	transactErr error

	puts      []*dynamodb.PutItemInput
	deletes   []*dynamodb.DeleteItemInput
	queries   []*dynamodb.QueryInput
	transacts []*dynamodb.TransactWriteItemsInput
	batches   []*dynamodb.BatchWriteItemInput
}

func (f *fakeAPI) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.puts = append(f.puts, in)
	return &dynamodb.PutItemOutput{}, f.putErr
}

func (f *fakeAPI) GetItem(context.Context, *dynamodb.GetItemInput, ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	return &dynamodb.GetItemOutput{Item: f.getItem}, nil
}

func (f *fakeAPI) DeleteItem(_ context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.deletes = append(f.deletes, in)
	return &dynamodb.DeleteItemOutput{}, nil
}

func (f *fakeAPI) Query(_ context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	copied := *in
	f.queries = append(f.queries, &copied)
	if len(f.queryPages) == 0 {
		return &dynamodb.QueryOutput{}, nil
	}
	page := f.queryPages[0]
	f.queryPages = f.queryPages[1:]
	return page, nil
}

func (f *fakeAPI) Scan(context.Context, *dynamodb.ScanInput, ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	return &dynamodb.ScanOutput{}, nil
}

func (f *fakeAPI) TransactWriteItems(_ context.Context, in *dynamodb.TransactWriteItemsInput, _ ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
	f.transacts = append(f.transacts, in)
	return &dynamodb.TransactWriteItemsOutput{}, f.transactErr
}

func (f *fakeAPI) BatchWriteItem(_ context.Context, in *dynamodb.BatchWriteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error) {
	f.batches = append(f.batches, in)
	if len(f.batchOuts) == 0 {
		return &dynamodb.BatchWriteItemOutput{}, nil
	}
	out := f.batchOuts[0]
	f.batchOuts = f.batchOuts[1:]
	return out, nil
}

func (f *fakeAPI) DescribeTable(context.Context, *dynamodb.DescribeTableInput, ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	return &dynamodb.DescribeTableOutput{}, nil
}

const testTable = "recipes-test"

func sampleRecipe(t *testing.T, title string, createdAt time.Time) *entities.Recipe {
	t.Helper()
	recipe, err := entities.NewRecipe(entities.RecipeParams{
		Title:       title,
		Description: "A Hearty Dish",
		ImageURL:    "https://img.example.com/x.jpg",
		PrepTime:    10,
		CookTime:    20,
		Servings:    3,
		Difficulty:  valueobjects.DifficultyHard,
		Categories:  valueobjects.NewCategories([]string{"dinner", "vegan"}),
		OwnerID:     "user-1",
		CreatedAt:   createdAt,
	})
	require.NoError(t, err)
	return recipe
}

func marshalRecipe(t *testing.T, r *entities.Recipe) map[string]types.AttributeValue {
	t.Helper()
	av, err := attributevalue.MarshalMap(toRecipeItem(r))
	require.NoError(t, err)
	return av
}

func TestRecipeItem_KeysAndSearchFields(t *testing.T) {
	created := time.Date(2024, 6, 1, 8, 30, 0, 0, time.UTC)
	recipe := sampleRecipe(t, "Lentil Stew", created)
	item := toRecipeItem(recipe)

	assert.Equal(t, "RECIPE#"+recipe.ID().String(), item.PK)
	assert.Equal(t, "METADATA", item.SK)
	assert.Equal(t, "RECIPES", item.GSI1PK)
	assert.Equal(t, "2024-06-01T08:30:00.000000000Z#"+recipe.ID().String(), item.GSI1SK)
	assert.Equal(t, "lentil stew", item.TitleLower)
	assert.Equal(t, "a hearty dish", item.DescriptionLower)
	assert.Equal(t, "dinner,vegan", item.Categories)
	assert.Equal(t, []string{"dinner", "vegan"}, item.CategorySet)

	back, err := item.toEntity()
	require.NoError(t, err)
	assert.True(t, recipe.ID().Equals(back.ID()))
	assert.Equal(t, created, back.CreatedAt())
	assert.Equal(t, valueobjects.DifficultyHard, back.Difficulty())
	assert.True(t, back.HasCategory("vegan"))
}

func TestRecipeListSK_TiesOrderByIDDescending(t *testing.T) {
	created := time.Date(2024, 6, 1, 8, 30, 0, 0, time.UTC)
	low := recipeListSK(created, "1b4e28ba-2fa1-4d2a-883f-0016d3cca427")
	high := recipeListSK(created, "9b4e28ba-2fa1-4d2a-883f-0016d3cca427")
	later := recipeListSK(created.Add(time.Nanosecond), "0b4e28ba-2fa1-4d2a-883f-0016d3cca427")

	// the list query reads GSI1 with ScanIndexForward=false, newest key first
	keys := []string{low, later, high}
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))
	assert.Equal(t, []string{later, high, low}, keys)
}

func TestRecipeRepository_SaveIsConditional(t *testing.T) {
	api := &fakeAPI{}
	repo := NewRecipeRepository(api, testTable, zap.NewNop())

	require.NoError(t, repo.Save(context.Background(), sampleRecipe(t, "Soup", time.Now())))
	require.Len(t, api.puts, 1)
	assert.Equal(t, "attribute_not_exists(PK)", aws.ToString(api.puts[0].ConditionExpression))

	api.putErr = &types.ConditionalCheckFailedException{Message: aws.String("exists")}
	err := repo.Save(context.Background(), sampleRecipe(t, "Soup", time.Now()))
	assert.True(t, pkgerrors.IsConflict(err))
}

func TestRecipeRepository_GetByID(t *testing.T) {
	recipe := sampleRecipe(t, "Curry", time.Now())
	api := &fakeAPI{}
	repo := NewRecipeRepository(api, testTable, zap.NewNop())

	_, err := repo.GetByID(context.Background(), recipe.ID())
	assert.True(t, pkgerrors.IsNotFound(err))

	api.getItem = marshalRecipe(t, recipe)
	got, err := repo.GetByID(context.Background(), recipe.ID())
	require.NoError(t, err)
	assert.Equal(t, "Curry", got.Title())
}

func TestRecipeRepository_ListPagesUntilOffsetAndLimit(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var all []map[string]types.AttributeValue
	for i := 5; i > 0; i-- {
		all = append(all, marshalRecipe(t, sampleRecipe(t, fmt.Sprintf("Recipe %d", i), base.Add(time.Duration(i)*time.Hour))))
	}
	cursor := map[string]types.AttributeValue{"PK": &types.AttributeValueMemberS{Value: "cursor"}}

	api := &fakeAPI{queryPages: []*dynamodb.QueryOutput{
		{Items: all[:2], LastEvaluatedKey: cursor},
		{Items: all[2:4], LastEvaluatedKey: cursor},
		{Items: all[4:]},
	}}
	repo := NewRecipeRepository(api, testTable, zap.NewNop())

	got, err := repo.List(context.Background(), ports.RecipeFilter{
		Search:   " Hearty ",
		Category: "Vegan",
		OwnerID:  "user-1",
		Limit:    2,
		Offset:   1,
	})
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, "Recipe 4", got[0].Title())
	assert.Equal(t, "Recipe 3", got[1].Title())
	assert.Len(t, api.queries, 2, "stops once offset+limit items were collected")

	q := api.queries[0]
	assert.Equal(t, "GSI1", aws.ToString(q.IndexName))
	assert.False(t, aws.ToBool(q.ScanIndexForward))
	require.NotNil(t, q.FilterExpression)
	assert.Contains(t, q.ExpressionAttributeValues, ":2")
	assert.Equal(t, cursor, api.queries[1].ExclusiveStartKey)

	var names []string
	for _, n := range q.ExpressionAttributeNames {
		names = append(names, n)
	}
	assert.ElementsMatch(t, []string{"GSI1PK", "TitleLower", "DescriptionLower", "CategorySet", "OwnerID"}, names)
}

func TestRecipeRepository_ListWithoutFilters(t *testing.T) {
	api := &fakeAPI{}
	repo := NewRecipeRepository(api, testTable, zap.NewNop())

	got, err := repo.List(context.Background(), ports.RecipeFilter{Category: "all", Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, got)
	require.Len(t, api.queries, 1)
	assert.Nil(t, api.queries[0].FilterExpression)
}

func TestIngredientRepository_SaveBatchChunksTransactions(t *testing.T) {
	api := &fakeAPI{}
	repo := NewIngredientRepository(api, testTable, zap.NewNop())
	recipeID := valueobjects.NewRecipeID()

	var ingredients []*entities.Ingredient
	for i := 0; i < 150; i++ {
		in, err := entities.NewIngredient(recipeID, fmt.Sprintf("item %d", i), "1", i)
		require.NoError(t, err)
		ingredients = append(ingredients, in)
	}

	require.NoError(t, repo.SaveBatch(context.Background(), ingredients))
	require.Len(t, api.transacts, 2)
	assert.Len(t, api.transacts[0].TransactItems, 100)
	assert.Len(t, api.transacts[1].TransactItems, 50)

	first := api.transacts[0].TransactItems[0].Put
	assert.Equal(t, &types.AttributeValueMemberS{Value: "INGREDIENT#0000"}, first.Item["SK"])
	assert.Equal(t, &types.AttributeValueMemberS{Value: recipePK(recipeID.String())}, first.Item["PK"])
}

func TestInstructionRepository_SaveBatchConflict(t *testing.T) {
	api := &fakeAPI{transactErr: &types.TransactionCanceledException{
		CancellationReasons: []types.CancellationReason{{Code: aws.String("ConditionalCheckFailed")}},
	}}
	repo := NewInstructionRepository(api, testTable, zap.NewNop())
	steps, err := entities.NewInstructions(valueobjects.NewRecipeID(), []string{"Boil"})
	require.NoError(t, err)

	err = repo.SaveBatch(context.Background(), steps)
	assert.True(t, pkgerrors.IsConflict(err))
}

func TestInstructionRepository_ListByRecipe(t *testing.T) {
	recipeID := valueobjects.NewRecipeID()
	steps, err := entities.NewInstructions(recipeID, []string{"Chop", "Fry"})
	require.NoError(t, err)

	var items []map[string]types.AttributeValue
	for _, st := range steps {
		av, err := attributevalue.MarshalMap(instructionItem{
			PK: recipePK(recipeID.String()), SK: instructionSK(st.Sequence()),
			InstructionID: st.ID().String(), RecipeID: recipeID.String(),
			Name: st.Name(), Step: st.Step(), Sequence: st.Sequence(),
		})
		require.NoError(t, err)
		items = append(items, av)
	}

	api := &fakeAPI{queryPages: []*dynamodb.QueryOutput{{Items: items}}}
	got, err := NewInstructionRepository(api, testTable, zap.NewNop()).ListByRecipe(context.Background(), recipeID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Step 2", got[1].Name())
	assert.Equal(t, "Fry", got[1].Step())
	assert.True(t, aws.ToBool(api.queries[0].ScanIndexForward))
}

func TestIngredientRepository_DeleteByRecipeBatchesAndRetries(t *testing.T) {
	recipeID := valueobjects.NewRecipeID()
	var keys []map[string]types.AttributeValue
	for i := 0; i < 30; i++ {
		keys = append(keys, keyOf(recipePK(recipeID.String()), ingredientSK(i)))
	}
	unprocessed := map[string][]types.WriteRequest{
		testTable: {{DeleteRequest: &types.DeleteRequest{Key: keys[0]}}},
	}

	api := &fakeAPI{
		queryPages: []*dynamodb.QueryOutput{{Items: keys}},
		batchOuts: []*dynamodb.BatchWriteItemOutput{
			{UnprocessedItems: unprocessed},
			{},
			{},
		},
	}
	repo := NewIngredientRepository(api, testTable, zap.NewNop())

	require.NoError(t, repo.DeleteByRecipe(context.Background(), recipeID))
	require.Len(t, api.batches, 3)
	assert.Len(t, api.batches[0].RequestItems[testTable], 25)
	assert.Len(t, api.batches[1].RequestItems[testTable], 1, "unprocessed keys are retried")
	assert.Len(t, api.batches[2].RequestItems[testTable], 5)
	assert.NotNil(t, api.queries[0].ProjectionExpression)
}

func TestTranslateWriteError(t *testing.T) {
	err := translateWriteError("PutItem", errors.New("network"))
	assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeDatabase))
}
