package memory

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recipebook/application/ports"
	"recipebook/domain/core/entities"
	"recipebook/domain/core/valueobjects"
	pkgerrors "recipebook/pkg/errors"
)

func seed(t *testing.T, repo *RecipeRepository, title, desc, owner string, created time.Time, categories ...string) *entities.Recipe {
	t.Helper()
	recipe, err := entities.NewRecipe(entities.RecipeParams{
		Title:       title,
		Description: desc,
		PrepTime:    5,
		CookTime:    5,
		Servings:    1,
		Categories:  valueobjects.NewCategories(categories),
		OwnerID:     owner,
		CreatedAt:   created,
	})
	require.NoError(t, err)
	require.NoError(t, repo.Save(context.Background(), recipe))
	return recipe
}

func TestRecipeRepository_SaveGetDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().Recipes()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	recipe := seed(t, repo, "Pancakes", "Fluffy", "u1", base, "breakfast")
	assert.True(t, pkgerrors.IsConflict(repo.Save(ctx, recipe)))

	got, err := repo.GetByID(ctx, recipe.ID())
	require.NoError(t, err)
	assert.Equal(t, "Pancakes", got.Title())

	require.NoError(t, repo.Delete(ctx, recipe.ID()))
	require.NoError(t, repo.Delete(ctx, recipe.ID()))
	_, err = repo.GetByID(ctx, recipe.ID())
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestRecipeRepository_List(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().Recipes()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	seed(t, repo, "Pancakes", "Fluffy stack", "u1", base, "breakfast")
	seed(t, repo, "Vegan Chili", "Beans and SPICE", "u2", base.Add(time.Hour), "dinner", "vegan")
	seed(t, repo, "Fruit Salad", "Spiced citrus", "u1", base.Add(2*time.Hour), "dessert", "vegan")

	titles := func(rs []*entities.Recipe) []string {
		out := make([]string, 0, len(rs))
		for _, r := range rs {
			out = append(out, r.Title())
		}
		return out
	}

	tests := []struct {
		name   string
		filter ports.RecipeFilter
		want   []string
	}{
		{"newest first", ports.RecipeFilter{}, []string{"Fruit Salad", "Vegan Chili", "Pancakes"}},
		{"category", ports.RecipeFilter{Category: "Vegan"}, []string{"Fruit Salad", "Vegan Chili"}},
		{"all category", ports.RecipeFilter{Category: "all"}, []string{"Fruit Salad", "Vegan Chili", "Pancakes"}},
		{"search description case-insensitive", ports.RecipeFilter{Search: "spice"}, []string{"Fruit Salad", "Vegan Chili"}},
		{"search title", ports.RecipeFilter{Search: "PANCAKE"}, []string{"Pancakes"}},
		{"owner", ports.RecipeFilter{OwnerID: "u1"}, []string{"Fruit Salad", "Pancakes"}},
		{"combined", ports.RecipeFilter{Search: "chili", Category: "vegan", OwnerID: "u2"}, []string{"Vegan Chili"}},
		{"limit", ports.RecipeFilter{Limit: 2}, []string{"Fruit Salad", "Vegan Chili"}},
		{"offset", ports.RecipeFilter{Offset: 1, Limit: 1}, []string{"Vegan Chili"}},
		{"offset past end", ports.RecipeFilter{Offset: 10}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.List(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, titles(got))
		})
	}
}

func TestRecipeRepository_ListTiesByIDDescending(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().Recipes()
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	a := seed(t, repo, "Toast", "Buttered", "u1", created)
	b := seed(t, repo, "Jam", "Berry", "u1", created)
	c := seed(t, repo, "Tea", "Black", "u1", created)
	want := []string{a.ID().String(), b.ID().String(), c.ID().String()}
	sort.Sort(sort.Reverse(sort.StringSlice(want)))

	got, err := repo.List(ctx, ports.RecipeFilter{})
	require.NoError(t, err)
	ids := make([]string, 0, len(got))
	for _, r := range got {
		ids = append(ids, r.ID().String())
	}
	assert.Equal(t, want, ids)
}

func TestDependents_OrderAndCascade(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	recipe := seed(t, store.Recipes(), "Soup", "Warm", "u1", time.Now(), "lunch")

	var ings []*entities.Ingredient
	for _, pos := range []int{2, 0, 1} {
		in, err := entities.NewIngredient(recipe.ID(), fmt.Sprintf("item-%d", pos), "1", pos)
		require.NoError(t, err)
		ings = append(ings, in)
	}
	require.NoError(t, store.Ingredients().SaveBatch(ctx, ings))

	steps, err := entities.NewInstructions(recipe.ID(), []string{"Boil", "Season", "Serve"})
	require.NoError(t, err)
	require.NoError(t, store.Instructions().SaveBatch(ctx, []*entities.Instruction{steps[2], steps[0], steps[1]}))

	listed, err := store.Ingredients().ListByRecipe(ctx, recipe.ID())
	require.NoError(t, err)
	require.Len(t, listed, 3)
	for i, in := range listed {
		assert.Equal(t, i, in.Position())
	}

	listedSteps, err := store.Instructions().ListByRecipe(ctx, recipe.ID())
	require.NoError(t, err)
	assert.Equal(t, "Boil", listedSteps[0].Step())
	assert.Equal(t, 3, listedSteps[2].Sequence())

	require.NoError(t, store.Ingredients().DeleteByRecipe(ctx, recipe.ID()))
	require.NoError(t, store.Instructions().DeleteByRecipe(ctx, recipe.ID()))
	listed, err = store.Ingredients().ListByRecipe(ctx, recipe.ID())
	require.NoError(t, err)
	assert.Empty(t, listed)
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := NewStore()
	_, err := store.Recipes().List(ctx, ports.RecipeFilter{})
	assert.ErrorIs(t, err, context.Canceled)
}
