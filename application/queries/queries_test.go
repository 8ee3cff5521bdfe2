package queries

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestListRecipesQuery(t *testing.T) {
	assert.NoError(t, ListRecipesQuery{}.Validate())
	assert.Error(t, ListRecipesQuery{Limit: -1}.Validate())
	assert.Error(t, ListRecipesQuery{Offset: -1}.Validate())

	assert.Equal(t, 20, ListRecipesQuery{}.Normalized(20, 50).Limit)
	assert.Equal(t, 50, ListRecipesQuery{Limit: 1000}.Normalized(20, 50).Limit)
	assert.Equal(t, 3, ListRecipesQuery{Limit: 3}.Normalized(20, 50).Limit)
}

func TestGetRecipeQuery(t *testing.T) {
	id := uuid.NewString()
	q := GetRecipeQuery{RecipeID: id}

	assert.NoError(t, q.Validate())
	assert.Equal(t, "recipe:"+id, q.CacheKey())
	assert.Error(t, GetRecipeQuery{RecipeID: "abc"}.Validate())
}

func TestRecipeCacheKey_CanonicalForms(t *testing.T) {
	id := uuid.NewString()
	for _, spelling := range []string{
		id,
		strings.ToUpper(id),
		"{" + id + "}",
		"urn:uuid:" + id,
	} {
		assert.Equal(t, "recipe:"+id, RecipeCacheKey(spelling), spelling)
		assert.Equal(t, "recipe:"+id, GetRecipeQuery{RecipeID: spelling}.CacheKey(), spelling)
	}
}
