package validators

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recipebook/domain/config"
	"recipebook/pkg/errors"
)

func validDraft() RecipeDraft {
	return RecipeDraft{
		Title:        "Pancakes",
		Description:  "Fluffy weekend pancakes",
		ImageURL:     "https://images.example.com/pancakes.jpg",
		PrepTime:     10,
		CookTime:     15,
		Servings:     4,
		Difficulty:   "easy",
		Ingredients:  []IngredientDraft{{Name: "Flour", Quantity: "2", Unit: "cups"}, {Name: "Egg", Quantity: "1"}},
		Instructions: []string{"Mix", "Fry"},
		Categories:   []string{"breakfast"},
	}
}

func fieldMessages(t *testing.T, err error) map[string]string {
	t.Helper()
	require.Error(t, err)
	var fe *errors.FieldErrors
	require.ErrorAs(t, err, &fe)
	return fe.Fields()
}

func TestRecipeValidator_Valid(t *testing.T) {
	v := NewRecipeValidator(nil)
	assert.NoError(t, v.Validate(validDraft()))

	d := validDraft()
	d.Difficulty = ""
	d.ImageURL = ""
	assert.NoError(t, v.Validate(d), "difficulty and image are optional")
}

func TestRecipeValidator_FieldMessages(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*RecipeDraft)
		field   string
		message string
	}{
		{"missing title", func(d *RecipeDraft) { d.Title = "  " }, FieldTitle, "Title is required"},
		{"missing description", func(d *RecipeDraft) { d.Description = "" }, FieldDescription, "Description is required"},
		{"zero prep time", func(d *RecipeDraft) { d.PrepTime = 0 }, FieldPrepTime, "Prep time must be greater than 0"},
		{"negative cook time", func(d *RecipeDraft) { d.CookTime = -5 }, FieldCookTime, "Cook time must be greater than 0"},
		{"zero servings", func(d *RecipeDraft) { d.Servings = 0 }, FieldServings, "Servings must be greater than 0"},
		{
			"ingredient without quantity",
			func(d *RecipeDraft) { d.Ingredients = append(d.Ingredients, IngredientDraft{Name: "Salt"}) },
			FieldIngredients, "All ingredients must have a name and quantity",
		},
		{"no ingredients", func(d *RecipeDraft) { d.Ingredients = nil }, FieldIngredients, "At least one ingredient is required"},
		{
			"blank instruction",
			func(d *RecipeDraft) { d.Instructions = []string{"Mix", " "} },
			FieldInstructions, "All instructions must be filled out",
		},
		{"no instructions", func(d *RecipeDraft) { d.Instructions = []string{} }, FieldInstructions, "At least one instruction is required"},
		{"no categories", func(d *RecipeDraft) { d.Categories = []string{" "} }, FieldCategories, "Select at least one category"},
		{"unknown category", func(d *RecipeDraft) { d.Categories = []string{"Brunch"} }, FieldCategories, "Unknown category: brunch"},
		{"bad difficulty", func(d *RecipeDraft) { d.Difficulty = "expert" }, FieldDifficulty, "Difficulty must be one of easy, medium, hard"},
		{"bad image url", func(d *RecipeDraft) { d.ImageURL = "pancakes.jpg" }, FieldImageURL, "Image URL must be a valid URL"},
		{
			"title too long",
			func(d *RecipeDraft) { d.Title = strings.Repeat("a", 201) },
			FieldTitle, "Title must be at most 200 characters",
		},
	}

	v := NewRecipeValidator(config.DefaultDomainConfig())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validDraft()
			tt.mutate(&d)

			fields := fieldMessages(t, v.Validate(d))
			assert.Equal(t, map[string]string{tt.field: tt.message}, fields)
		})
	}
}

func TestRecipeValidator_ReportsEveryFailingField(t *testing.T) {
	v := NewRecipeValidator(nil)

	fields := fieldMessages(t, v.Validate(RecipeDraft{}))

	assert.Equal(t, "Title is required", fields[FieldTitle])
	assert.Equal(t, "Description is required", fields[FieldDescription])
	assert.Equal(t, "Prep time must be greater than 0", fields[FieldPrepTime])
	assert.Equal(t, "Cook time must be greater than 0", fields[FieldCookTime])
	assert.Equal(t, "Servings must be greater than 0", fields[FieldServings])
	assert.Equal(t, "Select at least one category", fields[FieldCategories])
	assert.NotContains(t, fields, FieldDifficulty)
}

func TestRecipeValidator_AllowUnknownTags(t *testing.T) {
	cfg := config.DefaultDomainConfig()
	cfg.AllowUnknownTags = true

	d := validDraft()
	d.Categories = []string{"brunch"}
	assert.NoError(t, NewRecipeValidator(cfg).Validate(d))
}

func TestRecipeValidator_CollectionLimits(t *testing.T) {
	cfg := config.DefaultDomainConfig()
	cfg.MaxInstructions = 2

	d := validDraft()
	d.Instructions = []string{"a", "b", "c"}

	fields := fieldMessages(t, NewRecipeValidator(cfg).Validate(d))
	assert.Equal(t, "A recipe can have at most 2 instructions", fields[FieldInstructions])
}

func TestRecipeValidator_LengthsCountCharacters(t *testing.T) {
	cfg := config.DefaultDomainConfig()
	v := NewRecipeValidator(cfg)

	tests := []struct {
		name    string
		mutate  func(*RecipeDraft)
		field   string
		wantErr bool
	}{
		{"title at limit", func(d *RecipeDraft) { d.Title = strings.Repeat("煮", cfg.MaxTitleLength) }, FieldTitle, false},
		{"title over limit", func(d *RecipeDraft) { d.Title = strings.Repeat("煮", cfg.MaxTitleLength+1) }, FieldTitle, true},
		{"ingredient at limit", func(d *RecipeDraft) { d.Ingredients[0].Name = strings.Repeat("é", cfg.MaxIngredientLength) }, FieldIngredients, false},
		{"ingredient over limit", func(d *RecipeDraft) { d.Ingredients[0].Name = strings.Repeat("é", cfg.MaxIngredientLength+1) }, FieldIngredients, true},
		{"step at limit", func(d *RecipeDraft) { d.Instructions[0] = strings.Repeat("ñ", cfg.MaxInstructionLength) }, FieldInstructions, false},
		{"step over limit", func(d *RecipeDraft) { d.Instructions[0] = strings.Repeat("ñ", cfg.MaxInstructionLength+1) }, FieldInstructions, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validDraft()
			tt.mutate(&d)
			err := v.Validate(d)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			assert.Contains(t, fieldMessages(t, err)[tt.field], "at most")
		})
	}
}
