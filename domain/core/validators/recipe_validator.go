package validators

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"recipebook/domain/config"
	"recipebook/domain/core/valueobjects"
	"recipebook/pkg/errors"
	"recipebook/pkg/utils"
)

// Field keys match the JSON names of the create payload.
const (
	FieldTitle        = "title"
	FieldDescription  = "description"
	FieldImageURL     = "imageUrl"
	FieldPrepTime     = "prepTime"
	FieldCookTime     = "cookTime"
	FieldServings     = "servings"
	FieldDifficulty   = "difficulty"
	FieldIngredients  = "ingredients"
	FieldInstructions = "instructions"
	FieldCategories   = "categories"
)

// IngredientDraft is one ingredient row of the recipe form.
type IngredientDraft struct {
	Name     string
	Quantity string
	Unit     string
}

// RecipeDraft is the recipe form as submitted, before any entity is built.
type RecipeDraft struct {
	Title        string
	Description  string
	ImageURL     string
	PrepTime     int
	CookTime     int
	Servings     int
	Difficulty   string
	Ingredients  []IngredientDraft
	Instructions []string
	Categories   []string
}

// RecipeValidator validates recipe drafts against the domain limits
type RecipeValidator struct {
	cfg *config.DomainConfig
}

// NewRecipeValidator creates a validator. A nil config falls back to the defaults.
func NewRecipeValidator(cfg *config.DomainConfig) *RecipeValidator {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	return &RecipeValidator{cfg: cfg}
}

// Validate returns *errors.FieldErrors with one message per failing field, or nil.
func (v *RecipeValidator) Validate(d RecipeDraft) error {
	fe := errors.NewFieldErrors()

	v.validateText(fe, FieldTitle, "Title", d.Title, v.cfg.MaxTitleLength)
	v.validateText(fe, FieldDescription, "Description", d.Description, v.cfg.MaxDescriptionLength)

	if url := strings.TrimSpace(d.ImageURL); url != "" && !utils.IsHTTPURL(url) {
		fe.Add(FieldImageURL, "Image URL must be a valid URL")
	}

	validatePositive(fe, FieldPrepTime, "Prep time", d.PrepTime, v.cfg.MaxPrepTimeMinutes)
	validatePositive(fe, FieldCookTime, "Cook time", d.CookTime, v.cfg.MaxCookTimeMinutes)
	validatePositive(fe, FieldServings, "Servings", d.Servings, v.cfg.MaxServings)

	if _, err := valueobjects.ParseDifficulty(d.Difficulty); err != nil {
		fe.Add(FieldDifficulty, "Difficulty must be one of easy, medium, hard")
	}

	v.validateIngredients(fe, d.Ingredients)
	v.validateInstructions(fe, d.Instructions)
	v.validateCategories(fe, d.Categories)

	return fe.ErrOrNil()
}

func (v *RecipeValidator) validateText(fe *errors.FieldErrors, field, label, value string, max int) {
	value = strings.TrimSpace(value)
	if value == "" {
		fe.Add(field, label+" is required")
		return
	}
	if max > 0 && utf8.RuneCountInString(value) > max {
		fe.Add(field, fmt.Sprintf("%s must be at most %d characters", label, max))
	}
}

func validatePositive(fe *errors.FieldErrors, field, label string, value, max int) {
	if value <= 0 {
		fe.Add(field, label+" must be greater than 0")
		return
	}
	if max > 0 && value > max {
		fe.Add(field, fmt.Sprintf("%s must be at most %d", label, max))
	}
}

func (v *RecipeValidator) validateIngredients(fe *errors.FieldErrors, ingredients []IngredientDraft) {
	if len(ingredients) == 0 {
		fe.Add(FieldIngredients, "At least one ingredient is required")
		return
	}
	if len(ingredients) > v.cfg.MaxIngredients {
		fe.Add(FieldIngredients, fmt.Sprintf("A recipe can have at most %d ingredients", v.cfg.MaxIngredients))
		return
	}
	for _, ing := range ingredients {
		if strings.TrimSpace(ing.Name) == "" || strings.TrimSpace(ing.Quantity) == "" {
			fe.Add(FieldIngredients, "All ingredients must have a name and quantity")
			return
		}
		if utf8.RuneCountInString(ing.Name) > v.cfg.MaxIngredientLength {
			fe.Add(FieldIngredients, fmt.Sprintf("Ingredient names must be at most %d characters", v.cfg.MaxIngredientLength))
			return
		}
	}
}

func (v *RecipeValidator) validateInstructions(fe *errors.FieldErrors, steps []string) {
	if len(steps) == 0 {
		fe.Add(FieldInstructions, "At least one instruction is required")
		return
	}
	if len(steps) > v.cfg.MaxInstructions {
		fe.Add(FieldInstructions, fmt.Sprintf("A recipe can have at most %d instructions", v.cfg.MaxInstructions))
		return
	}
	for _, step := range steps {
		if strings.TrimSpace(step) == "" {
			fe.Add(FieldInstructions, "All instructions must be filled out")
			return
		}
		if utf8.RuneCountInString(step) > v.cfg.MaxInstructionLength {
			fe.Add(FieldInstructions, fmt.Sprintf("Instructions must be at most %d characters", v.cfg.MaxInstructionLength))
			return
		}
	}
}

func (v *RecipeValidator) validateCategories(fe *errors.FieldErrors, categories []string) {
	normalized := valueobjects.NewCategories(categories)
	if normalized.IsEmpty() {
		fe.Add(FieldCategories, "Select at least one category")
		return
	}
	if v.cfg.MaxCategories > 0 && normalized.Len() > v.cfg.MaxCategories {
		fe.Add(FieldCategories, fmt.Sprintf("Select at most %d categories", v.cfg.MaxCategories))
		return
	}
	for _, c := range normalized.Values() {
		if !v.cfg.IsKnownCategory(c) {
			fe.Add(FieldCategories, "Unknown category: "+c)
			return
		}
	}
}
