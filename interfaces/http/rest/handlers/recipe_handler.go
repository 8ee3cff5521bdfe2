package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"recipebook/application/commands"
	"recipebook/application/commands/bus"
	"recipebook/application/queries"
	querybus "recipebook/application/queries/bus"
	"recipebook/domain/core/validators"
	pkgerrors "recipebook/pkg/errors"
	"recipebook/pkg/utils"
)

// RecipeHandler handles recipe-related HTTP requests
type RecipeHandler struct {
	responder
	commandBus *bus.CommandBus
	queryBus   *querybus.QueryBus
	validator  *validators.RecipeValidator
}

// NewRecipeHandler creates a new recipe handler
func NewRecipeHandler(
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	validator *validators.RecipeValidator,
	errorHandler *pkgerrors.ErrorHandler,
	logger *zap.Logger,
) *RecipeHandler {
	return &RecipeHandler{
		responder:  responder{errors: errorHandler, logger: logger},
		commandBus: commandBus,
		queryBus:   queryBus,
		validator:  validator,
	}
}

// IngredientRequest is one ingredient row of the recipe form
type IngredientRequest struct {
	Name     string `json:"name"`
	Quantity string `json:"quantity"`
	Unit     string `json:"unit,omitempty"`
}

// CreateRecipeRequest represents the request body for creating a recipe.
// Field checks live in the recipe validator so the form gets one message per field.
type CreateRecipeRequest struct {
	Title        string              `json:"title"`
	Description  string              `json:"description"`
	ImageURL     string              `json:"imageUrl,omitempty"`
	PrepTime     int                 `json:"prepTime"`
	CookTime     int                 `json:"cookTime"`
	Servings     int                 `json:"servings"`
	Difficulty   string              `json:"difficulty,omitempty"`
	Ingredients  []IngredientRequest `json:"ingredients"`
	Instructions []string            `json:"instructions"`
	Categories   []string            `json:"categories"`
}

// CreateRecipeResponse represents the response for creating a recipe
type CreateRecipeResponse struct {
	ID        string `json:"id"`
	Message   string `json:"message"`
	CreatedAt string `json:"createdAt"`
}

// listParams are the query string parameters of recipe listings
type listParams struct {
	Search   string `json:"search" validate:"max=200"`
	Category string `json:"category" validate:"max=50"`
	Limit    int    `json:"limit" validate:"gte=0,lte=100"`
	Offset   int    `json:"offset" validate:"gte=0"`
}

// CreateRecipe handles POST /recipes
func (h *RecipeHandler) CreateRecipe(w http.ResponseWriter, r *http.Request) {
	var req CreateRecipeRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	userCtx, ok := h.user(w, r)
	if !ok {
		return
	}

	recipeID := uuid.NewString()
	ingredients := make([]commands.IngredientInput, len(req.Ingredients))
	for i, in := range req.Ingredients {
		ingredients[i] = commands.IngredientInput{Name: in.Name, Quantity: in.Quantity, Unit: in.Unit}
	}
	cmd := commands.CreateRecipeCommand{
		RecipeID:     recipeID,
		UserID:       userCtx.UserID,
		Title:        req.Title,
		Description:  req.Description,
		ImageURL:     req.ImageURL,
		PrepTime:     req.PrepTime,
		CookTime:     req.CookTime,
		Servings:     req.Servings,
		Difficulty:   req.Difficulty,
		Ingredients:  ingredients,
		Instructions: req.Instructions,
		Categories:   req.Categories,
	}.WithValidator(h.validator)

	if err := h.commandBus.Send(r.Context(), cmd); err != nil {
		h.logger.Warn("Failed to create recipe",
			zap.String("userID", userCtx.UserID),
			zap.Error(err),
		)
		h.respondError(w, r, err)
		return
	}

	w.Header().Set("Location", "/api/v2/recipes/"+recipeID)
	h.respondJSON(w, http.StatusCreated, CreateRecipeResponse{
		ID:        recipeID,
		Message:   "Recipe created successfully",
		CreatedAt: utils.NowRFC3339(),
	})
}

// ListRecipes handles GET /recipes?search=&category=&mine=&limit=&offset=
func (h *RecipeHandler) ListRecipes(w http.ResponseWriter, r *http.Request) {
	userCtx, ok := h.user(w, r)
	if !ok {
		return
	}
	params, ok := h.parseListParams(w, r, 0)
	if !ok {
		return
	}

	query := queries.ListRecipesQuery{
		Search:   params.Search,
		Category: params.Category,
		Limit:    params.Limit,
		Offset:   params.Offset,
	}
	if mine, _ := strconv.ParseBool(r.URL.Query().Get("mine")); mine {
		query.OwnerID = userCtx.UserID
	}
	h.ask(w, r, query)
}

// GetRecipe handles GET /recipes/{recipeID}
func (h *RecipeHandler) GetRecipe(w http.ResponseWriter, r *http.Request) {
	recipeID, ok := h.recipeID(w, r)
	if !ok {
		return
	}
	h.ask(w, r, queries.GetRecipeQuery{RecipeID: recipeID})
}

// DeleteRecipe handles DELETE /recipes/{recipeID}
func (h *RecipeHandler) DeleteRecipe(w http.ResponseWriter, r *http.Request) {
	recipeID, ok := h.recipeID(w, r)
	if !ok {
		return
	}
	userCtx, ok := h.user(w, r)
	if !ok {
		return
	}

	if err := h.commandBus.Send(r.Context(), commands.DeleteRecipeCommand{
		RecipeID: recipeID,
		UserID:   userCtx.UserID,
	}); err != nil {
		h.logger.Warn("Failed to delete recipe",
			zap.String("recipeID", recipeID),
			zap.String("userID", userCtx.UserID),
			zap.Error(err),
		)
		h.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *RecipeHandler) ask(w http.ResponseWriter, r *http.Request, query querybus.Query) {
	h.askQuery(h.queryBus, w, r, query)
}

func (h responder) askQuery(queryBus *querybus.QueryBus, w http.ResponseWriter, r *http.Request, query querybus.Query) {
	result, err := queryBus.Ask(r.Context(), query)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, result)
}

func (h *RecipeHandler) recipeID(w http.ResponseWriter, r *http.Request) (string, bool) {
	recipeID := chi.URLParam(r, "recipeID")
	if _, err := uuid.Parse(recipeID); err != nil {
		h.respondStatus(w, r, http.StatusBadRequest, "Invalid recipe ID format")
		return "", false
	}
	return recipeID, true
}

// parseListParams reads and validates paging and filter parameters.
// defaultLimit applies when limit is absent; 0 leaves the query default.
func (h responder) parseListParams(w http.ResponseWriter, r *http.Request, defaultLimit int) (listParams, bool) {
	q := r.URL.Query()
	params := listParams{
		Search:   q.Get("search"),
		Category: q.Get("category"),
		Limit:    defaultLimit,
	}
	for name, dst := range map[string]*int{"limit": &params.Limit, "offset": &params.Offset} {
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			h.respondError(w, r, pkgerrors.NewValidationError(name+" must be an integer").WithDetail("field", name))
			return params, false
		}
		*dst = n
	}
	if err := utils.ValidateStruct(params); err != nil {
		h.respondError(w, r, err)
		return params, false
	}
	return params, true
}
