package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"recipebook/application/queries"
	querybus "recipebook/application/queries/bus"
	pkgerrors "recipebook/pkg/errors"
)

// ownRecipesDefaultLimit matches the "shared by you" panel of the profile menu
const ownRecipesDefaultLimit = 3

// ProfileHandler serves the caller's identity and own recipes
type ProfileHandler struct {
	responder
	queryBus *querybus.QueryBus
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(queryBus *querybus.QueryBus, errorHandler *pkgerrors.ErrorHandler, logger *zap.Logger) *ProfileHandler {
	return &ProfileHandler{
		responder: responder{errors: errorHandler, logger: logger},
		queryBus:  queryBus,
	}
}

// Me handles GET /me
func (h *ProfileHandler) Me(w http.ResponseWriter, r *http.Request) {
	userCtx, ok := h.user(w, r)
	if !ok {
		return
	}
	h.respondJSON(w, http.StatusOK, userCtx)
}

// MyRecipes handles GET /me/recipes
func (h *ProfileHandler) MyRecipes(w http.ResponseWriter, r *http.Request) {
	userCtx, ok := h.user(w, r)
	if !ok {
		return
	}
	params, ok := h.parseListParams(w, r, ownRecipesDefaultLimit)
	if !ok {
		return
	}
	h.askQuery(h.queryBus, w, r, queries.ListRecipesQuery{
		Search:   params.Search,
		Category: params.Category,
		OwnerID:  userCtx.UserID,
		Limit:    params.Limit,
		Offset:   params.Offset,
	})
}
