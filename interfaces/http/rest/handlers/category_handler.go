package handlers

import (
	"net/http"

	"go.uber.org/zap"

	domainconfig "recipebook/domain/config"
	pkgerrors "recipebook/pkg/errors"
)

// CategoryHandler serves the category catalog offered by the recipe form and list filter
type CategoryHandler struct {
	responder
	categories []string
}

// NewCategoryHandler creates a new category handler
func NewCategoryHandler(cfg *domainconfig.DomainConfig, errorHandler *pkgerrors.ErrorHandler, logger *zap.Logger) *CategoryHandler {
	categories := make([]string, len(cfg.Categories))
	copy(categories, cfg.Categories)
	return &CategoryHandler{
		responder:  responder{errors: errorHandler, logger: logger},
		categories: categories,
	}
}

// ListCategories handles GET /categories
func (h *CategoryHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"categories": h.categories,
		"count":      len(h.categories),
	})
}
