package handlers

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"recipebook/application/ports"
	"recipebook/application/queries"
	domainconfig "recipebook/domain/config"
)

// ListRecipesHandler handles catalog listing queries
type ListRecipesHandler struct {
	recipeRepo      ports.RecipeRepository
	defaultPageSize int
	maxPageSize     int
	logger          *zap.Logger
}

// NewListRecipesHandler creates a new list recipes handler. Page sizes come
// from domainConfig, or the defaults when it is nil.
func NewListRecipesHandler(recipeRepo ports.RecipeRepository, domainConfig *domainconfig.DomainConfig, logger *zap.Logger) *ListRecipesHandler {
	if domainConfig == nil {
		domainConfig = domainconfig.DefaultDomainConfig()
	}
	return &ListRecipesHandler{
		recipeRepo:      recipeRepo,
		defaultPageSize: domainConfig.DefaultPageSize,
		maxPageSize:     domainConfig.MaxPageSize,
		logger:          logger,
	}
}

// Handle executes the list recipes query
func (h *ListRecipesHandler) Handle(ctx context.Context, query queries.ListRecipesQuery) (*queries.ListRecipesResult, error) {
	query = query.Normalized(h.defaultPageSize, h.maxPageSize)

	// One extra row tells us whether another page exists.
	recipes, err := h.recipeRepo.List(ctx, ports.RecipeFilter{
		Search:   query.Search,
		Category: query.Category,
		OwnerID:  query.OwnerID,
		Limit:    query.Limit + 1,
		Offset:   query.Offset,
	})
	if err != nil {
		h.logger.Error("Failed to list recipes",
			zap.String("search", query.Search),
			zap.String("category", query.Category),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}

	hasMore := len(recipes) > query.Limit
	if hasMore {
		recipes = recipes[:query.Limit]
	}

	summaries := make([]queries.RecipeSummary, 0, len(recipes))
	for _, r := range recipes {
		summaries = append(summaries, queries.NewRecipeSummary(r))
	}

	return &queries.ListRecipesResult{
		Recipes: summaries,
		Count:   len(summaries),
		Limit:   query.Limit,
		Offset:  query.Offset,
		HasMore: hasMore,
	}, nil
}
