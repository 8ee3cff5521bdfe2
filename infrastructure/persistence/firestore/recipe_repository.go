package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"recipebook/application/ports"
	"recipebook/domain/core/entities"
	"recipebook/domain/core/valueobjects"
	pkgerrors "recipebook/pkg/errors"
)

// RecipeRepository implements ports.RecipeRepository on the recipes collection
type RecipeRepository struct {
	store
}

// NewRecipeRepository creates a new RecipeRepository
func NewRecipeRepository(client *firestore.Client, logger *zap.Logger) *RecipeRepository {
	return &RecipeRepository{store: store{client: client, logger: logger}}
}

type recipeDoc struct {
	ID          string    `firestore:"id"`
	Title       string    `firestore:"title"`
	Description string    `firestore:"description"`
	ImageURL    string    `firestore:"image_url,omitempty"`
	PrepTime    int       `firestore:"prep_time"`
	CookTime    int       `firestore:"cook_time"`
	Servings    int       `firestore:"servings"`
	Difficulty  string    `firestore:"difficulty"`
	Categories  string    `firestore:"categories"`
	CategorySet []string  `firestore:"category_set"`
	OwnerID     string    `firestore:"owner_id"`
	CreatedAt   time.Time `firestore:"created_at"`
	UpdatedAt   time.Time `firestore:"updated_at"`
}

func toRecipeDoc(r *entities.Recipe) recipeDoc {
	return recipeDoc{
		ID:          r.ID().String(),
		Title:       r.Title(),
		Description: r.Description(),
		ImageURL:    r.ImageURL(),
		PrepTime:    r.PrepTime(),
		CookTime:    r.CookTime(),
		Servings:    r.Servings(),
		Difficulty:  r.Difficulty().String(),
		Categories:  r.Categories().String(),
		CategorySet: r.Categories().Values(),
		OwnerID:     r.OwnerID(),
		CreatedAt:   r.CreatedAt().UTC(),
		UpdatedAt:   r.UpdatedAt().UTC(),
	}
}

func (d recipeDoc) toEntity() (*entities.Recipe, error) {
	id, err := valueobjects.NewRecipeIDFromString(d.ID)
	if err != nil {
		return nil, err
	}
	return entities.ReconstructRecipe(entities.RecipeParams{
		ID:          id,
		Title:       d.Title,
		Description: d.Description,
		ImageURL:    d.ImageURL,
		PrepTime:    d.PrepTime,
		CookTime:    d.CookTime,
		Servings:    d.Servings,
		Difficulty:  valueobjects.Difficulty(d.Difficulty),
		Categories:  valueobjects.ParseCategories(d.Categories),
		OwnerID:     d.OwnerID,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}), nil
}

// Save creates the recipe document; Create fails with AlreadyExists for a duplicate ID
func (r *RecipeRepository) Save(ctx context.Context, recipe *entities.Recipe) error {
	_, err := r.client.Collection(recipesCollection).Doc(recipe.ID().String()).Create(ctx, toRecipeDoc(recipe))
	if err != nil {
		r.logger.Error("Failed to save recipe",
			zap.String("recipeID", recipe.ID().String()),
			zap.Error(err),
		)
		return translateError("Create", err)
	}
	return nil
}

// GetByID retrieves a recipe by ID
func (r *RecipeRepository) GetByID(ctx context.Context, id valueobjects.RecipeID) (*entities.Recipe, error) {
	snap, err := r.client.Collection(recipesCollection).Doc(id.String()).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, pkgerrors.NewNotFoundError("recipe").WithDetail("recipe_id", id.String())
	}
	if err != nil {
		return nil, translateError("Get", err)
	}

	var doc recipeDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, pkgerrors.NewDatabaseError("DataTo", err)
	}
	return doc.toEntity()
}

// List pushes the owner and category filters into the query; search and paging
// are applied while iterating since Firestore has no substring match.
func (r *RecipeRepository) List(ctx context.Context, filter ports.RecipeFilter) ([]*entities.Recipe, error) {
	iter := listQuery(r.client.Collection(recipesCollection), filter).Documents(ctx)
	defer iter.Stop()

	recipes := []*entities.Recipe{}
	skipped := 0
	for filter.Limit <= 0 || len(recipes) < filter.Limit {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			r.logger.Error("Failed to list recipes", zap.Error(err))
			return nil, translateError("Documents", err)
		}

		var doc recipeDoc
		if err := snap.DataTo(&doc); err != nil {
			r.logger.Warn("Skipping malformed recipe document", zap.String("docID", snap.Ref.ID), zap.Error(err))
			continue
		}
		recipe, err := doc.toEntity()
		if err != nil {
			r.logger.Warn("Skipping malformed recipe document", zap.String("docID", snap.Ref.ID), zap.Error(err))
			continue
		}
		if !filter.Matches(recipe) {
			continue
		}
		if skipped < filter.Offset {
			skipped++
			continue
		}
		recipes = append(recipes, recipe)
	}
	return recipes, nil
}

func listQuery(coll *firestore.CollectionRef, filter ports.RecipeFilter) firestore.Query {
	q := coll.Query
	if filter.OwnerID != "" {
		q = q.Where("owner_id", "==", filter.OwnerID)
	}
	if category := strings.ToLower(strings.TrimSpace(filter.Category)); category != "" && category != "all" {
		q = q.Where("category_set", "array-contains", category)
	}
	return q.OrderBy("created_at", firestore.Desc).OrderBy("id", firestore.Desc)
}

// Delete removes the recipe document; deleting a missing document succeeds
func (r *RecipeRepository) Delete(ctx context.Context, id valueobjects.RecipeID) error {
	if _, err := r.client.Collection(recipesCollection).Doc(id.String()).Delete(ctx); err != nil {
		return translateError("Delete", err)
	}
	return nil
}

var (
	_ ports.RecipeRepository = (*RecipeRepository)(nil)
	_ ports.HealthChecker    = (*RecipeRepository)(nil)
)
