// Package firestore stores the recipe catalog in Cloud Firestore.
//
// Collections:
//
//	recipes       doc id = recipe id
//	ingredients   doc id = ingredient id, recipe_id back-reference, ordered by position
//	instructions  doc id = instruction id, recipe_id back-reference, ordered by sequence
package firestore

import (
	"context"
	"errors"

	"cloud.google.com/go/firestore"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	pkgerrors "recipebook/pkg/errors"
)

const (
	recipesCollection      = "recipes"
	ingredientsCollection  = "ingredients"
	instructionsCollection = "instructions"

	// maxTransactionWrites is Firestore's per-transaction write limit
	maxTransactionWrites = 500
)

type store struct {
	client *firestore.Client
	logger *zap.Logger
}

// Ping reads a single recipe document to prove the database is reachable
func (s *store) Ping(ctx context.Context) error {
	_, err := s.client.Collection(recipesCollection).Limit(1).Documents(ctx).Next()
	if err != nil && !errors.Is(err, iterator.Done) {
		return pkgerrors.NewUnavailableError("firestore").WithCause(err)
	}
	return nil
}

// createAll writes docs inside a single transaction; any existing doc aborts the whole batch
func (s *store) createAll(ctx context.Context, collection string, docs map[string]interface{}) error {
	if len(docs) == 0 {
		return nil
	}
	if len(docs) > maxTransactionWrites {
		return pkgerrors.NewValidationError("too many documents for one transaction").
			WithDetail("count", len(docs))
	}
	coll := s.client.Collection(collection)
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		for id, doc := range docs {
			if err := tx.Create(coll.Doc(id), doc); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return translateError("RunTransaction", err)
	}
	return nil
}

// deleteWhere removes every doc of collection whose recipe_id matches
func (s *store) deleteWhere(ctx context.Context, collection, recipeID string) (int, error) {
	iter := s.client.Collection(collection).Where("recipe_id", "==", recipeID).Documents(ctx)
	defer iter.Stop()

	bw := s.client.BulkWriter(ctx)
	var jobs []*firestore.BulkWriterJob
	for {
		doc, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			bw.End()
			return 0, translateError("Documents", err)
		}
		job, err := bw.Delete(doc.Ref)
		if err != nil {
			bw.End()
			return 0, translateError("BulkWriter.Delete", err)
		}
		jobs = append(jobs, job)
	}
	bw.End()

	for _, job := range jobs {
		if _, err := job.Results(); err != nil && status.Code(err) != codes.NotFound {
			return 0, translateError("BulkWriter.Delete", err)
		}
	}
	return len(jobs), nil
}

// translateError maps gRPC status codes onto application errors
func translateError(operation string, err error) error {
	switch status.Code(err) {
	case codes.AlreadyExists:
		return pkgerrors.NewConflictError("record already exists").WithCause(err)
	case codes.NotFound:
		return pkgerrors.NewNotFoundError("record").WithCause(err)
	case codes.Unavailable, codes.DeadlineExceeded:
		return pkgerrors.NewUnavailableError("firestore").WithCause(err)
	default:
		return pkgerrors.NewDatabaseError(operation, err)
	}
}
