package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	pkgerrors "recipebook/pkg/errors"
)

// DynamoDB service limits
const (
	maxTransactItems = 100
	maxBatchWrite    = 25
	maxBatchRetries  = 5
)

// API is the subset of the DynamoDB client used by the repositories
type API interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

var _ API = (*dynamodb.Client)(nil)

// table bundles the client with the table name and shared write helpers
type table struct {
	client API
	name   string
	logger *zap.Logger
}

// Ping checks that the table is reachable
func (t *table) Ping(ctx context.Context) error {
	_, err := t.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(t.name)})
	if err != nil {
		return pkgerrors.NewUnavailableError("dynamodb").WithCause(err)
	}
	return nil
}

// queryAll follows LastEvaluatedKey until the result set is exhausted
func (t *table) queryAll(ctx context.Context, input *dynamodb.QueryInput) ([]map[string]types.AttributeValue, error) {
	var items []map[string]types.AttributeValue
	for {
		out, err := t.client.Query(ctx, input)
		if err != nil {
			return nil, pkgerrors.NewDatabaseError("Query", err)
		}
		items = append(items, out.Items...)
		if len(out.LastEvaluatedKey) == 0 {
			return items, nil
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
}

// transactPut writes items in transactions of at most 100. Each item must not already exist.
func (t *table) transactPut(ctx context.Context, items []map[string]types.AttributeValue) error {
	for start := 0; start < len(items); start += maxTransactItems {
		end := min(start+maxTransactItems, len(items))

		writes := make([]types.TransactWriteItem, 0, end-start)
		for _, item := range items[start:end] {
			writes = append(writes, types.TransactWriteItem{
				Put: &types.Put{
					TableName:           aws.String(t.name),
					Item:                item,
					ConditionExpression: aws.String("attribute_not_exists(PK)"),
				},
			})
		}

		if _, err := t.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
			TransactItems: writes,
		}); err != nil {
			return translateWriteError("TransactWriteItems", err)
		}
	}
	return nil
}

// batchDelete removes keys in batches of 25, retrying unprocessed keys with backoff
func (t *table) batchDelete(ctx context.Context, keys []map[string]types.AttributeValue) error {
	for start := 0; start < len(keys); start += maxBatchWrite {
		end := min(start+maxBatchWrite, len(keys))

		requests := make([]types.WriteRequest, 0, end-start)
		for _, key := range keys[start:end] {
			requests = append(requests, types.WriteRequest{DeleteRequest: &types.DeleteRequest{Key: key}})
		}

		pending := map[string][]types.WriteRequest{t.name: requests}
		for attempt := 0; len(pending[t.name]) > 0; attempt++ {
			if attempt == maxBatchRetries {
				return pkgerrors.NewDatabaseError("BatchWriteItem",
					fmt.Errorf("%d deletes still unprocessed after %d attempts", len(pending[t.name]), attempt))
			}
			if attempt > 0 {
				if err := sleepCtx(ctx, time.Duration(attempt)*50*time.Millisecond); err != nil {
					return err
				}
			}
			out, err := t.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{RequestItems: pending})
			if err != nil {
				return pkgerrors.NewDatabaseError("BatchWriteItem", err)
			}
			pending = out.UnprocessedItems
		}
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// translateWriteError maps failed condition checks to conflicts
func translateWriteError(op string, err error) error {
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return pkgerrors.NewConflictError("item already exists").WithCause(err)
	}
	var canceled *types.TransactionCanceledException
	if errors.As(err, &canceled) {
		for _, reason := range canceled.CancellationReasons {
			if aws.ToString(reason.Code) == "ConditionalCheckFailed" {
				return pkgerrors.NewConflictError("item already exists").WithCause(err)
			}
		}
	}
	return pkgerrors.NewDatabaseError(op, err)
}

func keyOf(pk, sk string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: pk},
		"SK": &types.AttributeValueMemberS{Value: sk},
	}
}
