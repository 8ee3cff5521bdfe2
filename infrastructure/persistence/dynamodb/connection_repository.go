package dynamodb

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"go.uber.org/zap"

	"recipebook/application/ports"
	pkgerrors "recipebook/pkg/errors"
)

// connectionTTL is how long an idle connection record survives without a $disconnect
const connectionTTL = 24 * time.Hour

// ConnectionRepository stores WebSocket connections in the connections table
type ConnectionRepository struct {
	table
}

// NewConnectionRepository creates a new ConnectionRepository
func NewConnectionRepository(client API, tableName string, logger *zap.Logger) *ConnectionRepository {
	return &ConnectionRepository{table: table{client: client, name: tableName, logger: logger}}
}

type connectionItem struct {
	PK           string `dynamodbav:"PK"`
	SK           string `dynamodbav:"SK"`
	GSI1PK       string `dynamodbav:"GSI1PK"`
	GSI1SK       string `dynamodbav:"GSI1SK"`
	ConnectionID string `dynamodbav:"ConnectionID"`
	UserID       string `dynamodbav:"UserID"`
	ConnectedAt  int64  `dynamodbav:"ConnectedAt"`
	TTL          int64  `dynamodbav:"TTL"`
}

// Save registers a connection; DynamoDB TTL removes it if $disconnect never arrives
func (r *ConnectionRepository) Save(ctx context.Context, conn ports.Connection) error {
	if conn.ConnectedAt == 0 {
		conn.ConnectedAt = time.Now().Unix()
	}
	if conn.ExpiresAt == 0 {
		conn.ExpiresAt = time.Unix(conn.ConnectedAt, 0).Add(connectionTTL).Unix()
	}
	av, err := attributevalue.MarshalMap(connectionItem{
		PK:           connectionPK(conn.ConnectionID),
		SK:           metadataSK,
		GSI1PK:       "USER#" + conn.UserID,
		GSI1SK:       connectionPK(conn.ConnectionID),
		ConnectionID: conn.ConnectionID,
		UserID:       conn.UserID,
		ConnectedAt:  conn.ConnectedAt,
		TTL:          conn.ExpiresAt,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal connection: %w", err)
	}
	if _, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.name),
		Item:      av,
	}); err != nil {
		return pkgerrors.NewDatabaseError("PutItem", err)
	}
	return nil
}

// Delete removes a connection
func (r *ConnectionRepository) Delete(ctx context.Context, connectionID string) error {
	if _, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.name),
		Key:       keyOf(connectionPK(connectionID), metadataSK),
	}); err != nil {
		return pkgerrors.NewDatabaseError("DeleteItem", err)
	}
	return nil
}

// ListAll scans the connections table, skipping records past their TTL
func (r *ConnectionRepository) ListAll(ctx context.Context) ([]ports.Connection, error) {
	expr, err := expression.NewBuilder().
		WithFilter(expression.Name("PK").BeginsWith("CONNECTION#").
			And(expression.Name("TTL").GreaterThan(expression.Value(time.Now().Unix())))).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build scan expression: %w", err)
	}
	input := &dynamodb.ScanInput{
		TableName:                 aws.String(r.name),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}

	var conns []ports.Connection
	for {
		out, err := r.client.Scan(ctx, input)
		if err != nil {
			return nil, pkgerrors.NewDatabaseError("Scan", err)
		}
		var rows []connectionItem
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &rows); err != nil {
			return nil, fmt.Errorf("failed to unmarshal connections: %w", err)
		}
		for _, row := range rows {
			conns = append(conns, ports.Connection{
				ConnectionID: row.ConnectionID,
				UserID:       row.UserID,
				ConnectedAt:  row.ConnectedAt,
				ExpiresAt:    row.TTL,
			})
		}
		if len(out.LastEvaluatedKey) == 0 {
			return conns, nil
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
}

var _ ports.ConnectionRepository = (*ConnectionRepository)(nil)
