// Package websocket pushes catalog notifications to clients connected through
// the API Gateway WebSocket API.
package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/apigatewaymanagementapi"
	apigwtypes "github.com/aws/aws-sdk-go-v2/service/apigatewaymanagementapi/types"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"recipebook/application/ports"
)

// maxConcurrentPosts bounds in-flight PostToConnection calls
const maxConcurrentPosts = 16

// API is the subset of the management API client used here
type API interface {
	PostToConnection(ctx context.Context, params *apigatewaymanagementapi.PostToConnectionInput, optFns ...func(*apigatewaymanagementapi.Options)) (*apigatewaymanagementapi.PostToConnectionOutput, error)
}

// NewAPIClient builds a management API client for a WebSocket stage endpoint,
// e.g. "abc123.execute-api.eu-west-1.amazonaws.com/prod".
func NewAPIClient(cfg aws.Config, endpoint string) *apigatewaymanagementapi.Client {
	return apigatewaymanagementapi.NewFromConfig(cfg, func(o *apigatewaymanagementapi.Options) {
		o.BaseEndpoint = aws.String("https://" + endpoint)
	})
}

// Message is the envelope clients receive
type Message struct {
	Type      string          `json:"type"`
	Timestamp int64           `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// Result summarizes a broadcast
type Result struct {
	Sent   int
	Gone   int
	Failed int
}

// Broadcaster sends a message to every registered connection
type Broadcaster struct {
	client      API
	connections ports.ConnectionRepository
	logger      *zap.Logger
}

// NewBroadcaster creates a Broadcaster
func NewBroadcaster(client API, connections ports.ConnectionRepository, logger *zap.Logger) *Broadcaster {
	return &Broadcaster{client: client, connections: connections, logger: logger}
}

// Broadcast posts msg to all live connections. Connections reported gone are
// deleted. It fails only when every post failed.
func (b *Broadcaster) Broadcast(ctx context.Context, msg Message) (Result, error) {
	if msg.Timestamp == 0 {
		msg.Timestamp = time.Now().Unix()
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return Result{}, fmt.Errorf("failed to marshal message: %w", err)
	}

	conns, err := b.connections.ListAll(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("failed to list connections: %w", err)
	}

	var sent, gone, failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentPosts)
	for _, conn := range conns {
		conn := conn
		g.Go(func() error {
			_, err := b.client.PostToConnection(gctx, &apigatewaymanagementapi.PostToConnectionInput{
				ConnectionId: aws.String(conn.ConnectionID),
				Data:         payload,
			})
			var goneErr *apigwtypes.GoneException
			switch {
			case err == nil:
				sent.Add(1)
			case errors.As(err, &goneErr):
				gone.Add(1)
				if err := b.connections.Delete(gctx, conn.ConnectionID); err != nil {
					b.logger.Warn("Failed to remove stale connection",
						zap.String("connectionID", conn.ConnectionID),
						zap.Error(err),
					)
				}
			default:
				failed.Add(1)
				b.logger.Warn("Failed to post to connection",
					zap.String("connectionID", conn.ConnectionID),
					zap.Error(err),
				)
			}
			return nil
		})
	}
	_ = g.Wait()

	res := Result{Sent: int(sent.Load()), Gone: int(gone.Load()), Failed: int(failed.Load())}
	b.logger.Info("Broadcast complete",
		zap.String("type", msg.Type),
		zap.Int("sent", res.Sent),
		zap.Int("gone", res.Gone),
		zap.Int("failed", res.Failed),
	)
	if res.Failed > 0 && res.Sent == 0 {
		return res, fmt.Errorf("all %d message sends failed", res.Failed)
	}
	return res, nil
}
