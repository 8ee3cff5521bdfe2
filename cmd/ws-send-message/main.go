// Package main implements the WebSocket broadcast Lambda.
// It receives recipe events from EventBridge and pushes them to every
// connected WebSocket client.
package main

import (
	"context"
	"log"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	domainevents "recipebook/domain/events"
	"recipebook/infrastructure/config"
	"recipebook/infrastructure/di"
	"recipebook/infrastructure/messaging/websocket"
	"recipebook/infrastructure/persistence/dynamodb"
)

type broadcaster interface {
	Broadcast(ctx context.Context, msg websocket.Message) (websocket.Result, error)
}

type sendHandler struct {
	broadcaster broadcaster
	logger      *zap.Logger
}

func newSendHandler() *sendHandler {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger, err := di.ProvideLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	if cfg.WebSocketEndpoint == "" {
		logger.Fatal("WEBSOCKET_ENDPOINT is required")
	}
	awsCfg, err := di.ProvideAWSConfig(context.Background(), cfg)
	if err != nil {
		logger.Fatal("Failed to load AWS config", zap.Error(err))
	}

	connections := dynamodb.NewConnectionRepository(di.ProvideDynamoDBClient(awsCfg), cfg.ConnectionsTable, logger)
	logger.Info("WebSocket send-message handler initialized",
		zap.String("endpoint", cfg.WebSocketEndpoint),
		zap.String("table", cfg.ConnectionsTable),
	)
	return &sendHandler{
		broadcaster: websocket.NewBroadcaster(websocket.NewAPIClient(awsCfg, cfg.WebSocketEndpoint), connections, logger),
		logger:      logger,
	}
}

// Handle broadcasts recipe events. Events of other types are acknowledged and dropped.
func (h *sendHandler) Handle(ctx context.Context, event events.CloudWatchEvent) error {
	switch event.DetailType {
	case domainevents.TypeRecipeCreated, domainevents.TypeRecipeDeleted:
	default:
		h.logger.Debug("Ignoring event",
			zap.String("detailType", event.DetailType),
			zap.String("source", event.Source),
		)
		return nil
	}

	msg := websocket.Message{Type: event.DetailType, Data: event.Detail}
	if !event.Time.IsZero() {
		msg.Timestamp = event.Time.Unix()
	}
	res, err := h.broadcaster.Broadcast(ctx, msg)
	if err != nil {
		h.logger.Error("Broadcast failed",
			zap.String("eventID", event.ID),
			zap.String("detailType", event.DetailType),
			zap.Error(err),
		)
		// EventBridge retries the invocation.
		return err
	}
	h.logger.Info("Event broadcast",
		zap.String("eventID", event.ID),
		zap.String("detailType", event.DetailType),
		zap.Int("sent", res.Sent),
		zap.Int("gone", res.Gone),
	)
	return nil
}

func main() {
	lambda.Start(newSendHandler().Handle)
}
