// Package main implements the WebSocket connection Lambda handler.
// It authenticates $connect requests and tracks live connections so catalog
// notifications can be pushed to them.
package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"recipebook/application/ports"
	"recipebook/infrastructure/config"
	"recipebook/infrastructure/di"
	"recipebook/infrastructure/persistence/dynamodb"
	"recipebook/pkg/auth"
)

type tokenValidator interface {
	ValidateToken(token string) (*auth.Claims, error)
}

type connectHandler struct {
	validator   tokenValidator
	connections ports.ConnectionRepository
	logger      *zap.Logger
	now         func() time.Time
}

func newConnectHandler() *connectHandler {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger, err := di.ProvideLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	awsCfg, err := di.ProvideAWSConfig(context.Background(), cfg)
	if err != nil {
		logger.Fatal("Failed to load AWS config", zap.Error(err))
	}
	validator, err := di.ProvideJWTValidator(cfg)
	if err != nil {
		logger.Fatal("Failed to create JWT validator", zap.Error(err))
	}

	h := &connectHandler{
		validator:   validator,
		connections: dynamodb.NewConnectionRepository(di.ProvideDynamoDBClient(awsCfg), cfg.ConnectionsTable, logger),
		logger:      logger,
		now:         time.Now,
	}
	logger.Info("WebSocket connect handler initialized", zap.String("table", cfg.ConnectionsTable))
	return h
}

// Handle routes $connect and $disconnect events
func (h *connectHandler) Handle(ctx context.Context, req events.APIGatewayWebsocketProxyRequest) (events.APIGatewayProxyResponse, error) {
	switch req.RequestContext.EventType {
	case "CONNECT":
		return h.connect(ctx, req)
	case "DISCONNECT":
		return h.disconnect(ctx, req)
	default:
		return respond(http.StatusBadRequest, map[string]string{"error": "unsupported route"}), nil
	}
}

func (h *connectHandler) connect(ctx context.Context, req events.APIGatewayWebsocketProxyRequest) (events.APIGatewayProxyResponse, error) {
	connectionID := req.RequestContext.ConnectionID

	// Browsers cannot set headers on a WebSocket upgrade, so the query string wins.
	token := req.QueryStringParameters["token"]
	if token == "" {
		if header := headerValue(req.Headers, "Authorization"); header != "" {
			scheme, value, ok := strings.Cut(header, " ")
			if ok && strings.EqualFold(scheme, "Bearer") {
				token = value
			}
		}
	}
	if token == "" {
		h.logger.Warn("WebSocket connect without token", zap.String("connectionID", connectionID))
		return respond(http.StatusUnauthorized, map[string]string{"error": "unauthorized"}), nil
	}

	claims, err := h.validator.ValidateToken(token)
	if err != nil {
		h.logger.Warn("WebSocket authentication failed",
			zap.String("connectionID", connectionID),
			zap.Error(err),
		)
		return respond(http.StatusUnauthorized, map[string]string{"error": "unauthorized"}), nil
	}

	now := h.now()
	if err := h.connections.Save(ctx, ports.Connection{
		ConnectionID: connectionID,
		UserID:       claims.UserID,
		ConnectedAt:  now.Unix(),
	}); err != nil {
		h.logger.Error("Failed to store connection",
			zap.String("connectionID", connectionID),
			zap.Error(err),
		)
		return respond(http.StatusInternalServerError, map[string]string{"error": "internal server error"}), nil
	}

	h.logger.Info("WebSocket connection established",
		zap.String("connectionID", connectionID),
		zap.String("userID", claims.UserID),
	)
	return respond(http.StatusOK, map[string]interface{}{
		"type":         "connection_established",
		"connectionId": connectionID,
		"userId":       claims.UserID,
		"timestamp":    now.Unix(),
	}), nil
}

func (h *connectHandler) disconnect(ctx context.Context, req events.APIGatewayWebsocketProxyRequest) (events.APIGatewayProxyResponse, error) {
	connectionID := req.RequestContext.ConnectionID
	if err := h.connections.Delete(ctx, connectionID); err != nil {
		// The record expires through the table TTL anyway.
		h.logger.Warn("Failed to remove connection",
			zap.String("connectionID", connectionID),
			zap.Error(err),
		)
	}
	h.logger.Info("WebSocket connection closed", zap.String("connectionID", connectionID))
	return respond(http.StatusOK, nil), nil
}

func headerValue(headers map[string]string, name string) string {
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

func respond(status int, body interface{}) events.APIGatewayProxyResponse {
	resp := events.APIGatewayProxyResponse{StatusCode: status}
	if body != nil {
		if data, err := json.Marshal(body); err == nil {
			resp.Body = string(data)
		}
	}
	return resp
}

func main() {
	lambda.Start(newConnectHandler().Handle)
}
