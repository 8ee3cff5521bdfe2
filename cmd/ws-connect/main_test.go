package main

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"recipebook/application/ports"
	"recipebook/application/ports/mocks"
	"recipebook/pkg/auth"
)

const testSecret = "ws-test-secret"

func newTestHandler(t *testing.T, repo *mocks.MockConnectionRepository) *connectHandler {
	t.Helper()
	validator, err := auth.NewJWTValidator(auth.JWTConfig{SigningMethod: "HS256", SecretKey: testSecret})
	require.NoError(t, err)
	return &connectHandler{
		validator:   validator,
		connections: repo,
		logger:      zap.NewNop(),
		now:         func() time.Time { return time.Unix(1700000000, 0) },
	}
}

func signToken(t *testing.T, userID string) string {
	t.Helper()
	gen, err := auth.NewJWTGenerator(auth.JWTGeneratorConfig{SigningMethod: "HS256", SecretKey: testSecret})
	require.NoError(t, err)
	token, err := gen.GenerateToken(userID, "", "", nil)
	require.NoError(t, err)
	return token
}

func wsRequest(eventType, connectionID string) events.APIGatewayWebsocketProxyRequest {
	return events.APIGatewayWebsocketProxyRequest{
		RequestContext: events.APIGatewayWebsocketProxyRequestContext{
			EventType:    eventType,
			ConnectionID: connectionID,
		},
	}
}

func TestConnect(t *testing.T) {
	t.Run("stores connection for a valid token", func(t *testing.T) {
		repo := new(mocks.MockConnectionRepository)
		repo.On("Save", mock.Anything, ports.Connection{
			ConnectionID: "conn-1",
			UserID:       "user-1",
			ConnectedAt:  1700000000,
		}).Return(nil)

		req := wsRequest("CONNECT", "conn-1")
		req.QueryStringParameters = map[string]string{"token": signToken(t, "user-1")}

		resp, err := newTestHandler(t, repo).Handle(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, resp.Body, `"userId":"user-1"`)
		repo.AssertExpectations(t)
	})

	t.Run("accepts a bearer header", func(t *testing.T) {
		repo := new(mocks.MockConnectionRepository)
		repo.On("Save", mock.Anything, mock.Anything).Return(nil)

		req := wsRequest("CONNECT", "conn-2")
		req.Headers = map[string]string{"authorization": "Bearer " + signToken(t, "user-2")}

		resp, err := newTestHandler(t, repo).Handle(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	tests := []struct {
		name  string
		query map[string]string
	}{
		{name: "missing token"},
		{name: "invalid token", query: map[string]string{"token": "not-a-jwt"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(mocks.MockConnectionRepository)
			req := wsRequest("CONNECT", "conn-3")
			req.QueryStringParameters = tt.query

			resp, err := newTestHandler(t, repo).Handle(context.Background(), req)
			require.NoError(t, err)
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
		})
	}

	t.Run("store failure", func(t *testing.T) {
		repo := new(mocks.MockConnectionRepository)
		repo.On("Save", mock.Anything, mock.Anything).Return(errors.New("throttled"))

		req := wsRequest("CONNECT", "conn-4")
		req.QueryStringParameters = map[string]string{"token": signToken(t, "user-4")}

		resp, err := newTestHandler(t, repo).Handle(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	})
}

func TestDisconnect(t *testing.T) {
	repo := new(mocks.MockConnectionRepository)
	repo.On("Delete", mock.Anything, "conn-1").Return(errors.New("gone already"))

	resp, err := newTestHandler(t, repo).Handle(context.Background(), wsRequest("DISCONNECT", "conn-1"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	repo.AssertExpectations(t)
}

func TestUnsupportedRoute(t *testing.T) {
	resp, err := newTestHandler(t, new(mocks.MockConnectionRepository)).
		Handle(context.Background(), wsRequest("MESSAGE", "conn-1"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
