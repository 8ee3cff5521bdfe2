package main

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"recipebook/infrastructure/messaging/websocket"
)

type fakeBroadcaster struct {
	messages []websocket.Message
	err      error
}

func (f *fakeBroadcaster) Broadcast(_ context.Context, msg websocket.Message) (websocket.Result, error) {
	f.messages = append(f.messages, msg)
	if f.err != nil {
		return websocket.Result{Failed: 1}, f.err
	}
	return websocket.Result{Sent: 1}, nil
}

func TestHandle(t *testing.T) {
	detail := json.RawMessage(`{"recipe_id":"r-1","title":"Soup"}`)
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		detailType string
		err        error
		wantSent   int
		wantErr    bool
	}{
		{name: "recipe created", detailType: "recipe.created", wantSent: 1},
		{name: "recipe deleted", detailType: "recipe.deleted", wantSent: 1},
		{name: "unrelated event", detailType: "user.signed_up", wantSent: 0},
		{name: "broadcast failure", detailType: "recipe.created", err: errors.New("all failed"), wantSent: 1, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeBroadcaster{err: tt.err}
			h := &sendHandler{broadcaster: fake, logger: zap.NewNop()}

			err := h.Handle(context.Background(), events.CloudWatchEvent{
				ID:         "evt-1",
				DetailType: tt.detailType,
				Source:     "recipebook.api",
				Time:       at,
				Detail:     detail,
			})
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			require.Len(t, fake.messages, tt.wantSent)
			if tt.wantSent > 0 {
				msg := fake.messages[0]
				assert.Equal(t, tt.detailType, msg.Type)
				assert.Equal(t, at.Unix(), msg.Timestamp)
				assert.JSONEq(t, string(detail), string(msg.Data))
			}
		})
	}
}
