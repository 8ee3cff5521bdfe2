package eventbridge

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"recipebook/domain/core/valueobjects"
	"recipebook/domain/events"
)

type fakeAPI struct {
	calls []*eventbridge.PutEventsInput
	out   *eventbridge.PutEventsOutput
	err   error
}

func (f *fakeAPI) PutEvents(_ context.Context, in *eventbridge.PutEventsInput, _ ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error) {
	f.calls = append(f.calls, in)
	if f.err != nil {
		return nil, f.err
	}
	if f.out != nil {
		return f.out, nil
	}
	return &eventbridge.PutEventsOutput{}, nil
}

func deletedEvents(n int) []events.DomainEvent {
	out := make([]events.DomainEvent, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, events.NewRecipeDeleted(valueobjects.NewRecipeID(), "u1", "Soup", time.Now()))
	}
	return out
}

func TestPublishBatch_Chunks(t *testing.T) {
	api := &fakeAPI{}
	p := NewPublisher(api, "recipes-bus", zap.NewNop())

	require.NoError(t, p.PublishBatch(context.Background(), deletedEvents(23)))
	require.Len(t, api.calls, 3)
	assert.Len(t, api.calls[0].Entries, 10)
	assert.Len(t, api.calls[2].Entries, 3)

	entry := api.calls[0].Entries[0]
	assert.Equal(t, "recipes-bus", aws.ToString(entry.EventBusName))
	assert.Equal(t, events.SourceRecipeService, aws.ToString(entry.Source))
	assert.Equal(t, events.TypeRecipeDeleted, aws.ToString(entry.DetailType))

	var detail map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(aws.ToString(entry.Detail)), &detail))
	assert.Equal(t, "u1", detail["deleted_by"])
	assert.Equal(t, detail["aggregate_id"], detail["recipe_id"])
}

func TestPublishBatch_Empty(t *testing.T) {
	api := &fakeAPI{}
	require.NoError(t, NewPublisher(api, "bus", zap.NewNop()).PublishBatch(context.Background(), nil))
	assert.Empty(t, api.calls)
}

func TestPublish_Failures(t *testing.T) {
	api := &fakeAPI{err: errors.New("throttled")}
	err := NewPublisher(api, "bus", zap.NewNop()).Publish(context.Background(), deletedEvents(1)[0])
	assert.ErrorContains(t, err, "throttled")

	api = &fakeAPI{out: &eventbridge.PutEventsOutput{
		FailedEntryCount: 1,
		Entries:          []types.PutEventsResultEntry{{ErrorCode: aws.String("InternalFailure")}},
	}}
	err = NewPublisher(api, "bus", zap.NewNop()).Publish(context.Background(), deletedEvents(1)[0])
	assert.ErrorContains(t, err, "1 events failed to publish")
}
