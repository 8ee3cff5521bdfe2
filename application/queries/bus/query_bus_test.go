package bus

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lookupQuery struct{ ID string }

func (q lookupQuery) Validate() error {
	if q.ID == "" {
		return errors.New("id required")
	}
	return nil
}

func (q lookupQuery) CacheKey() string { return "lookup:" + q.ID }

type scanQuery struct{}

func (scanQuery) Validate() error { return nil }

type mapCache struct {
	mu   sync.Mutex
	data map[string]interface{}
}

func (c *mapCache) Get(_ context.Context, key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	return v, ok
}

func (c *mapCache) Set(_ context.Context, key string, value interface{}, _ int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

type countingMetrics struct {
	counts map[string]int
	timers int
}

type stopTimer struct{ m *countingMetrics }

func (t stopTimer) Stop() { t.m.timers++ }

func (m *countingMetrics) StartTimer(string, string) Timer { return stopTimer{m} }
func (m *countingMetrics) Increment(metric, _ string)    { m.counts[metric]++ }

func TestQueryBus_CachesCacheableQueries(t *testing.T) {
	b := NewQueryBus()
	b.Use(NewCachingMiddleware(&mapCache{data: map[string]interface{}{}}, 60))

	calls := 0
	handler := QueryHandlerFunc(func(_ context.Context, q Query) (interface{}, error) {
		calls++
		return calls, nil
	})
	require.NoError(t, b.Register(lookupQuery{}, handler))
	require.NoError(t, b.Register(scanQuery{}, handler))

	first, err := b.Ask(context.Background(), lookupQuery{ID: "a"})
	require.NoError(t, err)
	second, err := b.Ask(context.Background(), lookupQuery{ID: "a"})
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls)

	_, _ = b.Ask(context.Background(), scanQuery{})
	_, _ = b.Ask(context.Background(), scanQuery{})
	assert.Equal(t, 3, calls, "non-cacheable queries always hit the handler")
}

func TestQueryBus_ZeroTTLDisablesCaching(t *testing.T) {
	b := NewQueryBus()
	b.Use(NewCachingMiddleware(&mapCache{data: map[string]interface{}{}}, 0))

	calls := 0
	require.NoError(t, b.Register(lookupQuery{}, QueryHandlerFunc(func(context.Context, Query) (interface{}, error) {
		calls++
		return nil, nil
	})))

	_, _ = b.Ask(context.Background(), lookupQuery{ID: "a"})
	_, _ = b.Ask(context.Background(), lookupQuery{ID: "a"})
	assert.Equal(t, 2, calls)
}

func TestQueryBus_MetricsAndValidation(t *testing.T) {
	metrics := &countingMetrics{counts: map[string]int{}}
	b := NewQueryBus()
	b.Use(NewMetricsMiddleware(metrics))

	failure := errors.New("boom")
	require.NoError(t, b.Register(lookupQuery{}, QueryHandlerFunc(func(_ context.Context, q Query) (interface{}, error) {
		if q.(lookupQuery).ID == "bad" {
			return nil, failure
		}
		return "ok", nil
	})))

	_, err := b.Ask(context.Background(), lookupQuery{})
	assert.Error(t, err)
	assert.Zero(t, metrics.counts["query_count"], "invalid queries never reach the handler")

	_, err = b.Ask(context.Background(), lookupQuery{ID: "bad"})
	assert.ErrorIs(t, err, failure)
	_, err = b.Ask(context.Background(), lookupQuery{ID: "good"})
	require.NoError(t, err)

	assert.Equal(t, 2, metrics.counts["query_count"])
	assert.Equal(t, 1, metrics.counts["query_errors"])
	assert.Equal(t, 1, metrics.counts["query_success"])
	assert.Equal(t, 2, metrics.timers)
}

func TestQueryBus_UnregisteredQuery(t *testing.T) {
	_, err := NewQueryBus().Ask(context.Background(), scanQuery{})
	assert.Error(t, err)
}
