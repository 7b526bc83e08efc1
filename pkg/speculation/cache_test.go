package speculation

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitForEntry(t *testing.T, c *Cache, toolID string, timeout time.Duration) Entry {
	t.Helper()
	deadline := time.After(timeout)
	for {
		if e, ok := c.CheckCache(toolID); ok {
			return e
		}
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for cache entry %q", toolID)
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestCache_StartSpeculationsPopulatesCache(t *testing.T) {
	sandbox := InProcessSandbox{Invoke: func(ctx context.Context, toolID string, args map[string]any) (any, error) {
		return "result-" + toolID, nil
	}}
	c := New(DefaultConfig(), sandbox)

	c.StartSpeculations(context.Background(), []Prediction{{ToolID: "fs:read", Confidence: 0.8}})

	e := waitForEntry(t, c, "fs:read", time.Second)
	assert.Equal(t, "result-fs:read", e.Result)
	assert.Equal(t, 0.8, e.Confidence)
}

func TestCache_ValidateAndConsumeRemovesEntry(t *testing.T) {
	sandbox := InProcessSandbox{Invoke: func(ctx context.Context, toolID string, args map[string]any) (any, error) {
		return "ok", nil
	}}
	c := New(DefaultConfig(), sandbox)
	c.StartSpeculations(context.Background(), []Prediction{{ToolID: "fs:read"}})
	waitForEntry(t, c, "fs:read", time.Second)

	e, ok := c.ValidateAndConsume("fs:read")
	require.True(t, ok)
	assert.Equal(t, "ok", e.Result)

	_, ok = c.ValidateAndConsume("fs:read")
	assert.False(t, ok, "second consume should miss")
}

func TestCache_ValidateAndConsumeMissOnUnknownTool(t *testing.T) {
	c := New(DefaultConfig(), InProcessSandbox{Invoke: func(ctx context.Context, toolID string, args map[string]any) (any, error) {
		return nil, nil
	}})
	_, ok := c.ValidateAndConsume("never-started")
	assert.False(t, ok)
}

func TestCache_SkipsDuplicateInFlightSpeculation(t *testing.T) {
	var calls int64
	block := make(chan struct{})
	sandbox := InProcessSandbox{Invoke: func(ctx context.Context, toolID string, args map[string]any) (any, error) {
		atomic.AddInt64(&calls, 1)
		<-block
		return "ok", nil
	}}
	c := New(DefaultConfig(), sandbox)

	c.StartSpeculations(context.Background(), []Prediction{{ToolID: "fs:read"}})
	time.Sleep(10 * time.Millisecond)
	c.StartSpeculations(context.Background(), []Prediction{{ToolID: "fs:read"}})
	close(block)
	waitForEntry(t, c, "fs:read", time.Second)

	assert.Equal(t, int64(1), atomic.LoadInt64(&calls))
}

func TestCache_FailedSpeculationIsNotCached(t *testing.T) {
	sandbox := InProcessSandbox{Invoke: func(ctx context.Context, toolID string, args map[string]any) (any, error) {
		return nil, errors.New("boom")
	}}
	c := New(DefaultConfig(), sandbox)
	c.StartSpeculations(context.Background(), []Prediction{{ToolID: "fs:read"}})
	time.Sleep(20 * time.Millisecond)

	_, ok := c.CheckCache("fs:read")
	assert.False(t, ok)
}

func TestCache_AbortSpeculationCancelsInFlight(t *testing.T) {
	started := make(chan struct{})
	sandbox := InProcessSandbox{Invoke: func(ctx context.Context, toolID string, args map[string]any) (any, error) {
		close(started)
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	c := New(DefaultConfig(), sandbox)
	c.StartSpeculations(context.Background(), []Prediction{{ToolID: "fs:read"}})
	<-started

	c.AbortSpeculation("fs:read")
	_, ok := c.CheckCache("fs:read")
	assert.False(t, ok)
}

func TestCache_SweepEvictsExpiredEntries(t *testing.T) {
	sandbox := InProcessSandbox{Invoke: func(ctx context.Context, toolID string, args map[string]any) (any, error) {
		return "ok", nil
	}}
	c := New(Config{MaxConcurrent: 3, TTL: 10 * time.Millisecond, Timeout: time.Second}, sandbox)
	c.StartSpeculations(context.Background(), []Prediction{{ToolID: "fs:read"}})
	time.Sleep(5 * time.Millisecond)

	time.Sleep(20 * time.Millisecond)
	removed := c.sweepOnce()
	assert.Equal(t, 1, removed)
}

func TestYAMLConfig_ValidateRejectsOutOfBoundsThreshold(t *testing.T) {
	cfg := YAMLConfig{ConfidenceThreshold: 0.2, MaxConcurrentSpeculations: 3, SpeculationTimeoutMs: 1000}
	require.Error(t, cfg.Validate())
}

func TestYAMLConfig_ValidateRejectsInvertedAdaptiveBounds(t *testing.T) {
	cfg := YAMLConfig{
		ConfidenceThreshold:       0.7,
		MaxConcurrentSpeculations: 3,
		SpeculationTimeoutMs:      1000,
		Adaptive:                  AdaptiveConfig{Enabled: true, MinThreshold: 0.8, MaxThreshold: 0.6},
	}
	require.Error(t, cfg.Validate())
}

func TestYAMLConfig_SetDefaults(t *testing.T) {
	cfg := YAMLConfig{}
	cfg.SetDefaults()
	assert.Equal(t, 0.70, cfg.ConfidenceThreshold)
	assert.Equal(t, 3, cfg.MaxConcurrentSpeculations)
	assert.Equal(t, 30_000, cfg.SpeculationTimeoutMs)
}
