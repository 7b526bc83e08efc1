// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package speculation implements confidence-gated pre-execution of
// predicted tasks, whose results are consumed if the prediction is later
// confirmed and discarded otherwise.
package speculation

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Entry is a cached speculative execution result.
type Entry struct {
	PredictionID    string
	ToolID          string
	Result          any
	Confidence      float64
	Timestamp       time.Time
	ExecutionTimeMs int64
}

func (e Entry) expired(ttl time.Duration) bool {
	return time.Since(e.Timestamp) > ttl
}

// Prediction describes a task the cache should speculatively execute ahead
// of confirmation.
type Prediction struct {
	ToolID     string
	Confidence float64
	Arguments  map[string]any
}

// Sandbox runs a speculative tool call in isolation: on miss, none of its
// side effects may be observable outside the cache. Production deployments
// back this with a sandboxed/forked execution environment; InProcessSandbox
// is a no-op passthrough suitable for tools that are already side-effect
// free or for tests.
type Sandbox interface {
	Run(ctx context.Context, toolID string, arguments map[string]any) (any, error)
}

// InProcessSandbox runs the prediction directly via Invoke with no isolation.
type InProcessSandbox struct {
	Invoke func(ctx context.Context, toolID string, arguments map[string]any) (any, error)
}

// Run implements Sandbox.
func (s InProcessSandbox) Run(ctx context.Context, toolID string, arguments map[string]any) (any, error) {
	return s.Invoke(ctx, toolID, arguments)
}

// Config bounds the Speculation Cache's runtime behavior.
type Config struct {
	MaxConcurrent int
	TTL           time.Duration
	Timeout       time.Duration
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{MaxConcurrent: 3, TTL: 5 * time.Minute, Timeout: 30 * time.Second}
}

type inflight struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Cache is the Speculation Cache. The zero value is not usable; construct
// with New.
type Cache struct {
	cfg     Config
	sandbox Sandbox

	mu        sync.Mutex
	entries   map[string]Entry // toolID -> entry
	running   map[string]*inflight
	semaphore chan struct{}

	closed bool
}

// New constructs a Cache bounded by cfg, running speculative calls through
// sandbox.
func New(cfg Config, sandbox Sandbox) *Cache {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 3
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 5 * time.Minute
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Cache{
		cfg:       cfg,
		sandbox:   sandbox,
		entries:   make(map[string]Entry),
		running:   make(map[string]*inflight),
		semaphore: make(chan struct{}, cfg.MaxConcurrent),
	}
}

// StartSpeculations launches speculative executions for predictions,
// skipping any whose ToolID already has a cached entry or an in-flight
// speculation, and respecting MaxConcurrent via a bounded semaphore.
func (c *Cache) StartSpeculations(ctx context.Context, predictions []Prediction) {
	for _, p := range predictions {
		p := p
		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return
		}
		if _, cached := c.entries[p.ToolID]; cached {
			c.mu.Unlock()
			continue
		}
		if _, running := c.running[p.ToolID]; running {
			c.mu.Unlock()
			continue
		}
		specCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
		done := make(chan struct{})
		c.running[p.ToolID] = &inflight{cancel: cancel, done: done}
		c.mu.Unlock()

		go c.run(specCtx, cancel, done, p)
	}
}

func (c *Cache) run(ctx context.Context, cancel context.CancelFunc, done chan struct{}, p Prediction) {
	defer close(done)
	defer cancel()

	select {
	case c.semaphore <- struct{}{}:
		defer func() { <-c.semaphore }()
	case <-ctx.Done():
		c.clearRunning(p.ToolID)
		return
	}

	start := time.Now()
	result, err := c.sandbox.Run(ctx, p.ToolID, p.Arguments)
	elapsed := time.Since(start)

	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.running, p.ToolID)
	if c.closed || err != nil {
		return
	}
	c.entries[p.ToolID] = Entry{
		PredictionID:    uuid.NewString(),
		ToolID:          p.ToolID,
		Result:          result,
		Confidence:      p.Confidence,
		Timestamp:       time.Now(),
		ExecutionTimeMs: elapsed.Milliseconds(),
	}
}

func (c *Cache) clearRunning(toolID string) {
	c.mu.Lock()
	delete(c.running, toolID)
	c.mu.Unlock()
}

// CheckCache returns a non-expired entry for toolID without consuming it.
func (c *Cache) CheckCache(toolID string) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[toolID]
	if !ok || e.expired(c.cfg.TTL) {
		return Entry{}, false
	}
	return e, true
}

// ValidateAndConsume atomically checks and removes the cache entry for
// toolID. On hit it returns the entry; on a miss with a stale (expired)
// entry present, the stale entry is flushed.
func (c *Cache) ValidateAndConsume(toolID string) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[toolID]
	if !ok {
		return Entry{}, false
	}
	delete(c.entries, toolID)
	if e.expired(c.cfg.TTL) {
		return Entry{}, false
	}
	return e, true
}

// DiscardCache clears every cached entry without touching in-flight
// speculations.
func (c *Cache) DiscardCache() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]Entry)
}

// AbortSpeculation cancels any in-flight speculation for toolID and removes
// its cached result, if any.
func (c *Cache) AbortSpeculation(toolID string) {
	c.mu.Lock()
	inf, ok := c.running[toolID]
	delete(c.entries, toolID)
	c.mu.Unlock()
	if ok {
		inf.cancel()
		<-inf.done
	}
}

// AbortAllSpeculations cancels every in-flight speculation and clears the
// cache; used on workflow-level abort.
func (c *Cache) AbortAllSpeculations() {
	c.mu.Lock()
	inflights := make([]*inflight, 0, len(c.running))
	for _, inf := range c.running {
		inflights = append(inflights, inf)
	}
	c.entries = make(map[string]Entry)
	c.mu.Unlock()

	for _, inf := range inflights {
		inf.cancel()
		<-inf.done
	}
}

// Destroy aborts everything in flight and marks the cache closed; further
// StartSpeculations calls are no-ops.
func (c *Cache) Destroy() {
	c.AbortAllSpeculations()
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}
