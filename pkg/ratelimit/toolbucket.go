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

package ratelimit

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// KeyFunc derives the rate-limit bucket key for a tool call. The default,
// ToolKey, buckets per "server:operation" identifier; callers that need
// per-server-only or per-workflow keying can supply their own.
type KeyFunc func(toolID string) string

// ToolKey is the default KeyFunc: one bucket per exact tool identifier.
func ToolKey(toolID string) string { return toolID }

// ToolLimiterConfig configures a continuous-refill token bucket per key.
type ToolLimiterConfig struct {
	// RatePerSecond is the steady-state number of calls permitted per
	// second, per key.
	RatePerSecond float64
	// Burst is the maximum number of calls admitted instantaneously.
	Burst int
	// Key derives the bucket key from a tool identifier. Defaults to
	// ToolKey when nil.
	Key KeyFunc
}

// ToolLimiter is a tool-level token-bucket rate limiter built on
// golang.org/x/time/rate, used by the Task Runner to bound the rate of
// calls into a single external tool regardless of how many tasks target it
// concurrently. It limits call starts per second, not calls in flight.
type ToolLimiter struct {
	cfg ToolLimiterConfig

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewToolLimiter constructs a ToolLimiter from cfg.
func NewToolLimiter(cfg ToolLimiterConfig) *ToolLimiter {
	if cfg.Key == nil {
		cfg.Key = ToolKey
	}
	return &ToolLimiter{cfg: cfg, limiters: make(map[string]*rate.Limiter)}
}

func (l *ToolLimiter) limiterFor(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	lim, ok := l.limiters[key]
	if !ok {
		lim = rate.NewLimiter(rate.Limit(l.cfg.RatePerSecond), l.cfg.Burst)
		l.limiters[key] = lim
	}
	return lim
}

// Wait blocks until toolID's bucket has capacity for one call, or ctx is
// cancelled. A cancelled ctx is returned unwrapped, so callers can classify
// it as a context error rather than a rate-limit rejection.
func (l *ToolLimiter) Wait(ctx context.Context, toolID string) error {
	key := l.cfg.Key(toolID)
	return l.limiterFor(key).Wait(ctx)
}

// Allow reports whether toolID's bucket currently has capacity, without
// blocking or consuming a token unless allowed.
func (l *ToolLimiter) Allow(toolID string) bool {
	key := l.cfg.Key(toolID)
	return l.limiterFor(key).Allow()
}
