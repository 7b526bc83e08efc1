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

package speculation

import (
	"context"
	"time"
)

// DefaultSweepInterval is the default periodic-sweep cadence.
const DefaultSweepInterval = 60 * time.Second

// sweepOnce evicts every expired entry and reports how many were removed.
func (c *Cache) sweepOnce() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for id, e := range c.entries {
		if e.expired(c.cfg.TTL) {
			delete(c.entries, id)
			removed++
		}
	}
	return removed
}

// RunSweeper evicts expired entries every interval until ctx is cancelled.
// Intended to run in its own goroutine for the lifetime of a workflow.
func (c *Cache) RunSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.sweepOnce()
		}
	}
}
