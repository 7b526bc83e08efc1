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

// Package command implements an MPSC-safe out-of-band control surface the
// scheduler drains at layer boundaries.
package command

import (
	"sync"

	"github.com/kpekel-oss/dagflow/pkg/workflow"
)

// Stats reports Command Queue counters.
type Stats struct {
	Enqueued int64
	Rejected int64
	Drained  int64
}

// Queue is a FIFO of validated Commands. Safe for concurrent Enqueue from
// any number of producers; Drain is intended to be called by a single
// consumer (the scheduler) at layer boundaries.
type Queue struct {
	mu       sync.Mutex
	pending  []workflow.Command
	enqueued int64
	rejected int64
	drained  int64
}

// New returns an empty Queue.
func New() *Queue {
	return &Queue{}
}

// Enqueue validates cmd and appends it if valid. It returns the validation
// error (unmodified) when cmd is rejected; the queue is never left
// partially updated.
func (q *Queue) Enqueue(cmd workflow.Command) error {
	if err := cmd.Validate(); err != nil {
		q.mu.Lock()
		q.rejected++
		q.mu.Unlock()
		return err
	}
	q.mu.Lock()
	q.pending = append(q.pending, cmd)
	q.enqueued++
	q.mu.Unlock()
	return nil
}

// Drain atomically removes and returns every command currently pending, in
// enqueue order. An empty queue returns a nil slice, never an error.
func (q *Queue) Drain() []workflow.Command {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) == 0 {
		return nil
	}
	out := q.pending
	q.pending = nil
	q.drained += int64(len(out))
	return out
}

// Stats reports the queue's lifetime counters.
func (q *Queue) Stats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()
	return Stats{Enqueued: q.enqueued, Rejected: q.rejected, Drained: q.drained}
}

// Len reports the number of commands currently pending.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}
