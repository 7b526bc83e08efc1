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

package checkpoint

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/kpekel-oss/dagflow/pkg/workflow"
)

// Store is the persistence interface for checkpoints, keyed by
// (workflowId, id).
type Store interface {
	// Save persists cp, overwriting any prior checkpoint with the same ID.
	Save(ctx context.Context, cp workflow.Checkpoint) error
	// Load retrieves a single checkpoint by ID.
	Load(ctx context.Context, workflowID, id string) (workflow.Checkpoint, error)
	// List returns every checkpoint for workflowID, oldest first.
	List(ctx context.Context, workflowID string) ([]workflow.Checkpoint, error)
	// Prune removes checkpoints beyond retention, returning how many were
	// removed.
	Prune(ctx context.Context, workflowID string, retention Config) (int, error)
	// Close releases any resources held by the store.
	Close() error
}

// NotFoundError is returned by Load when no checkpoint with the given ID
// exists for the workflow.
type NotFoundError struct {
	WorkflowID string
	ID         string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("checkpoint: no checkpoint %q for workflow %q", e.ID, e.WorkflowID)
}

// Recoverable reports true: a missing checkpoint fails the specific
// resume/load attempt, not the whole process.
func (e *NotFoundError) Recoverable() bool { return true }

var _ workflow.RecoverableError = (*NotFoundError)(nil)

// MemoryStore is an in-process Store backed by a mutex-guarded map, suitable
// for tests and single-process deployments.
type MemoryStore struct {
	mu   sync.RWMutex
	byWF map[string][]workflow.Checkpoint
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byWF: make(map[string][]workflow.Checkpoint)}
}

// Save implements Store.
func (m *MemoryStore) Save(_ context.Context, cp workflow.Checkpoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.byWF[cp.WorkflowID]
	for i, existing := range list {
		if existing.ID == cp.ID {
			list[i] = cp
			return nil
		}
	}
	m.byWF[cp.WorkflowID] = append(list, cp)
	return nil
}

// Load implements Store.
func (m *MemoryStore) Load(_ context.Context, workflowID, id string) (workflow.Checkpoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, cp := range m.byWF[workflowID] {
		if cp.ID == id {
			return cp, nil
		}
	}
	return workflow.Checkpoint{}, &NotFoundError{WorkflowID: workflowID, ID: id}
}

// List implements Store.
func (m *MemoryStore) List(_ context.Context, workflowID string) ([]workflow.Checkpoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	list := append([]workflow.Checkpoint(nil), m.byWF[workflowID]...)
	sort.Slice(list, func(i, j int) bool { return list[i].Timestamp.Before(list[j].Timestamp) })
	return list, nil
}

// Prune implements Store.
func (m *MemoryStore) Prune(_ context.Context, workflowID string, retention Config) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	list := append([]workflow.Checkpoint(nil), m.byWF[workflowID]...)
	sort.Slice(list, func(i, j int) bool { return list[i].Timestamp.Before(list[j].Timestamp) })

	kept := list
	if maxAge := retention.MaxAge(); maxAge > 0 {
		cutoff := time.Now().Add(-maxAge)
		filtered := kept[:0:0]
		for _, cp := range kept {
			if cp.Timestamp.After(cutoff) {
				filtered = append(filtered, cp)
			}
		}
		kept = filtered
	}
	if retention.MaxPerWorkflow > 0 && len(kept) > retention.MaxPerWorkflow {
		kept = kept[len(kept)-retention.MaxPerWorkflow:]
	}

	removed := len(list) - len(kept)
	m.byWF[workflowID] = kept
	return removed, nil
}

// Close implements Store.
func (m *MemoryStore) Close() error { return nil }

var _ Store = (*MemoryStore)(nil)
