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

package tool

import (
	"context"
	"fmt"
	"sync"
)

// Registry is an in-process Invoker backed by a map of named handlers,
// useful for tests and for standalone deployments of cmd/dagflow where no
// real transport is wired.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]InvokerFunc
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]InvokerFunc)}
}

// Register installs fn as the handler for toolID.
func (r *Registry) Register(toolID string, fn InvokerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[toolID] = fn
}

// Invoke implements Invoker by dispatching to the handler registered for
// toolID.
func (r *Registry) Invoke(ctx context.Context, toolID string, arguments map[string]any) (any, error) {
	r.mu.RLock()
	fn, ok := r.handlers[toolID]
	r.mu.RUnlock()
	if !ok {
		return nil, &ToolError{ToolID: toolID, Err: fmt.Errorf("no handler registered")}
	}
	out, err := fn(ctx, toolID, arguments)
	if err != nil {
		return nil, &ToolError{ToolID: toolID, Err: err}
	}
	return out, nil
}

var _ Invoker = (*Registry)(nil)
