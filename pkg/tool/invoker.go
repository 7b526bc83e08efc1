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

// Package tool defines the external collaborator boundary the Task Runner
// calls through: the thing that actually executes an MCP tool or a
// code_execution task. The core never talks to a concrete tool transport
// directly; it only depends on the Invoker interface.
package tool

import "context"

// Invoker executes a single task's tool call and returns its output. It
// must respect ctx cancellation: a cancelled ctx should abort the
// underlying call promptly, not just at its next checkpoint.
type Invoker interface {
	Invoke(ctx context.Context, toolID string, arguments map[string]any) (any, error)
}

// InvokerFunc adapts a function to an Invoker.
type InvokerFunc func(ctx context.Context, toolID string, arguments map[string]any) (any, error)

// Invoke implements Invoker.
func (f InvokerFunc) Invoke(ctx context.Context, toolID string, arguments map[string]any) (any, error) {
	return f(ctx, toolID, arguments)
}

// ToolError wraps a failure returned by the underlying tool invocation
// itself (as opposed to a timeout or a dependency failure upstream).
type ToolError struct {
	ToolID string
	Err    error
}

func (e *ToolError) Error() string {
	return "tool: " + e.ToolID + ": " + e.Err.Error()
}

func (e *ToolError) Unwrap() error { return e.Err }

// Recoverable reports true: a single tool failure fails its task but does
// not by itself halt the workflow.
func (e *ToolError) Recoverable() bool { return true }
