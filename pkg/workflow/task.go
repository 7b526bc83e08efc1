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

package workflow

import "fmt"

// TaskType discriminates how a task's tool invocation should be interpreted
// by the external executor. The core never inspects Code or Intent; they are
// opaque payloads for the tool invoker.
type TaskType string

const (
	// TaskTypeMCPTool is a tool invocation against a named server:operation.
	TaskTypeMCPTool TaskType = "mcp_tool"

	// TaskTypeCodeExecution carries inline code for the external executor to run.
	TaskTypeCodeExecution TaskType = "code_execution"
)

// Task is a single unit of work within a DAG. Tasks are immutable once the
// DAG that contains them has been accepted by the scheduler.
type Task struct {
	// ID is unique within the owning DAG.
	ID string

	// Tool is the invocation target, e.g. "filesystem:read_file". Also the
	// default rate-limit key.
	Tool string

	// Arguments maps argument names to their resolution descriptor.
	Arguments map[string]ArgumentValue

	// DependsOn lists task IDs that must reach a terminal status before this
	// task may be dispatched. Order is preserved for deterministic reporting
	// but does not affect scheduling (dependency is a set).
	DependsOn []string

	// Type optionally discriminates mcp_tool vs code_execution. Empty is
	// treated as TaskTypeMCPTool.
	Type TaskType

	// Code is inline source for code-execution tasks. Opaque to the core.
	Code string

	// Intent is a natural-language description for code-execution tasks.
	// Opaque to the core.
	Intent string
}

// EffectiveType returns Type, defaulting to TaskTypeMCPTool when unset.
func (t Task) EffectiveType() TaskType {
	if t.Type == "" {
		return TaskTypeMCPTool
	}
	return t.Type
}

// DAG is an ordered, validated sequence of Tasks. The order is the tie-break
// order used when forming concurrent layers.
type DAG struct {
	Tasks []Task
}

// Validate checks the structural invariants: every dependency ID exists,
// and IDs are unique. Cycle detection is the scheduler's job (it needs
// to report which tasks are stuck, not just that a cycle exists), so Validate
// only checks referential integrity.
func (d DAG) Validate() error {
	seen := make(map[string]bool, len(d.Tasks))
	for _, t := range d.Tasks {
		if t.ID == "" {
			return fmt.Errorf("workflow: task has empty ID")
		}
		if seen[t.ID] {
			return fmt.Errorf("workflow: duplicate task ID %q", t.ID)
		}
		seen[t.ID] = true
	}
	for _, t := range d.Tasks {
		for _, dep := range t.DependsOn {
			if !seen[dep] {
				return fmt.Errorf("workflow: task %q depends on unknown task %q", t.ID, dep)
			}
		}
	}
	return nil
}

// IndexOf returns the position of the task with the given ID in the DAG's
// input order, or -1 if absent.
func (d DAG) IndexOf(id string) int {
	for i, t := range d.Tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// TaskByID returns the task with the given ID, if present.
func (d DAG) TaskByID(id string) (Task, bool) {
	for _, t := range d.Tasks {
		if t.ID == id {
			return t, true
		}
	}
	return Task{}, false
}

// TaskStatus is the terminal status of a TaskResult.
type TaskStatus string

const (
	TaskStatusSuccess TaskStatus = "success"
	TaskStatusError   TaskStatus = "error"
	TaskStatusSkipped TaskStatus = "skipped"
)

// TaskResult is produced exactly once per task that reaches dispatch
// (at-least-once across checkpoint replay).
type TaskResult struct {
	TaskID           string        `json:"task_id"`
	Status           TaskStatus    `json:"status"`
	Output           any           `json:"output,omitempty"`
	Error            string        `json:"error,omitempty"`
	Recoverable      bool          `json:"recoverable,omitempty"`
	ExecutionTimeMs  int64         `json:"execution_time_ms,omitempty"`
	SpeculativeHit   bool          `json:"speculative_hit,omitempty"`
}

// IsError reports whether the result represents a task error (not skipped or
// successful).
func (r TaskResult) IsError() bool {
	return r.Status == TaskStatusError
}
