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

// RecoverableError is implemented by every error kind in the error taxonomy
// so that callers can ask "does this abort the workflow?" without a type
// switch over every concrete error.
type RecoverableError interface {
	error
	Recoverable() bool
}

// CircularDependencyError is fatal: the scheduler could not form a complete
// layering because a cycle (or a dangling reference past DAG.Validate) left
// tasks permanently unschedulable.
type CircularDependencyError struct {
	RemainingTaskIDs []string
}

func (e *CircularDependencyError) Error() string {
	return fmt.Sprintf("workflow: circular dependency among tasks %v", e.RemainingTaskIDs)
}

// Recoverable always returns false: CircularDependency halts the workflow.
func (e *CircularDependencyError) Recoverable() bool { return false }

// WorkflowAbortedError is fatal: the workflow was aborted by a Command.
type WorkflowAbortedError struct {
	Reason string
}

func (e *WorkflowAbortedError) Error() string {
	return fmt.Sprintf("Workflow aborted by agent: %s", e.Reason)
}

// Recoverable always returns false: an abort halts the workflow.
func (e *WorkflowAbortedError) Recoverable() bool { return false }

var (
	_ RecoverableError = (*CircularDependencyError)(nil)
	_ RecoverableError = (*WorkflowAbortedError)(nil)
)
