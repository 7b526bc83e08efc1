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

import "time"

// EventType discriminates the ten ExecutionEvent variants.
type EventType string

const (
	EventWorkflowStart   EventType = "workflow_start"
	EventLayerStart      EventType = "layer_start"
	EventTaskStart       EventType = "task_start"
	EventTaskComplete    EventType = "task_complete"
	EventTaskError       EventType = "task_error"
	EventTaskWarning     EventType = "task_warning"
	EventStateUpdated    EventType = "state_updated"
	EventCheckpoint      EventType = "checkpoint"
	EventDecisionRequired EventType = "decision_required"
	EventWorkflowComplete EventType = "workflow_complete"
)

// ExecutionEvent is the tagged union emitted by the scheduler through the
// event stream. Every variant carries Timestamp and WorkflowID; the other
// fields are populated according to Type.
type ExecutionEvent struct {
	Type       EventType `json:"type"`
	Timestamp  time.Time `json:"timestamp"`
	WorkflowID string    `json:"workflow_id"`

	// layer_start
	LayerIndex int `json:"layer_index,omitempty"`
	TasksCount int `json:"tasks_count,omitempty"`

	// task_start / task_complete / task_error / task_warning
	TaskID          string `json:"task_id,omitempty"`
	Tool            string `json:"tool,omitempty"`
	ExecutionTimeMs int64  `json:"execution_time_ms,omitempty"`
	Output          any    `json:"output,omitempty"`
	Error           string `json:"error,omitempty"`
	Recoverable     bool   `json:"recoverable,omitempty"`
	Cancelled       bool   `json:"cancelled,omitempty"`
	SpeculativeHit  bool   `json:"speculative_hit,omitempty"`

	// state_updated
	State *WorkflowState `json:"state,omitempty"`

	// checkpoint
	CheckpointID string `json:"checkpoint_id,omitempty"`

	// decision_required
	DecisionType DecisionType `json:"decision_type,omitempty"`
	Description  string       `json:"description,omitempty"`

	// workflow_complete
	Success         bool   `json:"success,omitempty"`
	Reason          string `json:"reason,omitempty"`
	SuccessfulTasks int    `json:"successful_tasks,omitempty"`
	FailedTasks     int    `json:"failed_tasks,omitempty"`
	SkippedTasks    int    `json:"skipped_tasks,omitempty"`
}
