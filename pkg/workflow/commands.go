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

// CommandType discriminates the eight Command variants.
type CommandType string

const (
	CommandContinue           CommandType = "continue"
	CommandAbort              CommandType = "abort"
	CommandInjectTasks        CommandType = "inject_tasks"
	CommandReplanDAG          CommandType = "replan_dag"
	CommandSkipLayer          CommandType = "skip_layer"
	CommandModifyArgs         CommandType = "modify_args"
	CommandCheckpointResponse CommandType = "checkpoint_response"
	CommandApprovalResponse   CommandType = "approval_response"
)

// Command is the tagged union of out-of-band control messages accepted by
// the Command Queue.
type Command struct {
	Type CommandType

	// abort
	Reason string

	// inject_tasks
	InjectTasks []Task
	TargetLayer int

	// replan_dag
	NewRequirement   string
	AvailableContext map[string]any

	// skip_layer
	LayerIndex int

	// modify_args
	TaskID  string
	Updates map[string]ArgumentValue

	// checkpoint_response / approval_response
	CheckpointID string
	Decision     DecisionOutcome
	Approved     bool
	Feedback     string
}

// ErrInvalidCommand is returned by the Command Queue when enqueue validation
// fails: the tag is unknown or a required field for that tag is missing.
type ErrInvalidCommand struct {
	Reason string
}

func (e *ErrInvalidCommand) Error() string {
	return fmt.Sprintf("workflow: invalid command: %s", e.Reason)
}

// Validate checks that a Command carries the fields required by its Type.
func (c Command) Validate() error {
	switch c.Type {
	case CommandContinue:
		return nil
	case CommandAbort:
		if c.Reason == "" {
			return &ErrInvalidCommand{Reason: "abort requires a reason"}
		}
	case CommandInjectTasks:
		if len(c.InjectTasks) == 0 {
			return &ErrInvalidCommand{Reason: "inject_tasks requires at least one task"}
		}
		if c.TargetLayer < 0 {
			return &ErrInvalidCommand{Reason: "inject_tasks requires a non-negative targetLayer"}
		}
	case CommandReplanDAG:
		if c.NewRequirement == "" {
			return &ErrInvalidCommand{Reason: "replan_dag requires newRequirement"}
		}
	case CommandSkipLayer:
		if c.LayerIndex < 0 {
			return &ErrInvalidCommand{Reason: "skip_layer requires a non-negative layerIndex"}
		}
	case CommandModifyArgs:
		if c.TaskID == "" {
			return &ErrInvalidCommand{Reason: "modify_args requires taskId"}
		}
		if len(c.Updates) == 0 {
			return &ErrInvalidCommand{Reason: "modify_args requires at least one update"}
		}
	case CommandCheckpointResponse:
		if c.CheckpointID == "" {
			return &ErrInvalidCommand{Reason: "checkpoint_response requires checkpointId"}
		}
	case CommandApprovalResponse:
		if c.CheckpointID == "" {
			return &ErrInvalidCommand{Reason: "approval_response requires checkpointId"}
		}
	default:
		return &ErrInvalidCommand{Reason: fmt.Sprintf("unknown command type %q", c.Type)}
	}
	return nil
}
