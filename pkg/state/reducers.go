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

// Package state implements pure reducers over WorkflowState plus invariant
// validation. No reducer mutates its input; UpdateState always returns a
// new value and never mutates existing state in place.
package state

import (
	"github.com/kpekel-oss/dagflow/pkg/workflow"
)

// MessagesReducer appends new messages to existing, returning a new slice.
func MessagesReducer(existing []workflow.Message, update []workflow.Message) []workflow.Message {
	if len(update) == 0 {
		return existing
	}
	out := make([]workflow.Message, 0, len(existing)+len(update))
	out = append(out, existing...)
	out = append(out, update...)
	return out
}

// TasksReducer appends new task results to existing, returning a new slice.
func TasksReducer(existing []workflow.TaskResult, update []workflow.TaskResult) []workflow.TaskResult {
	if len(update) == 0 {
		return existing
	}
	out := make([]workflow.TaskResult, 0, len(existing)+len(update))
	out = append(out, existing...)
	out = append(out, update...)
	return out
}

// DecisionsReducer appends new decisions to existing, returning a new slice.
func DecisionsReducer(existing []workflow.Decision, update []workflow.Decision) []workflow.Decision {
	if len(update) == 0 {
		return existing
	}
	out := make([]workflow.Decision, 0, len(existing)+len(update))
	out = append(out, existing...)
	out = append(out, update...)
	return out
}

// ContextReducer shallow-merges update into existing; update wins on key
// conflict.
func ContextReducer(existing map[string]any, update map[string]any) map[string]any {
	out := make(map[string]any, len(existing)+len(update))
	for k, v := range existing {
		out[k] = v
	}
	for k, v := range update {
		out[k] = v
	}
	return out
}

// Update is a partial WorkflowState used as input to UpdateState. Zero values
// mean "no change" except where noted.
type Update struct {
	Messages     []workflow.Message
	Tasks        []workflow.TaskResult
	Decisions    []workflow.Decision
	Context      map[string]any
	CurrentLayer *int
	CheckpointID *string
}

// UpdateState applies all relevant reducers to produce a new WorkflowState,
// then revalidates invariants. The input state is never mutated. Returning a
// state that violates an invariant fails the update and is fatal for the
// workflow.
func UpdateState(current workflow.WorkflowState, update Update) (workflow.WorkflowState, error) {
	next := current.Clone()
	next.Messages = MessagesReducer(current.Messages, update.Messages)
	next.Tasks = TasksReducer(current.Tasks, update.Tasks)
	next.Decisions = DecisionsReducer(current.Decisions, update.Decisions)
	next.Context = ContextReducer(current.Context, update.Context)
	if update.CurrentLayer != nil {
		next.CurrentLayer = *update.CurrentLayer
	}
	if update.CheckpointID != nil {
		next.LatestCheckpointID = *update.CheckpointID
	}

	if err := next.Validate(); err != nil {
		return workflow.WorkflowState{}, err
	}
	return next, nil
}

// GetStateSnapshot returns an immutable deep view of state suitable for event
// payloads and checkpoint persistence.
func GetStateSnapshot(s workflow.WorkflowState) workflow.WorkflowState {
	return s.Clone()
}
