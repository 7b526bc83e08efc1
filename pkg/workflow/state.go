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

import (
	"fmt"
	"time"
)

// DecisionType discriminates AIL (agent-in-the-loop) and HIL
// (human-in-the-loop) decision points from a replan_dag pause.
type DecisionType string

const (
	DecisionAIL    DecisionType = "AIL"
	DecisionHIL    DecisionType = "HIL"
	DecisionReplan DecisionType = "replan"
)

// DecisionOutcome records how a decision point was resolved.
type DecisionOutcome string

const (
	DecisionOutcomeContinue DecisionOutcome = "continue"
	DecisionOutcomeApprove  DecisionOutcome = "approve"
	DecisionOutcomeReject   DecisionOutcome = "reject"
)

// Message is an append-only entry in WorkflowState.Messages.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Decision is an append-only record of a resolved AIL/HIL decision point.
type Decision struct {
	Type        DecisionType    `json:"type"`
	Timestamp   time.Time       `json:"timestamp"`
	Description string          `json:"description"`
	Outcome     DecisionOutcome `json:"outcome"`
	Confidence  *float64        `json:"confidence,omitempty"`
}

// WorkflowState is the shared, reduction-based workflow state. It is never
// mutated in place: every transition goes through the reducers in
// pkg/state, which return a new value.
type WorkflowState struct {
	WorkflowID         string
	CurrentLayer       int
	Messages           []Message
	Tasks              []TaskResult
	Decisions          []Decision
	Context            map[string]any
	LatestCheckpointID string
}

// Clone returns a deep-enough copy of the state so that callers may mutate
// the returned value without affecting the receiver. Slices and the context
// map are copied; TaskResult.Output/Decision.Confidence are shared by
// reference (they are treated as immutable once produced).
func (s WorkflowState) Clone() WorkflowState {
	out := s
	out.Messages = append([]Message(nil), s.Messages...)
	out.Tasks = append([]TaskResult(nil), s.Tasks...)
	out.Decisions = append([]Decision(nil), s.Decisions...)
	out.Context = make(map[string]any, len(s.Context))
	for k, v := range s.Context {
		out.Context[k] = v
	}
	return out
}

// ErrStateInvariantViolation is returned by Validate (and by UpdateState in
// pkg/state, which calls it) when a WorkflowState fails one of its invariants.
// It is fatal for the owning workflow.
type ErrStateInvariantViolation struct {
	Reason string
}

func (e *ErrStateInvariantViolation) Error() string {
	return fmt.Sprintf("workflow: state invariant violation: %s", e.Reason)
}

// Validate checks the invariants: workflowId non-empty, currentLayer >= 0,
// tasks.length >= decisions.length.
func (s WorkflowState) Validate() error {
	if s.WorkflowID == "" {
		return &ErrStateInvariantViolation{Reason: "workflowId must not be empty"}
	}
	if s.CurrentLayer < 0 {
		return &ErrStateInvariantViolation{Reason: "currentLayer must be non-negative"}
	}
	if len(s.Tasks) < len(s.Decisions) {
		return &ErrStateInvariantViolation{Reason: "tasks.length must be >= decisions.length"}
	}
	return nil
}

// NewWorkflowState creates the initial state for a workflow.
func NewWorkflowState(workflowID string) WorkflowState {
	return WorkflowState{
		WorkflowID: workflowID,
		Context:    make(map[string]any),
	}
}

// Checkpoint is a persisted, restorable snapshot of WorkflowState at a layer
// boundary.
type Checkpoint struct {
	ID         string        `json:"id"`
	WorkflowID string        `json:"workflow_id"`
	Layer      int           `json:"layer"`
	Timestamp  time.Time     `json:"timestamp"`
	State      WorkflowState `json:"state"`
}
