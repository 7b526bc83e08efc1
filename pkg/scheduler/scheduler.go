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

package scheduler

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kpekel-oss/dagflow/pkg/checkpoint"
	"github.com/kpekel-oss/dagflow/pkg/command"
	"github.com/kpekel-oss/dagflow/pkg/config"
	"github.com/kpekel-oss/dagflow/pkg/event"
	"github.com/kpekel-oss/dagflow/pkg/resolver"
	"github.com/kpekel-oss/dagflow/pkg/runner"
	"github.com/kpekel-oss/dagflow/pkg/state"
	"github.com/kpekel-oss/dagflow/pkg/workflow"
)

// Scheduler owns one workflow's execution: it layers the DAG, dispatches
// each layer's tasks through the Task Runner with bounded concurrency,
// applies results through the State Store, persists a Checkpoint at every
// layer boundary, drains the Command Queue between layers, and arms AIL/HIL
// decision points per the ExecutorConfig policy.
type Scheduler struct {
	cfg    config.ExecutorConfig
	run    *runner.Runner
	queue  *command.Queue
	stream *event.Stream
	store  checkpoint.Store
}

// New constructs a Scheduler. store may be nil to disable checkpointing.
func New(cfg config.ExecutorConfig, run *runner.Runner, queue *command.Queue, stream *event.Stream, store checkpoint.Store) *Scheduler {
	cfg.SetDefaults()
	return &Scheduler{cfg: cfg, run: run, queue: queue, stream: stream, store: store}
}

func (s *Scheduler) emit(ev workflow.ExecutionEvent) {
	if s.stream != nil {
		s.stream.Emit(ev)
	}
}

// Execute runs dag to completion (or to the first fatal error) starting from
// initial, returning the final WorkflowState. A task error is recoverable:
// only its dependents are affected, and the workflow continues to the next
// layer. CircularDependencyError and WorkflowAbortedError are fatal and
// returned immediately after a final workflow_complete{success:false} event.
func (s *Scheduler) Execute(ctx context.Context, dag workflow.DAG, initial workflow.WorkflowState) (workflow.WorkflowState, error) {
	if err := dag.Validate(); err != nil {
		return initial, err
	}

	layers, err := layerize(dag)
	if err != nil {
		s.emit(workflow.ExecutionEvent{
			Type: workflow.EventWorkflowComplete, WorkflowID: initial.WorkflowID,
			Success: false, Reason: err.Error(),
		})
		return initial, err
	}

	current := initial
	s.emit(workflow.ExecutionEvent{Type: workflow.EventWorkflowStart, WorkflowID: current.WorkflowID})

	pendingArgOverrides := make(map[string]map[string]workflow.ArgumentValue)

	for layerIndex := 0; layerIndex < len(layers); layerIndex++ {
		layer := layers[layerIndex]

		select {
		case <-ctx.Done():
			return current, ctx.Err()
		default:
		}

		res := applyCommands(s.queue, layerIndex)
		for taskID, updates := range res.argUpdates {
			pendingArgOverrides[taskID] = updates
		}
		if res.aborted {
			s.emit(workflow.ExecutionEvent{
				Type: workflow.EventWorkflowComplete, WorkflowID: current.WorkflowID,
				Success: false, Reason: res.abortErr.Error(),
			})
			return current, res.abortErr
		}

		if len(res.injectTasks) > 0 {
			if s.store != nil {
				// snapshot priorResults before the splice so tasks already
				// dispatched keep the arguments they resolved against
				snap := checkpoint.New(state.GetStateSnapshot(current), layerIndex, checkpointTimestamp())
				_ = s.store.Save(ctx, snap)
			}
			if spliced, splErr := spliceInjectedTasks(layers, res.injectLayer, res.injectTasks); splErr == nil {
				layers = spliced
				layer = layers[layerIndex]
			} else {
				s.emit(workflow.ExecutionEvent{
					Type: workflow.EventTaskWarning, WorkflowID: current.WorkflowID,
					Error: splErr.Error(),
				})
			}
		}

		if res.replan {
			s.emit(workflow.ExecutionEvent{
				Type: workflow.EventDecisionRequired, WorkflowID: current.WorkflowID,
				DecisionType: workflow.DecisionReplan, Description: res.replanWhy,
			})
			spliced, replanErr := awaitReplan(ctx, s.queue, layers, layerIndex)
			if replanErr != nil {
				s.emit(workflow.ExecutionEvent{Type: workflow.EventWorkflowComplete, WorkflowID: current.WorkflowID, Success: false, Reason: replanErr.Error()})
				return current, replanErr
			}
			layers = spliced
			layer = layers[layerIndex]
		}

		if res.skipLayer {
			skipped := make([]workflow.TaskResult, len(layer))
			for i, t := range layer {
				skipped[i] = workflow.TaskResult{TaskID: t.ID, Status: workflow.TaskStatusSkipped}
			}
			current, err = state.UpdateState(current, state.Update{Tasks: skipped})
			if err != nil {
				return current, err
			}
			snap := current
			s.emit(workflow.ExecutionEvent{Type: workflow.EventStateUpdated, WorkflowID: current.WorkflowID, State: &snap})
			continue
		}

		s.emit(workflow.ExecutionEvent{
			Type: workflow.EventLayerStart, WorkflowID: current.WorkflowID,
			LayerIndex: layerIndex, TasksCount: len(layer),
		})

		if s.cfg.AIL.Enabled && s.cfg.AIL.DecisionPoints == config.AILPerLayer {
			if err := s.awaitAIL(ctx, current, layerIndex); err != nil {
				s.emit(workflow.ExecutionEvent{Type: workflow.EventWorkflowComplete, WorkflowID: current.WorkflowID, Success: false, Reason: err.Error()})
				return current, err
			}
		}

		scope := scopeFromState(current)
		depStatus := dependencyStatusFromState(current)

		results := make([]workflow.TaskResult, len(layer))
		g, gctx := errgroup.WithContext(ctx)
		if s.cfg.MaxConcurrency > 0 {
			g.SetLimit(s.cfg.MaxConcurrency)
		}

		for i, task := range layer {
			i, task := i, task
			if overrides, ok := pendingArgOverrides[task.ID]; ok {
				task.Arguments = resolver.MergeArguments(task.Arguments, overrides)
				delete(pendingArgOverrides, task.ID)
			}
			g.Go(func() error {
				results[i] = s.run.RunTask(gctx, task, scope, depStatus, current.WorkflowID)
				return nil
			})
		}
		_ = g.Wait() // RunTask never returns an error through errgroup; failures live in TaskResult

		hasError := false
		for _, r := range results {
			if r.IsError() {
				hasError = true
			}
		}

		current, err = state.UpdateState(current, state.Update{Tasks: results})
		if err != nil {
			return current, err
		}
		resultsSnap := current
		s.emit(workflow.ExecutionEvent{Type: workflow.EventStateUpdated, WorkflowID: current.WorkflowID, State: &resultsSnap})

		if s.store != nil {
			cp := checkpoint.New(state.GetStateSnapshot(current), layerIndex, checkpointTimestamp())
			if err := s.store.Save(ctx, cp); err == nil {
				layerVal := layerIndex
				cpID := cp.ID
				current, err = state.UpdateState(current, state.Update{CurrentLayer: &layerVal, CheckpointID: &cpID})
				if err != nil {
					return current, err
				}
				cpSnap := current
				s.emit(workflow.ExecutionEvent{Type: workflow.EventStateUpdated, WorkflowID: current.WorkflowID, State: &cpSnap})
				s.emit(workflow.ExecutionEvent{Type: workflow.EventCheckpoint, WorkflowID: current.WorkflowID, CheckpointID: cp.ID})
				if _, err := s.store.Prune(ctx, current.WorkflowID, s.cfg.Checkpoint); err != nil {
					// pruning failures never fail the workflow
					_ = err
				}
			}
		}

		if hasError && s.cfg.AIL.Enabled && s.cfg.AIL.DecisionPoints == config.AILOnError {
			if err := s.awaitAIL(ctx, current, layerIndex); err != nil {
				s.emit(workflow.ExecutionEvent{Type: workflow.EventWorkflowComplete, WorkflowID: current.WorkflowID, Success: false, Reason: err.Error()})
				return current, err
			}
		}

		if hasError && s.cfg.HIL.Enabled && s.cfg.HIL.ApprovalRequired == config.HILOnError {
			if err := s.awaitHIL(ctx, current, "a task in this layer errored"); err != nil {
				s.emit(workflow.ExecutionEvent{Type: workflow.EventWorkflowComplete, WorkflowID: current.WorkflowID, Success: false, Reason: err.Error()})
				return current, err
			}
		}
		if s.cfg.HIL.Enabled && s.cfg.HIL.ApprovalRequired == config.HILAlways {
			if err := s.awaitHIL(ctx, current, "layer complete"); err != nil {
				s.emit(workflow.ExecutionEvent{Type: workflow.EventWorkflowComplete, WorkflowID: current.WorkflowID, Success: false, Reason: err.Error()})
				return current, err
			}
		}
	}

	successful, failed, skippedN := tally(current.Tasks)
	s.emit(workflow.ExecutionEvent{
		Type: workflow.EventWorkflowComplete, WorkflowID: current.WorkflowID,
		Success: failed == 0, SuccessfulTasks: successful, FailedTasks: failed, SkippedTasks: skippedN,
	})
	return current, nil
}

// awaitAIL arms an agent-in-the-loop decision point: emits decision_required
// and blocks on the Command Queue for a continue or abort.
func (s *Scheduler) awaitAIL(ctx context.Context, current workflow.WorkflowState, layerIndex int) error {
	s.emit(workflow.ExecutionEvent{
		Type: workflow.EventDecisionRequired, WorkflowID: current.WorkflowID,
		DecisionType: workflow.DecisionAIL, Description: "layer boundary reached",
	})
	_, err := awaitDecision(ctx, s.queue)
	return err
}

// awaitHIL arms a human-in-the-loop decision point.
func (s *Scheduler) awaitHIL(ctx context.Context, current workflow.WorkflowState, description string) error {
	s.emit(workflow.ExecutionEvent{
		Type: workflow.EventDecisionRequired, WorkflowID: current.WorkflowID,
		DecisionType: workflow.DecisionHIL, Description: description,
	})
	_, err := awaitDecision(ctx, s.queue)
	return err
}

// checkpointTimestamp is the only place scheduler.go reaches for wall clock
// time, isolating it for testability.
func checkpointTimestamp() time.Time {
	return time.Now()
}

func scopeFromState(s workflow.WorkflowState) resolver.Scope {
	results := make(map[string]any, len(s.Tasks))
	for _, t := range s.Tasks {
		results[t.TaskID] = t.Output
	}
	params := make(map[string]any, len(s.Context))
	context := make(map[string]any, len(s.Context))
	for k, v := range s.Context {
		params[k] = v
		context[k] = v
	}
	return resolver.Scope{Parameters: params, Results: results, Context: context}
}

func dependencyStatusFromState(s workflow.WorkflowState) runner.DependencyStatus {
	byID := make(map[string]workflow.TaskResult, len(s.Tasks))
	for _, t := range s.Tasks {
		byID[t.TaskID] = t
	}
	return func(taskID string) (found bool, failed bool) {
		r, ok := byID[taskID]
		if !ok {
			return false, false
		}
		return true, r.IsError()
	}
}

func tally(results []workflow.TaskResult) (successful, failed, skipped int) {
	for _, r := range results {
		switch r.Status {
		case workflow.TaskStatusSuccess:
			successful++
		case workflow.TaskStatusError:
			failed++
		case workflow.TaskStatusSkipped:
			skipped++
		}
	}
	return
}
