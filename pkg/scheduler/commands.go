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

	"github.com/kpekel-oss/dagflow/pkg/command"
	"github.com/kpekel-oss/dagflow/pkg/workflow"
)

// commandPollInterval is how often awaitCommand re-checks the queue while
// a decision point is armed.
const commandPollInterval = 10 * time.Millisecond

// applyResult summarizes the effect of draining and applying commands at a
// layer boundary.
type applyResult struct {
	aborted     bool
	abortErr    error
	skipLayer   bool
	argUpdates  map[string]map[string]workflow.ArgumentValue // taskID -> overrides
	injectTasks []workflow.Task
	injectLayer int
	replan      bool
	replanWhy   string
}

// applyCommands drains queue and applies every command's immediate effect.
// inject_tasks and replan_dag are surfaced here; the scheduler performs the
// actual DAG splice/pause since only it holds the live layer plan.
func applyCommands(queue *command.Queue, currentLayer int) applyResult {
	res := applyResult{argUpdates: make(map[string]map[string]workflow.ArgumentValue)}
	for _, cmd := range queue.Drain() {
		switch cmd.Type {
		case workflow.CommandContinue:
			// no-op: unblocks a waiting decision point, handled by awaitCommand
		case workflow.CommandAbort:
			res.aborted = true
			res.abortErr = &workflow.WorkflowAbortedError{Reason: cmd.Reason}
		case workflow.CommandSkipLayer:
			if cmd.LayerIndex == currentLayer {
				res.skipLayer = true
			}
		case workflow.CommandModifyArgs:
			res.argUpdates[cmd.TaskID] = cmd.Updates
		case workflow.CommandInjectTasks:
			res.injectTasks = append(res.injectTasks, cmd.InjectTasks...)
			res.injectLayer = cmd.TargetLayer
		case workflow.CommandReplanDAG:
			res.replan = true
			res.replanWhy = cmd.NewRequirement
		case workflow.CommandCheckpointResponse, workflow.CommandApprovalResponse:
			// Surfaced via the decision-point wait path; no direct effect here.
		}
	}
	return res
}

// awaitReplan pauses the scheduler after a replan_dag command: it blocks
// until the host supplies a replacement via inject_tasks, spliced at
// layerIndex or later, or aborts the workflow outright. Every other command
// observed while paused is re-enqueued so it isn't lost.
func awaitReplan(ctx context.Context, queue *command.Queue, layers [][]workflow.Task, layerIndex int) ([][]workflow.Task, error) {
	ticker := time.NewTicker(commandPollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return layers, ctx.Err()
		case <-ticker.C:
			for _, cmd := range queue.Drain() {
				switch cmd.Type {
				case workflow.CommandAbort:
					return layers, &workflow.WorkflowAbortedError{Reason: cmd.Reason}
				case workflow.CommandInjectTasks:
					target := cmd.TargetLayer
					if target < layerIndex {
						target = layerIndex
					}
					if replaced, err := spliceInjectedTasks(layers, target, cmd.InjectTasks); err == nil {
						return replaced, nil
					}
					// malformed replacement (introduces a cycle): keep waiting
				default:
					_ = queue.Enqueue(cmd) // preserve for the next drain
				}
			}
		}
	}
}

// awaitDecision blocks until a continue or abort/rejection command arrives,
// draining and re-enqueueing every other command so it isn't lost. It
// returns approved=false only when an abort or an explicit rejection is
// received, or when ctx is done.
func awaitDecision(ctx context.Context, queue *command.Queue) (approved bool, err error) {
	ticker := time.NewTicker(commandPollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-ticker.C:
			drained := queue.Drain()
			var resolved bool
			var result bool
			var resultErr error
			for _, cmd := range drained {
				switch cmd.Type {
				case workflow.CommandContinue:
					resolved, result = true, true
				case workflow.CommandAbort:
					resolved, result, resultErr = true, false, &workflow.WorkflowAbortedError{Reason: cmd.Reason}
				case workflow.CommandApprovalResponse:
					resolved, result = true, cmd.Approved
					if !cmd.Approved {
						resultErr = &workflow.WorkflowAbortedError{Reason: "HIL approval rejected: " + cmd.Feedback}
					}
				default:
					_ = queue.Enqueue(cmd) // preserve for the next drain
				}
			}
			if resolved {
				return result, resultErr
			}
		}
	}
}
