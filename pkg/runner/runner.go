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

// Package runner implements the Task Runner: the per-task pipeline of
// dependency assertion, speculation-cache lookup, argument resolution,
// rate-limit gating, timeout-bounded invocation, and error classification.
package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kpekel-oss/dagflow/pkg/ratelimit"
	"github.com/kpekel-oss/dagflow/pkg/resolver"
	"github.com/kpekel-oss/dagflow/pkg/speculation"
	"github.com/kpekel-oss/dagflow/pkg/tool"
	"github.com/kpekel-oss/dagflow/pkg/workflow"
)

// DependencyFailedError is raised when a task's dependency completed with
// status error or has no recorded result. This is recoverable: only the
// dependent task fails, the workflow continues.
type DependencyFailedError struct {
	TaskID       string
	DependencyID string
}

func (e *DependencyFailedError) Error() string {
	return fmt.Sprintf("runner: task %q cannot run: dependency %q failed", e.TaskID, e.DependencyID)
}

// Recoverable always returns true.
func (e *DependencyFailedError) Recoverable() bool { return true }

// TimeoutError is raised when a tool invocation exceeds taskTimeout.
type TimeoutError struct {
	TaskID  string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("runner: task %q exceeded timeout %s", e.TaskID, e.Timeout)
}

// Recoverable always returns true.
func (e *TimeoutError) Recoverable() bool { return true }

var (
	_ workflow.RecoverableError = (*DependencyFailedError)(nil)
	_ workflow.RecoverableError = (*TimeoutError)(nil)
)

// Config bounds Task Runner behavior.
type Config struct {
	// TaskTimeout bounds a single tool invocation. Default 30s.
	TaskTimeout time.Duration
}

// SetDefaults applies the documented default.
func (c *Config) SetDefaults() {
	if c.TaskTimeout <= 0 {
		c.TaskTimeout = 30 * time.Second
	}
}

// Runner executes individual tasks against a tool.Invoker, gated by a
// ToolLimiter and backed by a Speculation Cache.
type Runner struct {
	cfg     Config
	invoker tool.Invoker
	limiter *ratelimit.ToolLimiter
	specs   *speculation.Cache
	onEvent func(workflow.ExecutionEvent)
}

// New constructs a Runner. limiter and specs may be nil to disable
// rate-gating and speculative-hit lookup respectively; onEvent may be nil
// to discard events.
func New(cfg Config, invoker tool.Invoker, limiter *ratelimit.ToolLimiter, specs *speculation.Cache, onEvent func(workflow.ExecutionEvent)) *Runner {
	cfg.SetDefaults()
	if onEvent == nil {
		onEvent = func(workflow.ExecutionEvent) {}
	}
	return &Runner{cfg: cfg, invoker: invoker, limiter: limiter, specs: specs, onEvent: onEvent}
}

// DependencyStatus reports whether a dependency's result, if any, ended in
// error. The scheduler supplies this since priorResults (scope.Results)
// stores raw Output values for resolver navigation, not full TaskResults.
type DependencyStatus func(taskID string) (found bool, failed bool)

// RunTask executes a single task through the resolve/gate/invoke/classify
// pipeline. workflowID is attached to emitted events.
func (r *Runner) RunTask(ctx context.Context, task workflow.Task, scope resolver.Scope, depStatus DependencyStatus, workflowID string) workflow.TaskResult {
	start := time.Now()

	for _, dep := range task.DependsOn {
		found, failed := depStatus(dep)
		if !found || failed {
			err := &DependencyFailedError{TaskID: task.ID, DependencyID: dep}
			return errorResult(task.ID, err, true, time.Since(start))
		}
	}

	if r.specs != nil {
		if entry, ok := r.specs.ValidateAndConsume(task.Tool); ok {
			r.onEvent(workflow.ExecutionEvent{
				Type:            workflow.EventTaskComplete,
				WorkflowID:      workflowID,
				TaskID:          task.ID,
				Tool:            task.Tool,
				Output:          entry.Result,
				ExecutionTimeMs: entry.ExecutionTimeMs,
				SpeculativeHit:  true,
			})
			return workflow.TaskResult{
				TaskID:          task.ID,
				Status:          workflow.TaskStatusSuccess,
				Output:          entry.Result,
				ExecutionTimeMs: entry.ExecutionTimeMs,
				SpeculativeHit:  true,
			}
		}
	}

	args, err := resolver.ResolveArguments(task.Arguments, scope)
	if err != nil {
		return errorResult(task.ID, err, true, time.Since(start))
	}

	if r.limiter != nil {
		if err := r.limiter.Wait(ctx, task.Tool); err != nil {
			return errorResult(task.ID, err, true, time.Since(start))
		}
	}

	r.onEvent(workflow.ExecutionEvent{
		Type:       workflow.EventTaskStart,
		WorkflowID: workflowID,
		TaskID:     task.ID,
		Tool:       task.Tool,
	})

	invokeCtx, cancel := context.WithTimeout(ctx, r.cfg.TaskTimeout)
	defer cancel()

	output, invokeErr := r.invoker.Invoke(invokeCtx, task.Tool, args)
	elapsed := time.Since(start)

	if invokeErr != nil {
		if errors.Is(invokeCtx.Err(), context.DeadlineExceeded) {
			timeoutErr := &TimeoutError{TaskID: task.ID, Timeout: r.cfg.TaskTimeout}
			res := errorResult(task.ID, timeoutErr, true, elapsed)
			r.onEvent(taskErrorEvent(workflowID, task, res, false))
			return res
		}
		cancelled := errors.Is(ctx.Err(), context.Canceled)
		res := errorResult(task.ID, invokeErr, true, elapsed)
		r.onEvent(taskErrorEvent(workflowID, task, res, cancelled))
		return res
	}

	r.onEvent(workflow.ExecutionEvent{
		Type:            workflow.EventTaskComplete,
		WorkflowID:      workflowID,
		TaskID:          task.ID,
		Tool:            task.Tool,
		Output:          output,
		ExecutionTimeMs: elapsed.Milliseconds(),
	})

	return workflow.TaskResult{
		TaskID:          task.ID,
		Status:          workflow.TaskStatusSuccess,
		Output:          output,
		ExecutionTimeMs: elapsed.Milliseconds(),
	}
}

func taskErrorEvent(workflowID string, task workflow.Task, res workflow.TaskResult, cancelled bool) workflow.ExecutionEvent {
	return workflow.ExecutionEvent{
		Type:        workflow.EventTaskError,
		WorkflowID:  workflowID,
		TaskID:      task.ID,
		Tool:        task.Tool,
		Error:       res.Error,
		Recoverable: res.Recoverable,
		Cancelled:   cancelled,
	}
}

func errorResult(taskID string, err error, recoverable bool, elapsed time.Duration) workflow.TaskResult {
	return workflow.TaskResult{
		TaskID:          taskID,
		Status:          workflow.TaskStatusError,
		Error:           err.Error(),
		Recoverable:     recoverable,
		ExecutionTimeMs: elapsed.Milliseconds(),
	}
}
