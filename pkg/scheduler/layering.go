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

// Package scheduler implements topological layering of a DAG, per-layer
// bounded-concurrency dispatch through the Task Runner, dependency-failure
// propagation, checkpointing, and decision points.
package scheduler

import "github.com/kpekel-oss/dagflow/pkg/workflow"

// layerize computes the DAG's execution layers: repeatedly pull every
// remaining task whose dependencies are all completed
// into the next layer, tie-broken by input order; a non-empty remaining set
// with no eligible candidate is a CircularDependencyError.
func layerize(dag workflow.DAG) ([][]workflow.Task, error) {
	return layerizeTasks(dag.Tasks, nil)
}

// layerizeTasks is layerize generalized over an explicit seed of already
// (or externally) completed task IDs, so a subset of a larger DAG can be
// layered on its own: a task depending on an ID in completed but not present
// in tasks is treated as already satisfied.
func layerizeTasks(tasks []workflow.Task, completed map[string]bool) ([][]workflow.Task, error) {
	seed := make(map[string]bool, len(completed))
	for id, ok := range completed {
		if ok {
			seed[id] = true
		}
	}

	remaining := make(map[string]bool, len(tasks))
	for _, t := range tasks {
		remaining[t.ID] = true
	}

	var layers [][]workflow.Task
	for len(remaining) > 0 {
		var layer []workflow.Task
		for _, t := range tasks { // input order, for deterministic tie-break
			if !remaining[t.ID] {
				continue
			}
			if dependsSatisfied(t, seed) {
				layer = append(layer, t)
			}
		}
		if len(layer) == 0 {
			ids := make([]string, 0, len(remaining))
			for _, t := range tasks {
				if remaining[t.ID] {
					ids = append(ids, t.ID)
				}
			}
			return nil, &workflow.CircularDependencyError{RemainingTaskIDs: ids}
		}
		for _, t := range layer {
			seed[t.ID] = true
			delete(remaining, t.ID)
		}
		layers = append(layers, layer)
	}
	return layers, nil
}

// spliceInjectedTasks implements inject_tasks: layers before targetLayer
// have already been dispatched and are left untouched; their task IDs count
// as satisfied dependencies. The remaining (not yet dispatched) tasks plus
// newTasks are re-layered from targetLayer onward. Returns a
// CircularDependencyError, leaving layers unmodified for the caller to
// preserve, if the splice makes the remainder unlayerable.
func spliceInjectedTasks(layers [][]workflow.Task, targetLayer int, newTasks []workflow.Task) ([][]workflow.Task, error) {
	if targetLayer < 0 {
		targetLayer = 0
	}
	if targetLayer > len(layers) {
		targetLayer = len(layers)
	}

	completed := make(map[string]bool)
	var remaining []workflow.Task
	for i, layer := range layers {
		if i < targetLayer {
			for _, t := range layer {
				completed[t.ID] = true
			}
			continue
		}
		remaining = append(remaining, layer...)
	}
	remaining = append(remaining, newTasks...)

	newLayers, err := layerizeTasks(remaining, completed)
	if err != nil {
		return nil, err
	}

	out := make([][]workflow.Task, 0, targetLayer+len(newLayers))
	out = append(out, layers[:targetLayer]...)
	out = append(out, newLayers...)
	return out, nil
}

func dependsSatisfied(t workflow.Task, completed map[string]bool) bool {
	for _, dep := range t.DependsOn {
		if !completed[dep] {
			return false
		}
	}
	return true
}
