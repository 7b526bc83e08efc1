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

// Package workflow defines the shared data model for the DAG execution core:
// tasks, DAGs, task results, workflow state, checkpoints, execution events,
// and control commands. Every other core package (scheduler, runner, state,
// event, command, checkpoint, speculation, resolver) builds on these types
// without owning them.
package workflow
