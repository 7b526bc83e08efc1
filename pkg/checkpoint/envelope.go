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

// Package checkpoint provides durable, versioned snapshots of WorkflowState
// taken after each completed layer, used to resume a workflow after a
// crash or a human-in-the-loop pause.
package checkpoint

import (
	"encoding/json"
	"fmt"

	"github.com/kpekel-oss/dagflow/pkg/workflow"
)

// envelopeVersion is bumped whenever the on-disk/on-wire shape of envelope
// changes in a way that requires migration logic on Load.
const envelopeVersion = 1

// envelope wraps a Checkpoint with a schema version so future releases can
// evolve the stored shape without breaking existing checkpoint rows/files.
type envelope struct {
	Version    int                 `json:"version"`
	Checkpoint workflow.Checkpoint `json:"checkpoint"`
}

// CorruptedCheckpointError is returned by Load when the stored bytes don't
// decode into a valid envelope, or decode into an envelope whose version
// this build doesn't know how to read.
type CorruptedCheckpointError struct {
	CheckpointID string
	Detail       string
}

func (e *CorruptedCheckpointError) Error() string {
	return fmt.Sprintf("checkpoint: corrupted checkpoint %q: %s", e.CheckpointID, e.Detail)
}

// Recoverable reports true: a corrupted checkpoint fails the load/resume
// attempt but does not need to halt a running workflow that isn't resuming
// from it.
func (e *CorruptedCheckpointError) Recoverable() bool { return true }

var _ workflow.RecoverableError = (*CorruptedCheckpointError)(nil)

// serialize encodes cp into its versioned envelope form.
func serialize(cp workflow.Checkpoint) ([]byte, error) {
	return json.Marshal(envelope{Version: envelopeVersion, Checkpoint: cp})
}

// deserialize decodes bytes produced by serialize back into a Checkpoint.
func deserialize(id string, data []byte) (workflow.Checkpoint, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return workflow.Checkpoint{}, &CorruptedCheckpointError{CheckpointID: id, Detail: err.Error()}
	}
	if env.Version == 0 || env.Version > envelopeVersion {
		return workflow.Checkpoint{}, &CorruptedCheckpointError{
			CheckpointID: id,
			Detail:       fmt.Sprintf("unsupported envelope version %d", env.Version),
		}
	}
	if env.Checkpoint.WorkflowID == "" {
		return workflow.Checkpoint{}, &CorruptedCheckpointError{CheckpointID: id, Detail: "missing workflow_id"}
	}
	return env.Checkpoint, nil
}
