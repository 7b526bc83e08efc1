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

package checkpoint

import (
	"time"

	"github.com/google/uuid"

	"github.com/kpekel-oss/dagflow/pkg/workflow"
)

// New builds a Checkpoint from a state snapshot at the end of layer.
func New(state workflow.WorkflowState, layer int, timestamp time.Time) workflow.Checkpoint {
	return workflow.Checkpoint{
		ID:         uuid.NewString(),
		WorkflowID: state.WorkflowID,
		Layer:      layer,
		Timestamp:  timestamp,
		State:      state,
	}
}
