package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kpekel-oss/dagflow/pkg/workflow"
)

func TestUpdateState_AppendsAndMerges(t *testing.T) {
	s := workflow.NewWorkflowState("wf-1")

	s2, err := UpdateState(s, Update{
		Tasks:   []workflow.TaskResult{{TaskID: "t1", Status: workflow.TaskStatusSuccess}},
		Context: map[string]any{"a": 1},
	})
	require.NoError(t, err)
	assert.Len(t, s2.Tasks, 1)
	assert.Equal(t, 1, s2.Context["a"])

	// Original state is untouched.
	assert.Len(t, s.Tasks, 0)
	assert.Nil(t, s.Context["a"])

	layer := 2
	s3, err := UpdateState(s2, Update{
		Decisions:    []workflow.Decision{{Type: workflow.DecisionAIL, Outcome: workflow.DecisionOutcomeContinue}},
		CurrentLayer: &layer,
		Context:      map[string]any{"a": 2, "b": "x"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, s3.CurrentLayer)
	assert.Len(t, s3.Decisions, 1)
	assert.Equal(t, 2, s3.Context["a"]) // update wins on conflict
	assert.Equal(t, "x", s3.Context["b"])
}

func TestUpdateState_RejectsInvariantViolation(t *testing.T) {
	s := workflow.NewWorkflowState("wf-1")

	// tasks.length must be >= decisions.length
	_, err := UpdateState(s, Update{
		Decisions: []workflow.Decision{{Type: workflow.DecisionHIL}},
	})
	require.Error(t, err)
	var viol *workflow.ErrStateInvariantViolation
	assert.ErrorAs(t, err, &viol)
}

func TestUpdateState_EmptyWorkflowIDRejected(t *testing.T) {
	s := workflow.WorkflowState{Context: map[string]any{}}
	_, err := UpdateState(s, Update{})
	require.Error(t, err)
}

func TestGetStateSnapshot_IsIndependentCopy(t *testing.T) {
	s := workflow.NewWorkflowState("wf-1")
	s.Tasks = append(s.Tasks, workflow.TaskResult{TaskID: "t1"})

	snap := GetStateSnapshot(s)
	snap.Tasks[0].TaskID = "mutated"

	assert.Equal(t, "t1", s.Tasks[0].TaskID)
}
