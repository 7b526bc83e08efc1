package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecutorConfig_SetDefaults(t *testing.T) {
	c := ExecutorConfig{}
	c.SetDefaults()

	assert.Equal(t, 30_000, c.TaskTimeoutMs)
	assert.Equal(t, AILNever, c.AIL.DecisionPoints)
	assert.Equal(t, HILNever, c.HIL.ApprovalRequired)
	assert.Equal(t, 20, c.Checkpoint.MaxPerWorkflow)
	assert.Equal(t, 0.70, c.Speculation.ConfidenceThreshold)
}

func TestExecutorConfig_ValidateRejectsBadPolicy(t *testing.T) {
	c := ExecutorConfig{}
	c.SetDefaults()
	c.AIL.DecisionPoints = "sometimes"
	require.Error(t, c.Validate())
}

func TestExecutorConfig_ValidatePropagatesNestedErrors(t *testing.T) {
	c := ExecutorConfig{}
	c.SetDefaults()
	c.Speculation.ConfidenceThreshold = 0.1
	require.Error(t, c.Validate())
}

func TestExecutorConfig_TaskTimeout(t *testing.T) {
	c := ExecutorConfig{TaskTimeoutMs: 5000}
	assert.Equal(t, 5000, int(c.TaskTimeout().Milliseconds()))
}
