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

package config

import (
	"fmt"
	"time"

	"github.com/kpekel-oss/dagflow/pkg/checkpoint"
	"github.com/kpekel-oss/dagflow/pkg/speculation"
)

// AILPolicy is the agent-in-the-loop decision policy.
type AILPolicy string

const (
	AILNever    AILPolicy = "never"
	AILPerLayer AILPolicy = "per_layer"
	AILOnError  AILPolicy = "on_error"
)

// HILPolicy is the human-in-the-loop decision policy.
type HILPolicy string

const (
	HILNever   HILPolicy = "never"
	HILAlways  HILPolicy = "always"
	HILOnError HILPolicy = "on_error"
)

// AILConfig configures agent-in-the-loop decision points.
type AILConfig struct {
	Enabled        bool      `yaml:"enabled"`
	DecisionPoints AILPolicy `yaml:"decision_points"`
}

// HILConfig configures human-in-the-loop decision points.
type HILConfig struct {
	Enabled          bool      `yaml:"enabled"`
	ApprovalRequired HILPolicy `yaml:"approval_required"`
}

// ExecutorConfig is the top-level scheduler/runner configuration, following
// the same SetDefaults/Validate pairing as the nested checkpoint.Config and
// speculation.YAMLConfig sections.
type ExecutorConfig struct {
	// MaxConcurrency bounds tasks dispatched concurrently within one layer.
	// 0 means unbounded.
	MaxConcurrency int `yaml:"max_concurrency"`

	// TaskTimeoutMs bounds a single tool invocation. Default 30000.
	TaskTimeoutMs int `yaml:"task_timeout_ms"`

	// Verbose enables additional diagnostic logging.
	Verbose bool `yaml:"verbose"`

	AIL AILConfig `yaml:"ail"`
	HIL HILConfig `yaml:"hil"`

	// UserID names the user a run belongs to. It is carried in the
	// configuration only; neither rate limiting nor checkpointing reads it.
	UserID string `yaml:"user_id"`

	Checkpoint  checkpoint.Config      `yaml:"checkpoint"`
	Speculation speculation.YAMLConfig `yaml:"speculation"`
}

// SetDefaults applies defaults to every nested section.
func (c *ExecutorConfig) SetDefaults() {
	if c.TaskTimeoutMs == 0 {
		c.TaskTimeoutMs = 30_000
	}
	if c.AIL.DecisionPoints == "" {
		c.AIL.DecisionPoints = AILNever
	}
	if c.HIL.ApprovalRequired == "" {
		c.HIL.ApprovalRequired = HILNever
	}
	c.Checkpoint.SetDefaults()
	c.Speculation.SetDefaults()
}

// Validate validates every nested section and returns the first error
// found.
func (c *ExecutorConfig) Validate() error {
	if c.MaxConcurrency < 0 {
		return fmt.Errorf("executor: max_concurrency must be non-negative")
	}
	if c.TaskTimeoutMs <= 0 {
		return fmt.Errorf("executor: task_timeout_ms must be positive")
	}
	switch c.AIL.DecisionPoints {
	case "", AILNever, AILPerLayer, AILOnError:
	default:
		return fmt.Errorf("executor: invalid ail.decision_points %q", c.AIL.DecisionPoints)
	}
	switch c.HIL.ApprovalRequired {
	case "", HILNever, HILAlways, HILOnError:
	default:
		return fmt.Errorf("executor: invalid hil.approval_required %q", c.HIL.ApprovalRequired)
	}
	if err := c.Checkpoint.Validate(); err != nil {
		return fmt.Errorf("executor: %w", err)
	}
	if err := c.Speculation.Validate(); err != nil {
		return fmt.Errorf("executor: %w", err)
	}
	return nil
}

// TaskTimeout returns TaskTimeoutMs as a Duration.
func (c *ExecutorConfig) TaskTimeout() time.Duration {
	return time.Duration(c.TaskTimeoutMs) * time.Millisecond
}
