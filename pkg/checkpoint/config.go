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
	"fmt"
	"time"
)

// Config configures checkpoint retention and pruning behavior.
//
// Example YAML configuration:
//
//	checkpoint:
//	  max_per_workflow: 20
//	  max_age_hours: 24
type Config struct {
	// MaxPerWorkflow bounds how many checkpoints a single workflow retains;
	// the oldest are pruned once the limit is exceeded.
	// Default: 20
	MaxPerWorkflow int `yaml:"max_per_workflow,omitempty"`

	// MaxAgeHours prunes checkpoints older than this many hours, regardless
	// of MaxPerWorkflow. 0 disables age-based pruning.
	// Default: 0 (disabled)
	MaxAgeHours int `yaml:"max_age_hours,omitempty"`
}

// SetDefaults applies default values.
func (c *Config) SetDefaults() {
	if c.MaxPerWorkflow == 0 {
		c.MaxPerWorkflow = 20
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.MaxPerWorkflow < 0 {
		return fmt.Errorf("checkpoint max_per_workflow must be non-negative")
	}
	if c.MaxAgeHours < 0 {
		return fmt.Errorf("checkpoint max_age_hours must be non-negative")
	}
	return nil
}

// MaxAge returns MaxAgeHours as a Duration, or 0 if age-based pruning is
// disabled.
func (c *Config) MaxAge() time.Duration {
	if c == nil || c.MaxAgeHours <= 0 {
		return 0
	}
	return time.Duration(c.MaxAgeHours) * time.Hour
}
