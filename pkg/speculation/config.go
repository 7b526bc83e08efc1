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

package speculation

import "fmt"

// confidenceMin and confidenceMax are ADR-006's bounds for any configured
// confidence threshold.
const (
	confidenceMin = 0.40
	confidenceMax = 0.90
)

// AdaptiveConfig configures a confidence threshold that moves between
// MinThreshold and MaxThreshold based on observed hit/miss feedback.
type AdaptiveConfig struct {
	Enabled      bool    `yaml:"enabled"`
	MinThreshold float64 `yaml:"min_threshold"`
	MaxThreshold float64 `yaml:"max_threshold"`
}

// YAMLConfig is the YAML-facing speculation configuration.
type YAMLConfig struct {
	Enabled                   bool           `yaml:"enabled"`
	ConfidenceThreshold       float64        `yaml:"confidence_threshold"`
	MaxConcurrentSpeculations int            `yaml:"max_concurrent_speculations"`
	SpeculationTimeoutMs      int            `yaml:"speculation_timeout"`
	Adaptive                  AdaptiveConfig `yaml:"adaptive"`
}

// SetDefaults applies the documented defaults.
func (c *YAMLConfig) SetDefaults() {
	if c.ConfidenceThreshold == 0 {
		c.ConfidenceThreshold = 0.70
	}
	if c.MaxConcurrentSpeculations == 0 {
		c.MaxConcurrentSpeculations = 3
	}
	if c.SpeculationTimeoutMs == 0 {
		c.SpeculationTimeoutMs = 30_000
	}
}

// Validate enforces the confidence acceptance gate and its bounds, failing
// config load (not a runtime decision) on violation.
func (c *YAMLConfig) Validate() error {
	if c.ConfidenceThreshold < confidenceMin || c.ConfidenceThreshold > confidenceMax {
		return fmt.Errorf("speculation: confidence_threshold %.2f outside [%.2f, %.2f]", c.ConfidenceThreshold, confidenceMin, confidenceMax)
	}
	if c.MaxConcurrentSpeculations < 1 || c.MaxConcurrentSpeculations > 10 {
		return fmt.Errorf("speculation: max_concurrent_speculations %d outside [1, 10]", c.MaxConcurrentSpeculations)
	}
	if c.SpeculationTimeoutMs < 1 || c.SpeculationTimeoutMs > 300_000 {
		return fmt.Errorf("speculation: speculation_timeout %dms outside [1, 300000]", c.SpeculationTimeoutMs)
	}
	if c.Adaptive.Enabled {
		if c.Adaptive.MinThreshold < confidenceMin || c.Adaptive.MinThreshold > confidenceMax {
			return fmt.Errorf("speculation: adaptive.min_threshold %.2f outside [%.2f, %.2f]", c.Adaptive.MinThreshold, confidenceMin, confidenceMax)
		}
		if c.Adaptive.MaxThreshold < confidenceMin || c.Adaptive.MaxThreshold > confidenceMax {
			return fmt.Errorf("speculation: adaptive.max_threshold %.2f outside [%.2f, %.2f]", c.Adaptive.MaxThreshold, confidenceMin, confidenceMax)
		}
		if c.Adaptive.MinThreshold >= c.Adaptive.MaxThreshold {
			return fmt.Errorf("speculation: adaptive.min_threshold must be < max_threshold")
		}
	}
	return nil
}

// ShouldSpeculate reports whether confidence clears the configured gate.
func (c *YAMLConfig) ShouldSpeculate(confidence float64) bool {
	return c.Enabled && confidence >= c.ConfidenceThreshold
}
