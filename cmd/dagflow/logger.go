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

package main

import (
	"os"

	"github.com/kpekel-oss/dagflow/pkg/logger"
)

// initLogger installs the process-wide slog handler at the requested level
// before anything else runs.
func initLogger(level string) {
	lvl, _ := logger.ParseLevel(level)
	logger.Init(lvl, os.Stderr, "simple")
}
