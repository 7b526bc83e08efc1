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

// Package logger installs the process-wide structured logger used by
// cmd/dagflow and every pkg/* component that logs through slog's default
// logger.
package logger

import (
	"log/slog"
	"os"
	"strings"
)

// ParseLevel converts a string log level to slog.Level. Valid levels:
// debug, info, warn, error. Anything else defaults to warn.
func ParseLevel(levelStr string) (slog.Level, error) {
	switch strings.ToLower(levelStr) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelWarn, nil
	}
}

// Init installs a slog.TextHandler at level writing to output as the
// process default logger. format is accepted for CLI-flag compatibility but
// otherwise unused: the core has no ANSI/terminal-formatting needs of its
// own.
func Init(level slog.Level, output *os.File, format string) {
	_ = format
	handler := slog.NewTextHandler(output, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}
