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

// Command dagflow is a reference CLI driver for the DAG workflow execution
// core.
//
// Usage:
//
//	dagflow run workflow.yaml --config executor.yaml
//	dagflow validate workflow.yaml
package main

import (
	"github.com/alecthomas/kong"
)

// CLI defines the command-line interface.
type CLI struct {
	Run      RunCmd      `cmd:"" help:"Execute a DAG file to completion."`
	Validate ValidateCmd `cmd:"" help:"Validate a DAG file without running it."`

	LogLevel string `help:"Log level (debug, info, warn, error)." default:"info"`
}

func main() {
	cli := CLI{}
	ctx := kong.Parse(&cli,
		kong.Name("dagflow"),
		kong.Description("Controlled DAG workflow execution core"),
		kong.UsageOnError(),
	)
	ctx.FatalIfErrorf(ctx.Run(&cli))
}
