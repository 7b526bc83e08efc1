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

import "fmt"

// ValidateCmd checks a DAG file's referential integrity without running it.
type ValidateCmd struct {
	DAG string `arg:"" help:"Path to a DAG YAML file." type:"path"`
}

func (c *ValidateCmd) Run(cli *CLI) error {
	dag, workflowID, err := loadDAGFile(c.DAG)
	if err != nil {
		return err
	}
	fmt.Printf("%s: %d tasks, valid\n", workflowID, len(dag.Tasks))
	return nil
}
