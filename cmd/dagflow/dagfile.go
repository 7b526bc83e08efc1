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
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kpekel-oss/dagflow/pkg/workflow"
)

// yamlArgument is the on-disk shape of an ArgumentValue: a mapping with
// exactly one of the keys literal, parameter, or reference. Reference wins
// over parameter, and an argument with neither becomes a literal (nil when
// the literal key is absent). A bare scalar or list is not accepted and
// fails parsing of the file.
type yamlArgument struct {
	Literal   any    `yaml:"literal,omitempty"`
	Parameter string `yaml:"parameter,omitempty"`
	Reference string `yaml:"reference,omitempty"`
}

func (a yamlArgument) toArgumentValue() workflow.ArgumentValue {
	switch {
	case a.Reference != "":
		return workflow.Ref(a.Reference)
	case a.Parameter != "":
		return workflow.Param(a.Parameter)
	default:
		return workflow.Lit(a.Literal)
	}
}

type yamlTask struct {
	ID        string                  `yaml:"id"`
	Tool      string                  `yaml:"tool"`
	Type      string                  `yaml:"type,omitempty"`
	Code      string                  `yaml:"code,omitempty"`
	Intent    string                  `yaml:"intent,omitempty"`
	DependsOn []string                `yaml:"depends_on,omitempty"`
	Arguments map[string]yamlArgument `yaml:"arguments,omitempty"`
}

type yamlDAG struct {
	WorkflowID string     `yaml:"workflow_id"`
	Tasks      []yamlTask `yaml:"tasks"`
}

// loadDAGFile parses a YAML workflow definition into a workflow.DAG, plus
// the workflowID it names.
func loadDAGFile(path string) (workflow.DAG, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return workflow.DAG{}, "", fmt.Errorf("dagflow: reading %s: %w", path, err)
	}

	var doc yamlDAG
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return workflow.DAG{}, "", fmt.Errorf("dagflow: parsing %s: %w", path, err)
	}

	dag := workflow.DAG{Tasks: make([]workflow.Task, 0, len(doc.Tasks))}
	for _, yt := range doc.Tasks {
		args := make(map[string]workflow.ArgumentValue, len(yt.Arguments))
		for name, a := range yt.Arguments {
			args[name] = a.toArgumentValue()
		}
		t := workflow.Task{
			ID:        yt.ID,
			Tool:      yt.Tool,
			Arguments: args,
			DependsOn: yt.DependsOn,
			Code:      yt.Code,
			Intent:    yt.Intent,
		}
		if yt.Type == string(workflow.TaskTypeCodeExecution) {
			t.Type = workflow.TaskTypeCodeExecution
		}
		dag.Tasks = append(dag.Tasks, t)
	}

	if err := dag.Validate(); err != nil {
		return workflow.DAG{}, "", err
	}
	return dag, doc.WorkflowID, nil
}
