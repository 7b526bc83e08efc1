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
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"gopkg.in/yaml.v3"

	"github.com/kpekel-oss/dagflow/pkg/checkpoint"
	"github.com/kpekel-oss/dagflow/pkg/command"
	"github.com/kpekel-oss/dagflow/pkg/config"
	"github.com/kpekel-oss/dagflow/pkg/event"
	"github.com/kpekel-oss/dagflow/pkg/ratelimit"
	"github.com/kpekel-oss/dagflow/pkg/runner"
	"github.com/kpekel-oss/dagflow/pkg/scheduler"
	"github.com/kpekel-oss/dagflow/pkg/speculation"
	"github.com/kpekel-oss/dagflow/pkg/tool"
	"github.com/kpekel-oss/dagflow/pkg/workflow"
)

// RunCmd executes a DAG file to completion against an echo tool invoker
// (no real MCP transport is wired into this binary; cmd/dagflow is a
// reference driver for the core, not a production executor).
type RunCmd struct {
	DAG    string `arg:"" help:"Path to a DAG YAML file." type:"path"`
	Config string `short:"c" help:"Path to an executor config YAML file." type:"path"`
}

func (c *RunCmd) Run(cli *CLI) error {
	initLogger(cli.LogLevel)

	dag, workflowID, err := loadDAGFile(c.DAG)
	if err != nil {
		return err
	}
	if workflowID == "" {
		workflowID = "dagflow-run"
	}

	cfg, err := loadExecutorConfig(c.Config)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		slog.Info("shutting down")
		cancel()
	}()

	stream := event.New()
	events := stream.Subscribe(ctx)
	go logEvents(events)

	limiter := ratelimit.NewToolLimiter(ratelimit.ToolLimiterConfig{RatePerSecond: 10, Burst: 10})
	specs := speculation.New(speculation.DefaultConfig(), speculation.InProcessSandbox{Invoke: echoInvoke})
	defer specs.Destroy()

	run := runner.New(runner.Config{TaskTimeout: cfg.TaskTimeout()}, tool.InvokerFunc(echoInvoke), limiter, specs, stream.Emit)

	store := checkpoint.NewMemoryStore()
	defer store.Close()

	sched := scheduler.New(cfg, run, command.New(), stream, store)

	final, err := sched.Execute(ctx, dag, workflow.NewWorkflowState(workflowID))
	stream.Close()
	if err != nil {
		return fmt.Errorf("dagflow: execution failed: %w", err)
	}

	successful, failed, skipped := 0, 0, 0
	for _, r := range final.Tasks {
		switch r.Status {
		case workflow.TaskStatusSuccess:
			successful++
		case workflow.TaskStatusError:
			failed++
		case workflow.TaskStatusSkipped:
			skipped++
		}
	}
	fmt.Printf("\nworkflow %s complete: %d succeeded, %d failed, %d skipped\n", final.WorkflowID, successful, failed, skipped)
	return nil
}

// echoInvoke is the stub tool invoker cmd/dagflow runs against: it echoes
// its resolved arguments back as output, useful for exercising a DAG's
// dependency and reference-resolution shape without a real MCP server.
func echoInvoke(ctx context.Context, toolID string, arguments map[string]any) (any, error) {
	return arguments, nil
}

func logEvents(events <-chan workflow.ExecutionEvent) {
	for ev := range events {
		switch ev.Type {
		case workflow.EventTaskError:
			slog.Error("task error", "task_id", ev.TaskID, "tool", ev.Tool, "error", ev.Error, "recoverable", ev.Recoverable)
		case workflow.EventTaskComplete:
			slog.Info("task complete", "task_id", ev.TaskID, "tool", ev.Tool, "ms", ev.ExecutionTimeMs, "speculative_hit", ev.SpeculativeHit)
		case workflow.EventLayerStart:
			slog.Info("layer start", "layer", ev.LayerIndex, "tasks", ev.TasksCount)
		case workflow.EventCheckpoint:
			slog.Info("checkpoint saved", "checkpoint_id", ev.CheckpointID)
		case workflow.EventDecisionRequired:
			slog.Warn("decision required", "type", ev.DecisionType, "description", ev.Description)
		default:
			slog.Debug(string(ev.Type))
		}
	}
}

func loadExecutorConfig(path string) (config.ExecutorConfig, error) {
	var cfg config.ExecutorConfig
	if path == "" {
		cfg.SetDefaults()
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("dagflow: reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("dagflow: parsing config %s: %w", path, err)
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("dagflow: invalid config: %w", err)
	}
	return cfg, nil
}
