package runner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kpekel-oss/dagflow/pkg/ratelimit"
	"github.com/kpekel-oss/dagflow/pkg/resolver"
	"github.com/kpekel-oss/dagflow/pkg/speculation"
	"github.com/kpekel-oss/dagflow/pkg/tool"
	"github.com/kpekel-oss/dagflow/pkg/workflow"
)

func allFound(failed map[string]bool) DependencyStatus {
	return func(taskID string) (bool, bool) {
		f, ok := failed[taskID]
		if !ok {
			return true, false
		}
		return true, f
	}
}

func TestRunTask_SuccessEmitsStartAndComplete(t *testing.T) {
	var events []workflow.ExecutionEvent
	invoker := tool.InvokerFunc(func(ctx context.Context, toolID string, args map[string]any) (any, error) {
		return "ok", nil
	})
	r := New(Config{}, invoker, nil, nil, func(e workflow.ExecutionEvent) { events = append(events, e) })

	task := workflow.Task{ID: "t1", Tool: "fs:read", Arguments: map[string]workflow.ArgumentValue{"path": workflow.Lit("/a")}}
	res := r.RunTask(context.Background(), task, resolver.Scope{}, allFound(nil), "wf-1")

	assert.Equal(t, workflow.TaskStatusSuccess, res.Status)
	assert.Equal(t, "ok", res.Output)
	require.Len(t, events, 2)
	assert.Equal(t, workflow.EventTaskStart, events[0].Type)
	assert.Equal(t, workflow.EventTaskComplete, events[1].Type)
}

func TestRunTask_DependencyFailedIsRecoverable(t *testing.T) {
	invoker := tool.InvokerFunc(func(ctx context.Context, toolID string, args map[string]any) (any, error) {
		t.Fatal("invoker should not be called when a dependency failed")
		return nil, nil
	})
	r := New(Config{}, invoker, nil, nil, nil)

	task := workflow.Task{ID: "t2", Tool: "fs:read", DependsOn: []string{"t1"}}
	res := r.RunTask(context.Background(), task, resolver.Scope{}, allFound(map[string]bool{"t1": true}), "wf-1")

	assert.Equal(t, workflow.TaskStatusError, res.Status)
	assert.True(t, res.Recoverable)
}

func TestRunTask_ToolErrorIsRecoverable(t *testing.T) {
	invoker := tool.InvokerFunc(func(ctx context.Context, toolID string, args map[string]any) (any, error) {
		return nil, errors.New("boom")
	})
	r := New(Config{}, invoker, nil, nil, nil)

	task := workflow.Task{ID: "t1", Tool: "fs:read"}
	res := r.RunTask(context.Background(), task, resolver.Scope{}, allFound(nil), "wf-1")

	assert.Equal(t, workflow.TaskStatusError, res.Status)
	assert.True(t, res.Recoverable)
	assert.Contains(t, res.Error, "boom")
}

func TestRunTask_TimeoutClassifiedAsTimeoutError(t *testing.T) {
	invoker := tool.InvokerFunc(func(ctx context.Context, toolID string, args map[string]any) (any, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	r := New(Config{TaskTimeout: 20 * time.Millisecond}, invoker, nil, nil, nil)

	task := workflow.Task{ID: "t1", Tool: "fs:read"}
	res := r.RunTask(context.Background(), task, resolver.Scope{}, allFound(nil), "wf-1")

	assert.Equal(t, workflow.TaskStatusError, res.Status)
	assert.True(t, res.Recoverable)
	assert.Contains(t, res.Error, "exceeded timeout")
}

func TestRunTask_SpeculationHitSkipsInvoker(t *testing.T) {
	invoker := tool.InvokerFunc(func(ctx context.Context, toolID string, args map[string]any) (any, error) {
		t.Fatal("invoker should not be called on a speculation hit")
		return nil, nil
	})
	specs := speculation.New(speculation.DefaultConfig(), speculation.InProcessSandbox{
		Invoke: func(ctx context.Context, toolID string, args map[string]any) (any, error) {
			return "speculated", nil
		},
	})
	specs.StartSpeculations(context.Background(), []speculation.Prediction{{ToolID: "fs:read", Confidence: 0.9}})

	deadline := time.After(time.Second)
	for {
		if _, ok := specs.CheckCache("fs:read"); ok {
			break
		}
		select {
		case <-deadline:
			t.Fatal("speculation never populated cache")
		case <-time.After(5 * time.Millisecond):
		}
	}

	r := New(Config{}, invoker, nil, specs, nil)
	task := workflow.Task{ID: "t1", Tool: "fs:read"}
	res := r.RunTask(context.Background(), task, resolver.Scope{}, allFound(nil), "wf-1")

	assert.Equal(t, workflow.TaskStatusSuccess, res.Status)
	assert.Equal(t, "speculated", res.Output)
	assert.True(t, res.SpeculativeHit)
}

func TestRunTask_RateLimiterGatesInvocation(t *testing.T) {
	var invoked int
	invoker := tool.InvokerFunc(func(ctx context.Context, toolID string, args map[string]any) (any, error) {
		invoked++
		return "ok", nil
	})
	limiter := ratelimit.NewToolLimiter(ratelimit.ToolLimiterConfig{RatePerSecond: 1000, Burst: 1})
	r := New(Config{}, invoker, limiter, nil, nil)

	task := workflow.Task{ID: "t1", Tool: "fs:read"}
	res1 := r.RunTask(context.Background(), task, resolver.Scope{}, allFound(nil), "wf-1")
	res2 := r.RunTask(context.Background(), task, resolver.Scope{}, allFound(nil), "wf-1")

	assert.Equal(t, workflow.TaskStatusSuccess, res1.Status)
	assert.Equal(t, workflow.TaskStatusSuccess, res2.Status)
	assert.Equal(t, 2, invoked)
}
