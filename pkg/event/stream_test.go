package event

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kpekel-oss/dagflow/pkg/workflow"
)

func drain(t *testing.T, ch <-chan workflow.ExecutionEvent, n int, timeout time.Duration) []workflow.ExecutionEvent {
	t.Helper()
	out := make([]workflow.ExecutionEvent, 0, n)
	deadline := time.After(timeout)
	for len(out) < n {
		select {
		case ev, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, ev)
		case <-deadline:
			t.Fatalf("timed out waiting for %d events, got %d", n, len(out))
		}
	}
	return out
}

func TestStream_SubscribeReceivesEventsInOrder(t *testing.T) {
	s := New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := s.Subscribe(ctx)

	s.Emit(workflow.ExecutionEvent{Type: workflow.EventLayerStart, LayerIndex: 0})
	s.Emit(workflow.ExecutionEvent{Type: workflow.EventLayerStart, LayerIndex: 1})

	got := drain(t, ch, 2, time.Second)
	assert.Equal(t, 0, got[0].LayerIndex)
	assert.Equal(t, 1, got[1].LayerIndex)
}

func TestStream_MultipleSubscribersEachGetAllEvents(t *testing.T) {
	s := New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch1 := s.Subscribe(ctx)
	ch2 := s.Subscribe(ctx)

	s.Emit(workflow.ExecutionEvent{Type: workflow.EventTaskStart, TaskID: "t1"})

	got1 := drain(t, ch1, 1, time.Second)
	got2 := drain(t, ch2, 1, time.Second)
	assert.Equal(t, "t1", got1[0].TaskID)
	assert.Equal(t, "t1", got2[0].TaskID)

	stats := s.GetStats()
	assert.Equal(t, 2, stats.Subscribers)
	assert.Equal(t, int64(1), stats.TotalEvents)
}

func TestStream_CloseTerminatesSubscriberChannel(t *testing.T) {
	s := New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := s.Subscribe(ctx)
	s.Emit(workflow.ExecutionEvent{Type: workflow.EventTaskStart, TaskID: "t1"})
	s.Close()

	got := drain(t, ch, 1, time.Second)
	require.Len(t, got, 1)

	_, ok := <-ch
	assert.False(t, ok, "channel should be closed after Close drains buffered events")

	// Emitting after Close is a no-op.
	s.Emit(workflow.ExecutionEvent{Type: workflow.EventTaskStart, TaskID: "t2"})
	assert.Equal(t, int64(1), s.GetStats().TotalEvents)
}

func TestStream_BoundedDropsOldest(t *testing.T) {
	s := NewBounded(2)

	s.Emit(workflow.ExecutionEvent{Type: workflow.EventTaskStart, TaskID: "t1"})
	s.Emit(workflow.ExecutionEvent{Type: workflow.EventTaskStart, TaskID: "t2"})
	s.Emit(workflow.ExecutionEvent{Type: workflow.EventTaskStart, TaskID: "t3"})

	stats := s.GetStats()
	assert.Equal(t, int64(1), stats.DroppedEvents)
	assert.Equal(t, int64(3), stats.TotalEvents)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := s.Subscribe(ctx)
	s.Emit(workflow.ExecutionEvent{Type: workflow.EventTaskStart, TaskID: "t4"})
	got := drain(t, ch, 1, time.Second)
	assert.Equal(t, "t4", got[0].TaskID)
}

func TestStream_SubscribeCancelReleasesGoroutine(t *testing.T) {
	s := New()
	ctx, cancel := context.WithCancel(context.Background())
	ch := s.Subscribe(ctx)
	cancel()

	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("subscriber channel did not close after context cancellation")
	}
}
