package command

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kpekel-oss/dagflow/pkg/workflow"
)

func TestQueue_EnqueueRejectsInvalidCommand(t *testing.T) {
	q := New()
	err := q.Enqueue(workflow.Command{Type: workflow.CommandAbort})
	require.Error(t, err)
	assert.Equal(t, 0, q.Len())
	assert.Equal(t, int64(1), q.Stats().Rejected)
}

func TestQueue_DrainReturnsInFIFOOrder(t *testing.T) {
	q := New()
	require.NoError(t, q.Enqueue(workflow.Command{Type: workflow.CommandSkipLayer, LayerIndex: 1}))
	require.NoError(t, q.Enqueue(workflow.Command{Type: workflow.CommandSkipLayer, LayerIndex: 2}))

	drained := q.Drain()
	require.Len(t, drained, 2)
	assert.Equal(t, 1, drained[0].LayerIndex)
	assert.Equal(t, 2, drained[1].LayerIndex)

	assert.Nil(t, q.Drain(), "second drain on an empty queue returns nil")
	assert.Equal(t, int64(2), q.Stats().Drained)
}

func TestQueue_ConcurrentEnqueueIsSafe(t *testing.T) {
	q := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_ = q.Enqueue(workflow.Command{Type: workflow.CommandSkipLayer, LayerIndex: n})
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 50, q.Len())
	assert.Equal(t, int64(50), q.Stats().Enqueued)
}
