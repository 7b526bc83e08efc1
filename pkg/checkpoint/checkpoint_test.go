package checkpoint

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kpekel-oss/dagflow/pkg/workflow"
)

func TestMemoryStore_SaveLoadRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	state := workflow.NewWorkflowState("wf-1")
	cp := New(state, 0, time.Now())

	require.NoError(t, store.Save(ctx, cp))

	loaded, err := store.Load(ctx, "wf-1", cp.ID)
	require.NoError(t, err)
	assert.Equal(t, cp.ID, loaded.ID)
	assert.Equal(t, "wf-1", loaded.WorkflowID)
}

func TestMemoryStore_LoadMissingReturnsNotFound(t *testing.T) {
	store := NewMemoryStore()
	_, err := store.Load(context.Background(), "wf-1", "nope")
	require.Error(t, err)
	var notFound *NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestMemoryStore_SaveOverwritesSameID(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	state := workflow.NewWorkflowState("wf-1")
	cp := New(state, 0, time.Now())
	cp.ID = "fixed-id"

	require.NoError(t, store.Save(ctx, cp))
	cp.Layer = 3
	require.NoError(t, store.Save(ctx, cp))

	list, err := store.List(ctx, "wf-1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 3, list[0].Layer)
}

func TestMemoryStore_ListOrdersByTimestamp(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	state := workflow.NewWorkflowState("wf-1")

	now := time.Now()
	cp1 := New(state, 0, now)
	cp2 := New(state, 1, now.Add(time.Second))
	require.NoError(t, store.Save(ctx, cp2))
	require.NoError(t, store.Save(ctx, cp1))

	list, err := store.List(ctx, "wf-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, 0, list[0].Layer)
	assert.Equal(t, 1, list[1].Layer)
}

func TestMemoryStore_PruneByMaxPerWorkflow(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	state := workflow.NewWorkflowState("wf-1")

	now := time.Now()
	for i := 0; i < 5; i++ {
		cp := New(state, i, now.Add(time.Duration(i)*time.Second))
		require.NoError(t, store.Save(ctx, cp))
	}

	removed, err := store.Prune(ctx, "wf-1", Config{MaxPerWorkflow: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, removed)

	list, err := store.List(ctx, "wf-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, 3, list[0].Layer)
	assert.Equal(t, 4, list[1].Layer)
}

func TestMemoryStore_PruneByMaxAge(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	state := workflow.NewWorkflowState("wf-1")

	old := New(state, 0, time.Now().Add(-48*time.Hour))
	fresh := New(state, 1, time.Now())
	require.NoError(t, store.Save(ctx, old))
	require.NoError(t, store.Save(ctx, fresh))

	removed, err := store.Prune(ctx, "wf-1", Config{MaxAgeHours: 24})
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	list, err := store.List(ctx, "wf-1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, fresh.ID, list[0].ID)
}

func TestEnvelope_RoundTripAndCorruption(t *testing.T) {
	state := workflow.NewWorkflowState("wf-1")
	cp := New(state, 2, time.Now())

	data, err := serialize(cp)
	require.NoError(t, err)

	roundTripped, err := deserialize(cp.ID, data)
	require.NoError(t, err)
	assert.Equal(t, cp.WorkflowID, roundTripped.WorkflowID)
	assert.Equal(t, cp.Layer, roundTripped.Layer)

	_, err = deserialize("bad-id", []byte("not json"))
	require.Error(t, err)
	var corrupted *CorruptedCheckpointError
	assert.ErrorAs(t, err, &corrupted)
}

func TestConfig_SetDefaultsAndValidate(t *testing.T) {
	cfg := Config{}
	cfg.SetDefaults()
	assert.Equal(t, 20, cfg.MaxPerWorkflow)
	assert.NoError(t, cfg.Validate())

	bad := Config{MaxPerWorkflow: -1}
	assert.Error(t, bad.Validate())
}
