package tool

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_InvokeDispatchesToHandler(t *testing.T) {
	r := NewRegistry()
	r.Register("fs:read", func(ctx context.Context, toolID string, args map[string]any) (any, error) {
		return map[string]any{"path": args["path"]}, nil
	})

	out, err := r.Invoke(context.Background(), "fs:read", map[string]any{"path": "/tmp/a"})
	require.NoError(t, err)
	assert.Equal(t, "/tmp/a", out.(map[string]any)["path"])
}

func TestRegistry_InvokeUnregisteredToolReturnsToolError(t *testing.T) {
	r := NewRegistry()
	_, err := r.Invoke(context.Background(), "fs:read", nil)
	require.Error(t, err)
	var te *ToolError
	assert.ErrorAs(t, err, &te)
}

func TestRegistry_InvokeWrapsHandlerError(t *testing.T) {
	r := NewRegistry()
	r.Register("fs:read", func(ctx context.Context, toolID string, args map[string]any) (any, error) {
		return nil, errors.New("boom")
	})

	_, err := r.Invoke(context.Background(), "fs:read", nil)
	require.Error(t, err)
	var te *ToolError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "fs:read", te.ToolID)
}
