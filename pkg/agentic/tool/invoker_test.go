package tool

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usherbot/usher/pkg/agentic/types"
)

func echoTool() Tool {
	params := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"text": map[string]any{"type": "string"},
		},
		"required": []any{"text"},
	}
	return Define("echo", "Echo the given text.", params, func(ctx context.Context, args string) (string, error) {
		return args, nil
	})
}

func newTestInvoker(t *testing.T, tools ...Tool) *Invoker {
	t.Helper()
	inv, err := NewInvoker(NewRegistry(tools...))
	require.NoError(t, err)
	return inv
}

func TestInvokeCompletesRecord(t *testing.T) {
	inv := newTestInvoker(t, echoTool())

	record, err := inv.Invoke(context.Background(), types.ToolCall{
		ID:        "call-1",
		Name:      "echo",
		Arguments: map[string]any{"text": "hello"},
	})

	require.NoError(t, err)
	assert.Equal(t, types.CallCompleted, record.Status)
	assert.Equal(t, "echo", record.Name)
	assert.Contains(t, record.Output, "hello")
	assert.NotEmpty(t, record.ID)
	assert.False(t, record.CompletedAt.IsZero())
}

func TestInvokeUnknownTool(t *testing.T) {
	inv := newTestInvoker(t, echoTool())

	record, err := inv.Invoke(context.Background(), types.ToolCall{Name: "teleport"})

	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrUnknownTool)
	assert.Equal(t, types.CallFailed, record.Status)
	assert.Contains(t, record.Error, "teleport")
}

func TestInvokeSchemaViolation(t *testing.T) {
	inv := newTestInvoker(t, echoTool())

	record, err := inv.Invoke(context.Background(), types.ToolCall{
		Name:      "echo",
		Arguments: map[string]any{"text": 42},
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrSchemaViolation)
	assert.Equal(t, types.CallFailed, record.Status)
}

func TestInvokeMissingRequiredArgument(t *testing.T) {
	inv := newTestInvoker(t, echoTool())

	_, err := inv.Invoke(context.Background(), types.ToolCall{
		Name:      "echo",
		Arguments: map[string]any{},
	})

	assert.ErrorIs(t, err, types.ErrSchemaViolation)
}

func TestInvokeTimeoutBecomesFailedRecord(t *testing.T) {
	slow := Define("slow", "Never finishes in time.", nil, func(ctx context.Context, args string) (string, error) {
		select {
		case <-time.After(5 * time.Second):
			return "done", nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	})
	inv := newTestInvoker(t, slow)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	record, err := inv.Invoke(ctx, types.ToolCall{Name: "slow"})

	// A timeout is an observation for the planner, not a request error.
	require.NoError(t, err)
	assert.Equal(t, types.CallFailed, record.Status)
	assert.Contains(t, record.Error, "slow")
}

func TestInvokeExecutionErrorBecomesFailedRecord(t *testing.T) {
	failing := Define("broken", "Always fails.", nil, func(ctx context.Context, args string) (string, error) {
		return "", errors.New("motor stalled")
	})
	inv := newTestInvoker(t, failing)

	record, err := inv.Invoke(context.Background(), types.ToolCall{Name: "broken"})

	require.NoError(t, err)
	assert.Equal(t, types.CallFailed, record.Status)
	assert.Contains(t, record.Error, "motor stalled")
}

func TestInvokePanicIsCaptured(t *testing.T) {
	panicking := Define("panicky", "Panics on call.", nil, func(ctx context.Context, args string) (string, error) {
		panic("wiring fault")
	})
	inv := newTestInvoker(t, panicking)

	record, err := inv.Invoke(context.Background(), types.ToolCall{Name: "panicky"})

	require.NoError(t, err)
	assert.Equal(t, types.CallFailed, record.Status)
	assert.Contains(t, record.Error, "wiring fault")
}

func TestRegistryPreservesOrder(t *testing.T) {
	first := Define("alpha", "", nil, nil)
	second := Define("beta", "", nil, nil)
	registry := NewRegistry(second, first)

	assert.Equal(t, []string{"beta", "alpha"}, registry.Names())
	assert.Equal(t, 2, registry.Len())

	got, ok := registry.Get("alpha")
	require.True(t, ok)
	assert.Equal(t, "alpha", got.Name())

	_, ok = registry.Get("missing")
	assert.False(t, ok)
}
