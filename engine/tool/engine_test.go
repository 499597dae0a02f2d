package tool_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/routinehq/routine/engine/core"
	"github.com/routinehq/routine/engine/tool"
)

// recordingTool counts calls and captures arguments so dispatch logic can be
// asserted without live external calls.
type recordingTool struct {
	mu     sync.Mutex
	id     string
	output core.Output
	err    error
	calls  int
	inputs []core.Input
}

func (r *recordingTool) Definition() tool.Definition {
	return tool.Definition{ID: r.id}
}

func (r *recordingTool) Call(_ context.Context, input core.Input) (core.Output, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	r.inputs = append(r.inputs, input)
	if r.err != nil {
		return nil, r.err
	}
	return r.output, nil
}

func TestRegistry(t *testing.T) {
	t.Run("Should register and look up tools", func(t *testing.T) {
		registry := tool.NewRegistry()
		require.NoError(t, registry.Register(&recordingTool{id: "binance"}))
		registered, ok := registry.Get("binance")
		require.True(t, ok)
		assert.Equal(t, "binance", registered.Definition().ID)
		_, ok = registry.Get("weather")
		assert.False(t, ok)
	})
	t.Run("Should reject duplicate registration", func(t *testing.T) {
		registry := tool.NewRegistry()
		require.NoError(t, registry.Register(&recordingTool{id: "binance"}))
		assert.Error(t, registry.Register(&recordingTool{id: "binance"}))
	})
	t.Run("Should reject an empty identifier", func(t *testing.T) {
		registry := tool.NewRegistry()
		assert.Error(t, registry.Register(&recordingTool{id: ""}))
	})
	t.Run("Should list definitions in registration order", func(t *testing.T) {
		registry := tool.NewRegistry()
		require.NoError(t, registry.Register(&recordingTool{id: "binance"}))
		require.NoError(t, registry.Register(&recordingTool{id: "weather"}))
		defs := registry.Definitions()
		require.Len(t, defs, 2)
		assert.Equal(t, "binance", defs[0].ID)
		assert.Equal(t, "weather", defs[1].ID)
	})
}

func TestEngine_Call(t *testing.T) {
	t.Run("Should dispatch exactly once with the given input", func(t *testing.T) {
		mock := &recordingTool{id: "binance", output: core.Output{"price": []any{"42"}}}
		registry := tool.NewRegistry()
		require.NoError(t, registry.Register(mock))
		engine := tool.NewEngine(registry)

		input := core.Input{"endpoint": "PRICE"}
		output, err := engine.Call(context.Background(), "binance", input)
		require.NoError(t, err)
		assert.Equal(t, core.Output{"price": []any{"42"}}, output)
		assert.Equal(t, 1, mock.calls)
		require.Len(t, mock.inputs, 1)
		assert.Equal(t, input, mock.inputs[0])
	})
	t.Run("Should fail with a tool missing error on unknown identifiers", func(t *testing.T) {
		engine := tool.NewEngine(tool.NewRegistry())
		_, err := engine.Call(context.Background(), "ghost", core.Input{})
		var missing *core.ToolMissingError
		require.ErrorAs(t, err, &missing)
		assert.Equal(t, []string{"ghost"}, missing.GetMissingTools())
	})
	t.Run("Should wrap tool failures as transport errors", func(t *testing.T) {
		mock := &recordingTool{id: "binance", err: fmt.Errorf("connection refused")}
		registry := tool.NewRegistry()
		require.NoError(t, registry.Register(mock))
		engine := tool.NewEngine(registry)

		_, err := engine.Call(context.Background(), "binance", core.Input{})
		var transport *core.ToolTransportError
		require.ErrorAs(t, err, &transport)
		assert.Equal(t, "binance", transport.ToolID)
		assert.Contains(t, transport.Error(), "connection refused")
	})
	t.Run("Should propagate caller cancellation unchanged", func(t *testing.T) {
		mock := &recordingTool{id: "binance", err: context.Canceled}
		registry := tool.NewRegistry()
		require.NoError(t, registry.Register(mock))
		engine := tool.NewEngine(registry)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := engine.Call(ctx, "binance", core.Input{})
		require.Error(t, err)
		var transport *core.ToolTransportError
		assert.False(t, errors.As(err, &transport))
	})
}

func TestEngine_Missing(t *testing.T) {
	t.Run("Should return only unregistered identifiers", func(t *testing.T) {
		registry := tool.NewRegistry()
		require.NoError(t, registry.Register(&recordingTool{id: "binance"}))
		engine := tool.NewEngine(registry)
		assert.Equal(t, []string{"weather", "ghost"}, engine.Missing([]string{"binance", "weather", "ghost"}))
		assert.Empty(t, engine.Missing([]string{"binance"}))
	})
}
