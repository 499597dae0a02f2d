package runtime_test

import (
	"context"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/routinehq/routine/engine/core"
	"github.com/routinehq/routine/engine/runtime"
)

// availableRuntime returns the first JavaScript runtime present on this
// machine, skipping the test when there is none.
func availableRuntime(t *testing.T) string {
	t.Helper()
	for _, name := range []string{runtime.RuntimeTypeBun, runtime.RuntimeTypeNode} {
		if _, err := exec.LookPath(name); err == nil {
			return name
		}
	}
	t.Skip("no JavaScript runtime available in PATH")
	return ""
}

func newTestManager(t *testing.T) *runtime.Manager {
	t.Helper()
	manager, err := runtime.NewManager(
		context.Background(),
		t.TempDir(),
		runtime.WithTestConfig(),
		runtime.WithRuntimeType(availableRuntime(t)),
	)
	require.NoError(t, err)
	return manager
}

func TestNewManager(t *testing.T) {
	t.Run("Should fail when the executable is not in PATH", func(t *testing.T) {
		_, err := runtime.NewManager(
			context.Background(),
			t.TempDir(),
			runtime.WithTestConfig(),
			runtime.WithRuntimeType("no-such-js-runtime"),
		)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no-such-js-runtime executable not found in PATH")
	})
}

func TestManager_Execute(t *testing.T) {
	t.Run("Should run a converter and return its value", func(t *testing.T) {
		manager := newTestManager(t)
		code := `async function handle(input) { return { doubled: input.value * 2 }; }`
		result, err := manager.Execute(context.Background(), code, map[string]any{"value": 21})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"doubled": float64(42)}, result)
	})
	t.Run("Should report syntax errors as compile failures", func(t *testing.T) {
		manager := newTestManager(t)
		_, err := manager.Execute(context.Background(), `async function handle(input) {`, nil)
		var convErr *core.ConverterError
		require.ErrorAs(t, err, &convErr)
		assert.Equal(t, core.PhaseCompile, convErr.Phase)
	})
	t.Run("Should report thrown errors as runtime failures", func(t *testing.T) {
		manager := newTestManager(t)
		code := `async function handle(input) { throw new Error("converter exploded"); }`
		_, err := manager.Execute(context.Background(), code, nil)
		var convErr *core.ConverterError
		require.ErrorAs(t, err, &convErr)
		assert.Equal(t, core.PhaseRuntime, convErr.Phase)
		assert.Contains(t, convErr.Error(), "converter exploded")
	})
	t.Run("Should kill a converter that exceeds the execution budget", func(t *testing.T) {
		manager := newTestManager(t)
		code := `async function handle(input) { while (true) {} }`
		_, err := manager.Execute(context.Background(), code, nil)
		var convErr *core.ConverterError
		require.ErrorAs(t, err, &convErr)
		assert.Equal(t, core.PhaseTimeout, convErr.Phase)
	})
	t.Run("Should propagate caller cancellation", func(t *testing.T) {
		manager := newTestManager(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := manager.Execute(ctx, `async function handle(input) { return input; }`, nil)
		assert.ErrorIs(t, err, context.Canceled)
	})
	t.Run("Should hide host environment variables from converters", func(t *testing.T) {
		t.Setenv("ROUTINE_SECRET_MARKER", "leaked")
		manager := newTestManager(t)
		code := `async function handle(input) { return { marker: process.env.ROUTINE_SECRET_MARKER ?? null }; }`
		result, err := manager.Execute(context.Background(), code, nil)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"marker": nil}, result)
	})
}
