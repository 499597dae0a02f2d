package executor_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/routinehq/routine/engine/core"
	"github.com/routinehq/routine/engine/executor"
	"github.com/routinehq/routine/engine/tool"
	"github.com/routinehq/routine/engine/tool/builtin"
	"github.com/routinehq/routine/engine/workflow"
)

const echoConverter = "async function handle(input) { return input; }"

// echoRuntime stands in for the JavaScript runtime so interpreter behavior can
// be tested without a bun or node installation.
type echoRuntime struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (r *echoRuntime) Execute(_ context.Context, code string, input any) (any, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, code)
	if r.err != nil {
		return nil, r.err
	}
	return input, nil
}

// capturingTool records the inputs it was dispatched with.
type capturingTool struct {
	mu     sync.Mutex
	def    tool.Definition
	output core.Output
	inputs []core.Input
}

func (c *capturingTool) Definition() tool.Definition { return c.def }

func (c *capturingTool) Call(_ context.Context, input core.Input) (core.Output, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inputs = append(c.inputs, input)
	return c.output, nil
}

func contextSchema() core.ContextSchema {
	return core.ContextSchema{
		"telegramId": {Description: "Connect your Telegram account in the settings screen to provide it."},
	}
}

func newExecutor(t *testing.T, tools ...tool.Tool) (*executor.Executor, *echoRuntime) {
	t.Helper()
	registry := tool.NewRegistry()
	for _, entry := range tools {
		require.NoError(t, registry.Register(entry))
	}
	rt := &echoRuntime{}
	return executor.New(tool.NewEngine(registry), rt, contextSchema()), rt
}

func TestExecutor_Execute(t *testing.T) {
	t.Run("Should pass a fixed input through a converter", func(t *testing.T) {
		converter := workflow.NewConverterNode("convert", echoConverter, nil)
		seed := workflow.NewFixedInput("seed", map[string]any{"symbol": "BTCUSDT"}, converter)
		wf := workflow.New("echo", workflow.NewCronTrigger("trigger", "0 0 * * *", seed))
		exec, rt := newExecutor(t)

		result, err := exec.Execute(context.Background(), wf, core.Context{})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"symbol": "BTCUSDT"}, result.Data)
		require.Len(t, rt.calls, 1)
		assert.Equal(t, echoConverter, rt.calls[0])
	})
	t.Run("Should never hand the fixed input value itself downstream", func(t *testing.T) {
		seed := workflow.NewFixedInput("seed", map[string]any{"nested": map[string]any{"n": 1}}, nil)
		wf := workflow.New("pure", workflow.NewCronTrigger("trigger", "0 0 * * *", seed))
		exec, _ := newExecutor(t)

		result, err := exec.Execute(context.Background(), wf, core.Context{})
		require.NoError(t, err)
		result.Data.(map[string]any)["nested"].(map[string]any)["n"] = 99
		assert.Equal(t, 1, seed.Output.(map[string]any)["nested"].(map[string]any)["n"])
	})
	t.Run("Should dispatch a tool exactly once with resolved references", func(t *testing.T) {
		mock := &capturingTool{
			def:    tool.Definition{ID: "notify"},
			output: core.Output{"delivered": true},
		}
		toolNode := workflow.NewToolNode("send", "notify", nil)
		toolNode.With = map[string]any{
			"chat":   "context.telegramId",
			"symbol": "input.symbol",
		}
		seed := workflow.NewFixedInput("seed", map[string]any{"symbol": "BTCUSDT"}, toolNode)
		wf := workflow.New("notify", workflow.NewCronTrigger("trigger", "0 0 * * *", seed))
		exec, _ := newExecutor(t, mock)

		result, err := exec.Execute(context.Background(), wf, core.Context{"telegramId": float64(42)})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"delivered": true}, result.Data)
		require.Len(t, mock.inputs, 1)
		assert.Equal(t, core.Input{"chat": float64(42), "symbol": "BTCUSDT"}, mock.inputs[0])
	})
	t.Run("Should deliver flowing data untouched to a tool without configuration", func(t *testing.T) {
		mock := &capturingTool{
			def:    tool.Definition{ID: "notify"},
			output: core.Output{"delivered": true},
		}
		toolNode := workflow.NewToolNode("send", "notify", nil)
		seed := workflow.NewFixedInput("seed", map[string]any{"note": "input.symbol"}, toolNode)
		wf := workflow.New("literal data", workflow.NewCronTrigger("trigger", "0 0 * * *", seed))
		exec, _ := newExecutor(t, mock)

		_, err := exec.Execute(context.Background(), wf, core.Context{})
		require.NoError(t, err)
		require.Len(t, mock.inputs, 1)
		assert.Equal(t, core.Input{"note": "input.symbol"}, mock.inputs[0])
	})
	t.Run("Should overlay resolved configuration on the upstream payload", func(t *testing.T) {
		mock := &capturingTool{
			def:    tool.Definition{ID: "notify"},
			output: core.Output{"delivered": true},
		}
		toolNode := workflow.NewToolNode("send", "notify", nil)
		toolNode.With = map[string]any{"chat": "context.telegramId"}
		seed := workflow.NewFixedInput("seed", map[string]any{"symbol": "BTCUSDT"}, toolNode)
		wf := workflow.New("overlay", workflow.NewCronTrigger("trigger", "0 0 * * *", seed))
		exec, _ := newExecutor(t, mock)

		_, err := exec.Execute(context.Background(), wf, core.Context{"telegramId": float64(42)})
		require.NoError(t, err)
		require.Len(t, mock.inputs, 1)
		assert.Equal(t, core.Input{"symbol": "BTCUSDT", "chat": float64(42)}, mock.inputs[0])
	})
	t.Run("Should reject an invalid workflow before running anything", func(t *testing.T) {
		toolNode := workflow.NewToolNode("send", "ghost", nil)
		wf := workflow.New("invalid", workflow.NewCronTrigger("trigger", "0 0 * * *", toolNode))
		exec, rt := newExecutor(t)

		_, err := exec.Execute(context.Background(), wf, core.Context{})
		var missing *core.ToolMissingError
		require.ErrorAs(t, err, &missing)
		assert.Empty(t, rt.calls)
	})
	t.Run("Should fail with a reference error when the context value is absent at run time", func(t *testing.T) {
		mock := &capturingTool{def: tool.Definition{ID: "notify"}}
		toolNode := workflow.NewToolNode("send", "notify", nil)
		toolNode.With = map[string]any{"chat": "context.telegramId"}
		wf := workflow.New("no ctx", workflow.NewCronTrigger("trigger", "0 0 * * *", toolNode))
		exec, _ := newExecutor(t, mock)

		_, err := exec.Execute(context.Background(), wf, core.Context{})
		var refErr *core.ReferenceError
		require.ErrorAs(t, err, &refErr)
		assert.Equal(t, core.FieldContext, refErr.Field)
		assert.Equal(t, "telegramId", refErr.Reference)
		assert.Empty(t, mock.inputs)
	})
	t.Run("Should abort with a canceled error when the context is canceled", func(t *testing.T) {
		seed := workflow.NewFixedInput("seed", map[string]any{"a": 1}, nil)
		wf := workflow.New("canceled", workflow.NewCronTrigger("trigger", "0 0 * * *", seed))
		exec, _ := newExecutor(t)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := exec.Execute(ctx, wf, core.Context{})
		var canceled *core.CanceledError
		require.ErrorAs(t, err, &canceled)
		assert.Equal(t, "seed", canceled.NodeID)
	})
	t.Run("Should propagate converter failures unchanged", func(t *testing.T) {
		converter := workflow.NewConverterNode("convert", echoConverter, nil)
		seed := workflow.NewFixedInput("seed", map[string]any{"a": 1}, converter)
		wf := workflow.New("broken", workflow.NewCronTrigger("trigger", "0 0 * * *", seed))
		exec, rt := newExecutor(t)
		rt.err = core.NewConverterError(core.PhaseRuntime, "boom", nil)

		_, err := exec.Execute(context.Background(), wf, core.Context{})
		var convErr *core.ConverterError
		require.ErrorAs(t, err, &convErr)
		assert.Equal(t, core.PhaseRuntime, convErr.Phase)
	})
}

func TestExecutor_Execute_BinancePriceChain(t *testing.T) {
	t.Run("Should run the full price workflow against a stub exchange", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "BTCUSDT", r.URL.Query().Get("symbol"))
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"symbol":"BTCUSDT","price":"67000.10"}`))
		}))
		t.Cleanup(server.Close)

		converter := workflow.NewConverterNode("convert", echoConverter, nil)
		toolNode := workflow.NewToolNode("fetch", builtin.BinanceToolID, converter)
		seed := workflow.NewFixedInput("seed", map[string]any{
			"endpoint": "PRICE",
			"price":    map[string]any{"symbol": "BTCUSDT"},
		}, toolNode)
		wf := workflow.New("btc price", workflow.NewCronTrigger("trigger", "*/10 * * * *", seed))
		exec, _ := newExecutor(t, builtin.NewBinanceTool(builtin.WithBaseURL(server.URL)))

		result, err := exec.Execute(context.Background(), wf, core.Context{})
		require.NoError(t, err)
		data, ok := result.Data.(map[string]any)
		require.True(t, ok)
		prices, ok := data["price"].([]any)
		require.True(t, ok)
		assert.NotEmpty(t, prices)
	})
}
