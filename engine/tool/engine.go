package tool

import (
	"context"
	"errors"
	"time"

	"github.com/routinehq/routine/engine/core"
	"github.com/routinehq/routine/pkg/logger"
)

const defaultCallTimeout = 60 * time.Second

// Engine dispatches tool node calls against a Catalog. It owns the per-call
// timeout; an unresponsive tool must not hang the interpreter.
type Engine struct {
	catalog     Catalog
	callTimeout time.Duration
}

// Option configures the Engine.
type Option func(*Engine)

// WithCallTimeout bounds each tool invocation.
func WithCallTimeout(timeout time.Duration) Option {
	return func(e *Engine) {
		if timeout > 0 {
			e.callTimeout = timeout
		}
	}
}

func NewEngine(catalog Catalog, opts ...Option) *Engine {
	engine := &Engine{catalog: catalog, callTimeout: defaultCallTimeout}
	for _, opt := range opts {
		opt(engine)
	}
	return engine
}

// Catalog exposes the underlying catalog for validation and synthesis.
func (e *Engine) Catalog() Catalog {
	return e.catalog
}

// Missing returns the subset of ids absent from the catalog, preserving order.
func (e *Engine) Missing(ids []string) []string {
	var missing []string
	for _, id := range ids {
		if _, ok := e.catalog.Get(id); !ok {
			missing = append(missing, id)
		}
	}
	return missing
}

// Call invokes the tool registered under id with the resolved input. Unknown
// identifiers fail with *core.ToolMissingError; failures of a known tool are
// wrapped as *core.ToolTransportError so callers can tell an invalid workflow
// apart from a failed run.
func (e *Engine) Call(ctx context.Context, id string, input core.Input) (core.Output, error) {
	t, ok := e.catalog.Get(id)
	if !ok {
		return nil, core.NewToolMissingError([]string{id})
	}
	callCtx, cancel := context.WithTimeout(ctx, e.callTimeout)
	defer cancel()
	log := logger.FromContext(ctx)
	log.Debug("dispatching tool call", "tool", id)
	output, err := t.Call(callCtx, input)
	if err != nil {
		if errors.Is(err, context.Canceled) && ctx.Err() != nil {
			return nil, err
		}
		return nil, core.NewToolTransportError(id, err)
	}
	return output, nil
}
