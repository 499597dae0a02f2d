// Package builtin holds the tools the engine ships with.
package builtin

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-resty/resty/v2"

	"github.com/routinehq/routine/engine/core"
	"github.com/routinehq/routine/engine/schema"
	"github.com/routinehq/routine/engine/tool"
)

const (
	// BinanceToolID is the identifier workflows dispatch price-feed calls to.
	BinanceToolID = "binance"

	defaultBinanceBaseURL = "https://api.binance.com"

	endpointPrice = "PRICE"
)

// BinanceTool serves spot market data from the Binance public REST API.
type BinanceTool struct {
	client *resty.Client
}

// BinanceOption configures the tool.
type BinanceOption func(*BinanceTool)

// WithBaseURL points the tool at a different API host, e.g. a test server.
func WithBaseURL(baseURL string) BinanceOption {
	return func(t *BinanceTool) {
		t.client.SetBaseURL(baseURL)
	}
}

func NewBinanceTool(opts ...BinanceOption) *BinanceTool {
	t := &BinanceTool{client: resty.New().SetBaseURL(defaultBinanceBaseURL)}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *BinanceTool) Definition() tool.Definition {
	return tool.Definition{
		ID:          BinanceToolID,
		Description: "Fetches spot market data from Binance. Endpoint PRICE returns current ticker prices.",
		InputSchema: &schema.Schema{
			"type": "object",
			"properties": map[string]any{
				"endpoint": map[string]any{
					"type": "string",
					"enum": []any{endpointPrice},
				},
				"price": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"symbol": map[string]any{"type": "string"},
					},
				},
			},
			"required": []any{"endpoint"},
		},
		OutputSchema: &schema.Schema{
			"type": "object",
			"properties": map[string]any{
				"price": map[string]any{
					"type":  "array",
					"items": map[string]any{"type": "object"},
				},
			},
			"required": []any{"price"},
		},
	}
}

func (t *BinanceTool) Call(ctx context.Context, input core.Input) (core.Output, error) {
	endpoint, _ := input.Prop("endpoint").(string)
	switch endpoint {
	case endpointPrice:
		return t.fetchPrice(ctx, input)
	default:
		return nil, fmt.Errorf("unsupported binance endpoint: %q", endpoint)
	}
}

// fetchPrice returns the current ticker price for the requested symbol, or
// every symbol when none is given. The output always carries the prices as an
// array under "price".
func (t *BinanceTool) fetchPrice(ctx context.Context, input core.Input) (core.Output, error) {
	symbol := ""
	if params, ok := input.Prop("price").(map[string]any); ok {
		symbol, _ = params["symbol"].(string)
	}
	req := t.client.R().SetContext(ctx)
	if symbol != "" {
		req.SetQueryParam("symbol", symbol)
	}
	resp, err := req.Get("/api/v3/ticker/price")
	if err != nil {
		return nil, fmt.Errorf("binance price request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("binance price request failed: status %d: %s", resp.StatusCode(), resp.String())
	}
	prices, err := decodePrices(resp.Body())
	if err != nil {
		return nil, err
	}
	return core.Output{"price": prices}, nil
}

// decodePrices normalizes the two response shapes of the ticker endpoint: a
// single object when a symbol is given, an array otherwise.
func decodePrices(body []byte) ([]any, error) {
	var single map[string]any
	if err := json.Unmarshal(body, &single); err == nil {
		return []any{single}, nil
	}
	var many []any
	if err := json.Unmarshal(body, &many); err != nil {
		return nil, fmt.Errorf("unexpected binance price payload: %w", err)
	}
	return many, nil
}
