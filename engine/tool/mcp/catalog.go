// Package mcp adapts an MCP server's tool surface into the engine's Catalog,
// so workflows can dispatch to tools routed through an external MCP host.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/routinehq/routine/engine/core"
	"github.com/routinehq/routine/engine/schema"
	"github.com/routinehq/routine/engine/tool"
)

// Client is the slice of the MCP client the catalog depends on. The concrete
// clients from mark3labs/mcp-go satisfy it.
type Client interface {
	ListTools(ctx context.Context, request mcp.ListToolsRequest) (*mcp.ListToolsResult, error)
	CallTool(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)
}

// Catalog exposes the tools of one MCP connection as a tool.Catalog.
type Catalog struct {
	client Client

	mu    sync.RWMutex
	tools map[string]*remoteTool
	order []string
}

// NewCatalog lists the server's tools once and builds the catalog from them.
// Call Refresh to pick up changes on a long-lived connection.
func NewCatalog(ctx context.Context, client Client) (*Catalog, error) {
	c := &Catalog{client: client, tools: make(map[string]*remoteTool)}
	if err := c.Refresh(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// Refresh replaces the catalog contents with the server's current tool list.
func (c *Catalog) Refresh(ctx context.Context) error {
	result, err := c.client.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return fmt.Errorf("failed to list MCP tools: %w", err)
	}
	tools := make(map[string]*remoteTool, len(result.Tools))
	order := make([]string, 0, len(result.Tools))
	for i := range result.Tools {
		remote := newRemoteTool(c.client, &result.Tools[i])
		tools[remote.def.ID] = remote
		order = append(order, remote.def.ID)
	}
	c.mu.Lock()
	c.tools = tools
	c.order = order
	c.mu.Unlock()
	return nil
}

func (c *Catalog) Get(id string) (tool.Tool, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.tools[id]
	return t, ok
}

func (c *Catalog) Definitions() []tool.Definition {
	c.mu.RLock()
	defer c.mu.RUnlock()
	defs := make([]tool.Definition, 0, len(c.order))
	for _, id := range c.order {
		defs = append(defs, c.tools[id].def)
	}
	return defs
}

// -----------------------------------------------------------------------------
// Remote tool
// -----------------------------------------------------------------------------

type remoteTool struct {
	client Client
	def    tool.Definition
}

func newRemoteTool(client Client, t *mcp.Tool) *remoteTool {
	return &remoteTool{
		client: client,
		def: tool.Definition{
			ID:          t.Name,
			Description: t.Description,
			InputSchema: convertInputSchema(t.InputSchema),
		},
	}
}

func (r *remoteTool) Definition() tool.Definition {
	return r.def
}

func (r *remoteTool) Call(ctx context.Context, input core.Input) (core.Output, error) {
	request := mcp.CallToolRequest{}
	request.Params.Name = r.def.ID
	request.Params.Arguments = map[string]any(input)
	result, err := r.client.CallTool(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("MCP call to %q failed: %w", r.def.ID, err)
	}
	text := collectText(result)
	if result.IsError {
		return nil, fmt.Errorf("MCP tool %q reported an error: %s", r.def.ID, text)
	}
	return outputFromText(text), nil
}

// convertInputSchema round-trips the MCP schema declaration into the engine's
// raw schema form.
func convertInputSchema(input mcp.ToolInputSchema) *schema.Schema {
	raw, err := json.Marshal(input)
	if err != nil {
		return nil
	}
	var s schema.Schema
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	return &s
}

// collectText concatenates the textual parts of a tool result. The content
// list is inspected generically so new content kinds do not break the walk.
func collectText(result *mcp.CallToolResult) string {
	raw, err := json.Marshal(result.Content)
	if err != nil {
		return ""
	}
	var parts []map[string]any
	if err := json.Unmarshal(raw, &parts); err != nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range parts {
		if kind, _ := part["type"].(string); kind != "text" {
			continue
		}
		if text, ok := part["text"].(string); ok {
			if sb.Len() > 0 {
				sb.WriteByte('\n')
			}
			sb.WriteString(text)
		}
	}
	return sb.String()
}

// outputFromText prefers a JSON object payload and falls back to wrapping the
// raw text.
func outputFromText(text string) core.Output {
	var payload map[string]any
	if err := json.Unmarshal([]byte(text), &payload); err == nil {
		return core.Output(payload)
	}
	return core.Output{"content": text}
}
