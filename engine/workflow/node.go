package workflow

import (
	"regexp"
)

// -----------------------------------------------------------------------------
// Node Model
// -----------------------------------------------------------------------------

// NodeType discriminates the closed set of node variants. The interpreter
// switches exhaustively on it and fails fast on anything else.
type NodeType string

const (
	// NodeTypeCronTrigger schedules the chain beneath it; it carries no
	// data-transform semantics and is never executed for output.
	NodeTypeCronTrigger NodeType = "cron_trigger"
	// NodeTypeFixedInput ignores upstream data and injects a constant value.
	NodeTypeFixedInput NodeType = "fixed_input"
	// NodeTypeTool invokes a named external capability through the tool engine.
	NodeTypeTool NodeType = "tool"
	// NodeTypeConverter runs a user-authored handle(input) function in the
	// sandboxed runtime.
	NodeTypeConverter NodeType = "converter"
)

// Node is one step in a workflow chain, discriminated by Type. Only the
// fields belonging to the variant are set; Child points at the next step and
// nil marks the terminal node. Nodes are immutable once constructed.
type Node struct {
	Type NodeType `json:"type"          yaml:"type"`
	ID   string   `json:"id"            yaml:"id"`

	// Cron holds the 5-field schedule expression of a cron_trigger node. It
	// is consumed by an external scheduler; the engine only validates it.
	Cron string `json:"cron,omitempty" yaml:"cron,omitempty"`

	// Input and Output belong to fixed_input nodes. Output is the constant
	// the node injects into the chain; Input documents what the node would
	// have received and is otherwise ignored.
	Input  map[string]any `json:"input,omitempty"  yaml:"input,omitempty"`
	Output any            `json:"output,omitempty" yaml:"output,omitempty"`

	// Tool identifies the external capability a tool node dispatches to.
	// With optionally reshapes the call payload; its values may embed
	// "input.*" and "context.*" references resolved at execution time. A nil
	// With passes the upstream value through unchanged.
	Tool string         `json:"tool,omitempty" yaml:"tool,omitempty"`
	With map[string]any `json:"with,omitempty" yaml:"with,omitempty"`

	// Code holds the source of a converter node: a single top-level
	// "async function handle(input)".
	Code string `json:"code,omitempty" yaml:"code,omitempty"`

	Child *Node `json:"child,omitempty" yaml:"child,omitempty"`
}

// handleFuncRegex matches the single exported entrypoint converter code must
// declare.
var handleFuncRegex = regexp.MustCompile(`(?s)\basync\s+function\s+handle\s*\(`)

// HasHandleFunc reports whether converter code declares the handle entrypoint.
func HasHandleFunc(code string) bool {
	return handleFuncRegex.MatchString(code)
}

// IsTrigger reports whether the node variant is a workflow entry point.
func (n *Node) IsTrigger() bool {
	return n.Type == NodeTypeCronTrigger
}

// NewCronTrigger builds a cron_trigger node.
func NewCronTrigger(id string, cron string, child *Node) *Node {
	return &Node{Type: NodeTypeCronTrigger, ID: id, Cron: cron, Child: child}
}

// NewFixedInput builds a fixed_input node emitting output.
func NewFixedInput(id string, output any, child *Node) *Node {
	return &Node{Type: NodeTypeFixedInput, ID: id, Output: output, Child: child}
}

// NewToolNode builds a tool node dispatching to toolID.
func NewToolNode(id string, toolID string, child *Node) *Node {
	return &Node{Type: NodeTypeTool, ID: id, Tool: toolID, Child: child}
}

// NewConverterNode builds a converter node around code.
func NewConverterNode(id string, code string, child *Node) *Node {
	return &Node{Type: NodeTypeConverter, ID: id, Code: code, Child: child}
}
