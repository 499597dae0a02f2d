package tool

import (
	"context"

	"github.com/routinehq/routine/engine/core"
	"github.com/routinehq/routine/engine/schema"
)

// Definition declares a tool's identity and the shapes it accepts and
// produces. Schemas are optional; a nil schema skips shape validation for
// that side of the call.
type Definition struct {
	ID           string         `json:"id"`
	Description  string         `json:"description,omitempty"`
	InputSchema  *schema.Schema `json:"input_schema,omitempty"`
	OutputSchema *schema.Schema `json:"output_schema,omitempty"`
}

// Tool is one named external capability.
type Tool interface {
	Definition() Definition
	Call(ctx context.Context, input core.Input) (core.Output, error)
}

// Catalog is the read-only view of the registry used for lookups and
// validation. Implementations must be safe for concurrent readers.
type Catalog interface {
	Get(id string) (Tool, bool)
	Definitions() []Definition
}
