package core

import (
	"errors"
	"fmt"
	"strings"
)

// -----------------------------------------------------------------------------
// Engine Error Taxonomy
// -----------------------------------------------------------------------------

// EngineError is the sealed supertype of every failure the workflow engine can
// surface. Callers discriminate variants with errors.As; the agent's repair
// loop treats any EngineError raised during validation as feedback for another
// synthesis attempt.
type EngineError interface {
	error
	isEngineError()
}

// ReferenceField names the namespace a symbolic reference was resolved against.
type ReferenceField string

const (
	FieldInput   ReferenceField = "input"
	FieldContext ReferenceField = "context"
)

// -----------------------------------------------------------------------------
// Reference Error
// -----------------------------------------------------------------------------

// ReferenceError reports a dotted reference path that could not be resolved
// against the live input value or the declared user context.
type ReferenceError struct {
	Field     ReferenceField
	Reference string
	schema    ContextSchema
}

func NewReferenceError(field ReferenceField, reference string, schema ContextSchema) *ReferenceError {
	return &ReferenceError{Field: field, Reference: reference, schema: schema}
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("unresolved %s reference %q", e.Field, e.Reference)
}

// HumanReadableMessage renders a user-facing remediation hint. Context
// references declared in the schema get the schema's per-field description;
// everything else points at the referencing node's parent, since the value
// was expected to flow in from the previous step.
func (e *ReferenceError) HumanReadableMessage() string {
	if e.Field == FieldContext {
		key := topLevelSegment(e.Reference)
		if desc, ok := e.schema.Describe(key); ok {
			return fmt.Sprintf("The value %q is missing from your context. %s", e.Reference, desc)
		}
	}
	return fmt.Sprintf(
		"The value %q should have been provided by the parent node's output. "+
			"The workflow definition likely needs to be fixed so the previous step supplies it.",
		e.Reference,
	)
}

func (e *ReferenceError) isEngineError() {}

func topLevelSegment(reference string) string {
	if idx := strings.IndexByte(reference, '.'); idx >= 0 {
		return reference[:idx]
	}
	return reference
}

// -----------------------------------------------------------------------------
// Tool Missing Error
// -----------------------------------------------------------------------------

// ToolMissingError reports tool identifiers referenced by a workflow that are
// absent from the registry.
type ToolMissingError struct {
	MissingTools []string
}

func NewToolMissingError(missing []string) *ToolMissingError {
	return &ToolMissingError{MissingTools: missing}
}

func (e *ToolMissingError) Error() string {
	return fmt.Sprintf("missing tools: %s", strings.Join(e.MissingTools, ", "))
}

func (e *ToolMissingError) GetMissingTools() []string {
	return e.MissingTools
}

func (e *ToolMissingError) isEngineError() {}

// -----------------------------------------------------------------------------
// Input/Output Mismatch Error
// -----------------------------------------------------------------------------

// InputOutputMismatchError batches shape incompatibilities found between two
// adjacent nodes. Errors and Suggestions are free-form lists joined for
// display; they are not paired by index.
type InputOutputMismatchError struct {
	Errors      []string
	Suggestions []string
}

func NewInputOutputMismatchError(errs []string, suggestions []string) *InputOutputMismatchError {
	return &InputOutputMismatchError{Errors: errs, Suggestions: suggestions}
}

func (e *InputOutputMismatchError) Error() string {
	return fmt.Sprintf(
		"Input and output mismatch: %s. Suggestions: %s",
		strings.Join(e.Errors, ", "),
		strings.Join(e.Suggestions, ", "),
	)
}

func (e *InputOutputMismatchError) isEngineError() {}

// -----------------------------------------------------------------------------
// Converter Error
// -----------------------------------------------------------------------------

// ConverterPhase tags the stage a converter failed in, so the agent can react
// differently: compile errors call for rewriting the function, timeouts for
// restructuring the algorithm.
type ConverterPhase string

const (
	PhaseCompile ConverterPhase = "compile"
	PhaseRuntime ConverterPhase = "runtime"
	PhaseTimeout ConverterPhase = "timeout"
)

// ConverterError reports a converter node whose code failed to compile, threw,
// or exceeded its wall-clock budget.
type ConverterError struct {
	Phase  ConverterPhase
	Detail string
	Err    error
}

func NewConverterError(phase ConverterPhase, detail string, err error) *ConverterError {
	return &ConverterError{Phase: phase, Detail: detail, Err: err}
}

func (e *ConverterError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("converter %s error: %s", e.Phase, e.Detail)
	}
	return fmt.Sprintf("converter %s error: %v", e.Phase, e.Err)
}

func (e *ConverterError) Unwrap() error { return e.Err }

func (e *ConverterError) isEngineError() {}

// -----------------------------------------------------------------------------
// Tool Transport Error
// -----------------------------------------------------------------------------

// ToolTransportError reports a registered tool whose invocation failed at the
// transport level. Kept distinct from ToolMissingError so callers can tell
// "workflow is invalid" apart from "workflow is valid but this run failed".
type ToolTransportError struct {
	ToolID string
	Err    error
}

func NewToolTransportError(toolID string, err error) *ToolTransportError {
	return &ToolTransportError{ToolID: toolID, Err: err}
}

func (e *ToolTransportError) Error() string {
	return fmt.Sprintf("tool %q call failed: %v", e.ToolID, e.Err)
}

func (e *ToolTransportError) Unwrap() error { return e.Err }

func (e *ToolTransportError) isEngineError() {}

// -----------------------------------------------------------------------------
// Canceled Error
// -----------------------------------------------------------------------------

// CanceledError reports an execution aborted by context cancellation while a
// node was in flight.
type CanceledError struct {
	NodeID string
	Err    error
}

func NewCanceledError(nodeID string, err error) *CanceledError {
	return &CanceledError{NodeID: nodeID, Err: err}
}

func (e *CanceledError) Error() string {
	return fmt.Sprintf("execution canceled at node %q: %v", e.NodeID, e.Err)
}

func (e *CanceledError) Unwrap() error { return e.Err }

func (e *CanceledError) isEngineError() {}

// -----------------------------------------------------------------------------
// Discrimination helpers
// -----------------------------------------------------------------------------

// AsEngineError extracts the engine error from an error chain, if any.
func AsEngineError(err error) (EngineError, bool) {
	var engineErr EngineError
	if errors.As(err, &engineErr) {
		return engineErr, true
	}
	return nil, false
}
