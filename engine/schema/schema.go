package schema

import (
	"encoding/json"
	"fmt"

	"github.com/kaptinlin/jsonschema"
)

// -----------------------------------------------------------------------------
// Schema
// -----------------------------------------------------------------------------

// Schema is a raw JSON-schema document describing the shape of a tool's input
// or output.
type Schema map[string]any

func (s *Schema) String() string {
	bytes, err := json.Marshal(s)
	if err != nil {
		return ""
	}
	return string(bytes)
}

func (s *Schema) Compile() (*jsonschema.Schema, error) {
	if s == nil {
		return nil, nil
	}
	bytes, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	compiled, err := compiler.Compile(bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}
	return compiled, nil
}

// Validate checks value against the schema and returns one message per
// violation. A nil schema validates everything. The second return value
// reports compilation failures, which are the schema author's fault rather
// than the value's.
func (s *Schema) Validate(value any) ([]string, error) {
	compiled, err := s.Compile()
	if err != nil {
		return nil, err
	}
	if compiled == nil {
		return nil, nil
	}
	result := compiled.Validate(value)
	if result.Valid {
		return nil, nil
	}
	violations := make([]string, 0, len(result.Errors))
	for _, evalErr := range result.Errors {
		violations = append(violations, evalErr.Error())
	}
	return violations, nil
}
