package ref

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/routinehq/routine/engine/core"
)

// referenceRegex matches symbolic references embedded in node configuration:
// a namespace ("input" or "context") followed by a dotted path of plain
// segments, e.g. "context.telegramId" or "input.user.profile.settings.theme".
var referenceRegex = regexp.MustCompile(`^(input|context)((?:\.[A-Za-z0-9_-]+)+)$`)

// IsReference reports whether value is a symbolic reference string.
func IsReference(value string) bool {
	return referenceRegex.MatchString(value)
}

// Scope carries the live values one node's references resolve against. A new
// scope is built per node, so concurrent executions never share one.
type Scope struct {
	schema      core.ContextSchema
	inputJSON   []byte
	contextJSON []byte
}

// NewScope captures the current input value and user context for resolution.
// Values that cannot be marshaled resolve as missing rather than panicking.
func NewScope(input any, userCtx core.Context, schema core.ContextSchema) *Scope {
	scope := &Scope{schema: schema}
	if input != nil {
		if raw, err := json.Marshal(input); err == nil {
			scope.inputJSON = raw
		}
	}
	if userCtx != nil {
		if raw, err := json.Marshal(userCtx); err == nil {
			scope.contextJSON = raw
		}
	}
	return scope
}

// Resolve resolves one reference string against the scope. Unresolvable paths
// surface as *core.ReferenceError carrying the full dotted path attempted.
func (s *Scope) Resolve(reference string) (any, error) {
	matches := referenceRegex.FindStringSubmatch(reference)
	if matches == nil {
		return nil, fmt.Errorf("invalid reference syntax: %q", reference)
	}
	namespace := matches[1]
	path := strings.TrimPrefix(matches[2], ".")
	switch namespace {
	case "input":
		return s.lookup(core.FieldInput, s.inputJSON, path)
	case "context":
		return s.lookup(core.FieldContext, s.contextJSON, path)
	default:
		return nil, fmt.Errorf("unknown reference namespace: %q", namespace)
	}
}

func (s *Scope) lookup(field core.ReferenceField, doc []byte, path string) (any, error) {
	if doc == nil {
		return nil, core.NewReferenceError(field, path, s.schema)
	}
	result := gjson.GetBytes(doc, path)
	if !result.Exists() {
		return nil, core.NewReferenceError(field, path, s.schema)
	}
	return result.Value(), nil
}

// ResolveValue walks an arbitrary JSON-compatible value and replaces every
// embedded reference string with its resolved value. Maps and slices are
// rebuilt so the original configuration is never mutated.
func (s *Scope) ResolveValue(value any) (any, error) {
	switch v := value.(type) {
	case string:
		if IsReference(v) {
			return s.Resolve(v)
		}
		return v, nil
	case map[string]any:
		resolved := make(map[string]any, len(v))
		for key, item := range v {
			out, err := s.ResolveValue(item)
			if err != nil {
				return nil, err
			}
			resolved[key] = out
		}
		return resolved, nil
	case core.Input:
		return s.ResolveValue(map[string]any(v))
	case []any:
		resolved := make([]any, len(v))
		for i, item := range v {
			out, err := s.ResolveValue(item)
			if err != nil {
				return nil, err
			}
			resolved[i] = out
		}
		return resolved, nil
	default:
		return value, nil
	}
}

// CollectReferences returns every reference string embedded in value, in no
// particular order. Used by validation to check references without live data.
func CollectReferences(value any) []string {
	var refs []string
	collectReferences(value, &refs)
	return refs
}

func collectReferences(value any, refs *[]string) {
	switch v := value.(type) {
	case string:
		if IsReference(v) {
			*refs = append(*refs, v)
		}
	case map[string]any:
		for _, item := range v {
			collectReferences(item, refs)
		}
	case core.Input:
		collectReferences(map[string]any(v), refs)
	case []any:
		for _, item := range v {
			collectReferences(item, refs)
		}
	}
}
