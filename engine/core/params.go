package core

import (
	"fmt"

	"dario.cat/mergo"
	"github.com/mohae/deepcopy"
)

// -----------------------------------------------------------------------------
// Input
// -----------------------------------------------------------------------------

// Input is the value flowing into a node from its parent.
type Input map[string]any

func NewInput(data map[string]any) Input {
	if data == nil {
		return make(Input)
	}
	return Input(data)
}

func (i *Input) Prop(key string) any {
	if i == nil {
		return nil
	}
	return (*i)[key]
}

// Merge combines two inputs, appending slices and letting other win on conflicts.
func (i *Input) Merge(other *Input) (*Input, error) {
	if i == nil {
		return other, nil
	}
	if other == nil {
		return i, nil
	}
	base, err := i.Clone()
	if err != nil {
		return nil, err
	}
	if err := mergo.Merge(base, *other, mergo.WithOverride, mergo.WithAppendSlice); err != nil {
		return nil, fmt.Errorf("failed to merge inputs: %w", err)
	}
	return base, nil
}

func (i *Input) Clone() (*Input, error) {
	if i == nil {
		return nil, nil
	}
	copied, err := deepCopyMap(*i)
	if err != nil {
		return nil, err
	}
	cloned := Input(copied)
	return &cloned, nil
}

// -----------------------------------------------------------------------------
// Output
// -----------------------------------------------------------------------------

// Output is the value a node emits for its child.
type Output map[string]any

// OverlayPayload merges a node's resolved configuration over the upstream
// object payload: configured fields win, unset upstream fields flow through.
// A non-object value on either side makes the configured value win outright.
// The upstream value is never mutated.
func OverlayPayload(upstream any, configured any) (any, error) {
	base, ok := upstream.(map[string]any)
	if !ok {
		return configured, nil
	}
	overlay, ok := configured.(map[string]any)
	if !ok {
		return configured, nil
	}
	baseInput := NewInput(base)
	overlayInput := NewInput(overlay)
	merged, err := baseInput.Merge(&overlayInput)
	if err != nil {
		return nil, err
	}
	return map[string]any(*merged), nil
}

// -----------------------------------------------------------------------------
// Copy helpers
// -----------------------------------------------------------------------------

func deepCopyMap(m map[string]any) (map[string]any, error) {
	copiedInterface := deepcopy.Copy(map[string]any(m))
	copied, ok := copiedInterface.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("failed to copy map")
	}
	return copied, nil
}

// DeepCopyValue deep-copies any JSON-compatible value.
func DeepCopyValue(v any) any {
	if v == nil {
		return nil
	}
	return deepcopy.Copy(v)
}
