package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Input_Functions(t *testing.T) {
	t.Run("Should create new input and expose properties", func(t *testing.T) {
		i := NewInput(nil)
		assert.NotNil(t, i)
		var in *Input
		assert.Nil(t, in.Prop("x"))
		in = &Input{"a": 1}
		assert.Equal(t, 1, in.Prop("a"))
	})
	t.Run("Should merge inputs overriding values", func(t *testing.T) {
		a := Input{"a": 1, "b": []int{1}}
		b := Input{"b": []int{2}, "c": 3}
		res, err := a.Merge(&b)
		require.NoError(t, err)
		assert.Equal(t, 1, (*res)["a"])
		assert.Equal(t, []int{1, 2}, (*res)["b"]) // append slice
		assert.Equal(t, 3, (*res)["c"])
		var nilIn *Input
		r2, err := nilIn.Merge(&b)
		require.NoError(t, err)
		assert.Same(t, &b, r2)
	})
	t.Run("Should not mutate the receiver on merge", func(t *testing.T) {
		a := Input{"a": 1}
		b := Input{"a": 2}
		_, err := a.Merge(&b)
		require.NoError(t, err)
		assert.Equal(t, 1, a["a"])
	})
	t.Run("Should clone input deeply", func(t *testing.T) {
		in := &Input{"x": []int{1}}
		cp, err := in.Clone()
		require.NoError(t, err)
		require.NotNil(t, cp)
		(*cp)["x"].([]int)[0] = 9
		assert.Equal(t, 1, (*in)["x"].([]int)[0])
	})
}

func Test_OverlayPayload(t *testing.T) {
	t.Run("Should overlay configured fields over the upstream object", func(t *testing.T) {
		upstream := map[string]any{"endpoint": "PRICE", "symbol": "BTCUSDT"}
		configured := map[string]any{"symbol": "ETHUSDT", "chat": float64(42)}
		payload, err := OverlayPayload(upstream, configured)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{
			"endpoint": "PRICE",
			"symbol":   "ETHUSDT",
			"chat":     float64(42),
		}, payload)
	})
	t.Run("Should not mutate the upstream value", func(t *testing.T) {
		upstream := map[string]any{"symbol": "BTCUSDT"}
		_, err := OverlayPayload(upstream, map[string]any{"symbol": "ETHUSDT"})
		require.NoError(t, err)
		assert.Equal(t, "BTCUSDT", upstream["symbol"])
	})
	t.Run("Should let the configured value win over a non-object upstream", func(t *testing.T) {
		payload, err := OverlayPayload("plain text", map[string]any{"a": 1})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"a": 1}, payload)
	})
	t.Run("Should let a non-object configured value win outright", func(t *testing.T) {
		payload, err := OverlayPayload(map[string]any{"a": 1}, "replacement")
		require.NoError(t, err)
		assert.Equal(t, "replacement", payload)
	})
	t.Run("Should pass a nil upstream through to the configured value", func(t *testing.T) {
		payload, err := OverlayPayload(nil, map[string]any{"a": 1})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"a": 1}, payload)
	})
}

func Test_DeepCopyValue(t *testing.T) {
	t.Run("Should copy nested structures", func(t *testing.T) {
		original := map[string]any{"nested": []any{map[string]any{"a": 1}}}
		copied := DeepCopyValue(original).(map[string]any)
		copied["nested"].([]any)[0].(map[string]any)["a"] = 9
		assert.Equal(t, 1, original["nested"].([]any)[0].(map[string]any)["a"])
	})
	t.Run("Should pass nil through", func(t *testing.T) {
		assert.Nil(t, DeepCopyValue(nil))
	})
}
