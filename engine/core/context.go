package core

// -----------------------------------------------------------------------------
// User Context
// -----------------------------------------------------------------------------

// Context is the read-only bag of user/session values available to reference
// resolution under the "context.*" namespace. The engine never mutates it;
// the surrounding application supplies a concrete value per execution.
type Context map[string]any

func (c Context) Prop(key string) any {
	if c == nil {
		return nil
	}
	return c[key]
}

// ContextField describes one declared top-level context key. Description is
// user-facing remediation text rendered when a reference to the key cannot be
// resolved (for example, pointing the user to the settings screen that can
// supply the missing value).
type ContextField struct {
	Description string `json:"description"       yaml:"description"`
	Required    bool   `json:"required,omitempty" yaml:"required,omitempty"`
}

// ContextSchema declares the shape of Context as plain data, decoupled from
// any particular schema library.
type ContextSchema map[string]ContextField

func (s ContextSchema) Describe(key string) (string, bool) {
	if s == nil {
		return "", false
	}
	field, ok := s[key]
	if !ok {
		return "", false
	}
	return field.Description, true
}
