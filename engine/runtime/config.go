package runtime

import (
	"fmt"
	"os"
	"time"
)

// Runtime executable constants
const (
	// RuntimeTypeBun runs converters with the Bun JavaScript runtime.
	RuntimeTypeBun = "bun"
	// RuntimeTypeNode runs converters with Node.js.
	RuntimeTypeNode = "node"
)

// DefaultMemoryLimitMB caps the worker heap on runtimes that take an explicit
// ceiling.
const DefaultMemoryLimitMB = 256

// DefaultRuntimeArgs returns the sandbox flags a runtime gets when no explicit
// args are configured: a memory ceiling, matched to the executable. Bun has no
// hard heap cap flag; --smol switches it to the low-memory heap configuration.
func DefaultRuntimeArgs(runtimeType string) []string {
	switch runtimeType {
	case RuntimeTypeBun:
		return []string{"--smol"}
	case RuntimeTypeNode:
		return []string{fmt.Sprintf("--max-old-space-size=%d", DefaultMemoryLimitMB)}
	default:
		return nil
	}
}

// Config holds configuration for the converter runtime manager.
type Config struct {
	// RuntimeType selects the JavaScript executable, "bun" or "node".
	RuntimeType string
	// ExecutionTimeout is the hard wall-clock budget of one handle() call.
	ExecutionTimeout time.Duration
	// WorkerFilePerm is the mode of the worker script written to disk.
	WorkerFilePerm os.FileMode
	// RuntimeArgs are flags passed before the worker path. Nil selects
	// DefaultRuntimeArgs for the chosen runtime, so converters run under a
	// memory ceiling unless the host overrides the flags explicitly.
	RuntimeArgs []string
	// ProbeBackoff is the initial backoff of the availability probe run at
	// manager construction.
	ProbeBackoff time.Duration
	// ProbeMaxRetries bounds the availability probe.
	ProbeMaxRetries uint64
}

// Option configures the runtime manager.
type Option func(*Config)

// WithRuntimeType selects bun or node.
func WithRuntimeType(runtimeType string) Option {
	return func(c *Config) {
		c.RuntimeType = runtimeType
	}
}

// WithExecutionTimeout bounds each converter run.
func WithExecutionTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.ExecutionTimeout = timeout
	}
}

// WithWorkerFilePerm sets the worker script file mode.
func WithWorkerFilePerm(perm os.FileMode) Option {
	return func(c *Config) {
		c.WorkerFilePerm = perm
	}
}

// WithRuntimeArgs sets extra runtime flags.
func WithRuntimeArgs(args ...string) Option {
	return func(c *Config) {
		c.RuntimeArgs = args
	}
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() *Config {
	return &Config{
		RuntimeType:      RuntimeTypeBun,
		ExecutionTimeout: 30 * time.Second,
		WorkerFilePerm:   0600,
		RuntimeArgs:      nil,
		ProbeBackoff:     100 * time.Millisecond,
		ProbeMaxRetries:  2,
	}
}

// TestConfig returns a configuration with budgets short enough for tests.
func TestConfig() *Config {
	return &Config{
		RuntimeType:      RuntimeTypeBun,
		ExecutionTimeout: 2 * time.Second,
		WorkerFilePerm:   0600,
		ProbeBackoff:     10 * time.Millisecond,
		ProbeMaxRetries:  1,
	}
}

// MergeWithDefaults fills zero values of config with defaults, preserving
// everything the caller set. A nil config gets the full defaults. Runtime args
// are resolved against the merged runtime type, so selecting node picks up
// node's memory flag rather than bun's.
func MergeWithDefaults(config *Config) *Config {
	defaults := DefaultConfig()
	if config == nil {
		config = defaults
	}
	merged := *config
	if merged.RuntimeType == "" {
		merged.RuntimeType = defaults.RuntimeType
	}
	if merged.ExecutionTimeout == 0 {
		merged.ExecutionTimeout = defaults.ExecutionTimeout
	}
	if merged.WorkerFilePerm == 0 {
		merged.WorkerFilePerm = defaults.WorkerFilePerm
	}
	if merged.RuntimeArgs == nil {
		merged.RuntimeArgs = DefaultRuntimeArgs(merged.RuntimeType)
	}
	if merged.ProbeBackoff == 0 {
		merged.ProbeBackoff = defaults.ProbeBackoff
	}
	if merged.ProbeMaxRetries == 0 {
		merged.ProbeMaxRetries = defaults.ProbeMaxRetries
	}
	return &merged
}
