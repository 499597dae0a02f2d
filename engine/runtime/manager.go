package runtime

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/sethvargo/go-retry"

	"github.com/routinehq/routine/engine/core"
	"github.com/routinehq/routine/pkg/logger"
)

// Runtime executes converter code in isolation and returns the resolved value
// of handle(input).
type Runtime interface {
	Execute(ctx context.Context, code string, input any) (any, error)
}

// Manager implements Runtime by spawning one short-lived worker process per
// execution. Per-call processes keep converters isolated from each other: no
// state leaks from one run into the next, and a hung converter is killed by
// its own deadline without poisoning a shared pool.
type Manager struct {
	config     *Config
	execPath   string
	workerPath string
}

// WithTestConfig applies the short-budget test configuration wholesale.
func WithTestConfig() Option {
	return func(c *Config) {
		*c = *TestConfig()
	}
}

// NewManager locates the configured JavaScript runtime, probes it, and writes
// the worker script under the store dir of projectRoot.
func NewManager(ctx context.Context, projectRoot string, opts ...Option) (*Manager, error) {
	config := DefaultConfig()
	for _, opt := range opts {
		opt(config)
	}
	config = MergeWithDefaults(config)
	execPath, err := exec.LookPath(config.RuntimeType)
	if err != nil {
		return nil, fmt.Errorf("%s executable not found in PATH: %w", config.RuntimeType, err)
	}
	if err := probeRuntime(ctx, execPath, config); err != nil {
		return nil, err
	}
	workerPath, err := writeWorkerFile(projectRoot, config.WorkerFilePerm)
	if err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Debug("converter runtime ready", "runtime", config.RuntimeType, "worker", workerPath)
	return &Manager{config: config, execPath: execPath, workerPath: workerPath}, nil
}

// probeRuntime verifies the executable actually answers, retrying with
// exponential backoff to ride out cold starts.
func probeRuntime(ctx context.Context, execPath string, config *Config) error {
	backoff := retry.WithMaxRetries(config.ProbeMaxRetries, retry.NewExponential(config.ProbeBackoff))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		probe := exec.CommandContext(ctx, execPath, "--version")
		if err := probe.Run(); err != nil {
			return retry.RetryableError(fmt.Errorf("runtime probe failed: %w", err))
		}
		return nil
	})
}

func writeWorkerFile(projectRoot string, perm os.FileMode) (string, error) {
	storeDir := core.GetStoreDir(projectRoot)
	if err := os.MkdirAll(storeDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create store dir: %w", err)
	}
	workerPath := filepath.Join(storeDir, workerFileName)
	if err := os.WriteFile(workerPath, []byte(workerScript), perm); err != nil {
		return "", fmt.Errorf("failed to write worker file: %w", err)
	}
	return workerPath, nil
}

// Execute runs handle(input) from code inside a fresh worker process. The
// worker sees only the serialized request on stdin and a minimal environment;
// host env vars never reach converter code.
func (m *Manager) Execute(ctx context.Context, code string, input any) (any, error) {
	payload, err := json.Marshal(workerRequest{Code: code, Input: input})
	if err != nil {
		return nil, core.NewConverterError(core.PhaseCompile, "converter input is not JSON-serializable", err)
	}
	execCtx, cancel := context.WithTimeout(ctx, m.config.ExecutionTimeout)
	defer cancel()
	args := append(append([]string{}, m.config.RuntimeArgs...), m.workerPath)
	cmd := exec.CommandContext(execCtx, m.execPath, args...)
	cmd.Stdin = bytes.NewReader(payload)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.Env = []string{"PATH=" + os.Getenv("PATH")}
	runErr := cmd.Run()
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if errors.Is(execCtx.Err(), context.DeadlineExceeded) {
		detail := fmt.Sprintf("converter exceeded the %s execution budget", m.config.ExecutionTimeout)
		return nil, core.NewConverterError(core.PhaseTimeout, detail, execCtx.Err())
	}
	return decodeResponse(stdout.Bytes(), stderr.Bytes(), runErr)
}

func decodeResponse(stdout []byte, stderr []byte, runErr error) (any, error) {
	var response workerResponse
	if err := json.Unmarshal(stdout, &response); err != nil {
		detail := strings.TrimSpace(string(stderr))
		if detail == "" {
			detail = "worker produced no parseable response"
		}
		if runErr == nil {
			runErr = err
		}
		return nil, core.NewConverterError(core.PhaseRuntime, detail, runErr)
	}
	if !response.OK {
		phase := core.ConverterPhase(response.Phase)
		switch phase {
		case core.PhaseCompile, core.PhaseRuntime, core.PhaseTimeout:
		default:
			phase = core.PhaseRuntime
		}
		return nil, core.NewConverterError(phase, response.Error, nil)
	}
	return response.Result, nil
}
