package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"

	"github.com/routinehq/routine/engine/core"
	"github.com/routinehq/routine/engine/executor"
	"github.com/routinehq/routine/engine/runtime"
	"github.com/routinehq/routine/engine/tool"
	"github.com/routinehq/routine/engine/workflow"
	"github.com/routinehq/routine/pkg/config"
)

func RunCmd() *cobra.Command {
	var contextJSON string
	cmd := &cobra.Command{
		Use:   "run <workflow.yaml>",
		Short: "Execute a workflow definition and print the result as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			ctx := newContext(cmd.Context(), cfg)

			wf, err := loadWorkflow(args[0])
			if err != nil {
				return err
			}
			userCtx, err := parseUserContext(contextJSON)
			if err != nil {
				return err
			}

			catalog, err := newCatalog(cfg)
			if err != nil {
				return err
			}
			manager, err := runtime.NewManager(ctx, ".",
				runtime.WithRuntimeType(cfg.Runtime.Type),
				runtime.WithExecutionTimeout(cfg.Runtime.ExecutionTimeout),
			)
			if err != nil {
				return err
			}
			engine := tool.NewEngine(catalog, tool.WithCallTimeout(cfg.Tools.CallTimeout))
			exec := executor.New(engine, manager, defaultContextSchema())

			result, err := exec.Execute(ctx, wf, userCtx)
			if err != nil {
				return renderEngineError(cmd, err)
			}
			rendered, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(rendered))
			return nil
		},
	}
	cmd.Flags().StringVar(&contextJSON, "context", "", "user context as a JSON object, e.g. '{\"telegramId\": 123}'")
	return cmd
}

func loadWorkflow(path string) (*workflow.Workflow, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read workflow file: %w", err)
	}
	var wf workflow.Workflow
	if err := yaml.Unmarshal(raw, &wf); err != nil {
		return nil, fmt.Errorf("failed to parse workflow file: %w", err)
	}
	return &wf, nil
}

func parseUserContext(contextJSON string) (core.Context, error) {
	if contextJSON == "" {
		return core.Context{}, nil
	}
	var userCtx core.Context
	if err := json.Unmarshal([]byte(contextJSON), &userCtx); err != nil {
		return nil, fmt.Errorf("invalid --context value: %w", err)
	}
	return userCtx, nil
}

// renderEngineError prefers the human-readable rendering of engine errors.
func renderEngineError(cmd *cobra.Command, err error) error {
	var refErr *core.ReferenceError
	if errors.As(err, &refErr) {
		fmt.Fprintln(cmd.ErrOrStderr(), refErr.HumanReadableMessage())
	}
	return err
}
