// Package cli wires the engine components into the routine command.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/routinehq/routine/engine/core"
	"github.com/routinehq/routine/engine/tool"
	"github.com/routinehq/routine/engine/tool/builtin"
	"github.com/routinehq/routine/pkg/config"
	"github.com/routinehq/routine/pkg/logger"
)

func RootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "routine",
		Short: "Define, validate, run, and synthesize automation workflows",
	}

	root.AddCommand(
		RunCmd(),
		SynthCmd(),
	)

	return root
}

// defaultContextSchema declares the context keys the CLI accepts via
// --context. Hosts embedding the engine supply their own schema.
func defaultContextSchema() core.ContextSchema {
	return core.ContextSchema{
		"telegramId": {
			Description: "Connect your Telegram account in the settings screen to provide it.",
		},
	}
}

// newCatalog builds the built-in tool registry from configuration.
func newCatalog(cfg *config.Config) (*tool.Registry, error) {
	registry := tool.NewRegistry()
	var binanceOpts []builtin.BinanceOption
	if cfg.Tools.BinanceBaseURL != "" {
		binanceOpts = append(binanceOpts, builtin.WithBaseURL(cfg.Tools.BinanceBaseURL))
	}
	if err := registry.Register(builtin.NewBinanceTool(binanceOpts...)); err != nil {
		return nil, err
	}
	return registry, nil
}

// newContext builds the command context carrying the configured logger.
func newContext(parent context.Context, cfg *config.Config) context.Context {
	log := logger.New(&logger.Config{
		Level: logger.LogLevel(cfg.Log.Level),
		JSON:  cfg.Log.JSON,
	})
	return logger.ContextWith(parent, log)
}
