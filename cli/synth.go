package cli

import (
	"fmt"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"

	"github.com/routinehq/routine/engine/agent"
	"github.com/routinehq/routine/pkg/config"
)

func SynthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "synth <goal>",
		Short: "Synthesize a validated workflow from a natural-language goal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			ctx := newContext(cmd.Context(), cfg)

			catalog, err := newCatalog(cfg)
			if err != nil {
				return err
			}
			model, err := agent.NewModel(&agent.ProviderConfig{
				Provider: agent.Provider(cfg.Agent.Provider),
				Model:    cfg.Agent.Model,
				APIKey:   cfg.Agent.APIKey,
				APIURL:   cfg.Agent.APIURL,
			})
			if err != nil {
				return err
			}
			synthesizer := agent.New(model, catalog, defaultContextSchema(),
				agent.WithMaxAttempts(cfg.Agent.MaxAttempts))

			wf, err := synthesizer.Synthesize(ctx, args[0])
			if err != nil {
				return err
			}
			rendered, err := yaml.Marshal(wf)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), string(rendered))
			return nil
		},
	}
	return cmd
}
