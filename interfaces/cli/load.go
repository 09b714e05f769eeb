package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// newLoadCmd creates the load command.
func (a *App) newLoadCmd() *cobra.Command {
	var (
		actor  string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "load <reference-id>",
		Short: "Load an action record and print the resulting state",
		Long: `Load runs the full workflow for one reference ID: validation, simulated
retrieval, verification, and display. The resulting state is persisted and
replicated to every other watching process before the command exits.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}

			engine, err := a.buildEngine(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer engine.Close()

			loadErr := engine.LoadAction(cmd.Context(), args[0], actor)
			snapshot := engine.GetState()

			if asJSON {
				enc := json.NewEncoder(a.stdout)
				enc.SetIndent("", "  ")
				if err := enc.Encode(snapshot); err != nil {
					return err
				}
			} else {
				renderSnapshot(a.stdout, snapshot)
			}

			if loadErr != nil {
				return fmt.Errorf("load failed: %w", loadErr)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&actor, "actor", "", "actor identity recorded (masked) on the action")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the final state as JSON")

	return cmd
}
