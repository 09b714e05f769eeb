package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newClearCmd creates the clear command.
func (a *App) newClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Reset the shared persisted state",
		Args:  cobra.NoArgs,
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

			engine.Clear(cmd.Context())
			fmt.Fprintln(a.stdout, "State cleared.")
			return nil
		},
	}
}
