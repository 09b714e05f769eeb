package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/oversight/domain/state"
)

// newWatchCmd creates the watch command.
func (a *App) newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Render the shared state on every change until interrupted",
		Long: `Watch subscribes to the engine and re-renders the state on every
notification, whether the change was made locally or replicated from another
process. Interrupt with Ctrl-C.`,
		Args: cobra.NoArgs,
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

			unsubscribe := engine.Subscribe(func(snapshot state.Snapshot) {
				fmt.Fprintln(a.stdout)
				renderSnapshot(a.stdout, snapshot)
			})
			defer unsubscribe()

			<-cmd.Context().Done()
			return nil
		},
	}
}
