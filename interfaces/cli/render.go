package cli

import (
	"fmt"
	"io"

	"github.com/felixgeelhaar/oversight/domain/state"
)

// renderSnapshot writes a human-readable view of the engine state.
func renderSnapshot(w io.Writer, snapshot state.Snapshot) {
	fmt.Fprintf(w, "Status:  %s\n", snapshot.Status)
	if snapshot.IsLoading {
		fmt.Fprintln(w, "Loading: yes")
	}
	if snapshot.Error != "" {
		fmt.Fprintf(w, "Error:   %s\n", snapshot.Error)
	}

	if record := snapshot.Action; record != nil {
		fmt.Fprintf(w, "Action:  %s (%s)\n", record.ActionID, record.Type)
		fmt.Fprintf(w, "  Reference:  %s\n", record.ReferenceID)
		fmt.Fprintf(w, "  Timestamp:  %s\n", record.Timestamp)
		fmt.Fprintf(w, "  Verified:   %s via %s\n", record.VerifiedBy, record.Evidence.VerifiedVia)
		fmt.Fprintf(w, "  Evidence:   %s / %s\n", record.Evidence.Log, record.Evidence.Snapshot)
		if record.ExecutedBy != "" {
			fmt.Fprintf(w, "  Executed by: %s\n", record.ExecutedBy)
		}
	}

	if len(snapshot.Logs) > 0 {
		fmt.Fprintln(w, "Trace:")
		for _, line := range snapshot.Logs {
			fmt.Fprintf(w, "  %s\n", line)
		}
	}
}
