package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// SyncResult is the output of the sync command
type SyncResult struct {
	Count int `json:"count"`
}

// NewSyncCommand creates the sync command.
func NewSyncCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Pull the remote project list into the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rootOpts, runSync)
		},
	}
}

func runSync(ctx context.Context, app *App, out *OutputFormatter) error {
	count, err := app.Gateway.SyncProjectsFromInnergy(ctx, func(p int) {
		out.VerboseLog("sync %3d%%", p)
	})
	if err != nil {
		return exitFor("sync failed", err)
	}
	return out.Result(SyncResult{Count: count}, func(w io.Writer) {
		fmt.Fprintf(w, "Synced %d project(s)\n", count)
	})
}
