package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/application/reconcile"
	"github.com/spf13/cobra"
)

// RefreshOutput is the output of the refresh command
type RefreshOutput struct {
	*reconcile.RefreshResult
	Confirmed bool `json:"confirmed"`
	Written   int  `json:"written"`
}

// NewRefreshCommand creates the refresh command.
func NewRefreshCommand(rootOpts *RootOptions) *cobra.Command {
	var confirm bool
	cmd := &cobra.Command{
		Use:   "refresh <project-number>",
		Short: "Compare remote products with the stored ones",
		Long: `Fetch the products of a project from the external project system and
compare them with the stored products. Nothing is written unless --confirm is
given and the product lists differ; a confirmed refresh replaces every stored
product of the project.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rootOpts, func(ctx context.Context, app *App, out *OutputFormatter) error {
				return runRefresh(ctx, app, out, args[0], confirm)
			})
		},
	}
	cmd.Flags().BoolVar(&confirm, "confirm", false, "write staged changes")
	return cmd
}

func runRefresh(ctx context.Context, app *App, out *OutputFormatter, number string, confirm bool) error {
	p, err := app.Gateway.GetProjectByNumber(ctx, number)
	if err != nil {
		return exitFor("project "+number, err)
	}
	result, err := app.Reconcile.Refresh(ctx, p.ID)
	if err != nil {
		return exitFor("refresh failed", err)
	}

	output := RefreshOutput{RefreshResult: result}
	if confirm && result.CanConfirm {
		written, err := app.Reconcile.Confirm(ctx, p.ID)
		if err != nil {
			return exitFor("confirm failed", err)
		}
		output.Confirmed = true
		output.Written = written
	}

	return out.Result(output, func(w io.Writer) {
		fmt.Fprintf(w, "%s: %s (stored %d, remote %d)\n", number, result.Status, result.LocalCount, result.ExternalCount)
		switch {
		case output.Confirmed:
			fmt.Fprintf(w, "Wrote %d product(s)\n", output.Written)
		case result.CanConfirm:
			fmt.Fprintln(w, "Run again with --confirm to write the remote products")
		}
	})
}
