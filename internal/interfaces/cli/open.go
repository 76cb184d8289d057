package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// NewOpenCommand creates the open command.
func NewOpenCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "open <project-number>",
		Short: "Open a project, creating and filling its store on first use",
		Long: `Open a catalog project the way the desktop client does.

The project store is created when missing. A new store is filled from the
external project system when credentials are configured. Failures while
filling or reading the store are reported as warnings.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rootOpts, func(ctx context.Context, app *App, out *OutputFormatter) error {
				return runOpen(ctx, app, out, args[0])
			})
		},
	}
}

func runOpen(ctx context.Context, app *App, out *OutputFormatter, number string) error {
	p, err := app.Gateway.GetProjectByNumber(ctx, number)
	if err != nil {
		return exitFor("project "+number, err)
	}
	result, err := app.Bootstrap.Activate(ctx, p)
	if err != nil {
		return exitFor("open failed", err)
	}

	return out.Result(result, func(w io.Writer) {
		fmt.Fprintf(w, "%s  %s\n", result.Project.Number, result.Project.Name)
		fmt.Fprintf(w, "  store existed: %t  ingested: %t\n", result.StoreExisted, result.Ingested)
		if result.Detail != nil {
			fmt.Fprintf(w, "  locations: %d  products: %d  callouts: %d\n",
				len(result.Detail.Locations), len(result.Detail.Products), result.Detail.Callouts.Count())
		}
		for _, warning := range result.Warnings {
			fmt.Fprintf(w, "  warning: %s\n", warning)
		}
	})
}
