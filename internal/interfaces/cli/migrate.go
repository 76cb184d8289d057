package cli

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"
)

// MigrateResult is the output of the migrate command
type MigrateResult struct {
	Stores []StoreMigration `json:"stores"`
	Errors []string         `json:"errors,omitempty"`
}

// StoreMigration lists the columns added to one store
type StoreMigration struct {
	Path    string   `json:"path"`
	Skipped bool     `json:"skipped,omitempty"`
	Added   []string `json:"added"`
}

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Bring the catalog and every project store to the current schema",
		Long: `Create missing tables and add missing columns. The catalog is migrated
when it is opened; every store in the stores directory is migrated after
that. Existing data is never dropped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rootOpts, runMigrate)
		},
	}
}

func runMigrate(ctx context.Context, app *App, out *OutputFormatter) error {
	reports, migrateErr := app.Gateway.MigrateStores(ctx)

	result := MigrateResult{Stores: []StoreMigration{}}
	for path, report := range reports {
		entry := StoreMigration{Path: path, Skipped: report.Skipped, Added: []string{}}
		for _, col := range report.Added {
			entry.Added = append(entry.Added, col.Table+"."+col.Column)
		}
		result.Stores = append(result.Stores, entry)
	}
	sort.Slice(result.Stores, func(i, j int) bool { return result.Stores[i].Path < result.Stores[j].Path })
	if migrateErr != nil {
		result.Errors = append(result.Errors, migrateErr.Error())
	}

	if err := out.Result(result, func(w io.Writer) {
		fmt.Fprintf(w, "Migrated %d store(s)\n", len(result.Stores))
		for _, s := range result.Stores {
			if len(s.Added) > 0 {
				fmt.Fprintf(w, "  %s: added %v\n", s.Path, s.Added)
			}
		}
	}); err != nil {
		return err
	}
	if migrateErr != nil {
		return WrapExitError(ExitFailure, "some stores failed to migrate", migrateErr)
	}
	return nil
}
