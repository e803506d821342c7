package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/beetlebugorg/avc/internal/export"
)

func newExportCmd(a *app) *cobra.Command {
	var (
		dbPath    string
		noTables  bool
		recursive bool
		batchSize int
	)

	cmd := &cobra.Command{
		Use:   "export PATH...",
		Short: "Write coverage layers and INFO tables to a SQLite database",
		Long: `export writes each layer to a table named <coverage>_<layer> holding the
feature id, the geometry as WKT and one column per field. INFO tables that are
not joined to a layer (BND, TIC, user tables) are copied as well. The
avc_layers table lists the exported layers with their projections.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("database") {
				a.cfg.Database = dbPath
			}

			covs, err := a.openAll(args, recursive)
			if err != nil {
				return err
			}
			defer func() {
				for _, c := range covs {
					c.Close()
				}
			}()

			opts := export.DefaultOptions()
			opts.Tables = !noTables
			opts.Progress = !a.noProgress
			if batchSize > 0 {
				opts.BatchSize = batchSize
			}

			ex, err := export.Open(a.cfg.Database, opts)
			if err != nil {
				return err
			}
			defer ex.Close()

			var total export.Stats
			for _, c := range covs {
				stats, err := ex.Coverage(cmd.Context(), c)
				if err != nil {
					return fmt.Errorf("exporting %s: %w", c.Name(), err)
				}
				slog.Info("Exported coverage",
					"coverage", c.Name(),
					"layers", stats.Layers,
					"features", stats.Features,
					"tables", stats.Tables)
				total.Layers += stats.Layers
				total.Features += stats.Features
				total.Tables += stats.Tables
				total.Rows += stats.Rows
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d coverages (%d layers, %d features, %d tables) to %s\n",
				len(covs), total.Layers, total.Features, total.Tables, a.cfg.Database)
			return nil
		},
	}

	cmd.Flags().StringVarP(&dbPath, "database", "d", "", "database file path")
	cmd.Flags().BoolVar(&noTables, "no-tables", false, "skip INFO tables not joined to a layer")
	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "search directories for coverages")
	cmd.Flags().IntVar(&batchSize, "batch-size", 0, "rows per transaction")
	return cmd
}
