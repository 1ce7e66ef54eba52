package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/pgEdge/pgedge-superstore/internal/export"
	"github.com/pgEdge/pgedge-superstore/internal/logging"
)

var exportOutput string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the warehouse to an Excel workbook",
	Long: `Write every warehouse table to an .xlsx workbook with one sheet per
table. Numeric columns are stored as numbers.

Example:
  pgedge-superstore export --output superstore.xlsx`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportOutput, "output", "",
		"workbook file to write")
}

func runExport(cmd *cobra.Command, args []string) error {
	if exportOutput != "" {
		cfg.Export.Output = exportOutput
	}

	// Validate configuration
	if err := cfg.ValidateExport(); err != nil {
		return err
	}

	ctx := context.Background()
	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	counts, err := export.WriteFile(ctx, store, cfg.Export.Output)
	if err != nil {
		return err
	}

	total := 0
	for _, n := range counts {
		total += n
	}
	logging.Info().
		Str("output", cfg.Export.Output).
		Int("sheets", len(counts)).
		Int("rows", total).
		Msg("Export complete")

	return nil
}
