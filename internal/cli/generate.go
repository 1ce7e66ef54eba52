package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pgEdge/pgedge-superstore/internal/datagen"
	"github.com/pgEdge/pgedge-superstore/internal/logging"
	"github.com/pgEdge/pgedge-superstore/internal/source"
)

var (
	generateRows   int
	generateSeed   uint64
	generateOutput string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a synthetic Superstore extract",
	Long: `Generate a CSV file with the same columns as the Superstore extract,
filled with reproducible fake orders. The output can be fed to 'load'.

Example:
  pgedge-superstore generate --rows 50000 --seed 7 --output superstore.csv`,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().IntVar(&generateRows, "rows", 0,
		"number of line items to generate")
	generateCmd.Flags().Uint64Var(&generateSeed, "seed", 0,
		"random seed")
	generateCmd.Flags().StringVar(&generateOutput, "output", "",
		"CSV file to write")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	// Override config with CLI flags
	if generateRows > 0 {
		cfg.Generate.Rows = generateRows
	}
	if cmd.Flags().Changed("seed") {
		cfg.Generate.Seed = generateSeed
	}
	if generateOutput != "" {
		cfg.Generate.Output = generateOutput
	}

	// Validate configuration
	if err := cfg.ValidateGenerate(); err != nil {
		return err
	}

	logging.Info().
		Int("rows", cfg.Generate.Rows).
		Uint64("seed", cfg.Generate.Seed).
		Str("output", cfg.Generate.Output).
		Msg("Generating extract")

	gen, err := datagen.NewGenerator(datagen.Config{
		Rows:             cfg.Generate.Rows,
		Seed:             cfg.Generate.Seed,
		StartYear:        cfg.Generate.StartYear,
		Years:            cfg.Generate.Years,
		ProgressInterval: cfg.Load.ProgressInterval,
	})
	if err != nil {
		return err
	}

	records, err := gen.Generate(context.Background())
	if err != nil {
		return fmt.Errorf("failed to generate extract: %w", err)
	}

	if err := source.WriteFile(cfg.Generate.Output, records); err != nil {
		return err
	}

	logging.Info().
		Int("rows", len(records)).
		Str("output", cfg.Generate.Output).
		Msg("Extract written")

	return nil
}
