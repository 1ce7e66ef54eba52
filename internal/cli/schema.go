package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pgEdge/pgedge-superstore/internal/db"
	"github.com/pgEdge/pgedge-superstore/internal/logging"
	"github.com/pgEdge/pgedge-superstore/internal/warehouse"
	"github.com/pgEdge/pgedge-superstore/pkg/version"
)

var schemaDropExisting bool

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Create the warehouse tables",
	Long: `Create every dimension, fact and summary table of the warehouse, plus
the metadata table, and record the schema version.

Existing tables are kept unless --drop-existing is given, in which case all
tables are dropped (summaries first) and recreated empty.

Example:
  pgedge-superstore schema --driver sqlite
  pgedge-superstore schema --drop-existing --connection "postgres://..."`,
	RunE: runSchema,
}

func init() {
	schemaCmd.Flags().BoolVar(&schemaDropExisting, "drop-existing", false,
		"drop existing tables before creating them")
}

func runSchema(cmd *cobra.Command, args []string) error {
	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx := context.Background()
	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	logging.Info().
		Str("driver", store.Driver()).
		Bool("drop_existing", schemaDropExisting).
		Msg("Preparing warehouse schema")

	// Refuse to silently mix layouts.
	if !schemaDropExisting {
		if meta, err := store.Metadata(ctx); err == nil {
			if got, ok := meta[warehouse.MetaSchemaVersion]; ok && got != version.SchemaVersion {
				return fmt.Errorf(
					"warehouse has schema version %s but this build writes %s; "+
						"use --drop-existing to recreate it",
					got, version.SchemaVersion)
			}
		} else {
			logging.Debug().Err(err).Msg("No existing metadata")
		}
	}

	if schemaDropExisting {
		logging.Info().Msg("Dropping existing tables")
		if err := store.DropSchema(ctx); err != nil {
			return fmt.Errorf("failed to drop schema: %w", err)
		}
	}

	logging.Info().Msg("Creating tables")
	if err := store.CreateSchema(ctx); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	err = store.RunInTx(ctx, func(tx warehouse.Tx) error {
		return tx.SaveMetadata(ctx, db.SchemaMetadata(time.Now()))
	})
	if err != nil {
		return fmt.Errorf("failed to save metadata: %w", err)
	}

	logging.Info().
		Int("tables", len(warehouse.Tables())).
		Str("schema_version", version.SchemaVersion).
		Msg("Warehouse schema ready")

	return nil
}
