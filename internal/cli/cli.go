//-------------------------------------------------------------------------
//
// pgEdge Superstore Warehouse
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package cli implements the command-line interface for pgedge-superstore.
package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pgEdge/pgedge-superstore/internal/config"
	"github.com/pgEdge/pgedge-superstore/internal/logging"
	"github.com/pgEdge/pgedge-superstore/internal/warehouse"
	"github.com/pgEdge/pgedge-superstore/pkg/version"
)

var (
	// Global flags
	cfgFile    string
	driver     string
	connection string
	logLevel   string

	// Global config
	cfg *config.Config

	rootCmd = &cobra.Command{
		Use:   "pgedge-superstore",
		Short: "Superstore star-schema warehouse loader",
		Long: `pgedge-superstore builds and populates a star-schema warehouse from the
flat "Superstore" retail extract.

Source rows are resolved into conformed dimensions (calendar, customer,
geography, product, shipping), loaded into line-item and order facts, and
rolled up into monthly, cumulative and shipping summary facts. Each load
rebuilds every fact table inside a single transaction.

Supported warehouses: PostgreSQL, MySQL and SQLite.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default: ./pgedge-superstore.yaml)")
	rootCmd.PersistentFlags().StringVar(&driver, "driver", "",
		"warehouse driver (postgres, mysql, sqlite)")
	rootCmd.PersistentFlags().StringVar(&connection, "connection", "",
		"driver-specific connection string")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"log level (debug, info, warn, error)")

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(tablesCmd)
	rootCmd.AddCommand(schemaCmd)
	rootCmd.AddCommand(loadCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(exportCmd)
}

func initConfig() error {
	if err := config.LoadDotEnv(""); err != nil {
		return err
	}

	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return err
	}

	// Override with CLI flags
	if driver != "" {
		cfg.Database.Driver = driver
	}
	if connection != "" {
		cfg.Database.Connection = connection
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	// Reinitialize logger with config
	logging.Init(logging.Config{
		Level:  cfg.LogLevel,
		Pretty: true,
	})

	return nil
}

// openStore connects to the configured warehouse.
func openStore(ctx context.Context) (warehouse.Store, error) {
	store, err := warehouse.Open(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to warehouse: %w", err)
	}
	return store, nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Println(version.Info())
	},
}

var tablesCmd = &cobra.Command{
	Use:   "tables",
	Short: "List warehouse tables",
	Long: `List the warehouse tables in load order with their grain and keys.
Dimensions are loaded first, then grain facts, then summary facts.`,
	Run: func(cmd *cobra.Command, args []string) {
		kind := ""
		for _, t := range warehouse.Tables() {
			if k := t.Kind.String(); k != kind {
				kind = k
				cmd.Println()
				cmd.Printf("%s tables:\n", strings.ToUpper(k[:1])+k[1:])
			}
			cmd.Printf("  %-20s %-45s key: %s\n", t.Name, t.Grain, strings.Join(t.PrimaryKey, ", "))
		}
		cmd.Println()
		cmd.Printf("Registered drivers: %s\n", strings.Join(warehouse.Drivers(), ", "))
	},
}
