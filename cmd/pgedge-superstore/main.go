// Package main is the entry point for pgedge-superstore.
package main

import (
	"fmt"
	"os"

	"github.com/pgEdge/pgedge-superstore/internal/cli"

	// Register warehouse backends
	_ "github.com/pgEdge/pgedge-superstore/internal/warehouse/postgres"
	_ "github.com/pgEdge/pgedge-superstore/internal/warehouse/sqlstore"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
