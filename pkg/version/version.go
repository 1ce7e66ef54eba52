//-------------------------------------------------------------------------
//
// pgEdge Superstore Warehouse
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package version provides build and version information for pgedge-superstore.
package version

import (
	"fmt"
	"runtime"
)

// SchemaVersion identifies the warehouse table layout written by the schema command.
// Bump it whenever a table, column or key changes.
const SchemaVersion = "3"

// Build information set at compile time via ldflags.
var (
	Version   = "1.0.0"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// Info returns formatted version information.
func Info() string {
	return fmt.Sprintf(
		"pgedge-superstore %s (schema: %s, commit: %s, built: %s, go: %s)",
		Version, SchemaVersion, Commit, BuildDate, runtime.Version(),
	)
}

// Short returns just the version string.
func Short() string {
	return Version
}
