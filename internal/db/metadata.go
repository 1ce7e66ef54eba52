//-------------------------------------------------------------------------
//
// pgEdge Superstore Warehouse
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package db

import (
	"fmt"
	"strconv"
	"time"

	"github.com/pgEdge/pgedge-superstore/internal/warehouse"
	"github.com/pgEdge/pgedge-superstore/pkg/version"
)

// SchemaMetadata returns the entries recorded when the schema is created.
func SchemaMetadata(now time.Time) map[string]string {
	return map[string]string{
		warehouse.MetaSchemaVersion: version.SchemaVersion,
		warehouse.MetaCreatedAt:     now.UTC().Format(time.RFC3339),
		"version":                   version.Short(),
	}
}

// RunMetadata returns the entries recorded at the end of a load run.
func RunMetadata(now time.Time, source string, sourceRows int, duration time.Duration,
	counts map[string]int64) map[string]string {
	meta := map[string]string{
		warehouse.MetaLastRunAt:  now.UTC().Format(time.RFC3339),
		warehouse.MetaSource:     source,
		warehouse.MetaSourceRows: strconv.Itoa(sourceRows),
		warehouse.MetaDuration:   strconv.FormatInt(duration.Milliseconds(), 10),
		"version":                version.Short(),
	}
	for table, n := range counts {
		meta[warehouse.MetaCountPrefix+table] = strconv.FormatInt(n, 10)
	}
	return meta
}

// CheckSchemaVersion returns an error if the metadata was written by a
// schema of a different version.
func CheckSchemaVersion(meta map[string]string) error {
	got, ok := meta[warehouse.MetaSchemaVersion]
	if !ok {
		return fmt.Errorf("warehouse has no schema version; run 'pgedge-superstore schema' first")
	}
	if got != version.SchemaVersion {
		return fmt.Errorf("warehouse schema version %s does not match expected %s; "+
			"use 'pgedge-superstore schema --drop-existing' to recreate it",
			got, version.SchemaVersion)
	}
	return nil
}
