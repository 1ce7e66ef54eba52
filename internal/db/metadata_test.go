package db

import (
	"strings"
	"testing"
	"time"

	"github.com/pgEdge/pgedge-superstore/internal/warehouse"
	"github.com/pgEdge/pgedge-superstore/pkg/version"
)

func TestSchemaMetadata(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	meta := SchemaMetadata(now)

	if meta[warehouse.MetaSchemaVersion] != version.SchemaVersion {
		t.Errorf("Expected schema version %s, got %q", version.SchemaVersion, meta[warehouse.MetaSchemaVersion])
	}
	if meta[warehouse.MetaCreatedAt] != "2026-03-01T12:00:00Z" {
		t.Errorf("Unexpected created_at %q", meta[warehouse.MetaCreatedAt])
	}
	if err := CheckSchemaVersion(meta); err != nil {
		t.Errorf("CheckSchemaVersion() error = %v", err)
	}
}

func TestRunMetadata(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	meta := RunMetadata(now, "superstore.csv", 9994, 1500*time.Millisecond,
		map[string]int64{warehouse.TableItem: 9986})

	tests := map[string]string{
		warehouse.MetaSource:                            "superstore.csv",
		warehouse.MetaSourceRows:                        "9994",
		warehouse.MetaDuration:                          "1500",
		warehouse.MetaLastRunAt:                         "2026-03-01T12:00:00Z",
		warehouse.MetaCountPrefix + warehouse.TableItem: "9986",
	}
	for key, want := range tests {
		if got := meta[key]; got != want {
			t.Errorf("meta[%q] = %q, want %q", key, got, want)
		}
	}
}

func TestCheckSchemaVersion(t *testing.T) {
	if err := CheckSchemaVersion(map[string]string{}); err == nil {
		t.Error("Expected error for missing schema version")
	}

	err := CheckSchemaVersion(map[string]string{warehouse.MetaSchemaVersion: "0"})
	if err == nil {
		t.Fatal("Expected error for mismatched schema version")
	}
	if !strings.Contains(err.Error(), "--drop-existing") {
		t.Errorf("Expected hint about --drop-existing, got %v", err)
	}
}
