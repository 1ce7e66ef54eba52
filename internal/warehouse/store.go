//-------------------------------------------------------------------------
//
// pgEdge Superstore Warehouse
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package warehouse

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/pgEdge/pgedge-superstore/internal/config"
)

// DateLayout is the canonical text form of a DATE value.
const DateLayout = "2006-01-02"

// Metadata keys written by schema creation and load runs.
const (
	MetaSchemaVersion = "schema_version"
	MetaCreatedAt     = "created_at"
	MetaLastRunAt     = "last_run_at"
	MetaSource        = "source"
	MetaDuration      = "duration_ms"
	MetaSourceRows    = "source_rows"
	MetaCountPrefix   = "rows."
)

// Store is a warehouse backend.
type Store interface {
	// Driver returns the registered driver name.
	Driver() string

	// CreateSchema creates every table (and the metadata table) if missing.
	CreateSchema(ctx context.Context) error

	// DropSchema drops every table in reverse dependency order.
	DropSchema(ctx context.Context) error

	// RunInTx runs fn in one transaction. The transaction is committed when
	// fn returns nil and rolled back otherwise.
	RunInTx(ctx context.Context, fn func(tx Tx) error) error

	// Dump returns the column names and every row of a table rendered as
	// text, ordered by primary key.
	Dump(ctx context.Context, table string) ([]string, [][]string, error)

	// Metadata returns the contents of the metadata table.
	Metadata(ctx context.Context) (map[string]string, error)

	Close()
}

// Tx is the write surface available inside a load transaction.
//
// Values passed to InsertDimension and InsertRows are int, int64, string,
// time.Time (dates) or decimal.Decimal (money and fractions); backends
// convert them to their driver representation.
type Tx interface {
	// LoadDimension returns every row of a dimension as text, in column order.
	LoadDimension(ctx context.Context, t Table) ([][]string, error)

	// InsertDimension inserts one dimension row (values in InsertColumns
	// order) and returns the surrogate key assigned by the database.
	InsertDimension(ctx context.Context, t Table, values []any) (int64, error)

	// TruncateFacts empties every fact and summary table.
	TruncateFacts(ctx context.Context) error

	// InsertRows bulk inserts rows with values for every column of t.
	InsertRows(ctx context.Context, t Table, rows [][]any) (int64, error)

	// SaveMetadata upserts metadata entries.
	SaveMetadata(ctx context.Context, values map[string]string) error
}

// Factory opens a Store for a database configuration.
type Factory func(ctx context.Context, cfg config.DatabaseConfig) (Store, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register adds a backend under a driver name. It is called from the
// init function of each backend package and panics on duplicates.
func Register(driver string, f Factory) {
	mu.Lock()
	defer mu.Unlock()

	if driver == "" {
		panic("warehouse: Register called with empty driver")
	}
	if f == nil {
		panic("warehouse: Register called with nil factory")
	}
	if _, exists := factories[driver]; exists {
		panic(fmt.Sprintf("warehouse: backend already registered for driver=%q", driver))
	}
	factories[driver] = f
}

// Open connects to the warehouse using the backend registered for
// cfg.Driver.
func Open(ctx context.Context, cfg config.DatabaseConfig) (Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	mu.RLock()
	f := factories[cfg.Driver]
	mu.RUnlock()

	if f == nil {
		return nil, fmt.Errorf("no warehouse backend registered for driver %q", cfg.Driver)
	}
	return f(ctx, cfg)
}

// Drivers returns the registered driver names, sorted.
func Drivers() []string {
	mu.RLock()
	defer mu.RUnlock()

	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
