//-------------------------------------------------------------------------
//
// pgEdge Superstore Warehouse
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package postgres implements the warehouse on PostgreSQL using pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/pgEdge/pgedge-superstore/internal/config"
	"github.com/pgEdge/pgedge-superstore/internal/db"
	"github.com/pgEdge/pgedge-superstore/internal/logging"
	"github.com/pgEdge/pgedge-superstore/internal/warehouse"
)

// SQLSTATE codes handled by classify.
const (
	foreignKeyViolation = "23503"
	lockNotAvailable    = "55P03"
)

var dialect = warehouse.Postgres

func init() {
	warehouse.Register(config.DriverPostgres, open)
}

func open(ctx context.Context, cfg config.DatabaseConfig) (warehouse.Store, error) {
	pool, err := db.Connect(ctx, cfg.DSN())
	if err != nil {
		return nil, err
	}
	return New(pool), nil
}

// DB is satisfied by both *pgxpool.Pool and pgx.Tx.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store implements warehouse.Store on a pgx pool.
type Store struct {
	pool *pgxpool.Pool
}

// New wraps an existing pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Driver returns "postgres".
func (s *Store) Driver() string { return config.DriverPostgres }

// Close closes the pool.
func (s *Store) Close() { s.pool.Close() }

// CreateSchema creates every table that does not exist yet.
func (s *Store) CreateSchema(ctx context.Context) error {
	tables := append(warehouse.Tables(), warehouse.Metadata())
	for _, t := range tables {
		if _, err := s.pool.Exec(ctx, dialect.CreateTableSQL(t)); err != nil {
			return warehouse.Wrap("create table", t.Name, nil, err)
		}
		logging.Debug().Str("table", t.Name).Msg("Created table")
	}
	return nil
}

// DropSchema drops every table in reverse dependency order.
func (s *Store) DropSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, dialect.DropTableSQL(warehouse.Metadata())); err != nil {
		return warehouse.Wrap("drop table", warehouse.MetadataTable, nil, err)
	}
	tables := warehouse.Tables()
	for i := len(tables) - 1; i >= 0; i-- {
		if _, err := s.pool.Exec(ctx, dialect.DropTableSQL(tables[i])); err != nil {
			return warehouse.Wrap("drop table", tables[i].Name, nil, err)
		}
	}
	return nil
}

// RunInTx runs fn inside a transaction, committing on success.
func (s *Store) RunInTx(ctx context.Context, fn func(tx warehouse.Tx) error) error {
	fnFailed := false
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if err := fn(&pgTx{tx: tx}); err != nil {
			fnFailed = true
			return err
		}
		return nil
	})
	if err == nil || fnFailed {
		return err
	}
	// Begin or commit failed.
	return warehouse.Wrap("transaction", "", classify(err), err)
}

// Dump returns every row of a table as text, ordered by primary key.
func (s *Store) Dump(ctx context.Context, table string) ([]string, [][]string, error) {
	t, ok := warehouse.Lookup(table)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", warehouse.ErrUnknownTable, table)
	}
	rows, err := queryText(ctx, s.pool, t)
	if err != nil {
		return nil, nil, err
	}
	return t.ColumnNames(), rows, nil
}

// Metadata returns the metadata table as a map.
func (s *Store) Metadata(ctx context.Context) (map[string]string, error) {
	rows, err := queryText(ctx, s.pool, warehouse.Metadata())
	if err != nil {
		return nil, err
	}
	meta := make(map[string]string, len(rows))
	for _, r := range rows {
		meta[r[0]] = r[1]
	}
	return meta, nil
}

func queryText(ctx context.Context, q DB, t warehouse.Table) ([][]string, error) {
	rows, err := q.Query(ctx, dialect.SelectTextSQL(t))
	if err != nil {
		return nil, warehouse.Wrap("select", t.Name, classify(err), err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) ([]string, error) {
		vals := make([]string, len(t.Columns))
		ptrs := make([]any, len(vals))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		err := row.Scan(ptrs...)
		return vals, err
	})
	if err != nil {
		return nil, warehouse.Wrap("select", t.Name, classify(err), err)
	}
	return out, nil
}

type pgTx struct {
	tx pgx.Tx
}

func (t *pgTx) LoadDimension(ctx context.Context, table warehouse.Table) ([][]string, error) {
	return queryText(ctx, t.tx, table)
}

func (t *pgTx) InsertDimension(ctx context.Context, table warehouse.Table, values []any) (int64, error) {
	args, err := convertRow(values)
	if err != nil {
		return 0, err
	}
	query := dialect.InsertSQL(table, table.InsertColumns(), 1) +
		" RETURNING " + dialect.Quote(table.KeyColumn())

	var id int64
	if err := t.tx.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return 0, warehouse.Wrap("insert", table.Name, classify(err), err)
	}
	return id, nil
}

func (t *pgTx) TruncateFacts(ctx context.Context) error {
	tables := warehouse.ReverseFacts()
	names := make([]string, len(tables))
	for i, table := range tables {
		names[i] = dialect.Quote(table.Name)
	}
	if _, err := t.tx.Exec(ctx, "TRUNCATE TABLE "+strings.Join(names, ", ")); err != nil {
		return warehouse.Wrap("truncate", "facts", classify(err), err)
	}
	return nil
}

func (t *pgTx) InsertRows(ctx context.Context, table warehouse.Table, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	columns := table.ColumnNames()
	src := pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
		if len(rows[i]) != len(columns) {
			return nil, fmt.Errorf("row has %d values, want %d", len(rows[i]), len(columns))
		}
		return convertRow(rows[i])
	})

	n, err := t.tx.CopyFrom(ctx, pgx.Identifier{table.Name}, columns, src)
	if err != nil {
		return n, warehouse.Wrap("copy", table.Name, classify(err), err)
	}
	return n, nil
}

func (t *pgTx) SaveMetadata(ctx context.Context, values map[string]string) error {
	query := fmt.Sprintf(`
        INSERT INTO %s (name, value) VALUES ($1, $2)
        ON CONFLICT (name) DO UPDATE SET value = EXCLUDED.value
    `, warehouse.MetadataTable)

	for key, value := range values {
		if _, err := t.tx.Exec(ctx, query, key, value); err != nil {
			return warehouse.Wrap("save metadata", key, classify(err), err)
		}
	}
	return nil
}

func convertRow(values []any) ([]any, error) {
	out := make([]any, len(values))
	for i, v := range values {
		d, ok := v.(decimal.Decimal)
		if !ok {
			out[i] = v
			continue
		}
		var n pgtype.Numeric
		if err := n.Scan(d.StringFixed(2)); err != nil {
			return nil, fmt.Errorf("convert %s to numeric: %w", d, err)
		}
		out[i] = n
	}
	return out, nil
}

// classify maps a driver error to a warehouse error kind. Errors the
// server raised for the statement itself (data too long, numeric overflow,
// unique violations) have no kind and are not retried.
func classify(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == foreignKeyViolation:
			return warehouse.ErrForeignKey
		case pgErr.Code == lockNotAvailable,
			strings.HasPrefix(pgErr.Code, "08"),  // connection exception
			strings.HasPrefix(pgErr.Code, "40"),  // transaction rollback
			strings.HasPrefix(pgErr.Code, "57P"): // operator intervention
			return warehouse.ErrTransient
		}
		return nil
	}
	if pgconn.Timeout(err) || warehouse.ConnectionLost(err) {
		return warehouse.ErrTransient
	}
	return nil
}
