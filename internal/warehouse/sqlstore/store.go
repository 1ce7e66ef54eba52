//-------------------------------------------------------------------------
//
// pgEdge Superstore Warehouse
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package sqlstore implements the warehouse on database/sql for the MySQL
// and SQLite drivers.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"
	"modernc.org/sqlite"

	"github.com/pgEdge/pgedge-superstore/internal/config"
	"github.com/pgEdge/pgedge-superstore/internal/db"
	"github.com/pgEdge/pgedge-superstore/internal/logging"
	"github.com/pgEdge/pgedge-superstore/internal/warehouse"
)

// insertBatchRows bounds the number of value tuples per INSERT statement.
const insertBatchRows = 200

const (
	mysqlErrLockWaitTimeout = 1205
	mysqlErrDeadlock        = 1213
	mysqlErrNoReferencedRow = 1452
	mysqlErrRowIsReferenced = 1451
	sqliteBusy              = 5
	sqliteLocked            = 6
	sqliteConstraintFK      = 787 // SQLITE_CONSTRAINT_FOREIGNKEY
)

// foreignKeysPragma turns on foreign key enforcement, which SQLite leaves
// off per connection unless asked.
const foreignKeysPragma = "_pragma=foreign_keys(1)"

func init() {
	warehouse.Register(config.DriverSQLite, openSQLite)
	warehouse.Register(config.DriverMySQL, openMySQL)
}

func openSQLite(ctx context.Context, cfg config.DatabaseConfig) (warehouse.Store, error) {
	conn, err := db.OpenSQL(ctx, "sqlite", sqliteDSN(cfg.DSN()), 1)
	if err != nil {
		return nil, err
	}

	var enabled int
	if err := conn.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&enabled); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to check foreign key enforcement: %w", err)
	}
	if enabled != 1 {
		_ = conn.Close()
		return nil, fmt.Errorf("sqlite connection has foreign key enforcement disabled")
	}
	return New(conn, warehouse.SQLite), nil
}

// sqliteDSN makes sure every connection opened from dsn enforces foreign
// keys, including connection strings given verbatim by the user.
func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, foreignKeysPragma) {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&" + foreignKeysPragma
	}
	return dsn + "?" + foreignKeysPragma
}

func openMySQL(ctx context.Context, cfg config.DatabaseConfig) (warehouse.Store, error) {
	conn, err := db.OpenSQL(ctx, "mysql", cfg.DSN(), 4)
	if err != nil {
		return nil, err
	}
	return New(conn, warehouse.MySQL), nil
}

// Store implements warehouse.Store over database/sql.
type Store struct {
	db      *sql.DB
	dialect warehouse.Dialect
}

// New wraps an open handle. The dialect must match the driver.
func New(conn *sql.DB, dialect warehouse.Dialect) *Store {
	return &Store{db: conn, dialect: dialect}
}

// Driver returns the dialect name.
func (s *Store) Driver() string { return s.dialect.Name }

// Close closes the underlying handle.
func (s *Store) Close() { _ = s.db.Close() }

// CreateSchema creates every table that does not exist yet.
func (s *Store) CreateSchema(ctx context.Context) error {
	tables := append(warehouse.Tables(), warehouse.Metadata())
	for _, t := range tables {
		if _, err := s.db.ExecContext(ctx, s.dialect.CreateTableSQL(t)); err != nil {
			return warehouse.Wrap("create table", t.Name, nil, err)
		}
		logging.Debug().Str("table", t.Name).Msg("Created table")
	}
	return nil
}

// DropSchema drops every table in reverse dependency order.
func (s *Store) DropSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, s.dialect.DropTableSQL(warehouse.Metadata())); err != nil {
		return warehouse.Wrap("drop table", warehouse.MetadataTable, nil, err)
	}
	tables := warehouse.Tables()
	for i := len(tables) - 1; i >= 0; i-- {
		if _, err := s.db.ExecContext(ctx, s.dialect.DropTableSQL(tables[i])); err != nil {
			return warehouse.Wrap("drop table", tables[i].Name, nil, err)
		}
	}
	return nil
}

// RunInTx runs fn inside a transaction, committing on success.
func (s *Store) RunInTx(ctx context.Context, fn func(tx warehouse.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return warehouse.Wrap("begin transaction", "", classify(err), err)
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			logging.Warn().Err(rbErr).Msg("Rollback failed")
		}
	}()

	if err := fn(&sqlTx{tx: tx, dialect: s.dialect}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return warehouse.Wrap("commit", "", classify(err), err)
	}
	committed = true
	return nil
}

// Dump returns every row of a table as text, ordered by primary key.
func (s *Store) Dump(ctx context.Context, table string) ([]string, [][]string, error) {
	t, ok := warehouse.Lookup(table)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", warehouse.ErrUnknownTable, table)
	}
	rows, err := queryText(ctx, s.db, s.dialect, t)
	if err != nil {
		return nil, nil, err
	}
	return t.ColumnNames(), rows, nil
}

// Metadata returns the metadata table as a map.
func (s *Store) Metadata(ctx context.Context) (map[string]string, error) {
	rows, err := queryText(ctx, s.db, s.dialect, warehouse.Metadata())
	if err != nil {
		return nil, err
	}
	meta := make(map[string]string, len(rows))
	for _, r := range rows {
		meta[r[0]] = r[1]
	}
	return meta, nil
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func queryText(ctx context.Context, q queryer, d warehouse.Dialect, t warehouse.Table) ([][]string, error) {
	rows, err := q.QueryContext(ctx, d.SelectTextSQL(t))
	if err != nil {
		return nil, warehouse.Wrap("select", t.Name, classify(err), err)
	}
	defer rows.Close()

	n := len(t.Columns)
	var out [][]string
	for rows.Next() {
		vals := make([]sql.NullString, n)
		ptrs := make([]any, n)
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, warehouse.Wrap("scan", t.Name, classify(err), err)
		}
		rec := make([]string, n)
		for i, v := range vals {
			rec[i] = v.String
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, warehouse.Wrap("select", t.Name, classify(err), err)
	}
	return out, nil
}

type sqlTx struct {
	tx      *sql.Tx
	dialect warehouse.Dialect
}

func (t *sqlTx) LoadDimension(ctx context.Context, table warehouse.Table) ([][]string, error) {
	return queryText(ctx, t.tx, t.dialect, table)
}

func (t *sqlTx) InsertDimension(ctx context.Context, table warehouse.Table, values []any) (int64, error) {
	query := t.dialect.InsertSQL(table, table.InsertColumns(), 1)
	res, err := t.tx.ExecContext(ctx, query, convertRow(values)...)
	if err != nil {
		return 0, warehouse.Wrap("insert", table.Name, classify(err), err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, warehouse.Wrap("last insert id", table.Name, nil, err)
	}
	return id, nil
}

func (t *sqlTx) TruncateFacts(ctx context.Context) error {
	for _, table := range warehouse.ReverseFacts() {
		if _, err := t.tx.ExecContext(ctx, t.dialect.DeleteSQL(table)); err != nil {
			return warehouse.Wrap("truncate", table.Name, classify(err), err)
		}
	}
	return nil
}

func (t *sqlTx) InsertRows(ctx context.Context, table warehouse.Table, rows [][]any) (int64, error) {
	columns := table.ColumnNames()
	var total int64

	for start := 0; start < len(rows); start += insertBatchRows {
		end := min(start+insertBatchRows, len(rows))
		batch := rows[start:end]

		args := make([]any, 0, len(batch)*len(columns))
		for _, r := range batch {
			if len(r) != len(columns) {
				return total, fmt.Errorf("insert %s: row has %d values, want %d",
					table.Name, len(r), len(columns))
			}
			args = append(args, convertRow(r)...)
		}

		res, err := t.tx.ExecContext(ctx, t.dialect.InsertSQL(table, columns, len(batch)), args...)
		if err != nil {
			return total, warehouse.Wrap("insert", table.Name, classify(err), err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			n = int64(len(batch))
		}
		total += n
	}
	return total, nil
}

func (t *sqlTx) SaveMetadata(ctx context.Context, values map[string]string) error {
	meta := warehouse.Metadata()
	del := fmt.Sprintf("DELETE FROM %s WHERE %s = %s",
		t.dialect.Quote(meta.Name), t.dialect.Quote("name"), t.dialect.Placeholder(1))
	ins := t.dialect.InsertSQL(meta, meta.ColumnNames(), 1)

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if _, err := t.tx.ExecContext(ctx, del, k); err != nil {
			return warehouse.Wrap("save metadata", meta.Name, classify(err), err)
		}
		if _, err := t.tx.ExecContext(ctx, ins, k, values[k]); err != nil {
			return warehouse.Wrap("save metadata", meta.Name, classify(err), err)
		}
	}
	return nil
}

func convertRow(values []any) []any {
	out := make([]any, len(values))
	for i, v := range values {
		switch x := v.(type) {
		case decimal.Decimal:
			out[i] = x.StringFixed(2)
		case time.Time:
			out[i] = x.Format(warehouse.DateLayout)
		default:
			out[i] = v
		}
	}
	return out
}

// classify maps a driver error to a warehouse error kind. Statement errors
// other than foreign key violations have no kind and are not retried.
func classify(err error) error {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case mysqlErrNoReferencedRow, mysqlErrRowIsReferenced:
			return warehouse.ErrForeignKey
		case mysqlErrLockWaitTimeout, mysqlErrDeadlock:
			return warehouse.ErrTransient
		}
		return nil
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch {
		case liteErr.Code() == sqliteConstraintFK,
			strings.Contains(liteErr.Error(), "FOREIGN KEY constraint failed"):
			return warehouse.ErrForeignKey
		case liteErr.Code()&0xff == sqliteBusy, liteErr.Code()&0xff == sqliteLocked:
			return warehouse.ErrTransient
		}
		return nil
	}
	if errors.Is(err, mysql.ErrInvalidConn) || warehouse.ConnectionLost(err) {
		return warehouse.ErrTransient
	}
	return nil
}
