//-------------------------------------------------------------------------
//
// pgEdge Superstore Warehouse
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package etl loads the flat Superstore extract into the star schema:
// dimensions first, then grain facts, then summary facts.
package etl

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pgEdge/pgedge-superstore/internal/logging"
	"github.com/pgEdge/pgedge-superstore/internal/source"
	"github.com/pgEdge/pgedge-superstore/internal/warehouse"
)

const keySep = "\x1f"

// dimension is the cache for one dimension table.
type dimension struct {
	table   warehouse.Table
	keyIdx  int
	natural []int

	// keys maps a joined natural key to the surrogate key.
	keys map[string]int64

	// rows holds the first stored text of each row, in column order.
	rows map[int64][]string

	created   int
	conflicts int
}

func (d *dimension) naturalKey(row []string) string {
	parts := make([]string, len(d.natural))
	for i, idx := range d.natural {
		parts[i] = row[idx]
	}
	return strings.Join(parts, keySep)
}

// Resolver maps natural keys to surrogate keys for the lifetime of one
// run. A new Resolver is created for every attempt; it is not safe for
// concurrent use.
type Resolver struct {
	tx          warehouse.Tx
	dims        map[string]*dimension
	maxWarnings int
}

// NewResolver returns an empty resolver writing new rows through tx.
func NewResolver(tx warehouse.Tx, maxWarnings int) *Resolver {
	r := &Resolver{
		tx:          tx,
		dims:        make(map[string]*dimension),
		maxWarnings: maxWarnings,
	}
	for _, t := range warehouse.TablesOfKind(warehouse.KindDimension) {
		d := &dimension{
			table:  t,
			keyIdx: t.ColumnIndex(t.KeyColumn()),
			keys:   make(map[string]int64),
			rows:   make(map[int64][]string),
		}
		for _, c := range t.NaturalKey {
			d.natural = append(d.natural, t.ColumnIndex(c))
		}
		r.dims[t.Name] = d
	}
	return r
}

// Prewarm loads the dimension rows already in the warehouse so that keys
// survive across runs.
func (r *Resolver) Prewarm(ctx context.Context) error {
	for _, t := range warehouse.TablesOfKind(warehouse.KindDimension) {
		rows, err := r.tx.LoadDimension(ctx, t)
		if err != nil {
			return fmt.Errorf("failed to prewarm %s: %w", t.Name, err)
		}

		d := r.dims[t.Name]
		for _, row := range rows {
			id, err := strconv.ParseInt(row[d.keyIdx], 10, 64)
			if err != nil {
				return fmt.Errorf("failed to prewarm %s: bad key %q: %w", t.Name, row[d.keyIdx], err)
			}
			d.keys[d.naturalKey(row)] = id
			d.rows[id] = row
		}

		logging.Debug().
			Str("table", t.Name).
			Int("rows", len(rows)).
			Msg("Prewarmed dimension")
	}
	return nil
}

// resolve returns the surrogate key for a dimension row, inserting it on
// first sight. values are in InsertColumns order.
func (r *Resolver) resolve(ctx context.Context, table string, values []any) (int64, error) {
	d, ok := r.dims[table]
	if !ok {
		return 0, fmt.Errorf("%w: %s", warehouse.ErrUnknownTable, table)
	}

	row := make([]string, len(d.table.Columns))
	vi := 0
	for i, c := range d.table.Columns {
		if c.Type == warehouse.TypeKey {
			continue
		}
		row[i] = formatValue(values[vi])
		vi++
	}

	nk := d.naturalKey(row)
	if id, ok := d.keys[nk]; ok {
		r.checkConflict(d, id, nk, row)
		return id, nil
	}

	id, err := r.tx.InsertDimension(ctx, d.table, values)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve %s %q: %w", table, displayKey(nk), err)
	}
	row[d.keyIdx] = strconv.FormatInt(id, 10)
	d.keys[nk] = id
	d.rows[id] = row
	d.created++
	return id, nil
}

// checkConflict compares a repeated natural key against the first stored
// row. The stored row always wins; a difference is only reported.
func (r *Resolver) checkConflict(d *dimension, id int64, nk string, row []string) {
	kept := d.rows[id]
	for i, c := range d.table.Columns {
		if i == d.keyIdx || kept[i] == row[i] {
			continue
		}

		d.conflicts++
		if d.conflicts <= r.maxWarnings {
			logging.Warn().
				Str("table", d.table.Name).
				Str("key", displayKey(nk)).
				Str("column", c.Name).
				Str("kept", kept[i]).
				Str("ignored", row[i]).
				Msg("Conflicting attributes for existing dimension row; keeping first value")
		}
		return
	}
}

// Has reports whether id is a known key of a dimension.
func (r *Resolver) Has(table string, id int64) bool {
	d, ok := r.dims[table]
	if !ok {
		return false
	}
	_, ok = d.rows[id]
	return ok
}

// Created returns the number of rows inserted per dimension.
func (r *Resolver) Created() map[string]int {
	out := make(map[string]int, len(r.dims))
	for name, d := range r.dims {
		out[name] = d.created
	}
	return out
}

// Conflicts returns the number of data-quality conflicts per dimension.
func (r *Resolver) Conflicts() map[string]int {
	out := make(map[string]int)
	for name, d := range r.dims {
		if d.conflicts > 0 {
			out[name] = d.conflicts
		}
	}
	return out
}

// Sizes returns the number of known rows per dimension.
func (r *Resolver) Sizes() map[string]int64 {
	out := make(map[string]int64, len(r.dims))
	for name, d := range r.dims {
		out[name] = int64(len(d.rows))
	}
	return out
}

// Calendar resolves the Calendar row of a date.
func (r *Resolver) Calendar(ctx context.Context, date time.Time) (int64, error) {
	return r.resolve(ctx, warehouse.TableCalendar, []any{
		date,
		date.Year(),
		int(date.Month()),
		date.Month().String(),
		date.Day(),
		date.Weekday().String(),
	})
}

// CalendarMonth resolves the CalendarMonth row containing a date.
func (r *Resolver) CalendarMonth(ctx context.Context, date time.Time) (int64, error) {
	return r.resolve(ctx, warehouse.TableCalendarMonth, []any{
		date.Year(),
		int(date.Month()),
		date.Month().String(),
	})
}

// Customer resolves a customer by code.
func (r *Resolver) Customer(ctx context.Context, rec source.Record) (int64, error) {
	return r.resolve(ctx, warehouse.TableCustomer, []any{
		rec.CustomerID,
		rec.CustomerName,
		rec.Segment,
	})
}

// Region resolves a (region, country) pair.
func (r *Resolver) Region(ctx context.Context, region, country string) (int64, error) {
	return r.resolve(ctx, warehouse.TableRegion, []any{region, country})
}

// Category resolves a category by name.
func (r *Resolver) Category(ctx context.Context, name string) (int64, error) {
	return r.resolve(ctx, warehouse.TableCategory, []any{name})
}

// Shipping resolves a ship mode.
func (r *Resolver) Shipping(ctx context.Context, mode string) (int64, error) {
	return r.resolve(ctx, warehouse.TableShipping, []any{mode})
}

func formatValue(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case time.Time:
		return x.Format(warehouse.DateLayout)
	case decimal.Decimal:
		return x.StringFixed(2)
	default:
		return fmt.Sprint(x)
	}
}

func displayKey(nk string) string {
	return strings.ReplaceAll(nk, keySep, "/")
}
