//-------------------------------------------------------------------------
//
// pgEdge Superstore Warehouse
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package etl

import (
	"fmt"

	"github.com/pgEdge/pgedge-superstore/internal/warehouse"
)

// loadOrder is the order tables are written in: grain facts before the
// summaries that roll them up.
func loadOrder() []warehouse.Table {
	return append(warehouse.TablesOfKind(warehouse.KindFact),
		warehouse.TablesOfKind(warehouse.KindSummary)...)
}

// checkReferences verifies that every foreign key of every row points at a
// dimension row known to the resolver. The database enforces the same
// constraints; checking first lets the error name the grain tuple.
func checkReferences(res *Resolver, t warehouse.Table, rows [][]any) error {
	pk := make([]int, len(t.PrimaryKey))
	for i, c := range t.PrimaryKey {
		pk[i] = t.ColumnIndex(c)
	}

	for _, row := range rows {
		for _, fk := range t.ForeignKeys {
			id, ok := row[t.ColumnIndex(fk.Column)].(int64)
			if !ok {
				return fmt.Errorf("%s.%s: expected int64 key, got %T",
					t.Name, fk.Column, row[t.ColumnIndex(fk.Column)])
			}
			if res.Has(fk.RefTable, id) {
				continue
			}

			ce := &ConstraintError{
				Table:   t.Name,
				Columns: t.PrimaryKey,
				Values:  make([]int64, len(pk)),
				Ref:     fk.RefTable,
				Err:     warehouse.ErrForeignKey,
			}
			for i, idx := range pk {
				ce.Values[i], _ = row[idx].(int64)
			}
			return ce
		}
	}
	return nil
}
