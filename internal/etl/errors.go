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
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pgEdge/pgedge-superstore/internal/source"
	"github.com/pgEdge/pgedge-superstore/internal/warehouse"
)

// ConstraintError reports a fact row that references a dimension row which
// does not exist. It is fatal for the run and never retried.
type ConstraintError struct {
	// Table is the fact or summary table being written.
	Table string

	// Columns and Values hold the offending grain tuple. They are empty
	// when the database rejected a batch without naming the row.
	Columns []string
	Values  []int64

	// Ref is the referenced dimension table, when known.
	Ref string

	Err error
}

func (e *ConstraintError) Error() string {
	var b strings.Builder
	b.WriteString(e.Table)
	if len(e.Columns) > 0 {
		b.WriteString(" (")
		for i, c := range e.Columns {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s=%d", c, e.Values[i])
		}
		b.WriteString(")")
	}
	if e.Ref != "" {
		fmt.Fprintf(&b, " references a missing %s row", e.Ref)
		return b.String()
	}
	b.WriteString(": constraint violation")
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *ConstraintError) Unwrap() error { return e.Err }

// asConstraint converts a foreign key rejection from the backend into a
// ConstraintError for table. Other errors are returned unchanged.
func asConstraint(table string, err error) error {
	if err == nil || !errors.Is(err, warehouse.ErrForeignKey) {
		return err
	}
	var ce *ConstraintError
	if errors.As(err, &ce) {
		return err
	}
	return &ConstraintError{Table: table, Err: err}
}

// Retryable reports whether a failed run may be retried from scratch.
// Only failures of the connection or the transaction itself qualify; a
// statement the database rejected, a constraint violation or a bad source
// row fails the same way on every attempt.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var ce *ConstraintError
	if errors.As(err, &ce) {
		return false
	}
	var re *source.RowError
	if errors.As(err, &re) {
		return false
	}
	return errors.Is(err, warehouse.ErrTransient)
}
