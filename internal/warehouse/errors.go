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
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"
)

// ErrForeignKey marks a write rejected by a foreign key constraint.
var ErrForeignKey = errors.New("foreign key violation")

// ErrTransient marks a failure of the connection or the transaction itself
// (lost connection, serialization failure, deadlock, lock timeout). Only
// these failures may succeed when the run is repeated.
var ErrTransient = errors.New("transient failure")

// ErrUnknownTable is returned for a table name outside the catalogue.
var ErrUnknownTable = errors.New("unknown table")

// BackendError wraps a driver error with the operation and table that
// produced it. Kind, when set, is one of the sentinel errors above.
type BackendError struct {
	Op    string
	Table string
	Kind  error
	Err   error
}

func (e *BackendError) Error() string {
	if e.Table != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Table, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap exposes both the sentinel kind and the driver error.
func (e *BackendError) Unwrap() []error {
	if e.Kind == nil {
		return []error{e.Err}
	}
	return []error{e.Kind, e.Err}
}

// Wrap builds a BackendError, returning nil for a nil err.
func Wrap(op, table string, kind, err error) error {
	if err == nil {
		return nil
	}
	return &BackendError{Op: op, Table: table, Kind: kind, Err: err}
}

// ConnectionLost reports whether err comes from a broken or unreachable
// connection rather than from the database rejecting a statement.
func ConnectionLost(err error) bool {
	switch {
	case errors.Is(err, driver.ErrBadConn),
		errors.Is(err, io.ErrUnexpectedEOF),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, syscall.EPIPE):
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
