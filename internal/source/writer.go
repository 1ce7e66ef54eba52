//-------------------------------------------------------------------------
//
// pgEdge Superstore Warehouse
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package source

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
)

// sourceDateLayout matches the dates of the published extract.
const sourceDateLayout = "1/2/2006"

// Write writes records as CSV with the standard header.
func Write(w io.Writer, records []Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}

	for i, r := range records {
		rowID := r.RowID
		if rowID == 0 {
			rowID = i + 1
		}
		err := cw.Write([]string{
			strconv.Itoa(rowID),
			r.OrderID,
			r.OrderDate.Format(sourceDateLayout),
			r.ShipDate.Format(sourceDateLayout),
			r.ShipMode,
			r.CustomerID,
			r.CustomerName,
			r.Segment,
			r.Country,
			r.City,
			r.State,
			r.PostalCode,
			r.Region,
			r.ProductID,
			r.Category,
			r.SubCategory,
			r.ProductName,
			r.Sales.String(),
			strconv.Itoa(r.Quantity),
			r.Discount.String(),
			r.Profit.String(),
		})
		if err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteFile writes records to path, replacing any existing file.
func WriteFile(path string, records []Record) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := Write(f, records); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}
