//-------------------------------------------------------------------------
//
// pgEdge Superstore Warehouse
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package export writes the warehouse to an Excel workbook, one sheet per
// table.
package export

import (
	"context"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/pgEdge/pgedge-superstore/internal/logging"
	"github.com/pgEdge/pgedge-superstore/internal/warehouse"
)

// defaultSheet is the sheet excelize creates with a new file.
const defaultSheet = "Sheet1"

// Tables returns the tables exported, in sheet order.
func Tables() []warehouse.Table {
	return append(warehouse.Tables(), warehouse.Metadata())
}

// WriteFile exports every table to path and returns the number of data
// rows written per sheet.
func WriteFile(ctx context.Context, store warehouse.Store, path string) (map[string]int, error) {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			logging.Warn().Err(err).Msg("Failed to close workbook")
		}
	}()

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	counts := make(map[string]int)
	for i, t := range Tables() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if i == 0 {
			if err := f.SetSheetName(defaultSheet, t.Name); err != nil {
				return nil, fmt.Errorf("failed to name sheet %s: %w", t.Name, err)
			}
		} else if _, err := f.NewSheet(t.Name); err != nil {
			return nil, fmt.Errorf("failed to add sheet %s: %w", t.Name, err)
		}

		n, err := writeSheet(ctx, f, store, t, headerStyle)
		if err != nil {
			return nil, err
		}
		counts[t.Name] = n

		logging.Debug().
			Str("table", t.Name).
			Int("rows", n).
			Msg("Exported table")
	}

	f.SetActiveSheet(0)
	if err := f.SaveAs(path); err != nil {
		return nil, fmt.Errorf("failed to save %s: %w", path, err)
	}
	return counts, nil
}

func writeSheet(ctx context.Context, f *excelize.File, store warehouse.Store, t warehouse.Table, headerStyle int) (int, error) {
	columns, rows, err := store.Dump(ctx, t.Name)
	if err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", t.Name, err)
	}

	sw, err := f.NewStreamWriter(t.Name)
	if err != nil {
		return 0, fmt.Errorf("failed to open sheet %s: %w", t.Name, err)
	}

	header := make([]any, len(columns))
	for i, c := range columns {
		header[i] = c
	}
	if err := sw.SetRow("A1", header, excelize.RowOpts{StyleID: headerStyle}); err != nil {
		return 0, fmt.Errorf("failed to write %s header: %w", t.Name, err)
	}

	types := make([]warehouse.ColumnType, len(columns))
	for i, name := range columns {
		if c, ok := t.Column(name); ok {
			types[i] = c.Type
		} else {
			types[i] = warehouse.TypeText
		}
	}

	for r, row := range rows {
		values := make([]any, len(row))
		for i, v := range row {
			values[i] = cellValue(types[i], v)
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return 0, err
		}
		if err := sw.SetRow(cell, values); err != nil {
			return 0, fmt.Errorf("failed to write %s row %d: %w", t.Name, r+1, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return 0, fmt.Errorf("failed to flush sheet %s: %w", t.Name, err)
	}
	return len(rows), nil
}

// cellValue converts the text form of a value into a number for numeric
// columns so that the workbook can compute on it. Unparsable values are
// kept as text.
func cellValue(ct warehouse.ColumnType, v string) any {
	if !ct.Numeric() {
		return v
	}
	switch ct {
	case warehouse.TypeMoney, warehouse.TypeFraction:
		d, err := decimal.NewFromString(v)
		if err != nil {
			return v
		}
		return d.InexactFloat64()
	default:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return v
		}
		return n
	}
}
