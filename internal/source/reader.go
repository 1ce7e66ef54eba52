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
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"

	"github.com/pgEdge/pgedge-superstore/internal/logging"
)

// dateLayouts are tried in order when parsing dates.
var dateLayouts = []string{"1/2/2006", "2006-01-02"}

var (
	errMissing       = errors.New("value is required")
	errShipBefore    = errors.New("ship date precedes order date")
	errDiscountRange = errors.New("discount must be between 0 and 1")
)

// required lists the columns that must be present in the header.
var required = []string{
	ColOrderID, ColOrderDate, ColShipDate, ColShipMode,
	ColCustomerID, ColCustomerName, ColSegment, ColCountry, ColCity,
	ColState, ColPostalCode, ColRegion, ColProductID, ColCategory,
	ColSubCategory, ColProductName, ColSales, ColQuantity, ColDiscount,
	ColProfit,
}

// ReadFile opens and parses an extract. encoding is "windows-1252"
// (or "cp1252") or "utf-8"; empty means windows-1252.
func ReadFile(ctx context.Context, path, encoding string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open source: %w", err)
	}
	defer f.Close()

	r, err := decoder(f, encoding)
	if err != nil {
		return nil, err
	}

	records, err := Read(ctx, r)
	if err != nil {
		return nil, err
	}

	logging.Info().
		Str("source", path).
		Str("encoding", encoding).
		Int("rows", len(records)).
		Msg("Read source extract")

	return records, nil
}

func decoder(r io.Reader, encoding string) (io.Reader, error) {
	switch strings.ToLower(encoding) {
	case "", "windows-1252", "cp1252":
		return charmap.Windows1252.NewDecoder().Reader(r), nil
	case "utf-8", "utf8":
		return r, nil
	default:
		return nil, fmt.Errorf("unsupported encoding %q", encoding)
	}
}

// Read parses a decoded extract. The header row is required; column
// matching ignores case, surrounding space and a byte order mark.
func Read(ctx context.Context, r io.Reader) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("source is empty")
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		index[normalizeHeader(h)] = i
	}
	for _, col := range required {
		if _, ok := index[normalizeHeader(col)]; !ok {
			return nil, fmt.Errorf("source is missing column %q", col)
		}
	}

	var records []Record
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				return nil, &RowError{Line: perr.StartLine, Err: perr.Err}
			}
			return nil, fmt.Errorf("failed to read source: %w", err)
		}
		line, _ := cr.FieldPos(0)
		if blank(fields) {
			continue
		}

		rec, err := parseRecord(line, fields, index)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, nil
}

// utf8BOMAsCP1252 is a UTF-8 byte order mark decoded as Windows-1252.
const utf8BOMAsCP1252 = "\u00ef\u00bb\u00bf"

func normalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	h = strings.TrimPrefix(h, utf8BOMAsCP1252)
	return strings.ToLower(strings.TrimSpace(h))
}

func blank(fields []string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// row gives typed access to one CSV record.
type row struct {
	line   int
	fields []string
	index  map[string]int
	err    error
}

func (r *row) str(col string) string {
	i, ok := r.index[normalizeHeader(col)]
	if !ok || i >= len(r.fields) {
		return ""
	}
	return strings.TrimSpace(r.fields[i])
}

func (r *row) fail(col string, err error) {
	if r.err == nil {
		r.err = &RowError{Line: r.line, Column: col, Err: err}
	}
}

func (r *row) text(col string) string {
	s := r.str(col)
	if s == "" {
		r.fail(col, errMissing)
	}
	return s
}

func (r *row) date(col string) time.Time {
	s := r.text(col)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	r.fail(col, fmt.Errorf("invalid date %q", s))
	return time.Time{}
}

func (r *row) number(col string) decimal.Decimal {
	s := r.text(col)
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", ""))
	if err != nil {
		r.fail(col, fmt.Errorf("invalid number %q", s))
		return decimal.Zero
	}
	return d
}

func (r *row) integer(col string, optional bool) int {
	s := r.str(col)
	if s == "" {
		if !optional {
			r.fail(col, errMissing)
		}
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		r.fail(col, fmt.Errorf("invalid integer %q", s))
	}
	return n
}

func parseRecord(line int, fields []string, index map[string]int) (Record, error) {
	r := &row{line: line, fields: fields, index: index}

	rec := Record{
		Line:         line,
		RowID:        r.integer(ColRowID, true),
		OrderID:      r.text(ColOrderID),
		OrderDate:    r.date(ColOrderDate),
		ShipDate:     r.date(ColShipDate),
		ShipMode:     r.text(ColShipMode),
		CustomerID:   r.text(ColCustomerID),
		CustomerName: r.text(ColCustomerName),
		Segment:      r.text(ColSegment),
		Country:      r.text(ColCountry),
		City:         r.text(ColCity),
		State:        r.text(ColState),
		PostalCode:   r.text(ColPostalCode),
		Region:       r.text(ColRegion),
		ProductID:    r.text(ColProductID),
		Category:     r.text(ColCategory),
		SubCategory:  r.text(ColSubCategory),
		ProductName:  r.text(ColProductName),
		Sales:        r.number(ColSales),
		Quantity:     r.integer(ColQuantity, false),
		Discount:     r.number(ColDiscount),
		Profit:       r.number(ColProfit),
	}
	if r.err != nil {
		return Record{}, r.err
	}

	if err := Validate(rec); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// Validate checks the cross-field rules of a record.
func Validate(rec Record) error {
	if rec.ShipDate.Before(rec.OrderDate) {
		return &RowError{Line: rec.Line, Column: ColShipDate, Err: errShipBefore}
	}
	if rec.Discount.IsNegative() || rec.Discount.GreaterThan(decimal.NewFromInt(1)) {
		return &RowError{Line: rec.Line, Column: ColDiscount, Err: errDiscountRange}
	}
	if rec.Quantity <= 0 {
		return &RowError{Line: rec.Line, Column: ColQuantity, Err: errors.New("quantity must be positive")}
	}
	return nil
}
