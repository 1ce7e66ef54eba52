//-------------------------------------------------------------------------
//
// pgEdge Superstore Warehouse
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package source reads and writes the flat Superstore extract.
package source

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Column names of the extract, in file order.
const (
	ColRowID        = "Row ID"
	ColOrderID      = "Order ID"
	ColOrderDate    = "Order Date"
	ColShipDate     = "Ship Date"
	ColShipMode     = "Ship Mode"
	ColCustomerID   = "Customer ID"
	ColCustomerName = "Customer Name"
	ColSegment      = "Segment"
	ColCountry      = "Country"
	ColCity         = "City"
	ColState        = "State"
	ColPostalCode   = "Postal Code"
	ColRegion       = "Region"
	ColProductID    = "Product ID"
	ColCategory     = "Category"
	ColSubCategory  = "Sub-Category"
	ColProductName  = "Product Name"
	ColSales        = "Sales"
	ColQuantity     = "Quantity"
	ColDiscount     = "Discount"
	ColProfit       = "Profit"
)

// Header is the column order written by Write.
var Header = []string{
	ColRowID, ColOrderID, ColOrderDate, ColShipDate, ColShipMode,
	ColCustomerID, ColCustomerName, ColSegment, ColCountry, ColCity,
	ColState, ColPostalCode, ColRegion, ColProductID, ColCategory,
	ColSubCategory, ColProductName, ColSales, ColQuantity, ColDiscount,
	ColProfit,
}

// Record is one line item of the extract.
type Record struct {
	// Line is the 1-based line in the source file (0 for generated rows).
	Line int

	RowID     int
	OrderID   string
	OrderDate time.Time
	ShipDate  time.Time
	ShipMode  string

	CustomerID   string
	CustomerName string
	Segment      string

	Country    string
	City       string
	State      string
	PostalCode string
	Region     string

	ProductID   string
	Category    string
	SubCategory string
	ProductName string

	Sales    decimal.Decimal
	Quantity int
	Discount decimal.Decimal
	Profit   decimal.Decimal
}

// ShipDelayDays is the number of whole days between order and shipment.
func (r Record) ShipDelayDays() int {
	return int(r.ShipDate.Sub(r.OrderDate).Hours() / 24)
}

// RowError reports a source row that cannot be loaded.
type RowError struct {
	Line   int
	Column string
	Err    error
}

func (e *RowError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("line %d: %s: %v", e.Line, e.Column, e.Err)
	}
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }
