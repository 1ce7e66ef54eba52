package etl

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/pgEdge/pgedge-superstore/internal/config"
	"github.com/pgEdge/pgedge-superstore/internal/source"
	"github.com/pgEdge/pgedge-superstore/internal/warehouse"
	_ "github.com/pgEdge/pgedge-superstore/internal/warehouse/sqlstore"
)

func openTestStore(t *testing.T) warehouse.Store {
	t.Helper()

	ctx := context.Background()
	store, err := warehouse.Open(ctx, config.DatabaseConfig{
		Driver: config.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "warehouse.db"),
	})
	require.NoError(t, err)
	t.Cleanup(store.Close)

	require.NoError(t, store.CreateSchema(ctx))
	return store
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func day(s string) time.Time {
	d, err := time.Parse(warehouse.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return d
}

// record returns a valid line item that mutate functions adjust.
func record(order string, mutate ...func(*source.Record)) source.Record {
	d := day("2016-11-08")
	r := source.Record{
		OrderID:      order,
		OrderDate:    d,
		ShipDate:     d.AddDate(0, 0, 3),
		ShipMode:     "Second Class",
		CustomerID:   "CG-12520",
		CustomerName: "Claire Gute",
		Segment:      "Consumer",
		Country:      "United States",
		City:         "Henderson",
		State:        "Kentucky",
		PostalCode:   "42420",
		Region:       "South",
		ProductID:    "FUR-BO-10001798",
		Category:     "Furniture",
		SubCategory:  "Bookcases",
		ProductName:  "Bush Somerset Collection Bookcase",
		Sales:        dec("100.00"),
		Quantity:     2,
		Discount:     dec("0"),
		Profit:       dec("10.00"),
	}
	for _, m := range mutate {
		m(&r)
	}
	return r
}

func withSales(sales, discount, profit string, qty int) func(*source.Record) {
	return func(r *source.Record) {
		r.Sales = dec(sales)
		r.Discount = dec(discount)
		r.Profit = dec(profit)
		r.Quantity = qty
	}
}

func withDates(order string, delay int) func(*source.Record) {
	return func(r *source.Record) {
		r.OrderDate = day(order)
		r.ShipDate = r.OrderDate.AddDate(0, 0, delay)
	}
}

func withCustomer(code, name string) func(*source.Record) {
	return func(r *source.Record) {
		r.CustomerID = code
		r.CustomerName = name
	}
}

func withGeo(region, state, city, postal string) func(*source.Record) {
	return func(r *source.Record) {
		r.Region = region
		r.State = state
		r.City = city
		r.PostalCode = postal
	}
}

func withProduct(code, category, sub string) func(*source.Record) {
	return func(r *source.Record) {
		r.ProductID = code
		r.Category = category
		r.SubCategory = sub
		r.ProductName = code
	}
}

func withShipMode(mode string) func(*source.Record) {
	return func(r *source.Record) { r.ShipMode = mode }
}

func testOptions() Options {
	return Options{Source: "test.csv", MaxAttempts: 1, MaxConflictWarnings: 5}
}

func runPipeline(t *testing.T, store warehouse.Store, records []source.Record) RunStats {
	t.Helper()
	stats, err := New(store, testOptions()).Run(context.Background(), records)
	require.NoError(t, err)
	return stats
}

// dumpRows returns a table's rows keyed by column name.
func dumpRows(t *testing.T, store warehouse.Store, table string) []map[string]string {
	t.Helper()
	cols, rows, err := store.Dump(context.Background(), table)
	require.NoError(t, err)

	out := make([]map[string]string, len(rows))
	for i, row := range rows {
		m := make(map[string]string, len(cols))
		for j, c := range cols {
			m[c] = row[j]
		}
		out[i] = m
	}
	return out
}

// keyOf returns the surrogate key of the dimension row whose column equals value.
func keyOf(t *testing.T, store warehouse.Store, table, column, value string) string {
	t.Helper()
	key := warehouse.MustLookup(table).KeyColumn()
	for _, row := range dumpRows(t, store, table) {
		if row[column] == value {
			return row[key]
		}
	}
	t.Fatalf("no %s row with %s=%s", table, column, value)
	return ""
}
