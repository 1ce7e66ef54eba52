//-------------------------------------------------------------------------
//
// pgEdge Superstore Warehouse
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package datagen

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pgEdge/pgedge-superstore/internal/logging"
	"github.com/pgEdge/pgedge-superstore/internal/source"
)

// Config controls extract generation.
type Config struct {
	// Rows is the number of line items to generate.
	Rows int

	// Seed makes output reproducible.
	Seed uint64

	// StartYear is the first order year; orders span Years calendar years.
	StartYear int
	Years     int

	// ProgressInterval is how often (in rows) progress is logged.
	ProgressInterval int64
}

type location struct {
	region     string
	state      string
	city       string
	postalCode string
}

type customer struct {
	code    string
	name    string
	segment string
}

type product struct {
	code        string
	name        string
	category    *category
	subCategory string
	unitPrice   float64
}

// Generator produces Superstore line items.
type Generator struct {
	cfg       Config
	faker     *Faker
	locations []location
	customers []customer
	products  []product
	orderIDs  map[string]bool
}

// NewGenerator builds the reference pools (locations, customers and
// products) for a configuration.
func NewGenerator(cfg Config) (*Generator, error) {
	if cfg.Rows < 1 {
		return nil, fmt.Errorf("rows must be at least 1")
	}
	if cfg.Years < 1 {
		return nil, fmt.Errorf("years must be at least 1")
	}

	g := &Generator{
		cfg:      cfg,
		faker:    NewFakerWithSeed(cfg.Seed),
		orderIDs: make(map[string]bool),
	}
	g.buildLocations()
	g.buildCustomers(max(10, cfg.Rows/12))
	g.buildProducts(max(20, min(2000, cfg.Rows/8)))
	return g, nil
}

func (g *Generator) buildLocations() {
	for _, r := range regions {
		for _, state := range r.states {
			seen := make(map[string]bool)
			for len(seen) < citiesPerState {
				city := g.faker.City()
				if seen[city] {
					continue
				}
				seen[city] = true
				g.locations = append(g.locations, location{
					region:     r.name,
					state:      state,
					city:       city,
					postalCode: g.faker.Zip(),
				})
			}
		}
	}
}

func (g *Generator) buildCustomers(n int) {
	codes := make(map[string]bool, n)
	for len(g.customers) < n {
		first, last := g.faker.FirstName(), g.faker.LastName()
		code := fmt.Sprintf("%s%s-%s", initial(first), initial(last), g.faker.Digits(5))
		if codes[code] {
			continue
		}
		codes[code] = true
		g.customers = append(g.customers, customer{
			code:    code,
			name:    first + " " + last,
			segment: ChooseWeighted(g.faker, segments, segmentWeights),
		})
	}
}

func (g *Generator) buildProducts(n int) {
	codes := make(map[string]bool, n)
	for len(g.products) < n {
		c := &categories[ChooseWeighted(g.faker, []int{0, 1, 2}, categoryWeights)]
		sub := Choose(g.faker, c.subCategories)
		code := fmt.Sprintf("%s-%s-1000%s", c.code, strings.ToUpper(sub[:2]), g.faker.Digits(4))
		if codes[code] {
			continue
		}
		codes[code] = true
		g.products = append(g.products, product{
			code:        code,
			name:        g.faker.ProductName(),
			category:    c,
			subCategory: sub,
			unitPrice:   g.faker.Float64(c.minPrice, c.maxPrice),
		})
	}
}

func initial(s string) string {
	if s == "" {
		return "X"
	}
	return strings.ToUpper(s[:1])
}

// Generate produces cfg.Rows line items grouped into orders of 1-4 items.
func (g *Generator) Generate(ctx context.Context) ([]source.Record, error) {
	start := time.Date(g.cfg.StartYear, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(g.cfg.Years, 0, 0).Add(-24 * time.Hour)

	progress := logging.NewProgressReporter("generate", int64(g.cfg.Rows), g.cfg.ProgressInterval)
	records := make([]source.Record, 0, g.cfg.Rows)

	for len(records) < g.cfg.Rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		items := min(g.faker.Int(1, 4), g.cfg.Rows-len(records))
		order := g.newOrder(start, end)
		for i := 0; i < items; i++ {
			rec := g.lineItem(order)
			rec.RowID = len(records) + 1
			records = append(records, rec)
		}
		progress.Update(int64(items))
	}

	progress.Done()
	return records, nil
}

func (g *Generator) newOrder(start, end time.Time) source.Record {
	orderDate := truncateDay(g.faker.DateRange(start, end))
	mode := ChooseWeighted(g.faker, shipModes, shipModeWeights)
	delay := g.faker.Int(mode.minDelay, mode.maxDelay)
	cust := Choose(g.faker, g.customers)
	loc := Choose(g.faker, g.locations)

	var id string
	for {
		prefix := ChooseWeighted(g.faker, orderPrefixes, orderPrefixWeights)
		id = fmt.Sprintf("%s-%d-%s", prefix, orderDate.Year(), g.faker.Digits(6))
		if !g.orderIDs[id] {
			g.orderIDs[id] = true
			break
		}
	}

	return source.Record{
		OrderID:      id,
		OrderDate:    orderDate,
		ShipDate:     orderDate.AddDate(0, 0, delay),
		ShipMode:     mode.name,
		CustomerID:   cust.code,
		CustomerName: cust.name,
		Segment:      cust.segment,
		Country:      Country,
		City:         loc.city,
		State:        loc.state,
		PostalCode:   loc.postalCode,
		Region:       loc.region,
	}
}

func (g *Generator) lineItem(order source.Record) source.Record {
	p := Choose(g.faker, g.products)
	qty := ChooseWeighted(g.faker, []int{1, 2, 3, 4, 5, 6, 7, 8, 9}, []int{10, 24, 22, 14, 11, 7, 6, 4, 2})
	discount := decimal.RequireFromString(ChooseWeighted(g.faker, discounts, discountWeights))

	gross := decimal.NewFromFloat(p.unitPrice).Mul(decimal.NewFromInt(int64(qty)))
	sales := gross.Mul(decimal.NewFromInt(1).Sub(discount)).Round(2)

	// Margin shrinks with discount; deep discounts sell at a loss.
	margin := g.faker.Float64(0.05, 0.45) - discount.InexactFloat64()*0.9
	profit := sales.Mul(decimal.NewFromFloat(margin)).Round(4)

	rec := order
	rec.ProductID = p.code
	rec.Category = p.category.name
	rec.SubCategory = p.subCategory
	rec.ProductName = p.name
	rec.Quantity = qty
	rec.Sales = sales
	rec.Discount = discount
	rec.Profit = profit
	return rec
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
