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
	"slices"

	"github.com/shopspring/decimal"

	"github.com/pgEdge/pgedge-superstore/internal/warehouse"
)

// Summaries derives every summary table from the grain facts accumulated
// by l. It must run after all source rows have been loaded.
func Summaries(l *FactLoader) map[string][][]any {
	return map[string][][]any{
		warehouse.TableOrderM:             orderMonthRows(l.orderFacts()),
		warehouse.TableProductPerformance: productPerformanceRows(l.itemFacts()),
		warehouse.TableShippingBehavior: shippingRows(l.shipments, func(s *shipment) int64 {
			return s.regionID
		}),
		warehouse.TableShippingBehaviorS: shippingRows(l.shipments, func(s *shipment) int64 {
			return s.stateID
		}),
	}
}

type monthTotals struct {
	key      [2]int64
	sales    decimal.Decimal
	quantity int
	lost     decimal.Decimal
	profit   decimal.Decimal
}

// orderMonthRows rolls Orders up to (order month, state). Measures are
// summed as stored on the Orders rows.
func orderMonthRows(orders []*orderFact) [][]any {
	groups := make(map[[2]int64]*monthTotals)
	for _, o := range orders {
		key := [2]int64{o.monthID, o.stateID}
		g, ok := groups[key]
		if !ok {
			g = &monthTotals{key: key}
			groups[key] = g
		}
		g.sales = g.sales.Add(o.sales.Round(2))
		g.quantity += o.quantity
		g.lost = g.lost.Add(o.lostValue.Round(2))
		g.profit = g.profit.Add(o.profit.Round(2))
	}

	totals := make([]*monthTotals, 0, len(groups))
	for _, g := range groups {
		totals = append(totals, g)
	}
	slices.SortFunc(totals, func(a, b *monthTotals) int { return compareKeys(a.key[:], b.key[:]) })

	rows := make([][]any, len(totals))
	for i, g := range totals {
		rows[i] = []any{g.key[0], g.key[1], g.sales, g.quantity, g.lost, g.profit}
	}
	return rows
}

type performance struct {
	// category, state, month
	key        [3]int64
	seq        int
	sales      decimal.Decimal
	profit     decimal.Decimal
	cumulative decimal.Decimal
	quantity   int
}

// productPerformanceRows rolls Item up to (category, state, month) and
// computes the running profit of each (category, state) in month order.
func productPerformanceRows(items []*itemFact) [][]any {
	groups := make(map[[3]int64]*performance)
	for _, it := range items {
		key := [3]int64{it.categoryID, it.stateID, it.monthID}
		g, ok := groups[key]
		if !ok {
			g = &performance{key: key, seq: it.monthSeq}
			groups[key] = g
		}
		g.sales = g.sales.Add(it.sales.Round(2))
		g.profit = g.profit.Add(it.profit.Round(2))
		g.quantity += it.quantity
	}

	partitions := make(map[[2]int64][]*performance)
	for _, g := range groups {
		p := [2]int64{g.key[0], g.key[1]}
		partitions[p] = append(partitions[p], g)
	}
	for _, months := range partitions {
		slices.SortFunc(months, func(a, b *performance) int { return a.seq - b.seq })
		running := decimal.Zero
		for _, m := range months {
			running = running.Add(m.profit)
			m.cumulative = running
		}
	}

	all := make([]*performance, 0, len(groups))
	for _, g := range groups {
		all = append(all, g)
	}
	slices.SortFunc(all, func(a, b *performance) int { return compareKeys(a.key[:], b.key[:]) })

	rows := make([][]any, len(all))
	for i, g := range all {
		rows[i] = []any{g.key[0], g.key[1], g.key[2], g.sales, g.profit, g.cumulative, g.quantity}
	}
	return rows
}

type shippingSlice struct {
	// ship mode, category, region or state
	key      [3]int64
	orders   int
	delaySum int64
}

// shippingRows counts orders per (ship mode, category, level). An order
// with lines in several categories counts once in each of them.
// shipping_delay is the mean delay in days, rounded half away from zero.
func shippingRows(shipments []*shipment, level func(*shipment) int64) [][]any {
	groups := make(map[[3]int64]*shippingSlice)
	for _, s := range shipments {
		for _, categoryID := range s.categories {
			key := [3]int64{s.shippingID, categoryID, level(s)}
			g, ok := groups[key]
			if !ok {
				g = &shippingSlice{key: key}
				groups[key] = g
			}
			g.orders++
			g.delaySum += int64(s.delay)
		}
	}

	slicesByKey := make([]*shippingSlice, 0, len(groups))
	for _, g := range groups {
		slicesByKey = append(slicesByKey, g)
	}
	slices.SortFunc(slicesByKey, func(a, b *shippingSlice) int { return compareKeys(a.key[:], b.key[:]) })

	rows := make([][]any, len(slicesByKey))
	for i, g := range slicesByKey {
		mean := decimal.NewFromInt(g.delaySum).
			Div(decimal.NewFromInt(int64(g.orders))).
			Round(0).
			IntPart()
		rows[i] = []any{g.key[0], g.key[1], g.key[2], int(mean), g.orders}
	}
	return rows
}
