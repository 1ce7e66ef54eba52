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
	"github.com/shopspring/decimal"

	"github.com/pgEdge/pgedge-superstore/internal/logging"
)

type orderProduct struct {
	orderID   string
	productID string
}

// MergeDuplicates collapses records sharing (Order ID, Product ID) into
// one. Quantity, sales and profit are summed and the discount becomes the
// quantity-weighted mean rounded to 2 places. Other attributes come from
// the first record. Output keeps first-appearance order.
func MergeDuplicates(records []Record) []Record {
	pos := make(map[orderProduct]int, len(records))
	weighted := make([]decimal.Decimal, 0, len(records))
	out := make([]Record, 0, len(records))

	for _, rec := range records {
		key := orderProduct{rec.OrderID, rec.ProductID}
		qty := decimal.NewFromInt(int64(rec.Quantity))

		i, seen := pos[key]
		if !seen {
			pos[key] = len(out)
			out = append(out, rec)
			weighted = append(weighted, rec.Discount.Mul(qty))
			continue
		}

		m := &out[i]
		m.Quantity += rec.Quantity
		m.Sales = m.Sales.Add(rec.Sales)
		m.Profit = m.Profit.Add(rec.Profit)
		weighted[i] = weighted[i].Add(rec.Discount.Mul(qty))
		m.Discount = weighted[i].Div(decimal.NewFromInt(int64(m.Quantity))).Round(2)

		logging.Debug().
			Str("order_id", rec.OrderID).
			Str("product_id", rec.ProductID).
			Int("line", rec.Line).
			Msg("Merged duplicate line item")
	}

	if merged := len(records) - len(out); merged > 0 {
		logging.Info().
			Int("merged", merged).
			Int("rows", len(out)).
			Msg("Merged duplicate order/product rows")
	}

	return out
}
