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
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pgEdge/pgedge-superstore/internal/logging"
	"github.com/pgEdge/pgedge-superstore/internal/source"
	"github.com/pgEdge/pgedge-superstore/internal/warehouse"
)

// LostValue is the part of sales not realized because of the discount.
func LostValue(sales, discount decimal.Decimal) decimal.Decimal {
	return sales.Mul(discount).Round(2)
}

// monthSeq orders months chronologically.
func monthSeq(t time.Time) int {
	return t.Year()*12 + int(t.Month()) - 1
}

type itemKey [4]int64

// itemFact is one Item row being accumulated.
type itemFact struct {
	key       itemKey
	orderCode string
	quantity  int
	sales     decimal.Decimal
	// discountQty is the sum of discount x quantity, for the weighted mean.
	discountQty decimal.Decimal
	lostValue   decimal.Decimal
	profit      decimal.Decimal

	categoryID int64
	stateID    int64
	monthID    int64
	monthSeq   int
}

func (f *itemFact) discount() decimal.Decimal {
	if f.quantity == 0 {
		return decimal.Zero
	}
	return f.discountQty.Div(decimal.NewFromInt(int64(f.quantity))).Round(2)
}

type orderKey [4]int64

// orderFact is one Orders row being accumulated.
type orderFact struct {
	key        orderKey
	customerID int64
	orderCode  string
	sales      decimal.Decimal
	quantity   int
	lostValue  decimal.Decimal
	profit     decimal.Decimal

	monthID int64
	stateID int64
}

// shipment is one source order as seen by the shipping summaries.
type shipment struct {
	orderCode  string
	shippingID int64
	regionID   int64
	stateID    int64
	delay      int
	categories []int64
}

// FactLoader accumulates Item and Orders rows for one run. Rows sharing a
// grain tuple are summed into one.
type FactLoader struct {
	res *Resolver

	items     map[itemKey]*itemFact
	orders    map[orderKey]*orderFact
	shipments []*shipment

	collapsed map[string]int
}

// NewFactLoader returns an empty loader resolving keys through res.
func NewFactLoader(res *Resolver) *FactLoader {
	return &FactLoader{
		res:       res,
		items:     make(map[itemKey]*itemFact),
		orders:    make(map[orderKey]*orderFact),
		collapsed: make(map[string]int),
	}
}

// LoadItem adds one line item to the Item grain.
func (l *FactLoader) LoadItem(ctx context.Context, rec source.Record) error {
	customerID, err := l.res.Customer(ctx, rec)
	if err != nil {
		return err
	}
	geo, err := l.res.Geography(ctx, rec)
	if err != nil {
		return err
	}
	calendarID, err := l.res.Calendar(ctx, rec.OrderDate)
	if err != nil {
		return err
	}
	monthID, err := l.res.CalendarMonth(ctx, rec.OrderDate)
	if err != nil {
		return err
	}
	product, err := l.res.ProductOf(ctx, rec)
	if err != nil {
		return err
	}

	key := itemKey{customerID, geo.LocationID, calendarID, product.ProductID}
	f, ok := l.items[key]
	if !ok {
		f = &itemFact{
			key:        key,
			orderCode:  rec.OrderID,
			categoryID: product.CategoryID,
			stateID:    geo.StateID,
			monthID:    monthID,
			monthSeq:   monthSeq(rec.OrderDate),
		}
		l.items[key] = f
	} else {
		l.collapsed[warehouse.TableItem]++
		logging.Debug().
			Str("table", warehouse.TableItem).
			Str("order", rec.OrderID).
			Str("product", rec.ProductID).
			Int("line", rec.Line).
			Msg("Duplicate grain; accumulating")
	}

	qty := decimal.NewFromInt(int64(rec.Quantity))
	f.quantity += rec.Quantity
	f.sales = f.sales.Add(rec.Sales)
	f.discountQty = f.discountQty.Add(rec.Discount.Mul(qty))
	f.lostValue = f.lostValue.Add(LostValue(rec.Sales, rec.Discount))
	f.profit = f.profit.Add(rec.Profit)
	return nil
}

// LoadOrder adds one source order to the Orders grain. The order header
// (dates, customer, location, ship mode) is taken from its first line.
func (l *FactLoader) LoadOrder(ctx context.Context, lines []source.Record) error {
	if len(lines) == 0 {
		return nil
	}
	head := lines[0]

	orderCalID, err := l.res.Calendar(ctx, head.OrderDate)
	if err != nil {
		return err
	}
	shipCalID, err := l.res.Calendar(ctx, head.ShipDate)
	if err != nil {
		return err
	}
	monthID, err := l.res.CalendarMonth(ctx, head.OrderDate)
	if err != nil {
		return err
	}
	customerID, err := l.res.Customer(ctx, head)
	if err != nil {
		return err
	}
	geo, err := l.res.Geography(ctx, head)
	if err != nil {
		return err
	}
	shippingID, err := l.res.Shipping(ctx, head.ShipMode)
	if err != nil {
		return err
	}

	s := &shipment{
		orderCode:  head.OrderID,
		shippingID: shippingID,
		regionID:   geo.RegionID,
		stateID:    geo.StateID,
		delay:      head.ShipDelayDays(),
	}

	var sales, lost, profit decimal.Decimal
	quantity := 0
	for _, rec := range lines {
		product, err := l.res.ProductOf(ctx, rec)
		if err != nil {
			return err
		}
		if !slices.Contains(s.categories, product.CategoryID) {
			s.categories = append(s.categories, product.CategoryID)
		}
		sales = sales.Add(rec.Sales)
		lost = lost.Add(LostValue(rec.Sales, rec.Discount))
		profit = profit.Add(rec.Profit)
		quantity += rec.Quantity
	}
	l.shipments = append(l.shipments, s)

	key := orderKey{orderCalID, shipCalID, geo.LocationID, shippingID}
	f, ok := l.orders[key]
	if !ok {
		f = &orderFact{
			key:        key,
			customerID: customerID,
			orderCode:  head.OrderID,
			monthID:    monthID,
			stateID:    geo.StateID,
		}
		l.orders[key] = f
	} else {
		// The Orders key does not include the customer, so distinct orders
		// can land here. The first customer and order code are kept.
		l.collapsed[warehouse.TableOrders]++
		logging.Debug().
			Str("table", warehouse.TableOrders).
			Str("kept_order", f.orderCode).
			Str("order", head.OrderID).
			Bool("same_customer", f.customerID == customerID).
			Msg("Orders grain collision; accumulating")
	}

	f.sales = f.sales.Add(sales)
	f.quantity += quantity
	f.lostValue = f.lostValue.Add(lost)
	f.profit = f.profit.Add(profit)
	return nil
}

// Collapsed returns how many source rows were merged into an existing fact
// row, per table.
func (l *FactLoader) Collapsed() map[string]int {
	return l.collapsed
}

func compareKeys(a, b []int64) int {
	for i := range a {
		if c := cmp.Compare(a[i], b[i]); c != 0 {
			return c
		}
	}
	return 0
}

// itemFacts returns the accumulated Item rows ordered by primary key.
func (l *FactLoader) itemFacts() []*itemFact {
	out := make([]*itemFact, 0, len(l.items))
	for _, f := range l.items {
		out = append(out, f)
	}
	slices.SortFunc(out, func(a, b *itemFact) int { return compareKeys(a.key[:], b.key[:]) })
	return out
}

// orderFacts returns the accumulated Orders rows ordered by primary key.
func (l *FactLoader) orderFacts() []*orderFact {
	out := make([]*orderFact, 0, len(l.orders))
	for _, f := range l.orders {
		out = append(out, f)
	}
	slices.SortFunc(out, func(a, b *orderFact) int { return compareKeys(a.key[:], b.key[:]) })
	return out
}

// ItemRows renders Item in column order.
func (l *FactLoader) ItemRows() [][]any {
	facts := l.itemFacts()
	rows := make([][]any, len(facts))
	for i, f := range facts {
		rows[i] = []any{
			f.key[0], f.key[1], f.key[2], f.key[3],
			f.orderCode,
			f.quantity,
			f.sales.Round(2),
			f.discount(),
			f.lostValue.Round(2),
			f.profit.Round(2),
		}
	}
	return rows
}

// OrderRows renders Orders in column order.
func (l *FactLoader) OrderRows() [][]any {
	facts := l.orderFacts()
	rows := make([][]any, len(facts))
	for i, f := range facts {
		rows[i] = []any{
			f.key[0], f.key[1],
			f.customerID,
			f.key[2], f.key[3],
			f.orderCode,
			f.sales.Round(2),
			f.quantity,
			f.lostValue.Round(2),
			f.profit.Round(2),
		}
	}
	return rows
}
