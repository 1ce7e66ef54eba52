package source

import (
	"testing"

	"github.com/shopspring/decimal"
)

func rec(order, product string, qty int, sales, discount, profit string) Record {
	return Record{
		OrderID:   order,
		ProductID: product,
		Quantity:  qty,
		Sales:     decimal.RequireFromString(sales),
		Discount:  decimal.RequireFromString(discount),
		Profit:    decimal.RequireFromString(profit),
	}
}

func TestMergeDuplicates(t *testing.T) {
	records := []Record{
		rec("O-1", "P-1", 1, "100", "0.2", "10"),
		rec("O-1", "P-2", 2, "50", "0", "5"),
		rec("O-1", "P-1", 3, "60", "0.1", "-4"),
		rec("O-2", "P-1", 1, "10", "0", "1"),
	}

	merged := MergeDuplicates(records)
	if len(merged) != 3 {
		t.Fatalf("Expected 3 records, got %d", len(merged))
	}

	m := merged[0]
	if m.OrderID != "O-1" || m.ProductID != "P-1" {
		t.Fatalf("Expected first-appearance order, got %s/%s", m.OrderID, m.ProductID)
	}
	if m.Quantity != 4 {
		t.Errorf("Expected quantity 4, got %d", m.Quantity)
	}
	if !m.Sales.Equal(decimal.RequireFromString("160")) {
		t.Errorf("Expected sales 160, got %s", m.Sales)
	}
	if !m.Profit.Equal(decimal.RequireFromString("6")) {
		t.Errorf("Expected profit 6, got %s", m.Profit)
	}
	// (0.2*1 + 0.1*3) / 4 = 0.125 -> 0.13
	if !m.Discount.Equal(decimal.RequireFromString("0.13")) {
		t.Errorf("Expected weighted discount 0.13, got %s", m.Discount)
	}

	if merged[1].ProductID != "P-2" || merged[2].OrderID != "O-2" {
		t.Errorf("Unexpected order: %s %s", merged[1].ProductID, merged[2].OrderID)
	}
}

func TestMergeDuplicatesNoDuplicates(t *testing.T) {
	records := []Record{
		rec("O-1", "P-1", 1, "1", "0", "0"),
		rec("O-2", "P-1", 1, "1", "0", "0"),
	}
	if got := MergeDuplicates(records); len(got) != 2 {
		t.Errorf("Expected 2 records, got %d", len(got))
	}
}
