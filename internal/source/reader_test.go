package source

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
)

const sampleHeader = "Row ID,Order ID,Order Date,Ship Date,Ship Mode,Customer ID,Customer Name," +
	"Segment,Country,City,State,Postal Code,Region,Product ID,Category,Sub-Category," +
	"Product Name,Sales,Quantity,Discount,Profit\n"

const sampleRow = `1,CA-2016-152156,11/8/2016,11/11/2016,Second Class,CG-12520,Claire Gute,` +
	`Consumer,United States,Henderson,Kentucky,42420,South,FUR-BO-10001798,Furniture,` +
	`Bookcases,"Bush Somerset Collection Bookcase",261.96,2,0,41.9136` + "\n"

func TestReadParsesRecord(t *testing.T) {
	records, err := Read(context.Background(), strings.NewReader(sampleHeader+sampleRow))
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(records))
	}

	r := records[0]
	if r.Line != 2 {
		t.Errorf("Expected line 2, got %d", r.Line)
	}
	if r.OrderID != "CA-2016-152156" {
		t.Errorf("Expected order id CA-2016-152156, got %s", r.OrderID)
	}
	if !r.OrderDate.Equal(time.Date(2016, 11, 8, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Unexpected order date %v", r.OrderDate)
	}
	if r.ShipDelayDays() != 3 {
		t.Errorf("Expected ship delay 3, got %d", r.ShipDelayDays())
	}
	if !r.Sales.Equal(decimal.RequireFromString("261.96")) {
		t.Errorf("Unexpected sales %s", r.Sales)
	}
	if r.Quantity != 2 {
		t.Errorf("Expected quantity 2, got %d", r.Quantity)
	}
	if r.ProductName != "Bush Somerset Collection Bookcase" {
		t.Errorf("Unexpected product name %q", r.ProductName)
	}
}

func TestReadHeaderIsCaseAndBOMInsensitive(t *testing.T) {
	header := "\ufeff" + strings.ToUpper(sampleHeader)
	records, err := Read(context.Background(), strings.NewReader(header+sampleRow))
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(records))
	}
}

func TestReadISODates(t *testing.T) {
	row := strings.Replace(sampleRow, "11/8/2016,11/11/2016", "2016-11-08,2016-11-11", 1)
	records, err := Read(context.Background(), strings.NewReader(sampleHeader+row))
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if records[0].ShipDelayDays() != 3 {
		t.Errorf("Expected ship delay 3, got %d", records[0].ShipDelayDays())
	}
}

func TestReadErrors(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		column string
	}{
		{
			name:   "ship before order",
			input:  sampleHeader + strings.Replace(sampleRow, "11/11/2016", "11/1/2016", 1),
			column: ColShipDate,
		},
		{
			name:   "discount above one",
			input:  sampleHeader + strings.Replace(sampleRow, ",2,0,", ",2,1.5,", 1),
			column: ColDiscount,
		},
		{
			name:   "bad sales",
			input:  sampleHeader + strings.Replace(sampleRow, "261.96", "abc", 1),
			column: ColSales,
		},
		{
			name:   "bad date",
			input:  sampleHeader + strings.Replace(sampleRow, "11/8/2016", "2016/13/45", 1),
			column: ColOrderDate,
		},
		{
			name:   "missing customer",
			input:  sampleHeader + strings.Replace(sampleRow, "CG-12520", "", 1),
			column: ColCustomerID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(context.Background(), strings.NewReader(tt.input))
			var rowErr *RowError
			if !errors.As(err, &rowErr) {
				t.Fatalf("Expected RowError, got %v", err)
			}
			if rowErr.Line != 2 {
				t.Errorf("Expected line 2, got %d", rowErr.Line)
			}
			if rowErr.Column != tt.column {
				t.Errorf("Expected column %s, got %s", tt.column, rowErr.Column)
			}
		})
	}
}

func TestReadMissingColumn(t *testing.T) {
	header := strings.Replace(sampleHeader, ",Profit", "", 1)
	_, err := Read(context.Background(), strings.NewReader(header))
	if err == nil || !strings.Contains(err.Error(), "Profit") {
		t.Errorf("Expected missing Profit column error, got %v", err)
	}
}

func TestReadEmpty(t *testing.T) {
	if _, err := Read(context.Background(), strings.NewReader("")); err == nil {
		t.Error("Expected error for empty source")
	}
}

func TestReadFileWindows1252(t *testing.T) {
	row := strings.Replace(sampleRow, "Claire Gute", "Zoë Café", 1)
	encoded, err := charmap.Windows1252.NewEncoder().String(sampleHeader + row)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "superstore.csv")
	if err := os.WriteFile(path, []byte(encoded), 0644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	records, err := ReadFile(context.Background(), path, "windows-1252")
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if records[0].CustomerName != "Zoë Café" {
		t.Errorf("Expected decoded name, got %q", records[0].CustomerName)
	}
}

func TestWriteRoundTrip(t *testing.T) {
	records, err := Read(context.Background(), strings.NewReader(sampleHeader+sampleRow))
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}

	var buf bytes.Buffer
	if err := Write(&buf, records); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	again, err := Read(context.Background(), &buf)
	if err != nil {
		t.Fatalf("Read of written CSV failed: %v", err)
	}
	if again[0].OrderID != records[0].OrderID || !again[0].Profit.Equal(records[0].Profit) {
		t.Errorf("Round trip mismatch: %+v vs %+v", again[0], records[0])
	}
}
