//-------------------------------------------------------------------------
//
// pgEdge Superstore Warehouse
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package warehouse describes the Superstore star schema and the storage
// interface the ETL pipeline loads it through.
package warehouse

// Table names. They are mixed case and must be quoted in every dialect.
const (
	TableCalendar           = "Calendar"
	TableCalendarMonth      = "CalendarMonth"
	TableCustomer           = "Customer"
	TableRegion             = "Region"
	TableState              = "State"
	TableLocation           = "Location"
	TableCategory           = "Category"
	TableProduct            = "Product"
	TableShipping           = "Shipping"
	TableItem               = "Item"
	TableOrders             = "Orders"
	TableOrderM             = "OrderM"
	TableProductPerformance = "ProductPerformance"
	TableShippingBehavior   = "ShippingBehavior"
	TableShippingBehaviorS  = "ShippingBehaviorS"

	// MetadataTable records schema version and run statistics.
	MetadataTable = "warehouse_metadata"
)

// ColumnType is a dialect-independent column type.
type ColumnType int

const (
	// TypeKey is a surrogate key assigned by the database.
	TypeKey ColumnType = iota
	// TypeRef is an integer reference to another table's key.
	TypeRef
	// TypeName is a short display string (VARCHAR(100)).
	TypeName
	// TypeText is a longer string (VARCHAR(255)).
	TypeText
	TypeDate
	TypeInt
	// TypeMoney is fixed point with 2 decimal places.
	TypeMoney
	// TypeFraction is a 0..1 fraction with 2 decimal places.
	TypeFraction
)

// Numeric reports whether values of this type are numbers.
func (c ColumnType) Numeric() bool {
	switch c {
	case TypeKey, TypeRef, TypeInt, TypeMoney, TypeFraction:
		return true
	}
	return false
}

// Kind classifies a table by its position in the load order.
type Kind int

const (
	KindDimension Kind = iota
	KindFact
	KindSummary
	KindMetadata
)

func (k Kind) String() string {
	switch k {
	case KindDimension:
		return "dimension"
	case KindFact:
		return "fact"
	case KindSummary:
		return "summary"
	case KindMetadata:
		return "metadata"
	}
	return "unknown"
}

// Column is one column of a table.
type Column struct {
	Name string
	Type ColumnType
}

// ForeignKey links Column to RefTable.RefColumn.
type ForeignKey struct {
	Column    string
	RefTable  string
	RefColumn string
}

// Table describes one warehouse table.
type Table struct {
	Name    string
	Kind    Kind
	Columns []Column

	// PrimaryKey lists the grain columns. Dimensions use their surrogate key.
	PrimaryKey []string

	// NaturalKey is the business identity of a dimension row, enforced
	// with a UNIQUE constraint.
	NaturalKey []string

	ForeignKeys []ForeignKey

	// Grain is a human-readable description of what one row represents.
	Grain string
}

// KeyColumn returns the surrogate key column of a dimension, or "".
func (t Table) KeyColumn() string {
	for _, c := range t.Columns {
		if c.Type == TypeKey {
			return c.Name
		}
	}
	return ""
}

// ColumnNames returns all column names in declaration order.
func (t Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// InsertColumns returns the columns supplied on insert, which is every
// column except a database-assigned key.
func (t Table) InsertColumns() []string {
	names := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		if c.Type != TypeKey {
			names = append(names, c.Name)
		}
	}
	return names
}

// Column looks up a column by name.
func (t Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// ColumnIndex returns the position of a column, or -1.
func (t Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

func cols(pairs ...any) []Column {
	out := make([]Column, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, Column{Name: pairs[i].(string), Type: pairs[i+1].(ColumnType)})
	}
	return out
}

func ref(column, table string) ForeignKey {
	return ForeignKey{Column: column, RefTable: table, RefColumn: column}
}

// catalog lists every table in dependency order.
var catalog = []Table{
	{
		Name: TableCalendar,
		Kind: KindDimension,
		Columns: cols(
			"calendar_id", TypeKey,
			"full_date", TypeDate,
			"year_number", TypeInt,
			"month_number", TypeInt,
			"month_name", TypeName,
			"day_number", TypeInt,
			"day_name", TypeName,
		),
		PrimaryKey: []string{"calendar_id"},
		NaturalKey: []string{"full_date"},
		Grain:      "one physical date",
	},
	{
		Name: TableCalendarMonth,
		Kind: KindDimension,
		Columns: cols(
			"calendar_month_id", TypeKey,
			"year_number", TypeInt,
			"calendar_month_number", TypeInt,
			"calendar_month_name", TypeName,
		),
		PrimaryKey: []string{"calendar_month_id"},
		NaturalKey: []string{"year_number", "calendar_month_number"},
		Grain:      "one (year, month)",
	},
	{
		Name: TableCustomer,
		Kind: KindDimension,
		Columns: cols(
			"customer_id", TypeKey,
			"customer_code", TypeName,
			"customer_name", TypeText,
			"segment", TypeName,
		),
		PrimaryKey: []string{"customer_id"},
		NaturalKey: []string{"customer_code"},
		Grain:      "one customer code",
	},
	{
		Name: TableRegion,
		Kind: KindDimension,
		Columns: cols(
			"region_id", TypeKey,
			"region_name", TypeName,
			"country_name", TypeName,
		),
		PrimaryKey: []string{"region_id"},
		NaturalKey: []string{"region_name", "country_name"},
		Grain:      "one (region, country)",
	},
	{
		Name: TableState,
		Kind: KindDimension,
		Columns: cols(
			"state_id", TypeKey,
			"state_name", TypeName,
			"region_id", TypeRef,
			"region_name", TypeName,
			"country_name", TypeName,
		),
		PrimaryKey:  []string{"state_id"},
		NaturalKey:  []string{"state_name", "country_name"},
		ForeignKeys: []ForeignKey{ref("region_id", TableRegion)},
		Grain:       "one (state, country)",
	},
	{
		Name: TableLocation,
		Kind: KindDimension,
		Columns: cols(
			"location_id", TypeKey,
			"postal_code", TypeName,
			"city_name", TypeName,
			"state_id", TypeRef,
			"state_name", TypeName,
			"region_id", TypeRef,
			"region_name", TypeName,
			"country_name", TypeName,
		),
		PrimaryKey:  []string{"location_id"},
		NaturalKey:  []string{"country_name", "state_name", "city_name", "postal_code"},
		ForeignKeys: []ForeignKey{ref("state_id", TableState), ref("region_id", TableRegion)},
		Grain:       "one (country, state, city, postal code)",
	},
	{
		Name: TableCategory,
		Kind: KindDimension,
		Columns: cols(
			"category_id", TypeKey,
			"category_name", TypeName,
		),
		PrimaryKey: []string{"category_id"},
		NaturalKey: []string{"category_name"},
		Grain:      "one category",
	},
	{
		Name: TableProduct,
		Kind: KindDimension,
		Columns: cols(
			"product_id", TypeKey,
			"product_code", TypeName,
			"product_name", TypeText,
			"sub_category_name", TypeName,
			"category_id", TypeRef,
			"category_name", TypeName,
		),
		PrimaryKey:  []string{"product_id"},
		NaturalKey:  []string{"product_code"},
		ForeignKeys: []ForeignKey{ref("category_id", TableCategory)},
		Grain:       "one product code",
	},
	{
		Name: TableShipping,
		Kind: KindDimension,
		Columns: cols(
			"shipping_id", TypeKey,
			"ship_mode", TypeName,
		),
		PrimaryKey: []string{"shipping_id"},
		NaturalKey: []string{"ship_mode"},
		Grain:      "one ship mode",
	},
	{
		Name: TableItem,
		Kind: KindFact,
		Columns: cols(
			"customer_id", TypeRef,
			"location_id", TypeRef,
			"calendar_id", TypeRef,
			"product_id", TypeRef,
			"order_code", TypeName,
			"quantity", TypeInt,
			"sales", TypeMoney,
			"discount", TypeFraction,
			"lost_value", TypeMoney,
			"profit", TypeMoney,
		),
		PrimaryKey: []string{"customer_id", "location_id", "calendar_id", "product_id"},
		ForeignKeys: []ForeignKey{
			ref("customer_id", TableCustomer),
			ref("location_id", TableLocation),
			ref("calendar_id", TableCalendar),
			ref("product_id", TableProduct),
		},
		Grain: "customer x location x order date x product",
	},
	{
		Name: TableOrders,
		Kind: KindFact,
		Columns: cols(
			"order_calendar_id", TypeRef,
			"shipping_calendar_id", TypeRef,
			"customer_id", TypeRef,
			"location_id", TypeRef,
			"shipping_id", TypeRef,
			"order_code", TypeName,
			"sales_order", TypeMoney,
			"quantity_order", TypeInt,
			"lost_value_order", TypeMoney,
			"profit_order", TypeMoney,
		),
		// customer_id is stored but is not part of the grain.
		PrimaryKey: []string{"order_calendar_id", "shipping_calendar_id", "location_id", "shipping_id"},
		ForeignKeys: []ForeignKey{
			{Column: "order_calendar_id", RefTable: TableCalendar, RefColumn: "calendar_id"},
			{Column: "shipping_calendar_id", RefTable: TableCalendar, RefColumn: "calendar_id"},
			ref("customer_id", TableCustomer),
			ref("location_id", TableLocation),
			ref("shipping_id", TableShipping),
		},
		Grain: "order date x ship date x location x ship mode",
	},
	{
		Name: TableOrderM,
		Kind: KindSummary,
		Columns: cols(
			"calendar_month_id", TypeRef,
			"state_id", TypeRef,
			"sales_month", TypeMoney,
			"quantity_month", TypeInt,
			"lost_value_month", TypeMoney,
			"profit_month", TypeMoney,
		),
		PrimaryKey: []string{"calendar_month_id", "state_id"},
		ForeignKeys: []ForeignKey{
			ref("calendar_month_id", TableCalendarMonth),
			ref("state_id", TableState),
		},
		Grain: "month x state",
	},
	{
		Name: TableProductPerformance,
		Kind: KindSummary,
		Columns: cols(
			"category_id", TypeRef,
			"state_id", TypeRef,
			"calendar_month_id", TypeRef,
			"total_sales", TypeMoney,
			"total_profit", TypeMoney,
			"cumulative_profit", TypeMoney,
			"total_quantity", TypeInt,
		),
		PrimaryKey: []string{"category_id", "state_id", "calendar_month_id"},
		ForeignKeys: []ForeignKey{
			ref("category_id", TableCategory),
			ref("state_id", TableState),
			ref("calendar_month_id", TableCalendarMonth),
		},
		Grain: "category x state x month",
	},
	{
		Name: TableShippingBehavior,
		Kind: KindSummary,
		Columns: cols(
			"shipping_id", TypeRef,
			"category_id", TypeRef,
			"region_id", TypeRef,
			"shipping_delay", TypeInt,
			"method_freq", TypeInt,
		),
		PrimaryKey: []string{"shipping_id", "category_id", "region_id"},
		ForeignKeys: []ForeignKey{
			ref("shipping_id", TableShipping),
			ref("category_id", TableCategory),
			ref("region_id", TableRegion),
		},
		Grain: "ship mode x category x region",
	},
	{
		Name: TableShippingBehaviorS,
		Kind: KindSummary,
		Columns: cols(
			"shipping_id", TypeRef,
			"category_id", TypeRef,
			"state_id", TypeRef,
			"shipping_delay", TypeInt,
			"method_freq", TypeInt,
		),
		PrimaryKey: []string{"shipping_id", "category_id", "state_id"},
		ForeignKeys: []ForeignKey{
			ref("shipping_id", TableShipping),
			ref("category_id", TableCategory),
			ref("state_id", TableState),
		},
		Grain: "ship mode x category x state",
	},
}

var metadata = Table{
	Name: MetadataTable,
	Kind: KindMetadata,
	Columns: cols(
		"name", TypeName,
		"value", TypeText,
	),
	PrimaryKey: []string{"name"},
	Grain:      "one setting",
}

// Tables returns every warehouse table in dependency order: dimensions,
// then grain facts, then summary facts.
func Tables() []Table {
	out := make([]Table, len(catalog))
	copy(out, catalog)
	return out
}

// TablesOfKind returns the tables of one kind in dependency order.
func TablesOfKind(k Kind) []Table {
	var out []Table
	for _, t := range catalog {
		if t.Kind == k {
			out = append(out, t)
		}
	}
	return out
}

// Lookup returns a table by name. The metadata table is included.
func Lookup(name string) (Table, bool) {
	if name == MetadataTable {
		return metadata, true
	}
	for _, t := range catalog {
		if t.Name == name {
			return t, true
		}
	}
	return Table{}, false
}

// MustLookup is Lookup for names known at compile time.
func MustLookup(name string) Table {
	t, ok := Lookup(name)
	if !ok {
		panic("warehouse: unknown table " + name)
	}
	return t
}

// Metadata returns the metadata table description.
func Metadata() Table {
	return metadata
}

// ReverseFacts returns fact and summary tables in the order they must be
// emptied: summaries first, then grain facts.
func ReverseFacts() []Table {
	var out []Table
	for i := len(catalog) - 1; i >= 0; i-- {
		if catalog[i].Kind == KindFact || catalog[i].Kind == KindSummary {
			out = append(out, catalog[i])
		}
	}
	return out
}
