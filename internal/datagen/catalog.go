//-------------------------------------------------------------------------
//
// pgEdge Superstore Warehouse
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package datagen

// Country is the single country of the Superstore extract.
const Country = "United States"

type region struct {
	name   string
	states []string
}

var regions = []region{
	{"East", []string{"New York", "Pennsylvania", "Ohio", "Massachusetts", "New Jersey", "Connecticut"}},
	{"West", []string{"California", "Washington", "Oregon", "Arizona", "Colorado", "Utah"}},
	{"Central", []string{"Texas", "Illinois", "Michigan", "Indiana", "Wisconsin", "Minnesota"}},
	{"South", []string{"Florida", "Georgia", "Virginia", "North Carolina", "Tennessee", "Kentucky"}},
}

type category struct {
	name          string
	code          string
	subCategories []string
	// unit price range
	minPrice float64
	maxPrice float64
}

var categories = []category{
	{"Furniture", "FUR", []string{"Bookcases", "Chairs", "Furnishings", "Tables"}, 10, 900},
	{"Office Supplies", "OFF", []string{
		"Appliances", "Art", "Binders", "Envelopes", "Fasteners",
		"Labels", "Paper", "Storage", "Supplies",
	}, 1, 150},
	{"Technology", "TEC", []string{"Accessories", "Copiers", "Machines", "Phones"}, 5, 1500},
}

var categoryWeights = []int{21, 60, 19}

type shipMode struct {
	name     string
	minDelay int
	maxDelay int
}

var shipModes = []shipMode{
	{"Standard Class", 4, 7},
	{"Second Class", 2, 5},
	{"First Class", 1, 3},
	{"Same Day", 0, 0},
}

var shipModeWeights = []int{60, 19, 16, 5}

var segments = []string{"Consumer", "Corporate", "Home Office"}

var segmentWeights = []int{52, 30, 18}

var discounts = []string{"0", "0.1", "0.2", "0.3", "0.5", "0.8"}

var discountWeights = []int{50, 15, 20, 8, 4, 3}

var orderPrefixes = []string{"CA", "US"}

var orderPrefixWeights = []int{80, 20}

// citiesPerState is how many (city, postal code) locations each state gets.
const citiesPerState = 4
