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
	"testing"
	"time"
)

func TestNewFaker(t *testing.T) {
	f := NewFaker()
	if f == nil {
		t.Fatal("NewFaker returned nil")
	}
	if f.faker == nil {
		t.Fatal("faker field is nil")
	}
}

func TestNewFakerWithSeed(t *testing.T) {
	seed := uint64(12345)
	f1 := NewFakerWithSeed(seed)
	f2 := NewFakerWithSeed(seed)

	// Same seed should produce same sequence
	for i := 0; i < 10; i++ {
		v1 := f1.Int(0, 1000)
		v2 := f2.Int(0, 1000)
		if v1 != v2 {
			t.Errorf("Same seed produced different values: %d != %d", v1, v2)
		}
	}
}

func TestFakerNames(t *testing.T) {
	f := NewFaker()
	if f.FirstName() == "" {
		t.Error("FirstName returned empty string")
	}
	if f.LastName() == "" {
		t.Error("LastName returned empty string")
	}
	if f.City() == "" {
		t.Error("City returned empty string")
	}
	if f.ProductName() == "" {
		t.Error("ProductName returned empty string")
	}
}

func TestFakerZip(t *testing.T) {
	f := NewFaker()
	zip := f.Zip()
	if len(zip) < 5 {
		t.Errorf("Zip too short: %s", zip)
	}
}

func TestFakerDateRange(t *testing.T) {
	f := NewFaker()
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2020, 12, 31, 0, 0, 0, 0, time.UTC)

	d := f.DateRange(start, end)
	if d.Before(start) || d.After(end) {
		t.Errorf("DateRange returned %v outside [%v, %v]", d, start, end)
	}
}

func TestFakerInt(t *testing.T) {
	f := NewFaker()
	for i := 0; i < 100; i++ {
		v := f.Int(10, 20)
		if v < 10 || v > 20 {
			t.Errorf("Int(10, 20) returned %d", v)
		}
	}
}

func TestFakerFloat64(t *testing.T) {
	f := NewFaker()
	for i := 0; i < 100; i++ {
		v := f.Float64(1.5, 2.5)
		if v < 1.5 || v > 2.5 {
			t.Errorf("Float64(1.5, 2.5) returned %f", v)
		}
	}
}

func TestFakerDigits(t *testing.T) {
	f := NewFaker()
	d := f.Digits(6)
	if len(d) != 6 {
		t.Errorf("Expected 6 digits, got %q", d)
	}
	for _, c := range d {
		if c < '0' || c > '9' {
			t.Errorf("Non-digit character in %q", d)
		}
	}
}

func TestChoose(t *testing.T) {
	f := NewFaker()
	items := []string{"a", "b", "c"}

	for i := 0; i < 100; i++ {
		v := Choose(f, items)
		if v != "a" && v != "b" && v != "c" {
			t.Errorf("Choose returned unexpected value: %s", v)
		}
	}
}

func TestChooseEmpty(t *testing.T) {
	f := NewFaker()
	var items []string
	if v := Choose(f, items); v != "" {
		t.Errorf("Choose on empty slice should return zero value, got: %s", v)
	}
}

func TestChooseWeighted(t *testing.T) {
	f := NewFaker()
	items := []string{"common", "never"}
	weights := []int{100, 0}

	for i := 0; i < 100; i++ {
		if v := ChooseWeighted(f, items, weights); v != "common" {
			t.Errorf("ChooseWeighted returned zero-weight item: %s", v)
		}
	}
}

func TestChooseWeightedEmpty(t *testing.T) {
	f := NewFaker()
	if v := ChooseWeighted(f, []int{}, []int{}); v != 0 {
		t.Errorf("ChooseWeighted on empty slice should return zero value, got: %d", v)
	}
}

func BenchmarkChooseWeighted(b *testing.B) {
	f := NewFakerWithSeed(1)
	for i := 0; i < b.N; i++ {
		ChooseWeighted(f, discounts, discountWeights)
	}
}
