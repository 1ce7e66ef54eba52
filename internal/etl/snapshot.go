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
	"context"
	"fmt"
	"strconv"

	"github.com/pgEdge/pgedge-superstore/internal/source"
	"github.com/pgEdge/pgedge-superstore/internal/warehouse"
)

// Geo holds the keys of a resolved location and the ancestors recorded on
// its row.
type Geo struct {
	RegionID   int64
	StateID    int64
	LocationID int64
}

// ProductRef holds a resolved product and the category recorded on its row.
type ProductRef struct {
	ProductID  int64
	CategoryID int64
}

// snapshot returns attributes of an existing dimension row as they were
// first stored. Child rows copy parent names from here at creation and are
// never refreshed afterwards.
func (r *Resolver) snapshot(table string, id int64, columns ...string) ([]string, error) {
	d, ok := r.dims[table]
	if !ok {
		return nil, fmt.Errorf("%w: %s", warehouse.ErrUnknownTable, table)
	}
	row, ok := d.rows[id]
	if !ok {
		return nil, fmt.Errorf("no %s row with key %d", table, id)
	}

	out := make([]string, len(columns))
	for i, c := range columns {
		idx := d.table.ColumnIndex(c)
		if idx < 0 {
			return nil, fmt.Errorf("%s has no column %s", table, c)
		}
		out[i] = row[idx]
	}
	return out, nil
}

// snapshotRef reads a reference column of a stored row.
func (r *Resolver) snapshotRef(table string, id int64, column string) (int64, error) {
	v, err := r.snapshot(table, id, column)
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(v[0], 10, 64)
}

// State resolves a state under an already resolved region.
func (r *Resolver) State(ctx context.Context, name string, regionID int64) (int64, error) {
	region, err := r.snapshot(warehouse.TableRegion, regionID, "region_name", "country_name")
	if err != nil {
		return 0, err
	}
	return r.resolve(ctx, warehouse.TableState, []any{
		name,
		regionID,
		region[0],
		region[1],
	})
}

// Location resolves a (city, postal code) under an already resolved state.
// Region and country come from the state row, not from the source record.
func (r *Resolver) Location(ctx context.Context, city, postalCode string, stateID int64) (int64, error) {
	state, err := r.snapshot(warehouse.TableState, stateID,
		"state_name", "region_id", "region_name", "country_name")
	if err != nil {
		return 0, err
	}
	regionID, err := strconv.ParseInt(state[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("state %d has bad region_id %q: %w", stateID, state[1], err)
	}
	return r.resolve(ctx, warehouse.TableLocation, []any{
		postalCode,
		city,
		stateID,
		state[0],
		regionID,
		state[2],
		state[3],
	})
}

// Product resolves a product under an already resolved category.
func (r *Resolver) Product(ctx context.Context, rec source.Record, categoryID int64) (int64, error) {
	category, err := r.snapshot(warehouse.TableCategory, categoryID, "category_name")
	if err != nil {
		return 0, err
	}
	return r.resolve(ctx, warehouse.TableProduct, []any{
		rec.ProductID,
		rec.ProductName,
		rec.SubCategory,
		categoryID,
		category[0],
	})
}

// Geography resolves Region, State and Location for a record, in that
// order. The returned state and region are the ones stored on the location
// row, which can differ from the record when an earlier row won.
func (r *Resolver) Geography(ctx context.Context, rec source.Record) (Geo, error) {
	regionID, err := r.Region(ctx, rec.Region, rec.Country)
	if err != nil {
		return Geo{}, err
	}
	stateID, err := r.State(ctx, rec.State, regionID)
	if err != nil {
		return Geo{}, err
	}
	locationID, err := r.Location(ctx, rec.City, rec.PostalCode, stateID)
	if err != nil {
		return Geo{}, err
	}

	geo := Geo{LocationID: locationID}
	if geo.StateID, err = r.snapshotRef(warehouse.TableLocation, locationID, "state_id"); err != nil {
		return Geo{}, err
	}
	if geo.RegionID, err = r.snapshotRef(warehouse.TableLocation, locationID, "region_id"); err != nil {
		return Geo{}, err
	}
	return geo, nil
}

// ProductOf resolves Category then Product for a record.
func (r *Resolver) ProductOf(ctx context.Context, rec source.Record) (ProductRef, error) {
	categoryID, err := r.Category(ctx, rec.Category)
	if err != nil {
		return ProductRef{}, err
	}
	productID, err := r.Product(ctx, rec, categoryID)
	if err != nil {
		return ProductRef{}, err
	}

	ref := ProductRef{ProductID: productID}
	if ref.CategoryID, err = r.snapshotRef(warehouse.TableProduct, productID, "category_id"); err != nil {
		return ProductRef{}, err
	}
	return ref, nil
}
