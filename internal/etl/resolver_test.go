package etl

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pgEdge/pgedge-superstore/internal/warehouse"
)

func TestResolverReturnsSameKeyForSameNaturalKey(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	var first, second, other int64
	err := store.RunInTx(ctx, func(tx warehouse.Tx) error {
		res := NewResolver(tx, 5)
		var err error
		if first, err = res.Customer(ctx, record("A")); err != nil {
			return err
		}
		if second, err = res.Customer(ctx, record("B")); err != nil {
			return err
		}
		other, err = res.Customer(ctx, record("C", withCustomer("DV-13045", "Darrin Van Huff")))
		require.Equal(t, 2, res.Created()[warehouse.TableCustomer])
		return err
	})
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.NotEqual(t, first, other)
	require.Len(t, dumpRows(t, store, warehouse.TableCustomer), 2)
}

func TestResolverPrewarmKeepsKeysAcrossRuns(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	resolveAll := func() (Geo, int64) {
		var geo Geo
		var cal int64
		err := store.RunInTx(ctx, func(tx warehouse.Tx) error {
			res := NewResolver(tx, 5)
			if err := res.Prewarm(ctx); err != nil {
				return err
			}
			var err error
			if geo, err = res.Geography(ctx, record("A")); err != nil {
				return err
			}
			cal, err = res.Calendar(ctx, day("2016-11-08"))
			return err
		})
		require.NoError(t, err)
		return geo, cal
	}

	geo1, cal1 := resolveAll()
	geo2, cal2 := resolveAll()
	require.Equal(t, geo1, geo2)
	require.Equal(t, cal1, cal2)
	require.Len(t, dumpRows(t, store, warehouse.TableLocation), 1)
	require.Len(t, dumpRows(t, store, warehouse.TableCalendar), 1)
}

func TestResolverKeepsFirstSnapshotOnConflict(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	err := store.RunInTx(ctx, func(tx warehouse.Tx) error {
		res := NewResolver(tx, 5)
		central, err := res.Geography(ctx, record("A", withGeo("Central", "Texas", "Houston", "77095")))
		if err != nil {
			return err
		}
		// Same state presented under another region.
		west, err := res.Geography(ctx, record("B", withGeo("West", "Texas", "Houston", "77095")))
		if err != nil {
			return err
		}

		require.Equal(t, central.StateID, west.StateID)
		require.Equal(t, central.LocationID, west.LocationID)
		require.Equal(t, central.RegionID, west.RegionID)
		require.Equal(t, 1, res.Conflicts()[warehouse.TableState])
		return nil
	})
	require.NoError(t, err)

	states := dumpRows(t, store, warehouse.TableState)
	require.Len(t, states, 1)
	require.Equal(t, "Central", states[0]["region_name"])

	// Both regions exist, the state only points at the first.
	require.Len(t, dumpRows(t, store, warehouse.TableRegion), 2)
}

func TestSnapshotCopiesParentNames(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	err := store.RunInTx(ctx, func(tx warehouse.Tx) error {
		res := NewResolver(tx, 5)
		if _, err := res.Geography(ctx, record("A")); err != nil {
			return err
		}
		_, err := res.ProductOf(ctx, record("A"))
		return err
	})
	require.NoError(t, err)

	state := dumpRows(t, store, warehouse.TableState)[0]
	require.Equal(t, "Kentucky", state["state_name"])
	require.Equal(t, "South", state["region_name"])
	require.Equal(t, "United States", state["country_name"])

	loc := dumpRows(t, store, warehouse.TableLocation)[0]
	require.Equal(t, state["state_id"], loc["state_id"])
	require.Equal(t, state["region_id"], loc["region_id"])
	require.Equal(t, "Kentucky", loc["state_name"])
	require.Equal(t, "South", loc["region_name"])
	require.Equal(t, "United States", loc["country_name"])
	require.Equal(t, "Henderson", loc["city_name"])
	require.Equal(t, "42420", loc["postal_code"])

	product := dumpRows(t, store, warehouse.TableProduct)[0]
	require.Equal(t, "Furniture", product["category_name"])
	require.Equal(t, "Bookcases", product["sub_category_name"])
}

func TestCalendarAttributes(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	err := store.RunInTx(ctx, func(tx warehouse.Tx) error {
		res := NewResolver(tx, 5)
		if _, err := res.Calendar(ctx, day("2016-11-08")); err != nil {
			return err
		}
		_, err := res.CalendarMonth(ctx, day("2016-11-08"))
		return err
	})
	require.NoError(t, err)

	cal := dumpRows(t, store, warehouse.TableCalendar)[0]
	require.Equal(t, "2016-11-08", cal["full_date"])
	require.Equal(t, "2016", cal["year_number"])
	require.Equal(t, "11", cal["month_number"])
	require.Equal(t, "November", cal["month_name"])
	require.Equal(t, "8", cal["day_number"])
	require.Equal(t, "Tuesday", cal["day_name"])

	month := dumpRows(t, store, warehouse.TableCalendarMonth)[0]
	require.Equal(t, "2016", month["year_number"])
	require.Equal(t, "11", month["calendar_month_number"])
	require.Equal(t, "November", month["calendar_month_name"])
}

func TestSnapshotUnknownParent(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	err := store.RunInTx(ctx, func(tx warehouse.Tx) error {
		res := NewResolver(tx, 5)
		_, err := res.State(ctx, "Kentucky", 42)
		return err
	})
	require.Error(t, err)
	require.Empty(t, dumpRows(t, store, warehouse.TableState))
}
