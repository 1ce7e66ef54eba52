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
	"time"

	"github.com/pgEdge/pgedge-superstore/internal/config"
	"github.com/pgEdge/pgedge-superstore/internal/db"
	"github.com/pgEdge/pgedge-superstore/internal/logging"
	"github.com/pgEdge/pgedge-superstore/internal/source"
	"github.com/pgEdge/pgedge-superstore/internal/warehouse"
)

// Options controls a pipeline run.
type Options struct {
	// Source is recorded in the run metadata.
	Source string

	// MaxAttempts is the number of times a run is tried before giving up.
	MaxAttempts int

	// RetryDelay is the pause between attempts.
	RetryDelay time.Duration

	// ProgressInterval is how often (in source rows) progress is logged.
	ProgressInterval int64

	// MaxConflictWarnings caps individually logged conflicts per dimension.
	MaxConflictWarnings int
}

// OptionsFromConfig builds Options from the load configuration.
func OptionsFromConfig(cfg config.LoadConfig) Options {
	return Options{
		Source:              cfg.Source,
		MaxAttempts:         cfg.MaxAttempts,
		RetryDelay:          time.Duration(cfg.RetryDelayMS) * time.Millisecond,
		ProgressInterval:    cfg.ProgressInterval,
		MaxConflictWarnings: cfg.MaxConflictWarnings,
	}
}

// RunStats summarizes a completed run.
type RunStats struct {
	Attempts   int
	SourceRows int
	Orders     int

	// Created is the number of new rows per dimension.
	Created map[string]int

	// Conflicts is the number of data-quality conflicts per dimension.
	Conflicts map[string]int

	// Collapsed is the number of source rows merged into an existing fact
	// row, per fact table.
	Collapsed map[string]int

	// Rows is the number of rows written per fact and summary table.
	Rows map[string]int64

	Duration time.Duration
}

// Pipeline runs the ETL against one warehouse.
type Pipeline struct {
	store warehouse.Store
	opts  Options
	now   func() time.Time
}

// New returns a Pipeline writing to store.
func New(store warehouse.Store, opts Options) *Pipeline {
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}
	return &Pipeline{store: store, opts: opts, now: time.Now}
}

// Run loads records into the warehouse. Each attempt is one transaction
// that rebuilds every fact and summary table; a failed attempt is rolled
// back and, if the failure is transient, retried from the beginning.
func (p *Pipeline) Run(ctx context.Context, records []source.Record) (RunStats, error) {
	for _, rec := range records {
		if err := source.Validate(rec); err != nil {
			return RunStats{}, err
		}
	}

	var (
		stats RunStats
		err   error
	)
	for attempt := 1; ; attempt++ {
		stats, err = p.runOnce(ctx, records)
		stats.Attempts = attempt
		if err == nil {
			return stats, nil
		}
		if !Retryable(err) || attempt >= p.opts.MaxAttempts {
			return stats, err
		}

		logging.Warn().
			Err(err).
			Int("attempt", attempt).
			Int("max_attempts", p.opts.MaxAttempts).
			Dur("retry_in", p.opts.RetryDelay).
			Msg("Load failed, retrying from scratch")

		select {
		case <-ctx.Done():
			return stats, ctx.Err()
		case <-time.After(p.opts.RetryDelay):
		}
	}
}

func (p *Pipeline) runOnce(ctx context.Context, records []source.Record) (RunStats, error) {
	start := p.now()
	stats := RunStats{
		SourceRows: len(records),
		Rows:       make(map[string]int64),
	}

	err := p.store.RunInTx(ctx, func(tx warehouse.Tx) error {
		res := NewResolver(tx, p.opts.MaxConflictWarnings)
		if err := res.Prewarm(ctx); err != nil {
			return err
		}
		if err := tx.TruncateFacts(ctx); err != nil {
			return fmt.Errorf("failed to truncate facts: %w", err)
		}

		loader := NewFactLoader(res)
		orders := groupOrders(records)
		stats.Orders = len(orders)

		progress := logging.NewProgressReporter("load", int64(len(records)), p.opts.ProgressInterval)
		for _, lines := range orders {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := loader.LoadOrder(ctx, lines); err != nil {
				return asConstraint(warehouse.TableOrders, err)
			}
			for _, rec := range lines {
				if err := loader.LoadItem(ctx, rec); err != nil {
					return asConstraint(warehouse.TableItem, err)
				}
			}
			progress.Update(int64(len(lines)))
		}
		progress.Done()

		tables := Summaries(loader)
		tables[warehouse.TableItem] = loader.ItemRows()
		tables[warehouse.TableOrders] = loader.OrderRows()

		for _, t := range loadOrder() {
			rows := tables[t.Name]
			if err := checkReferences(res, t, rows); err != nil {
				return err
			}
			if len(rows) == 0 {
				stats.Rows[t.Name] = 0
				continue
			}
			n, err := tx.InsertRows(ctx, t, rows)
			if err != nil {
				return asConstraint(t.Name, fmt.Errorf("failed to load %s: %w", t.Name, err))
			}
			stats.Rows[t.Name] = n
			logging.Info().
				Str("table", t.Name).
				Int64("rows", n).
				Int("collapsed", loader.Collapsed()[t.Name]).
				Msg("Loaded table")
		}

		stats.Created = res.Created()
		stats.Conflicts = res.Conflicts()
		stats.Collapsed = loader.Collapsed()
		p.logDimensions(stats)

		counts := res.Sizes()
		for name, n := range stats.Rows {
			counts[name] = n
		}
		stats.Duration = p.now().Sub(start)
		meta := db.RunMetadata(p.now(), p.opts.Source, len(records), stats.Duration, counts)
		if err := tx.SaveMetadata(ctx, meta); err != nil {
			return fmt.Errorf("failed to save run metadata: %w", err)
		}
		return nil
	})
	return stats, err
}

func (p *Pipeline) logDimensions(stats RunStats) {
	for _, t := range warehouse.TablesOfKind(warehouse.KindDimension) {
		event := logging.Info().
			Str("table", t.Name).
			Int("created", stats.Created[t.Name])
		if n := stats.Conflicts[t.Name]; n > 0 {
			event = event.Int("conflicts", n)
			if n > p.opts.MaxConflictWarnings {
				logging.Warn().
					Str("table", t.Name).
					Int("conflicts", n).
					Int("logged", p.opts.MaxConflictWarnings).
					Msg("Further conflicts were not logged individually")
			}
		}
		event.Msg("Resolved dimension")
	}
	if n := stats.Collapsed[warehouse.TableOrders]; n > 0 {
		logging.Warn().
			Int("orders", n).
			Msg("Orders sharing dates, location and ship mode were merged into one row")
	}
}

// groupOrders groups line items by order id, in order of first appearance.
func groupOrders(records []source.Record) [][]source.Record {
	index := make(map[string]int)
	var orders [][]source.Record
	for _, rec := range records {
		i, ok := index[rec.OrderID]
		if !ok {
			i = len(orders)
			index[rec.OrderID] = i
			orders = append(orders, nil)
		}
		orders[i] = append(orders[i], rec)
	}
	return orders
}
