//-------------------------------------------------------------------------
//
// pgEdge Superstore Warehouse
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package logging

// ProgressReporter logs progress of a long stage every interval items.
type ProgressReporter struct {
	stage            string
	total            int64
	current          int64
	progressInterval int64
}

// NewProgressReporter creates a new progress reporter. An interval of
// zero or less disables intermediate reports.
func NewProgressReporter(stage string, total int64, interval int64) *ProgressReporter {
	return &ProgressReporter{
		stage:            stage,
		total:            total,
		progressInterval: interval,
	}
}

// Update adds n processed items and logs if an interval boundary was crossed.
func (p *ProgressReporter) Update(n int64) {
	old := p.current
	p.current += n

	if p.progressInterval <= 0 {
		return
	}

	// Check if we crossed a progress interval
	if p.current/p.progressInterval > old/p.progressInterval {
		event := Info().
			Str("stage", p.stage).
			Int64("processed", p.current)
		if p.total > 0 {
			event = event.
				Int64("total", p.total).
				Float64("percent", float64(p.current)/float64(p.total)*100)
		}
		event.Msg("Progress")
	}
}

// Current returns the number of items processed so far.
func (p *ProgressReporter) Current() int64 {
	return p.current
}

// Done logs completion.
func (p *ProgressReporter) Done() {
	Info().
		Str("stage", p.stage).
		Int64("processed", p.current).
		Msg("Stage complete")
}
