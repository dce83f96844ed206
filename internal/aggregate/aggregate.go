// Package aggregate folds canonical event records into per-event-id
// accumulators over a bounded time window.
package aggregate

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"evreport/internal/evlog"
	"evreport/internal/metrics"
	"evreport/internal/normalize"
	"evreport/pkg/types"
)

// Key identifies an accumulator: a normalized event id, or KeyNone for
// records whose id was absent or non-numeric. KeyNone sorts before every
// valid id.
type Key int32

// KeyNone is the accumulator key for records without a normalized event id.
const KeyNone Key = -1

// KeyOf returns the accumulator key for a normalized event id.
func KeyOf(id *uint16) Key {
	if id == nil {
		return KeyNone
	}
	return Key(*id)
}

// Valid reports whether the key carries an event id.
func (k Key) Valid() bool { return k >= 0 }

// Accumulator is the running aggregate for one event id. It is built by
// mutation during a single run and read-only afterwards.
type Accumulator struct {
	Frequency  int
	Sources    map[string]struct{}
	Severities map[string]struct{}
	Categories map[string]struct{}

	// Timestamps and Descriptions keep every matched record verbatim in
	// encounter order. Memory is deliberately unbounded: the window is a
	// bounded historical query, and fidelity wins over memory here.
	Timestamps   []time.Time
	Descriptions []string
}

func newAccumulator() *Accumulator {
	return &Accumulator{
		Sources:    make(map[string]struct{}),
		Severities: make(map[string]struct{}),
		Categories: make(map[string]struct{}),
	}
}

func (a *Accumulator) add(rec types.CanonicalRecord) {
	a.Frequency++
	a.Sources[rec.Source] = struct{}{}
	if rec.Severity != "" {
		a.Severities[rec.Severity] = struct{}{}
	}
	if rec.Category != nil {
		a.Categories[*rec.Category] = struct{}{}
	}
	a.Timestamps = append(a.Timestamps, rec.Timestamp)
	a.Descriptions = append(a.Descriptions, rec.Description)
}

// Result is the outcome of one aggregation run.
type Result struct {
	Accumulators map[Key]*Accumulator

	// Scanned counts every raw item retrieved from the source, whether or
	// not it normalized. Matched counts records that normalized and fell
	// inside the window.
	Scanned int
	Matched int
}

// Unique returns the number of distinct event-id keys.
func (r *Result) Unique() int { return len(r.Accumulators) }

// Engine performs one forward pass over a source.
type Engine struct {
	Normalizer *normalize.Normalizer
	Window     Window

	// Workers batch-parallelizes normalization when > 1. The fold itself
	// stays sequential in input order, so encounter-order invariants hold
	// without a merge pass.
	Workers int

	// Metrics is optional.
	Metrics *metrics.Collector
}

// Run reads the source to exhaustion and folds matching records into
// per-event-id accumulators. Source read failures are fatal; per-record
// faults never are.
func (e *Engine) Run(ctx context.Context, src evlog.Source) (*Result, error) {
	norm := e.Normalizer
	if norm == nil {
		norm = &normalize.Normalizer{}
	}

	start := time.Now()
	res := &Result{Accumulators: make(map[Key]*Accumulator)}

	for {
		batch, err := src.Read(ctx)
		if err != nil {
			return nil, fmt.Errorf("read event source: %w", err)
		}
		if len(batch) == 0 {
			break
		}

		records := e.normalizeBatch(norm, batch)
		for _, nr := range records {
			res.Scanned++
			if e.Metrics != nil {
				e.Metrics.RecordsScanned.Inc()
			}

			if !nr.ok {
				if e.Metrics != nil {
					e.Metrics.RecordsDropped.Inc()
				}
				continue
			}
			if !e.Window.Contains(nr.rec.Timestamp) {
				continue
			}

			res.Matched++
			if e.Metrics != nil {
				e.Metrics.RecordsMatched.Inc()
			}

			key := KeyOf(nr.rec.EventID)
			acc := res.Accumulators[key]
			if acc == nil {
				acc = newAccumulator()
				res.Accumulators[key] = acc
			}
			acc.add(nr.rec)
		}
	}

	if e.Metrics != nil {
		e.Metrics.AggregationDuration.Observe(time.Since(start).Seconds())
		e.Metrics.UniqueEventIDs.Set(float64(res.Unique()))
	}

	return res, nil
}

type normalized struct {
	rec types.CanonicalRecord
	ok  bool
}

// normalizeBatch normalizes one batch, fanning out across workers when
// configured. Output order always matches input order.
func (e *Engine) normalizeBatch(norm *normalize.Normalizer, batch []types.RawRecord) []normalized {
	out := make([]normalized, len(batch))

	workers := e.Workers
	if workers > len(batch) {
		workers = len(batch)
	}
	if workers <= 1 {
		for i, raw := range batch {
			out[i].rec, out[i].ok = norm.Normalize(raw)
		}
		return out
	}

	var next atomic.Int64
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for {
				i := int(next.Add(1)) - 1
				if i >= len(batch) {
					return
				}
				out[i].rec, out[i].ok = norm.Normalize(batch[i])
			}
		}()
	}
	wg.Wait()

	return out
}
