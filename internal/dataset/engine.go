package dataset

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/NeuroTechWizards/ai-market/internal/model"
)

// snapshot is one load generation: a dataset and the index built from it.
// Readers always see one complete generation, never a mix.
type snapshot struct {
	data  *Dataset
	index *CompanyIndex
}

// Engine answers sample and time-series queries over the current snapshot.
// Queries are lock-free reads; a reload rebuilds a new snapshot off to the
// side and publishes it with a single pointer swap, so in-flight queries
// keep running against the previous generation.
type Engine struct {
	loader Loader

	current atomic.Pointer[snapshot]

	// reloadMu serializes concurrent reload attempts; it is never held
	// while serving queries.
	reloadMu sync.Mutex
}

// NewEngine creates an engine in the not-ready state. All queries fail with
// ErrNotReady until the first successful Load.
func NewEngine(loader Loader) *Engine {
	return &Engine{loader: loader}
}

// Healthy reports whether a snapshot is active.
func (e *Engine) Healthy() bool {
	return e.current.Load() != nil
}

// Load reads the source, builds the company index, and atomically installs
// the new snapshot. On failure the previously active snapshot (if any)
// stays in place; the error is wrapped with ErrLoad by the loader.
func (e *Engine) Load(ctx context.Context, source string) error {
	e.reloadMu.Lock()
	defer e.reloadMu.Unlock()

	data, err := e.loader.Load(ctx, source)
	if err != nil {
		if e.Healthy() {
			zap.L().Error("dataset reload failed, keeping previous snapshot",
				zap.String("source", source),
				zap.Error(err),
			)
		}
		return err
	}

	snap := &snapshot{data: data, index: BuildIndex(data)}
	e.current.Store(snap)

	zap.L().Info("dataset snapshot installed",
		zap.String("source", source),
		zap.Int("rows", data.Len()),
		zap.Int("companies", snap.index.Companies()),
	)
	return nil
}

// Sample returns copies of the first n rows in stored order. Asking for more
// rows than the dataset holds returns the whole dataset.
func (e *Engine) Sample(n int) ([]model.StatementRow, error) {
	if n <= 0 {
		return nil, eris.Wrapf(ErrInvalidArgument, "sample size %d", n)
	}
	snap := e.current.Load()
	if snap == nil {
		return nil, ErrNotReady
	}
	if n > snap.data.Len() {
		n = snap.data.Len()
	}
	out := make([]model.StatementRow, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, snap.data.Row(i))
	}
	return out, nil
}

// TimeSeries returns copies of every row for the tax identifier, ordered by
// year ascending.
func (e *Engine) TimeSeries(inn string) ([]model.StatementRow, error) {
	snap := e.current.Load()
	if snap == nil {
		return nil, ErrNotReady
	}
	positions := snap.index.Lookup(inn)
	if positions == nil {
		return nil, eris.Wrapf(ErrNotFound, "inn %s", inn)
	}
	out := make([]model.StatementRow, 0, len(positions))
	for _, p := range positions {
		out = append(out, snap.data.Row(p))
	}
	return out, nil
}

// Columns returns the column names of the active snapshot.
func (e *Engine) Columns() ([]string, error) {
	snap := e.current.Load()
	if snap == nil {
		return nil, ErrNotReady
	}
	return snap.data.Columns(), nil
}

// Size returns the row count of the active snapshot.
func (e *Engine) Size() (int, error) {
	snap := e.current.Load()
	if snap == nil {
		return 0, ErrNotReady
	}
	return snap.data.Len(), nil
}

// HasColumn reports whether the active snapshot declares the column.
func (e *Engine) HasColumn(name string) (bool, error) {
	snap := e.current.Load()
	if snap == nil {
		return false, ErrNotReady
	}
	return snap.data.HasColumn(name), nil
}

// Scan walks every row of the active snapshot in stored order until fn
// returns false. Rows are shared, not copied; fn must treat them as
// read-only. Used by in-process aggregations such as the market benchmark.
func (e *Engine) Scan(fn func(row model.StatementRow) bool) error {
	snap := e.current.Load()
	if snap == nil {
		return ErrNotReady
	}
	for i := 0; i < snap.data.Len(); i++ {
		if !fn(snap.data.row(i)) {
			return nil
		}
	}
	return nil
}
