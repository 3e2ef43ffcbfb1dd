package dataview

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/raphaelgruber/oceanboard/internal/export"
	"github.com/raphaelgruber/oceanboard/internal/filter"
	"github.com/raphaelgruber/oceanboard/internal/metrics"
)

// ErrStale is returned by Refresh when a newer refresh started while this
// one was in flight; its response is discarded.
var ErrStale = errors.New("response superseded by a newer refresh")

// Config configures a View.
type Config[T any] struct {
	// Name identifies the view in metrics, logs and export file names.
	Name     string
	Loader   Loader[T]
	Filter   *filter.Engine[T]
	// Preset adjusts the starting filter set. It is checked by the first load.
	Preset   func(filter.Set) filter.Set
	Exporter *export.Exporter[T]
	Metrics  *metrics.Collector
	Logger   *slog.Logger
}

// View holds a dataset, the active filter set and the filtered result.
// It is safe for concurrent use; fetches run outside the lock.
type View[T any] struct {
	cfg Config[T]

	mu         sync.RWMutex
	generation uint64
	data       []T
	filtered   []T
	set        filter.Set
	origin     Origin
	loadedAt   time.Time
}

// New creates an empty view. The filter set starts at the schema defaults.
func New[T any](cfg Config[T]) *View[T] {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	v := &View[T]{cfg: cfg, data: []T{}, filtered: []T{}}
	if cfg.Filter != nil {
		v.set = cfg.Filter.Schema().DefaultSet()
		if cfg.Preset != nil {
			v.set = cfg.Preset(v.set).Clone()
		}
	}
	return v
}

// Name returns the view name.
func (v *View[T]) Name() string {
	return v.cfg.Name
}

// Refresh loads a new dataset and recomputes the filtered view. If another
// Refresh started after this one, the result is dropped and ErrStale returned.
func (v *View[T]) Refresh(ctx context.Context) (Result[T], error) {
	v.mu.Lock()
	v.generation++
	token := v.generation
	v.mu.Unlock()

	start := time.Now()
	res, err := v.cfg.Loader.Load(ctx)
	if err != nil {
		return res, err
	}
	v.cfg.Metrics.RecordFetch(v.cfg.Name, time.Since(start), res.Origin == OriginSynthetic)

	v.mu.Lock()
	defer v.mu.Unlock()

	if token != v.generation {
		v.cfg.Metrics.RecordStale(v.cfg.Name)
		v.cfg.Logger.Debug("discarding stale response", "view", v.cfg.Name, "generation", token, "latest", v.generation)
		return res, ErrStale
	}

	filtered, err := v.apply(res.Data, v.set)
	if err != nil {
		return res, err
	}
	v.data = res.Data
	v.filtered = filtered
	v.origin = res.Origin
	v.loadedAt = time.Now()
	return res, nil
}

// Replace installs a dataset directly, bypassing the loader.
func (v *View[T]) Replace(data []T, origin Origin) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	filtered, err := v.apply(data, v.set)
	if err != nil {
		return err
	}
	v.generation++
	v.data = data
	v.filtered = filtered
	v.origin = origin
	v.loadedAt = time.Now()
	return nil
}

// SetFilter replaces the filter set and recomputes the filtered view.
// On error the previous set and view are kept.
func (v *View[T]) SetFilter(set filter.Set) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.setFilterLocked(set)
}

// UpdateFilter derives a new filter set from the current one. The read and
// the write happen under one lock, so concurrent updates compose; update must
// not call back into the view.
func (v *View[T]) UpdateFilter(update func(filter.Set) filter.Set) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.setFilterLocked(update(v.set.Clone()))
}

func (v *View[T]) setFilterLocked(set filter.Set) error {
	filtered, err := v.apply(v.data, set)
	if err != nil {
		return err
	}
	v.set = set.Clone()
	v.filtered = filtered
	return nil
}

// ResetFilter restores the schema defaults.
func (v *View[T]) ResetFilter() error {
	if v.cfg.Filter == nil {
		return nil
	}
	return v.SetFilter(v.cfg.Filter.Schema().DefaultSet())
}

// Filter returns a copy of the active filter set.
func (v *View[T]) Filter() filter.Set {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.set.Clone()
}

// Data returns a copy of the full dataset.
func (v *View[T]) Data() []T {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return append([]T{}, v.data...)
}

// Filtered returns a copy of the filtered view.
func (v *View[T]) Filtered() []T {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return append([]T{}, v.filtered...)
}

// Origin reports where the current dataset came from; empty before the first load.
func (v *View[T]) Origin() Origin {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.origin
}

// LoadedAt is when the current dataset was installed.
func (v *View[T]) LoadedAt() time.Time {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.loadedAt
}

// Export saves the current filtered view and returns the file path.
func (v *View[T]) Export(format export.Format) (string, error) {
	if v.cfg.Exporter == nil {
		return "", errors.New("view has no exporter")
	}
	return v.cfg.Exporter.Export(v.Filtered(), format, v.cfg.Name)
}

func (v *View[T]) apply(data []T, set filter.Set) ([]T, error) {
	if v.cfg.Filter == nil {
		return append([]T{}, data...), nil
	}
	return v.cfg.Filter.Apply(data, set)
}
