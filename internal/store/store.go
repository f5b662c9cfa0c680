// Package store holds the loaded liquidity dataset: the canonical
// normalized series set (immutable after load) and the most recent
// filtered snapshot. The raw document is fetched once per data load;
// there is no refresh loop.
package store

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/liqboard/liqboard/internal/infra"
	"github.com/liqboard/liqboard/internal/series"
	"github.com/liqboard/liqboard/pkg/models"
)

// Store is safe for concurrent readers. The canonical set is never
// mutated after Load; every view is a fresh set produced by the filter.
type Store struct {
	mu        sync.RWMutex
	loaded    bool
	canonical models.SeriesSet
	meta      models.Meta
	diags     []series.Diagnostic

	// lastFiltered is retained so a custom selector without a start
	// date can be answered with the prior view instead of an error.
	lastFiltered models.SeriesSet
}

// New creates an empty store in the "no data" state.
func New() *Store {
	return &Store{}
}

// Load parses and normalizes a raw document and installs it as the
// canonical dataset. The initial filtered snapshot uses the default
// 30d window so a subsequent unresolvable selector has a prior view
// to fall back on.
func (s *Store) Load(data []byte) error {
	raw, err := series.ParseRaw(data)
	if err != nil {
		return fmt.Errorf("parse raw document: %w", err)
	}
	set, meta, diags := series.Normalize(raw)

	initial, _ := series.Recompute(set, series.PresetSelector(series.Range30D), time.Now())

	s.mu.Lock()
	s.canonical = set
	s.meta = meta
	s.diags = diags
	s.lastFiltered = initial
	s.loaded = true
	s.mu.Unlock()
	return nil
}

// LoadFromFile loads the dataset from a local JSON document.
func (s *Store) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read dataset %s: %w", path, err)
	}
	return s.Load(data)
}

// LoadFromURL fetches the dataset from a static location with a single
// request. No retry: a failure leaves the store in its "no data" state
// and the caller decides whether to log and carry on.
func (s *Store) LoadFromURL(ctx context.Context, url string) error {
	body, _, err := infra.DoGet(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("fetch dataset: %w", err)
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("read dataset body: %w", err)
	}
	return s.Load(data)
}

// Loaded reports whether a dataset has been installed.
func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Canonical returns the normalized series set. It is shared, not
// copied; callers must treat it as read-only.
func (s *Store) Canonical() models.SeriesSet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.canonical
}

// Meta returns the resolved document metadata.
func (s *Store) Meta() models.Meta {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.meta
}

// Diagnostics returns the per-point diagnostics collected during
// normalization.
func (s *Store) Diagnostics() []series.Diagnostic {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.diags
}

// View resolves the selector against now and returns the filtered set,
// recording it as the latest snapshot. An unresolvable selector (custom
// without a start) returns the prior snapshot unchanged.
func (s *Store) View(sel series.Selector, now time.Time) models.SeriesSet {
	s.mu.RLock()
	canonical := s.canonical
	prior := s.lastFiltered
	s.mu.RUnlock()

	filtered, ok := series.Recompute(canonical, sel, now)
	if !ok {
		return prior
	}

	s.mu.Lock()
	s.lastFiltered = filtered
	s.mu.Unlock()
	return filtered
}
