package source

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cloudspend/multicloud-cost-advisor/pkg/models"
)

// MultiSource fans a fetch out across several provider sources in parallel.
// Each source only sees the resource IDs it reported in its own inventory,
// results are merged by concatenation, and a source that fails or times out
// degrades to missing data for its resources instead of failing the fetch.
type MultiSource struct {
	sources      []MetricsSource
	fetchTimeout time.Duration
	maxParallel  int
}

// NewMultiSource combines the given sources. fetchTimeout bounds each
// per-source fetch; maxParallel bounds concurrent provider calls.
func NewMultiSource(sources []MetricsSource, fetchTimeout time.Duration, maxParallel int) *MultiSource {
	if fetchTimeout <= 0 {
		fetchTimeout = 2 * time.Minute
	}
	if maxParallel <= 0 {
		maxParallel = 4
	}
	return &MultiSource{
		sources:      sources,
		fetchTimeout: fetchTimeout,
		maxParallel:  maxParallel,
	}
}

func (m *MultiSource) Name() string {
	return "multi"
}

func (m *MultiSource) IsAvailable(ctx context.Context) bool {
	for _, s := range m.sources {
		if s.IsAvailable(ctx) {
			return true
		}
	}
	return false
}

// ListResources merges the inventories of all sources. A source that cannot
// list is skipped; the fetch will later mark its resources missing.
func (m *MultiSource) ListResources(ctx context.Context) ([]models.ResourceInfo, error) {
	var (
		mu  sync.Mutex
		all []models.ResourceInfo
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.maxParallel)

	for _, s := range m.sources {
		s := s
		g.Go(func() error {
			infos, err := s.ListResources(gctx)
			if err != nil {
				return nil // degraded, not fatal
			}
			mu.Lock()
			all = append(all, infos...)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return all, nil
}

func (m *MultiSource) Fetch(ctx context.Context, ids []string, window models.Window) ([]models.ResourceSample, error) {
	if len(ids) == 0 {
		return nil, errors.New("multi: resource id set must be non-empty")
	}

	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}

	var (
		mu     sync.Mutex
		merged []models.ResourceSample
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.maxParallel)

	for _, s := range m.sources {
		s := s
		g.Go(func() error {
			infos, err := s.ListResources(gctx)
			if err != nil {
				return nil
			}

			var own []string
			for _, info := range infos {
				if wanted[info.ID] {
					own = append(own, info.ID)
				}
			}
			if len(own) == 0 {
				return nil
			}

			fetchCtx, cancel := context.WithTimeout(gctx, m.fetchTimeout)
			defer cancel()

			samples, err := s.Fetch(fetchCtx, own, window)
			if err != nil {
				var partial *PartialDataError
				if !errors.As(err, &partial) {
					// Total failure for this source: its samples are
					// simply absent and show up in the missing set.
					return nil
				}
			}

			mu.Lock()
			merged = append(merged, samples...)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return merged, err
	}

	if missing := MissingFrom(ids, merged); len(missing) > 0 {
		return merged, NewPartialDataError(m.Name(), missing)
	}
	return merged, nil
}
