package resolver

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/rendis/proximo/internal/model"
)

// Stats tracks progress of a batch resolution.
type Stats struct {
	Total    int
	Done     atomic.Int64
	Located  atomic.Int64 // records that ended up with coordinates
	Partial  atomic.Int64 // records with city/state but no coordinates
	Unplaced atomic.Int64 // records with nothing resolved
}

// ResolveAll resolves every provider's raw location concurrently, capped at
// the given concurrency, and writes the result back into the slice. Each
// record is enriched independently and exactly once; a failed resolution
// leaves that record without coordinates and never aborts the batch. Returns
// early (with partial results applied) when ctx is cancelled.
func (r *Resolver) ResolveAll(ctx context.Context, providers []model.Provider, concurrency int, stats *Stats) {
	if stats == nil {
		stats = &Stats{}
	}
	stats.Total = len(providers)
	if concurrency <= 0 {
		concurrency = 10
	}

	var wg sync.WaitGroup
	sem := make(chan struct{}, concurrency)

	for i := range providers {
		select {
		case <-ctx.Done():
			wg.Wait()
			return
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(p *model.Provider) {
			defer wg.Done()
			defer func() { <-sem }()
			defer stats.Done.Add(1)

			// Rows that arrive with coordinates skip the network entirely.
			if p.HasCoords {
				stats.Located.Add(1)
				return
			}

			place := r.Resolve(ctx, p.RawLocation)
			if place.City != "" {
				p.City = place.City
			}
			if place.State != "" {
				p.State = place.State
			}
			if place.HasCoords {
				p.Lat, p.Lng, p.HasCoords = place.Lat, place.Lng, true
				stats.Located.Add(1)
			} else if place.City != "" || place.State != "" {
				stats.Partial.Add(1)
			} else {
				stats.Unplaced.Add(1)
			}
		}(&providers[i])
	}

	wg.Wait()
}
