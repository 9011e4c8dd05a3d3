package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sync/atomic"
	"time"

	"github.com/rendis/proximo/internal/engine/resolver"
	"github.com/rendis/proximo/internal/engine/storage"
	"github.com/rendis/proximo/internal/model"
)

const defaultPageSize = 100

// Stats tracks sync progress. All counters are safe for concurrent reads
// while the pipeline runs.
type Stats struct {
	PagesDone       atomic.Int64
	ProvidersFound  atomic.Int64
	ProvidersStored atomic.Int64
	Errors          atomic.Int64
	RateLimits      atomic.Int64

	Resolve resolver.Stats
}

// RunOptions provides optional hooks for the sync pipeline.
type RunOptions struct {
	// OnProviders is called with each page of providers after location
	// resolution. The TUI uses it to plot points in real time.
	OnProviders func([]model.Provider)
	// SuppressStderr disables the built-in stderr progress reporter.
	SuppressStderr bool
	// Stats allows passing an external Stats object for live progress
	// tracking. If nil, Run creates its own.
	Stats *Stats
}

// Run executes the sync pipeline: page through the directory API, resolve
// locations for records without coordinates, and store the results.
func Run(ctx context.Context, params model.SyncParams, store *storage.Store, logger *log.Logger, opts *RunOptions) (*Stats, error) {
	if opts == nil {
		opts = &RunOptions{}
	}

	stats := opts.Stats
	if stats == nil {
		stats = &Stats{}
	}

	pageSize := params.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	client := NewClient(params.SourceURL, params.APIKey, params.ProxyURL)
	res := resolver.New()

	startTime := time.Now()
	done := make(chan struct{})
	defer close(done)
	go reportProgress(stats, logger, startTime, opts.SuppressStderr, done)

	fetched := 0
	for offset := 0; ; offset += pageSize {
		select {
		case <-ctx.Done():
			return stats, ctx.Err()
		default:
		}

		limit := pageSize
		if params.Limit > 0 && params.Limit-fetched < limit {
			limit = params.Limit - fetched
		}
		if limit <= 0 {
			break
		}

		rows, err := client.FetchPage(ctx, offset, limit)
		if err != nil {
			if rl, ok := err.(*RateLimitError); ok {
				stats.RateLimits.Add(1)
				logger.Printf("RATE_LIMIT offset=%d status=%d", offset, rl.StatusCode)
			} else {
				logger.Printf("ERROR offset=%d err=%v", offset, err)
			}
			stats.Errors.Add(1)
			return stats, fmt.Errorf("fetching page at offset %d: %w", offset, err)
		}

		if len(rows) == 0 {
			break
		}
		fetched += len(rows)
		stats.ProvidersFound.Add(int64(len(rows)))

		providers := make([]model.Provider, len(rows))
		for i, r := range rows {
			providers[i] = r.Provider()
		}

		if params.Debug {
			debugFile := fmt.Sprintf("debug_page_%d.json", offset/pageSize)
			writeDebugPage(debugFile, rows, logger)
		}

		res.ResolveAll(ctx, providers, params.Concurrency, &stats.Resolve)

		if opts.OnProviders != nil {
			opts.OnProviders(providers)
		}

		inserted, err := store.InsertBatch(providers)
		if err != nil {
			stats.Errors.Add(1)
			logger.Printf("ERROR storing page offset=%d err=%v", offset, err)
		} else {
			stats.ProvidersStored.Add(int64(inserted))
		}

		stats.PagesDone.Add(1)

		if len(rows) < limit {
			break
		}
	}

	if !opts.SuppressStderr {
		elapsed := time.Since(startTime).Truncate(time.Second)
		fmt.Fprintf(os.Stderr, "\r[%d pages] %d providers | %d stored | %d located | %d errors | %s\n",
			stats.PagesDone.Load(), stats.ProvidersFound.Load(),
			stats.ProvidersStored.Load(), stats.Resolve.Located.Load(),
			stats.Errors.Load(), elapsed)
	}

	return stats, nil
}

func reportProgress(stats *Stats, logger *log.Logger, startTime time.Time, suppressStderr bool, done <-chan struct{}) {
	ticker := time.NewTicker(2 * time.Second)
	logTicker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	defer logTicker.Stop()
	for {
		select {
		case <-ticker.C:
			if suppressStderr {
				continue
			}
			elapsed := time.Since(startTime).Truncate(time.Second)
			fmt.Fprintf(os.Stderr, "\r[%d pages] %d providers | %d stored | %d located | %d errors | %s",
				stats.PagesDone.Load(), stats.ProvidersFound.Load(),
				stats.ProvidersStored.Load(), stats.Resolve.Located.Load(),
				stats.Errors.Load(), elapsed)
		case <-logTicker.C:
			elapsed := time.Since(startTime).Truncate(time.Second)
			logger.Printf("PROGRESS pages=%d found=%d stored=%d located=%d partial=%d errors=%d rate_limits=%d elapsed=%s",
				stats.PagesDone.Load(), stats.ProvidersFound.Load(),
				stats.ProvidersStored.Load(), stats.Resolve.Located.Load(),
				stats.Resolve.Partial.Load(), stats.Errors.Load(),
				stats.RateLimits.Load(), elapsed)
		case <-done:
			return
		}
	}
}

func writeDebugPage(path string, rows []Row, logger *log.Logger) {
	data, err := json.MarshalIndent(rows, "", "  ")
	if err == nil {
		err = os.WriteFile(path, data, 0644)
	}
	if err != nil {
		logger.Printf("DEBUG write %s: %v", path, err)
	}
}
