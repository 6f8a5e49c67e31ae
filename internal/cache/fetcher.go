package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/tallcraft/ghtickets/internal/ticket"
)

// ListFunc fetches the full remote ticket list. It is expected to route
// through the serialized API queue so refresh traffic and on-demand
// traffic share one rate budget.
type ListFunc func(ctx context.Context) ([]*ticket.Ticket, error)

// Fetcher periodically repopulates a Cache with a full remote refresh.
type Fetcher struct {
	cache        *Cache
	list         ListFunc
	startupDelay time.Duration
	interval     time.Duration
	log          *slog.Logger
}

// NewFetcher creates a fetcher that refreshes cache every interval after
// an initial startupDelay.
func NewFetcher(cache *Cache, list ListFunc, startupDelay, interval time.Duration, log *slog.Logger) *Fetcher {
	if log == nil {
		log = slog.Default()
	}
	return &Fetcher{
		cache:        cache,
		list:         list,
		startupDelay: startupDelay,
		interval:     interval,
		log:          log,
	}
}

// Run blocks until ctx is cancelled, refreshing the cache on every tick.
// A failed refresh is logged and leaves the previous snapshot untouched.
func (f *Fetcher) Run(ctx context.Context) {
	select {
	case <-time.After(f.startupDelay):
	case <-ctx.Done():
		return
	}

	f.RefreshOnce(ctx)

	tick := time.NewTicker(f.interval)
	defer tick.Stop()
	for {
		select {
		case <-tick.C:
			f.RefreshOnce(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// RefreshOnce performs a single refresh cycle.
func (f *Fetcher) RefreshOnce(ctx context.Context) {
	tickets, err := f.list(ctx)
	if err != nil {
		f.log.Warn("ticket refresh failed, keeping previous snapshot", "err", err)
		return
	}
	f.cache.ReplaceAll(tickets)
	f.log.Debug("ticket cache refreshed", "count", len(tickets))
}
