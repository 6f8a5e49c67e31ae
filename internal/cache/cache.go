// Package cache holds the locally served snapshot of remote tickets.
//
// Reads never touch the network; they may be stale by up to one fetch
// interval. The Fetcher is the only writer and replaces the snapshot
// wholesale on each successful refresh, so a failed refresh leaves the
// previous snapshot intact.
package cache

import (
	"sort"
	"sync"

	"github.com/tallcraft/ghtickets/internal/ticket"
)

// Cache is a concurrency-safe id→Ticket map: many readers, one writer.
type Cache struct {
	mu      sync.RWMutex
	tickets map[int]*ticket.Ticket
}

// New returns an empty cache.
func New() *Cache {
	return &Cache{tickets: make(map[int]*ticket.Ticket)}
}

// ReplaceAll atomically swaps the entire snapshot for the given tickets.
// Clear-then-repopulate, not merge: entries absent from the new list are
// gone, which bounds staleness and avoids orphaned tickets.
func (c *Cache) ReplaceAll(tickets []*ticket.Ticket) {
	next := make(map[int]*ticket.Ticket, len(tickets))
	for _, t := range tickets {
		next[t.ID] = t
	}

	c.mu.Lock()
	c.tickets = next
	c.mu.Unlock()
}

// Get returns the cached ticket with the given id, or nil.
func (c *Cache) Get(id int) *ticket.Ticket {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tickets[id]
}

// Open returns the cached tickets that are still open, ordered by id.
// Filtering happens here, client-side: the fetcher caches all states.
func (c *Cache) Open() []*ticket.Ticket {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []*ticket.Ticket
	for _, t := range c.tickets {
		if t.Open {
			out = append(out, t)
		}
	}
	sortByID(out)
	return out
}

// All returns every cached ticket, ordered by id.
func (c *Cache) All() []*ticket.Ticket {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]*ticket.Ticket, 0, len(c.tickets))
	for _, t := range c.tickets {
		out = append(out, t)
	}
	sortByID(out)
	return out
}

// Len returns the number of cached tickets.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.tickets)
}

func sortByID(tickets []*ticket.Ticket) {
	sort.Slice(tickets, func(i, j int) bool {
		return tickets[i].ID < tickets[j].ID
	})
}
