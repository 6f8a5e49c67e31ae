package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tallcraft/ghtickets/internal/ticket"
)

func TestRefreshOncePopulatesCache(t *testing.T) {
	c := New()
	list := func(ctx context.Context) ([]*ticket.Ticket, error) {
		return []*ticket.Ticket{mkTicket(1, true), mkTicket(2, false)}, nil
	}

	f := NewFetcher(c, list, 0, time.Hour, nil)
	f.RefreshOnce(context.Background())

	assert.Equal(t, 2, c.Len())
}

func TestRefreshFailureKeepsSnapshot(t *testing.T) {
	c := New()
	c.ReplaceAll([]*ticket.Ticket{mkTicket(1, true)})

	list := func(ctx context.Context) ([]*ticket.Ticket, error) {
		return nil, errors.New("remote unavailable")
	}
	NewFetcher(c, list, 0, time.Hour, nil).RefreshOnce(context.Background())

	require.Equal(t, 1, c.Len(), "failed refresh must leave the previous snapshot intact")
	assert.NotNil(t, c.Get(1))
}

func TestRunRefreshesOnTicks(t *testing.T) {
	c := New()
	calls := make(chan struct{}, 16)
	list := func(ctx context.Context) ([]*ticket.Ticket, error) {
		calls <- struct{}{}
		return []*ticket.Ticket{mkTicket(1, true)}, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f := NewFetcher(c, list, time.Millisecond, 10*time.Millisecond, nil)
	go f.Run(ctx)

	// Initial refresh after the startup delay, then at least one tick.
	for i := 0; i < 2; i++ {
		select {
		case <-calls:
		case <-time.After(2 * time.Second):
			t.Fatalf("refresh %d never happened", i)
		}
	}
	assert.Equal(t, 1, c.Len())
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var called bool
	list := func(ctx context.Context) ([]*ticket.Ticket, error) {
		called = true
		return nil, nil
	}

	done := make(chan struct{})
	go func() {
		NewFetcher(New(), list, time.Hour, time.Hour, nil).Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.False(t, called, "cancelled fetcher must not refresh")
}
