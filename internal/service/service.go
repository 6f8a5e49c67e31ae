// Package service orchestrates ticket operations: it validates input
// before any remote call is scheduled, applies configuration overrides,
// drives the remote store, serves reads from the local cache, and emits
// notification events for presentation collaborators.
//
// Absent results are returned as (nil, nil) — "ticket not found" is an
// answer, not an error. Transport failures are errors and never masked.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tallcraft/ghtickets/internal/cache"
	"github.com/tallcraft/ghtickets/internal/config"
	"github.com/tallcraft/ghtickets/internal/eventbus"
	"github.com/tallcraft/ghtickets/internal/store"
	"github.com/tallcraft/ghtickets/internal/ticket"
)

// ErrValidation is the sentinel wrapped by all request validation
// failures. Validation happens synchronously, before a queue slot is
// consumed, so invalid requests never touch the rate budget.
var ErrValidation = errors.New("invalid ticket request")

// ValidationError describes one invalid request field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("ticket request: %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// TicketStore is the remote persistence surface the service drives.
// *store.Store implements it; tests substitute fakes.
type TicketStore interface {
	Connect(ctx context.Context) error
	Create(ctx context.Context, t *ticket.Ticket) (*ticket.Ticket, error)
	Fetch(ctx context.Context, id int) (*ticket.Ticket, error)
	AddComment(ctx context.Context, id int, comment ticket.TicketComment) (*ticket.Ticket, error)
	SetStatus(ctx context.Context, id int, open bool) (*ticket.Ticket, error)
	List(ctx context.Context, filter store.StateFilter) ([]*ticket.Ticket, error)
}

// Author identifies who is acting on a ticket.
type Author struct {
	// ID is nil for non-player actors (console, web).
	ID *uuid.UUID

	// DisplayName is shown next to comments. Required.
	DisplayName string
}

// CreateRequest carries the fields for a new ticket.
type CreateRequest struct {
	// CreatedAt defaults to the current time when zero.
	CreatedAt  time.Time
	AuthorID   uuid.UUID
	AuthorName string
	ServerName string
	WorldName  string
	Location   *ticket.Location
	Body       string
}

// Service is the ticket system's public orchestration layer. Construct
// one explicitly and pass it to consumers; there is no global instance.
type Service struct {
	store TicketStore
	cache *cache.Cache
	bus   *eventbus.Bus
	cfg   *config.Config
	log   *slog.Logger

	now func() time.Time
}

// New wires a service from its collaborators.
func New(ts TicketStore, c *cache.Cache, bus *eventbus.Bus, cfg *config.Config, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		store: ts,
		cache: c,
		bus:   bus,
		cfg:   cfg,
		log:   log,
		now:   time.Now,
	}
}

// Connect establishes the remote session. Call once before any write.
func (s *Service) Connect(ctx context.Context) error {
	return s.store.Connect(ctx)
}

// CreateTicket validates the request, applies the configured server-name
// override, creates the backing issue, and emits a TicketCreated event.
// It returns the remote-assigned ticket ID.
func (s *Service) CreateTicket(ctx context.Context, req CreateRequest) (int, error) {
	if req.AuthorName == "" {
		return ticket.Unassigned, &ValidationError{Field: "authorName", Reason: "must not be empty"}
	}
	if words := ticket.WordCount(req.Body); words < s.cfg.MinWordCount {
		return ticket.Unassigned, &ValidationError{
			Field:  "body",
			Reason: fmt.Sprintf("needs at least %d words, got %d", s.cfg.MinWordCount, words),
		}
	}

	serverName := req.ServerName
	if s.cfg.ServerName != "" {
		// Configured override wins over whatever the caller supplied.
		serverName = s.cfg.ServerName
	}

	createdAt := req.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.now()
	}

	t := ticket.New(createdAt, req.AuthorID, req.AuthorName, serverName, req.WorldName, req.Location, req.Body)
	created, err := s.store.Create(ctx, t)
	if err != nil {
		return ticket.Unassigned, err
	}

	s.emit(ctx, &eventbus.Event{
		Type:   eventbus.EventTicketCreated,
		Ticket: created,
		Actor:  created.AuthorID,
	})
	return created.ID, nil
}

// GetTicket serves a ticket from the local cache. The result may be
// stale by up to one fetch interval; nil means not cached.
func (s *Service) GetTicket(id int) *ticket.Ticket {
	return s.cache.Get(id)
}

// ListTickets serves tickets from the local cache, filtered client-side.
func (s *Service) ListTickets(filter store.StateFilter) []*ticket.Ticket {
	switch filter {
	case store.FilterOpen:
		return s.cache.Open()
	case store.FilterClosed:
		var closed []*ticket.Ticket
		for _, t := range s.cache.All() {
			if !t.Open {
				closed = append(closed, t)
			}
		}
		return closed
	default:
		return s.cache.All()
	}
}

// FetchTicket bypasses the cache and reads the ticket from the remote
// store, comments included. (nil, nil) means the ticket does not exist.
func (s *Service) FetchTicket(ctx context.Context, id int) (*ticket.Ticket, error) {
	return s.store.Fetch(ctx, id)
}

// RefreshList fetches the full remote ticket list through the store.
// The cache fetcher uses this; it is exported for on-demand refreshes.
func (s *Service) RefreshList(ctx context.Context) ([]*ticket.Ticket, error) {
	return s.store.List(ctx, store.FilterAll)
}

// ReplyTicket appends a comment to the ticket and emits a
// TicketCommented event. (nil, nil) means the ticket does not exist.
func (s *Service) ReplyTicket(ctx context.Context, id int, author Author, text string) (*ticket.Ticket, error) {
	if author.DisplayName == "" {
		return nil, &ValidationError{Field: "author", Reason: "display name must not be empty"}
	}
	if text == "" {
		return nil, &ValidationError{Field: "text", Reason: "must not be empty"}
	}

	comment := ticket.TicketComment{
		AuthorID:    author.ID,
		DisplayName: author.DisplayName,
		Body:        text,
	}
	t, err := s.store.AddComment(ctx, id, comment)
	if err != nil || t == nil {
		return t, err
	}

	appended := t.Comments[len(t.Comments)-1]
	s.emit(ctx, &eventbus.Event{
		Type:    eventbus.EventTicketCommented,
		Ticket:  t,
		Comment: &appended,
		Actor:   author.ID,
	})
	return t, nil
}

// SetStatus opens or closes a ticket and emits a TicketStatusChanged
// event carrying the actor for self-notification suppression.
// (nil, nil) means the ticket does not exist. Status is freely
// reversible; there is no terminal state.
func (s *Service) SetStatus(ctx context.Context, id int, open bool, actor *uuid.UUID) (*ticket.Ticket, error) {
	t, err := s.store.SetStatus(ctx, id, open)
	if err != nil || t == nil {
		return t, err
	}

	s.emit(ctx, &eventbus.Event{
		Type:   eventbus.EventTicketStatusChanged,
		Ticket: t,
		Actor:  actor,
	})
	return t, nil
}

// OpenTicket re-opens a closed ticket.
func (s *Service) OpenTicket(ctx context.Context, id int, actor *uuid.UUID) (*ticket.Ticket, error) {
	return s.SetStatus(ctx, id, true, actor)
}

// CloseTicket closes an open ticket.
func (s *Service) CloseTicket(ctx context.Context, id int, actor *uuid.UUID) (*ticket.Ticket, error) {
	return s.SetStatus(ctx, id, false, actor)
}

// emit dispatches a notification event. Fire-and-forget: dispatch
// problems are logged and never fail the operation that produced them.
func (s *Service) emit(ctx context.Context, event *eventbus.Event) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Dispatch(ctx, event); err != nil {
		s.log.Warn("event dispatch failed", "event", event.Type, "err", err)
	}
}
