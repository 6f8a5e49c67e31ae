// Package ghtickets manages structured support tickets persisted as
// issues in a GitHub repository.
//
// The package wires the full pipeline: a text codec bridging tickets and
// issue bodies, a rate-limited serialized API queue, a periodically
// refreshed read cache, and a ticket service emitting notification
// events. Embedding applications construct a System from a validated
// Config, register notification handlers on the Bus, and talk to the
// Service.
package ghtickets

import (
	"context"
	"log/slog"

	"github.com/tallcraft/ghtickets/internal/cache"
	"github.com/tallcraft/ghtickets/internal/config"
	"github.com/tallcraft/ghtickets/internal/eventbus"
	"github.com/tallcraft/ghtickets/internal/github"
	"github.com/tallcraft/ghtickets/internal/service"
	"github.com/tallcraft/ghtickets/internal/store"
	"github.com/tallcraft/ghtickets/internal/ticket"
	"github.com/tallcraft/ghtickets/internal/worker"
)

// Core types for embedding applications.
type (
	Ticket        = ticket.Ticket
	TicketComment = ticket.TicketComment
	Location      = ticket.Location
	Config        = config.Config
	Event         = eventbus.Event
	EventType     = eventbus.EventType
	Handler       = eventbus.Handler
	HandlerFunc   = eventbus.HandlerFunc
	Author        = service.Author
	CreateRequest = service.CreateRequest
	StateFilter   = store.StateFilter
)

// Event types.
const (
	EventTicketCreated       = eventbus.EventTicketCreated
	EventTicketStatusChanged = eventbus.EventTicketStatusChanged
	EventTicketCommented     = eventbus.EventTicketCommented
)

// List filters.
const (
	FilterOpen   = store.FilterOpen
	FilterClosed = store.FilterClosed
	FilterAll    = store.FilterAll
)

// LoadConfig reads and validates configuration from the given file path.
// An empty path uses defaults and GHTICKETS_* environment variables only.
func LoadConfig(path string) (*Config, error) {
	return config.Load(path)
}

// System bundles the wired ticket pipeline.
type System struct {
	Service *service.Service
	Bus     *eventbus.Bus
	Cache   *cache.Cache
	Config  *Config

	queue   *worker.Queue
	fetcher *cache.Fetcher
	cancel  context.CancelFunc
}

// New wires a System from a validated config. Nothing runs until Start.
func New(cfg *Config, log *slog.Logger) *System {
	if log == nil {
		log = slog.Default()
	}

	client := github.NewClient(github.Credentials{
		Token:    cfg.Auth.Token,
		Username: cfg.Auth.Username,
		Password: cfg.Auth.Password,
	}, cfg.Repository.Owner, cfg.Repository.Name)

	queue := worker.New(cfg.EffectiveCallDelay(), log)
	st := store.New(client, queue, log)
	c := cache.New()
	bus := eventbus.New(log)
	svc := service.New(st, c, bus, cfg, log)

	fetcher := cache.NewFetcher(c, svc.RefreshList, cfg.StartupDelay, cfg.FetchInterval, log)

	return &System{
		Service: svc,
		Bus:     bus,
		Cache:   c,
		Config:  cfg,
		queue:   queue,
		fetcher: fetcher,
	}
}

// Start launches the API worker, connects to the backing repository, and
// starts the periodic cache refresh. It returns once connected.
func (s *System) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.queue.Start(runCtx)
	if err := s.Service.Connect(ctx); err != nil {
		cancel()
		s.queue.Close()
		return err
	}
	go s.fetcher.Run(runCtx)
	return nil
}

// Close stops the refresh job and shuts down the API queue, waiting for
// the operation in flight to finish.
func (s *System) Close() {
	if s.cancel != nil {
		s.cancel()
	}
	s.queue.Close()
}
