package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tallcraft/ghtickets/internal/cache"
	"github.com/tallcraft/ghtickets/internal/config"
	"github.com/tallcraft/ghtickets/internal/eventbus"
	"github.com/tallcraft/ghtickets/internal/store"
	"github.com/tallcraft/ghtickets/internal/ticket"
)

var (
	svcTime   = time.Date(2024, 3, 17, 12, 30, 0, 0, time.UTC)
	steveUUID = uuid.MustParse("069a79f4-44e9-4726-a5be-fca90e38aaf5")
)

// fakeStore records calls and plays back canned results.
type fakeStore struct {
	created    *ticket.Ticket
	createErr  error
	fetched    *ticket.Ticket
	commented  *ticket.Ticket
	statusSet  *ticket.Ticket
	listed     []*ticket.Ticket
	lastFilter store.StateFilter
	calls      []string
}

func (f *fakeStore) Connect(ctx context.Context) error {
	f.calls = append(f.calls, "connect")
	return nil
}

func (f *fakeStore) Create(ctx context.Context, t *ticket.Ticket) (*ticket.Ticket, error) {
	f.calls = append(f.calls, "create")
	if f.createErr != nil {
		return nil, f.createErr
	}
	if f.created != nil {
		return f.created, nil
	}
	out := *t
	out.ID = 42
	return &out, nil
}

func (f *fakeStore) Fetch(ctx context.Context, id int) (*ticket.Ticket, error) {
	f.calls = append(f.calls, "fetch")
	return f.fetched, nil
}

func (f *fakeStore) AddComment(ctx context.Context, id int, comment ticket.TicketComment) (*ticket.Ticket, error) {
	f.calls = append(f.calls, "addComment")
	if f.commented == nil {
		return nil, nil
	}
	out := *f.commented
	comment.CreatedAt = svcTime
	out.Comments = append(out.Comments, comment)
	return &out, nil
}

func (f *fakeStore) SetStatus(ctx context.Context, id int, open bool) (*ticket.Ticket, error) {
	f.calls = append(f.calls, "setStatus")
	if f.statusSet == nil {
		return nil, nil
	}
	out := *f.statusSet
	out.Open = open
	return &out, nil
}

func (f *fakeStore) List(ctx context.Context, filter store.StateFilter) ([]*ticket.Ticket, error) {
	f.calls = append(f.calls, "list")
	f.lastFilter = filter
	return f.listed, nil
}

// eventRecorder counts dispatched events by type.
type eventRecorder struct {
	events []*eventbus.Event
}

func (r *eventRecorder) register(bus *eventbus.Bus, types ...eventbus.EventType) {
	bus.Register(&eventbus.HandlerFunc{
		Name:  "recorder",
		Types: types,
		Func: func(ctx context.Context, event *eventbus.Event) error {
			r.events = append(r.events, event)
			return nil
		},
	})
}

func newService(fs *fakeStore, cfg *config.Config) (*Service, *eventRecorder, *cache.Cache) {
	if cfg == nil {
		cfg = config.Default()
	}
	c := cache.New()
	bus := eventbus.New(nil)
	rec := &eventRecorder{}
	rec.register(bus, eventbus.EventTicketCreated, eventbus.EventTicketStatusChanged, eventbus.EventTicketCommented)

	s := New(fs, c, bus, cfg, nil)
	s.now = func() time.Time { return svcTime }
	return s, rec, c
}

func validCreate() CreateRequest {
	return CreateRequest{
		AuthorID:   steveUUID,
		AuthorName: "Steve",
		ServerName: "Survival",
		WorldName:  "world",
		Body:       "Help, zombies are attacking",
	}
}

func TestCreateTicket(t *testing.T) {
	fs := &fakeStore{}
	s, rec, _ := newService(fs, nil)

	id, err := s.CreateTicket(context.Background(), validCreate())
	require.NoError(t, err)
	assert.Equal(t, 42, id)

	require.Len(t, rec.events, 1)
	ev := rec.events[0]
	assert.Equal(t, eventbus.EventTicketCreated, ev.Type)
	require.NotNil(t, ev.Actor)
	assert.Equal(t, steveUUID, *ev.Actor)
	assert.Equal(t, 42, ev.Ticket.ID)
}

func TestCreateTicketValidationBeforeStore(t *testing.T) {
	tests := []struct {
		name string
		mod  func(*CreateRequest)
	}{
		{"empty author", func(r *CreateRequest) { r.AuthorName = "" }},
		{"too few words", func(r *CreateRequest) { r.Body = "help" }},
		{"empty body", func(r *CreateRequest) { r.Body = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := &fakeStore{}
			s, rec, _ := newService(fs, nil)

			req := validCreate()
			tt.mod(&req)

			id, err := s.CreateTicket(context.Background(), req)
			assert.Equal(t, ticket.Unassigned, id)
			assert.ErrorIs(t, err, ErrValidation)
			var verr *ValidationError
			assert.ErrorAs(t, err, &verr)

			assert.Empty(t, fs.calls, "invalid requests must not reach the store")
			assert.Empty(t, rec.events, "invalid requests must not emit events")
		})
	}
}

func TestCreateTicketServerNameOverride(t *testing.T) {
	cfg := config.Default()
	cfg.ServerName = "Lobby"

	var captured *ticket.Ticket
	fs := &fakeStore{}
	s, _, _ := newService(fs, cfg)
	fs.created = nil

	// Capture through the fake by making Create echo its input.
	s.store = storeFunc(func(ctx context.Context, tk *ticket.Ticket) (*ticket.Ticket, error) {
		captured = tk
		out := *tk
		out.ID = 1
		return &out, nil
	})

	_, err := s.CreateTicket(context.Background(), validCreate())
	require.NoError(t, err)
	require.NotNil(t, captured)
	assert.Equal(t, "Lobby", captured.ServerName, "configured server name wins over the request's")
}

// storeFunc adapts a create function into a TicketStore for capture tests.
type storeFunc func(ctx context.Context, t *ticket.Ticket) (*ticket.Ticket, error)

func (f storeFunc) Connect(ctx context.Context) error { return nil }
func (f storeFunc) Create(ctx context.Context, t *ticket.Ticket) (*ticket.Ticket, error) {
	return f(ctx, t)
}
func (f storeFunc) Fetch(ctx context.Context, id int) (*ticket.Ticket, error) { return nil, nil }
func (f storeFunc) AddComment(ctx context.Context, id int, c ticket.TicketComment) (*ticket.Ticket, error) {
	return nil, nil
}
func (f storeFunc) SetStatus(ctx context.Context, id int, open bool) (*ticket.Ticket, error) {
	return nil, nil
}
func (f storeFunc) List(ctx context.Context, filter store.StateFilter) ([]*ticket.Ticket, error) {
	return nil, nil
}

func TestCreateTicketDefaultsCreatedAt(t *testing.T) {
	var captured *ticket.Ticket
	s, _, _ := newService(&fakeStore{}, nil)
	s.store = storeFunc(func(ctx context.Context, tk *ticket.Ticket) (*ticket.Ticket, error) {
		captured = tk
		out := *tk
		out.ID = 1
		return &out, nil
	})

	req := validCreate()
	req.CreatedAt = time.Time{}
	_, err := s.CreateTicket(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, svcTime, captured.CreatedAt)

	explicit := svcTime.Add(-time.Hour)
	req.CreatedAt = explicit
	_, err = s.CreateTicket(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, explicit, captured.CreatedAt)
}

func TestCreateTicketStoreErrorEmitsNothing(t *testing.T) {
	fs := &fakeStore{createErr: errors.New("remote down")}
	s, rec, _ := newService(fs, nil)

	id, err := s.CreateTicket(context.Background(), validCreate())
	assert.Error(t, err)
	assert.Equal(t, ticket.Unassigned, id)
	assert.Empty(t, rec.events)
}

func TestGetAndListFromCache(t *testing.T) {
	fs := &fakeStore{}
	s, _, c := newService(fs, nil)
	c.ReplaceAll([]*ticket.Ticket{
		{ID: 1, Open: true},
		{ID: 2, Open: false},
		{ID: 3, Open: true},
	})

	assert.NotNil(t, s.GetTicket(2))
	assert.Nil(t, s.GetTicket(99))

	open := s.ListTickets(store.FilterOpen)
	require.Len(t, open, 2)
	closed := s.ListTickets(store.FilterClosed)
	require.Len(t, closed, 1)
	assert.Equal(t, 2, closed[0].ID)
	assert.Len(t, s.ListTickets(store.FilterAll), 3)

	assert.Empty(t, fs.calls, "cache reads must not touch the store")
}

func TestRefreshListUsesAllFilter(t *testing.T) {
	fs := &fakeStore{listed: []*ticket.Ticket{{ID: 1, Open: true}}}
	s, _, _ := newService(fs, nil)

	tickets, err := s.RefreshList(context.Background())
	require.NoError(t, err)
	assert.Len(t, tickets, 1)
	assert.Equal(t, store.FilterAll, fs.lastFilter)
}

func TestReplyTicket(t *testing.T) {
	fs := &fakeStore{commented: &ticket.Ticket{ID: 5, Open: true}}
	s, rec, _ := newService(fs, nil)

	id := steveUUID
	got, err := s.ReplyTicket(context.Background(), 5, Author{ID: &id, DisplayName: "Steve"}, "on it")
	require.NoError(t, err)
	require.NotNil(t, got)

	require.Len(t, rec.events, 1)
	ev := rec.events[0]
	assert.Equal(t, eventbus.EventTicketCommented, ev.Type)
	require.NotNil(t, ev.Comment)
	assert.Equal(t, "on it", ev.Comment.Body)
	require.NotNil(t, ev.Actor)
	assert.Equal(t, steveUUID, *ev.Actor)
}

func TestReplyTicketValidation(t *testing.T) {
	fs := &fakeStore{}
	s, rec, _ := newService(fs, nil)

	_, err := s.ReplyTicket(context.Background(), 5, Author{}, "text")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = s.ReplyTicket(context.Background(), 5, Author{DisplayName: "Steve"}, "")
	assert.ErrorIs(t, err, ErrValidation)

	assert.Empty(t, fs.calls)
	assert.Empty(t, rec.events)
}

func TestReplyTicketAbsent(t *testing.T) {
	fs := &fakeStore{commented: nil}
	s, rec, _ := newService(fs, nil)

	got, err := s.ReplyTicket(context.Background(), 999, Author{DisplayName: "Steve"}, "hello there")
	assert.NoError(t, err)
	assert.Nil(t, got)
	assert.Empty(t, rec.events, "absent ticket must not emit an event")
}

func TestCloseTicketEmitsOneStatusEvent(t *testing.T) {
	fs := &fakeStore{statusSet: &ticket.Ticket{ID: 7, Open: true}}
	s, rec, _ := newService(fs, nil)

	actor := steveUUID
	got, err := s.CloseTicket(context.Background(), 7, &actor)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.False(t, got.Open)

	require.Len(t, rec.events, 1, "exactly one status event per transition")
	ev := rec.events[0]
	assert.Equal(t, eventbus.EventTicketStatusChanged, ev.Type)
	require.NotNil(t, ev.Actor)
	assert.Equal(t, actor, *ev.Actor)
}

func TestOpenTicketReversible(t *testing.T) {
	fs := &fakeStore{statusSet: &ticket.Ticket{ID: 7, Open: false}}
	s, rec, _ := newService(fs, nil)

	got, err := s.OpenTicket(context.Background(), 7, nil)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Open)
	require.Len(t, rec.events, 1)
	assert.Nil(t, rec.events[0].Actor, "console actions carry no actor")
}

func TestSetStatusAbsent(t *testing.T) {
	fs := &fakeStore{statusSet: nil}
	s, rec, _ := newService(fs, nil)

	got, err := s.SetStatus(context.Background(), 999, false, nil)
	assert.NoError(t, err)
	assert.Nil(t, got)
	assert.Empty(t, rec.events)
}

func TestFetchTicketDelegates(t *testing.T) {
	want := &ticket.Ticket{ID: 3, Open: true}
	fs := &fakeStore{fetched: want}
	s, _, _ := newService(fs, nil)

	got, err := s.FetchTicket(context.Background(), 3)
	require.NoError(t, err)
	assert.Same(t, want, got)
}
