// Package store is the remote side of the ticket system: it bridges
// structured tickets and the text-only issues kept in the backing GitHub
// repository.
//
// Every method that touches the network submits exactly one operation to
// the worker queue, so the store never bypasses the shared rate budget.
// A not-found response is an absent result — (nil, nil) — and is never
// conflated with transport failure, which always comes back as an error.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tallcraft/ghtickets/internal/codec"
	"github.com/tallcraft/ghtickets/internal/github"
	"github.com/tallcraft/ghtickets/internal/ticket"
	"github.com/tallcraft/ghtickets/internal/worker"
)

// ErrNotConnected is returned for remote calls made before Connect.
var ErrNotConnected = errors.New("store: not connected to repository")

// StateFilter selects which tickets List fetches.
type StateFilter int

const (
	FilterOpen StateFilter = iota
	FilterClosed
	FilterAll
)

func (f StateFilter) state() string {
	switch f {
	case FilterOpen:
		return github.StateOpen
	case FilterClosed:
		return github.StateClosed
	default:
		return github.StateAll
	}
}

// Store persists tickets as issues in a single backing repository.
type Store struct {
	client *github.Client
	queue  *worker.Queue
	log    *slog.Logger

	connected bool

	// now is the local clock used to stamp optimistically appended
	// comments. Swappable for tests.
	now func() time.Time
}

// New creates a store over the given API client and worker queue.
func New(client *github.Client, queue *worker.Queue, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{
		client: client,
		queue:  queue,
		log:    log,
		now:    time.Now,
	}
}

// Connect resolves the backing repository, establishing that the
// credentials work and the coordinates point somewhere real. Credential
// shape (token XOR user/password, non-empty repo) is validated by the
// config layer before a client exists, so only remote failures are
// possible here.
func (s *Store) Connect(ctx context.Context) error {
	p := s.queue.Submit("resolve repository", func(ctx context.Context) (interface{}, error) {
		return s.client.GetRepository(ctx)
	})
	v, err := p.Wait(ctx)
	if err != nil {
		return fmt.Errorf("store: connect: %w", err)
	}
	repo := v.(*github.Repository)
	s.connected = true
	s.log.Info("connected to ticket repository", "repo", repo.FullName)
	return nil
}

// Connected reports whether Connect has succeeded.
func (s *Store) Connected() bool {
	return s.connected
}

// Create encodes the ticket, creates the backing issue with the server
// label, and returns the ticket with its remote-assigned ID populated.
// Comments already present on the ticket are pushed too; each is its own
// API call inside the same queued operation, and individual comment
// failures are logged without failing the create.
func (s *Store) Create(ctx context.Context, t *ticket.Ticket) (*ticket.Ticket, error) {
	p := s.queue.Submit("create ticket", func(ctx context.Context) (interface{}, error) {
		return s.createSync(ctx, t)
	})
	return waitTicket(ctx, p)
}

// Fetch retrieves a single ticket with its comments. Absent tickets
// return (nil, nil).
func (s *Store) Fetch(ctx context.Context, id int) (*ticket.Ticket, error) {
	p := s.queue.Submit("fetch ticket", func(ctx context.Context) (interface{}, error) {
		return s.fetchSync(ctx, id)
	})
	return waitTicket(ctx, p)
}

// AddComment appends a comment to the ticket's backing issue. On success
// the comment is stamped with the local clock — no round trip to re-read
// authoritative server time — and returned appended to the ticket
// without re-validating its other fields. Absent tickets return (nil, nil).
func (s *Store) AddComment(ctx context.Context, id int, comment ticket.TicketComment) (*ticket.Ticket, error) {
	p := s.queue.Submit("add comment", func(ctx context.Context) (interface{}, error) {
		return s.addCommentSync(ctx, id, comment)
	})
	return waitTicket(ctx, p)
}

// SetStatus opens or closes the ticket remotely and returns the decoded
// updated ticket. Absent tickets return (nil, nil).
func (s *Store) SetStatus(ctx context.Context, id int, open bool) (*ticket.Ticket, error) {
	p := s.queue.Submit("set ticket status", func(ctx context.Context) (interface{}, error) {
		return s.setStatusSync(ctx, id, open)
	})
	return waitTicket(ctx, p)
}

// List fetches all tickets matching the filter. Records that fail to
// decode are dropped individually and logged; one bad issue never fails
// the batch.
func (s *Store) List(ctx context.Context, filter StateFilter) ([]*ticket.Ticket, error) {
	p := s.queue.Submit("list tickets", func(ctx context.Context) (interface{}, error) {
		return s.listSync(ctx, filter)
	})
	v, err := p.Wait(ctx)
	if err != nil {
		return nil, err
	}
	tickets, _ := v.([]*ticket.Ticket)
	return tickets, nil
}

func waitTicket(ctx context.Context, p *worker.Promise) (*ticket.Ticket, error) {
	v, err := p.Wait(ctx)
	if err != nil {
		return nil, err
	}
	t, _ := v.(*ticket.Ticket)
	return t, nil
}

func (s *Store) createSync(ctx context.Context, t *ticket.Ticket) (*ticket.Ticket, error) {
	if !s.connected {
		return nil, ErrNotConnected
	}

	title, body, label := codec.EncodeTicket(t)
	issue, err := s.client.CreateIssue(ctx, title, body, []string{label})
	if err != nil {
		return nil, err
	}

	// A freshly created ticket normally has no comments, but pushing any
	// that exist keeps the remote record complete. These extra calls ride
	// inside the same queued operation.
	for i := range t.Comments {
		if _, err := s.client.CreateComment(ctx, issue.Number, codec.EncodeComment(&t.Comments[i])); err != nil {
			s.log.Warn("failed to push initial comment", "ticket", issue.Number, "err", err)
		}
	}

	created := *t
	created.ID = issue.Number
	created.Open = issue.State == github.StateOpen
	if issue.CreatedAt != nil {
		created.CreatedAt = *issue.CreatedAt
	}
	return &created, nil
}

func (s *Store) fetchSync(ctx context.Context, id int) (*ticket.Ticket, error) {
	if !s.connected {
		return nil, ErrNotConnected
	}

	issue, err := s.client.GetIssue(ctx, id)
	if errors.Is(err, github.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	comments, err := s.client.ListComments(ctx, issue.Number)
	if err != nil {
		return nil, err
	}
	return s.decodeIssue(issue, comments)
}

func (s *Store) addCommentSync(ctx context.Context, id int, comment ticket.TicketComment) (*ticket.Ticket, error) {
	if !s.connected {
		return nil, ErrNotConnected
	}

	issue, err := s.client.GetIssue(ctx, id)
	if errors.Is(err, github.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if _, err := s.client.CreateComment(ctx, issue.Number, codec.EncodeComment(&comment)); err != nil {
		if errors.Is(err, github.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	t, err := s.decodeIssue(issue, nil)
	if err != nil {
		return nil, err
	}
	comment.CreatedAt = s.now()
	t.Comments = append(t.Comments, comment)
	return t, nil
}

func (s *Store) setStatusSync(ctx context.Context, id int, open bool) (*ticket.Ticket, error) {
	if !s.connected {
		return nil, ErrNotConnected
	}

	state := github.StateClosed
	if open {
		state = github.StateOpen
	}
	issue, err := s.client.EditIssueState(ctx, id, state)
	if errors.Is(err, github.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s.decodeIssue(issue, nil)
}

func (s *Store) listSync(ctx context.Context, filter StateFilter) ([]*ticket.Ticket, error) {
	if !s.connected {
		return nil, ErrNotConnected
	}

	issues, err := s.client.ListIssues(ctx, filter.state())
	if err != nil {
		return nil, err
	}

	tickets := make([]*ticket.Ticket, 0, len(issues))
	for i := range issues {
		issue := &issues[i]

		// Comment fetch failures degrade that ticket to no comments
		// rather than failing the whole refresh.
		comments, err := s.client.ListComments(ctx, issue.Number)
		if err != nil {
			s.log.Warn("failed to fetch comments", "ticket", issue.Number, "err", err)
			comments = nil
		}

		t, err := s.decodeIssue(issue, comments)
		if err != nil {
			s.log.Warn("dropping undecodable ticket record", "issue", issue.Number, "err", err)
			continue
		}
		tickets = append(tickets, t)
	}
	return tickets, nil
}

// decodeIssue converts an issue plus its comments to a ticket.
func (s *Store) decodeIssue(issue *github.Issue, comments []github.Comment) (*ticket.Ticket, error) {
	meta := codec.IssueMeta{
		Number:    issue.Number,
		State:     issue.State,
		CreatedAt: issue.CreatedAt,
	}
	t, err := codec.DecodeTicket(meta, issue.Body)
	if err != nil {
		return nil, err
	}

	for i := range comments {
		c := &comments[i]
		var created time.Time
		if c.CreatedAt != nil {
			created = *c.CreatedAt
		}
		t.Comments = append(t.Comments, codec.DecodeComment(created, c.Body, commentFallbackName(c)))
	}
	return t, nil
}

// commentFallbackName picks a display name for comments written outside
// this system, preferring the remote author's profile name over login.
func commentFallbackName(c *github.Comment) string {
	if c.User == nil {
		return ""
	}
	if c.User.Name != "" {
		return c.User.Name
	}
	return c.User.Login
}
