// Package ticket defines the structured support-ticket records that the
// rest of the system moves between the game server and the GitHub-backed
// store. The types here are transport-agnostic: internal/codec owns the
// mapping to and from GitHub issue text.
package ticket

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Unassigned is the ID of a ticket that has not been created remotely yet.
// The backing repository assigns the real ID on creation and it never
// changes afterwards.
const Unassigned = -1

// Ticket is a single support request.
type Ticket struct {
	// ID is the issue number in the backing repository, or Unassigned
	// before the ticket has been created remotely.
	ID int

	// Open reports whether the ticket is still open. New tickets start open.
	Open bool

	// CreatedAt is the creation time as reported by the backing store.
	CreatedAt time.Time

	// AuthorID is the UUID of the player who opened the ticket. Required
	// at creation time; may be nil on tickets recovered from malformed
	// issue text.
	AuthorID *uuid.UUID

	// AuthorName is the display name of the player who opened the ticket.
	AuthorName string

	// ServerName and WorldName record where the ticket was opened.
	ServerName string
	WorldName  string

	// Location is the in-world position at creation, if known.
	Location *Location

	// Body is the free-form ticket text.
	Body string

	// Comments holds the replies in chronological order. The slice may be
	// incomplete: list refreshes tolerate per-issue comment fetch failures,
	// and optimistic local appends are not confirmed by a re-read.
	Comments []TicketComment
}

// New returns an open, unassigned ticket with the given required fields.
func New(createdAt time.Time, authorID uuid.UUID, authorName, serverName, worldName string, loc *Location, body string) *Ticket {
	return &Ticket{
		ID:         Unassigned,
		Open:       true,
		CreatedAt:  createdAt,
		AuthorID:   &authorID,
		AuthorName: authorName,
		ServerName: serverName,
		WorldName:  worldName,
		Location:   loc,
		Body:       body,
	}
}

// Assigned reports whether the backing store has assigned an ID yet.
func (t *Ticket) Assigned() bool {
	return t.ID != Unassigned
}

// TicketComment is a single reply on a ticket.
type TicketComment struct {
	// CreatedAt may be approximated locally: after an optimistic append the
	// client stamps its own clock rather than re-fetching server time.
	CreatedAt time.Time

	// AuthorID is nil for comments not written by a player, e.g. replies
	// typed directly into the issue tracker's web UI.
	AuthorID *uuid.UUID

	// DisplayName is the name shown next to the comment. Always set.
	DisplayName string

	// Body is the free-form comment text.
	Body string
}

// WordCount returns the number of whitespace-separated words in s.
// Used for the minimum-ticket-length check before any remote call is made.
func WordCount(s string) int {
	return len(strings.Fields(s))
}
