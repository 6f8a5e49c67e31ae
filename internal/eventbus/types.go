package eventbus

import (
	"github.com/google/uuid"

	"github.com/tallcraft/ghtickets/internal/ticket"
)

// EventType identifies a ticket notification flowing through the bus.
type EventType string

const (
	// EventTicketCreated fires after a ticket is durably created remotely.
	EventTicketCreated EventType = "TicketCreated"

	// EventTicketStatusChanged fires after a ticket is opened or closed.
	EventTicketStatusChanged EventType = "TicketStatusChanged"

	// EventTicketCommented fires after a reply is appended to a ticket.
	EventTicketCommented EventType = "TicketCommented"
)

// Event is a single ticket notification. Delivery is fire-and-forget:
// handlers get no acknowledgment path and their errors never propagate
// to the operation that produced the event.
type Event struct {
	Type   EventType
	Ticket *ticket.Ticket

	// Comment is set for EventTicketCommented.
	Comment *ticket.TicketComment

	// Actor identifies who triggered the event, when known. Presentation
	// handlers use it to suppress notifying an actor about their own
	// action. For EventTicketCommented it is the comment author; for
	// EventTicketStatusChanged the player who flipped the status.
	Actor *uuid.UUID
}
