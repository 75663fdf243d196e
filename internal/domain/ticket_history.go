package domain

import "time"

// TicketHistory is an immutable status-change entry. The first entry of
// a ticket records its creation with an empty OldStatus.
type TicketHistory struct {
	ID        string
	TicketID  string
	ActorID   *string
	OldStatus TicketStatus
	NewStatus TicketStatus
	Note      string
	CreatedAt time.Time
}
