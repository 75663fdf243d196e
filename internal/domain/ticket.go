package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "OPEN"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusResolved   TicketStatus = "RESOLVED"
	TicketStatusClosed     TicketStatus = "CLOSED"
	TicketStatusRejected   TicketStatus = "REJECTED"
)

// TicketPriority enumerates urgency levels.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "LOW"
	TicketPriorityMedium TicketPriority = "MEDIUM"
	TicketPriorityHigh   TicketPriority = "HIGH"
)

// CitizenContact holds the submitter's untrusted contact fields. These
// never leave the authenticated surface.
type CitizenContact struct {
	Name  string
	Phone string
	Email string
}

// Ticket is the aggregate for citizen complaints.
type Ticket struct {
	ID             string
	OrganizationID string
	AssigneeID     *string
	Citizen        CitizenContact
	Content        string
	Category       string
	Priority       TicketPriority
	Sentiment      *string
	Status         TicketStatus
	IsPublic       bool
	Nickname       string
	Token          string
	ResolutionNote *string
	ResolvedAt     *time.Time
	ClosedAt       *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
