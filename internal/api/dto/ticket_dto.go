package dto

import (
	"time"

	"github.com/civicaid/intake-service/internal/domain"
)

// CreateTicketRequest is the staff inbox creation payload.
type CreateTicketRequest struct {
	CitizenName  string                `json:"citizen_name"`
	CitizenPhone string                `json:"citizen_phone"`
	CitizenEmail string                `json:"citizen_email"`
	Content      string                `json:"content"`
	Category     string                `json:"category"`
	Priority     domain.TicketPriority `json:"priority"`
	Nickname     string                `json:"nickname"`
	IsPublic     bool                  `json:"is_public"`
}

// CreatePublicTicketRequest is the citizen submission payload.
type CreatePublicTicketRequest struct {
	OrganizationID string `json:"organization_id"`
	CitizenName    string `json:"citizen_name"`
	CitizenPhone   string `json:"citizen_phone"`
	CitizenEmail   string `json:"citizen_email"`
	Content        string `json:"content"`
	Category       string `json:"category"`
	Nickname       string `json:"nickname"`
	IsPublic       bool   `json:"is_public"`
}

// TransitionRequest moves a ticket along the lifecycle.
type TransitionRequest struct {
	Target     domain.TicketStatus `json:"target"`
	Note       string              `json:"note"`
	AssigneeID *string             `json:"assignee_id"`
}

// AssignRequest sets the ticket assignee.
type AssignRequest struct {
	AssigneeID string `json:"assignee_id"`
}

// TicketResponse is the authenticated inbox view of a ticket. It
// includes citizen contact fields; the public surfaces use their own
// projections instead.
type TicketResponse struct {
	ID             string                `json:"id"`
	OrganizationID string                `json:"organization_id"`
	AssigneeID     *string               `json:"assignee_id"`
	CitizenName    string                `json:"citizen_name"`
	CitizenPhone   string                `json:"citizen_phone"`
	CitizenEmail   string                `json:"citizen_email"`
	Content        string                `json:"content"`
	Category       string                `json:"category"`
	Priority       domain.TicketPriority `json:"priority"`
	Sentiment      *string               `json:"sentiment,omitempty"`
	Status         domain.TicketStatus   `json:"status"`
	IsPublic       bool                  `json:"is_public"`
	Nickname       string                `json:"nickname"`
	ResolutionNote *string               `json:"resolution_note,omitempty"`
	ResolvedAt     *time.Time            `json:"resolved_at,omitempty"`
	ClosedAt       *time.Time            `json:"closed_at,omitempty"`
	CreatedAt      time.Time             `json:"created_at"`
	UpdatedAt      time.Time             `json:"updated_at"`
}

// HistoryResponse is one status-trail entry.
type HistoryResponse struct {
	ID        string              `json:"id"`
	ActorID   *string             `json:"actor_id,omitempty"`
	OldStatus domain.TicketStatus `json:"old_status,omitempty"`
	NewStatus domain.TicketStatus `json:"new_status"`
	Note      string              `json:"note,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
}

// TicketDetailResponse is a ticket with its trail.
type TicketDetailResponse struct {
	Ticket  TicketResponse    `json:"ticket"`
	History []HistoryResponse `json:"history"`
}

// PublicSubmissionResponse returns the citizen's capability token along
// with the created ticket's public view.
type PublicSubmissionResponse struct {
	Token  string `json:"token"`
	Ticket any    `json:"ticket"`
}
