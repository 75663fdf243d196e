package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/civicaid/intake-service/internal/domain"
	"github.com/civicaid/intake-service/internal/repository"
	apperrors "github.com/civicaid/intake-service/pkg/util"
)

// TimelineEntry is one status change, oldest first.
type TimelineEntry struct {
	OldStatus domain.TicketStatus `json:"old_status,omitempty"`
	NewStatus domain.TicketStatus `json:"new_status"`
	Note      string              `json:"note,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
}

// Timeline is the token-scoped view of a single ticket: public-safe
// fields plus the ordered status trail. Contact fields and the token
// itself never appear here.
type Timeline struct {
	Ticket  CommunityTicket `json:"ticket"`
	History []TimelineEntry `json:"history"`
}

// TimelineService is the unauthenticated, capability-scoped read
// surface. The per-ticket token is the sole credential.
type TimelineService struct {
	tickets repository.TicketRepository
	history repository.TicketHistoryRepository
}

// NewTimelineService constructs the service.
func NewTimelineService(tickets repository.TicketRepository, history repository.TicketHistoryRepository) *TimelineService {
	return &TimelineService{tickets: tickets, history: history}
}

// GetByToken returns the timeline for the ticket the token grants
// access to. The token is format-checked before any lookup, and the
// lookup itself is exact-match only; malformed and unknown tokens are
// indistinguishable (NOT_FOUND) to resist enumeration.
func (s *TimelineService) GetByToken(ctx context.Context, token string) (*Timeline, error) {
	parsed, err := uuid.Parse(token)
	if err != nil {
		return nil, apperrors.NewNotFound("timeline", nil)
	}

	ticket, err := s.tickets.GetByToken(ctx, parsed.String())
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("timeline", nil)
		}
		return nil, apperrors.MapError(err)
	}

	trail, err := s.history.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	entries := make([]TimelineEntry, 0, len(trail))
	for _, entry := range trail {
		entries = append(entries, TimelineEntry{
			OldStatus: entry.OldStatus,
			NewStatus: entry.NewStatus,
			Note:      entry.Note,
			CreatedAt: entry.CreatedAt,
		})
	}

	return &Timeline{
		Ticket:  projectCommunityTicket(ticket),
		History: entries,
	}, nil
}
