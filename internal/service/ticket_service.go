package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/civicaid/intake-service/internal/auth"
	"github.com/civicaid/intake-service/internal/domain"
	"github.com/civicaid/intake-service/internal/events"
	"github.com/civicaid/intake-service/internal/repository"
	apperrors "github.com/civicaid/intake-service/pkg/util"
)

// TicketService coordinates the authenticated inbox workflows: staff
// creation, assignment and lifecycle transitions. Every operation is
// scoped to the caller's organization before any state rule runs.
type TicketService struct {
	tickets    repository.TicketRepository
	history    repository.TicketHistoryRepository
	users      repository.UserRepository
	dispatcher events.Dispatcher
}

// TicketDependencies bundles repositories for the ticket service.
type TicketDependencies struct {
	TicketRepo  repository.TicketRepository
	HistoryRepo repository.TicketHistoryRepository
	UserRepo    repository.UserRepository
	Dispatcher  events.Dispatcher
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:    deps.TicketRepo,
		history:    deps.HistoryRepo,
		users:      deps.UserRepo,
		dispatcher: deps.Dispatcher,
	}
}

// TicketCreateInput describes staff ticket creation payload.
type TicketCreateInput struct {
	Citizen  domain.CitizenContact
	Content  string
	Category string
	Priority domain.TicketPriority
	Nickname string
	IsPublic bool
}

// TransitionInput carries the target state and its guard payload. An
// assignee may be supplied together with the move to IN_PROGRESS.
type TransitionInput struct {
	Target     domain.TicketStatus
	Note       string
	AssigneeID *string
}

// TicketListFilter describes inbox listing filters.
type TicketListFilter struct {
	Statuses   []domain.TicketStatus
	Category   *string
	AssigneeID *string
	Limit      int
	Offset     int
}

// Create opens a ticket in the caller's organization with a freshly
// issued timeline token.
func (s *TicketService) Create(ctx context.Context, identity *auth.Identity, input TicketCreateInput) (*domain.Ticket, error) {
	if identity == nil || identity.User == nil || identity.Organization == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	if strings.TrimSpace(input.Content) == "" {
		return nil, apperrors.NewValidationError("content required", nil)
	}
	if strings.TrimSpace(input.Citizen.Name) == "" {
		return nil, apperrors.NewValidationError("citizen name required", nil)
	}

	priority := input.Priority
	switch priority {
	case "":
		priority = domain.TicketPriorityMedium
	case domain.TicketPriorityLow, domain.TicketPriorityMedium, domain.TicketPriorityHigh:
	default:
		return nil, apperrors.NewValidationError("unknown priority", map[string]any{"priority": input.Priority})
	}

	org := identity.Organization
	ticket := newTicket(org, input.Citizen, input.Content, input.Category, input.Nickname, input.IsPublic)
	ticket.Priority = priority

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	actorID := identity.User.ID
	s.recordStatus(ctx, ticket.ID, &actorID, "", domain.TicketStatusOpen, "created")
	s.publish(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Actor:    events.Actor{UserID: &actorID, OrganizationID: org.ID},
		Payload: events.TicketCreatedPayload{
			OrganizationID: ticket.OrganizationID,
			Category:       ticket.Category,
			Priority:       ticket.Priority,
			IsPublic:       ticket.IsPublic,
		},
	})
	return ticket, nil
}

// Get fetches a ticket with its status trail, enforcing tenancy.
func (s *TicketService) Get(ctx context.Context, identity *auth.Identity, ticketID string) (*domain.Ticket, []domain.TicketHistory, error) {
	ticket, err := s.load(ctx, identity, ticketID)
	if err != nil {
		return nil, nil, err
	}
	trail, err := s.history.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, nil, apperrors.MapError(err)
	}
	return ticket, trail, nil
}

// List returns tickets in the caller's organization.
func (s *TicketService) List(ctx context.Context, identity *auth.Identity, filter TicketListFilter) ([]domain.Ticket, error) {
	if identity == nil || identity.User == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	tickets, err := s.tickets.ListForOrganization(ctx, repository.TicketFilter{
		OrganizationID: identity.User.OrganizationID,
		Statuses:       filter.Statuses,
		Category:       filter.Category,
		AssigneeID:     filter.AssigneeID,
		Limit:          filter.Limit,
		Offset:         filter.Offset,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

// Assign sets the assignee. The assignee must belong to the same
// organization; the write is conditional on the status observed here,
// so a concurrent transition surfaces as CONFLICT rather than a silent
// interleave.
func (s *TicketService) Assign(ctx context.Context, identity *auth.Identity, ticketID, assigneeID string) (*domain.Ticket, error) {
	ticket, err := s.load(ctx, identity, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Status != domain.TicketStatusOpen && ticket.Status != domain.TicketStatusInProgress {
		return nil, apperrors.NewInvalidTransition("ticket can no longer be assigned",
			map[string]any{"status": ticket.Status})
	}
	assignee, err := s.assignableUser(ctx, ticket.OrganizationID, assigneeID)
	if err != nil {
		return nil, err
	}

	matched, err := s.tickets.UpdateAssignee(ctx, ticket.ID, ticket.Status, &assignee.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !matched {
		return nil, apperrors.NewConflict("ticket changed concurrently; re-read and retry", nil)
	}
	ticket.AssigneeID = &assignee.ID
	ticket.UpdatedAt = time.Now()

	actorID := identity.User.ID
	s.publish(ctx, events.Event{
		Type:     events.EventTicketAssigned,
		TicketID: ticket.ID,
		Actor:    events.Actor{UserID: &actorID, OrganizationID: ticket.OrganizationID},
		Payload:  events.TicketAssignedPayload{AssigneeID: &assignee.ID},
	})
	return ticket, nil
}

// Transition moves the ticket along the lifecycle. Ownership is checked
// before any state rule; the write is a conditional update keyed by the
// status read here, and losing that race yields CONFLICT (retry-safe).
func (s *TicketService) Transition(ctx context.Context, identity *auth.Identity, ticketID string, input TransitionInput) (*domain.Ticket, error) {
	ticket, err := s.load(ctx, identity, ticketID)
	if err != nil {
		return nil, err
	}

	var assignee *domain.User
	if input.AssigneeID != nil {
		assignee, err = s.assignableUser(ctx, ticket.OrganizationID, *input.AssigneeID)
		if err != nil {
			return nil, err
		}
	}

	guard := domain.TransitionGuard{
		HasAssignee:    ticket.AssigneeID != nil || assignee != nil,
		ResolutionNote: input.Note,
	}
	if err := domain.CheckTransition(ticket.Status, input.Target, guard); err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidTransition):
			return nil, apperrors.NewInvalidTransition(err.Error(), map[string]any{
				"from": ticket.Status,
				"to":   input.Target,
			})
		default:
			return nil, apperrors.NewValidationError(err.Error(), nil)
		}
	}

	update := repository.StatusUpdate{}
	if assignee != nil {
		update.AssigneeID = &assignee.ID
	}
	switch input.Target {
	case domain.TicketStatusResolved:
		note := strings.TrimSpace(input.Note)
		update.ResolutionNote = &note
		update.SetResolvedAt = true
	case domain.TicketStatusClosed:
		update.SetClosedAt = true
	}

	from := ticket.Status
	matched, err := s.tickets.UpdateStatus(ctx, ticket.ID, from, input.Target, update)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !matched {
		return nil, apperrors.NewConflict("ticket changed concurrently; re-read and retry", nil)
	}

	now := time.Now()
	ticket.Status = input.Target
	ticket.UpdatedAt = now
	if update.AssigneeID != nil {
		ticket.AssigneeID = update.AssigneeID
	}
	if update.ResolutionNote != nil {
		ticket.ResolutionNote = update.ResolutionNote
	}
	if update.SetResolvedAt {
		ticket.ResolvedAt = &now
	}
	if update.SetClosedAt {
		ticket.ClosedAt = &now
	}

	actorID := identity.User.ID
	s.recordStatus(ctx, ticket.ID, &actorID, from, input.Target, input.Note)
	s.publish(ctx, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: ticket.ID,
		Actor:    events.Actor{UserID: &actorID, OrganizationID: ticket.OrganizationID},
		Payload: events.TicketStatusChangedPayload{
			OldStatus: from,
			NewStatus: input.Target,
			Note:      input.Note,
		},
	})
	return ticket, nil
}

// load fetches the ticket and enforces tenancy. The ownership check
// always runs before any lifecycle rule is evaluated.
func (s *TicketService) load(ctx context.Context, identity *auth.Identity, ticketID string) (*domain.Ticket, error) {
	if identity == nil || identity.User == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", nil)
		}
		return nil, apperrors.MapError(err)
	}
	if ticket.OrganizationID != identity.User.OrganizationID {
		return nil, apperrors.NewForbidden("ticket belongs to another organization")
	}
	return ticket, nil
}

func (s *TicketService) assignableUser(ctx context.Context, orgID, userID string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewValidationError("assignee not found", map[string]any{"assignee_id": userID})
		}
		return nil, apperrors.MapError(err)
	}
	if user.OrganizationID != orgID {
		return nil, apperrors.NewForbidden("assignee belongs to another organization")
	}
	if !user.Active {
		return nil, apperrors.NewValidationError("assignee is inactive", map[string]any{"assignee_id": userID})
	}
	return user, nil
}

func (s *TicketService) recordStatus(ctx context.Context, ticketID string, actorID *string, from, to domain.TicketStatus, note string) {
	if s.history == nil {
		return
	}
	entry := &domain.TicketHistory{
		ID:        uuid.NewString(),
		TicketID:  ticketID,
		ActorID:   actorID,
		OldStatus: from,
		NewStatus: to,
		Note:      strings.TrimSpace(note),
	}
	_ = s.history.Create(ctx, entry)
}

func (s *TicketService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

// newTicket builds the common creation shape shared by the staff and
// community surfaces: fresh id and token, OPEN status, category
// defaulted from tenant settings, is_public honored only when the
// organization accepts public submissions.
func newTicket(org *domain.Organization, citizen domain.CitizenContact, content, category, nickname string, isPublic bool) *domain.Ticket {
	cat := strings.TrimSpace(category)
	if cat == "" {
		cat = org.Settings.DefaultCategory
	}
	return &domain.Ticket{
		ID:             uuid.NewString(),
		OrganizationID: org.ID,
		Citizen: domain.CitizenContact{
			Name:  strings.TrimSpace(citizen.Name),
			Phone: strings.TrimSpace(citizen.Phone),
			Email: strings.TrimSpace(citizen.Email),
		},
		Content:  strings.TrimSpace(content),
		Category: cat,
		Priority: domain.TicketPriorityMedium,
		Status:   domain.TicketStatusOpen,
		IsPublic: isPublic && org.Settings.AllowPublicSubmissions,
		Nickname: strings.TrimSpace(nickname),
		Token:    uuid.NewString(),
	}
}
