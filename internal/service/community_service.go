package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/civicaid/intake-service/internal/config"
	"github.com/civicaid/intake-service/internal/domain"
	"github.com/civicaid/intake-service/internal/events"
	"github.com/civicaid/intake-service/internal/repository"
	apperrors "github.com/civicaid/intake-service/pkg/util"
)

// CommunityTicket is the public-safe projection served by the community
// listing: no contact fields, no token.
type CommunityTicket struct {
	ID        string                `json:"id"`
	Nickname  string                `json:"nickname"`
	Content   string                `json:"content"`
	Category  string                `json:"category"`
	Priority  domain.TicketPriority `json:"priority"`
	Status    domain.TicketStatus   `json:"status"`
	CreatedAt time.Time             `json:"created_at"`
	UpdatedAt time.Time             `json:"updated_at"`
}

// PublicSubmission is the result of a citizen submission. Token is the
// citizen's only capability for later status lookup and is returned
// exactly once, here.
type PublicSubmission struct {
	Ticket CommunityTicket
	Token  string
}

// PublicTicketInput describes a citizen submission.
type PublicTicketInput struct {
	OrganizationID string
	Citizen        domain.CitizenContact
	Content        string
	Category       string
	Nickname       string
	IsPublic       bool
}

// CommunityService is the unauthenticated read/write surface for public
// tickets. Listings are cached in Redis for a short TTL when a client
// is configured; the cache is strictly an optimization and every path
// works without it.
type CommunityService struct {
	tickets    repository.TicketRepository
	orgs       repository.OrganizationRepository
	history    repository.TicketHistoryRepository
	dispatcher events.Dispatcher
	cache      *redis.Client
	cfg        config.CommunityConfig
	logger     *zap.Logger
}

// CommunityDependencies bundles collaborators for the community service.
type CommunityDependencies struct {
	TicketRepo  repository.TicketRepository
	OrgRepo     repository.OrganizationRepository
	HistoryRepo repository.TicketHistoryRepository
	Dispatcher  events.Dispatcher
	Cache       *redis.Client
	Config      config.CommunityConfig
	Logger      *zap.Logger
}

// NewCommunityService constructs the service.
func NewCommunityService(deps CommunityDependencies) *CommunityService {
	cfg := deps.Config
	if cfg.MaxPageSize <= 0 {
		cfg.MaxPageSize = 50
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CommunityService{
		tickets:    deps.TicketRepo,
		orgs:       deps.OrgRepo,
		history:    deps.HistoryRepo,
		dispatcher: deps.Dispatcher,
		cache:      deps.Cache,
		cfg:        cfg,
		logger:     logger,
	}
}

// ListPublicTickets returns publicly visible tickets for an
// organization. An unknown organization and one that has not opted into
// public submissions are indistinguishable: both yield NOT_FOUND, so
// tenant existence cannot be probed through this surface.
func (s *CommunityService) ListPublicTickets(ctx context.Context, orgID string, category *string, limit, offset int) ([]CommunityTicket, error) {
	if orgID == "" {
		orgID = domain.DefaultCommunityOrgID
	}
	org, err := s.orgs.GetByID(ctx, orgID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("organization", nil)
		}
		return nil, apperrors.MapError(err)
	}
	if !org.Settings.AllowPublicSubmissions {
		return nil, apperrors.NewNotFound("organization", nil)
	}

	if limit <= 0 {
		limit = 20
	}
	if limit > s.cfg.MaxPageSize {
		limit = s.cfg.MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}

	key := s.listCacheKey(org.ID, category, limit, offset)
	if cached, ok := s.cachedList(ctx, key); ok {
		return cached, nil
	}

	tickets, err := s.tickets.ListPublic(ctx, org.ID, category, limit, offset)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	projected := make([]CommunityTicket, 0, len(tickets))
	for i := range tickets {
		projected = append(projected, projectCommunityTicket(&tickets[i]))
	}
	s.storeList(ctx, key, projected)
	return projected, nil
}

// CreatePublicTicket accepts a citizen submission. Falls back to the
// default community organization when none is named; always creates in
// OPEN state.
func (s *CommunityService) CreatePublicTicket(ctx context.Context, input PublicTicketInput) (*PublicSubmission, error) {
	orgID := input.OrganizationID
	if orgID == "" {
		orgID = domain.DefaultCommunityOrgID
	}
	org, err := s.orgs.GetByID(ctx, orgID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("organization", nil)
		}
		return nil, apperrors.MapError(err)
	}
	if !org.Settings.AllowPublicSubmissions {
		return nil, apperrors.NewSubmissionsDisabled("organization does not accept public submissions")
	}
	if strings.TrimSpace(input.Citizen.Name) == "" {
		return nil, apperrors.NewValidationError("citizen name required", nil)
	}
	if strings.TrimSpace(input.Content) == "" {
		return nil, apperrors.NewValidationError("content required", nil)
	}

	ticket := newTicket(org, input.Citizen, input.Content, input.Category, input.Nickname, input.IsPublic)
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	if s.history != nil {
		_ = s.history.Create(ctx, &domain.TicketHistory{
			ID:        uuid.NewString(),
			TicketID:  ticket.ID,
			OldStatus: "",
			NewStatus: domain.TicketStatusOpen,
			Note:      "submitted",
		})
	}
	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventTicketCreated,
			TicketID:  ticket.ID,
			Actor:     events.Actor{OrganizationID: org.ID},
			Timestamp: time.Now(),
			Payload: events.TicketCreatedPayload{
				OrganizationID: ticket.OrganizationID,
				Category:       ticket.Category,
				Priority:       ticket.Priority,
				IsPublic:       ticket.IsPublic,
			},
		})
	}

	return &PublicSubmission{
		Ticket: projectCommunityTicket(ticket),
		Token:  ticket.Token,
	}, nil
}

func (s *CommunityService) listCacheKey(orgID string, category *string, limit, offset int) string {
	cat := ""
	if category != nil {
		cat = *category
	}
	return fmt.Sprintf("community:tickets:%s:%s:%d:%d", orgID, cat, limit, offset)
}

func (s *CommunityService) cachedList(ctx context.Context, key string) ([]CommunityTicket, bool) {
	if s.cache == nil || s.cfg.CacheTTL() <= 0 {
		return nil, false
	}
	raw, err := s.cache.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	var out []CommunityTicket
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, false
	}
	return out, true
}

func (s *CommunityService) storeList(ctx context.Context, key string, tickets []CommunityTicket) {
	if s.cache == nil || s.cfg.CacheTTL() <= 0 {
		return
	}
	raw, err := json.Marshal(tickets)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, raw, s.cfg.CacheTTL()).Err(); err != nil {
		s.logger.Debug("community cache write failed", zap.Error(err))
	}
}

func projectCommunityTicket(ticket *domain.Ticket) CommunityTicket {
	return CommunityTicket{
		ID:        ticket.ID,
		Nickname:  ticket.Nickname,
		Content:   ticket.Content,
		Category:  ticket.Category,
		Priority:  ticket.Priority,
		Status:    ticket.Status,
		CreatedAt: ticket.CreatedAt,
		UpdatedAt: ticket.UpdatedAt,
	}
}
