package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/civicaid/intake-service/internal/auth"
	"github.com/civicaid/intake-service/internal/domain"
	"github.com/civicaid/intake-service/internal/events"
	"github.com/civicaid/intake-service/internal/repository"
)

// In-memory fakes of the repository interfaces. The ticket fake applies
// conditional updates under a mutex, matching the atomicity the SQL
// implementation gets from single-statement conditional writes.

type fakeOrgRepo struct {
	mu   sync.Mutex
	orgs map[string]*domain.Organization
}

func newFakeOrgRepo() *fakeOrgRepo {
	return &fakeOrgRepo{orgs: make(map[string]*domain.Organization)}
}

func (f *fakeOrgRepo) Create(_ context.Context, org *domain.Organization) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.orgs {
		if existing.Slug == org.Slug {
			return &pgconn.PgError{Code: "23505", ConstraintName: "organizations_slug_key"}
		}
	}
	now := time.Now()
	org.CreatedAt = now
	org.UpdatedAt = now
	clone := *org
	f.orgs[org.ID] = &clone
	return nil
}

func (f *fakeOrgRepo) GetByID(_ context.Context, id string) (*domain.Organization, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	org, ok := f.orgs[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *org
	return &clone, nil
}

func (f *fakeOrgRepo) GetBySlug(_ context.Context, slug string) (*domain.Organization, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, org := range f.orgs {
		if org.Slug == slug {
			clone := *org
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeOrgRepo) UpdateSettings(_ context.Context, id string, settings domain.OrganizationSettings) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	org, ok := f.orgs[id]
	if !ok {
		return pgx.ErrNoRows
	}
	org.Settings = settings
	org.UpdatedAt = time.Now()
	return nil
}

func (f *fakeOrgRepo) EnsureExists(_ context.Context, org *domain.Organization) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.orgs[org.ID]; ok {
		return nil
	}
	now := time.Now()
	org.CreatedAt = now
	org.UpdatedAt = now
	clone := *org
	f.orgs[org.ID] = &clone
	return nil
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*domain.User)}
}

func (f *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if existing.ExternalID == user.ExternalID {
			return &pgconn.PgError{Code: "23505", ConstraintName: "users_external_id_key"}
		}
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	clone := *user
	f.users[user.ID] = &clone
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *user
	return &clone, nil
}

func (f *fakeUserRepo) GetByExternalID(_ context.Context, externalID string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if user.ExternalID == externalID {
			clone := *user
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeUserRepo) ListByOrganization(_ context.Context, orgID string, limit, offset int) ([]domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []domain.User
	for _, user := range f.users {
		if user.OrganizationID == orgID {
			result = append(result, *user)
		}
	}
	return result, nil
}

type fakeTicketRepo struct {
	mu      sync.Mutex
	tickets map[string]*domain.Ticket
	orgs    *fakeOrgRepo
	// onGet, when set, runs inside GetByID after the lookup but before
	// the result is returned. Tests use it as a barrier to force two
	// callers to observe the same state.
	onGet func()
}

func newFakeTicketRepo(orgs *fakeOrgRepo) *fakeTicketRepo {
	return &fakeTicketRepo{tickets: make(map[string]*domain.Ticket), orgs: orgs}
}

func (f *fakeTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	ticket.CreatedAt = now
	ticket.UpdatedAt = now
	clone := *ticket
	f.tickets[ticket.ID] = &clone
	return nil
}

func (f *fakeTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	f.mu.Lock()
	ticket, ok := f.tickets[id]
	var clone domain.Ticket
	if ok {
		clone = *ticket
	}
	f.mu.Unlock()
	if f.onGet != nil {
		f.onGet()
	}
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &clone, nil
}

func (f *fakeTicketRepo) GetByToken(_ context.Context, token string) (*domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ticket := range f.tickets {
		if ticket.Token == token {
			clone := *ticket
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeTicketRepo) UpdateStatus(_ context.Context, id string, from, to domain.TicketStatus, update repository.StatusUpdate) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ticket, ok := f.tickets[id]
	if !ok || ticket.Status != from {
		return false, nil
	}
	now := time.Now()
	ticket.Status = to
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
	return true, nil
}

func (f *fakeTicketRepo) UpdateAssignee(_ context.Context, id string, observed domain.TicketStatus, assigneeID *string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ticket, ok := f.tickets[id]
	if !ok || ticket.Status != observed {
		return false, nil
	}
	ticket.AssigneeID = assigneeID
	ticket.UpdatedAt = time.Now()
	return true, nil
}

func (f *fakeTicketRepo) ListForOrganization(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []domain.Ticket
	for _, ticket := range f.tickets {
		if ticket.OrganizationID != filter.OrganizationID {
			continue
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, ticket.Status) {
			continue
		}
		if filter.Category != nil && ticket.Category != *filter.Category {
			continue
		}
		if filter.AssigneeID != nil && (ticket.AssigneeID == nil || *ticket.AssigneeID != *filter.AssigneeID) {
			continue
		}
		result = append(result, *ticket)
	}
	sortNewestFirst(result)
	return paginate(result, filter.Limit, filter.Offset), nil
}

func (f *fakeTicketRepo) ListPublic(_ context.Context, orgID string, category *string, limit, offset int) ([]domain.Ticket, error) {
	org, err := f.orgs.GetByID(context.Background(), orgID)
	if err != nil {
		return nil, nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []domain.Ticket
	for _, ticket := range f.tickets {
		if ticket.OrganizationID != orgID || !ticket.IsPublic || !org.Settings.AllowPublicSubmissions {
			continue
		}
		if category != nil && ticket.Category != *category {
			continue
		}
		result = append(result, *ticket)
	}
	sortNewestFirst(result)
	return paginate(result, limit, offset), nil
}

type fakeHistoryRepo struct {
	mu      sync.Mutex
	entries []domain.TicketHistory
}

func newFakeHistoryRepo() *fakeHistoryRepo {
	return &fakeHistoryRepo{}
}

func (f *fakeHistoryRepo) Create(_ context.Context, entry *domain.TicketHistory) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	entry.CreatedAt = time.Now()
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeHistoryRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.TicketHistory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []domain.TicketHistory
	for _, entry := range f.entries {
		if entry.TicketID == ticketID {
			result = append(result, entry)
		}
	}
	return result, nil
}

type recordingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *recordingDispatcher) byType(t events.EventType) []events.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []events.Event
	for _, e := range d.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

func containsStatus(statuses []domain.TicketStatus, status domain.TicketStatus) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

func sortNewestFirst(tickets []domain.Ticket) {
	sort.Slice(tickets, func(i, j int) bool {
		return tickets[i].CreatedAt.After(tickets[j].CreatedAt)
	})
}

func paginate(tickets []domain.Ticket, limit, offset int) []domain.Ticket {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= len(tickets) {
		return nil
	}
	end := offset + limit
	if end > len(tickets) {
		end = len(tickets)
	}
	return tickets[offset:end]
}

// Test fixture helpers.

func makeOrg(orgs *fakeOrgRepo, slug string, allowPublic bool, defaultCategory string) *domain.Organization {
	org := &domain.Organization{
		ID:   uuid.NewString(),
		Name: slug,
		Slug: slug,
		Settings: domain.OrganizationSettings{
			AllowPublicSubmissions: allowPublic,
			DefaultCategory:        defaultCategory,
		},
	}
	if err := orgs.Create(context.Background(), org); err != nil {
		panic(err)
	}
	return org
}

func makeUser(users *fakeUserRepo, org *domain.Organization, role domain.UserRole) *domain.User {
	user := &domain.User{
		ID:             uuid.NewString(),
		ExternalID:     uuid.NewString(),
		Email:          "staff@example.org",
		Name:           "Staff Member",
		Role:           role,
		OrganizationID: org.ID,
		Active:         true,
	}
	if err := users.Create(context.Background(), user); err != nil {
		panic(err)
	}
	return user
}

func makeIdentity(user *domain.User, org *domain.Organization) *auth.Identity {
	return &auth.Identity{User: user, Organization: org}
}
