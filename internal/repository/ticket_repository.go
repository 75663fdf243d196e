package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/civicaid/intake-service/internal/domain"
)

// TicketFilter captures inbox search parameters. OrganizationID is
// mandatory; every listing query is tenant-scoped.
type TicketFilter struct {
	OrganizationID string
	Statuses       []domain.TicketStatus
	Category       *string
	AssigneeID     *string
	Limit          int
	Offset         int
}

// StatusUpdate carries the column changes applied together with a
// status transition. All fields are written in the same statement, so a
// lost race leaves no partial state behind.
type StatusUpdate struct {
	AssigneeID     *string
	ResolutionNote *string
	SetResolvedAt  bool
	SetClosedAt    bool
}

// TicketRepository encapsulates ticket persistence. Status and assignee
// mutations are conditional on the status observed at decision time;
// Matched=false means the caller lost an optimistic-concurrency race.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	GetByToken(ctx context.Context, token string) (*domain.Ticket, error)
	UpdateStatus(ctx context.Context, id string, from, to domain.TicketStatus, update StatusUpdate) (bool, error)
	UpdateAssignee(ctx context.Context, id string, observed domain.TicketStatus, assigneeID *string) (bool, error)
	ListForOrganization(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	ListPublic(ctx context.Context, orgID string, category *string, limit, offset int) ([]domain.Ticket, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, organization_id, assignee_id, citizen_name, citizen_phone, citizen_email,
       content, category, priority, sentiment, status, is_public, nickname, token,
       resolution_note, resolved_at, closed_at, created_at, updated_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (id, organization_id, assignee_id, citizen_name, citizen_phone, citizen_email,
            content, category, priority, sentiment, status, is_public, nickname, token)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
        RETURNING created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		ticket.ID,
		ticket.OrganizationID,
		ticket.AssigneeID,
		ticket.Citizen.Name,
		ticket.Citizen.Phone,
		ticket.Citizen.Email,
		ticket.Content,
		ticket.Category,
		ticket.Priority,
		ticket.Sentiment,
		ticket.Status,
		ticket.IsPublic,
		ticket.Nickname,
		ticket.Token,
	).Scan(&ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	const query = `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

// GetByToken looks up by exact token equality only. The token column
// carries a unique index; there is no prefix or pattern path.
func (r *ticketRepository) GetByToken(ctx context.Context, token string) (*domain.Ticket, error) {
	const query = `SELECT ` + ticketColumns + ` FROM tickets WHERE token=$1`
	return r.fetchSingle(ctx, query, token)
}

func (r *ticketRepository) UpdateStatus(ctx context.Context, id string, from, to domain.TicketStatus, update StatusUpdate) (bool, error) {
	const query = `
        UPDATE tickets SET status=$1,
            assignee_id=COALESCE($2, assignee_id),
            resolution_note=COALESCE($3, resolution_note),
            resolved_at=CASE WHEN $4 THEN NOW() ELSE resolved_at END,
            closed_at=CASE WHEN $5 THEN NOW() ELSE closed_at END,
            updated_at=NOW()
        WHERE id=$6 AND status=$7`
	cmd, err := r.pool.Exec(ctx, query,
		to,
		update.AssigneeID,
		update.ResolutionNote,
		update.SetResolvedAt,
		update.SetClosedAt,
		id,
		from,
	)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *ticketRepository) UpdateAssignee(ctx context.Context, id string, observed domain.TicketStatus, assigneeID *string) (bool, error) {
	const query = `
        UPDATE tickets SET assignee_id=$1, updated_at=NOW()
        WHERE id=$2 AND status=$3`
	cmd, err := r.pool.Exec(ctx, query, assigneeID, id, observed)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *ticketRepository) ListForOrganization(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	base := `SELECT ` + ticketColumns + ` FROM tickets`
	args := []any{filter.OrganizationID}
	clauses := []string{"organization_id=$1"}

	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.Category != nil {
		args = append(args, *filter.Category)
		clauses = append(clauses, fmt.Sprintf("category=$%d", len(args)))
	}
	if filter.AssigneeID != nil {
		args = append(args, *filter.AssigneeID)
		clauses = append(clauses, fmt.Sprintf("assignee_id=$%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

// ListPublic applies the public-visibility rule in the query itself:
// a ticket appears only when it is flagged public AND its organization
// currently allows public submissions. The client-supplied is_public
// flag is never trusted alone.
func (r *ticketRepository) ListPublic(ctx context.Context, orgID string, category *string, limit, offset int) ([]domain.Ticket, error) {
	base := `SELECT ` + ticketPrefixedColumns + `
        FROM tickets t
        JOIN organizations o ON o.id = t.organization_id
        WHERE t.organization_id=$1 AND t.is_public AND o.allow_public_submissions`
	args := []any{orgID}

	if category != nil {
		args = append(args, *category)
		base += fmt.Sprintf(" AND t.category=$%d", len(args))
	}
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	query := fmt.Sprintf("%s ORDER BY t.created_at DESC LIMIT %d OFFSET %d", base, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

const ticketPrefixedColumns = `t.id, t.organization_id, t.assignee_id, t.citizen_name, t.citizen_phone, t.citizen_email,
       t.content, t.category, t.priority, t.sentiment, t.status, t.is_public, t.nickname, t.token,
       t.resolution_note, t.resolved_at, t.closed_at, t.created_at, t.updated_at`

func (r *ticketRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Ticket, error) {
	row := r.pool.QueryRow(ctx, query, arg)
	ticket, err := scanTicket(row)
	if err != nil {
		return nil, err
	}
	return ticket, nil
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := row.Scan(
		&ticket.ID,
		&ticket.OrganizationID,
		&ticket.AssigneeID,
		&ticket.Citizen.Name,
		&ticket.Citizen.Phone,
		&ticket.Citizen.Email,
		&ticket.Content,
		&ticket.Category,
		&ticket.Priority,
		&ticket.Sentiment,
		&ticket.Status,
		&ticket.IsPublic,
		&ticket.Nickname,
		&ticket.Token,
		&ticket.ResolutionNote,
		&ticket.ResolvedAt,
		&ticket.ClosedAt,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}
