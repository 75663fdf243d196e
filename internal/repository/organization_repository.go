package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/civicaid/intake-service/internal/domain"
)

// OrganizationRepository encapsulates tenant persistence.
type OrganizationRepository interface {
	Create(ctx context.Context, org *domain.Organization) error
	GetByID(ctx context.Context, id string) (*domain.Organization, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Organization, error)
	UpdateSettings(ctx context.Context, id string, settings domain.OrganizationSettings) error
	EnsureExists(ctx context.Context, org *domain.Organization) error
}

type organizationRepository struct {
	pool *pgxpool.Pool
}

// NewOrganizationRepository instantiates repository.
func NewOrganizationRepository(pool *pgxpool.Pool) OrganizationRepository {
	return &organizationRepository{pool: pool}
}

const organizationColumns = `id, external_org_id, name, slug, description,
       allow_public_submissions, default_category, created_at, updated_at`

func (r *organizationRepository) Create(ctx context.Context, org *domain.Organization) error {
	const query = `
        INSERT INTO organizations (id, external_org_id, name, slug, description, allow_public_submissions, default_category)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		org.ID,
		org.ExternalOrgID,
		org.Name,
		org.Slug,
		org.Description,
		org.Settings.AllowPublicSubmissions,
		org.Settings.DefaultCategory,
	).Scan(&org.CreatedAt, &org.UpdatedAt)
}

func (r *organizationRepository) GetByID(ctx context.Context, id string) (*domain.Organization, error) {
	const query = `SELECT ` + organizationColumns + ` FROM organizations WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *organizationRepository) GetBySlug(ctx context.Context, slug string) (*domain.Organization, error) {
	const query = `SELECT ` + organizationColumns + ` FROM organizations WHERE slug=$1`
	return r.fetchSingle(ctx, query, slug)
}

func (r *organizationRepository) UpdateSettings(ctx context.Context, id string, settings domain.OrganizationSettings) error {
	const query = `
        UPDATE organizations SET allow_public_submissions=$1, default_category=$2, updated_at=NOW()
        WHERE id=$3`
	cmd, err := r.pool.Exec(ctx, query, settings.AllowPublicSubmissions, settings.DefaultCategory, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// EnsureExists inserts the organization unless its id is already taken.
// Re-running bootstrap is a no-op, not an error.
func (r *organizationRepository) EnsureExists(ctx context.Context, org *domain.Organization) error {
	const query = `
        INSERT INTO organizations (id, external_org_id, name, slug, description, allow_public_submissions, default_category)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        ON CONFLICT (id) DO NOTHING`
	_, err := r.pool.Exec(ctx, query,
		org.ID,
		org.ExternalOrgID,
		org.Name,
		org.Slug,
		org.Description,
		org.Settings.AllowPublicSubmissions,
		org.Settings.DefaultCategory,
	)
	return err
}

func (r *organizationRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Organization, error) {
	var org domain.Organization
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&org.ID,
		&org.ExternalOrgID,
		&org.Name,
		&org.Slug,
		&org.Description,
		&org.Settings.AllowPublicSubmissions,
		&org.Settings.DefaultCategory,
		&org.CreatedAt,
		&org.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &org, nil
}

// IsUniqueViolation reports whether err is a postgres unique-constraint
// violation (the slug and token constraints rely on this).
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
