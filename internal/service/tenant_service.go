package service

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/civicaid/intake-service/internal/auth"
	"github.com/civicaid/intake-service/internal/domain"
	"github.com/civicaid/intake-service/internal/repository"
	apperrors "github.com/civicaid/intake-service/pkg/util"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// TenantService manages the organization directory.
type TenantService struct {
	orgs repository.OrganizationRepository
}

// NewTenantService constructs the service.
func NewTenantService(orgs repository.OrganizationRepository) *TenantService {
	return &TenantService{orgs: orgs}
}

// OrganizationCreateInput describes provisioning payload.
type OrganizationCreateInput struct {
	Name          string
	Slug          string
	Description   string
	ExternalOrgID *string
	Settings      domain.OrganizationSettings
}

// CreateOrganization provisions a tenant. Slug collisions surface as
// DUPLICATE_SLUG.
func (s *TenantService) CreateOrganization(ctx context.Context, input OrganizationCreateInput) (*domain.Organization, error) {
	name := strings.TrimSpace(input.Name)
	slug := strings.ToLower(strings.TrimSpace(input.Slug))
	if name == "" {
		return nil, apperrors.NewValidationError("name required", nil)
	}
	if slug == "" || !slugPattern.MatchString(slug) {
		return nil, apperrors.NewValidationError("slug must be lowercase letters, digits and hyphens", map[string]any{"slug": input.Slug})
	}

	org := &domain.Organization{
		ID:            uuid.NewString(),
		ExternalOrgID: input.ExternalOrgID,
		Name:          name,
		Slug:          slug,
		Description:   strings.TrimSpace(input.Description),
		Settings:      input.Settings,
	}
	if err := s.orgs.Create(ctx, org); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, apperrors.NewDuplicateSlug(slug)
		}
		return nil, apperrors.MapError(err)
	}
	return org, nil
}

// GetBySlug returns the organization for a public slug.
func (s *TenantService) GetBySlug(ctx context.Context, slug string) (*domain.Organization, error) {
	org, err := s.orgs.GetBySlug(ctx, strings.ToLower(strings.TrimSpace(slug)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("organization", nil)
		}
		return nil, apperrors.MapError(err)
	}
	return org, nil
}

// GetByID returns the organization by id.
func (s *TenantService) GetByID(ctx context.Context, id string) (*domain.Organization, error) {
	org, err := s.orgs.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("organization", nil)
		}
		return nil, apperrors.MapError(err)
	}
	return org, nil
}

// UpdateSettings mutates tenant policy. Admin-only, own organization
// only.
func (s *TenantService) UpdateSettings(ctx context.Context, identity *auth.Identity, orgID string, settings domain.OrganizationSettings) (*domain.Organization, error) {
	if identity == nil || identity.User == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	if !identity.IsAdmin() {
		return nil, apperrors.NewForbidden("admin role required")
	}
	if identity.User.OrganizationID != orgID {
		return nil, apperrors.NewForbidden("organization mismatch")
	}
	if err := s.orgs.UpdateSettings(ctx, orgID, settings); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("organization", nil)
		}
		return nil, apperrors.MapError(err)
	}
	return s.GetByID(ctx, orgID)
}

// EnsureDefaultCommunity bootstraps the well-known fallback tenant for
// anonymous submissions. Idempotent; re-running is a no-op.
func (s *TenantService) EnsureDefaultCommunity(ctx context.Context) error {
	org := &domain.Organization{
		ID:          domain.DefaultCommunityOrgID,
		Name:        "Community",
		Slug:        domain.DefaultCommunitySlug,
		Description: "Default community organization for public submissions",
		Settings: domain.OrganizationSettings{
			AllowPublicSubmissions: true,
			DefaultCategory:        "general",
		},
	}
	if err := s.orgs.EnsureExists(ctx, org); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}
