package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/civicaid/intake-service/internal/auth"
	"github.com/civicaid/intake-service/internal/domain"
	"github.com/civicaid/intake-service/internal/repository"
	apperrors "github.com/civicaid/intake-service/pkg/util"
)

// UserService manages staff accounts. Accounts carry no credentials;
// the identity provider authenticates, and the external subject id is
// the join key the resolver looks up on sign-in.
type UserService struct {
	users repository.UserRepository
	orgs  repository.OrganizationRepository
}

// NewUserService constructs the service.
func NewUserService(users repository.UserRepository, orgs repository.OrganizationRepository) *UserService {
	return &UserService{users: users, orgs: orgs}
}

// UserCreateInput describes staff provisioning payload.
type UserCreateInput struct {
	ExternalID string
	Email      string
	Name       string
	Role       domain.UserRole
}

// CreateUser provisions a staff member. Admin-only, own organization
// only; the external id must be free across all tenants.
func (s *UserService) CreateUser(ctx context.Context, identity *auth.Identity, orgID string, input UserCreateInput) (*domain.User, error) {
	if identity == nil || identity.User == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	if !identity.IsAdmin() {
		return nil, apperrors.NewForbidden("admin role required")
	}
	if identity.User.OrganizationID != orgID {
		return nil, apperrors.NewForbidden("organization mismatch")
	}

	externalID := strings.TrimSpace(input.ExternalID)
	email := strings.TrimSpace(input.Email)
	name := strings.TrimSpace(input.Name)
	if externalID == "" {
		return nil, apperrors.NewValidationError("external_id required", nil)
	}
	if email == "" || name == "" {
		return nil, apperrors.NewValidationError("name and email required", nil)
	}
	role := input.Role
	if role == "" {
		role = domain.RoleAgent
	}
	if role != domain.RoleAdmin && role != domain.RoleAgent {
		return nil, apperrors.NewValidationError("unknown role", map[string]any{"role": input.Role})
	}

	if _, err := s.orgs.GetByID(ctx, orgID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("organization", nil)
		}
		return nil, apperrors.MapError(err)
	}

	user := &domain.User{
		ID:             uuid.NewString(),
		ExternalID:     externalID,
		Email:          email,
		Name:           name,
		Role:           role,
		OrganizationID: orgID,
		Active:         true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, apperrors.NewConflict("external id already provisioned",
				map[string]any{"external_id": externalID})
		}
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// ListUsers returns staff of the caller's organization, for assignment
// pickers. Any authenticated member may list; cross-org listing is
// Forbidden.
func (s *UserService) ListUsers(ctx context.Context, identity *auth.Identity, orgID string, limit, offset int) ([]domain.User, error) {
	if identity == nil || identity.User == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	if identity.User.OrganizationID != orgID {
		return nil, apperrors.NewForbidden("organization mismatch")
	}
	users, err := s.users.ListByOrganization(ctx, orgID, limit, offset)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return users, nil
}
