package auth

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/civicaid/intake-service/internal/config"
	"github.com/civicaid/intake-service/internal/domain"
	"github.com/civicaid/intake-service/internal/repository"
	apperrors "github.com/civicaid/intake-service/pkg/util"
)

// Identity is the resolved caller: a staff user and the organization
// that owns them.
type Identity struct {
	User         *domain.User
	Organization *domain.Organization
}

// IsAdmin reports whether the caller holds the admin role.
func (i *Identity) IsAdmin() bool {
	return i != nil && i.User != nil && i.User.Role == domain.RoleAdmin
}

// DevUserID marks the synthetic development identity.
const DevUserID = "00000000-0000-4000-8000-0000000000dd"

// Resolver exchanges request credentials for an Identity. The mode is
// fixed at construction; no per-request environment checks.
type Resolver struct {
	mode   config.AuthMode
	tokens *TokenParser
	users  repository.UserRepository
	orgs   repository.OrganizationRepository
}

// NewResolver constructs a resolver for the configured mode.
func NewResolver(cfg config.AuthConfig, users repository.UserRepository, orgs repository.OrganizationRepository) *Resolver {
	return &Resolver{
		mode:   cfg.Mode,
		tokens: NewTokenParser(cfg.JWTSecret),
		users:  users,
		orgs:   orgs,
	}
}

// Resolve maps a bearer token to an Identity. In development mode the
// credential is ignored and a fixed synthetic identity is returned.
func (r *Resolver) Resolve(ctx context.Context, bearer string) (*Identity, error) {
	if r.mode == config.AuthModeDevelopment {
		return developmentIdentity(), nil
	}

	if bearer == "" {
		return nil, apperrors.NewUnauthorized("missing credentials")
	}
	claims, err := r.tokens.Parse(bearer)
	if err != nil {
		return nil, apperrors.NewUnauthorized("invalid token")
	}

	user, err := r.users.GetByExternalID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewUnauthorized("unknown identity")
		}
		return nil, apperrors.MapError(err)
	}
	if !user.Active {
		return nil, apperrors.NewForbidden("account disabled")
	}

	org, err := r.orgs.GetByID(ctx, user.OrganizationID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewUnauthorized("identity has no organization")
		}
		return nil, apperrors.MapError(err)
	}

	return &Identity{User: user, Organization: org}, nil
}

// developmentIdentity is the fixed skip-auth principal: an admin of the
// default community organization, with ids that cannot collide with
// provisioned records.
func developmentIdentity() *Identity {
	return &Identity{
		User: &domain.User{
			ID:             DevUserID,
			ExternalID:     "dev",
			Email:          "dev@localhost",
			Name:           "Development User",
			Role:           domain.RoleAdmin,
			OrganizationID: domain.DefaultCommunityOrgID,
			Active:         true,
		},
		Organization: &domain.Organization{
			ID:          domain.DefaultCommunityOrgID,
			Name:        "Community",
			Slug:        domain.DefaultCommunitySlug,
			Description: "Default community organization",
			Settings: domain.OrganizationSettings{
				AllowPublicSubmissions: true,
				DefaultCategory:        "general",
			},
		},
	}
}
