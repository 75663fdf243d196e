package auth

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/civicaid/intake-service/internal/config"
	"github.com/civicaid/intake-service/internal/domain"
	apperrors "github.com/civicaid/intake-service/pkg/util"
)

type stubUserRepo struct {
	byExternal map[string]*domain.User
}

func (s *stubUserRepo) Create(context.Context, *domain.User) error { return nil }

func (s *stubUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	for _, user := range s.byExternal {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (s *stubUserRepo) GetByExternalID(_ context.Context, externalID string) (*domain.User, error) {
	user, ok := s.byExternal[externalID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return user, nil
}

func (s *stubUserRepo) ListByOrganization(context.Context, string, int, int) ([]domain.User, error) {
	return nil, nil
}

type stubOrgRepo struct {
	byID map[string]*domain.Organization
}

func (s *stubOrgRepo) Create(context.Context, *domain.Organization) error { return nil }

func (s *stubOrgRepo) GetByID(_ context.Context, id string) (*domain.Organization, error) {
	org, ok := s.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return org, nil
}

func (s *stubOrgRepo) GetBySlug(context.Context, string) (*domain.Organization, error) {
	return nil, pgx.ErrNoRows
}

func (s *stubOrgRepo) UpdateSettings(context.Context, string, domain.OrganizationSettings) error {
	return nil
}

func (s *stubOrgRepo) EnsureExists(context.Context, *domain.Organization) error { return nil }

const testSecret = "test-secret"

func newVerifiedResolver(users *stubUserRepo, orgs *stubOrgRepo) *Resolver {
	return NewResolver(config.AuthConfig{
		Mode:      config.AuthModeVerified,
		JWTSecret: testSecret,
	}, users, orgs)
}

func signedToken(t *testing.T, subject string) string {
	t.Helper()
	token, err := NewTokenParser(testSecret).Sign(subject, "staff@example.org", "Staff", time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return token
}

func TestResolver_DevelopmentMode(t *testing.T) {
	resolver := NewResolver(config.AuthConfig{Mode: config.AuthModeDevelopment}, &stubUserRepo{}, &stubOrgRepo{})

	// The credential is ignored entirely; every call yields the same
	// synthetic admin.
	for _, bearer := range []string{"", "garbage", signedToken(t, "someone")} {
		identity, err := resolver.Resolve(context.Background(), bearer)
		if err != nil {
			t.Fatalf("bearer %q: %v", bearer, err)
		}
		if identity.User.ID != DevUserID {
			t.Errorf("expected the fixed development user, got %q", identity.User.ID)
		}
		if !identity.IsAdmin() {
			t.Error("development identity must be an admin")
		}
		if identity.Organization.ID != domain.DefaultCommunityOrgID {
			t.Errorf("development identity bound to %q", identity.Organization.ID)
		}
	}
}

func TestResolver_Verified(t *testing.T) {
	org := &domain.Organization{ID: "org-1", Name: "Springfield", Slug: "springfield"}
	users := &stubUserRepo{byExternal: map[string]*domain.User{
		"ext-active": {ID: "u1", ExternalID: "ext-active", Role: domain.RoleAgent, OrganizationID: org.ID, Active: true},
		"ext-locked": {ID: "u2", ExternalID: "ext-locked", Role: domain.RoleAgent, OrganizationID: org.ID, Active: false},
	}}
	orgs := &stubOrgRepo{byID: map[string]*domain.Organization{org.ID: org}}
	resolver := newVerifiedResolver(users, orgs)
	ctx := context.Background()

	t.Run("valid token resolves", func(t *testing.T) {
		identity, err := resolver.Resolve(ctx, signedToken(t, "ext-active"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if identity.User.ID != "u1" || identity.Organization.ID != org.ID {
			t.Errorf("resolved wrong identity: %+v", identity)
		}
	})

	t.Run("missing credentials", func(t *testing.T) {
		if _, err := resolver.Resolve(ctx, ""); !apperrors.IsCode(err, "UNAUTHORIZED") {
			t.Errorf("expected UNAUTHORIZED, got %v", err)
		}
	})

	t.Run("malformed token", func(t *testing.T) {
		if _, err := resolver.Resolve(ctx, "not.a.jwt"); !apperrors.IsCode(err, "UNAUTHORIZED") {
			t.Errorf("expected UNAUTHORIZED, got %v", err)
		}
	})

	t.Run("wrong signature", func(t *testing.T) {
		forged, err := NewTokenParser("other-secret").Sign("ext-active", "", "", time.Hour)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := resolver.Resolve(ctx, forged); !apperrors.IsCode(err, "UNAUTHORIZED") {
			t.Errorf("expected UNAUTHORIZED, got %v", err)
		}
	})

	t.Run("expired token", func(t *testing.T) {
		stale, err := NewTokenParser(testSecret).Sign("ext-active", "", "", -time.Minute)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := resolver.Resolve(ctx, stale); !apperrors.IsCode(err, "UNAUTHORIZED") {
			t.Errorf("expected UNAUTHORIZED, got %v", err)
		}
	})

	t.Run("unknown subject", func(t *testing.T) {
		if _, err := resolver.Resolve(ctx, signedToken(t, "ext-unknown")); !apperrors.IsCode(err, "UNAUTHORIZED") {
			t.Errorf("expected UNAUTHORIZED, got %v", err)
		}
	})

	t.Run("deactivated account", func(t *testing.T) {
		if _, err := resolver.Resolve(ctx, signedToken(t, "ext-locked")); !apperrors.IsCode(err, "FORBIDDEN") {
			t.Errorf("expected FORBIDDEN, got %v", err)
		}
	})
}

func TestTokenParser_SubjectRequired(t *testing.T) {
	parser := NewTokenParser(testSecret)
	token, err := parser.Sign("", "", "", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := parser.Parse(token); err == nil {
		t.Fatal("expected an error for a token without a subject")
	}
}
