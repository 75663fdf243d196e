package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/civicaid/intake-service/internal/domain"
	apperrors "github.com/civicaid/intake-service/pkg/util"
)

const identityKey = "auth_identity"

// Middleware resolves the caller identity for protected routes.
type Middleware struct {
	resolver *Resolver
}

// NewMiddleware constructs middleware.
func NewMiddleware(resolver *Resolver) *Middleware {
	return &Middleware{resolver: resolver}
}

// Handle enforces authentication and stores the Identity in locals.
func (m *Middleware) Handle(c *fiber.Ctx) error {
	bearer := ""
	if authHeader := c.Get("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return apperrors.NewUnauthorized("invalid authorization header")
		}
		bearer = parts[1]
	}

	identity, err := m.resolver.Resolve(c.UserContext(), bearer)
	if err != nil {
		return err
	}

	c.Locals(identityKey, identity)
	return c.Next()
}

// IdentityFromContext retrieves the authenticated caller.
func IdentityFromContext(c *fiber.Ctx) (*Identity, bool) {
	val := c.Locals(identityKey)
	if val == nil {
		return nil, false
	}
	identity, ok := val.(*Identity)
	return identity, ok
}

// RequireAdmin ensures the caller holds the admin role.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity, ok := IdentityFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if identity.User == nil || identity.User.Role != domain.RoleAdmin {
			return apperrors.NewForbidden("admin role required")
		}
		return c.Next()
	}
}
