package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/civicaid/intake-service/internal/api/http/handlers"
	"github.com/civicaid/intake-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Community      *handlers.CommunityHandler
	Timeline       *handlers.TimelineHandler
	Inbox          *handlers.InboxHandler
	Orgs           *handlers.OrgsHandler
	Users          *handlers.UsersHandler
	AuthMiddleware *auth.Middleware
}

// RegisterRoutes wires HTTP routes. The community and timeline groups
// are deliberately outside the auth middleware; the inbox and org
// administration groups require a resolved identity.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/metrics", cfg.Health.Metrics)

	community := app.Group("/community")
	community.Get("/tickets", cfg.Community.ListTickets)
	community.Post("/tickets", cfg.Community.CreateTicket)
	community.Get("/orgs/:slug", cfg.Community.GetOrganizationCard)

	app.Get("/timeline/:token", cfg.Timeline.GetTimeline)

	inbox := app.Group("/inbox", cfg.AuthMiddleware.Handle)
	inbox.Get("/tickets", cfg.Inbox.ListTickets)
	inbox.Post("/tickets", cfg.Inbox.CreateTicket)
	inbox.Get("/tickets/:id", cfg.Inbox.GetTicket)
	inbox.Post("/tickets/:id/assign", cfg.Inbox.AssignTicket)
	inbox.Post("/tickets/:id/transition", cfg.Inbox.TransitionTicket)

	orgs := app.Group("/orgs", cfg.AuthMiddleware.Handle)
	orgs.Post("", auth.RequireAdmin(), cfg.Orgs.CreateOrganization)
	orgs.Patch("/:id/settings", auth.RequireAdmin(), cfg.Orgs.UpdateSettings)
	orgs.Post("/:id/users", auth.RequireAdmin(), cfg.Users.CreateUser)
	orgs.Get("/:id/users", cfg.Users.ListUsers)
}
