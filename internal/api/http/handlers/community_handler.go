package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/civicaid/intake-service/internal/api/dto"
	"github.com/civicaid/intake-service/internal/domain"
	"github.com/civicaid/intake-service/internal/service"
	apperrors "github.com/civicaid/intake-service/pkg/util"
)

// CommunityHandler serves the unauthenticated community surface.
type CommunityHandler struct {
	community *service.CommunityService
	tenants   *service.TenantService
}

// NewCommunityHandler constructs handler.
func NewCommunityHandler(community *service.CommunityService, tenants *service.TenantService) *CommunityHandler {
	return &CommunityHandler{community: community, tenants: tenants}
}

// ListTickets GET /community/tickets.
func (h *CommunityHandler) ListTickets(c *fiber.Ctx) error {
	var category *string
	if cat := c.Query("category"); cat != "" {
		category = &cat
	}
	limit := parseIntQuery(c.Query("limit"), 20)
	offset := parseIntQuery(c.Query("offset"), 0)

	tickets, err := h.community.ListPublicTickets(c.UserContext(), c.Query("organization_id"), category, limit, offset)
	if err != nil {
		return apperrors.AsPublicError(err, "organization")
	}
	return c.JSON(fiber.Map{"data": tickets})
}

// CreateTicket POST /community/tickets.
func (h *CommunityHandler) CreateTicket(c *fiber.Ctx) error {
	var req dto.CreatePublicTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	submission, err := h.community.CreatePublicTicket(c.UserContext(), service.PublicTicketInput{
		OrganizationID: req.OrganizationID,
		Citizen: domain.CitizenContact{
			Name:  req.CitizenName,
			Phone: req.CitizenPhone,
			Email: req.CitizenEmail,
		},
		Content:  req.Content,
		Category: req.Category,
		Nickname: req.Nickname,
		IsPublic: req.IsPublic,
	})
	if err != nil {
		return apperrors.AsPublicError(err, "organization")
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.PublicSubmissionResponse{
		Token:  submission.Token,
		Ticket: submission.Ticket,
	}})
}

// GetOrganizationCard GET /community/orgs/:slug.
func (h *CommunityHandler) GetOrganizationCard(c *fiber.Ctx) error {
	org, err := h.tenants.GetBySlug(c.UserContext(), c.Params("slug"))
	if err != nil {
		return apperrors.AsPublicError(err, "organization")
	}
	return c.JSON(fiber.Map{"data": dto.OrganizationCardResponse{
		Name:                   org.Name,
		Slug:                   org.Slug,
		Description:            org.Description,
		AllowPublicSubmissions: org.Settings.AllowPublicSubmissions,
	}})
}

func parseIntQuery(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return def
	}
	return parsed
}
