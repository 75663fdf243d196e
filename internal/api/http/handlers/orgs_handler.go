package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/civicaid/intake-service/internal/api/dto"
	"github.com/civicaid/intake-service/internal/auth"
	"github.com/civicaid/intake-service/internal/domain"
	"github.com/civicaid/intake-service/internal/service"
	apperrors "github.com/civicaid/intake-service/pkg/util"
)

// OrgsHandler serves authenticated tenant administration.
type OrgsHandler struct {
	tenants *service.TenantService
}

// NewOrgsHandler constructs handler.
func NewOrgsHandler(tenants *service.TenantService) *OrgsHandler {
	return &OrgsHandler{tenants: tenants}
}

// CreateOrganization POST /orgs.
func (h *OrgsHandler) CreateOrganization(c *fiber.Ctx) error {
	var req dto.CreateOrganizationRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	org, err := h.tenants.CreateOrganization(c.UserContext(), service.OrganizationCreateInput{
		Name:          req.Name,
		Slug:          req.Slug,
		Description:   req.Description,
		ExternalOrgID: req.ExternalOrgID,
		Settings:      req.Settings,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": organizationResponse(org)})
}

// UpdateSettings PATCH /orgs/:id/settings.
func (h *OrgsHandler) UpdateSettings(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.UpdateSettingsRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	org, err := h.tenants.UpdateSettings(c.UserContext(), identity, c.Params("id"), domain.OrganizationSettings{
		AllowPublicSubmissions: req.AllowPublicSubmissions,
		DefaultCategory:        req.DefaultCategory,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": organizationResponse(org)})
}

func organizationResponse(org *domain.Organization) dto.OrganizationResponse {
	return dto.OrganizationResponse{
		ID:          org.ID,
		Name:        org.Name,
		Slug:        org.Slug,
		Description: org.Description,
		Settings:    org.Settings,
		CreatedAt:   org.CreatedAt,
		UpdatedAt:   org.UpdatedAt,
	}
}
