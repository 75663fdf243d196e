package dto

import (
	"time"

	"github.com/civicaid/intake-service/internal/domain"
)

// CreateOrganizationRequest is the provisioning payload.
type CreateOrganizationRequest struct {
	Name          string                      `json:"name"`
	Slug          string                      `json:"slug"`
	Description   string                      `json:"description"`
	ExternalOrgID *string                     `json:"external_org_id"`
	Settings      domain.OrganizationSettings `json:"settings"`
}

// UpdateSettingsRequest mutates tenant policy.
type UpdateSettingsRequest struct {
	AllowPublicSubmissions bool   `json:"allow_public_submissions"`
	DefaultCategory        string `json:"default_category"`
}

// OrganizationResponse is the authenticated view of a tenant.
type OrganizationResponse struct {
	ID          string                      `json:"id"`
	Name        string                      `json:"name"`
	Slug        string                      `json:"slug"`
	Description string                      `json:"description"`
	Settings    domain.OrganizationSettings `json:"settings"`
	CreatedAt   time.Time                   `json:"created_at"`
	UpdatedAt   time.Time                   `json:"updated_at"`
}

// OrganizationCardResponse is the public community-page card: no
// settings blob beyond the submission flag, no external ids.
type OrganizationCardResponse struct {
	Name                   string `json:"name"`
	Slug                   string `json:"slug"`
	Description            string `json:"description"`
	AllowPublicSubmissions bool   `json:"allow_public_submissions"`
}
