package domain

import "time"

// OrganizationSettings controls tenant-level intake policy.
type OrganizationSettings struct {
	AllowPublicSubmissions bool   `json:"allow_public_submissions"`
	DefaultCategory        string `json:"default_category"`
}

// Organization is an isolated tenant owning its own tickets and users.
type Organization struct {
	ID            string
	ExternalOrgID *string
	Name          string
	Slug          string
	Description   string
	Settings      OrganizationSettings
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// DefaultCommunityOrgID is the well-known tenant that receives anonymous
// public submissions which do not name an organization.
const DefaultCommunityOrgID = "00000000-0000-4000-8000-000000000001"

// DefaultCommunitySlug is the public slug of the default community tenant.
const DefaultCommunitySlug = "community"
