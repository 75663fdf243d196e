package dto

import (
	"time"

	"github.com/civicaid/intake-service/internal/domain"
)

// CreateUserRequest is the staff provisioning payload. ExternalID is
// the identity-provider subject the resolver matches on sign-in.
type CreateUserRequest struct {
	ExternalID string          `json:"external_id"`
	Email      string          `json:"email"`
	Name       string          `json:"name"`
	Role       domain.UserRole `json:"role"`
}

// UserResponse is the authenticated view of a staff member.
type UserResponse struct {
	ID             string          `json:"id"`
	ExternalID     string          `json:"external_id"`
	Email          string          `json:"email"`
	Name           string          `json:"name"`
	Role           domain.UserRole `json:"role"`
	OrganizationID string          `json:"organization_id"`
	Active         bool            `json:"active"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}
