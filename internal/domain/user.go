package domain

import "time"

// UserRole enumerates staff roles inside an organization.
type UserRole string

const (
	RoleAdmin UserRole = "ADMIN"
	RoleAgent UserRole = "AGENT"
)

// User is a staff member of exactly one organization. Membership is
// immutable after creation; there is no cross-org transfer.
type User struct {
	ID             string
	ExternalID     string
	Email          string
	Name           string
	Role           UserRole
	OrganizationID string
	Active         bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
