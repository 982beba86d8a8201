package entities

import (
	"time"
)

// UserRole represents a user's role inside their organization
type UserRole string

const (
	UserRoleAdmin     UserRole = "admin"
	UserRolePhysician UserRole = "physician"
	UserRoleStaff     UserRole = "staff"
)

// User represents a user in the system, always scoped to one organization
type User struct {
	ID             string    `json:"id" db:"id"`
	OrganizationID string    `json:"organization_id" db:"organization_id"`
	Email          string    `json:"email" db:"email"`
	FirstName      string    `json:"first_name" db:"first_name"`
	LastName       string    `json:"last_name" db:"last_name"`
	Role           UserRole  `json:"role" db:"role"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}
