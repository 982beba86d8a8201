package repositories

import (
	"context"

	"github.com/zatekoja/Radiologyorderplatformdesign/backend/internal/domain/entities"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	// GetByID retrieves a user by id
	GetByID(ctx context.Context, id string) (*entities.User, error)

	// ListAdminsByOrganization returns the admin users of an organization
	ListAdminsByOrganization(ctx context.Context, organizationID string) ([]*entities.User, error)
}
