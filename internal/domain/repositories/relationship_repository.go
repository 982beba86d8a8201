package repositories

import (
	"context"
	"database/sql"

	"github.com/zatekoja/Radiologyorderplatformdesign/backend/internal/domain/entities"
)

// RelationshipRepository manages referring/radiology routing links
type RelationshipRepository interface {
	// UpdateStatusForOrganization flips every relationship involving the
	// organization (either side) from one status to another and returns the
	// number of rows changed
	UpdateStatusForOrganization(ctx context.Context, tx *sql.Tx, organizationID string, from, to entities.RelationshipStatus) (int64, error)

	// GetActiveBetween returns the active relationship between two
	// organizations, if any
	GetActiveBetween(ctx context.Context, referringID, radiologyID string) (*entities.OrganizationRelationship, error)
}

// PurgatoryRepository manages purgatory events for suspended organizations
type PurgatoryRepository interface {
	// Create writes a new pending purgatory event
	Create(ctx context.Context, tx *sql.Tx, event *entities.PurgatoryEvent) error

	// ResolveOpenByOrganization marks every pending event for the
	// organization resolved and returns the number of rows changed
	ResolveOpenByOrganization(ctx context.Context, tx *sql.Tx, organizationID string) (int64, error)
}
