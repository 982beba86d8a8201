package repositories

import (
	"context"
	"database/sql"

	"github.com/zatekoja/Radiologyorderplatformdesign/backend/internal/domain/entities"
)

// PatientRepository defines the interface for patient and insurance data
// operations
type PatientRepository interface {
	// GetByID retrieves a patient by id
	GetByID(ctx context.Context, id string) (*entities.Patient, error)

	// ApplyUpdate applies a partial update. Only non-nil fields are written;
	// stored values are never nulled out by an absent field.
	ApplyUpdate(ctx context.Context, tx *sql.Tx, patientID string, update *entities.PatientUpdate) error

	// GetPrimaryInsurance retrieves the patient's primary insurance policy
	GetPrimaryInsurance(ctx context.Context, patientID string) (*entities.Insurance, error)

	// ApplyInsuranceUpdate applies a partial update to the primary insurance
	// policy, creating it when the patient has none
	ApplyInsuranceUpdate(ctx context.Context, tx *sql.Tx, patientID string, update *entities.InsuranceUpdate) error
}
