package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/google/uuid"

	"github.com/zatekoja/Radiologyorderplatformdesign/backend/internal/domain/entities"
	"github.com/zatekoja/Radiologyorderplatformdesign/backend/internal/domain/repositories"
	"github.com/zatekoja/Radiologyorderplatformdesign/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/Radiologyorderplatformdesign/backend/pkg/errors"
)

// PatientAdapter implements the PatientRepository interface
type PatientAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewPatientAdapter creates a new patient adapter
func NewPatientAdapter(client *postgres.Client) repositories.PatientRepository {
	return &PatientAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// GetByID retrieves a patient by ID
func (a *PatientAdapter) GetByID(ctx context.Context, id string) (*entities.Patient, error) {
	query, args, err := a.db.Select(
		"id", "organization_id", "first_name", "last_name", "date_of_birth",
		"gender", "phone", "address_line1", "city", "state", "zip_code", "mrn",
		"created_at", "updated_at",
	).From("patients").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	patient := &entities.Patient{}
	var dateOfBirth sql.NullTime

	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(
		&patient.ID,
		&patient.OrganizationID,
		&patient.FirstName,
		&patient.LastName,
		&dateOfBirth,
		&patient.Gender,
		&patient.Phone,
		&patient.AddressLine1,
		&patient.City,
		&patient.State,
		&patient.ZipCode,
		&patient.MRN,
		&patient.CreatedAt,
		&patient.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("patient %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get patient", err)
	}

	if dateOfBirth.Valid {
		patient.DateOfBirth = &dateOfBirth.Time
	}

	return patient, nil
}

// ApplyUpdate writes only the fields the parser returned. An absent field
// never nulls out stored data.
func (a *PatientAdapter) ApplyUpdate(ctx context.Context, tx *sql.Tx, patientID string, update *entities.PatientUpdate) error {
	record := goqu.Record{}
	if update.FirstName != nil {
		record["first_name"] = *update.FirstName
	}
	if update.LastName != nil {
		record["last_name"] = *update.LastName
	}
	if update.DateOfBirth != nil {
		record["date_of_birth"] = *update.DateOfBirth
	}
	if update.Gender != nil {
		record["gender"] = *update.Gender
	}
	if update.Phone != nil {
		record["phone"] = *update.Phone
	}
	if update.AddressLine1 != nil {
		record["address_line1"] = *update.AddressLine1
	}
	if update.City != nil {
		record["city"] = *update.City
	}
	if update.State != nil {
		record["state"] = *update.State
	}
	if update.ZipCode != nil {
		record["zip_code"] = *update.ZipCode
	}
	if update.MRN != nil {
		record["mrn"] = *update.MRN
	}
	if len(record) == 0 {
		return nil
	}
	record["updated_at"] = time.Now()

	query, args, err := a.db.Update("patients").
		Set(record).
		Where(goqu.Ex{"id": patientID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build patient update query", err)
	}

	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to update patient", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("patient %s not found", patientID))
	}

	return nil
}

// GetPrimaryInsurance retrieves the patient's primary insurance policy
func (a *PatientAdapter) GetPrimaryInsurance(ctx context.Context, patientID string) (*entities.Insurance, error) {
	query, args, err := a.db.Select(
		"id", "patient_id", "is_primary", "insurer_name", "policy_number",
		"group_number", "policy_holder_name", "policy_holder_relation",
		"created_at", "updated_at",
	).From("patient_insurance").
		Where(goqu.Ex{"patient_id": patientID, "is_primary": true}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build insurance query", err)
	}

	insurance := &entities.Insurance{}
	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(
		&insurance.ID,
		&insurance.PatientID,
		&insurance.IsPrimary,
		&insurance.InsurerName,
		&insurance.PolicyNumber,
		&insurance.GroupNumber,
		&insurance.PolicyHolderName,
		&insurance.PolicyHolderRelation,
		&insurance.CreatedAt,
		&insurance.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("patient %s has no primary insurance", patientID))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get primary insurance", err)
	}

	return insurance, nil
}

// ApplyInsuranceUpdate applies a partial update to the primary policy,
// creating the row when the patient has none
func (a *PatientAdapter) ApplyInsuranceUpdate(ctx context.Context, tx *sql.Tx, patientID string, update *entities.InsuranceUpdate) error {
	record := goqu.Record{}
	if update.InsurerName != nil {
		record["insurer_name"] = *update.InsurerName
	}
	if update.PolicyNumber != nil {
		record["policy_number"] = *update.PolicyNumber
	}
	if update.GroupNumber != nil {
		record["group_number"] = *update.GroupNumber
	}
	if update.PolicyHolderName != nil {
		record["policy_holder_name"] = *update.PolicyHolderName
	}
	if update.PolicyHolderRelation != nil {
		record["policy_holder_relation"] = *update.PolicyHolderRelation
	}
	if len(record) == 0 {
		return nil
	}
	record["updated_at"] = time.Now()

	query, args, err := a.db.Update("patient_insurance").
		Set(record).
		Where(goqu.Ex{"patient_id": patientID, "is_primary": true}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insurance update query", err)
	}

	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to update insurance", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected > 0 {
		return nil
	}

	return a.insertPrimaryInsurance(ctx, tx, patientID, update)
}

func (a *PatientAdapter) insertPrimaryInsurance(ctx context.Context, tx *sql.Tx, patientID string, update *entities.InsuranceUpdate) error {
	now := time.Now()
	record := goqu.Record{
		"id":         uuid.New().String(),
		"patient_id": patientID,
		"is_primary": true,
		"created_at": now,
		"updated_at": now,
	}
	if update.InsurerName != nil {
		record["insurer_name"] = *update.InsurerName
	}
	if update.PolicyNumber != nil {
		record["policy_number"] = *update.PolicyNumber
	}
	if update.GroupNumber != nil {
		record["group_number"] = *update.GroupNumber
	}
	if update.PolicyHolderName != nil {
		record["policy_holder_name"] = *update.PolicyHolderName
	}
	if update.PolicyHolderRelation != nil {
		record["policy_holder_relation"] = *update.PolicyHolderRelation
	}

	query, args, err := a.db.Insert("patient_insurance").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insurance insert query", err)
	}

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to create insurance", err)
	}

	return nil
}
