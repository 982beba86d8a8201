package entities

import (
	"time"
)

// Patient represents a patient referenced by imaging orders
type Patient struct {
	ID             string     `json:"id" db:"id"`
	OrganizationID string     `json:"organization_id" db:"organization_id"`
	FirstName      string     `json:"first_name" db:"first_name"`
	LastName       string     `json:"last_name" db:"last_name"`
	DateOfBirth    *time.Time `json:"date_of_birth" db:"date_of_birth"`
	Gender         string     `json:"gender" db:"gender"`
	Phone          string     `json:"phone" db:"phone"`
	AddressLine1   string     `json:"address_line1" db:"address_line1"`
	City           string     `json:"city" db:"city"`
	State          string     `json:"state" db:"state"`
	ZipCode        string     `json:"zip_code" db:"zip_code"`
	MRN            string     `json:"mrn" db:"mrn"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
}

// Insurance represents a patient's insurance policy. IsPrimary marks the
// policy checked by the admin submission checklist.
type Insurance struct {
	ID                   string    `json:"id" db:"id"`
	PatientID            string    `json:"patient_id" db:"patient_id"`
	IsPrimary            bool      `json:"is_primary" db:"is_primary"`
	InsurerName          string    `json:"insurer_name" db:"insurer_name"`
	PolicyNumber         string    `json:"policy_number" db:"policy_number"`
	GroupNumber          string    `json:"group_number" db:"group_number"`
	PolicyHolderName     string    `json:"policy_holder_name" db:"policy_holder_name"`
	PolicyHolderRelation string    `json:"policy_holder_relation" db:"policy_holder_relation"`
	CreatedAt            time.Time `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time `json:"updated_at" db:"updated_at"`
}

// PatientUpdate is a partial update extracted from pasted EMR text. Only
// non-nil fields are applied; a field the parser did not return never
// overwrites stored data.
type PatientUpdate struct {
	FirstName    *string    `json:"first_name,omitempty"`
	LastName     *string    `json:"last_name,omitempty"`
	DateOfBirth  *time.Time `json:"date_of_birth,omitempty"`
	Gender       *string    `json:"gender,omitempty"`
	Phone        *string    `json:"phone,omitempty"`
	AddressLine1 *string    `json:"address_line1,omitempty"`
	City         *string    `json:"city,omitempty"`
	State        *string    `json:"state,omitempty"`
	ZipCode      *string    `json:"zip_code,omitempty"`
	MRN          *string    `json:"mrn,omitempty"`
}

// InsuranceUpdate is a partial update for the primary insurance policy
type InsuranceUpdate struct {
	InsurerName          *string `json:"insurer_name,omitempty"`
	PolicyNumber         *string `json:"policy_number,omitempty"`
	GroupNumber          *string `json:"group_number,omitempty"`
	PolicyHolderName     *string `json:"policy_holder_name,omitempty"`
	PolicyHolderRelation *string `json:"policy_holder_relation,omitempty"`
}
