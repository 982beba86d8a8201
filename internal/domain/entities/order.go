package entities

import (
	"time"
)

// OrderStatus represents the lifecycle status of an imaging order
type OrderStatus string

const (
	OrderStatusPendingValidation OrderStatus = "pending_validation"
	OrderStatusValidationFailed  OrderStatus = "validation_failed"
	OrderStatusPendingAdmin      OrderStatus = "pending_admin"
	OrderStatusPendingRadiology  OrderStatus = "pending_radiology"
	OrderStatusScheduled         OrderStatus = "scheduled"
	OrderStatusCompleted         OrderStatus = "completed"
)

// OrderPriority represents the clinical priority of an order
type OrderPriority string

const (
	OrderPriorityRoutine OrderPriority = "routine"
	OrderPriorityUrgent  OrderPriority = "urgent"
	OrderPriorityStat    OrderPriority = "stat"
)

// orderTransitions is the forward transition graph. There are no backward
// edges; a transition outside this graph is a programming error.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPendingValidation: {OrderStatusPendingAdmin, OrderStatusValidationFailed},
	OrderStatusPendingAdmin:      {OrderStatusPendingRadiology},
	OrderStatusPendingRadiology:  {OrderStatusScheduled},
	OrderStatusScheduled:         {OrderStatusCompleted},
}

// CanTransition reports whether the status graph allows moving from one
// status to another
func CanTransition(from, to OrderStatus) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether a status has no outgoing transitions
func IsTerminal(status OrderStatus) bool {
	return len(orderTransitions[status]) == 0
}

// Order represents an imaging order referred to a radiology provider
type Order struct {
	ID                      int64         `json:"id" db:"id"`
	Status                  OrderStatus   `json:"status" db:"status"`
	ReferringOrganizationID string        `json:"referring_organization_id" db:"referring_organization_id"`
	RadiologyOrganizationID *string       `json:"radiology_organization_id" db:"radiology_organization_id"`
	PatientID               string        `json:"patient_id" db:"patient_id"`
	Priority                OrderPriority `json:"priority" db:"priority"`
	Modality                string        `json:"modality" db:"modality"`
	FinalCPTCode            string        `json:"final_cpt_code" db:"final_cpt_code"`
	FinalICD10Codes         []string      `json:"final_icd10_codes" db:"final_icd10_codes"`
	Overridden              bool          `json:"overridden" db:"overridden"`
	OverrideJustification   *string       `json:"override_justification" db:"override_justification"`
	SignedByUserID          *string       `json:"signed_by_user_id" db:"signed_by_user_id"`
	SupplementalText        *string       `json:"supplemental_text" db:"supplemental_text"`
	CreatedAt               time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt               time.Time     `json:"updated_at" db:"updated_at"`
}
