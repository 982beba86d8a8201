package entities

import (
	"time"
)

// CreditType identifies which balance a debit was taken from
type CreditType string

const (
	CreditTypeReferring         CreditType = "referring_credit"
	CreditTypeRadiologyBasic    CreditType = "radiology_basic"
	CreditTypeRadiologyAdvanced CreditType = "radiology_advanced"
)

// CreditActionType identifies the billable action behind a debit
type CreditActionType string

const (
	ActionValidate         CreditActionType = "validate"
	ActionOverrideValidate CreditActionType = "override_validate"
	ActionOrderSubmitted   CreditActionType = "order_submitted"
	ActionOrderReceived    CreditActionType = "order_received"
)

// ImagingClass is the dual-credit classification of an order
type ImagingClass string

const (
	ImagingClassBasic    ImagingClass = "basic"
	ImagingClassAdvanced ImagingClass = "advanced"
)

// CreditUsageLog is an immutable ledger entry. Exactly one row exists per
// successful debit and none for a rejected one; rows are never updated or
// deleted.
type CreditUsageLog struct {
	ID             string           `json:"id" db:"id"`
	OrganizationID string           `json:"organization_id" db:"organization_id"`
	UserID         string           `json:"user_id" db:"user_id"`
	OrderID        int64            `json:"order_id" db:"order_id"`
	TokensBurned   int              `json:"tokens_burned" db:"tokens_burned"`
	ActionType     CreditActionType `json:"action_type" db:"action_type"`
	CreditType     CreditType       `json:"credit_type" db:"credit_type"`
	CreatedAt      time.Time        `json:"created_at" db:"created_at"`
}

// BillingEventType categorizes billing_events rows
type BillingEventType string

const (
	BillingEventReplenishment BillingEventType = "credit_replenishment"
	BillingEventTierChange    BillingEventType = "tier_change"
)

// BillingEvent records a ledger-level billing action such as a tier
// replenishment
type BillingEvent struct {
	ID             string           `json:"id" db:"id"`
	OrganizationID string           `json:"organization_id" db:"organization_id"`
	EventType      BillingEventType `json:"event_type" db:"event_type"`
	Tier           SubscriptionTier `json:"tier" db:"tier"`
	CreditsGranted int              `json:"credits_granted" db:"credits_granted"`
	CreatedAt      time.Time        `json:"created_at" db:"created_at"`
}
