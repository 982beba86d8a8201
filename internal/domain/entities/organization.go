package entities

import (
	"time"
)

// OrganizationType distinguishes referring practices from radiology groups
type OrganizationType string

const (
	OrganizationTypeReferring OrganizationType = "referring"
	OrganizationTypeRadiology OrganizationType = "radiology_group"
)

// OrganizationStatus represents the billing standing of an organization.
// Purgatory suspends cross-organization order routing until resolved.
type OrganizationStatus string

const (
	OrganizationStatusActive    OrganizationStatus = "active"
	OrganizationStatusPurgatory OrganizationStatus = "purgatory"
)

// SubscriptionTier represents the billing tier of an organization
type SubscriptionTier string

const (
	TierFree   SubscriptionTier = "tier_free"
	TierOne    SubscriptionTier = "tier_1"
	TierTwo    SubscriptionTier = "tier_2"
	TierThree  SubscriptionTier = "tier_3"
	TierUnique SubscriptionTier = "tier_unique"
)

// TierAllocation is the per-balance credit amount granted on replenish
type TierAllocation struct {
	ReferringCredits int
	BasicCredits     int
	AdvancedCredits  int
}

// tierAllocations is the fixed tier -> allocation table. Replenish sets
// balances to these amounts; it never adds to an existing balance.
var tierAllocations = map[SubscriptionTier]TierAllocation{
	TierFree:   {ReferringCredits: 5, BasicCredits: 5, AdvancedCredits: 2},
	TierOne:    {ReferringCredits: 100, BasicCredits: 100, AdvancedCredits: 50},
	TierTwo:    {ReferringCredits: 250, BasicCredits: 250, AdvancedCredits: 125},
	TierThree:  {ReferringCredits: 500, BasicCredits: 500, AdvancedCredits: 250},
	TierUnique: {ReferringCredits: 1000, BasicCredits: 1000, AdvancedCredits: 500},
}

// AllocationForTier returns the fixed allocation for a tier
func AllocationForTier(tier SubscriptionTier) (TierAllocation, bool) {
	allocation, ok := tierAllocations[tier]
	return allocation, ok
}

// Organization represents a tenant: a referring practice or a radiology group.
// Referring organizations consume the single credit_balance; radiology groups
// track basic and advanced imaging balances independently.
type Organization struct {
	ID                    string             `json:"id" db:"id"`
	Name                  string             `json:"name" db:"name"`
	Type                  OrganizationType   `json:"type" db:"type"`
	Status                OrganizationStatus `json:"status" db:"status"`
	SubscriptionTier      SubscriptionTier   `json:"subscription_tier" db:"subscription_tier"`
	BillingCustomerID     *string            `json:"billing_customer_id" db:"billing_customer_id"`
	CreditBalance         int                `json:"credit_balance" db:"credit_balance"`
	BasicCreditBalance    int                `json:"basic_credit_balance" db:"basic_credit_balance"`
	AdvancedCreditBalance int                `json:"advanced_credit_balance" db:"advanced_credit_balance"`
	CreatedAt             time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt             time.Time          `json:"updated_at" db:"updated_at"`
}

// RelationshipStatus represents the routing state of a referring/radiology link
type RelationshipStatus string

const (
	RelationshipStatusActive    RelationshipStatus = "active"
	RelationshipStatusPurgatory RelationshipStatus = "purgatory"
	RelationshipStatusInactive  RelationshipStatus = "inactive"
)

// OrganizationRelationship links a referring organization to a radiology group
// for order routing
type OrganizationRelationship struct {
	ID                      string             `json:"id" db:"id"`
	ReferringOrganizationID string             `json:"referring_organization_id" db:"referring_organization_id"`
	RadiologyOrganizationID string             `json:"radiology_organization_id" db:"radiology_organization_id"`
	Status                  RelationshipStatus `json:"status" db:"status"`
	CreatedAt               time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt               time.Time          `json:"updated_at" db:"updated_at"`
}
