package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/zatekoja/Radiologyorderplatformdesign/backend/internal/domain/entities"
	"github.com/zatekoja/Radiologyorderplatformdesign/backend/internal/domain/providers"
	"github.com/zatekoja/Radiologyorderplatformdesign/backend/internal/domain/repositories"
)

// CachedOrganizationAdapter wraps OrganizationAdapter with read caching for
// the API surface. Credit debits and the webhook reconciler go through the
// underlying adapter directly; cached rows serve advisory reads only, so
// balances in a cached row may lag the database by up to the TTL.
type CachedOrganizationAdapter struct {
	adapter repositories.OrganizationRepository
	cache   providers.CacheProvider
}

// NewCachedOrganizationAdapter creates a new cached organization adapter
func NewCachedOrganizationAdapter(adapter repositories.OrganizationRepository, cache providers.CacheProvider) repositories.OrganizationRepository {
	return &CachedOrganizationAdapter{
		adapter: adapter,
		cache:   cache,
	}
}

// organizationByIDTTL is the cache TTL in seconds for single organization rows
const organizationByIDTTL = 60

func organizationCacheKey(id string) string {
	return fmt.Sprintf("organization:%s", id)
}

// GetByID retrieves an organization by ID with caching
func (a *CachedOrganizationAdapter) GetByID(ctx context.Context, id string) (*entities.Organization, error) {
	cacheKey := organizationCacheKey(id)

	if cached, err := a.cache.Get(ctx, cacheKey); err == nil {
		var org entities.Organization
		if err := json.Unmarshal(cached, &org); err == nil {
			return &org, nil
		}
		log.Printf("Failed to unmarshal cached organization %s: %v", id, err)
	}

	org, err := a.adapter.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// Update cache asynchronously to avoid blocking the response
	go func() {
		bgCtx := context.Background()
		if data, err := json.Marshal(org); err == nil {
			if err := a.cache.Set(bgCtx, cacheKey, data, organizationByIDTTL); err != nil {
				log.Printf("Failed to cache organization %s: %v", id, err)
			}
		}
	}()

	return org, nil
}

// GetByBillingCustomerID is a reconciler path; it always reads the database
func (a *CachedOrganizationAdapter) GetByBillingCustomerID(ctx context.Context, customerID string) (*entities.Organization, error) {
	return a.adapter.GetByBillingCustomerID(ctx, customerID)
}

// DebitCredit delegates to the database and invalidates the cached row
func (a *CachedOrganizationAdapter) DebitCredit(ctx context.Context, tx *sql.Tx, organizationID string, creditType entities.CreditType) (int, error) {
	newBalance, err := a.adapter.DebitCredit(ctx, tx, organizationID, creditType)
	if err != nil {
		return 0, err
	}

	a.invalidate(organizationID)
	return newBalance, nil
}

// SetBalancesForTier delegates to the database and invalidates the cached row
func (a *CachedOrganizationAdapter) SetBalancesForTier(ctx context.Context, tx *sql.Tx, organizationID string, tier entities.SubscriptionTier, allocation entities.TierAllocation) error {
	if err := a.adapter.SetBalancesForTier(ctx, tx, organizationID, tier, allocation); err != nil {
		return err
	}

	a.invalidate(organizationID)
	return nil
}

// UpdateStatus delegates to the database and invalidates the cached row
func (a *CachedOrganizationAdapter) UpdateStatus(ctx context.Context, tx *sql.Tx, organizationID string, status entities.OrganizationStatus) (bool, error) {
	changed, err := a.adapter.UpdateStatus(ctx, tx, organizationID, status)
	if err != nil {
		return false, err
	}

	a.invalidate(organizationID)
	return changed, nil
}

// invalidationGrace covers the gap between a write and its transaction's
// commit: a concurrent GetByID landing in that gap re-caches the pre-commit
// row, so the key is deleted a second time after the grace. Staleness is
// bounded by this grace rather than the full TTL.
var invalidationGrace = 2 * time.Second

func (a *CachedOrganizationAdapter) invalidate(organizationID string) {
	key := organizationCacheKey(organizationID)
	bgCtx := context.Background()

	if err := a.cache.Delete(bgCtx, key); err != nil {
		log.Printf("Failed to invalidate organization cache %s: %v", organizationID, err)
	}

	grace := invalidationGrace
	go func() {
		time.Sleep(grace)
		if err := a.cache.Delete(bgCtx, key); err != nil {
			log.Printf("Failed to invalidate organization cache %s: %v", organizationID, err)
		}
	}()
}
