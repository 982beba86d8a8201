package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	os.Unsetenv("APP_ENV")
	os.Unsetenv("BILLING_TEST_MODE")
	os.Unsetenv("BILLING_PRICE_TIER_MAP")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "radiology_order_platform", cfg.Database.Database)
	assert.False(t, cfg.Billing.TestMode)
	assert.Empty(t, cfg.Billing.PriceTierMap)
}

func TestLoad_BillingTestModeRejectedInProduction(t *testing.T) {
	os.Setenv("APP_ENV", "production")
	os.Setenv("BILLING_TEST_MODE", "true")
	defer func() {
		os.Unsetenv("APP_ENV")
		os.Unsetenv("BILLING_TEST_MODE")
	}()

	_, err := Load()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "BILLING_TEST_MODE")
}

func TestLoad_BillingTestModeAllowedInDevelopment(t *testing.T) {
	os.Setenv("APP_ENV", "development")
	os.Setenv("BILLING_TEST_MODE", "true")
	defer func() {
		os.Unsetenv("APP_ENV")
		os.Unsetenv("BILLING_TEST_MODE")
	}()

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.Billing.TestMode)
}

func TestLoad_PriceTierMap(t *testing.T) {
	os.Setenv("BILLING_PRICE_TIER_MAP", "price_basic:tier_1, price_pro:tier_2,price_max:tier_3")
	defer os.Unsetenv("BILLING_PRICE_TIER_MAP")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"price_basic": "tier_1",
		"price_pro":   "tier_2",
		"price_max":   "tier_3",
	}, cfg.Billing.PriceTierMap)
}

func TestLoad_PriceTierMapIgnoresMalformedPairs(t *testing.T) {
	os.Setenv("BILLING_PRICE_TIER_MAP", "price_basic:tier_1,broken,:tier_2,price_x:")
	defer os.Unsetenv("BILLING_PRICE_TIER_MAP")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"price_basic": "tier_1"}, cfg.Billing.PriceTierMap)
}

func TestDatabaseDSN(t *testing.T) {
	dbCfg := DatabaseConfig{
		Host: "db", Port: 5432, User: "app", Password: "pw",
		Database: "orders", SSLMode: "disable",
	}

	assert.Equal(t,
		"host=db port=5432 user=app password=pw dbname=orders sslmode=disable",
		dbCfg.DatabaseDSN())
}
