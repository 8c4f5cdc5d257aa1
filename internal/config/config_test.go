package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("FIREBASE_PROJECT_ID", "demo-project")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "/tmp/creds.json")
	t.Setenv("STRIPE_SECRET_KEY", "sk_test_123")
	t.Setenv("STRIPE_WEBHOOK_BILLING", "whsec_123")
	t.Setenv("CLIENT_URL", "https://app.example.com")
}

func TestLoadConfigDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "debug", cfg.GinMode)
	assert.False(t, cfg.AllowUnverifiedWebhooks)
	assert.Equal(t, map[string]int{"free": 1, "starter": 3, "pro": 10, "scale": 50}, cfg.PlanLimits())
}

func TestLoadConfigPlanPrices(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("STRIPE_PRICE_STARTER", "price_s")
	t.Setenv("STRIPE_PRICE_PRO", "price_p")
	t.Setenv("STRIPE_PRICE_SCALE", "price_x")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	prices := cfg.PlanPrices()
	assert.Equal(t, "price_s", prices["starter"])
	assert.Equal(t, "price_p", prices["pro"])
	assert.Equal(t, "price_x", prices["scale"])
	// The free plan has no price: it is never checked out.
	_, ok := prices["free"]
	assert.False(t, ok)
}

func TestLoadConfigMissingStripeKey(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("STRIPE_SECRET_KEY", "")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfigWebhookSecretRequiredByDefault(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("STRIPE_WEBHOOK_BILLING", "")

	_, err := LoadConfig()
	assert.Error(t, err)

	t.Setenv("ALLOW_UNVERIFIED_WEBHOOKS", "true")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.True(t, cfg.AllowUnverifiedWebhooks)
}
