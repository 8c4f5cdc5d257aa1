package config

import (
	"errors"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Port                             string `mapstructure:"PORT"`
	GinMode                          string `mapstructure:"GIN_MODE"`
	FirebaseProjectID                string `mapstructure:"FIREBASE_PROJECT_ID"`
	GoogleApplicationCredentials     string `mapstructure:"GOOGLE_APPLICATION_CREDENTIALS"`
	FirebaseServiceAccountJSONBase64 string `mapstructure:"FIREBASE_SERVICE_ACCOUNT_JSON_BASE64"`
	ClientURL                        string `mapstructure:"CLIENT_URL"`

	// Platform Stripe identity: SaaS subscription billing runs on these keys.
	// Per-store checkouts use the keys stored on each Store document instead.
	StripeSecretKey            string `mapstructure:"STRIPE_SECRET_KEY"`
	StripeWebhookBillingSecret string `mapstructure:"STRIPE_WEBHOOK_BILLING"`

	// Stripe Price IDs for the SaaS subscription tiers.
	StripePriceStarter string `mapstructure:"STRIPE_PRICE_STARTER"`
	StripePricePro     string `mapstructure:"STRIPE_PRICE_PRO"`
	StripePriceScale   string `mapstructure:"STRIPE_PRICE_SCALE"`

	// Plan -> max store count. Configuration, not hard-coded business logic.
	PlanLimitFree    int `mapstructure:"PLAN_LIMIT_FREE"`
	PlanLimitStarter int `mapstructure:"PLAN_LIMIT_STARTER"`
	PlanLimitPro     int `mapstructure:"PLAN_LIMIT_PRO"`
	PlanLimitScale   int `mapstructure:"PLAN_LIMIT_SCALE"`

	// AllowUnverifiedWebhooks lets webhook handlers fall back to trusting the
	// parsed body when no signing secret is configured. Test/dev only; must
	// stay false in production.
	AllowUnverifiedWebhooks bool `mapstructure:"ALLOW_UNVERIFIED_WEBHOOKS"`

	// Optional Redis address for the order idempotency cache. Empty disables it.
	RedisAddress  string `mapstructure:"REDIS_ADDRESS"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`
}

var appConfig *Config

// LoadConfig loads configuration from environment variables using Viper.
func LoadConfig() (*Config, error) {
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("GIN_MODE", "debug")
	viper.SetDefault("PLAN_LIMIT_FREE", 1)
	viper.SetDefault("PLAN_LIMIT_STARTER", 3)
	viper.SetDefault("PLAN_LIMIT_PRO", 10)
	viper.SetDefault("PLAN_LIMIT_SCALE", 50)
	viper.SetDefault("ALLOW_UNVERIFIED_WEBHOOKS", false)
	viper.SetDefault("REDIS_DB", 0)

	// Bind environment variables
	viper.BindEnv("PORT")
	viper.BindEnv("GIN_MODE")
	viper.BindEnv("FIREBASE_PROJECT_ID")
	viper.BindEnv("GOOGLE_APPLICATION_CREDENTIALS")
	viper.BindEnv("FIREBASE_SERVICE_ACCOUNT_JSON_BASE64")
	viper.BindEnv("CLIENT_URL")
	viper.BindEnv("STRIPE_SECRET_KEY")
	viper.BindEnv("STRIPE_WEBHOOK_BILLING")
	viper.BindEnv("STRIPE_PRICE_STARTER")
	viper.BindEnv("STRIPE_PRICE_PRO")
	viper.BindEnv("STRIPE_PRICE_SCALE")
	viper.BindEnv("PLAN_LIMIT_FREE")
	viper.BindEnv("PLAN_LIMIT_STARTER")
	viper.BindEnv("PLAN_LIMIT_PRO")
	viper.BindEnv("PLAN_LIMIT_SCALE")
	viper.BindEnv("ALLOW_UNVERIFIED_WEBHOOKS")
	viper.BindEnv("REDIS_ADDRESS")
	viper.BindEnv("REDIS_PASSWORD")
	viper.BindEnv("REDIS_DB")

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, errors.New("failed to unmarshal config: " + err.Error())
	}

	// Validate required fields
	if cfg.FirebaseProjectID == "" {
		return nil, errors.New("FIREBASE_PROJECT_ID is required")
	}
	if cfg.GoogleApplicationCredentials == "" && cfg.FirebaseServiceAccountJSONBase64 == "" {
		return nil, errors.New("either GOOGLE_APPLICATION_CREDENTIALS or FIREBASE_SERVICE_ACCOUNT_JSON_BASE64 is required")
	}
	if cfg.StripeSecretKey == "" {
		return nil, errors.New("STRIPE_SECRET_KEY is required")
	}
	if cfg.ClientURL == "" {
		return nil, errors.New("CLIENT_URL is required")
	}
	if cfg.StripeWebhookBillingSecret == "" && !cfg.AllowUnverifiedWebhooks {
		return nil, errors.New("STRIPE_WEBHOOK_BILLING is required unless ALLOW_UNVERIFIED_WEBHOOKS is set")
	}

	appConfig = &cfg
	return appConfig, nil
}

// PlanLimits returns the plan -> max-stores table assembled from config.
func (c *Config) PlanLimits() map[string]int {
	return map[string]int{
		"free":    c.PlanLimitFree,
		"starter": c.PlanLimitStarter,
		"pro":     c.PlanLimitPro,
		"scale":   c.PlanLimitScale,
	}
}

// PlanPrices returns the plan -> Stripe Price ID table for the paid tiers.
func (c *Config) PlanPrices() map[string]string {
	return map[string]string{
		"starter": c.StripePriceStarter,
		"pro":     c.StripePricePro,
		"scale":   c.StripePriceScale,
	}
}

// GetConfig returns the loaded application configuration.
// It will panic if LoadConfig has not been called successfully.
func GetConfig() *Config {
	if appConfig == nil {
		panic("config not loaded; call LoadConfig first")
	}
	return appConfig
}
