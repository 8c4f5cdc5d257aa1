package core

import (
	"context"
	"errors"
	"fmt"

	"scalevo-backend-go/internal/db"
	"scalevo-backend-go/internal/models"
)

// CredentialScope selects which Stripe identity a transaction runs under.
type CredentialScope int

const (
	// ScopePlatform is the platform's own Stripe account: SaaS subscription
	// billing and the billing portal.
	ScopePlatform CredentialScope = iota
	// ScopeStore is a tenant store's connected Stripe account: storefront
	// purchases and upsells.
	ScopeStore
)

// StoreCredentialOptions tunes store-scope resolution.
type StoreCredentialOptions struct {
	// RequirePublished rejects unpublished stores; purchase flows set this,
	// owner-facing flows do not.
	RequirePublished bool
}

// CredentialResolver decides which payment-processor secret a transaction uses
// and fails clearly when none is configured. Pure lookup plus validation, no
// side effects.
type CredentialResolver struct {
	storeRepo      db.StoreRepository
	platformSecret string
}

// NewCredentialResolver creates a CredentialResolver.
func NewCredentialResolver(storeRepo db.StoreRepository, platformSecret string) *CredentialResolver {
	return &CredentialResolver{storeRepo: storeRepo, platformSecret: platformSecret}
}

// Platform returns the platform's Stripe secret key.
func (r *CredentialResolver) Platform() (string, error) {
	if r.platformSecret == "" {
		return "", fmt.Errorf("%w: platform stripe secret key is not set", ErrMissingStripeConfig)
	}
	return r.platformSecret, nil
}

// Store loads the store and returns both it and its Stripe secret key.
// The store is returned so callers do not re-read mutable state after the
// credential decision.
func (r *CredentialResolver) Store(ctx context.Context, storeID string, opts StoreCredentialOptions) (*models.Store, string, error) {
	store, err := r.storeRepo.GetByID(ctx, storeID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, "", fmt.Errorf("%w: store '%s'", ErrStoreNotFound, storeID)
		}
		return nil, "", fmt.Errorf("failed to load store '%s' for credential resolution: %w", storeID, err)
	}
	if opts.RequirePublished && !store.Published {
		return nil, "", fmt.Errorf("%w: store '%s' is not published", ErrStoreNotFound, storeID)
	}
	if !store.HasStripeConfig() {
		return nil, "", fmt.Errorf("%w: store '%s' has no secret key", ErrMissingStripeConfig, storeID)
	}
	return store, store.StripeSecretKey, nil
}
