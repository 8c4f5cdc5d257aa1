package core

import (
	"context"

	"scalevo-backend-go/internal/models"
	"scalevo-backend-go/internal/payments"
)

// StoreService defines store lifecycle operations.
type StoreService interface {
	CreateStore(ctx context.Context, userID string, req models.CreateStoreRequest) (*models.Store, error)
	ListStores(ctx context.Context, userID string) ([]*models.Store, error)
	UpdateStore(ctx context.Context, userID, storeID string, req models.UpdateStoreRequest) (*models.Store, error)
	DeleteStore(ctx context.Context, userID, storeID string) error
}

// CheckoutService composes credential resolution and pricing into processor
// checkout sessions. Subscription operations run on the platform's Stripe
// identity; store purchase and upsell operations run on the store's own keys.
type CheckoutService interface {
	CreateSubscriptionCheckout(ctx context.Context, userID, email string, req models.CreateSubscriptionCheckoutRequest) (string, error)
	CreateAddonCheckout(ctx context.Context, userID, email string, req models.CreateAddonCheckoutRequest) (*payments.Session, error)
	CreatePortalSession(ctx context.Context, userID, returnURL string) (string, error)
	CreateStoreCheckout(ctx context.Context, req models.CreateStoreCheckoutRequest) (string, error)
	CreateUpsellCheckout(ctx context.Context, req models.CreateUpsellCheckoutRequest) (string, error)
	GetSubscription(ctx context.Context, userID string) (*models.Subscription, error)
}

// BillingReconciler consumes platform billing webhook events and transitions
// per-user subscription records.
type BillingReconciler interface {
	HandleEvent(ctx context.Context, signature string, payload []byte) error
}

// OrderReconciler consumes per-store payment-completion webhook events and
// turns them into durable orders plus best-effort side effects.
type OrderReconciler interface {
	HandleEvent(ctx context.Context, storeID, signature string, payload []byte) error
}
