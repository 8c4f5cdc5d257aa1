package db

import (
	"context"
	"time"

	"scalevo-backend-go/internal/models"
)

// StoreRepository defines storage operations for stores and slug reservations.
type StoreRepository interface {
	// CreateWithSlug writes the store and its slug reservation in one batched
	// write: both become visible together or neither does.
	CreateWithSlug(ctx context.Context, store *models.Store) (string, error)
	GetByID(ctx context.Context, storeID string) (*models.Store, error)
	GetByOwnerID(ctx context.Context, ownerID string) ([]*models.Store, error)
	CountByOwnerID(ctx context.Context, ownerID string) (int, error)
	// Update applies the given field set; callers are responsible for
	// restricting it to the mutable allow-list.
	Update(ctx context.Context, storeID string, fields map[string]interface{}) error
	// DeleteCascade removes the store, its slug reservation, and every
	// document in its subcollections.
	DeleteCascade(ctx context.Context, store *models.Store) error
	SlugExists(ctx context.Context, slug string) (bool, error)
}

// ProductRepository defines storage operations for a store's products.
type ProductRepository interface {
	GetByID(ctx context.Context, storeID, productID string) (*models.Product, error)
	// DecrementStock atomically lowers tracked stock by qty inside a
	// transaction, clamping at zero. It returns true when the full decrement
	// could not be honored (underflow). Untracked stock is a no-op.
	DecrementStock(ctx context.Context, storeID, productID string, qty int64) (underflow bool, err error)
}

// FunnelRepository resolves the store's single active funnel.
type FunnelRepository interface {
	// GetActive returns the most recently created funnel, or nil when the
	// store has none.
	GetActive(ctx context.Context, storeID string) (*models.Funnel, error)
}

// PromoCodeRepository defines storage operations for promo codes.
type PromoCodeRepository interface {
	// GetByCode returns the active promo code with the given code string, or
	// nil when none matches.
	GetByCode(ctx context.Context, storeID, code string) (*models.PromoCode, error)
	IncrementUsage(ctx context.Context, storeID, promoCodeID string) error
}

// OrderRepository defines storage operations for a store's orders.
type OrderRepository interface {
	Create(ctx context.Context, storeID string, order *models.Order) (string, error)
	// ExistsBySessionID reports whether an order for the given checkout
	// session id has already been recorded.
	ExistsBySessionID(ctx context.Context, storeID, sessionID string) (bool, error)
	GetByStoreID(ctx context.Context, storeID string) ([]*models.Order, error)
	// FlagInventoryShortfall marks an order whose stock decrement underflowed.
	FlagInventoryShortfall(ctx context.Context, storeID, orderID string) error
}

// AnalyticsRepository maintains the per-store daily aggregates.
type AnalyticsRepository interface {
	// IncrementDaily adds conversions and revenue to the store's record for
	// the given day using atomic increments.
	IncrementDaily(ctx context.Context, storeID string, day time.Time, conversions int64, revenue float64) error
}

// UserRepository defines storage operations for platform users.
type UserRepository interface {
	GetByID(ctx context.Context, userID string) (*models.User, error)
	// SetStripeCustomerID persists a freshly created Stripe customer id with a
	// merge write, creating the user document if needed.
	SetStripeCustomerID(ctx context.Context, userID, customerID string) error
	// FindByStripeCustomerID resolves a user by the linked Stripe customer id,
	// returning nil when no user matches.
	FindByStripeCustomerID(ctx context.Context, customerID string) (*models.User, error)
}

// SubscriptionRepository defines storage operations for SaaS subscriptions.
type SubscriptionRepository interface {
	GetByUserID(ctx context.Context, userID string) (*models.Subscription, error)
	// Upsert merge-writes the subscription document for the user.
	Upsert(ctx context.Context, userID string, fields map[string]interface{}) error
}
