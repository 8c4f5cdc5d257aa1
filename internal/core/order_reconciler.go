package core

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"scalevo-backend-go/internal/cache"
	"scalevo-backend-go/internal/db"
	"scalevo-backend-go/internal/models"
	"scalevo-backend-go/internal/payments"
)

// How long a processed session id stays in the fast dedup cache. Firestore
// remains the dedup source of truth after expiry.
const orderDedupTTL = 48 * time.Hour

// orderReconciler folds a store's Stripe event stream into its orders
// subcollection, then runs the follow-up bookkeeping.
type orderReconciler struct {
	storeRepo       db.StoreRepository
	productRepo     db.ProductRepository
	promoRepo       db.PromoCodeRepository
	orderRepo       db.OrderRepository
	analyticsRepo   db.AnalyticsRepository
	gateway         payments.Gateway
	dedupCache      cache.Cache // optional
	allowUnverified bool
	logger          *zap.Logger
}

// NewOrderReconciler creates a new OrderReconciler instance. dedupCache may be
// nil; deduplication then relies solely on Firestore lookups.
func NewOrderReconciler(
	storeRepo db.StoreRepository,
	productRepo db.ProductRepository,
	promoRepo db.PromoCodeRepository,
	orderRepo db.OrderRepository,
	analyticsRepo db.AnalyticsRepository,
	gateway payments.Gateway,
	dedupCache cache.Cache,
	allowUnverified bool,
	logger *zap.Logger,
) OrderReconciler {
	return &orderReconciler{
		storeRepo:       storeRepo,
		productRepo:     productRepo,
		promoRepo:       promoRepo,
		orderRepo:       orderRepo,
		analyticsRepo:   analyticsRepo,
		gateway:         gateway,
		dedupCache:      dedupCache,
		allowUnverified: allowUnverified,
		logger:          logger,
	}
}

// HandleEvent verifies and applies one store-scoped payment event. The order
// record is the durable outcome; stock, promo usage and analytics updates are
// best effort and never fail the webhook, since Stripe would retry the whole
// event and duplicate the order.
func (r *orderReconciler) HandleEvent(ctx context.Context, storeID, signature string, payload []byte) error {
	store, err := r.storeRepo.GetByID(ctx, storeID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return fmt.Errorf("%w: '%s'", ErrStoreNotFound, storeID)
		}
		return fmt.Errorf("failed to load store '%s': %w", storeID, err)
	}
	if !store.HasStripeConfig() {
		return fmt.Errorf("%w: store '%s'", ErrMissingStripeConfig, storeID)
	}

	event, err := r.decode(store, signature, payload)
	if err != nil {
		return err
	}
	if event.Type != payments.EventCheckoutCompleted || event.Checkout == nil {
		return nil
	}

	checkout := event.Checkout
	txType := checkout.Metadata[metaType]
	if txType != models.TransactionTypeStoreCheckout && txType != models.TransactionTypeUpsell {
		return nil
	}

	seen, err := r.alreadyProcessed(ctx, storeID, checkout.SessionID)
	if err != nil {
		return err
	}
	if seen {
		r.logger.Info("Duplicate payment event skipped",
			zap.String("storeId", storeID), zap.String("sessionId", checkout.SessionID))
		return nil
	}

	order := r.buildOrder(checkout, txType)
	if _, err := r.orderRepo.Create(ctx, storeID, order); err != nil {
		return fmt.Errorf("failed to record order for session '%s': %w", checkout.SessionID, err)
	}
	r.markProcessed(ctx, storeID, checkout.SessionID)

	r.runSideEffects(ctx, storeID, order, event)
	return nil
}

func (r *orderReconciler) decode(store *models.Store, signature string, payload []byte) (*payments.Event, error) {
	if store.StripeWebhookSecret != "" {
		event, err := r.gateway.VerifyEvent(payload, signature, store.StripeWebhookSecret)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrWebhookSignature, err)
		}
		return event, nil
	}
	if !r.allowUnverified {
		return nil, fmt.Errorf("%w: store '%s' has no signing secret", ErrWebhookSignature, store.ID)
	}
	r.logger.Warn("Processing order event without signature verification", zap.String("storeId", store.ID))
	event, err := r.gateway.ParseEvent(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWebhookSignature, err)
	}
	return event, nil
}

func (r *orderReconciler) buildOrder(checkout *payments.CheckoutCompleted, txType string) *models.Order {
	currency := checkout.Currency
	if currency == "" {
		currency = defaultCurrency
	}
	quantity := int64(1)
	if raw := checkout.Metadata[metaQuantity]; raw != "" {
		if parsed, err := strconv.ParseInt(raw, 10, 64); err == nil && parsed > 0 {
			quantity = parsed
		}
	}
	return &models.Order{
		SessionID:     checkout.SessionID,
		CustomerEmail: checkout.CustomerEmail,
		CustomerName:  checkout.CustomerName,
		Amount:        float64(checkout.AmountTotal) / 100,
		Currency:      currency,
		Status:        "paid",
		Type:          txType,
		ProductID:     checkout.Metadata[metaProductID],
		PromoCodeID:   checkout.Metadata[metaPromoCodeID],
		Quantity:      quantity,
	}
}

// alreadyProcessed consults the fast cache first, then the orders collection.
// A cache read failure falls through to Firestore rather than failing the
// event.
func (r *orderReconciler) alreadyProcessed(ctx context.Context, storeID, sessionID string) (bool, error) {
	if r.dedupCache != nil {
		hit, err := r.dedupCache.Get(ctx, dedupKey(storeID, sessionID))
		if err != nil {
			r.logger.Warn("Dedup cache read failed", zap.String("sessionId", sessionID), zap.Error(err))
		} else if hit != "" {
			return true, nil
		}
	}
	exists, err := r.orderRepo.ExistsBySessionID(ctx, storeID, sessionID)
	if err != nil {
		return false, fmt.Errorf("failed to check session '%s': %w", sessionID, err)
	}
	return exists, nil
}

func (r *orderReconciler) markProcessed(ctx context.Context, storeID, sessionID string) {
	if r.dedupCache == nil {
		return
	}
	if err := r.dedupCache.Set(ctx, dedupKey(storeID, sessionID), "1", orderDedupTTL); err != nil {
		r.logger.Warn("Dedup cache write failed", zap.String("sessionId", sessionID), zap.Error(err))
	}
}

func dedupKey(storeID, sessionID string) string {
	return fmt.Sprintf("order:%s:%s", storeID, sessionID)
}

// runSideEffects performs the post-order bookkeeping. Each task is isolated so
// one failure does not stop the others, and none is ever reported back to the
// processor.
func (r *orderReconciler) runSideEffects(ctx context.Context, storeID string, order *models.Order, event *payments.Event) {
	checkout := event.Checkout

	// Analytics are booked on the event's calendar date, so a retried
	// delivery after midnight still lands on the day of the purchase.
	eventDay := event.Created
	if eventDay.IsZero() {
		eventDay = time.Now()
	}

	type task struct {
		name string
		run  func() error
	}

	tasks := []task{}

	if order.Type == models.TransactionTypeStoreCheckout && order.ProductID != "" {
		tasks = append(tasks, task{"stock decrement", func() error {
			underflow, err := r.productRepo.DecrementStock(ctx, storeID, order.ProductID, order.Quantity)
			if err != nil {
				return err
			}
			if underflow {
				r.logger.Warn("Order exceeded remaining stock",
					zap.String("storeId", storeID),
					zap.String("productId", order.ProductID),
					zap.String("orderId", order.ID))
				return r.orderRepo.FlagInventoryShortfall(ctx, storeID, order.ID)
			}
			return nil
		}})
	}

	if order.PromoCodeID != "" {
		tasks = append(tasks, task{"promo usage", func() error {
			return r.promoRepo.IncrementUsage(ctx, storeID, order.PromoCodeID)
		}})
	}

	tasks = append(tasks, task{"analytics", func() error {
		return r.analyticsRepo.IncrementDaily(ctx, storeID, eventDay, 1, order.Amount)
	}})

	for _, t := range tasks {
		if err := t.run(); err != nil {
			r.logger.Error("Order side effect failed",
				zap.String("task", t.name),
				zap.String("storeId", storeID),
				zap.String("sessionId", checkout.SessionID),
				zap.Error(err))
		}
	}
}
