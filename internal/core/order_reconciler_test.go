package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"scalevo-backend-go/internal/models"
	"scalevo-backend-go/internal/payments"
)

type orderFixture struct {
	storeRepo     *fakeStoreRepo
	productRepo   *fakeProductRepo
	promoRepo     *fakePromoRepo
	orderRepo     *fakeOrderRepo
	analyticsRepo *fakeAnalyticsRepo
	gateway       *fakeGateway
	reconciler    OrderReconciler
}

func newOrderFixture(event *payments.Event) *orderFixture {
	f := &orderFixture{
		storeRepo:     newFakeStoreRepo(),
		productRepo:   newFakeProductRepo(),
		promoRepo:     &fakePromoRepo{},
		orderRepo:     newFakeOrderRepo(),
		analyticsRepo: &fakeAnalyticsRepo{},
		gateway:       &fakeGateway{event: event},
	}
	f.storeRepo.stores["s1"] = &models.Store{
		ID: "s1", OwnerID: "owner-1", Published: true,
		StripeSecretKey: "sk_store", StripeWebhookSecret: "whsec_store",
	}
	f.reconciler = NewOrderReconciler(
		f.storeRepo, f.productRepo, f.promoRepo, f.orderRepo, f.analyticsRepo,
		f.gateway, nil, false, zap.NewNop(),
	)
	return f
}

// Late in the day so a delayed retry would cross midnight.
var checkoutEventTime = time.Date(2026, 3, 14, 23, 55, 0, 0, time.UTC)

func paidCheckoutEvent(sessionID string, metadata map[string]string) *payments.Event {
	return &payments.Event{
		Type:    payments.EventCheckoutCompleted,
		Created: checkoutEventTime,
		Checkout: &payments.CheckoutCompleted{
			SessionID:     sessionID,
			Mode:          payments.ModePayment,
			Metadata:      metadata,
			AmountTotal:   4950,
			Currency:      "eur",
			CustomerEmail: "buyer@example.com",
			CustomerName:  "Buyer",
		},
	}
}

func storeCheckoutMetadata() map[string]string {
	return map[string]string{
		"storeId":      "s1",
		"productId":    "p1",
		"storeOwnerId": "owner-1",
		"type":         "store_checkout",
		"quantity":     "2",
	}
}

func TestOrderEventCreatesOrder(t *testing.T) {
	f := newOrderFixture(paidCheckoutEvent("cs_1", storeCheckoutMetadata()))

	require.NoError(t, f.reconciler.HandleEvent(context.Background(), "s1", "sig", []byte("{}")))

	require.Len(t, f.orderRepo.orders, 1)
	order := f.orderRepo.orders[0]
	assert.Equal(t, "cs_1", order.SessionID)
	assert.Equal(t, "buyer@example.com", order.CustomerEmail)
	assert.Equal(t, 49.50, order.Amount)
	assert.Equal(t, "eur", order.Currency)
	assert.Equal(t, "paid", order.Status)
	assert.Equal(t, models.TransactionTypeStoreCheckout, order.Type)
	assert.Equal(t, "p1", order.ProductID)
	assert.Equal(t, int64(2), order.Quantity)
}

func TestOrderEventRunsSideEffects(t *testing.T) {
	metadata := storeCheckoutMetadata()
	metadata["promoCodeId"] = "promo-1"
	f := newOrderFixture(paidCheckoutEvent("cs_1", metadata))

	require.NoError(t, f.reconciler.HandleEvent(context.Background(), "s1", "sig", []byte("{}")))

	require.Len(t, f.productRepo.decrements, 1)
	assert.Equal(t, stockDecrement{productID: "p1", qty: 2}, f.productRepo.decrements[0])
	assert.Equal(t, []string{"promo-1"}, f.promoRepo.increments)

	require.Len(t, f.analyticsRepo.increments, 1)
	inc := f.analyticsRepo.increments[0]
	assert.Equal(t, "2026-03-14", inc.day)
	assert.Equal(t, int64(1), inc.conversions)
	assert.Equal(t, 49.50, inc.revenue)
}

func TestOrderEventWithoutTimestampBooksOnDeliveryDay(t *testing.T) {
	event := paidCheckoutEvent("cs_1", storeCheckoutMetadata())
	event.Created = time.Time{}
	f := newOrderFixture(event)

	require.NoError(t, f.reconciler.HandleEvent(context.Background(), "s1", "sig", []byte("{}")))

	require.Len(t, f.analyticsRepo.increments, 1)
	assert.Equal(t, models.AnalyticsDay(time.Now()), f.analyticsRepo.increments[0].day)
}

func TestOrderEventDuplicateSessionSkipped(t *testing.T) {
	f := newOrderFixture(paidCheckoutEvent("cs_1", storeCheckoutMetadata()))

	require.NoError(t, f.reconciler.HandleEvent(context.Background(), "s1", "sig", []byte("{}")))
	require.NoError(t, f.reconciler.HandleEvent(context.Background(), "s1", "sig", []byte("{}")))

	assert.Len(t, f.orderRepo.orders, 1)
	assert.Len(t, f.productRepo.decrements, 1)
	assert.Len(t, f.analyticsRepo.increments, 1)
}

func TestOrderEventStockUnderflowFlagsOrder(t *testing.T) {
	f := newOrderFixture(paidCheckoutEvent("cs_1", storeCheckoutMetadata()))
	f.productRepo.underflow = true

	require.NoError(t, f.reconciler.HandleEvent(context.Background(), "s1", "sig", []byte("{}")))

	require.Len(t, f.orderRepo.orders, 1)
	assert.Equal(t, []string{f.orderRepo.orders[0].ID}, f.orderRepo.flagged)
}

func TestOrderEventSideEffectFailureDoesNotFailWebhook(t *testing.T) {
	metadata := storeCheckoutMetadata()
	metadata["promoCodeId"] = "promo-1"
	f := newOrderFixture(paidCheckoutEvent("cs_1", metadata))
	f.productRepo.decErr = errors.New("transaction contention")
	f.analyticsRepo.err = errors.New("increment failed")

	require.NoError(t, f.reconciler.HandleEvent(context.Background(), "s1", "sig", []byte("{}")))

	// The order survives even when every side effect fails, and independent
	// tasks still ran.
	assert.Len(t, f.orderRepo.orders, 1)
	assert.Equal(t, []string{"promo-1"}, f.promoRepo.increments)
}

func TestOrderEventUpsellSkipsStock(t *testing.T) {
	f := newOrderFixture(paidCheckoutEvent("cs_2", map[string]string{
		"storeId": "s1", "storeOwnerId": "owner-1", "type": "upsell",
	}))

	require.NoError(t, f.reconciler.HandleEvent(context.Background(), "s1", "sig", []byte("{}")))

	require.Len(t, f.orderRepo.orders, 1)
	order := f.orderRepo.orders[0]
	assert.Equal(t, models.TransactionTypeUpsell, order.Type)
	assert.Equal(t, int64(1), order.Quantity)
	assert.Empty(t, f.productRepo.decrements)
	assert.Len(t, f.analyticsRepo.increments, 1)
}

func TestOrderEventUnknownTypeIgnored(t *testing.T) {
	f := newOrderFixture(paidCheckoutEvent("cs_3", map[string]string{"type": "gift_card"}))

	require.NoError(t, f.reconciler.HandleEvent(context.Background(), "s1", "sig", []byte("{}")))
	assert.Empty(t, f.orderRepo.orders)
}

func TestOrderEventStoreNotFound(t *testing.T) {
	f := newOrderFixture(paidCheckoutEvent("cs_1", storeCheckoutMetadata()))

	err := f.reconciler.HandleEvent(context.Background(), "missing", "sig", []byte("{}"))
	assert.ErrorIs(t, err, ErrStoreNotFound)
}

func TestOrderEventStoreWithoutStripeConfig(t *testing.T) {
	f := newOrderFixture(paidCheckoutEvent("cs_1", storeCheckoutMetadata()))
	f.storeRepo.stores["s1"].StripeSecretKey = ""

	err := f.reconciler.HandleEvent(context.Background(), "s1", "sig", []byte("{}"))
	assert.ErrorIs(t, err, ErrMissingStripeConfig)
}

func TestOrderEventSignatureFailure(t *testing.T) {
	f := newOrderFixture(paidCheckoutEvent("cs_1", storeCheckoutMetadata()))
	f.gateway.verifyErr = errors.New("bad signature")

	err := f.reconciler.HandleEvent(context.Background(), "s1", "sig", []byte("{}"))
	assert.ErrorIs(t, err, ErrWebhookSignature)
	assert.Empty(t, f.orderRepo.orders)
}

func TestOrderEventNoStoreSecretRejectedUnlessAllowed(t *testing.T) {
	f := newOrderFixture(paidCheckoutEvent("cs_1", storeCheckoutMetadata()))
	f.storeRepo.stores["s1"].StripeWebhookSecret = ""

	err := f.reconciler.HandleEvent(context.Background(), "s1", "sig", []byte("{}"))
	assert.ErrorIs(t, err, ErrWebhookSignature)

	permissive := NewOrderReconciler(
		f.storeRepo, f.productRepo, f.promoRepo, f.orderRepo, f.analyticsRepo,
		f.gateway, nil, true, zap.NewNop(),
	)
	require.NoError(t, permissive.HandleEvent(context.Background(), "s1", "sig", []byte("{}")))
	assert.Len(t, f.orderRepo.orders, 1)
}

func TestOrderEventDedupCacheShortCircuits(t *testing.T) {
	f := newOrderFixture(paidCheckoutEvent("cs_1", storeCheckoutMetadata()))
	memCache := newMemCache()
	reconciler := NewOrderReconciler(
		f.storeRepo, f.productRepo, f.promoRepo, f.orderRepo, f.analyticsRepo,
		f.gateway, memCache, false, zap.NewNop(),
	)

	require.NoError(t, reconciler.HandleEvent(context.Background(), "s1", "sig", []byte("{}")))
	assert.Contains(t, memCache.values, "order:s1:cs_1")

	// Clear the durable record; the cache alone must still dedup the replay.
	f.orderRepo.existing = map[string]bool{}
	require.NoError(t, reconciler.HandleEvent(context.Background(), "s1", "sig", []byte("{}")))
	assert.Len(t, f.orderRepo.orders, 1)
}

type memCache struct {
	values map[string]string
}

func newMemCache() *memCache {
	return &memCache{values: map[string]string{}}
}

func (c *memCache) Get(_ context.Context, key string) (string, error) {
	return c.values[key], nil
}

func (c *memCache) Set(_ context.Context, key, value string, _ time.Duration) error {
	c.values[key] = value
	return nil
}

func (c *memCache) Delete(_ context.Context, key string) error {
	delete(c.values, key)
	return nil
}
