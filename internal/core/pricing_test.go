package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scalevo-backend-go/internal/models"
)

func intPtr(v int) *int       { return &v }
func int64Ptr(v int64) *int64 { return &v }

func TestMinorUnits(t *testing.T) {
	assert.Equal(t, int64(1999), MinorUnits(19.99))
	assert.Equal(t, int64(4950), MinorUnits(49.50))
	assert.Equal(t, int64(700), MinorUnits(7.0))
	assert.Equal(t, int64(0), MinorUnits(0))
	// 29.985 rounds half away from zero.
	assert.Equal(t, int64(2999), MinorUnits(29.985))
}

func TestPriceLineItemsProductOnly(t *testing.T) {
	product := &models.Product{Name: "Ebook", Price: 19.99}

	items, err := PriceLineItems(product, nil, PurchaseSelection{})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Ebook", items[0].Name)
	assert.Equal(t, int64(1999), items[0].UnitAmount)
	assert.Equal(t, int64(1), items[0].Quantity)
}

func TestPriceLineItemsBundle(t *testing.T) {
	product := &models.Product{Name: "Ebook", Price: 19.99}
	funnel := &models.Funnel{
		Bundles: []models.Bundle{
			{Label: "Solo", UnitPrice: 19.99, Qty: 1},
			{Label: "Duo", UnitPrice: 49.50, Qty: 2},
		},
	}

	items, err := PriceLineItems(product, funnel, PurchaseSelection{BundleIndex: intPtr(1)})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Ebook — Duo", items[0].Name)
	assert.Equal(t, int64(4950), items[0].UnitAmount)
	assert.Equal(t, int64(2), items[0].Quantity)
}

func TestPriceLineItemsBundleIndexOutOfRange(t *testing.T) {
	product := &models.Product{Name: "Ebook", Price: 19.99}
	funnel := &models.Funnel{Bundles: []models.Bundle{{Label: "Solo", UnitPrice: 19.99, Qty: 1}}}

	items, err := PriceLineItems(product, funnel, PurchaseSelection{BundleIndex: intPtr(5)})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Ebook", items[0].Name)
	assert.Equal(t, int64(1), items[0].Quantity)
}

func TestPriceLineItemsOrderBump(t *testing.T) {
	product := &models.Product{Name: "Ebook", Price: 19.99}
	funnel := &models.Funnel{OrderBump: &models.Offer{Title: "Checklist", Price: 7.0}}

	items, err := PriceLineItems(product, funnel, PurchaseSelection{IncludeOrderBump: true})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Checklist", items[1].Name)
	assert.Equal(t, int64(700), items[1].UnitAmount)
	assert.Equal(t, int64(1), items[1].Quantity)
}

func TestPriceLineItemsOrderBumpDefaultTitle(t *testing.T) {
	product := &models.Product{Name: "Ebook", Price: 19.99}
	funnel := &models.Funnel{OrderBump: &models.Offer{Price: 7.0}}

	items, err := PriceLineItems(product, funnel, PurchaseSelection{IncludeOrderBump: true})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Order Bump", items[1].Name)
}

func TestPriceLineItemsBumpRequestedButUnpriced(t *testing.T) {
	product := &models.Product{Name: "Ebook", Price: 19.99}
	funnel := &models.Funnel{OrderBump: &models.Offer{Title: "Free extra", Price: 0}}

	items, err := PriceLineItems(product, funnel, PurchaseSelection{IncludeOrderBump: true})
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestPriceLineItemsOutOfStock(t *testing.T) {
	product := &models.Product{Name: "Ebook", Price: 19.99, Stock: int64Ptr(0)}

	_, err := PriceLineItems(product, nil, PurchaseSelection{})
	assert.ErrorIs(t, err, ErrOutOfStock)
}

func TestPriceLineItemsUntrackedStockAlwaysSellable(t *testing.T) {
	product := &models.Product{Name: "Ebook", Price: 19.99}

	_, err := PriceLineItems(product, nil, PurchaseSelection{})
	assert.NoError(t, err)
}

func TestPrimaryQuantity(t *testing.T) {
	funnel := &models.Funnel{Bundles: []models.Bundle{{Label: "Trio", UnitPrice: 10, Qty: 3}}}

	assert.Equal(t, int64(3), PrimaryQuantity(funnel, PurchaseSelection{BundleIndex: intPtr(0)}))
	assert.Equal(t, int64(1), PrimaryQuantity(funnel, PurchaseSelection{}))
	assert.Equal(t, int64(1), PrimaryQuantity(nil, PurchaseSelection{BundleIndex: intPtr(0)}))
}

func TestDiscountFor(t *testing.T) {
	percent := &models.PromoCode{Type: models.DiscountTypePercent, Value: 20}
	amount := &models.PromoCode{Type: models.DiscountTypeAmount, Value: 5.50}

	assert.Equal(t, float64(20), DiscountFor(percent).PercentOff)
	assert.Equal(t, int64(550), DiscountFor(amount).AmountOff)
}

func TestPromoCodeValidAt(t *testing.T) {
	now := time.Now().UTC()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	assert.True(t, (&models.PromoCode{Active: true}).ValidAt(now))
	assert.False(t, (&models.PromoCode{Active: false}).ValidAt(now))
	assert.False(t, (&models.PromoCode{Active: true, ExpiresAt: &past}).ValidAt(now))
	assert.True(t, (&models.PromoCode{Active: true, ExpiresAt: &future}).ValidAt(now))
	assert.False(t, (&models.PromoCode{Active: true, MaxUse: int64Ptr(10), UsageCount: 10}).ValidAt(now))
	assert.True(t, (&models.PromoCode{Active: true, MaxUse: int64Ptr(10), UsageCount: 9}).ValidAt(now))
}
