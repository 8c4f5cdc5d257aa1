package core

import (
	"fmt"
	"math"
	"time"

	"scalevo-backend-go/internal/models"
	"scalevo-backend-go/internal/payments"
)

// Default display name for an order bump without a configured title.
const defaultOrderBumpTitle = "Order Bump"

// PurchaseSelection is the buyer's choice within a store checkout.
type PurchaseSelection struct {
	// BundleIndex selects a funnel bundle tier; nil means the product's own
	// price at quantity 1.
	BundleIndex *int
	// IncludeOrderBump adds the funnel's order-bump offer when one is priced.
	IncludeOrderBump bool
}

// MinorUnits converts a major-unit monetary amount to the processor's integer
// minor units (cents), rounding half away from zero. Stripe rejects
// non-integer amounts, so this conversion is a hard contract at the processor
// boundary and must never be skipped.
func MinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// PriceLineItems computes the ordered line items for a purchase from product,
// funnel, and selection state.
//
// The primary item uses the selected bundle's unit price and quantity when the
// index resolves, otherwise the product's own price at quantity 1. A priced
// order bump appends a second item. Tracked stock must be strictly positive or
// no items are emitted at all.
func PriceLineItems(product *models.Product, funnel *models.Funnel, sel PurchaseSelection) ([]payments.LineItem, error) {
	if product == nil {
		return nil, fmt.Errorf("%w: product is required for pricing", ErrProductNotFound)
	}
	if product.TracksStock() && *product.Stock <= 0 {
		return nil, fmt.Errorf("%w: product '%s'", ErrOutOfStock, product.Name)
	}

	var items []payments.LineItem

	var bundle *models.Bundle
	if sel.BundleIndex != nil {
		bundle = funnel.BundleAt(*sel.BundleIndex)
	}
	if bundle != nil {
		items = append(items, payments.LineItem{
			Name:       fmt.Sprintf("%s — %s", product.Name, bundle.Label),
			UnitAmount: MinorUnits(bundle.UnitPrice),
			Quantity:   bundle.Qty,
		})
	} else {
		items = append(items, payments.LineItem{
			Name:       product.Name,
			UnitAmount: MinorUnits(product.Price),
			Quantity:   1,
		})
	}

	if sel.IncludeOrderBump && funnel.HasOrderBump() {
		title := funnel.OrderBump.Title
		if title == "" {
			title = defaultOrderBumpTitle
		}
		items = append(items, payments.LineItem{
			Name:       title,
			UnitAmount: MinorUnits(funnel.OrderBump.Price),
			Quantity:   1,
		})
	}

	return items, nil
}

// PrimaryQuantity returns the quantity of the primary line item for a
// selection, which reconciliation later uses as the stock decrement.
func PrimaryQuantity(funnel *models.Funnel, sel PurchaseSelection) int64 {
	if sel.BundleIndex != nil {
		if bundle := funnel.BundleAt(*sel.BundleIndex); bundle != nil {
			return bundle.Qty
		}
	}
	return 1
}

// DiscountFor translates a valid promo code into a processor discount
// descriptor. Callers decide validity first via PromoCode.ValidAt.
func DiscountFor(promo *models.PromoCode) *payments.Discount {
	if promo.Type == models.DiscountTypePercent {
		return &payments.Discount{PercentOff: promo.Value}
	}
	return &payments.Discount{AmountOff: MinorUnits(promo.Value)}
}

// ValidPromo reports whether the promo code may be applied right now.
func ValidPromo(promo *models.PromoCode) bool {
	return promo.ValidAt(time.Now().UTC())
}
