package models

import "time"

// Bundle is a funnel-defined alternate price/quantity tier for a product.
type Bundle struct {
	Label     string  `json:"label" firestore:"label"`
	UnitPrice float64 `json:"unitPrice" firestore:"unitPrice"`
	Qty       int64   `json:"qty" firestore:"qty"`
}

// Offer is an additional purchase proposal: an order bump shown alongside the
// primary checkout, or a post-purchase upsell checked out separately.
type Offer struct {
	Title string  `json:"title" firestore:"title"`
	Price float64 `json:"price" firestore:"price"`
}

// Funnel holds the optional sales-funnel configuration of a store. A store has
// zero or one active funnel; when historical data contains several documents
// the most recently created one wins.
type Funnel struct {
	ID        string    `json:"id" firestore:"-"` // Document ID, auto-generated
	Bundles   []Bundle  `json:"bundles,omitempty" firestore:"bundles"`
	OrderBump *Offer    `json:"orderBump,omitempty" firestore:"orderBump"`
	Upsell    *Offer    `json:"upsell,omitempty" firestore:"upsell"`
	CreatedAt time.Time `json:"createdAt" firestore:"createdAt,serverTimestamp"`
	UpdatedAt time.Time `json:"updatedAt" firestore:"updatedAt,serverTimestamp"`
}

// BundleAt returns the bundle at index, or nil when the index is out of range.
func (f *Funnel) BundleAt(index int) *Bundle {
	if f == nil || index < 0 || index >= len(f.Bundles) {
		return nil
	}
	return &f.Bundles[index]
}

// HasOrderBump reports whether the funnel defines a priced order bump.
func (f *Funnel) HasOrderBump() bool {
	return f != nil && f.OrderBump != nil && f.OrderBump.Price > 0
}

// HasUpsell reports whether the funnel defines a usable upsell offer.
func (f *Funnel) HasUpsell() bool {
	return f != nil && f.Upsell != nil && f.Upsell.Title != ""
}
