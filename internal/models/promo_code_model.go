package models

import "time"

// Discount types for promo codes.
const (
	DiscountTypePercent = "percent"
	DiscountTypeAmount  = "amount"
)

// PromoCode belongs to a store. Value is a percentage for type "percent" and a
// major-unit amount for type "amount". UsageCount only ever moves via atomic
// increments during order reconciliation.
type PromoCode struct {
	ID         string     `json:"id" firestore:"-"` // Document ID, auto-generated
	Code       string     `json:"code" firestore:"code"`
	Active     bool       `json:"active" firestore:"active"`
	Type       string     `json:"type" firestore:"type"` // "percent" or "amount"
	Value      float64    `json:"value" firestore:"value"`
	ExpiresAt  *time.Time `json:"expiresAt,omitempty" firestore:"expiresAt"`
	MaxUse     *int64     `json:"maxUse,omitempty" firestore:"maxUse"`
	UsageCount int64      `json:"usageCount" firestore:"usageCount"`
	CreatedAt  time.Time  `json:"createdAt" firestore:"createdAt,serverTimestamp"`
}

// ValidAt reports whether the code may be applied at the given instant:
// active, not expired, and below its max-use count when one is set.
func (p *PromoCode) ValidAt(now time.Time) bool {
	if p == nil || !p.Active {
		return false
	}
	if p.ExpiresAt != nil && p.ExpiresAt.Before(now) {
		return false
	}
	if p.MaxUse != nil && p.UsageCount >= *p.MaxUse {
		return false
	}
	return true
}
