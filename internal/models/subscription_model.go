package models

import "time"

// Subscription plan tiers.
const (
	PlanFree    = "free"
	PlanStarter = "starter"
	PlanPro     = "pro"
	PlanScale   = "scale"
)

// Subscription statuses written by the billing reconciler. Statuses other than
// these mirror whatever Stripe reported (past_due, unpaid, ...).
const (
	SubscriptionStatusActive    = "active"
	SubscriptionStatusCancelled = "cancelled"
)

// Subscription is the per-platform-user SaaS subscription record. The document
// ID is the Firebase Auth UID; state only transitions via the billing
// reconciler consuming Stripe events.
type Subscription struct {
	UserID               string    `json:"userId" firestore:"-"` // Document ID
	Plan                 string    `json:"plan" firestore:"plan"`
	Status               string    `json:"status" firestore:"status"`
	StripeSubscriptionID string    `json:"stripeSubscriptionId,omitempty" firestore:"stripeSubscriptionId"`
	StripeCustomerID     string    `json:"stripeCustomerId,omitempty" firestore:"stripeCustomerId"`
	UpdatedAt            time.Time `json:"updatedAt" firestore:"updatedAt,serverTimestamp"`
}

// User is a platform account. StripeCustomerID is created lazily on the first
// billing interaction and cached; it is never recreated once set.
type User struct {
	ID               string    `json:"id" firestore:"-"` // Firebase Auth UID, document ID
	Email            string    `json:"email" firestore:"email"`
	DisplayName      string    `json:"displayName,omitempty" firestore:"displayName"`
	StripeCustomerID string    `json:"stripeCustomerId,omitempty" firestore:"stripeCustomerId"`
	CreatedAt        time.Time `json:"createdAt" firestore:"createdAt,serverTimestamp"`
	UpdatedAt        time.Time `json:"updatedAt" firestore:"updatedAt,serverTimestamp"`
}
