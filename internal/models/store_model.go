package models

import "time"

// Store represents one tenant storefront. Each store carries its own Stripe
// credential pair; sales revenue settles directly on the owner's Stripe account.
type Store struct {
	ID           string `json:"id" firestore:"-"` // Document ID, auto-generated
	OwnerID      string `json:"ownerId" firestore:"ownerId"` // Firebase Auth UID of the owner
	Name         string `json:"name" firestore:"name"`
	Slug         string `json:"slug" firestore:"slug"`
	Description  string `json:"description,omitempty" firestore:"description"`
	Currency     string `json:"currency" firestore:"currency"` // ISO code, e.g. "EUR"
	PrimaryColor string `json:"primaryColor,omitempty" firestore:"primaryColor"`
	Published    bool   `json:"published" firestore:"published"`

	StripePublishableKey string `json:"stripePublishableKey,omitempty" firestore:"stripePublishableKey"`
	StripeSecretKey      string `json:"-" firestore:"stripeSecretKey"` // never serialized to API responses
	StripeWebhookSecret  string `json:"-" firestore:"stripeWebhookSecret"`

	ProductCount int64     `json:"productCount" firestore:"productCount"`
	CreatedAt    time.Time `json:"createdAt" firestore:"createdAt,serverTimestamp"`
	UpdatedAt    time.Time `json:"updatedAt" firestore:"updatedAt,serverTimestamp"`
}

// HasStripeConfig reports whether the store can accept payments.
func (s *Store) HasStripeConfig() bool {
	return s.StripeSecretKey != ""
}

// Slug is a reservation record mapping a human-readable identifier to a store.
// The slug string itself is the document ID, which makes uniqueness a document
// existence question.
type Slug struct {
	Slug      string    `json:"slug" firestore:"-"` // Document ID
	StoreID   string    `json:"storeId" firestore:"storeId"`
	OwnerID   string    `json:"ownerId" firestore:"ownerId"`
	CreatedAt time.Time `json:"createdAt" firestore:"createdAt,serverTimestamp"`
}
