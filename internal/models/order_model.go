package models

import "time"

// Transaction kinds carried in checkout-session metadata and recorded on orders.
const (
	TransactionTypeStoreCheckout = "store_checkout"
	TransactionTypeUpsell        = "upsell"
)

// Order is the durable record of a completed store payment. Orders are
// append-only: the only field ever touched after creation is the
// inventoryShortfall flag set by reconciliation when a stock decrement would
// have gone below zero.
type Order struct {
	ID                 string    `json:"id" firestore:"-"` // Document ID, auto-generated
	SessionID          string    `json:"sessionId" firestore:"sessionId"` // Stripe checkout session id, dedup key
	CustomerEmail      string    `json:"customerEmail" firestore:"customerEmail"`
	CustomerName       string    `json:"customerName" firestore:"customerName"`
	Amount             float64   `json:"amount" firestore:"amount"` // major units
	Currency           string    `json:"currency" firestore:"currency"`
	Status             string    `json:"status" firestore:"status"` // always "paid" on creation
	Type               string    `json:"type" firestore:"type"`     // store_checkout or upsell
	ProductID          string    `json:"productId,omitempty" firestore:"productId"`
	PromoCodeID        string    `json:"promoCodeId,omitempty" firestore:"promoCodeId"`
	Quantity           int64     `json:"quantity" firestore:"quantity"`
	InventoryShortfall bool      `json:"inventoryShortfall,omitempty" firestore:"inventoryShortfall"`
	CreatedAt          time.Time `json:"createdAt" firestore:"createdAt,serverTimestamp"`
}
