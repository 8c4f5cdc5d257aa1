package payments

import (
	"context"
	"time"
)

// Checkout modes understood by the processor boundary.
const (
	ModePayment      = "payment"
	ModeSubscription = "subscription"
)

// Stripe event types the reconcilers act on.
const (
	EventCheckoutCompleted   = "checkout.session.completed"
	EventSubscriptionUpdated = "customer.subscription.updated"
	EventSubscriptionDeleted = "customer.subscription.deleted"
)

// LineItem is one priced, quantified unit within a checkout request.
// UnitAmount is in minor currency units, as the processor requires.
type LineItem struct {
	Name       string
	UnitAmount int64
	Quantity   int64
}

// Discount describes a one-time promotion applied to a checkout. Exactly one
// of PercentOff or AmountOff is set; AmountOff is in minor units.
type Discount struct {
	PercentOff float64
	AmountOff  int64
}

// UIModeEmbedded renders the checkout inside the caller's own page. Embedded
// sessions use ReturnURL and hand back a client secret instead of a redirect.
const UIModeEmbedded = "embedded"

// CheckoutParams is a processor-agnostic checkout session request.
type CheckoutParams struct {
	Mode       string // ModePayment or ModeSubscription
	Currency   string // lower-case ISO code
	CustomerID string // optional, subscription checkouts only
	PriceID    string // optional, references a pre-configured recurring price
	LineItems  []LineItem
	Discount   *Discount
	UIMode     string // empty for hosted, UIModeEmbedded for embedded flows
	SuccessURL string
	CancelURL  string
	ReturnURL  string // embedded flows only, replaces SuccessURL/CancelURL

	// Metadata is the sole channel by which the later webhook learns what to
	// do; it must carry everything reconciliation needs.
	Metadata map[string]string
}

// Session is the opaque reference returned to callers. It never carries
// processor secret credentials. ClientSecret is only set for embedded
// sessions.
type Session struct {
	ID           string
	URL          string
	ClientSecret string
}

// CheckoutCompleted is the parsed payload of a checkout.session.completed event.
type CheckoutCompleted struct {
	SessionID      string
	Mode           string
	Metadata       map[string]string
	AmountTotal    int64 // minor units
	Currency       string
	CustomerEmail  string
	CustomerName   string
	SubscriptionID string
	CustomerID     string
}

// SubscriptionChange is the parsed payload of a customer.subscription.updated
// or customer.subscription.deleted event.
type SubscriptionChange struct {
	CustomerID string
	Status     string
}

// Event is a verified (or, in dev fallback, merely parsed) webhook event.
// Exactly one payload field matching Type is non-nil. Created is the
// processor's event timestamp, not the delivery time; retries carry the
// original value.
type Event struct {
	Type         string
	Created      time.Time
	Checkout     *CheckoutCompleted
	Subscription *SubscriptionChange
}

// Gateway abstracts the payment processor. The secretKey parameter selects the
// tenant identity: the platform's own key for SaaS billing, a store's key for
// storefront purchases.
type Gateway interface {
	CreateCustomer(ctx context.Context, secretKey, email string, metadata map[string]string) (string, error)
	CreateCheckoutSession(ctx context.Context, secretKey string, params *CheckoutParams) (*Session, error)
	CreatePortalSession(ctx context.Context, secretKey, customerID, returnURL string) (string, error)
	// CreateCoupon materializes a one-time discount and returns its id.
	CreateCoupon(ctx context.Context, secretKey, currency string, discount *Discount) (string, error)
	// EnsureAddonPrice finds or creates the Stripe product and price backing a
	// platform addon and returns the price id. UnitAmount is in minor units.
	EnsureAddonPrice(ctx context.Context, secretKey, addonID, name string, unitAmount int64, recurring bool) (string, error)
	// VerifyEvent checks the webhook signature against the signing secret and
	// returns the parsed event. It must fail, and callers must not process the
	// body, when verification is inconclusive.
	VerifyEvent(payload []byte, signature, webhookSecret string) (*Event, error)
	// ParseEvent decodes an event without verification. Dev/test fallback
	// only; production callers go through VerifyEvent.
	ParseEvent(payload []byte) (*Event, error)
}
