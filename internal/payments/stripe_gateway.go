package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	stripe "github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/client"
	"github.com/stripe/stripe-go/v83/webhook"
)

// ErrSignature is returned when webhook signature verification fails.
var ErrSignature = errors.New("webhook signature verification failed")

// stripeGateway implements Gateway against the Stripe API. Because every store
// is a separate Stripe account, API clients are constructed per secret key and
// cached; the cache is read-only after each construction and safe to share
// across requests.
type stripeGateway struct {
	mu      sync.RWMutex
	clients map[string]*client.API
}

// NewStripeGateway creates a Stripe-backed payment gateway.
func NewStripeGateway() Gateway {
	return &stripeGateway{clients: make(map[string]*client.API)}
}

// clientFor returns the cached API client for a secret key, constructing it on
// first use.
func (g *stripeGateway) clientFor(secretKey string) *client.API {
	g.mu.RLock()
	sc, ok := g.clients[secretKey]
	g.mu.RUnlock()
	if ok {
		return sc
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if sc, ok = g.clients[secretKey]; ok {
		return sc
	}
	sc = client.New(secretKey, nil)
	g.clients[secretKey] = sc
	return sc
}

// CreateCustomer creates a Stripe customer and returns its id.
func (g *stripeGateway) CreateCustomer(ctx context.Context, secretKey, email string, metadata map[string]string) (string, error) {
	params := &stripe.CustomerParams{}
	params.Context = ctx
	if email != "" {
		params.Email = stripe.String(email)
	}
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	cust, err := g.clientFor(secretKey).Customers.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe customer creation failed: %w", err)
	}
	return cust.ID, nil
}

// CreateCheckoutSession creates a checkout session for the given tenant key.
func (g *stripeGateway) CreateCheckoutSession(ctx context.Context, secretKey string, p *CheckoutParams) (*Session, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(p.Mode),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
	}
	params.Context = ctx

	// Embedded sessions take a return URL; Stripe rejects success/cancel
	// URLs in that mode.
	if p.UIMode == UIModeEmbedded {
		params.UIMode = stripe.String(UIModeEmbedded)
		params.ReturnURL = stripe.String(p.ReturnURL)
	} else {
		params.SuccessURL = stripe.String(p.SuccessURL)
		params.CancelURL = stripe.String(p.CancelURL)
	}

	if p.CustomerID != "" {
		params.Customer = stripe.String(p.CustomerID)
	}

	if p.PriceID != "" {
		params.LineItems = []*stripe.CheckoutSessionLineItemParams{{
			Price:    stripe.String(p.PriceID),
			Quantity: stripe.Int64(1),
		}}
	} else {
		currency := strings.ToLower(p.Currency)
		for _, item := range p.LineItems {
			params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(currency),
					UnitAmount: stripe.Int64(item.UnitAmount),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(item.Name),
					},
				},
				Quantity: stripe.Int64(item.Quantity),
			})
		}
	}

	if p.Discount != nil {
		couponID, err := g.CreateCoupon(ctx, secretKey, p.Currency, p.Discount)
		if err != nil {
			return nil, err
		}
		params.Discounts = []*stripe.CheckoutSessionDiscountParams{{Coupon: stripe.String(couponID)}}
	}

	for k, v := range p.Metadata {
		params.AddMetadata(k, v)
	}

	sess, err := g.clientFor(secretKey).CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe checkout session creation failed: %w", err)
	}
	return &Session{ID: sess.ID, URL: sess.URL, ClientSecret: sess.ClientSecret}, nil
}

// CreatePortalSession opens a Stripe Billing Portal session for the customer.
func (g *stripeGateway) CreatePortalSession(ctx context.Context, secretKey, customerID, returnURL string) (string, error) {
	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(returnURL),
	}
	params.Context = ctx

	sess, err := g.clientFor(secretKey).BillingPortalSessions.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe billing portal session creation failed: %w", err)
	}
	return sess.URL, nil
}

// CreateCoupon creates a one-time coupon from a discount descriptor.
func (g *stripeGateway) CreateCoupon(ctx context.Context, secretKey, currency string, d *Discount) (string, error) {
	params := &stripe.CouponParams{
		Duration: stripe.String(string(stripe.CouponDurationOnce)),
	}
	params.Context = ctx
	if d.PercentOff > 0 {
		params.PercentOff = stripe.Float64(d.PercentOff)
	} else {
		params.AmountOff = stripe.Int64(d.AmountOff)
		params.Currency = stripe.String(strings.ToLower(currency))
	}

	coupon, err := g.clientFor(secretKey).Coupons.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe coupon creation failed: %w", err)
	}
	return coupon.ID, nil
}

// EnsureAddonPrice finds or creates the Stripe product and price for a
// platform addon, keyed by an addonId metadata tag on the product, and
// returns the matching price id.
func (g *stripeGateway) EnsureAddonPrice(ctx context.Context, secretKey, addonID, name string, unitAmount int64, recurring bool) (string, error) {
	sc := g.clientFor(secretKey)

	var productID string
	searchParams := &stripe.ProductSearchParams{
		SearchParams: stripe.SearchParams{
			Query:   fmt.Sprintf(`metadata["addonId"]:"%s"`, addonID),
			Context: ctx,
		},
	}
	searchIter := sc.Products.Search(searchParams)
	if searchIter.Next() {
		productID = searchIter.Product().ID
	}
	if err := searchIter.Err(); err != nil {
		return "", fmt.Errorf("stripe product search failed for addon '%s': %w", addonID, err)
	}

	if productID == "" {
		productParams := &stripe.ProductParams{Name: stripe.String(name)}
		productParams.Context = ctx
		productParams.AddMetadata("addonId", addonID)
		prod, err := sc.Products.New(productParams)
		if err != nil {
			return "", fmt.Errorf("stripe product creation failed for addon '%s': %w", addonID, err)
		}
		productID = prod.ID
	}

	wantType := stripe.PriceTypeOneTime
	if recurring {
		wantType = stripe.PriceTypeRecurring
	}

	listParams := &stripe.PriceListParams{
		Product: stripe.String(productID),
		Active:  stripe.Bool(true),
	}
	listParams.Context = ctx
	listParams.Limit = stripe.Int64(10)
	priceIter := sc.Prices.List(listParams)
	for priceIter.Next() {
		price := priceIter.Price()
		if price.UnitAmount == unitAmount && price.Currency == stripe.CurrencyEUR && price.Type == wantType {
			return price.ID, nil
		}
	}
	if err := priceIter.Err(); err != nil {
		return "", fmt.Errorf("stripe price listing failed for addon '%s': %w", addonID, err)
	}

	priceParams := &stripe.PriceParams{
		Product:    stripe.String(productID),
		UnitAmount: stripe.Int64(unitAmount),
		Currency:   stripe.String(string(stripe.CurrencyEUR)),
	}
	priceParams.Context = ctx
	if recurring {
		priceParams.Recurring = &stripe.PriceRecurringParams{
			Interval: stripe.String(string(stripe.PriceRecurringIntervalMonth)),
		}
	}
	price, err := sc.Prices.New(priceParams)
	if err != nil {
		return "", fmt.Errorf("stripe price creation failed for addon '%s': %w", addonID, err)
	}
	return price.ID, nil
}

// VerifyEvent validates the Stripe-Signature header against the signing secret
// and returns the parsed event. A failed or inconclusive verification returns
// ErrSignature and no event.
func (g *stripeGateway) VerifyEvent(payload []byte, signature, webhookSecret string) (*Event, error) {
	event, err := webhook.ConstructEvent(payload, signature, webhookSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSignature, err)
	}
	return mapEvent(string(event.Type), event.Created, event.Data.Raw)
}

// ParseEvent decodes an event envelope without signature verification.
// Dev/test fallback only.
func (g *stripeGateway) ParseEvent(payload []byte) (*Event, error) {
	var envelope struct {
		Type    string `json:"type"`
		Created int64  `json:"created"`
		Data    struct {
			Raw json.RawMessage `json:"object"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return nil, fmt.Errorf("failed to parse webhook payload: %w", err)
	}
	return mapEvent(envelope.Type, envelope.Created, envelope.Data.Raw)
}

// mapEvent translates a raw Stripe event payload into the processor-agnostic
// Event consumed by the reconcilers. Event types outside the reconcilers'
// interest map to an Event with only Type set.
func mapEvent(eventType string, created int64, raw json.RawMessage) (*Event, error) {
	out := &Event{Type: eventType}
	if created > 0 {
		out.Created = time.Unix(created, 0).UTC()
	}

	switch eventType {
	case EventCheckoutCompleted:
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(raw, &sess); err != nil {
			return nil, fmt.Errorf("failed to decode checkout session payload: %w", err)
		}
		checkout := &CheckoutCompleted{
			SessionID:   sess.ID,
			Mode:        string(sess.Mode),
			Metadata:    sess.Metadata,
			AmountTotal: sess.AmountTotal,
			Currency:    string(sess.Currency),
		}
		if sess.CustomerDetails != nil {
			checkout.CustomerEmail = sess.CustomerDetails.Email
			checkout.CustomerName = sess.CustomerDetails.Name
		}
		if sess.Subscription != nil {
			checkout.SubscriptionID = sess.Subscription.ID
		}
		if sess.Customer != nil {
			checkout.CustomerID = sess.Customer.ID
		}
		out.Checkout = checkout

	case EventSubscriptionUpdated, EventSubscriptionDeleted:
		var sub stripe.Subscription
		if err := json.Unmarshal(raw, &sub); err != nil {
			return nil, fmt.Errorf("failed to decode subscription payload: %w", err)
		}
		change := &SubscriptionChange{Status: string(sub.Status)}
		if sub.Customer != nil {
			change.CustomerID = sub.Customer.ID
		}
		out.Subscription = change
	}

	return out, nil
}
