package models

// CreateStoreRequest represents the request body for creating a new store.
type CreateStoreRequest struct {
	Name        string `json:"name" binding:"required"`
	Slug        string `json:"slug" binding:"required"`
	Description string `json:"description,omitempty"`
	Currency    string `json:"currency,omitempty"`
}

// UpdateStoreRequest represents the request body for updating a store.
// Pointers distinguish "clear this field" from "field not provided". Only the
// fields listed here are mutable; anything else in the payload is rejected by
// binding against this schema rather than silently merged into the document.
type UpdateStoreRequest struct {
	Name                 *string `json:"name,omitempty"`
	Description          *string `json:"description,omitempty"`
	PrimaryColor         *string `json:"primaryColor,omitempty"`
	Published            *bool   `json:"published,omitempty"`
	StripePublishableKey *string `json:"stripePublishableKey,omitempty"`
	StripeSecretKey      *string `json:"stripeSecretKey,omitempty"`
	StripeWebhookSecret  *string `json:"stripeWebhookSecret,omitempty"`
}

// CreateSubscriptionCheckoutRequest starts a SaaS subscription checkout.
type CreateSubscriptionCheckoutRequest struct {
	Plan       string `json:"plan" binding:"required"`
	SuccessURL string `json:"successUrl" binding:"required"`
	CancelURL  string `json:"cancelUrl" binding:"required"`
}

// CreateAddonCheckoutRequest starts an embedded addon checkout. The session
// renders inside the caller's page, so only a return URL is needed.
type CreateAddonCheckoutRequest struct {
	AddonID   string `json:"addonId" binding:"required"`
	ReturnURL string `json:"returnUrl" binding:"required"`
}

// CreatePortalSessionRequest opens a billing-management session.
type CreatePortalSessionRequest struct {
	ReturnURL string `json:"returnUrl" binding:"required"`
}

// CreateStoreCheckoutRequest starts a public store purchase checkout.
type CreateStoreCheckoutRequest struct {
	StoreID          string `json:"storeId" binding:"required"`
	ProductID        string `json:"productId" binding:"required"`
	BundleIndex      *int   `json:"bundleIndex,omitempty"`
	IncludeOrderBump bool   `json:"includeOrderBump,omitempty"`
	PromoCode        string `json:"promoCode,omitempty"`
	SuccessURL       string `json:"successUrl" binding:"required"`
	CancelURL        string `json:"cancelUrl" binding:"required"`
}

// CreateUpsellCheckoutRequest starts a public post-purchase upsell checkout.
type CreateUpsellCheckoutRequest struct {
	StoreID    string `json:"storeId" binding:"required"`
	SuccessURL string `json:"successUrl" binding:"required"`
	CancelURL  string `json:"cancelUrl" binding:"required"`
}
