package api

// ErrorResponse is a generic structure for returning errors via API.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// SuccessResponse is a generic structure for simple success messages.
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// CheckoutSessionResponse returns the id of a created checkout session. The
// frontend redirects to Stripe with it.
type CheckoutSessionResponse struct {
	SessionID string `json:"sessionId"`
}

// AddonCheckoutResponse returns the client secret of an embedded addon
// checkout session.
type AddonCheckoutResponse struct {
	ClientSecret string `json:"clientSecret"`
}

// PortalSessionResponse returns the URL of a billing portal session.
type PortalSessionResponse struct {
	URL string `json:"url"`
}

// WebhookAckResponse acknowledges a processed webhook delivery.
type WebhookAckResponse struct {
	Received bool `json:"received"`
}
