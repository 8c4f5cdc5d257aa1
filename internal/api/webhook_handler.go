package api

import (
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"scalevo-backend-go/internal/core"
)

// Largest webhook body accepted. Real Stripe events are far smaller; anything
// bigger is rejected outright rather than truncated, since a truncated body
// could never pass signature verification and would be retried forever.
const maxWebhookBodyBytes = 1 << 20

// WebhookHandler receives Stripe webhook deliveries. These routes carry no
// auth middleware; the event signature is the authentication.
type WebhookHandler struct {
	billingReconciler core.BillingReconciler
	orderReconciler   core.OrderReconciler
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(br core.BillingReconciler, or core.OrderReconciler) *WebhookHandler {
	return &WebhookHandler{billingReconciler: br, orderReconciler: or}
}

// mapWebhookErrorToStatus maps reconciler errors to HTTP status codes. Stripe
// retries non-2xx responses, so only genuinely retryable failures should map
// to 5xx.
func mapWebhookErrorToStatus(c *gin.Context, err error) {
	var statusCode int
	var errResponse ErrorResponse

	switch {
	case errors.Is(err, core.ErrWebhookSignature):
		statusCode = http.StatusBadRequest
		errResponse = ErrorResponse{Error: "Webhook signature verification failed"}
	case errors.Is(err, core.ErrStoreNotFound):
		statusCode = http.StatusNotFound
		errResponse = ErrorResponse{Error: "Store not found"}
	case errors.Is(err, core.ErrMissingStripeConfig):
		statusCode = http.StatusBadRequest
		errResponse = ErrorResponse{Error: "Store has no Stripe config"}
	default:
		log.Printf("Internal Server Error in WebhookHandler: %v", err)
		statusCode = http.StatusInternalServerError
		errResponse = ErrorResponse{Error: "An unexpected internal server error occurred."}
	}
	c.JSON(statusCode, errResponse)
}

// readBody reads the raw request body. The signature covers the exact bytes
// sent, so the body must not go through JSON binding first.
func readBody(c *gin.Context) ([]byte, bool) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBodyBytes+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Failed to read request body"})
		return nil, false
	}
	if len(payload) > maxWebhookBodyBytes {
		c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: "Request body too large"})
		return nil, false
	}
	return payload, true
}

// HandleBillingWebhook handles POST /webhooks/billing
func (h *WebhookHandler) HandleBillingWebhook(c *gin.Context) {
	payload, ok := readBody(c)
	if !ok {
		return
	}
	signature := c.GetHeader("Stripe-Signature")

	if err := h.billingReconciler.HandleEvent(c.Request.Context(), signature, payload); err != nil {
		mapWebhookErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, WebhookAckResponse{Received: true})
}

// HandleOrderWebhook handles POST /webhooks/orders?storeId=xxx
func (h *WebhookHandler) HandleOrderWebhook(c *gin.Context) {
	storeID := c.Query("storeId")
	if storeID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Missing storeId"})
		return
	}

	payload, ok := readBody(c)
	if !ok {
		return
	}
	signature := c.GetHeader("Stripe-Signature")

	if err := h.orderReconciler.HandleEvent(c.Request.Context(), storeID, signature, payload); err != nil {
		mapWebhookErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, WebhookAckResponse{Received: true})
}
