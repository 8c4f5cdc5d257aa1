package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"scalevo-backend-go/internal/core"
	"scalevo-backend-go/internal/models"
)

// BillingHandler handles the authenticated SaaS billing endpoints.
type BillingHandler struct {
	checkoutService core.CheckoutService
}

// NewBillingHandler creates a new BillingHandler.
func NewBillingHandler(cs core.CheckoutService) *BillingHandler {
	return &BillingHandler{checkoutService: cs}
}

// mapBillingErrorToStatus maps errors from core.CheckoutService billing
// operations to HTTP status codes.
func mapBillingErrorToStatus(c *gin.Context, err error) {
	var statusCode int
	var errResponse ErrorResponse

	switch {
	case errors.Is(err, core.ErrInvalidPlan):
		statusCode = http.StatusBadRequest
		errResponse = ErrorResponse{Error: "Unknown subscription plan", Details: err.Error()}
	case errors.Is(err, core.ErrUnknownAddon):
		statusCode = http.StatusBadRequest
		errResponse = ErrorResponse{Error: "Unknown addon", Details: err.Error()}
	case errors.Is(err, core.ErrUserNotFound):
		statusCode = http.StatusNotFound
		errResponse = ErrorResponse{Error: "User not found", Details: err.Error()}
	case errors.Is(err, core.ErrMissingStripeConfig):
		statusCode = http.StatusBadRequest
		errResponse = ErrorResponse{Error: "Billing is not configured for this account", Details: err.Error()}
	case errors.Is(err, core.ErrStripeClient):
		statusCode = http.StatusServiceUnavailable
		errResponse = ErrorResponse{Error: "Payment provider error", Details: "Could not complete the operation with the payment provider."}
		log.Printf("Stripe Client Error: %v", err)
	default:
		log.Printf("Internal Server Error in BillingHandler: %v", err)
		statusCode = http.StatusInternalServerError
		errResponse = ErrorResponse{Error: "An unexpected internal server error occurred."}
	}
	c.JSON(statusCode, errResponse)
}

// CreateCheckoutSession handles POST /billing/create-checkout-session
func (h *BillingHandler) CreateCheckoutSession(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User ID not found in context"})
		return
	}
	email := c.GetString("userEmail")

	var req models.CreateSubscriptionCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	sessionID, err := h.checkoutService.CreateSubscriptionCheckout(c.Request.Context(), userID.(string), email, req)
	if err != nil {
		mapBillingErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, CheckoutSessionResponse{SessionID: sessionID})
}

// CreateAddonCheckoutSession handles POST /billing/create-addon-checkout-session
func (h *BillingHandler) CreateAddonCheckoutSession(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User ID not found in context"})
		return
	}
	email := c.GetString("userEmail")

	var req models.CreateAddonCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	session, err := h.checkoutService.CreateAddonCheckout(c.Request.Context(), userID.(string), email, req)
	if err != nil {
		mapBillingErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, AddonCheckoutResponse{ClientSecret: session.ClientSecret})
}

// CreatePortalSession handles POST /billing/create-portal-session
func (h *BillingHandler) CreatePortalSession(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User ID not found in context"})
		return
	}

	var req models.CreatePortalSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	portalURL, err := h.checkoutService.CreatePortalSession(c.Request.Context(), userID.(string), req.ReturnURL)
	if err != nil {
		mapBillingErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, PortalSessionResponse{URL: portalURL})
}

// GetSubscription handles GET /billing/subscription
func (h *BillingHandler) GetSubscription(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User ID not found in context"})
		return
	}

	sub, err := h.checkoutService.GetSubscription(c.Request.Context(), userID.(string))
	if err != nil {
		mapBillingErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, sub)
}
