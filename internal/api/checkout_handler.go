package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"scalevo-backend-go/internal/core"
	"scalevo-backend-go/internal/models"
)

// CheckoutHandler handles the public storefront checkout endpoints. These are
// called by shopper browsers, so no authentication middleware applies; the
// store's publication state and Stripe configuration gate access instead.
type CheckoutHandler struct {
	checkoutService core.CheckoutService
}

// NewCheckoutHandler creates a new CheckoutHandler.
func NewCheckoutHandler(cs core.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{checkoutService: cs}
}

// mapCheckoutErrorToStatus maps errors from core.CheckoutService storefront
// operations to HTTP status codes.
func mapCheckoutErrorToStatus(c *gin.Context, err error) {
	var statusCode int
	var errResponse ErrorResponse

	switch {
	case errors.Is(err, core.ErrStoreNotFound):
		statusCode = http.StatusNotFound
		errResponse = ErrorResponse{Error: "Store not found"}
	case errors.Is(err, core.ErrProductNotFound):
		statusCode = http.StatusNotFound
		errResponse = ErrorResponse{Error: "Product not found"}
	case errors.Is(err, core.ErrMissingStripeConfig):
		statusCode = http.StatusBadRequest
		errResponse = ErrorResponse{Error: "Store has no Stripe config"}
	case errors.Is(err, core.ErrOutOfStock):
		statusCode = http.StatusBadRequest
		errResponse = ErrorResponse{Error: "Product is out of stock"}
	case errors.Is(err, core.ErrNoUpsellConfigured):
		statusCode = http.StatusBadRequest
		errResponse = ErrorResponse{Error: "No upsell configured for this store"}
	case errors.Is(err, core.ErrStripeClient):
		statusCode = http.StatusServiceUnavailable
		errResponse = ErrorResponse{Error: "Payment provider error", Details: "Could not complete the operation with the payment provider."}
		log.Printf("Stripe Client Error: %v", err)
	default:
		log.Printf("Internal Server Error in CheckoutHandler: %v", err)
		statusCode = http.StatusInternalServerError
		errResponse = ErrorResponse{Error: "An unexpected internal server error occurred."}
	}
	c.JSON(statusCode, errResponse)
}

// CreateStoreCheckout handles POST /checkout/store
func (h *CheckoutHandler) CreateStoreCheckout(c *gin.Context) {
	var req models.CreateStoreCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	sessionID, err := h.checkoutService.CreateStoreCheckout(c.Request.Context(), req)
	if err != nil {
		mapCheckoutErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, CheckoutSessionResponse{SessionID: sessionID})
}

// CreateUpsellCheckout handles POST /checkout/upsell
func (h *CheckoutHandler) CreateUpsellCheckout(c *gin.Context) {
	var req models.CreateUpsellCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	sessionID, err := h.checkoutService.CreateUpsellCheckout(c.Request.Context(), req)
	if err != nil {
		mapCheckoutErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, CheckoutSessionResponse{SessionID: sessionID})
}
