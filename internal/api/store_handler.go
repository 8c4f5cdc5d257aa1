package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"scalevo-backend-go/internal/core"
	"scalevo-backend-go/internal/models"
)

// StoreHandler handles API endpoints for store lifecycle operations.
type StoreHandler struct {
	storeService core.StoreService
}

// NewStoreHandler creates a new StoreHandler.
func NewStoreHandler(ss core.StoreService) *StoreHandler {
	return &StoreHandler{storeService: ss}
}

// mapStoreErrorToStatus maps errors from core.StoreService to HTTP status codes.
func mapStoreErrorToStatus(c *gin.Context, err error) {
	var statusCode int
	var errResponse ErrorResponse

	switch {
	case errors.Is(err, core.ErrStoreNotFound):
		statusCode = http.StatusNotFound
		errResponse = ErrorResponse{Error: "Store not found"}
	case errors.Is(err, core.ErrSlugTaken):
		statusCode = http.StatusBadRequest
		errResponse = ErrorResponse{Error: "Slug is already taken", Details: err.Error()}
	case errors.Is(err, core.ErrStoreLimitReached):
		statusCode = http.StatusForbidden
		errResponse = ErrorResponse{Error: "Store limit reached for current plan", Details: err.Error()}
	default:
		log.Printf("Internal Server Error in StoreHandler: %v", err)
		statusCode = http.StatusInternalServerError
		errResponse = ErrorResponse{Error: "An unexpected internal server error occurred."}
	}
	c.JSON(statusCode, errResponse)
}

// CreateStore handles POST /stores
func (h *StoreHandler) CreateStore(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User ID not found in context"})
		return
	}

	var req models.CreateStoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	store, err := h.storeService.CreateStore(c.Request.Context(), userID.(string), req)
	if err != nil {
		mapStoreErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusCreated, store)
}

// ListStores handles GET /stores
func (h *StoreHandler) ListStores(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User ID not found in context"})
		return
	}

	stores, err := h.storeService.ListStores(c.Request.Context(), userID.(string))
	if err != nil {
		mapStoreErrorToStatus(c, err)
		return
	}
	if stores == nil {
		stores = []*models.Store{}
	}
	c.JSON(http.StatusOK, stores)
}

// UpdateStore handles PUT /stores/:storeId
func (h *StoreHandler) UpdateStore(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User ID not found in context"})
		return
	}
	storeID := c.Param("storeId")
	if storeID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Store ID is required"})
		return
	}

	var req models.UpdateStoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	store, err := h.storeService.UpdateStore(c.Request.Context(), userID.(string), storeID, req)
	if err != nil {
		mapStoreErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, store)
}

// DeleteStore handles DELETE /stores/:storeId
func (h *StoreHandler) DeleteStore(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User ID not found in context"})
		return
	}
	storeID := c.Param("storeId")
	if storeID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Store ID is required"})
		return
	}

	if err := h.storeService.DeleteStore(c.Request.Context(), userID.(string), storeID); err != nil {
		mapStoreErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Store deleted successfully"})
}
