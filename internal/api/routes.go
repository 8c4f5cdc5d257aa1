package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"scalevo-backend-go/internal/core"
	"scalevo-backend-go/internal/db"
	"scalevo-backend-go/internal/middleware"
)

// SetupRoutes configures all application routes. Global middleware (logging,
// recovery, CORS) is expected to be applied to the router before this is
// called, in main.go.
func SetupRoutes(
	router *gin.Engine,
	logger *zap.Logger,
	storeService core.StoreService,
	checkoutService core.CheckoutService,
	billingReconciler core.BillingReconciler,
	orderReconciler core.OrderReconciler,
) {
	firebaseAuthClient := db.GetFirebaseAuthClient()
	if firebaseAuthClient == nil {
		logger.Fatal("Firebase Auth client is not initialized; routes cannot be secured.")
	}
	authMW := middleware.NewAuthMiddleware(firebaseAuthClient)

	storeHandler := NewStoreHandler(storeService)
	billingHandler := NewBillingHandler(checkoutService)
	checkoutHandler := NewCheckoutHandler(checkoutService)
	webhookHandler := NewWebhookHandler(billingReconciler, orderReconciler)

	apiV1 := router.Group("/api/v1")
	{
		// Store management, dashboard only.
		storesGroup := apiV1.Group("/stores", authMW.VerifyToken())
		{
			storesGroup.POST("", storeHandler.CreateStore)
			storesGroup.GET("", storeHandler.ListStores)
			storesGroup.PUT("/:storeId", storeHandler.UpdateStore)
			storesGroup.DELETE("/:storeId", storeHandler.DeleteStore)
		}

		// SaaS subscription billing, dashboard only.
		billingGroup := apiV1.Group("/billing", authMW.VerifyToken())
		{
			billingGroup.POST("/create-checkout-session", billingHandler.CreateCheckoutSession)
			billingGroup.POST("/create-addon-checkout-session", billingHandler.CreateAddonCheckoutSession)
			billingGroup.POST("/create-portal-session", billingHandler.CreatePortalSession)
			billingGroup.GET("/subscription", billingHandler.GetSubscription)
		}

		// Public storefront checkout, called by shopper browsers.
		checkoutGroup := apiV1.Group("/checkout")
		{
			checkoutGroup.POST("/store", checkoutHandler.CreateStoreCheckout)
			checkoutGroup.POST("/upsell", checkoutHandler.CreateUpsellCheckout)
		}

		// Stripe webhook deliveries, authenticated by signature only.
		webhooksGroup := apiV1.Group("/webhooks")
		{
			webhooksGroup.POST("/billing", webhookHandler.HandleBillingWebhook)
			webhooksGroup.POST("/orders", webhookHandler.HandleOrderWebhook)
		}
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP"})
	})

	logger.Info("API routes configured under /api/v1 and /health.")
}
