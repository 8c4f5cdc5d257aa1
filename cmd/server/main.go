package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"scalevo-backend-go/internal/api"
	"scalevo-backend-go/internal/cache"
	"scalevo-backend-go/internal/config"
	"scalevo-backend-go/internal/core"
	"scalevo-backend-go/internal/db"
	"scalevo-backend-go/internal/middleware"
	"scalevo-backend-go/internal/models"
	"scalevo-backend-go/internal/payments"
)

func main() {
	// A missing .env is fine; production injects real environment variables.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables.")
	}

	appConfig, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load application configuration: %v", err)
	}

	var zapLogger *zap.Logger
	if strings.ToLower(appConfig.GinMode) == "release" {
		zapLogger, err = zap.NewProduction()
	} else {
		zapLogger, err = zap.NewDevelopment()
	}
	if err != nil {
		log.Fatalf("Failed to initialize Zap logger: %v", err)
	}
	defer zapLogger.Sync()
	zapLogger.Info("Application configuration loaded.")

	initCtx, cancelInitCtx := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelInitCtx()
	if err := db.InitFirestore(initCtx, appConfig); err != nil {
		zapLogger.Fatal("Failed to initialize Firebase Admin SDK", zap.Error(err))
	}
	zapLogger.Info("Firebase Admin SDK (Firestore, Auth) initialized.")

	firestoreClient := db.GetFirestoreClient()
	if firestoreClient == nil {
		zapLogger.Fatal("Firestore client is nil after initialization.")
	}
	if db.GetFirebaseAuthClient() == nil {
		zapLogger.Fatal("Firebase Auth client is nil after initialization.")
	}

	// Repositories.
	storeRepo := db.NewFirestoreStoreRepository(firestoreClient)
	productRepo := db.NewFirestoreProductRepository(firestoreClient)
	funnelRepo := db.NewFirestoreFunnelRepository(firestoreClient)
	promoRepo := db.NewFirestorePromoCodeRepository(firestoreClient)
	orderRepo := db.NewFirestoreOrderRepository(firestoreClient)
	analyticsRepo := db.NewFirestoreAnalyticsRepository(firestoreClient)
	userRepo := db.NewFirestoreUserRepository(firestoreClient)
	subRepo := db.NewFirestoreSubscriptionRepository(firestoreClient)
	zapLogger.Info("Repositories initialized.")

	// Optional Redis cache for webhook deduplication.
	var dedupCache cache.Cache
	if appConfig.RedisAddress != "" {
		redisCache, err := cache.NewRedisCache(initCtx, cache.NewRedisCacheConfig{
			Address:  appConfig.RedisAddress,
			Password: appConfig.RedisPassword,
			DB:       appConfig.RedisDB,
		})
		if err != nil {
			zapLogger.Warn("Redis unavailable, webhook dedup falls back to Firestore only", zap.Error(err))
		} else {
			dedupCache = redisCache
			zapLogger.Info("Redis dedup cache connected", zap.String("address", appConfig.RedisAddress))
		}
	}

	// Core services.
	gateway := payments.NewStripeGateway()
	credentials := core.NewCredentialResolver(storeRepo, appConfig.StripeSecretKey)
	limiter := core.NewPlanLimiter(appConfig.PlanLimits())
	storeService := core.NewStoreService(storeRepo, subRepo, limiter)
	checkoutService := core.NewCheckoutService(
		credentials, productRepo, funnelRepo, promoRepo, userRepo, subRepo,
		gateway, appConfig.PlanPrices(), models.DefaultAddons(), zapLogger,
	)
	billingReconciler := core.NewBillingReconciler(
		userRepo, subRepo, gateway,
		appConfig.StripeWebhookBillingSecret, appConfig.AllowUnverifiedWebhooks, zapLogger,
	)
	orderReconciler := core.NewOrderReconciler(
		storeRepo, productRepo, promoRepo, orderRepo, analyticsRepo,
		gateway, dedupCache, appConfig.AllowUnverifiedWebhooks, zapLogger,
	)
	zapLogger.Info("Core services initialized.")

	if strings.ToLower(appConfig.GinMode) == "release" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}
	router := gin.New()

	// Order matters: requests are logged before recovery so panics still get
	// a request line.
	router.Use(middleware.RequestLogger(zapLogger))
	router.Use(middleware.RecoveryMiddleware(zapLogger))
	router.Use(middleware.CORSMiddleware(appConfig))

	api.SetupRoutes(router, zapLogger, storeService, checkoutService, billingReconciler, orderReconciler)

	serverAddr := fmt.Sprintf(":%s", appConfig.Port)
	httpServer := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	zapLogger.Info("Starting HTTP server...", zap.String("address", serverAddr), zap.String("ginMode", gin.Mode()))

	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	quitChannel := make(chan os.Signal, 1)
	signal.Notify(quitChannel, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quitChannel
	zapLogger.Info("Received shutdown signal", zap.String("signal", sig.String()))

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}

	if err := firestoreClient.Close(); err != nil {
		zapLogger.Error("Error closing Firestore client", zap.Error(err))
	}

	zapLogger.Info("Server exited.")
}
