package core

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"scalevo-backend-go/internal/db"
	"scalevo-backend-go/internal/models"
	"scalevo-backend-go/internal/payments"
)

// Metadata keys attached to checkout sessions. The webhook reconcilers act on
// these without re-querying mutable state, so losing them is unrecoverable for
// that transaction.
const (
	metaStoreID      = "storeId"
	metaProductID    = "productId"
	metaStoreOwnerID = "storeOwnerId"
	metaType         = "type"
	metaPromoCodeID  = "promoCodeId"
	metaPromoCode    = "promoCode"
	metaQuantity     = "quantity"
	metaFirebaseUID  = "firebaseUID"
	metaPlan         = "plan"
	metaAddonID      = "addonId"
)

// checkoutService implements the CheckoutService interface.
type checkoutService struct {
	credentials *CredentialResolver
	productRepo db.ProductRepository
	funnelRepo  db.FunnelRepository
	promoRepo   db.PromoCodeRepository
	userRepo    db.UserRepository
	subRepo     db.SubscriptionRepository
	gateway     payments.Gateway
	planPrices  map[string]string
	addons      map[string]models.Addon
	logger      *zap.Logger
}

// NewCheckoutService creates a new CheckoutService instance.
func NewCheckoutService(
	credentials *CredentialResolver,
	productRepo db.ProductRepository,
	funnelRepo db.FunnelRepository,
	promoRepo db.PromoCodeRepository,
	userRepo db.UserRepository,
	subRepo db.SubscriptionRepository,
	gateway payments.Gateway,
	planPrices map[string]string,
	addons map[string]models.Addon,
	logger *zap.Logger,
) CheckoutService {
	return &checkoutService{
		credentials: credentials,
		productRepo: productRepo,
		funnelRepo:  funnelRepo,
		promoRepo:   promoRepo,
		userRepo:    userRepo,
		subRepo:     subRepo,
		gateway:     gateway,
		planPrices:  planPrices,
		addons:      addons,
		logger:      logger,
	}
}

// CreateSubscriptionCheckout starts a SaaS subscription checkout on the
// platform's Stripe identity.
func (s *checkoutService) CreateSubscriptionCheckout(ctx context.Context, userID, email string, req models.CreateSubscriptionCheckoutRequest) (string, error) {
	priceID, ok := s.planPrices[req.Plan]
	if !ok || priceID == "" {
		return "", fmt.Errorf("%w: '%s'", ErrInvalidPlan, req.Plan)
	}

	secretKey, err := s.credentials.Platform()
	if err != nil {
		return "", err
	}

	customerID, err := s.getOrCreateStripeCustomer(ctx, secretKey, userID, email)
	if err != nil {
		return "", err
	}

	session, err := s.gateway.CreateCheckoutSession(ctx, secretKey, &payments.CheckoutParams{
		Mode:       payments.ModeSubscription,
		CustomerID: customerID,
		PriceID:    priceID,
		SuccessURL: req.SuccessURL,
		CancelURL:  req.CancelURL,
		Metadata: map[string]string{
			metaFirebaseUID: userID,
			metaPlan:        req.Plan,
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrStripeClient, err)
	}
	return session.ID, nil
}

// CreateAddonCheckout starts an embedded checkout for a platform addon. The
// backing Stripe product and price are found or created on demand, keyed by
// the addon id.
func (s *checkoutService) CreateAddonCheckout(ctx context.Context, userID, email string, req models.CreateAddonCheckoutRequest) (*payments.Session, error) {
	addon, ok := s.addons[req.AddonID]
	if !ok {
		return nil, fmt.Errorf("%w: '%s'", ErrUnknownAddon, req.AddonID)
	}

	secretKey, err := s.credentials.Platform()
	if err != nil {
		return nil, err
	}

	customerID, err := s.getOrCreateStripeCustomer(ctx, secretKey, userID, email)
	if err != nil {
		return nil, err
	}

	priceID, err := s.gateway.EnsureAddonPrice(ctx, secretKey, req.AddonID, addon.Name, addon.Price, addon.Recurring)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStripeClient, err)
	}

	mode := payments.ModePayment
	if addon.Recurring {
		mode = payments.ModeSubscription
	}

	session, err := s.gateway.CreateCheckoutSession(ctx, secretKey, &payments.CheckoutParams{
		Mode:       mode,
		CustomerID: customerID,
		PriceID:    priceID,
		UIMode:     payments.UIModeEmbedded,
		ReturnURL:  req.ReturnURL + "&session_id={CHECKOUT_SESSION_ID}",
		Metadata: map[string]string{
			metaFirebaseUID: userID,
			metaAddonID:     req.AddonID,
			metaType:        models.TransactionTypeAddon,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStripeClient, err)
	}
	return session, nil
}

// getOrCreateStripeCustomer returns the user's cached Stripe customer id,
// creating and persisting one on the first billing interaction. The persist
// must complete before any session is created: a created-but-unsaved customer
// id would make a later purchase create a duplicate customer.
func (s *checkoutService) getOrCreateStripeCustomer(ctx context.Context, secretKey, userID, email string) (string, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		return "", fmt.Errorf("failed to load user '%s': %w", userID, err)
	}
	if user != nil && user.StripeCustomerID != "" {
		return user.StripeCustomerID, nil
	}

	customerID, err := s.gateway.CreateCustomer(ctx, secretKey, email, map[string]string{metaFirebaseUID: userID})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrStripeClient, err)
	}
	if err := s.userRepo.SetStripeCustomerID(ctx, userID, customerID); err != nil {
		return "", fmt.Errorf("failed to persist stripe customer id for user '%s': %w", userID, err)
	}
	return customerID, nil
}

// CreatePortalSession opens a billing-management session for the user.
func (s *checkoutService) CreatePortalSession(ctx context.Context, userID, returnURL string) (string, error) {
	secretKey, err := s.credentials.Platform()
	if err != nil {
		return "", err
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return "", fmt.Errorf("%w: user '%s' has no billing profile", ErrUserNotFound, userID)
		}
		return "", fmt.Errorf("failed to load user '%s': %w", userID, err)
	}
	if user.StripeCustomerID == "" {
		return "", fmt.Errorf("%w: user '%s' has no active subscription", ErrMissingStripeConfig, userID)
	}

	url, err := s.gateway.CreatePortalSession(ctx, secretKey, user.StripeCustomerID, returnURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrStripeClient, err)
	}
	return url, nil
}

// CreateStoreCheckout starts a public store purchase checkout on the store's
// own Stripe identity.
func (s *checkoutService) CreateStoreCheckout(ctx context.Context, req models.CreateStoreCheckoutRequest) (string, error) {
	store, secretKey, err := s.credentials.Store(ctx, req.StoreID, StoreCredentialOptions{RequirePublished: true})
	if err != nil {
		return "", err
	}

	product, err := s.productRepo.GetByID(ctx, req.StoreID, req.ProductID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return "", fmt.Errorf("%w: product '%s'", ErrProductNotFound, req.ProductID)
		}
		return "", fmt.Errorf("failed to load product '%s': %w", req.ProductID, err)
	}

	funnel, err := s.funnelRepo.GetActive(ctx, req.StoreID)
	if err != nil {
		return "", fmt.Errorf("failed to load funnel for store '%s': %w", req.StoreID, err)
	}

	sel := PurchaseSelection{BundleIndex: req.BundleIndex, IncludeOrderBump: req.IncludeOrderBump}
	lineItems, err := PriceLineItems(product, funnel, sel)
	if err != nil {
		return "", err
	}

	metadata := map[string]string{
		metaStoreID:      store.ID,
		metaProductID:    product.ID,
		metaStoreOwnerID: store.OwnerID,
		metaType:         models.TransactionTypeStoreCheckout,
		metaQuantity:     strconv.FormatInt(PrimaryQuantity(funnel, sel), 10),
	}

	// A missing or invalid promo code never fails the checkout; it only
	// omits the discount.
	var discount *payments.Discount
	if req.PromoCode != "" {
		promo, promoErr := s.promoRepo.GetByCode(ctx, req.StoreID, req.PromoCode)
		switch {
		case promoErr != nil:
			s.logger.Warn("Promo code lookup failed, continuing without discount",
				zap.String("storeId", req.StoreID), zap.String("code", req.PromoCode), zap.Error(promoErr))
		case promo != nil && ValidPromo(promo):
			discount = DiscountFor(promo)
			metadata[metaPromoCodeID] = promo.ID
			metadata[metaPromoCode] = promo.Code
		}
	}

	session, err := s.gateway.CreateCheckoutSession(ctx, secretKey, &payments.CheckoutParams{
		Mode:       payments.ModePayment,
		Currency:   store.Currency,
		LineItems:  lineItems,
		Discount:   discount,
		SuccessURL: req.SuccessURL + "&session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  req.CancelURL,
		Metadata:   metadata,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrStripeClient, err)
	}
	return session.ID, nil
}

// CreateUpsellCheckout starts a post-purchase upsell checkout on the store's
// own Stripe identity. Upsells are reachable from the post-purchase page, so
// the store's publication flag is not re-checked here.
func (s *checkoutService) CreateUpsellCheckout(ctx context.Context, req models.CreateUpsellCheckoutRequest) (string, error) {
	store, secretKey, err := s.credentials.Store(ctx, req.StoreID, StoreCredentialOptions{})
	if err != nil {
		return "", err
	}

	funnel, err := s.funnelRepo.GetActive(ctx, req.StoreID)
	if err != nil {
		return "", fmt.Errorf("failed to load funnel for store '%s': %w", req.StoreID, err)
	}
	if !funnel.HasUpsell() {
		return "", fmt.Errorf("%w: store '%s'", ErrNoUpsellConfigured, req.StoreID)
	}

	session, err := s.gateway.CreateCheckoutSession(ctx, secretKey, &payments.CheckoutParams{
		Mode:     payments.ModePayment,
		Currency: store.Currency,
		LineItems: []payments.LineItem{{
			Name:       funnel.Upsell.Title,
			UnitAmount: MinorUnits(funnel.Upsell.Price),
			Quantity:   1,
		}},
		SuccessURL: req.SuccessURL,
		CancelURL:  req.CancelURL,
		Metadata: map[string]string{
			metaStoreID:      store.ID,
			metaStoreOwnerID: store.OwnerID,
			metaType:         models.TransactionTypeUpsell,
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrStripeClient, err)
	}
	return session.ID, nil
}

// GetSubscription returns the user's subscription record, defaulting to a
// free-plan view when none exists yet.
func (s *checkoutService) GetSubscription(ctx context.Context, userID string) (*models.Subscription, error) {
	sub, err := s.subRepo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return &models.Subscription{UserID: userID, Plan: models.PlanFree}, nil
		}
		return nil, fmt.Errorf("failed to load subscription for user '%s': %w", userID, err)
	}
	return sub, nil
}
