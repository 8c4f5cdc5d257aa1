package core

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"scalevo-backend-go/internal/db"
	"scalevo-backend-go/internal/models"
	"scalevo-backend-go/internal/payments"
)

// billingReconciler folds the platform's Stripe event stream into the
// subscriptions collection.
type billingReconciler struct {
	userRepo        db.UserRepository
	subRepo         db.SubscriptionRepository
	gateway         payments.Gateway
	webhookSecret   string
	allowUnverified bool
	logger          *zap.Logger
}

// NewBillingReconciler creates a new BillingReconciler instance. When
// allowUnverified is set and no webhook secret is configured, events are
// processed without signature verification. That mode exists for local
// development only.
func NewBillingReconciler(
	userRepo db.UserRepository,
	subRepo db.SubscriptionRepository,
	gateway payments.Gateway,
	webhookSecret string,
	allowUnverified bool,
	logger *zap.Logger,
) BillingReconciler {
	return &billingReconciler{
		userRepo:        userRepo,
		subRepo:         subRepo,
		gateway:         gateway,
		webhookSecret:   webhookSecret,
		allowUnverified: allowUnverified,
		logger:          logger,
	}
}

// HandleEvent verifies and applies one platform billing event. Event types
// outside the handled set are acknowledged without effect so the processor
// stops retrying them.
func (r *billingReconciler) HandleEvent(ctx context.Context, signature string, payload []byte) error {
	event, err := r.decode(signature, payload)
	if err != nil {
		return err
	}

	switch event.Type {
	case payments.EventCheckoutCompleted:
		return r.applyCheckoutCompleted(ctx, event.Checkout)
	case payments.EventSubscriptionUpdated:
		return r.applySubscriptionChange(ctx, event.Subscription, map[string]interface{}{
			"status": normalizeSubscriptionStatus(event.Subscription.Status),
		})
	case payments.EventSubscriptionDeleted:
		return r.applySubscriptionChange(ctx, event.Subscription, map[string]interface{}{
			"status": models.SubscriptionStatusCancelled,
			"plan":   models.PlanFree,
		})
	default:
		r.logger.Debug("Ignoring billing event", zap.String("type", event.Type))
		return nil
	}
}

func (r *billingReconciler) decode(signature string, payload []byte) (*payments.Event, error) {
	if r.webhookSecret != "" {
		event, err := r.gateway.VerifyEvent(payload, signature, r.webhookSecret)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrWebhookSignature, err)
		}
		return event, nil
	}
	if !r.allowUnverified {
		return nil, fmt.Errorf("%w: no signing secret configured", ErrWebhookSignature)
	}
	r.logger.Warn("Processing billing event without signature verification")
	event, err := r.gateway.ParseEvent(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWebhookSignature, err)
	}
	return event, nil
}

// applyCheckoutCompleted activates the purchased plan. Non-subscription
// checkouts, addon purchases, and sessions lacking a user id belong to other
// flows and are skipped.
func (r *billingReconciler) applyCheckoutCompleted(ctx context.Context, checkout *payments.CheckoutCompleted) error {
	if checkout == nil || checkout.Mode != payments.ModeSubscription {
		return nil
	}
	// Recurring addons also check out in subscription mode; activating them
	// must not touch the plan.
	if checkout.Metadata[metaType] == models.TransactionTypeAddon {
		return nil
	}
	uid := checkout.Metadata[metaFirebaseUID]
	if uid == "" {
		return nil
	}
	plan := checkout.Metadata[metaPlan]
	if plan == "" {
		plan = models.PlanStarter
	}

	fields := map[string]interface{}{
		"plan":                 plan,
		"status":               models.SubscriptionStatusActive,
		"stripeSubscriptionId": checkout.SubscriptionID,
		"stripeCustomerId":     checkout.CustomerID,
	}

	current, err := r.subRepo.GetByUserID(ctx, uid)
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		return fmt.Errorf("failed to load subscription for user '%s': %w", uid, err)
	}
	if current != nil && subscriptionFieldsEqual(current, fields) {
		return nil
	}

	if err := r.subRepo.Upsert(ctx, uid, fields); err != nil {
		return fmt.Errorf("failed to activate subscription for user '%s': %w", uid, err)
	}
	r.logger.Info("Subscription activated",
		zap.String("userId", uid), zap.String("plan", plan))
	return nil
}

// applySubscriptionChange mirrors a processor-side subscription change onto
// the customer's record. Events for customers this platform never issued are
// acknowledged without effect; retrying cannot make them resolvable.
func (r *billingReconciler) applySubscriptionChange(ctx context.Context, change *payments.SubscriptionChange, fields map[string]interface{}) error {
	if change == nil || change.CustomerID == "" {
		return nil
	}

	user, err := r.userRepo.FindByStripeCustomerID(ctx, change.CustomerID)
	if err != nil {
		return fmt.Errorf("failed to resolve customer '%s': %w", change.CustomerID, err)
	}
	if user == nil {
		r.logger.Warn("Billing event for unknown customer", zap.String("customerId", change.CustomerID))
		return nil
	}

	current, err := r.subRepo.GetByUserID(ctx, user.ID)
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		return fmt.Errorf("failed to load subscription for user '%s': %w", user.ID, err)
	}
	if current != nil && subscriptionFieldsEqual(current, fields) {
		return nil
	}

	if err := r.subRepo.Upsert(ctx, user.ID, fields); err != nil {
		return fmt.Errorf("failed to update subscription for user '%s': %w", user.ID, err)
	}
	r.logger.Info("Subscription updated",
		zap.String("userId", user.ID), zap.Any("fields", fields))
	return nil
}

// normalizeSubscriptionStatus keeps processor status strings as-is except for
// the active case, which is pinned to the local constant.
func normalizeSubscriptionStatus(status string) string {
	if status == "active" {
		return models.SubscriptionStatusActive
	}
	return status
}

func subscriptionFieldsEqual(sub *models.Subscription, fields map[string]interface{}) bool {
	for key, value := range fields {
		switch key {
		case "status":
			if sub.Status != value {
				return false
			}
		case "plan":
			if sub.Plan != value {
				return false
			}
		case "stripeSubscriptionId":
			if sub.StripeSubscriptionID != value {
				return false
			}
		case "stripeCustomerId":
			if sub.StripeCustomerID != value {
				return false
			}
		default:
			return false
		}
	}
	return true
}
