package core

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"scalevo-backend-go/internal/models"
	"scalevo-backend-go/internal/payments"
)

func newBillingFixture(event *payments.Event) (*fakeUserRepo, *fakeSubRepo, *fakeGateway, BillingReconciler) {
	userRepo := newFakeUserRepo()
	subRepo := newFakeSubRepo()
	gateway := &fakeGateway{event: event}
	reconciler := NewBillingReconciler(userRepo, subRepo, gateway, "whsec_billing", false, zap.NewNop())
	return userRepo, subRepo, gateway, reconciler
}

func completedEvent(uid, plan string) *payments.Event {
	return &payments.Event{
		Type: payments.EventCheckoutCompleted,
		Checkout: &payments.CheckoutCompleted{
			SessionID:      "cs_1",
			Mode:           payments.ModeSubscription,
			Metadata:       map[string]string{"firebaseUID": uid, "plan": plan},
			SubscriptionID: "sub_1",
			CustomerID:     "cus_1",
		},
	}
}

func TestBillingCheckoutCompletedActivatesPlan(t *testing.T) {
	_, subRepo, _, reconciler := newBillingFixture(completedEvent("u1", "pro"))

	require.NoError(t, reconciler.HandleEvent(context.Background(), "sig", []byte("{}")))

	sub := subRepo.subs["u1"]
	require.NotNil(t, sub)
	assert.Equal(t, models.PlanPro, sub.Plan)
	assert.Equal(t, models.SubscriptionStatusActive, sub.Status)
	assert.Equal(t, "sub_1", sub.StripeSubscriptionID)
	assert.Equal(t, "cus_1", sub.StripeCustomerID)
}

func TestBillingCheckoutCompletedDefaultsToStarter(t *testing.T) {
	_, subRepo, _, reconciler := newBillingFixture(completedEvent("u1", ""))

	require.NoError(t, reconciler.HandleEvent(context.Background(), "sig", []byte("{}")))
	assert.Equal(t, models.PlanStarter, subRepo.subs["u1"].Plan)
}

func TestBillingCheckoutCompletedIgnoresPaymentMode(t *testing.T) {
	event := completedEvent("u1", "pro")
	event.Checkout.Mode = payments.ModePayment
	_, subRepo, _, reconciler := newBillingFixture(event)

	require.NoError(t, reconciler.HandleEvent(context.Background(), "sig", []byte("{}")))
	assert.Empty(t, subRepo.subs)
}

func TestBillingCheckoutCompletedIgnoresAddonPurchases(t *testing.T) {
	// Recurring addons check out in subscription mode too; they must not
	// rewrite the plan.
	event := completedEvent("u1", "")
	event.Checkout.Metadata["type"] = models.TransactionTypeAddon
	event.Checkout.Metadata["addonId"] = "liveChat"
	_, subRepo, _, reconciler := newBillingFixture(event)

	require.NoError(t, reconciler.HandleEvent(context.Background(), "sig", []byte("{}")))
	assert.Empty(t, subRepo.subs)
}

func TestBillingCheckoutCompletedRedeliveryWritesOnce(t *testing.T) {
	_, subRepo, _, reconciler := newBillingFixture(completedEvent("u1", "pro"))

	require.NoError(t, reconciler.HandleEvent(context.Background(), "sig", []byte("{}")))
	require.NoError(t, reconciler.HandleEvent(context.Background(), "sig", []byte("{}")))

	assert.Len(t, subRepo.upserts, 1)
	assert.Equal(t, models.PlanPro, subRepo.subs["u1"].Plan)
}

func TestBillingCheckoutCompletedWithoutUIDIgnored(t *testing.T) {
	event := completedEvent("", "pro")
	_, subRepo, _, reconciler := newBillingFixture(event)

	require.NoError(t, reconciler.HandleEvent(context.Background(), "sig", []byte("{}")))
	assert.Empty(t, subRepo.subs)
}

func TestBillingSubscriptionUpdatedMirrorsStatus(t *testing.T) {
	event := &payments.Event{
		Type:         payments.EventSubscriptionUpdated,
		Subscription: &payments.SubscriptionChange{CustomerID: "cus_1", Status: "past_due"},
	}
	userRepo, subRepo, _, reconciler := newBillingFixture(event)
	userRepo.users["u1"] = &models.User{ID: "u1", StripeCustomerID: "cus_1"}
	subRepo.subs["u1"] = &models.Subscription{UserID: "u1", Plan: models.PlanPro, Status: models.SubscriptionStatusActive}

	require.NoError(t, reconciler.HandleEvent(context.Background(), "sig", []byte("{}")))
	assert.Equal(t, "past_due", subRepo.subs["u1"].Status)
	// Plan is untouched by a status mirror.
	assert.Equal(t, models.PlanPro, subRepo.subs["u1"].Plan)
}

func TestBillingSubscriptionUpdatedIdempotent(t *testing.T) {
	event := &payments.Event{
		Type:         payments.EventSubscriptionUpdated,
		Subscription: &payments.SubscriptionChange{CustomerID: "cus_1", Status: "active"},
	}
	userRepo, subRepo, _, reconciler := newBillingFixture(event)
	userRepo.users["u1"] = &models.User{ID: "u1", StripeCustomerID: "cus_1"}
	subRepo.subs["u1"] = &models.Subscription{UserID: "u1", Plan: models.PlanPro, Status: models.SubscriptionStatusActive}

	require.NoError(t, reconciler.HandleEvent(context.Background(), "sig", []byte("{}")))
	require.NoError(t, reconciler.HandleEvent(context.Background(), "sig", []byte("{}")))

	// Replays of an already-applied state produce no writes.
	assert.Empty(t, subRepo.upserts)
	assert.Equal(t, models.SubscriptionStatusActive, subRepo.subs["u1"].Status)
}

func TestBillingSubscriptionDeletedDowngradesToFree(t *testing.T) {
	event := &payments.Event{
		Type:         payments.EventSubscriptionDeleted,
		Subscription: &payments.SubscriptionChange{CustomerID: "cus_1", Status: "canceled"},
	}
	userRepo, subRepo, _, reconciler := newBillingFixture(event)
	userRepo.users["u1"] = &models.User{ID: "u1", StripeCustomerID: "cus_1"}
	subRepo.subs["u1"] = &models.Subscription{UserID: "u1", Plan: models.PlanScale, Status: models.SubscriptionStatusActive}

	require.NoError(t, reconciler.HandleEvent(context.Background(), "sig", []byte("{}")))
	assert.Equal(t, models.PlanFree, subRepo.subs["u1"].Plan)
	assert.Equal(t, models.SubscriptionStatusCancelled, subRepo.subs["u1"].Status)
}

func TestBillingUnknownCustomerIsSilentNoOp(t *testing.T) {
	event := &payments.Event{
		Type:         payments.EventSubscriptionDeleted,
		Subscription: &payments.SubscriptionChange{CustomerID: "cus_ghost", Status: "canceled"},
	}
	_, subRepo, _, reconciler := newBillingFixture(event)

	require.NoError(t, reconciler.HandleEvent(context.Background(), "sig", []byte("{}")))
	assert.Empty(t, subRepo.upserts)
}

func TestBillingUnhandledEventTypeAcknowledged(t *testing.T) {
	event := &payments.Event{Type: "invoice.paid"}
	_, subRepo, _, reconciler := newBillingFixture(event)

	require.NoError(t, reconciler.HandleEvent(context.Background(), "sig", []byte("{}")))
	assert.Empty(t, subRepo.upserts)
}

func TestBillingSignatureFailureRejectsEvent(t *testing.T) {
	_, subRepo, gateway, reconciler := newBillingFixture(completedEvent("u1", "pro"))
	gateway.verifyErr = errors.New("bad signature")

	err := reconciler.HandleEvent(context.Background(), "sig", []byte("{}"))
	assert.ErrorIs(t, err, ErrWebhookSignature)
	assert.Empty(t, subRepo.subs)
}

func TestBillingNoSecretRejectedUnlessExplicitlyAllowed(t *testing.T) {
	userRepo := newFakeUserRepo()
	subRepo := newFakeSubRepo()
	gateway := &fakeGateway{event: completedEvent("u1", "pro")}

	strict := NewBillingReconciler(userRepo, subRepo, gateway, "", false, zap.NewNop())
	err := strict.HandleEvent(context.Background(), "sig", []byte("{}"))
	assert.ErrorIs(t, err, ErrWebhookSignature)

	permissive := NewBillingReconciler(userRepo, subRepo, gateway, "", true, zap.NewNop())
	require.NoError(t, permissive.HandleEvent(context.Background(), "sig", []byte("{}")))
	assert.Equal(t, models.PlanPro, subRepo.subs["u1"].Plan)
}
