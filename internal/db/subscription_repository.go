package db

import (
	"context"
	"errors"
	"fmt"
	"log"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"scalevo-backend-go/internal/models"
)

const subscriptionsCollection = "subscriptions"

// firestoreSubscriptionRepository implements the SubscriptionRepository interface using Firestore.
type firestoreSubscriptionRepository struct {
	client *firestore.Client
}

// NewFirestoreSubscriptionRepository creates a new instance of firestoreSubscriptionRepository.
func NewFirestoreSubscriptionRepository(client *firestore.Client) SubscriptionRepository {
	if client == nil {
		log.Fatal("Firestore client is not initialized for SubscriptionRepository.")
	}
	return &firestoreSubscriptionRepository{client: client}
}

// GetByUserID retrieves the subscription document keyed by the user's UID.
func (r *firestoreSubscriptionRepository) GetByUserID(ctx context.Context, userID string) (*models.Subscription, error) {
	if userID == "" {
		return nil, errors.New("userID cannot be empty for GetByUserID operation")
	}
	docSnap, err := r.client.Collection(subscriptionsCollection).Doc(userID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("subscription for user '%s' not found: %w", userID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get subscription for user '%s': %w", userID, err)
	}

	var sub models.Subscription
	if err := docSnap.DataTo(&sub); err != nil {
		return nil, fmt.Errorf("failed to decode subscription data for user '%s': %w", userID, err)
	}
	sub.UserID = docSnap.Ref.ID

	return &sub, nil
}

// Upsert merge-writes the given fields into the user's subscription document,
// creating it on first billing event. Merge semantics keep repeated delivery
// of the same event idempotent.
func (r *firestoreSubscriptionRepository) Upsert(ctx context.Context, userID string, fields map[string]interface{}) error {
	if userID == "" {
		return errors.New("userID cannot be empty for Upsert operation")
	}
	fields["updatedAt"] = firestore.ServerTimestamp

	_, err := r.client.Collection(subscriptionsCollection).Doc(userID).Set(ctx, fields, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("failed to upsert subscription for user '%s': %w", userID, err)
	}
	return nil
}
