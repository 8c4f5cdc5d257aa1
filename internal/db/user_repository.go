package db

import (
	"context"
	"errors"
	"fmt"
	"log"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"scalevo-backend-go/internal/models"
)

const usersCollection = "users"

// firestoreUserRepository implements the UserRepository interface using Firestore.
type firestoreUserRepository struct {
	client *firestore.Client
}

// NewFirestoreUserRepository creates a new instance of firestoreUserRepository.
func NewFirestoreUserRepository(client *firestore.Client) UserRepository {
	if client == nil {
		log.Fatal("Firestore client is not initialized for UserRepository.")
	}
	return &firestoreUserRepository{client: client}
}

// GetByID retrieves a user document by its ID (Firebase Auth UID).
func (r *firestoreUserRepository) GetByID(ctx context.Context, userID string) (*models.User, error) {
	if userID == "" {
		return nil, errors.New("userID cannot be empty for GetByID operation")
	}
	docSnap, err := r.client.Collection(usersCollection).Doc(userID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("user with ID '%s' not found: %w", userID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user with ID '%s': %w", userID, err)
	}

	var user models.User
	if err := docSnap.DataTo(&user); err != nil {
		return nil, fmt.Errorf("failed to decode user data for ID '%s': %w", userID, err)
	}
	user.ID = docSnap.Ref.ID

	return &user, nil
}

// SetStripeCustomerID persists the linked customer id with a merge write,
// creating the user document if it does not exist yet. Callers invoke this
// immediately after creating the customer remotely; a created-but-unsaved
// customer id would make a later purchase create a duplicate customer.
func (r *firestoreUserRepository) SetStripeCustomerID(ctx context.Context, userID, customerID string) error {
	if userID == "" || customerID == "" {
		return errors.New("userID and customerID cannot be empty for SetStripeCustomerID operation")
	}

	_, err := r.client.Collection(usersCollection).Doc(userID).Set(ctx, map[string]interface{}{
		"stripeCustomerId": customerID,
		"updatedAt":        firestore.ServerTimestamp,
	}, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("failed to set stripe customer id for user '%s': %w", userID, err)
	}
	return nil
}

// FindByStripeCustomerID resolves the user linked to a Stripe customer id.
// Returns nil without error when no user matches, which webhook consumers
// treat as an event for an unknown customer.
func (r *firestoreUserRepository) FindByStripeCustomerID(ctx context.Context, customerID string) (*models.User, error) {
	if customerID == "" {
		return nil, errors.New("customerID cannot be empty for FindByStripeCustomerID operation")
	}

	iter := r.client.Collection(usersCollection).
		Where("stripeCustomerId", "==", customerID).
		Limit(1).
		Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err == iterator.Done {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user by stripe customer '%s': %w", customerID, err)
	}

	var user models.User
	if err := doc.DataTo(&user); err != nil {
		return nil, fmt.Errorf("failed to decode user data for customer '%s': %w", customerID, err)
	}
	user.ID = doc.Ref.ID

	return &user, nil
}
