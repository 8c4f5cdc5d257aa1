package db

import (
	"context"
	"errors"
	"fmt"
	"log"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"scalevo-backend-go/internal/models"
)

const promoCodesCollection = "promoCodes"

// firestorePromoCodeRepository implements the PromoCodeRepository interface using Firestore.
type firestorePromoCodeRepository struct {
	client *firestore.Client
}

// NewFirestorePromoCodeRepository creates a new instance of firestorePromoCodeRepository.
func NewFirestorePromoCodeRepository(client *firestore.Client) PromoCodeRepository {
	if client == nil {
		log.Fatal("Firestore client is not initialized for PromoCodeRepository.")
	}
	return &firestorePromoCodeRepository{client: client}
}

// GetByCode returns the store's active promo code with the given code string,
// or nil when no active code matches. Validity beyond the active flag (expiry,
// max use) is the service layer's call.
func (r *firestorePromoCodeRepository) GetByCode(ctx context.Context, storeID, code string) (*models.PromoCode, error) {
	if storeID == "" || code == "" {
		return nil, errors.New("storeID and code cannot be empty for GetByCode operation")
	}

	iter := r.client.Collection(storesCollection).Doc(storeID).
		Collection(promoCodesCollection).
		Where("code", "==", code).
		Where("active", "==", true).
		Limit(1).
		Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err == iterator.Done {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query promo code '%s' for store '%s': %w", code, storeID, err)
	}

	var promo models.PromoCode
	if err := doc.DataTo(&promo); err != nil {
		return nil, fmt.Errorf("failed to decode promo code data for store '%s': %w", storeID, err)
	}
	promo.ID = doc.Ref.ID

	return &promo, nil
}

// IncrementUsage bumps the usage counter with an atomic relative increment,
// never a read-then-write, since concurrent purchases can reconcile at once.
func (r *firestorePromoCodeRepository) IncrementUsage(ctx context.Context, storeID, promoCodeID string) error {
	if storeID == "" || promoCodeID == "" {
		return errors.New("storeID and promoCodeID cannot be empty for IncrementUsage operation")
	}

	_, err := r.client.Collection(storesCollection).Doc(storeID).
		Collection(promoCodesCollection).Doc(promoCodeID).
		Update(ctx, []firestore.Update{
			{Path: "usageCount", Value: firestore.Increment(1)},
		})
	if err != nil {
		return fmt.Errorf("failed to increment usage for promo code '%s': %w", promoCodeID, err)
	}
	return nil
}
