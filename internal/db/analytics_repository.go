package db

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"cloud.google.com/go/firestore"

	"scalevo-backend-go/internal/models"
)

const analyticsCollection = "analyticsDaily"

// firestoreAnalyticsRepository implements the AnalyticsRepository interface using Firestore.
type firestoreAnalyticsRepository struct {
	client *firestore.Client
}

// NewFirestoreAnalyticsRepository creates a new instance of firestoreAnalyticsRepository.
func NewFirestoreAnalyticsRepository(client *firestore.Client) AnalyticsRepository {
	if client == nil {
		log.Fatal("Firestore client is not initialized for AnalyticsRepository.")
	}
	return &firestoreAnalyticsRepository{client: client}
}

// IncrementDaily adds conversions and revenue to the store's record for the
// given UTC day. The merge-set with firestore.Increment creates the document
// on first touch and stays correct under concurrent reconciliation; the
// aggregates are never overwritten with absolute values.
func (r *firestoreAnalyticsRepository) IncrementDaily(ctx context.Context, storeID string, day time.Time, conversions int64, revenue float64) error {
	if storeID == "" {
		return errors.New("storeID cannot be empty for IncrementDaily operation")
	}

	docID := models.AnalyticsDay(day)
	_, err := r.client.Collection(storesCollection).Doc(storeID).
		Collection(analyticsCollection).Doc(docID).
		Set(ctx, map[string]interface{}{
			"conversions": firestore.Increment(conversions),
			"revenue":     firestore.Increment(revenue),
			"updatedAt":   firestore.ServerTimestamp,
		}, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("failed to increment analytics for store '%s' day '%s': %w", storeID, docID, err)
	}
	return nil
}
