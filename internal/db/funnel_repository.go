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

const funnelsCollection = "funnels"

// firestoreFunnelRepository implements the FunnelRepository interface using Firestore.
type firestoreFunnelRepository struct {
	client *firestore.Client
}

// NewFirestoreFunnelRepository creates a new instance of firestoreFunnelRepository.
func NewFirestoreFunnelRepository(client *firestore.Client) FunnelRepository {
	if client == nil {
		log.Fatal("Firestore client is not initialized for FunnelRepository.")
	}
	return &firestoreFunnelRepository{client: client}
}

// GetActive returns the store's single active funnel, or nil when none exists.
// A store holds zero or one funnel by convention; ordering by createdAt makes
// the selection deterministic if historical data ever contains several.
func (r *firestoreFunnelRepository) GetActive(ctx context.Context, storeID string) (*models.Funnel, error) {
	if storeID == "" {
		return nil, errors.New("storeID cannot be empty for GetActive operation")
	}

	iter := r.client.Collection(storesCollection).Doc(storeID).
		Collection(funnelsCollection).
		OrderBy("createdAt", firestore.Desc).
		Limit(1).
		Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err == iterator.Done {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query funnel for store '%s': %w", storeID, err)
	}

	var funnel models.Funnel
	if err := doc.DataTo(&funnel); err != nil {
		return nil, fmt.Errorf("failed to decode funnel data for store '%s': %w", storeID, err)
	}
	funnel.ID = doc.Ref.ID

	return &funnel, nil
}
