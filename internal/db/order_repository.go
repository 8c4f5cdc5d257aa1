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

const ordersCollection = "orders"

// firestoreOrderRepository implements the OrderRepository interface using Firestore.
type firestoreOrderRepository struct {
	client *firestore.Client
}

// NewFirestoreOrderRepository creates a new instance of firestoreOrderRepository.
func NewFirestoreOrderRepository(client *firestore.Client) OrderRepository {
	if client == nil {
		log.Fatal("Firestore client is not initialized for OrderRepository.")
	}
	return &firestoreOrderRepository{client: client}
}

func (r *firestoreOrderRepository) ordersRef(storeID string) *firestore.CollectionRef {
	return r.client.Collection(storesCollection).Doc(storeID).Collection(ordersCollection)
}

// Create appends a new order document with an auto-generated ID.
func (r *firestoreOrderRepository) Create(ctx context.Context, storeID string, order *models.Order) (string, error) {
	if storeID == "" {
		return "", errors.New("storeID cannot be empty for Create operation")
	}
	docRef := r.ordersRef(storeID).NewDoc()
	order.ID = docRef.ID

	if _, err := docRef.Create(ctx, order); err != nil {
		return "", fmt.Errorf("failed to create order for store '%s': %w", storeID, err)
	}
	return docRef.ID, nil
}

// ExistsBySessionID reports whether an order for the given checkout session id
// has already been recorded. This is the duplicate-delivery guard: Stripe
// retries webhooks at-least-once, and a replayed event must not produce a
// second order.
func (r *firestoreOrderRepository) ExistsBySessionID(ctx context.Context, storeID, sessionID string) (bool, error) {
	if storeID == "" || sessionID == "" {
		return false, errors.New("storeID and sessionID cannot be empty for ExistsBySessionID operation")
	}

	iter := r.ordersRef(storeID).Where("sessionId", "==", sessionID).Limit(1).Documents(ctx)
	defer iter.Stop()

	_, err := iter.Next()
	if err == iterator.Done {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to query orders by session '%s': %w", sessionID, err)
	}
	return true, nil
}

// GetByStoreID retrieves all orders of a store, newest first.
func (r *firestoreOrderRepository) GetByStoreID(ctx context.Context, storeID string) ([]*models.Order, error) {
	if storeID == "" {
		return nil, errors.New("storeID cannot be empty for GetByStoreID operation")
	}

	iter := r.ordersRef(storeID).OrderBy("createdAt", firestore.Desc).Documents(ctx)
	defer iter.Stop()

	var orders []*models.Order
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate orders for store '%s': %w", storeID, err)
		}

		var order models.Order
		if err := doc.DataTo(&order); err != nil {
			log.Printf("Error decoding order data (ID: %s) for store '%s': %v. Skipping.", doc.Ref.ID, storeID, err)
			continue
		}
		order.ID = doc.Ref.ID
		orders = append(orders, &order)
	}

	return orders, nil
}

// FlagInventoryShortfall marks an order whose stock decrement underflowed.
// Orders are otherwise append-only; this flag is the one post-creation write.
func (r *firestoreOrderRepository) FlagInventoryShortfall(ctx context.Context, storeID, orderID string) error {
	if storeID == "" || orderID == "" {
		return errors.New("storeID and orderID cannot be empty for FlagInventoryShortfall operation")
	}

	_, err := r.ordersRef(storeID).Doc(orderID).Update(ctx, []firestore.Update{
		{Path: "inventoryShortfall", Value: true},
	})
	if err != nil {
		return fmt.Errorf("failed to flag inventory shortfall on order '%s': %w", orderID, err)
	}
	return nil
}
