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

const productsCollection = "products"

// firestoreProductRepository implements the ProductRepository interface using Firestore.
type firestoreProductRepository struct {
	client *firestore.Client
}

// NewFirestoreProductRepository creates a new instance of firestoreProductRepository.
func NewFirestoreProductRepository(client *firestore.Client) ProductRepository {
	if client == nil {
		log.Fatal("Firestore client is not initialized for ProductRepository.")
	}
	return &firestoreProductRepository{client: client}
}

func (r *firestoreProductRepository) productRef(storeID, productID string) *firestore.DocumentRef {
	return r.client.Collection(storesCollection).Doc(storeID).Collection(productsCollection).Doc(productID)
}

// GetByID retrieves a product from a store's products subcollection.
func (r *firestoreProductRepository) GetByID(ctx context.Context, storeID, productID string) (*models.Product, error) {
	if storeID == "" || productID == "" {
		return nil, errors.New("storeID and productID cannot be empty for GetByID operation")
	}
	docSnap, err := r.productRef(storeID, productID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("product with ID '%s' not found in store '%s': %w", productID, storeID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get product with ID '%s': %w", productID, err)
	}

	var product models.Product
	if err := docSnap.DataTo(&product); err != nil {
		return nil, fmt.Errorf("failed to decode product data for ID '%s': %w", productID, err)
	}
	product.ID = docSnap.Ref.ID

	return &product, nil
}

// DecrementStock lowers tracked stock by qty inside a Firestore transaction,
// clamping at zero. The transactional read-adjust-write is what keeps the
// never-negative invariant under concurrent reconciliation; a blind increment
// could drive the counter below zero. Untracked stock (nil) is a no-op.
func (r *firestoreProductRepository) DecrementStock(ctx context.Context, storeID, productID string, qty int64) (bool, error) {
	if storeID == "" || productID == "" {
		return false, errors.New("storeID and productID cannot be empty for DecrementStock operation")
	}
	if qty <= 0 {
		return false, fmt.Errorf("decrement quantity must be positive, got %d", qty)
	}

	ref := r.productRef(storeID, productID)
	underflow := false

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		docSnap, err := tx.Get(ref)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return fmt.Errorf("product with ID '%s' not found: %w", productID, ErrNotFound)
			}
			return err
		}

		var product models.Product
		if err := docSnap.DataTo(&product); err != nil {
			return fmt.Errorf("failed to decode product data: %w", err)
		}
		if product.Stock == nil {
			return nil // unlimited inventory, nothing to decrement
		}

		remaining := *product.Stock - qty
		if remaining < 0 {
			remaining = 0
			underflow = true
		}
		return tx.Update(ref, []firestore.Update{
			{Path: "stock", Value: remaining},
			{Path: "updatedAt", Value: firestore.ServerTimestamp},
		})
	})
	if err != nil {
		return false, fmt.Errorf("failed to decrement stock for product '%s': %w", productID, err)
	}
	return underflow, nil
}
