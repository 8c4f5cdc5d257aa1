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

const (
	storesCollection = "stores"
	slugsCollection  = "slugs"
)

// Names of the subcollections owned by each store document.
var storeSubcollections = []string{
	productsCollection,
	funnelsCollection,
	ordersCollection,
	promoCodesCollection,
	analyticsCollection,
}

// firestoreStoreRepository implements the StoreRepository interface using Firestore.
type firestoreStoreRepository struct {
	client *firestore.Client
}

// NewFirestoreStoreRepository creates a new instance of firestoreStoreRepository.
func NewFirestoreStoreRepository(client *firestore.Client) StoreRepository {
	if client == nil {
		log.Fatal("Firestore client is not initialized for StoreRepository.")
	}
	return &firestoreStoreRepository{client: client}
}

// CreateWithSlug writes the store document and the slug reservation in one
// batched write so that both become visible together or neither does. The slug
// string is the reservation document ID, which keeps uniqueness a plain
// document-existence question.
func (r *firestoreStoreRepository) CreateWithSlug(ctx context.Context, store *models.Store) (string, error) {
	if store.Slug == "" {
		return "", errors.New("store slug cannot be empty for CreateWithSlug operation")
	}

	storeRef := r.client.Collection(storesCollection).NewDoc()
	store.ID = storeRef.ID

	batch := r.client.Batch()
	batch.Set(storeRef, store)
	// Create, not Set: the commit must fail if another request reserved the
	// slug between the availability check and this write.
	batch.Create(r.client.Collection(slugsCollection).Doc(store.Slug), &models.Slug{
		StoreID: storeRef.ID,
		OwnerID: store.OwnerID,
	})

	if _, err := batch.Commit(ctx); err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return "", fmt.Errorf("slug '%s' already reserved: %w", store.Slug, ErrAlreadyExists)
		}
		return "", fmt.Errorf("failed to create store with slug '%s': %w", store.Slug, err)
	}
	return storeRef.ID, nil
}

// GetByID retrieves a store document from Firestore by its ID.
func (r *firestoreStoreRepository) GetByID(ctx context.Context, storeID string) (*models.Store, error) {
	if storeID == "" {
		return nil, errors.New("storeID cannot be empty for GetByID operation")
	}
	docSnap, err := r.client.Collection(storesCollection).Doc(storeID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("store with ID '%s' not found: %w", storeID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get store with ID '%s': %w", storeID, err)
	}

	var store models.Store
	if err := docSnap.DataTo(&store); err != nil {
		return nil, fmt.Errorf("failed to decode store data for ID '%s': %w", storeID, err)
	}
	store.ID = docSnap.Ref.ID

	return &store, nil
}

// GetByOwnerID retrieves all stores owned by a specific user.
func (r *firestoreStoreRepository) GetByOwnerID(ctx context.Context, ownerID string) ([]*models.Store, error) {
	if ownerID == "" {
		return nil, errors.New("ownerID cannot be empty for GetByOwnerID operation")
	}

	iter := r.client.Collection(storesCollection).
		Where("ownerId", "==", ownerID).
		OrderBy("createdAt", firestore.Desc).
		Documents(ctx)
	defer iter.Stop()

	var stores []*models.Store
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate stores for owner '%s': %w", ownerID, err)
		}

		var store models.Store
		if err := doc.DataTo(&store); err != nil {
			log.Printf("Error decoding store data (ID: %s) for owner '%s': %v. Skipping.", doc.Ref.ID, ownerID, err)
			continue
		}
		store.ID = doc.Ref.ID
		stores = append(stores, &store)
	}

	return stores, nil
}

// CountByOwnerID counts the stores owned by a user, for plan-limit checks.
func (r *firestoreStoreRepository) CountByOwnerID(ctx context.Context, ownerID string) (int, error) {
	if ownerID == "" {
		return 0, errors.New("ownerID cannot be empty for CountByOwnerID operation")
	}
	iter := r.client.Collection(storesCollection).Where("ownerId", "==", ownerID).Documents(ctx)
	defer iter.Stop()

	count := 0
	for {
		_, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("failed to iterate stores for counting (owner '%s'): %w", ownerID, err)
		}
		count++
	}
	return count, nil
}

// Update applies the given field set to the store document. The service layer
// restricts the set to the mutable allow-list before calling this.
func (r *firestoreStoreRepository) Update(ctx context.Context, storeID string, fields map[string]interface{}) error {
	if storeID == "" {
		return errors.New("storeID cannot be empty for Update operation")
	}
	fields["updatedAt"] = firestore.ServerTimestamp

	updates := make([]firestore.Update, 0, len(fields))
	for path, value := range fields {
		updates = append(updates, firestore.Update{Path: path, Value: value})
	}

	_, err := r.client.Collection(storesCollection).Doc(storeID).Update(ctx, updates)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("store with ID '%s' not found for update: %w", storeID, ErrNotFound)
		}
		return fmt.Errorf("failed to update store with ID '%s': %w", storeID, err)
	}
	return nil
}

// DeleteCascade removes the store document, its slug reservation, and every
// document in its subcollections in batched writes.
func (r *firestoreStoreRepository) DeleteCascade(ctx context.Context, store *models.Store) error {
	if store == nil || store.ID == "" {
		return errors.New("store with ID is required for DeleteCascade operation")
	}

	storeRef := r.client.Collection(storesCollection).Doc(store.ID)
	batch := r.client.Batch()
	writes := 0

	for _, sub := range storeSubcollections {
		iter := storeRef.Collection(sub).Documents(ctx)
		for {
			doc, err := iter.Next()
			if err == iterator.Done {
				break
			}
			if err != nil {
				iter.Stop()
				return fmt.Errorf("failed to list %s for store '%s': %w", sub, store.ID, err)
			}
			batch.Delete(doc.Ref)
			writes++
			// Firestore caps a batch at 500 writes; flush and continue.
			if writes == 450 {
				if _, err := batch.Commit(ctx); err != nil {
					iter.Stop()
					return fmt.Errorf("failed to delete %s batch for store '%s': %w", sub, store.ID, err)
				}
				batch = r.client.Batch()
				writes = 0
			}
		}
		iter.Stop()
	}

	batch.Delete(storeRef)
	if store.Slug != "" {
		batch.Delete(r.client.Collection(slugsCollection).Doc(store.Slug))
	}
	if _, err := batch.Commit(ctx); err != nil {
		return fmt.Errorf("failed to delete store '%s': %w", store.ID, err)
	}
	return nil
}

// SlugExists reports whether a slug reservation document exists.
func (r *firestoreStoreRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	if slug == "" {
		return false, errors.New("slug cannot be empty for SlugExists operation")
	}
	_, err := r.client.Collection(slugsCollection).Doc(slug).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return false, nil
		}
		return false, fmt.Errorf("failed to check slug '%s': %w", slug, err)
	}
	return true, nil
}
