package core

import (
	"context"
	"errors"
	"fmt"

	"scalevo-backend-go/internal/db"
	"scalevo-backend-go/internal/models"
)

const (
	defaultCurrency     = "eur"
	defaultPrimaryColor = "#6C5CE7"

	// Value the frontend sends back for secrets it was never shown.
	maskedSecretPlaceholder = "••••••••"
)

// storeService implements the StoreService interface.
type storeService struct {
	storeRepo db.StoreRepository
	subRepo   db.SubscriptionRepository
	limiter   *PlanLimiter
}

// NewStoreService creates a new StoreService instance.
func NewStoreService(storeRepo db.StoreRepository, subRepo db.SubscriptionRepository, limiter *PlanLimiter) StoreService {
	return &storeService{
		storeRepo: storeRepo,
		subRepo:   subRepo,
		limiter:   limiter,
	}
}

// CreateStore creates a store for the owner, reserving its slug and enforcing
// the owner's plan limit.
func (s *storeService) CreateStore(ctx context.Context, ownerID string, req models.CreateStoreRequest) (*models.Store, error) {
	taken, err := s.storeRepo.SlugExists(ctx, req.Slug)
	if err != nil {
		return nil, fmt.Errorf("failed to check slug '%s': %w", req.Slug, err)
	}
	if taken {
		return nil, fmt.Errorf("%w: '%s'", ErrSlugTaken, req.Slug)
	}

	plan := models.PlanFree
	sub, err := s.subRepo.GetByUserID(ctx, ownerID)
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		return nil, fmt.Errorf("failed to load subscription for owner '%s': %w", ownerID, err)
	}
	if sub != nil && sub.Status == models.SubscriptionStatusActive {
		plan = sub.Plan
	}

	count, err := s.storeRepo.CountByOwnerID(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to count stores for owner '%s': %w", ownerID, err)
	}
	if err := s.limiter.CanCreateStore(plan, count); err != nil {
		return nil, err
	}

	store := &models.Store{
		OwnerID:      ownerID,
		Name:         req.Name,
		Slug:         req.Slug,
		Description:  req.Description,
		Currency:     defaultCurrency,
		PrimaryColor: defaultPrimaryColor,
		Published:    false,
	}
	if req.Currency != "" {
		store.Currency = req.Currency
	}

	storeID, err := s.storeRepo.CreateWithSlug(ctx, store)
	if err != nil {
		if errors.Is(err, db.ErrAlreadyExists) {
			return nil, fmt.Errorf("%w: '%s'", ErrSlugTaken, req.Slug)
		}
		return nil, fmt.Errorf("failed to create store: %w", err)
	}
	store.ID = storeID
	return store, nil
}

// ListStores returns the owner's stores, newest first.
func (s *storeService) ListStores(ctx context.Context, ownerID string) ([]*models.Store, error) {
	stores, err := s.storeRepo.GetByOwnerID(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list stores for owner '%s': %w", ownerID, err)
	}
	return stores, nil
}

// UpdateStore applies the allowed subset of fields to a store the caller owns.
// Connect credentials sent back masked are treated as unchanged.
func (s *storeService) UpdateStore(ctx context.Context, ownerID, storeID string, req models.UpdateStoreRequest) (*models.Store, error) {
	store, err := s.ownedStore(ctx, ownerID, storeID)
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if req.Name != nil {
		fields["name"] = *req.Name
	}
	if req.Description != nil {
		fields["description"] = *req.Description
	}
	if req.PrimaryColor != nil {
		fields["primaryColor"] = *req.PrimaryColor
	}
	if req.Published != nil {
		fields["published"] = *req.Published
	}
	if req.StripePublishableKey != nil {
		fields["stripePublishableKey"] = *req.StripePublishableKey
	}
	if req.StripeSecretKey != nil && *req.StripeSecretKey != maskedSecretPlaceholder {
		fields["stripeSecretKey"] = *req.StripeSecretKey
	}
	if req.StripeWebhookSecret != nil && *req.StripeWebhookSecret != maskedSecretPlaceholder {
		fields["stripeWebhookSecret"] = *req.StripeWebhookSecret
	}

	if len(fields) == 0 {
		return store, nil
	}

	if err := s.storeRepo.Update(ctx, storeID, fields); err != nil {
		return nil, fmt.Errorf("failed to update store '%s': %w", storeID, err)
	}

	updated, err := s.storeRepo.GetByID(ctx, storeID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload store '%s': %w", storeID, err)
	}
	return updated, nil
}

// DeleteStore removes a store the caller owns, along with its slug
// reservation and subcollections.
func (s *storeService) DeleteStore(ctx context.Context, ownerID, storeID string) error {
	store, err := s.ownedStore(ctx, ownerID, storeID)
	if err != nil {
		return err
	}
	if err := s.storeRepo.DeleteCascade(ctx, store); err != nil {
		return fmt.Errorf("failed to delete store '%s': %w", storeID, err)
	}
	return nil
}

// ownedStore loads a store and confirms ownership. Non-owners get the same
// not-found answer as a missing store so store ids cannot be probed.
func (s *storeService) ownedStore(ctx context.Context, ownerID, storeID string) (*models.Store, error) {
	store, err := s.storeRepo.GetByID(ctx, storeID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: '%s'", ErrStoreNotFound, storeID)
		}
		return nil, fmt.Errorf("failed to load store '%s': %w", storeID, err)
	}
	if store.OwnerID != ownerID {
		return nil, fmt.Errorf("%w: '%s'", ErrStoreNotFound, storeID)
	}
	return store, nil
}
