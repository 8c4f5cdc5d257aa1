package core

import "errors"

// Domain errors surfaced by the core services. Handlers map these onto HTTP
// statuses; everything else is an internal fault.
var (
	// Not-found family.
	ErrStoreNotFound   = errors.New("store not found")
	ErrProductNotFound = errors.New("product not found")
	ErrUserNotFound    = errors.New("user not found")

	// Configuration: the tenant (or the platform) has no usable payment
	// credentials, or a required price is missing.
	ErrMissingStripeConfig = errors.New("stripe credentials not configured")

	// Expected business outcomes, reported with actionable messages rather
	// than treated as faults.
	ErrSlugTaken          = errors.New("slug is already in use")
	ErrStoreLimitReached  = errors.New("store limit reached for the current plan")
	ErrInvalidPlan        = errors.New("unknown subscription plan")
	ErrUnknownAddon       = errors.New("unknown addon")
	ErrOutOfStock         = errors.New("product is out of stock")
	ErrNoUpsellConfigured = errors.New("no upsell offer configured")

	// Access control.
	ErrForbiddenAccess = errors.New("user does not have permission for this action on the store")

	// Processor boundary.
	ErrStripeClient     = errors.New("stripe client operation failed")
	ErrWebhookSignature = errors.New("stripe webhook signature verification failed")
)
