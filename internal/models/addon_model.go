package models

// TransactionTypeAddon tags checkout sessions that buy a platform addon.
const TransactionTypeAddon = "addon"

// Addon is one purchasable platform feature module. Price is in minor
// currency units; non-recurring addons are one-time purchases.
type Addon struct {
	Name      string
	Price     int64
	Recurring bool
}

// DefaultAddons is the platform addon catalog, keyed by addon id. The catalog
// is injected at startup so deployments can adjust it without touching
// checkout logic.
func DefaultAddons() map[string]Addon {
	return map[string]Addon{
		"promoCodes":    {Name: "Promo Codes", Price: 499, Recurring: true},
		"emailsAuto":    {Name: "Automated Emails", Price: 799, Recurring: true},
		"analyticsPro":  {Name: "Analytics Pro", Price: 599, Recurring: true},
		"customDomain":  {Name: "Custom Domain", Price: 299, Recurring: true},
		"reviews":       {Name: "Customer Reviews", Price: 399, Recurring: true},
		"pixelTracking": {Name: "Pixels & Tracking", Price: 499, Recurring: true},
		"cartRecovery":  {Name: "Cart Recovery", Price: 999, Recurring: true},
		"premiumThemes": {Name: "Premium Themes", Price: 1499, Recurring: false},
		"liveChat":      {Name: "Live Chat", Price: 699, Recurring: true},
		"seoAdvanced":   {Name: "Advanced SEO", Price: 399, Recurring: true},
		"multiUsers":    {Name: "Multi-User Access", Price: 499, Recurring: true},
		"orderTracking": {Name: "Order Tracking", Price: 399, Recurring: true},
	}
}
