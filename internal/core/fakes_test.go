package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"scalevo-backend-go/internal/db"
	"scalevo-backend-go/internal/models"
	"scalevo-backend-go/internal/payments"
)

// In-memory repository fakes. Each records the mutations it receives so tests
// can assert on what the services actually wrote.

type fakeStoreRepo struct {
	stores       map[string]*models.Store
	slugs        map[string]bool
	updates      map[string]map[string]interface{}
	deleted      []string
	createErr    error
	slugExistErr error
}

func newFakeStoreRepo() *fakeStoreRepo {
	return &fakeStoreRepo{
		stores:  map[string]*models.Store{},
		slugs:   map[string]bool{},
		updates: map[string]map[string]interface{}{},
	}
}

func (f *fakeStoreRepo) CreateWithSlug(_ context.Context, store *models.Store) (string, error) {
	if f.createErr != nil {
		return "", f.createErr
	}
	if f.slugs[store.Slug] {
		return "", db.ErrAlreadyExists
	}
	id := fmt.Sprintf("store-%d", len(f.stores)+1)
	store.ID = id
	f.stores[id] = store
	f.slugs[store.Slug] = true
	return id, nil
}

func (f *fakeStoreRepo) GetByID(_ context.Context, storeID string) (*models.Store, error) {
	store, ok := f.stores[storeID]
	if !ok {
		return nil, db.ErrNotFound
	}
	return store, nil
}

func (f *fakeStoreRepo) GetByOwnerID(_ context.Context, ownerID string) ([]*models.Store, error) {
	var out []*models.Store
	for _, s := range f.stores {
		if s.OwnerID == ownerID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeStoreRepo) CountByOwnerID(ctx context.Context, ownerID string) (int, error) {
	stores, _ := f.GetByOwnerID(ctx, ownerID)
	return len(stores), nil
}

func (f *fakeStoreRepo) Update(_ context.Context, storeID string, fields map[string]interface{}) error {
	f.updates[storeID] = fields
	return nil
}

func (f *fakeStoreRepo) DeleteCascade(_ context.Context, store *models.Store) error {
	f.deleted = append(f.deleted, store.ID)
	delete(f.stores, store.ID)
	delete(f.slugs, store.Slug)
	return nil
}

func (f *fakeStoreRepo) SlugExists(_ context.Context, slug string) (bool, error) {
	if f.slugExistErr != nil {
		return false, f.slugExistErr
	}
	return f.slugs[slug], nil
}

type stockDecrement struct {
	productID string
	qty       int64
}

type fakeProductRepo struct {
	products   map[string]*models.Product
	decrements []stockDecrement
	underflow  bool
	decErr     error
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{products: map[string]*models.Product{}}
}

func (f *fakeProductRepo) GetByID(_ context.Context, _ string, productID string) (*models.Product, error) {
	product, ok := f.products[productID]
	if !ok {
		return nil, db.ErrNotFound
	}
	return product, nil
}

func (f *fakeProductRepo) DecrementStock(_ context.Context, _ string, productID string, qty int64) (bool, error) {
	if f.decErr != nil {
		return false, f.decErr
	}
	f.decrements = append(f.decrements, stockDecrement{productID: productID, qty: qty})
	return f.underflow, nil
}

type fakeFunnelRepo struct {
	funnel *models.Funnel
	err    error
}

func (f *fakeFunnelRepo) GetActive(context.Context, string) (*models.Funnel, error) {
	return f.funnel, f.err
}

type fakePromoRepo struct {
	promo      *models.PromoCode
	getErr     error
	increments []string
}

func (f *fakePromoRepo) GetByCode(_ context.Context, _ string, code string) (*models.PromoCode, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.promo != nil && f.promo.Code == code {
		return f.promo, nil
	}
	return nil, nil
}

func (f *fakePromoRepo) IncrementUsage(_ context.Context, _ string, promoCodeID string) error {
	f.increments = append(f.increments, promoCodeID)
	return nil
}

type fakeOrderRepo struct {
	orders   []*models.Order
	existing map[string]bool
	flagged  []string
	flagErr  error
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{existing: map[string]bool{}}
}

func (f *fakeOrderRepo) Create(_ context.Context, _ string, order *models.Order) (string, error) {
	order.ID = fmt.Sprintf("order-%d", len(f.orders)+1)
	f.orders = append(f.orders, order)
	f.existing[order.SessionID] = true
	return order.ID, nil
}

func (f *fakeOrderRepo) ExistsBySessionID(_ context.Context, _ string, sessionID string) (bool, error) {
	return f.existing[sessionID], nil
}

func (f *fakeOrderRepo) GetByStoreID(context.Context, string) ([]*models.Order, error) {
	return f.orders, nil
}

func (f *fakeOrderRepo) FlagInventoryShortfall(_ context.Context, _ string, orderID string) error {
	if f.flagErr != nil {
		return f.flagErr
	}
	f.flagged = append(f.flagged, orderID)
	return nil
}

type analyticsIncrement struct {
	day         string
	conversions int64
	revenue     float64
}

type fakeAnalyticsRepo struct {
	increments []analyticsIncrement
	err        error
}

func (f *fakeAnalyticsRepo) IncrementDaily(_ context.Context, _ string, day time.Time, conversions int64, revenue float64) error {
	if f.err != nil {
		return f.err
	}
	f.increments = append(f.increments, analyticsIncrement{
		day:         models.AnalyticsDay(day),
		conversions: conversions,
		revenue:     revenue,
	})
	return nil
}

type fakeUserRepo struct {
	users       map[string]*models.User
	setCustomer map[string]string
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*models.User{}, setCustomer: map[string]string{}}
}

func (f *fakeUserRepo) GetByID(_ context.Context, userID string) (*models.User, error) {
	user, ok := f.users[userID]
	if !ok {
		return nil, db.ErrNotFound
	}
	return user, nil
}

func (f *fakeUserRepo) SetStripeCustomerID(_ context.Context, userID, customerID string) error {
	f.setCustomer[userID] = customerID
	user, ok := f.users[userID]
	if !ok {
		user = &models.User{ID: userID}
		f.users[userID] = user
	}
	user.StripeCustomerID = customerID
	return nil
}

func (f *fakeUserRepo) FindByStripeCustomerID(_ context.Context, customerID string) (*models.User, error) {
	for _, user := range f.users {
		if user.StripeCustomerID == customerID {
			return user, nil
		}
	}
	return nil, nil
}

type fakeSubRepo struct {
	subs    map[string]*models.Subscription
	upserts []map[string]interface{}
}

func newFakeSubRepo() *fakeSubRepo {
	return &fakeSubRepo{subs: map[string]*models.Subscription{}}
}

func (f *fakeSubRepo) GetByUserID(_ context.Context, userID string) (*models.Subscription, error) {
	sub, ok := f.subs[userID]
	if !ok {
		return nil, db.ErrNotFound
	}
	return sub, nil
}

func (f *fakeSubRepo) Upsert(_ context.Context, userID string, fields map[string]interface{}) error {
	f.upserts = append(f.upserts, fields)
	sub, ok := f.subs[userID]
	if !ok {
		sub = &models.Subscription{UserID: userID}
		f.subs[userID] = sub
	}
	if plan, ok := fields["plan"].(string); ok {
		sub.Plan = plan
	}
	if status, ok := fields["status"].(string); ok {
		sub.Status = status
	}
	if id, ok := fields["stripeSubscriptionId"].(string); ok {
		sub.StripeSubscriptionID = id
	}
	if id, ok := fields["stripeCustomerId"].(string); ok {
		sub.StripeCustomerID = id
	}
	return nil
}

// fakeGateway records every processor call. The optional onCreateSession hook
// lets tests observe surrounding state at the moment the session is created.
type fakeGateway struct {
	customers       []string
	sessions        []*payments.CheckoutParams
	sessionKeys     []string
	portalCustomers []string
	event           *payments.Event
	verifyErr       error
	sessionErr      error
	onCreateSession func(secretKey string, params *payments.CheckoutParams)
	ensuredAddons   []string
	addonPriceErr   error
	clientSecret    string
}

func (g *fakeGateway) CreateCustomer(_ context.Context, _ string, email string, _ map[string]string) (string, error) {
	g.customers = append(g.customers, email)
	return fmt.Sprintf("cus_%d", len(g.customers)), nil
}

func (g *fakeGateway) CreateCheckoutSession(_ context.Context, secretKey string, params *payments.CheckoutParams) (*payments.Session, error) {
	if g.sessionErr != nil {
		return nil, g.sessionErr
	}
	if g.onCreateSession != nil {
		g.onCreateSession(secretKey, params)
	}
	g.sessions = append(g.sessions, params)
	g.sessionKeys = append(g.sessionKeys, secretKey)
	return &payments.Session{
		ID:           fmt.Sprintf("cs_%d", len(g.sessions)),
		URL:          "https://checkout.example/session",
		ClientSecret: g.clientSecret,
	}, nil
}

func (g *fakeGateway) EnsureAddonPrice(_ context.Context, _ string, addonID, _ string, _ int64, _ bool) (string, error) {
	if g.addonPriceErr != nil {
		return "", g.addonPriceErr
	}
	g.ensuredAddons = append(g.ensuredAddons, addonID)
	return "price_" + addonID, nil
}

func (g *fakeGateway) CreatePortalSession(_ context.Context, _ string, customerID, _ string) (string, error) {
	g.portalCustomers = append(g.portalCustomers, customerID)
	return "https://billing.example/portal", nil
}

func (g *fakeGateway) CreateCoupon(context.Context, string, string, *payments.Discount) (string, error) {
	return "coupon_1", nil
}

func (g *fakeGateway) VerifyEvent(_ []byte, _, _ string) (*payments.Event, error) {
	if g.verifyErr != nil {
		return nil, g.verifyErr
	}
	if g.event == nil {
		return nil, errors.New("no event configured")
	}
	return g.event, nil
}

func (g *fakeGateway) ParseEvent([]byte) (*payments.Event, error) {
	if g.event == nil {
		return nil, errors.New("no event configured")
	}
	return g.event, nil
}
