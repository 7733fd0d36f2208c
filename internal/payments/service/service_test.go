package service_test

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/inkpress/inkpress/internal/config"
	"github.com/inkpress/inkpress/internal/locks"
	memberdomain "github.com/inkpress/inkpress/internal/member/domain"
	memberrepo "github.com/inkpress/inkpress/internal/member/repository"
	offerdomain "github.com/inkpress/inkpress/internal/offer/domain"
	offerrepo "github.com/inkpress/inkpress/internal/offer/repository"
	"github.com/inkpress/inkpress/internal/payments/domain"
	paymentsrepo "github.com/inkpress/inkpress/internal/payments/repository"
	"github.com/inkpress/inkpress/internal/payments/service"
	"github.com/inkpress/inkpress/internal/publication"
	tierdomain "github.com/inkpress/inkpress/internal/tier/domain"
	tierrepo "github.com/inkpress/inkpress/internal/tier/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:memdb_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	schema := []string{
		`CREATE TABLE tiers (
			id BIGINT PRIMARY KEY,
			name TEXT NOT NULL,
			slug TEXT NOT NULL,
			currency TEXT NOT NULL,
			monthly_amount BIGINT NOT NULL DEFAULT 0,
			yearly_amount BIGINT NOT NULL DEFAULT 0,
			trial_days INTEGER NOT NULL DEFAULT 0,
			kind TEXT NOT NULL DEFAULT 'paid',
			active BOOLEAN NOT NULL DEFAULT TRUE,
			metadata TEXT,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE UNIQUE INDEX ux_tiers_slug ON tiers(slug)`,
		`CREATE TABLE offers (
			id BIGINT PRIMARY KEY,
			tier_id BIGINT NOT NULL,
			kind TEXT NOT NULL,
			amount BIGINT NOT NULL DEFAULT 0,
			currency TEXT NOT NULL DEFAULT '',
			duration TEXT NOT NULL DEFAULT 'once',
			duration_in_months INTEGER NOT NULL DEFAULT 0,
			coupon_id TEXT,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE members (
			id BIGINT PRIMARY KEY,
			email TEXT NOT NULL,
			name TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'free',
			subscribed BOOLEAN NOT NULL DEFAULT FALSE,
			tier_id BIGINT,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE UNIQUE INDEX ux_members_email ON members(email)`,
		`CREATE TABLE customer_links (
			id BIGINT PRIMARY KEY,
			member_id BIGINT NOT NULL,
			provider_customer_id TEXT NOT NULL,
			email TEXT NOT NULL DEFAULT '',
			name TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE product_links (
			id BIGINT PRIMARY KEY,
			tier_id BIGINT,
			provider_product_id TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE price_links (
			id BIGINT PRIMARY KEY,
			provider_product_id TEXT NOT NULL,
			provider_price_id TEXT NOT NULL,
			tier_id BIGINT,
			currency TEXT NOT NULL,
			amount BIGINT NOT NULL,
			billing_interval TEXT NOT NULL,
			kind TEXT NOT NULL,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			nickname TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
	}
	for _, stmt := range schema {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}
	return db
}

// fakeProvider is an in-memory payment provider double. Creation
// counters let tests assert that resolution did not mint duplicates.
type fakeProvider struct {
	mu sync.Mutex

	customers map[string]*domain.Customer
	products  map[string]*domain.Product
	prices    map[string]*domain.Price
	coupons   map[string]domain.CreateCouponParams

	sessions         []domain.CheckoutSessionParams
	donationSessions []domain.DonationSessionParams

	createdCustomers int
	createdProducts  int
	createdPrices    int
	createdCoupons   int

	seq int
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		customers: map[string]*domain.Customer{},
		products:  map[string]*domain.Product{},
		prices:    map[string]*domain.Price{},
		coupons:   map[string]domain.CreateCouponParams{},
	}
}

func (f *fakeProvider) nextID(prefix string) string {
	f.seq++
	return prefix + "_" + strconv.Itoa(f.seq)
}

func (f *fakeProvider) CreateCustomer(_ context.Context, email, name string) (*domain.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	customer := &domain.Customer{ID: f.nextID("cus"), Email: email, Name: name}
	f.customers[customer.ID] = customer
	f.createdCustomers++
	return customer, nil
}

func (f *fakeProvider) GetCustomer(_ context.Context, id string) (*domain.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	customer, ok := f.customers[id]
	if !ok {
		return nil, domain.ErrProviderRequest
	}
	copied := *customer
	return &copied, nil
}

func (f *fakeProvider) CreateProduct(_ context.Context, params domain.CreateProductParams) (*domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	product := &domain.Product{ID: f.nextID("prod"), Name: params.Name, Active: true}
	f.products[product.ID] = product
	f.createdProducts++
	return product, nil
}

func (f *fakeProvider) GetProduct(_ context.Context, id string) (*domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	product, ok := f.products[id]
	if !ok {
		return nil, domain.ErrProviderRequest
	}
	copied := *product
	return &copied, nil
}

func (f *fakeProvider) UpdateProduct(_ context.Context, id string, params domain.UpdateProductParams) (*domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	product, ok := f.products[id]
	if !ok {
		return nil, domain.ErrProviderRequest
	}
	product.Name = params.Name
	copied := *product
	return &copied, nil
}

func (f *fakeProvider) CreatePrice(_ context.Context, params domain.CreatePriceParams) (*domain.Price, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	price := &domain.Price{
		ID:       f.nextID("price"),
		Currency: params.Currency,
		Amount:   params.Amount,
		Active:   true,
		Nickname: params.Nickname,
		Interval: params.Interval,
	}
	f.prices[price.ID] = price
	f.createdPrices++
	return price, nil
}

func (f *fakeProvider) GetPrice(_ context.Context, id string) (*domain.Price, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	price, ok := f.prices[id]
	if !ok {
		return nil, domain.ErrProviderRequest
	}
	copied := *price
	return &copied, nil
}

func (f *fakeProvider) UpdatePrice(_ context.Context, id string, params domain.UpdatePriceParams) (*domain.Price, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	price, ok := f.prices[id]
	if !ok {
		return nil, domain.ErrProviderRequest
	}
	price.Nickname = params.Nickname
	copied := *price
	return &copied, nil
}

func (f *fakeProvider) CreateCoupon(_ context.Context, params domain.CreateCouponParams) (*domain.Coupon, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextID("coupon")
	f.coupons[id] = params
	f.createdCoupons++
	return &domain.Coupon{ID: id, Name: params.Name}, nil
}

func (f *fakeProvider) CreateCheckoutSession(_ context.Context, params domain.CheckoutSessionParams) (*domain.CheckoutSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions = append(f.sessions, params)
	id := f.nextID("cs")
	return &domain.CheckoutSession{ID: id, URL: "https://checkout.example.com/" + id}, nil
}

func (f *fakeProvider) CreateDonationCheckoutSession(_ context.Context, params domain.DonationSessionParams) (*domain.CheckoutSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.donationSessions = append(f.donationSessions, params)
	id := f.nextID("cs")
	return &domain.CheckoutSession{ID: id, URL: "https://checkout.example.com/" + id}, nil
}

func (f *fakeProvider) VerifySignature([]byte, string) error   { return nil }
func (f *fakeProvider) ParseEvent([]byte) (*domain.Event, error) { return nil, domain.ErrInvalidPayload }

func (f *fakeProvider) setPriceAmount(id string, amount int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if price, ok := f.prices[id]; ok {
		price.Amount = amount
	}
}

func (f *fakeProvider) lastSession(t *testing.T) domain.CheckoutSessionParams {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sessions) == 0 {
		t.Fatal("no checkout session was created")
	}
	return f.sessions[len(f.sessions)-1]
}

func (f *fakeProvider) lastDonationSession(t *testing.T) domain.DonationSessionParams {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.donationSessions) == 0 {
		t.Fatal("no donation session was created")
	}
	return f.donationSessions[len(f.donationSessions)-1]
}

// fixture wires the payment services against the in-memory provider.
type fixture struct {
	db         *gorm.DB
	node       *snowflake.Node
	provider   *fakeProvider
	repo       domain.Repository
	tierRepo   tierdomain.Repository
	offerRepo  offerdomain.Repository
	memberRepo memberdomain.Repository
	resolver   domain.CustomerResolver
	reconciler domain.CatalogReconciler
	checkout   domain.CheckoutBuilder
	projector  domain.Projector
}

func newFixture(t *testing.T, settings publication.Settings) *fixture {
	t.Helper()

	db := setupTestDB(t)
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}

	provider := newFakeProvider()
	repo := paymentsrepo.Provide()
	tiers := tierrepo.Provide()
	offers := offerrepo.Provide()
	members := memberrepo.Provide()
	locker := locks.NewLocalLocker()
	log := zap.NewNop()

	resolver := service.NewCustomerResolver(service.CustomerResolverParams{
		DB:         db,
		Log:        log,
		GenID:      node,
		Repo:       repo,
		MemberRepo: members,
		Provider:   provider,
		Locker:     locker,
	})
	reconciler := service.NewReconciler(service.ReconcilerParams{
		DB:        db,
		Log:       log,
		GenID:     node,
		Repo:      repo,
		OfferRepo: offers,
		Provider:  provider,
		Locker:    locker,
		Settings:  publication.NewStaticHolder(settings),
	})
	checkout := service.NewCheckoutBuilder(service.CheckoutBuilderParams{
		Config: config.Config{
			CheckoutSuccessURL: "https://example.com/success",
			CheckoutCancelURL:  "https://example.com/cancel",
		},
		DB:         db,
		Log:        log,
		TierRepo:   tiers,
		OfferRepo:  offers,
		Resolver:   resolver,
		Reconciler: reconciler,
		Provider:   provider,
	})
	projector := service.NewProjector(service.ProjectorParams{
		DB:         db,
		Log:        log,
		Repo:       repo,
		MemberRepo: members,
	})

	return &fixture{
		db:         db,
		node:       node,
		provider:   provider,
		repo:       repo,
		tierRepo:   tiers,
		offerRepo:  offers,
		memberRepo: members,
		resolver:   resolver,
		reconciler: reconciler,
		checkout:   checkout,
		projector:  projector,
	}
}

// newFixtureWithState rebuilds the reconciler over an existing
// fixture's database and provider, with different publication
// settings.
func newFixtureWithState(t *testing.T, base *fixture, settings publication.Settings) *fixture {
	t.Helper()
	reconciler := service.NewReconciler(service.ReconcilerParams{
		DB:        base.db,
		Log:       zap.NewNop(),
		GenID:     base.node,
		Repo:      base.repo,
		OfferRepo: base.offerRepo,
		Provider:  base.provider,
		Locker:    locks.NewLocalLocker(),
		Settings:  publication.NewStaticHolder(settings),
	})
	out := *base
	out.reconciler = reconciler
	return &out
}

func (f *fixture) seedTier(t *testing.T, name, currency string, monthly, yearly int64, trialDays int, kind tierdomain.Kind) *tierdomain.Tier {
	t.Helper()
	now := time.Now().UTC()
	tier := &tierdomain.Tier{
		ID:            f.node.Generate().Int64(),
		Name:          name,
		Slug:          fmt.Sprintf("%s-%d", name, f.node.Generate().Int64()),
		Currency:      currency,
		MonthlyAmount: monthly,
		YearlyAmount:  yearly,
		TrialDays:     trialDays,
		Kind:          kind,
		Active:        true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := f.db.Create(tier).Error; err != nil {
		t.Fatalf("seed tier: %v", err)
	}
	return tier
}

func (f *fixture) seedOffer(t *testing.T, tierID int64, kind offerdomain.Kind, amount int64, currency string, duration offerdomain.Duration, months int) *offerdomain.Offer {
	t.Helper()
	now := time.Now().UTC()
	offer := &offerdomain.Offer{
		ID:               f.node.Generate().Int64(),
		TierID:           tierID,
		Kind:             kind,
		Amount:           amount,
		Currency:         currency,
		Duration:         duration,
		DurationInMonths: months,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := f.db.Create(offer).Error; err != nil {
		t.Fatalf("seed offer: %v", err)
	}
	return offer
}

func (f *fixture) seedMember(t *testing.T, email, name string) *memberdomain.Member {
	t.Helper()
	now := time.Now().UTC()
	member := &memberdomain.Member{
		ID:        f.node.Generate().Int64(),
		Email:     email,
		Name:      name,
		Status:    memberdomain.StatusFree,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := f.db.Create(member).Error; err != nil {
		t.Fatalf("seed member: %v", err)
	}
	return member
}

func (f *fixture) mustMember(t *testing.T, id int64) *memberdomain.Member {
	t.Helper()
	member, err := f.memberRepo.FindByID(context.Background(), f.db, id)
	if err != nil {
		t.Fatalf("find member: %v", err)
	}
	if member == nil {
		t.Fatalf("member %d not found", id)
	}
	return member
}
