package service_test

import (
	"context"
	"testing"
	"time"

	memberdomain "github.com/inkpress/inkpress/internal/member/domain"
	"github.com/inkpress/inkpress/internal/payments/domain"
	"github.com/inkpress/inkpress/internal/publication"
	tierdomain "github.com/inkpress/inkpress/internal/tier/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (f *fixture) seedCustomerLink(t *testing.T, memberID int64, providerCustomerID string) {
	t.Helper()
	now := time.Now().UTC()
	link := &domain.CustomerLink{
		ID:                 f.node.Generate().Int64(),
		MemberID:           memberID,
		ProviderCustomerID: providerCustomerID,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := f.repo.CreateCustomerLink(context.Background(), f.db, link); err != nil {
		t.Fatalf("seed customer link: %v", err)
	}
}

func (f *fixture) seedPriceLink(t *testing.T, tierID *int64, providerProductID, providerPriceID string) {
	t.Helper()
	now := time.Now().UTC()
	link := &domain.PriceLink{
		ID:                f.node.Generate().Int64(),
		ProviderProductID: providerProductID,
		ProviderPriceID:   providerPriceID,
		TierID:            tierID,
		Currency:          "usd",
		Amount:            500,
		Interval:          domain.IntervalMonth,
		Kind:              domain.PriceKindRecurring,
		Active:            true,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := f.repo.CreatePriceLink(context.Background(), f.db, link); err != nil {
		t.Fatalf("seed price link: %v", err)
	}
}

func subscriptionEvent(eventType domain.EventType, customerID, priceID, status string) *domain.Event {
	return &domain.Event{
		ID:         "evt_" + string(eventType),
		Type:       eventType,
		RawType:    string(eventType),
		CustomerID: customerID,
		PriceID:    priceID,
		Status:     status,
	}
}

func TestSubscriptionEventsConvergeRegardlessOfOrder(t *testing.T) {
	ctx := context.Background()

	orders := [][]*domain.Event{
		{
			subscriptionEvent(domain.EventSubscriptionCreated, "cus_1", "price_1", "active"),
			subscriptionEvent(domain.EventSubscriptionUpdated, "cus_1", "price_1", "active"),
		},
		{
			subscriptionEvent(domain.EventSubscriptionUpdated, "cus_1", "price_1", "active"),
			subscriptionEvent(domain.EventSubscriptionCreated, "cus_1", "price_1", "active"),
		},
	}

	for _, events := range orders {
		f := newFixture(t, publication.DefaultSettings())
		tier := f.seedTier(t, "Gold", "usd", 500, 5000, 0, tierdomain.KindPaid)
		member := f.seedMember(t, "reader@example.com", "Reader")
		f.seedCustomerLink(t, member.ID, "cus_1")
		f.seedPriceLink(t, &tier.ID, "prod_1", "price_1")

		for _, event := range events {
			outcome := f.projector.Project(ctx, event)
			assert.False(t, outcome.Failed())
		}

		updated := f.mustMember(t, member.ID)
		assert.Equal(t, memberdomain.StatusPaid, updated.Status)
		assert.True(t, updated.Subscribed)
		require.NotNil(t, updated.TierID)
		assert.Equal(t, tier.ID, *updated.TierID)
	}
}

func TestSubscriptionCancelClearsEntitlement(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, publication.DefaultSettings())
	tier := f.seedTier(t, "Gold", "usd", 500, 5000, 0, tierdomain.KindPaid)
	member := f.seedMember(t, "reader@example.com", "Reader")
	f.seedCustomerLink(t, member.ID, "cus_1")
	f.seedPriceLink(t, &tier.ID, "prod_1", "price_1")

	f.projector.Project(ctx, subscriptionEvent(domain.EventSubscriptionCreated, "cus_1", "price_1", "active"))
	f.projector.Project(ctx, subscriptionEvent(domain.EventSubscriptionCancelled, "cus_1", "price_1", "canceled"))

	updated := f.mustMember(t, member.ID)
	assert.Equal(t, memberdomain.StatusFree, updated.Status)
	assert.False(t, updated.Subscribed)
	assert.Nil(t, updated.TierID)
}

func TestInactiveSubscriptionStatusClearsEntitlement(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, publication.DefaultSettings())
	tier := f.seedTier(t, "Gold", "usd", 500, 5000, 0, tierdomain.KindPaid)
	member := f.seedMember(t, "reader@example.com", "Reader")
	f.seedCustomerLink(t, member.ID, "cus_1")
	f.seedPriceLink(t, &tier.ID, "prod_1", "price_1")

	f.projector.Project(ctx, subscriptionEvent(domain.EventSubscriptionCreated, "cus_1", "price_1", "active"))
	f.projector.Project(ctx, subscriptionEvent(domain.EventSubscriptionUpdated, "cus_1", "price_1", "past_due"))

	updated := f.mustMember(t, member.ID)
	assert.Equal(t, memberdomain.StatusFree, updated.Status)
	assert.False(t, updated.Subscribed)
}

func TestTrialingSubscriptionGrantsEntitlement(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, publication.DefaultSettings())
	tier := f.seedTier(t, "Gold", "usd", 500, 5000, 14, tierdomain.KindPaid)
	member := f.seedMember(t, "reader@example.com", "Reader")
	f.seedCustomerLink(t, member.ID, "cus_1")
	f.seedPriceLink(t, &tier.ID, "prod_1", "price_1")

	outcome := f.projector.Project(ctx, subscriptionEvent(domain.EventSubscriptionCreated, "cus_1", "price_1", "trialing"))
	assert.False(t, outcome.Failed())

	updated := f.mustMember(t, member.ID)
	assert.Equal(t, memberdomain.StatusPaid, updated.Status)
}

func TestUnknownCustomerEventIsSkipped(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, publication.DefaultSettings())
	member := f.seedMember(t, "reader@example.com", "Reader")

	outcome := f.projector.Project(ctx, subscriptionEvent(domain.EventSubscriptionCreated, "cus_unknown", "price_1", "active"))
	assert.False(t, outcome.Failed())
	require.Len(t, outcome.Results, 1)
	assert.Equal(t, domain.ResultSkipped, outcome.Results[0].Status)

	untouched := f.mustMember(t, member.ID)
	assert.Equal(t, memberdomain.StatusFree, untouched.Status)
	assert.False(t, untouched.Subscribed)
}

func TestUnknownEventTypeIsSkipped(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, publication.DefaultSettings())

	outcome := f.projector.Project(ctx, &domain.Event{
		ID:      "evt_1",
		Type:    domain.EventUnknown,
		RawType: "product.created",
	})
	assert.False(t, outcome.Failed())
	require.Len(t, outcome.Results, 1)
	assert.Equal(t, domain.ResultSkipped, outcome.Results[0].Status)
}

func TestPaymentEventResolvesMemberByEmail(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, publication.DefaultSettings())
	member := f.seedMember(t, "reader@example.com", "Reader")

	outcome := f.projector.Project(ctx, &domain.Event{
		ID:    "evt_1",
		Type:  domain.EventPaymentSucceeded,
		Email: "reader@example.com",
	})
	assert.False(t, outcome.Failed())
	require.Len(t, outcome.Results, 2)
	assert.Equal(t, domain.ResultHandled, outcome.Results[1].Status)

	// Payment events never flip entitlement on their own.
	untouched := f.mustMember(t, member.ID)
	assert.Equal(t, memberdomain.StatusFree, untouched.Status)
}

func TestCustomerUpdatedSyncsProfile(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, publication.DefaultSettings())
	member := f.seedMember(t, "reader@example.com", "Reader")
	f.seedCustomerLink(t, member.ID, "cus_1")

	outcome := f.projector.Project(ctx, &domain.Event{
		ID:         "evt_1",
		Type:       domain.EventCustomerUpdated,
		CustomerID: "cus_1",
		Email:      "renamed@example.com",
		Name:       "Renamed Reader",
	})
	assert.False(t, outcome.Failed())

	updated := f.mustMember(t, member.ID)
	assert.Equal(t, "renamed@example.com", updated.Email)
	assert.Equal(t, "Renamed Reader", updated.Name)
}

func TestCustomerUpdatedReplayIsNoOp(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, publication.DefaultSettings())
	member := f.seedMember(t, "reader@example.com", "Reader")
	f.seedCustomerLink(t, member.ID, "cus_1")

	event := &domain.Event{
		ID:         "evt_1",
		Type:       domain.EventCustomerUpdated,
		CustomerID: "cus_1",
		Email:      "reader@example.com",
		Name:       "Reader",
	}
	first := f.projector.Project(ctx, event)
	second := f.projector.Project(ctx, event)
	assert.False(t, first.Failed())
	assert.False(t, second.Failed())

	updated := f.mustMember(t, member.ID)
	assert.Equal(t, "reader@example.com", updated.Email)
}

func TestBrokenTierChainLeavesTierUnset(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, publication.DefaultSettings())
	member := f.seedMember(t, "reader@example.com", "Reader")
	f.seedCustomerLink(t, member.ID, "cus_1")

	// No price link exists for this price id.
	outcome := f.projector.Project(ctx, subscriptionEvent(domain.EventSubscriptionCreated, "cus_1", "price_missing", "active"))
	assert.False(t, outcome.Failed())

	updated := f.mustMember(t, member.ID)
	assert.Equal(t, memberdomain.StatusPaid, updated.Status)
	assert.Nil(t, updated.TierID)
}
