package events_test

import (
	"context"
	"errors"
	"testing"

	"github.com/inkpress/inkpress/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishDispatchesInSubscriptionOrder(t *testing.T) {
	bus := events.NewBus()

	var order []string
	bus.SubscribeTierRenamed(func(ctx context.Context, ev events.TierRenamed) error {
		order = append(order, "first")
		return nil
	})
	bus.SubscribeTierRenamed(func(ctx context.Context, ev events.TierRenamed) error {
		order = append(order, "second")
		return nil
	})

	err := bus.PublishTierRenamed(context.Background(), events.TierRenamed{
		TierID:  1,
		OldName: "Gold",
		NewName: "Platinum",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestPublishReturnsFirstErrorButRunsAll(t *testing.T) {
	bus := events.NewBus()

	first := errors.New("first failure")
	ran := 0
	bus.SubscribeOfferCreated(func(ctx context.Context, ev events.OfferCreated) error {
		ran++
		return first
	})
	bus.SubscribeOfferCreated(func(ctx context.Context, ev events.OfferCreated) error {
		ran++
		return errors.New("second failure")
	})

	err := bus.PublishOfferCreated(context.Background(), events.OfferCreated{OfferID: 1})
	assert.ErrorIs(t, err, first)
	assert.Equal(t, 2, ran)
}

func TestPublishWithoutSubscribersIsNoOp(t *testing.T) {
	bus := events.NewBus()
	assert.NoError(t, bus.PublishTierCreated(context.Background(), events.TierCreated{TierID: 1}))
	assert.NoError(t, bus.PublishTierPriceChanged(context.Background(), events.TierPriceChanged{TierID: 1}))
}
