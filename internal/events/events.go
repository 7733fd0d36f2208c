package events

import (
	"context"
	"sync"
)

// TierCreated is published after a tier row is persisted.
type TierCreated struct {
	TierID int64
}

// TierRenamed is published after a tier name change is persisted.
type TierRenamed struct {
	TierID  int64
	OldName string
	NewName string
}

// TierPriceChanged is published after a tier amount or currency change.
type TierPriceChanged struct {
	TierID int64
}

// OfferCreated is published after an offer row is persisted.
type OfferCreated struct {
	OfferID int64
}

type (
	TierCreatedHandler      func(ctx context.Context, ev TierCreated) error
	TierRenamedHandler      func(ctx context.Context, ev TierRenamed) error
	TierPriceChangedHandler func(ctx context.Context, ev TierPriceChanged) error
	OfferCreatedHandler     func(ctx context.Context, ev OfferCreated) error
)

// Bus dispatches domain events to registered subscribers in process.
// Dispatch is synchronous and subscriber errors are returned to the
// publisher; publishers decide whether a failed reaction is fatal.
type Bus struct {
	mu sync.RWMutex

	tierCreated      []TierCreatedHandler
	tierRenamed      []TierRenamedHandler
	tierPriceChanged []TierPriceChangedHandler
	offerCreated     []OfferCreatedHandler
}

func NewBus() *Bus {
	return &Bus{}
}

func (b *Bus) SubscribeTierCreated(h TierCreatedHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tierCreated = append(b.tierCreated, h)
}

func (b *Bus) SubscribeTierRenamed(h TierRenamedHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tierRenamed = append(b.tierRenamed, h)
}

func (b *Bus) SubscribeTierPriceChanged(h TierPriceChangedHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tierPriceChanged = append(b.tierPriceChanged, h)
}

func (b *Bus) SubscribeOfferCreated(h OfferCreatedHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.offerCreated = append(b.offerCreated, h)
}

func (b *Bus) PublishTierCreated(ctx context.Context, ev TierCreated) error {
	b.mu.RLock()
	handlers := b.tierCreated
	b.mu.RUnlock()
	return dispatch(ctx, handlers, ev)
}

func (b *Bus) PublishTierRenamed(ctx context.Context, ev TierRenamed) error {
	b.mu.RLock()
	handlers := b.tierRenamed
	b.mu.RUnlock()
	return dispatch(ctx, handlers, ev)
}

func (b *Bus) PublishTierPriceChanged(ctx context.Context, ev TierPriceChanged) error {
	b.mu.RLock()
	handlers := b.tierPriceChanged
	b.mu.RUnlock()
	return dispatch(ctx, handlers, ev)
}

func (b *Bus) PublishOfferCreated(ctx context.Context, ev OfferCreated) error {
	b.mu.RLock()
	handlers := b.offerCreated
	b.mu.RUnlock()
	return dispatch(ctx, handlers, ev)
}

func dispatch[T any](ctx context.Context, handlers []func(ctx context.Context, ev T) error, ev T) error {
	var firstErr error
	for _, h := range handlers {
		if err := h(ctx, ev); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
