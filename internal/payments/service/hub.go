package service

import (
	"context"

	"github.com/inkpress/inkpress/internal/events"
	"github.com/inkpress/inkpress/internal/payments/domain"
	tierdomain "github.com/inkpress/inkpress/internal/tier/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type HubParams struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	TierRepo   tierdomain.Repository
	Reconciler domain.CatalogReconciler
}

// Hub binds catalog reconciliation to domain events so the provider
// mirror self-updates as soon as the catalog changes. Reactions
// return their provider errors to the bus; publishers log them
// without failing the original mutation.
type Hub struct {
	db         *gorm.DB
	log        *zap.Logger
	tierRepo   tierdomain.Repository
	reconciler domain.CatalogReconciler
}

func NewHub(p HubParams) *Hub {
	return &Hub{
		db:         p.DB,
		log:        p.Log.Named("payments.hub"),
		tierRepo:   p.TierRepo,
		reconciler: p.Reconciler,
	}
}

// Register subscribes the catalog reactions once, at process start.
func (h *Hub) Register(bus *events.Bus) {
	bus.SubscribeOfferCreated(h.onOfferCreated)
	bus.SubscribeTierCreated(h.onTierCreated)
	bus.SubscribeTierPriceChanged(h.onTierPriceChanged)
	bus.SubscribeTierRenamed(h.onTierRenamed)
}

func (h *Hub) onOfferCreated(ctx context.Context, ev events.OfferCreated) error {
	_, err := h.reconciler.ResolveOrCreateCoupon(ctx, ev.OfferID)
	return err
}

func (h *Hub) onTierCreated(ctx context.Context, ev events.TierCreated) error {
	return h.reconcileTierPrices(ctx, ev.TierID)
}

func (h *Hub) onTierPriceChanged(ctx context.Context, ev events.TierPriceChanged) error {
	return h.reconcileTierPrices(ctx, ev.TierID)
}

func (h *Hub) onTierRenamed(ctx context.Context, ev events.TierRenamed) error {
	tier, err := h.paidTier(ctx, ev.TierID)
	if err != nil || tier == nil {
		return err
	}
	return h.reconciler.RenameProducts(ctx, tier.ID, ev.NewName)
}

func (h *Hub) reconcileTierPrices(ctx context.Context, tierID int64) error {
	tier, err := h.paidTier(ctx, tierID)
	if err != nil || tier == nil {
		return err
	}
	if _, err := h.reconciler.ResolveOrCreatePrice(ctx, tier, tierdomain.CadenceMonth); err != nil {
		return err
	}
	_, err = h.reconciler.ResolveOrCreatePrice(ctx, tier, tierdomain.CadenceYear)
	return err
}

// paidTier loads the tier and filters out free tiers, which have no
// provider mirror.
func (h *Hub) paidTier(ctx context.Context, tierID int64) (*tierdomain.Tier, error) {
	tier, err := h.tierRepo.FindByID(ctx, h.db, tierID)
	if err != nil {
		return nil, err
	}
	if tier == nil {
		h.log.Warn("catalog reaction for missing tier", zap.Int64("tier_id", tierID))
		return nil, nil
	}
	if tier.Kind != tierdomain.KindPaid {
		return nil, nil
	}
	return tier, nil
}
