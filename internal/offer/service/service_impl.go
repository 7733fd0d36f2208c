package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/inkpress/inkpress/internal/events"
	"github.com/inkpress/inkpress/internal/offer/domain"
	tierdomain "github.com/inkpress/inkpress/internal/tier/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Repo     domain.Repository
	TierRepo tierdomain.Repository
	Bus      *events.Bus
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	repo     domain.Repository
	tierRepo tierdomain.Repository
	genID    *snowflake.Node
	bus      *events.Bus
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("offer.service"),
		repo:     p.Repo,
		tierRepo: p.TierRepo,
		genID:    p.GenID,
		bus:      p.Bus,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Response, error) {
	tierID, err := snowflake.ParseString(strings.TrimSpace(req.TierID))
	if err != nil {
		return nil, domain.ErrInvalidTier
	}
	tier, err := s.tierRepo.FindByID(ctx, s.db, tierID.Int64())
	if err != nil {
		return nil, err
	}
	if tier == nil {
		return nil, domain.ErrInvalidTier
	}

	var kind domain.Kind
	switch domain.Kind(strings.TrimSpace(req.Kind)) {
	case domain.KindPercent:
		kind = domain.KindPercent
		if req.Amount <= 0 || req.Amount > 100 {
			return nil, domain.ErrInvalidAmount
		}
	case domain.KindFixed:
		kind = domain.KindFixed
		if req.Amount <= 0 {
			return nil, domain.ErrInvalidAmount
		}
	case domain.KindTrial:
		kind = domain.KindTrial
		if req.Amount <= 0 {
			return nil, domain.ErrInvalidAmount
		}
	default:
		return nil, domain.ErrInvalidKind
	}

	currency := strings.ToLower(strings.TrimSpace(req.Currency))
	if kind == domain.KindFixed {
		if currency == "" {
			currency = tier.Currency
		}
		if len(currency) != 3 {
			return nil, domain.ErrInvalidCurrency
		}
	} else {
		currency = ""
	}

	duration := domain.DurationOnce
	switch domain.Duration(strings.TrimSpace(req.Duration)) {
	case "", domain.DurationOnce:
	case domain.DurationForever:
		duration = domain.DurationForever
	case domain.DurationRepeating:
		duration = domain.DurationRepeating
		if req.DurationInMonths <= 0 {
			return nil, domain.ErrInvalidDuration
		}
	default:
		return nil, domain.ErrInvalidDuration
	}

	durationInMonths := 0
	if duration == domain.DurationRepeating {
		durationInMonths = req.DurationInMonths
	}

	now := time.Now().UTC()
	o := &domain.Offer{
		ID:               s.genID.Generate().Int64(),
		TierID:           tierID.Int64(),
		Kind:             kind,
		Amount:           req.Amount,
		Currency:         currency,
		Duration:         duration,
		DurationInMonths: durationInMonths,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.repo.Create(ctx, s.db, o); err != nil {
		return nil, err
	}

	if err := s.bus.PublishOfferCreated(ctx, events.OfferCreated{OfferID: o.ID}); err != nil {
		s.log.Error("offer created reaction failed",
			zap.Int64("offer_id", o.ID), zap.Error(err))
	}

	resp := s.toResponse(o)
	return &resp, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Response, error) {
	offerID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	item, err := s.repo.FindByID(ctx, s.db, offerID.Int64())
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}

	resp := s.toResponse(item)
	return &resp, nil
}

func (s *Service) List(ctx context.Context) ([]domain.Response, error) {
	items, err := s.repo.FindAll(ctx, s.db)
	if err != nil {
		return nil, err
	}

	resp := make([]domain.Response, 0, len(items))
	for _, item := range items {
		resp = append(resp, s.toResponse(&item))
	}
	return resp, nil
}

func (s *Service) SetCouponID(ctx context.Context, id string, couponID string) error {
	offerID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return domain.ErrInvalidID
	}
	couponID = strings.TrimSpace(couponID)
	if couponID == "" {
		return domain.ErrInvalidID
	}
	return s.repo.UpdateCouponID(ctx, s.db, offerID.Int64(), couponID)
}

func (s *Service) toResponse(o *domain.Offer) domain.Response {
	return domain.Response{
		ID:               snowflake.ID(o.ID).String(),
		TierID:           snowflake.ID(o.TierID).String(),
		Kind:             string(o.Kind),
		Amount:           o.Amount,
		Currency:         o.Currency,
		Duration:         string(o.Duration),
		DurationInMonths: o.DurationInMonths,
		CouponID:         o.CouponID,
		CreatedAt:        o.CreatedAt,
		UpdatedAt:        o.UpdatedAt,
	}
}
