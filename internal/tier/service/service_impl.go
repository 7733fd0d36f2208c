package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/inkpress/inkpress/internal/events"
	"github.com/inkpress/inkpress/internal/tier/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
	Bus   *events.Bus
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	repo  domain.Repository
	genID *snowflake.Node
	bus   *events.Bus
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("tier.service"),
		repo:  p.Repo,
		genID: p.GenID,
		bus:   p.Bus,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Response, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}

	currency := strings.ToLower(strings.TrimSpace(req.Currency))
	if len(currency) != 3 {
		return nil, domain.ErrInvalidCurrency
	}

	kind := domain.KindPaid
	switch strings.TrimSpace(req.Kind) {
	case "", string(domain.KindPaid):
	case string(domain.KindFree):
		kind = domain.KindFree
	default:
		return nil, domain.ErrInvalidKind
	}

	if kind == domain.KindPaid && req.MonthlyAmount <= 0 && req.YearlyAmount <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	if req.MonthlyAmount < 0 || req.YearlyAmount < 0 || req.TrialDays < 0 {
		return nil, domain.ErrInvalidAmount
	}

	tierSlug := slug.Make(name)
	existing, err := s.repo.FindBySlug(ctx, s.db, tierSlug)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrSlugTaken
	}

	now := time.Now().UTC()
	t := &domain.Tier{
		ID:            s.genID.Generate().Int64(),
		Name:          name,
		Slug:          tierSlug,
		Currency:      currency,
		MonthlyAmount: req.MonthlyAmount,
		YearlyAmount:  req.YearlyAmount,
		TrialDays:     req.TrialDays,
		Kind:          kind,
		Active:        true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if req.Metadata != nil {
		t.Metadata = datatypes.JSONMap(req.Metadata)
	}
	if err := s.repo.Create(ctx, s.db, t); err != nil {
		return nil, err
	}

	if err := s.bus.PublishTierCreated(ctx, events.TierCreated{TierID: t.ID}); err != nil {
		s.log.Error("tier created reaction failed",
			zap.Int64("tier_id", t.ID), zap.Error(err))
	}

	resp := s.toResponse(t)
	return &resp, nil
}

func (s *Service) Rename(ctx context.Context, req domain.RenameRequest) (*domain.Response, error) {
	tierID, err := snowflake.ParseString(strings.TrimSpace(req.ID))
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}

	item, err := s.repo.FindByID(ctx, s.db, tierID.Int64())
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}

	oldName := item.Name
	if oldName == name {
		resp := s.toResponse(item)
		return &resp, nil
	}

	item.Name = name
	item.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, s.db, item); err != nil {
		return nil, err
	}

	if err := s.bus.PublishTierRenamed(ctx, events.TierRenamed{
		TierID:  item.ID,
		OldName: oldName,
		NewName: name,
	}); err != nil {
		s.log.Error("tier renamed reaction failed",
			zap.Int64("tier_id", item.ID), zap.Error(err))
	}

	resp := s.toResponse(item)
	return &resp, nil
}

func (s *Service) ChangePrice(ctx context.Context, req domain.ChangePriceRequest) (*domain.Response, error) {
	tierID, err := snowflake.ParseString(strings.TrimSpace(req.ID))
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	item, err := s.repo.FindByID(ctx, s.db, tierID.Int64())
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}

	changed := false
	if currency := strings.ToLower(strings.TrimSpace(req.Currency)); currency != "" {
		if len(currency) != 3 {
			return nil, domain.ErrInvalidCurrency
		}
		if currency != item.Currency {
			item.Currency = currency
			changed = true
		}
	}
	if req.MonthlyAmount != nil {
		if *req.MonthlyAmount < 0 {
			return nil, domain.ErrInvalidAmount
		}
		if *req.MonthlyAmount != item.MonthlyAmount {
			item.MonthlyAmount = *req.MonthlyAmount
			changed = true
		}
	}
	if req.YearlyAmount != nil {
		if *req.YearlyAmount < 0 {
			return nil, domain.ErrInvalidAmount
		}
		if *req.YearlyAmount != item.YearlyAmount {
			item.YearlyAmount = *req.YearlyAmount
			changed = true
		}
	}

	if !changed {
		resp := s.toResponse(item)
		return &resp, nil
	}

	item.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, s.db, item); err != nil {
		return nil, err
	}

	if err := s.bus.PublishTierPriceChanged(ctx, events.TierPriceChanged{TierID: item.ID}); err != nil {
		s.log.Error("tier price changed reaction failed",
			zap.Int64("tier_id", item.ID), zap.Error(err))
	}

	resp := s.toResponse(item)
	return &resp, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Response, error) {
	tierID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	item, err := s.repo.FindByID(ctx, s.db, tierID.Int64())
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

func (s *Service) toResponse(t *domain.Tier) domain.Response {
	resp := domain.Response{
		ID:            snowflake.ID(t.ID).String(),
		Name:          t.Name,
		Slug:          t.Slug,
		Currency:      t.Currency,
		MonthlyAmount: t.MonthlyAmount,
		YearlyAmount:  t.YearlyAmount,
		TrialDays:     t.TrialDays,
		Kind:          string(t.Kind),
		Active:        t.Active,
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
	}
	if len(t.Metadata) > 0 {
		resp.Metadata = map[string]any(t.Metadata)
	}
	return resp
}
