package repository

import (
	"context"

	"github.com/inkpress/inkpress/internal/tier/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, tier *domain.Tier) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO tiers (id, name, slug, currency, monthly_amount, yearly_amount, trial_days, kind, active, metadata, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tier.ID,
		tier.Name,
		tier.Slug,
		tier.Currency,
		tier.MonthlyAmount,
		tier.YearlyAmount,
		tier.TrialDays,
		tier.Kind,
		tier.Active,
		tier.Metadata,
		tier.CreatedAt,
		tier.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id int64) (*domain.Tier, error) {
	var t domain.Tier
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, slug, currency, monthly_amount, yearly_amount, trial_days, kind, active, metadata, created_at, updated_at
		 FROM tiers WHERE id = ?`,
		id,
	).Scan(&t).Error
	if err != nil {
		return nil, err
	}
	if t.ID == 0 {
		return nil, nil
	}
	return &t, nil
}

func (r *repo) FindBySlug(ctx context.Context, db *gorm.DB, slug string) (*domain.Tier, error) {
	var t domain.Tier
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, slug, currency, monthly_amount, yearly_amount, trial_days, kind, active, metadata, created_at, updated_at
		 FROM tiers WHERE slug = ?`,
		slug,
	).Scan(&t).Error
	if err != nil {
		return nil, err
	}
	if t.ID == 0 {
		return nil, nil
	}
	return &t, nil
}

func (r *repo) FindAll(ctx context.Context, db *gorm.DB) ([]domain.Tier, error) {
	var items []domain.Tier
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, slug, currency, monthly_amount, yearly_amount, trial_days, kind, active, metadata, created_at, updated_at
		 FROM tiers ORDER BY created_at ASC`,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, tier *domain.Tier) error {
	if tier == nil {
		return gorm.ErrInvalidData
	}
	return db.WithContext(ctx).Exec(
		`UPDATE tiers
		 SET name = ?, slug = ?, currency = ?, monthly_amount = ?, yearly_amount = ?, trial_days = ?, kind = ?, active = ?, metadata = ?, updated_at = ?
		 WHERE id = ?`,
		tier.Name,
		tier.Slug,
		tier.Currency,
		tier.MonthlyAmount,
		tier.YearlyAmount,
		tier.TrialDays,
		tier.Kind,
		tier.Active,
		tier.Metadata,
		tier.UpdatedAt,
		tier.ID,
	).Error
}
