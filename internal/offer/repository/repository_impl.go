package repository

import (
	"context"
	"time"

	"github.com/inkpress/inkpress/internal/offer/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, offer *domain.Offer) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO offers (id, tier_id, kind, amount, currency, duration, duration_in_months, coupon_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		offer.ID,
		offer.TierID,
		offer.Kind,
		offer.Amount,
		offer.Currency,
		offer.Duration,
		offer.DurationInMonths,
		offer.CouponID,
		offer.CreatedAt,
		offer.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id int64) (*domain.Offer, error) {
	var o domain.Offer
	err := db.WithContext(ctx).Raw(
		`SELECT id, tier_id, kind, amount, currency, duration, duration_in_months, coupon_id, created_at, updated_at
		 FROM offers WHERE id = ?`,
		id,
	).Scan(&o).Error
	if err != nil {
		return nil, err
	}
	if o.ID == 0 {
		return nil, nil
	}
	return &o, nil
}

func (r *repo) FindAll(ctx context.Context, db *gorm.DB) ([]domain.Offer, error) {
	var items []domain.Offer
	err := db.WithContext(ctx).Raw(
		`SELECT id, tier_id, kind, amount, currency, duration, duration_in_months, coupon_id, created_at, updated_at
		 FROM offers ORDER BY created_at ASC`,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) UpdateCouponID(ctx context.Context, db *gorm.DB, id int64, couponID string) error {
	return db.WithContext(ctx).Exec(
		`UPDATE offers SET coupon_id = ?, updated_at = ? WHERE id = ?`,
		couponID,
		time.Now().UTC(),
		id,
	).Error
}
