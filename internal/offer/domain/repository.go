package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, offer *Offer) error
	FindByID(ctx context.Context, db *gorm.DB, id int64) (*Offer, error)
	FindAll(ctx context.Context, db *gorm.DB) ([]Offer, error)
	UpdateCouponID(ctx context.Context, db *gorm.DB, id int64, couponID string) error
}
