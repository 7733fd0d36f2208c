package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, tier *Tier) error
	FindByID(ctx context.Context, db *gorm.DB, id int64) (*Tier, error)
	FindBySlug(ctx context.Context, db *gorm.DB, slug string) (*Tier, error)
	FindAll(ctx context.Context, db *gorm.DB) ([]Tier, error)
	Update(ctx context.Context, db *gorm.DB, tier *Tier) error
}
