package domain

import (
	"context"

	"gorm.io/gorm"
)

// Entitlement is the projected subscription state for a member.
type Entitlement struct {
	Status     Status
	Subscribed bool
	TierID     *int64
}

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, member *Member) error
	FindByID(ctx context.Context, db *gorm.DB, id int64) (*Member, error)
	FindByEmail(ctx context.Context, db *gorm.DB, email string) (*Member, error)
	UpdateEntitlement(ctx context.Context, db *gorm.DB, id int64, ent Entitlement) error
	UpdateProfile(ctx context.Context, db *gorm.DB, id int64, email, name string) error
}
