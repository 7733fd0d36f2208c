package domain

import (
	"context"

	"gorm.io/gorm"
)

// PriceLinkFilter narrows the PriceLink scan. Zero values are
// ignored except ActiveOnly.
type PriceLinkFilter struct {
	ProviderProductID string
	Currency          string
	Amount            *int64
	Interval          Interval
	Kind              PriceKind
	ActiveOnly        bool
}

type Repository interface {
	CreateCustomerLink(ctx context.Context, db *gorm.DB, link *CustomerLink) error
	FindCustomerLinksByMember(ctx context.Context, db *gorm.DB, memberID int64) ([]CustomerLink, error)
	FindCustomerLinkByProviderID(ctx context.Context, db *gorm.DB, providerCustomerID string) (*CustomerLink, error)

	CreateProductLink(ctx context.Context, db *gorm.DB, link *ProductLink) error
	FindProductLinksByTier(ctx context.Context, db *gorm.DB, tierID *int64) ([]ProductLink, error)
	FindProductLinkByProviderID(ctx context.Context, db *gorm.DB, providerProductID string) (*ProductLink, error)

	CreatePriceLink(ctx context.Context, db *gorm.DB, link *PriceLink) error
	FindPriceLinks(ctx context.Context, db *gorm.DB, filter PriceLinkFilter) ([]PriceLink, error)
	FindPriceLinkByProviderID(ctx context.Context, db *gorm.DB, providerPriceID string) (*PriceLink, error)
	DeactivatePriceLink(ctx context.Context, db *gorm.DB, id int64) error
	UpdatePriceLinkNickname(ctx context.Context, db *gorm.DB, id int64, nickname string) error
}
