package repository

import (
	"context"
	"time"

	"github.com/inkpress/inkpress/internal/payments/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) CreateCustomerLink(ctx context.Context, db *gorm.DB, link *domain.CustomerLink) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO customer_links (id, member_id, provider_customer_id, email, name, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		link.ID,
		link.MemberID,
		link.ProviderCustomerID,
		link.Email,
		link.Name,
		link.CreatedAt,
		link.UpdatedAt,
	).Error
}

func (r *repo) FindCustomerLinksByMember(ctx context.Context, db *gorm.DB, memberID int64) ([]domain.CustomerLink, error) {
	var items []domain.CustomerLink
	err := db.WithContext(ctx).Raw(
		`SELECT id, member_id, provider_customer_id, email, name, created_at, updated_at
		 FROM customer_links WHERE member_id = ? ORDER BY created_at ASC`,
		memberID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) FindCustomerLinkByProviderID(ctx context.Context, db *gorm.DB, providerCustomerID string) (*domain.CustomerLink, error) {
	var link domain.CustomerLink
	err := db.WithContext(ctx).Raw(
		`SELECT id, member_id, provider_customer_id, email, name, created_at, updated_at
		 FROM customer_links WHERE provider_customer_id = ? ORDER BY created_at ASC LIMIT 1`,
		providerCustomerID,
	).Scan(&link).Error
	if err != nil {
		return nil, err
	}
	if link.ID == 0 {
		return nil, nil
	}
	return &link, nil
}

func (r *repo) CreateProductLink(ctx context.Context, db *gorm.DB, link *domain.ProductLink) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO product_links (id, tier_id, provider_product_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		link.ID,
		link.TierID,
		link.ProviderProductID,
		link.CreatedAt,
		link.UpdatedAt,
	).Error
}

func (r *repo) FindProductLinksByTier(ctx context.Context, db *gorm.DB, tierID *int64) ([]domain.ProductLink, error) {
	var items []domain.ProductLink
	var err error
	if tierID == nil {
		err = db.WithContext(ctx).Raw(
			`SELECT id, tier_id, provider_product_id, created_at, updated_at
			 FROM product_links WHERE tier_id IS NULL ORDER BY created_at ASC`,
		).Scan(&items).Error
	} else {
		err = db.WithContext(ctx).Raw(
			`SELECT id, tier_id, provider_product_id, created_at, updated_at
			 FROM product_links WHERE tier_id = ? ORDER BY created_at ASC`,
			*tierID,
		).Scan(&items).Error
	}
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) FindProductLinkByProviderID(ctx context.Context, db *gorm.DB, providerProductID string) (*domain.ProductLink, error) {
	var link domain.ProductLink
	err := db.WithContext(ctx).Raw(
		`SELECT id, tier_id, provider_product_id, created_at, updated_at
		 FROM product_links WHERE provider_product_id = ? ORDER BY created_at ASC LIMIT 1`,
		providerProductID,
	).Scan(&link).Error
	if err != nil {
		return nil, err
	}
	if link.ID == 0 {
		return nil, nil
	}
	return &link, nil
}

func (r *repo) CreatePriceLink(ctx context.Context, db *gorm.DB, link *domain.PriceLink) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO price_links (id, provider_product_id, provider_price_id, tier_id, currency, amount, billing_interval, kind, active, nickname, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		link.ID,
		link.ProviderProductID,
		link.ProviderPriceID,
		link.TierID,
		link.Currency,
		link.Amount,
		link.Interval,
		link.Kind,
		link.Active,
		link.Nickname,
		link.CreatedAt,
		link.UpdatedAt,
	).Error
}

func (r *repo) FindPriceLinks(ctx context.Context, db *gorm.DB, filter domain.PriceLinkFilter) ([]domain.PriceLink, error) {
	stmt := db.WithContext(ctx).Model(&domain.PriceLink{})

	if filter.ProviderProductID != "" {
		stmt = stmt.Where("provider_product_id = ?", filter.ProviderProductID)
	}
	if filter.Currency != "" {
		stmt = stmt.Where("currency = ?", filter.Currency)
	}
	if filter.Amount != nil {
		stmt = stmt.Where("amount = ?", *filter.Amount)
	}
	if filter.Interval != "" {
		stmt = stmt.Where("billing_interval = ?", filter.Interval)
	}
	if filter.Kind != "" {
		stmt = stmt.Where("kind = ?", filter.Kind)
	}
	if filter.ActiveOnly {
		stmt = stmt.Where("active = ?", true)
	}

	var items []domain.PriceLink
	if err := stmt.Order("created_at ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) FindPriceLinkByProviderID(ctx context.Context, db *gorm.DB, providerPriceID string) (*domain.PriceLink, error) {
	var link domain.PriceLink
	err := db.WithContext(ctx).Raw(
		`SELECT id, provider_product_id, provider_price_id, tier_id, currency, amount, billing_interval, kind, active, nickname, created_at, updated_at
		 FROM price_links WHERE provider_price_id = ? ORDER BY created_at ASC LIMIT 1`,
		providerPriceID,
	).Scan(&link).Error
	if err != nil {
		return nil, err
	}
	if link.ID == 0 {
		return nil, nil
	}
	return &link, nil
}

func (r *repo) DeactivatePriceLink(ctx context.Context, db *gorm.DB, id int64) error {
	return db.WithContext(ctx).Exec(
		`UPDATE price_links SET active = ?, updated_at = ? WHERE id = ?`,
		false,
		time.Now().UTC(),
		id,
	).Error
}

func (r *repo) UpdatePriceLinkNickname(ctx context.Context, db *gorm.DB, id int64, nickname string) error {
	return db.WithContext(ctx).Exec(
		`UPDATE price_links SET nickname = ?, updated_at = ? WHERE id = ?`,
		nickname,
		time.Now().UTC(),
		id,
	).Error
}
