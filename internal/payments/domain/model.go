package domain

import "time"

type Interval string

const (
	IntervalMonth Interval = "month"
	IntervalYear  Interval = "year"
	IntervalNone  Interval = "none"
)

type PriceKind string

const (
	PriceKindRecurring PriceKind = "recurring"
	PriceKindDonation  PriceKind = "donation"
)

// CustomerLink maps a member to a provider customer. A member may
// accumulate several rows over time; resolution walks them until a
// live one is found.
type CustomerLink struct {
	ID                 int64     `json:"id" gorm:"primaryKey"`
	MemberID           int64     `json:"member_id" gorm:"not null;index:ix_customer_links_member_id"`
	ProviderCustomerID string    `json:"provider_customer_id" gorm:"type:text;not null;index:ix_customer_links_provider_customer_id"`
	Email              string    `json:"email" gorm:"type:text;not null;default:''"`
	Name               string    `json:"name" gorm:"type:text;not null;default:''"`
	CreatedAt          time.Time `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt          time.Time `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (CustomerLink) TableName() string { return "customer_links" }

// ProductLink maps a tier to a provider product. TierID is null for
// the donation product singleton.
type ProductLink struct {
	ID                int64     `json:"id" gorm:"primaryKey"`
	TierID            *int64    `json:"tier_id,omitempty" gorm:"index:ix_product_links_tier_id"`
	ProviderProductID string    `json:"provider_product_id" gorm:"type:text;not null;index:ix_product_links_provider_product_id"`
	CreatedAt         time.Time `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt         time.Time `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (ProductLink) TableName() string { return "product_links" }

// PriceLink mirrors a provider price. Reconciliation never deletes
// rows, it only flips Active to false when the provider disagrees.
type PriceLink struct {
	ID                int64     `json:"id" gorm:"primaryKey"`
	ProviderProductID string    `json:"provider_product_id" gorm:"type:text;not null;index:ix_price_links_provider_product_id"`
	ProviderPriceID   string    `json:"provider_price_id" gorm:"type:text;not null;index:ix_price_links_provider_price_id"`
	TierID            *int64    `json:"tier_id,omitempty"`
	Currency          string    `json:"currency" gorm:"type:text;not null"`
	Amount            int64     `json:"amount" gorm:"not null"`
	Interval          Interval  `json:"interval" gorm:"column:billing_interval;type:text;not null"`
	Kind              PriceKind `json:"kind" gorm:"type:text;not null"`
	Active            bool      `json:"active" gorm:"not null;default:true"`
	Nickname          string    `json:"nickname" gorm:"type:text;not null;default:''"`
	CreatedAt         time.Time `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt         time.Time `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (PriceLink) TableName() string { return "price_links" }
