package domain

import "time"

type Kind string

const (
	KindPercent Kind = "percent"
	KindFixed   Kind = "fixed"
	KindTrial   Kind = "trial"
)

type Duration string

const (
	DurationOnce      Duration = "once"
	DurationRepeating Duration = "repeating"
	DurationForever   Duration = "forever"
)

type Offer struct {
	ID               int64     `json:"id" gorm:"primaryKey"`
	TierID           int64     `json:"tier_id" gorm:"not null;index:ix_offers_tier_id"`
	Kind             Kind      `json:"kind" gorm:"type:text;not null"`
	Amount           int64     `json:"amount" gorm:"not null;default:0"`
	Currency         string    `json:"currency" gorm:"type:text;not null;default:''"`
	Duration         Duration  `json:"duration" gorm:"type:text;not null;default:once"`
	DurationInMonths int       `json:"duration_in_months" gorm:"not null;default:0"`
	CouponID         *string   `json:"coupon_id,omitempty" gorm:"type:text"`
	CreatedAt        time.Time `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt        time.Time `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Offer) TableName() string { return "offers" }

// NeedsCoupon reports whether the offer maps to a provider coupon.
// Trial offers are expressed as a trial period on the checkout
// session, never as a coupon.
func (o *Offer) NeedsCoupon() bool {
	return o.Kind != KindTrial
}
