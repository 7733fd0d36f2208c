package domain

import (
	"time"

	"gorm.io/datatypes"
)

type Kind string

const (
	KindFree Kind = "free"
	KindPaid Kind = "paid"
)

type Cadence string

const (
	CadenceMonth Cadence = "month"
	CadenceYear  Cadence = "year"
)

func ParseCadence(value string) (Cadence, bool) {
	switch Cadence(value) {
	case CadenceMonth:
		return CadenceMonth, true
	case CadenceYear:
		return CadenceYear, true
	default:
		return "", false
	}
}

type Tier struct {
	ID            int64             `json:"id" gorm:"primaryKey"`
	Name          string            `json:"name" gorm:"type:text;not null"`
	Slug          string            `json:"slug" gorm:"type:text;not null;uniqueIndex:ux_tiers_slug"`
	Currency      string            `json:"currency" gorm:"type:text;not null"`
	MonthlyAmount int64             `json:"monthly_amount" gorm:"not null;default:0"`
	YearlyAmount  int64             `json:"yearly_amount" gorm:"not null;default:0"`
	TrialDays     int               `json:"trial_days" gorm:"not null;default:0"`
	Kind          Kind              `json:"kind" gorm:"type:text;not null;default:paid"`
	Active        bool              `json:"active" gorm:"not null;default:true"`
	Metadata      datatypes.JSONMap `json:"metadata,omitempty" gorm:"type:jsonb"`
	CreatedAt     time.Time         `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt     time.Time         `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Tier) TableName() string { return "tiers" }

// AmountFor returns the charge amount in minor units for the cadence.
func (t *Tier) AmountFor(cadence Cadence) int64 {
	if cadence == CadenceYear {
		return t.YearlyAmount
	}
	return t.MonthlyAmount
}
