package domain

import (
	"errors"
	"time"
)

type Status string

const (
	StatusFree Status = "free"
	StatusPaid Status = "paid"
)

type Member struct {
	ID         int64     `json:"id" gorm:"primaryKey"`
	Email      string    `json:"email" gorm:"type:text;not null;uniqueIndex:ux_members_email"`
	Name       string    `json:"name" gorm:"type:text;not null;default:''"`
	Status     Status    `json:"status" gorm:"type:text;not null;default:free"`
	Subscribed bool      `json:"subscribed" gorm:"not null;default:false"`
	TierID     *int64    `json:"tier_id,omitempty"`
	CreatedAt  time.Time `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt  time.Time `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Member) TableName() string { return "members" }

var (
	ErrNotFound     = errors.New("not_found")
	ErrInvalidEmail = errors.New("invalid_email")
)
