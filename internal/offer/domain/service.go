package domain

import (
	"context"
	"errors"
	"time"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	Get(ctx context.Context, id string) (*Response, error)
	List(ctx context.Context) ([]Response, error)
	SetCouponID(ctx context.Context, id string, couponID string) error
}

type CreateRequest struct {
	TierID           string `json:"tier_id"`
	Kind             string `json:"kind"`
	Amount           int64  `json:"amount"`
	Currency         string `json:"currency"`
	Duration         string `json:"duration"`
	DurationInMonths int    `json:"duration_in_months"`
}

type Response struct {
	ID               string    `json:"id"`
	TierID           string    `json:"tier_id"`
	Kind             string    `json:"kind"`
	Amount           int64     `json:"amount"`
	Currency         string    `json:"currency,omitempty"`
	Duration         string    `json:"duration"`
	DurationInMonths int       `json:"duration_in_months,omitempty"`
	CouponID         *string   `json:"coupon_id,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

var (
	ErrInvalidTier     = errors.New("invalid_tier")
	ErrInvalidKind     = errors.New("invalid_kind")
	ErrInvalidAmount   = errors.New("invalid_amount")
	ErrInvalidCurrency = errors.New("invalid_currency")
	ErrInvalidDuration = errors.New("invalid_duration")
	ErrInvalidID       = errors.New("invalid_id")
	ErrNotFound        = errors.New("not_found")
)
