package domain

import (
	"context"
	"errors"
	"time"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	Rename(ctx context.Context, req RenameRequest) (*Response, error)
	ChangePrice(ctx context.Context, req ChangePriceRequest) (*Response, error)
	Get(ctx context.Context, id string) (*Response, error)
	List(ctx context.Context) ([]Response, error)
}

type CreateRequest struct {
	Name          string         `json:"name"`
	Currency      string         `json:"currency"`
	MonthlyAmount int64          `json:"monthly_amount"`
	YearlyAmount  int64          `json:"yearly_amount"`
	TrialDays     int            `json:"trial_days"`
	Kind          string         `json:"kind"`
	Metadata      map[string]any `json:"metadata"`
}

type RenameRequest struct {
	ID   string `json:"-"`
	Name string `json:"name"`
}

type ChangePriceRequest struct {
	ID            string `json:"-"`
	Currency      string `json:"currency"`
	MonthlyAmount *int64 `json:"monthly_amount"`
	YearlyAmount  *int64 `json:"yearly_amount"`
}

type Response struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Slug          string         `json:"slug"`
	Currency      string         `json:"currency"`
	MonthlyAmount int64          `json:"monthly_amount"`
	YearlyAmount  int64          `json:"yearly_amount"`
	TrialDays     int            `json:"trial_days"`
	Kind          string         `json:"kind"`
	Active        bool           `json:"active"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

var (
	ErrInvalidName     = errors.New("invalid_name")
	ErrInvalidCurrency = errors.New("invalid_currency")
	ErrInvalidAmount   = errors.New("invalid_amount")
	ErrInvalidKind     = errors.New("invalid_kind")
	ErrInvalidID       = errors.New("invalid_id")
	ErrNotFound        = errors.New("not_found")
	ErrSlugTaken       = errors.New("slug_taken")
)
