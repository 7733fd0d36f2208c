package domain

import (
	"context"
	"errors"
)

var (
	ErrInvalidSignature = errors.New("invalid_signature")
	ErrInvalidPayload   = errors.New("invalid_payload")
	ErrInvalidEvent     = errors.New("invalid_event")
	ErrProviderRequest  = errors.New("provider_request_failed")
)

type Customer struct {
	ID      string
	Email   string
	Name    string
	Deleted bool
}

type Product struct {
	ID     string
	Name   string
	Active bool
}

type Price struct {
	ID       string
	Currency string
	Amount   int64
	Active   bool
	Nickname string
	// Interval is empty for one-time prices.
	Interval string
}

type Coupon struct {
	ID   string
	Name string
}

type CheckoutSession struct {
	ID  string
	URL string
}

type CreateProductParams struct {
	Name           string
	IdempotencyKey string
}

type UpdateProductParams struct {
	Name string
}

type CreatePriceParams struct {
	ProductID string
	Currency  string
	Amount    int64
	// Interval is empty for one-time prices.
	Interval string
	Nickname string
	// CustomAmount allows the payer to enter their own amount, with
	// Amount as the preset when it is positive.
	CustomAmount   bool
	IdempotencyKey string
}

type UpdatePriceParams struct {
	Nickname string
}

type CreateCouponParams struct {
	Name             string
	PercentOff       int64
	AmountOff        int64
	Currency         string
	Duration         string
	DurationInMonths int
	IdempotencyKey   string
}

type CheckoutSessionParams struct {
	PriceID    string
	CustomerID string
	// CustomerEmail seeds the session when no persisted customer is
	// attached.
	CustomerEmail string
	TrialDays     int
	CouponID      string
	SuccessURL    string
	CancelURL     string
	Metadata      map[string]string
}

type DonationSessionParams struct {
	PriceID       string
	CustomerID    string
	CustomerEmail string
	PersonalNote  string
	SuccessURL    string
	CancelURL     string
	Metadata      map[string]string
}

// EventType values are the normalized webhook event names. Invoice
// payment events are folded into the payment pair by ParseEvent.
type EventType string

const (
	EventPaymentSucceeded      EventType = "payment.succeeded"
	EventPaymentFailed         EventType = "payment.failed"
	EventSubscriptionCreated   EventType = "subscription.created"
	EventSubscriptionUpdated   EventType = "subscription.updated"
	EventSubscriptionCancelled EventType = "subscription.cancelled"
	EventCustomerCreated       EventType = "customer.created"
	EventCustomerUpdated       EventType = "customer.updated"
	EventUnknown               EventType = "unknown"
)

// Event is a provider webhook event reduced to the fields the
// projector acts on.
type Event struct {
	ID   string
	Type EventType
	// RawType preserves the provider's type string for unknown events.
	RawType    string
	CustomerID string
	// Email is the payer email fallback for payment events.
	Email string
	Name  string
	// PriceID identifies the subscribed price on subscription events.
	PriceID string
	// Status is the provider subscription status, empty otherwise.
	Status string
}

// Provider is the payment provider surface the reconciler and
// projector depend on.
type Provider interface {
	CreateCustomer(ctx context.Context, email, name string) (*Customer, error)
	GetCustomer(ctx context.Context, id string) (*Customer, error)

	CreateProduct(ctx context.Context, params CreateProductParams) (*Product, error)
	GetProduct(ctx context.Context, id string) (*Product, error)
	UpdateProduct(ctx context.Context, id string, params UpdateProductParams) (*Product, error)

	CreatePrice(ctx context.Context, params CreatePriceParams) (*Price, error)
	GetPrice(ctx context.Context, id string) (*Price, error)
	UpdatePrice(ctx context.Context, id string, params UpdatePriceParams) (*Price, error)

	CreateCoupon(ctx context.Context, params CreateCouponParams) (*Coupon, error)

	CreateCheckoutSession(ctx context.Context, params CheckoutSessionParams) (*CheckoutSession, error)
	CreateDonationCheckoutSession(ctx context.Context, params DonationSessionParams) (*CheckoutSession, error)

	VerifySignature(payload []byte, header string) error
	ParseEvent(payload []byte) (*Event, error)
}
