package domain

import (
	"context"
	"errors"

	tierdomain "github.com/inkpress/inkpress/internal/tier/domain"
)

var (
	ErrInvalidRequest    = errors.New("invalid_request")
	ErrOfferTierMismatch = errors.New("offer_tier_mismatch")
	ErrTierNotFound      = errors.New("tier_not_found")
	ErrOfferNotFound     = errors.New("offer_not_found")
	ErrMemberNotFound    = errors.New("member_not_found")
)

// CustomerResolver maps members onto provider customers, creating
// one on first use.
type CustomerResolver interface {
	ResolveOrCreateCustomer(ctx context.Context, memberID int64) (*Customer, error)
}

// CatalogReconciler keeps the provider catalog mirror in step with
// tiers and offers. Resolution is scan, verify, heal, then
// fallback-create.
type CatalogReconciler interface {
	ResolveOrCreateProduct(ctx context.Context, tier *tierdomain.Tier) (string, error)
	ResolveOrCreatePrice(ctx context.Context, tier *tierdomain.Tier, cadence tierdomain.Cadence) (string, error)
	ResolveOrCreateDonationPrice(ctx context.Context) (string, error)
	RenameProducts(ctx context.Context, tierID int64, name string) error
	// ResolveOrCreateCoupon returns an empty id for trial offers,
	// which never map to a coupon.
	ResolveOrCreateCoupon(ctx context.Context, offerID int64) (string, error)
}

type TierCheckoutRequest struct {
	TierID     string            `json:"tier_id"`
	Cadence    string            `json:"cadence"`
	OfferID    string            `json:"offer_id"`
	MemberID   string            `json:"member_id"`
	Email      string            `json:"email"`
	Metadata   map[string]string `json:"metadata"`
	SuccessURL string            `json:"success_url"`
	CancelURL  string            `json:"cancel_url"`
}

type DonationCheckoutRequest struct {
	MemberID      string            `json:"member_id"`
	Authenticated bool              `json:"authenticated"`
	Email         string            `json:"email"`
	Metadata      map[string]string `json:"metadata"`
	PersonalNote  string            `json:"personal_note"`
	SuccessURL    string            `json:"success_url"`
	CancelURL     string            `json:"cancel_url"`
}

type CheckoutResponse struct {
	URL string `json:"url"`
}

// CheckoutBuilder composes provider checkout sessions.
type CheckoutBuilder interface {
	BuildTierCheckout(ctx context.Context, req TierCheckoutRequest) (*CheckoutResponse, error)
	BuildDonationCheckout(ctx context.Context, req DonationCheckoutRequest) (*CheckoutResponse, error)
}

// ResultStatus classifies one handler step of a webhook event.
type ResultStatus string

const (
	ResultHandled ResultStatus = "handled"
	ResultSkipped ResultStatus = "skipped"
	ResultFailed  ResultStatus = "failed"
)

// Result is the outcome of a single projector step.
type Result struct {
	Step   string       `json:"step"`
	Status ResultStatus `json:"status"`
	Detail string       `json:"detail,omitempty"`
	Err    error        `json:"-"`
}

// Outcome aggregates everything that happened to one accepted
// webhook event, so partial failure is observable without log
// scraping.
type Outcome struct {
	EventID   string   `json:"event_id"`
	EventType string   `json:"event_type"`
	Results   []Result `json:"results"`
}

// Failed reports whether any step failed.
func (o Outcome) Failed() bool {
	for _, r := range o.Results {
		if r.Status == ResultFailed {
			return true
		}
	}
	return false
}

// Projector turns accepted provider events into member entitlement
// mutations. Handlers are convergent; replaying or reordering events
// reaches the same final state.
type Projector interface {
	Project(ctx context.Context, event *Event) Outcome
}

// WebhookRouter verifies, parses, and dispatches one inbound
// provider webhook delivery.
type WebhookRouter interface {
	// Handle returns ErrInvalidSignature or ErrInvalidPayload when
	// the delivery must be rejected; any other outcome acknowledges.
	Handle(ctx context.Context, payload []byte, signatureHeader string) (Outcome, error)
}
