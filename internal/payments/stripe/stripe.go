package stripe

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/inkpress/inkpress/internal/config"
	"github.com/inkpress/inkpress/internal/payments/domain"
)

// Provider implements the payment provider surface against the
// Stripe HTTP API.
type Provider struct {
	client        *client
	webhookSecret string
}

func New(cfg config.Config) domain.Provider {
	return &Provider{
		client:        newClient(cfg.StripeAPIKey, cfg.StripeAPIBase, cfg.StripeTimeout),
		webhookSecret: strings.TrimSpace(cfg.StripeWebhookSecret),
	}
}

type stripeCustomer struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Deleted bool   `json:"deleted"`
}

type stripeProduct struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

type stripeRecurring struct {
	Interval string `json:"interval"`
}

type stripeCustomUnitAmount struct {
	Preset int64 `json:"preset"`
}

type stripePrice struct {
	ID               string                  `json:"id"`
	Currency         string                  `json:"currency"`
	UnitAmount       int64                   `json:"unit_amount"`
	Active           bool                    `json:"active"`
	Nickname         string                  `json:"nickname"`
	Recurring        *stripeRecurring        `json:"recurring"`
	CustomUnitAmount *stripeCustomUnitAmount `json:"custom_unit_amount"`
}

type stripeCoupon struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type stripeSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

func (p *Provider) CreateCustomer(ctx context.Context, email, name string) (*domain.Customer, error) {
	values := url.Values{}
	values.Set("email", strings.TrimSpace(email))
	if name = strings.TrimSpace(name); name != "" {
		values.Set("name", name)
	}

	var out stripeCustomer
	if err := p.client.do(ctx, http.MethodPost, "/v1/customers", values, "", &out); err != nil {
		return nil, err
	}
	return toCustomer(out), nil
}

func (p *Provider) GetCustomer(ctx context.Context, id string) (*domain.Customer, error) {
	var out stripeCustomer
	if err := p.client.do(ctx, http.MethodGet, "/v1/customers/"+url.PathEscape(id), nil, "", &out); err != nil {
		return nil, err
	}
	return toCustomer(out), nil
}

func (p *Provider) CreateProduct(ctx context.Context, params domain.CreateProductParams) (*domain.Product, error) {
	values := url.Values{}
	values.Set("name", params.Name)

	var out stripeProduct
	if err := p.client.do(ctx, http.MethodPost, "/v1/products", values, params.IdempotencyKey, &out); err != nil {
		return nil, err
	}
	return toProduct(out), nil
}

func (p *Provider) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	var out stripeProduct
	if err := p.client.do(ctx, http.MethodGet, "/v1/products/"+url.PathEscape(id), nil, "", &out); err != nil {
		return nil, err
	}
	return toProduct(out), nil
}

func (p *Provider) UpdateProduct(ctx context.Context, id string, params domain.UpdateProductParams) (*domain.Product, error) {
	values := url.Values{}
	values.Set("name", params.Name)

	var out stripeProduct
	if err := p.client.do(ctx, http.MethodPost, "/v1/products/"+url.PathEscape(id), values, "", &out); err != nil {
		return nil, err
	}
	return toProduct(out), nil
}

func (p *Provider) CreatePrice(ctx context.Context, params domain.CreatePriceParams) (*domain.Price, error) {
	values := url.Values{}
	values.Set("product", params.ProductID)
	values.Set("currency", strings.ToLower(params.Currency))
	if params.Nickname != "" {
		values.Set("nickname", params.Nickname)
	}
	switch {
	case params.CustomAmount:
		values.Set("custom_unit_amount[enabled]", "true")
		if params.Amount > 0 {
			values.Set("custom_unit_amount[preset]", strconv.FormatInt(params.Amount, 10))
		}
	default:
		values.Set("unit_amount", strconv.FormatInt(params.Amount, 10))
	}
	if params.Interval != "" {
		values.Set("recurring[interval]", params.Interval)
	}

	var out stripePrice
	if err := p.client.do(ctx, http.MethodPost, "/v1/prices", values, params.IdempotencyKey, &out); err != nil {
		return nil, err
	}
	return toPrice(out), nil
}

func (p *Provider) GetPrice(ctx context.Context, id string) (*domain.Price, error) {
	var out stripePrice
	if err := p.client.do(ctx, http.MethodGet, "/v1/prices/"+url.PathEscape(id), nil, "", &out); err != nil {
		return nil, err
	}
	return toPrice(out), nil
}

func (p *Provider) UpdatePrice(ctx context.Context, id string, params domain.UpdatePriceParams) (*domain.Price, error) {
	values := url.Values{}
	values.Set("nickname", params.Nickname)

	var out stripePrice
	if err := p.client.do(ctx, http.MethodPost, "/v1/prices/"+url.PathEscape(id), values, "", &out); err != nil {
		return nil, err
	}
	return toPrice(out), nil
}

func (p *Provider) CreateCoupon(ctx context.Context, params domain.CreateCouponParams) (*domain.Coupon, error) {
	values := url.Values{}
	if params.Name != "" {
		values.Set("name", params.Name)
	}
	if params.PercentOff > 0 {
		values.Set("percent_off", strconv.FormatInt(params.PercentOff, 10))
	} else {
		values.Set("amount_off", strconv.FormatInt(params.AmountOff, 10))
		values.Set("currency", strings.ToLower(params.Currency))
	}
	duration := params.Duration
	if duration == "" {
		duration = "once"
	}
	values.Set("duration", duration)
	if duration == "repeating" && params.DurationInMonths > 0 {
		values.Set("duration_in_months", strconv.Itoa(params.DurationInMonths))
	}

	var out stripeCoupon
	if err := p.client.do(ctx, http.MethodPost, "/v1/coupons", values, params.IdempotencyKey, &out); err != nil {
		return nil, err
	}
	return &domain.Coupon{ID: out.ID, Name: out.Name}, nil
}

func (p *Provider) CreateCheckoutSession(ctx context.Context, params domain.CheckoutSessionParams) (*domain.CheckoutSession, error) {
	values := url.Values{}
	values.Set("mode", "subscription")
	values.Set("line_items[0][price]", params.PriceID)
	values.Set("line_items[0][quantity]", "1")
	values.Set("success_url", params.SuccessURL)
	values.Set("cancel_url", params.CancelURL)
	if params.CustomerID != "" {
		values.Set("customer", params.CustomerID)
	} else if params.CustomerEmail != "" {
		values.Set("customer_email", params.CustomerEmail)
	}
	switch {
	case params.CouponID != "":
		values.Set("discounts[0][coupon]", params.CouponID)
	case params.TrialDays > 0:
		values.Set("subscription_data[trial_period_days]", strconv.Itoa(params.TrialDays))
	}
	encodeMetadata(values, params.Metadata)

	var out stripeSession
	if err := p.client.do(ctx, http.MethodPost, "/v1/checkout/sessions", values, "", &out); err != nil {
		return nil, err
	}
	return &domain.CheckoutSession{ID: out.ID, URL: out.URL}, nil
}

func (p *Provider) CreateDonationCheckoutSession(ctx context.Context, params domain.DonationSessionParams) (*domain.CheckoutSession, error) {
	values := url.Values{}
	values.Set("mode", "payment")
	values.Set("submit_type", "donate")
	values.Set("line_items[0][price]", params.PriceID)
	values.Set("line_items[0][quantity]", "1")
	values.Set("success_url", params.SuccessURL)
	values.Set("cancel_url", params.CancelURL)
	if params.CustomerID != "" {
		values.Set("customer", params.CustomerID)
	} else if params.CustomerEmail != "" {
		values.Set("customer_email", params.CustomerEmail)
	}
	if params.PersonalNote != "" {
		values.Set("metadata[personal_note]", params.PersonalNote)
	}
	encodeMetadata(values, params.Metadata)

	var out stripeSession
	if err := p.client.do(ctx, http.MethodPost, "/v1/checkout/sessions", values, "", &out); err != nil {
		return nil, err
	}
	return &domain.CheckoutSession{ID: out.ID, URL: out.URL}, nil
}

func encodeMetadata(values url.Values, metadata map[string]string) {
	for key, value := range metadata {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		values.Set("metadata["+key+"]", value)
	}
}

func toCustomer(c stripeCustomer) *domain.Customer {
	return &domain.Customer{
		ID:      c.ID,
		Email:   c.Email,
		Name:    c.Name,
		Deleted: c.Deleted,
	}
}

func toProduct(p stripeProduct) *domain.Product {
	return &domain.Product{
		ID:     p.ID,
		Name:   p.Name,
		Active: p.Active,
	}
}

func toPrice(p stripePrice) *domain.Price {
	price := &domain.Price{
		ID:       p.ID,
		Currency: strings.ToLower(p.Currency),
		Amount:   p.UnitAmount,
		Active:   p.Active,
		Nickname: p.Nickname,
	}
	if p.Recurring != nil {
		price.Interval = p.Recurring.Interval
	}
	// Custom-amount prices carry no unit_amount; the preset stands in
	// for matching purposes.
	if p.UnitAmount == 0 && p.CustomUnitAmount != nil {
		price.Amount = p.CustomUnitAmount.Preset
	}
	return price
}
