package stripe_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/inkpress/inkpress/internal/config"
	"github.com/inkpress/inkpress/internal/payments/domain"
	"github.com/inkpress/inkpress/internal/payments/stripe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	method         string
	path           string
	authorization  string
	idempotencyKey string
	form           url.Values
}

func newTestProvider(t *testing.T, status int, body string) (domain.Provider, *recordedRequest) {
	t.Helper()
	recorded := &recordedRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		recorded.method = r.Method
		recorded.path = r.URL.Path
		recorded.authorization = r.Header.Get("Authorization")
		recorded.idempotencyKey = r.Header.Get("Idempotency-Key")
		recorded.form = r.PostForm
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	provider := stripe.New(config.Config{
		StripeAPIKey:  "sk_test",
		StripeAPIBase: srv.URL,
		StripeTimeout: 2 * time.Second,
	})
	return provider, recorded
}

func TestCreateCheckoutSessionCouponSuppressesTrial(t *testing.T) {
	provider, recorded := newTestProvider(t, http.StatusOK, `{"id":"cs_1","url":"https://checkout.example/cs_1"}`)

	session, err := provider.CreateCheckoutSession(context.Background(), domain.CheckoutSessionParams{
		PriceID:    "price_1",
		SuccessURL: "https://example.com/success",
		CancelURL:  "https://example.com/cancel",
		CouponID:   "coupon_1",
		TrialDays:  14,
	})
	require.NoError(t, err)
	assert.Equal(t, "cs_1", session.ID)
	assert.Equal(t, "https://checkout.example/cs_1", session.URL)

	assert.Equal(t, http.MethodPost, recorded.method)
	assert.Equal(t, "/v1/checkout/sessions", recorded.path)
	assert.Equal(t, "Bearer sk_test", recorded.authorization)
	assert.Equal(t, "subscription", recorded.form.Get("mode"))
	assert.Equal(t, "price_1", recorded.form.Get("line_items[0][price]"))
	assert.Equal(t, "coupon_1", recorded.form.Get("discounts[0][coupon]"))
	assert.Empty(t, recorded.form.Get("subscription_data[trial_period_days]"))
}

func TestCreateCheckoutSessionTrialWithoutCoupon(t *testing.T) {
	provider, recorded := newTestProvider(t, http.StatusOK, `{"id":"cs_1","url":"https://checkout.example/cs_1"}`)

	_, err := provider.CreateCheckoutSession(context.Background(), domain.CheckoutSessionParams{
		PriceID:       "price_1",
		SuccessURL:    "https://example.com/success",
		CancelURL:     "https://example.com/cancel",
		TrialDays:     14,
		CustomerEmail: "reader@example.com",
		Metadata:      map[string]string{"tier_id": "42"},
	})
	require.NoError(t, err)

	assert.Equal(t, "14", recorded.form.Get("subscription_data[trial_period_days]"))
	assert.Equal(t, "reader@example.com", recorded.form.Get("customer_email"))
	assert.Equal(t, "42", recorded.form.Get("metadata[tier_id]"))
	assert.Empty(t, recorded.form.Get("discounts[0][coupon]"))
}

func TestCreateCheckoutSessionCustomerReplacesEmail(t *testing.T) {
	provider, recorded := newTestProvider(t, http.StatusOK, `{"id":"cs_1","url":"https://checkout.example/cs_1"}`)

	_, err := provider.CreateCheckoutSession(context.Background(), domain.CheckoutSessionParams{
		PriceID:       "price_1",
		SuccessURL:    "https://example.com/success",
		CancelURL:     "https://example.com/cancel",
		CustomerID:    "cus_1",
		CustomerEmail: "reader@example.com",
	})
	require.NoError(t, err)

	assert.Equal(t, "cus_1", recorded.form.Get("customer"))
	assert.Empty(t, recorded.form.Get("customer_email"))
}

func TestCreateDonationCheckoutSession(t *testing.T) {
	provider, recorded := newTestProvider(t, http.StatusOK, `{"id":"cs_1","url":"https://checkout.example/cs_1"}`)

	_, err := provider.CreateDonationCheckoutSession(context.Background(), domain.DonationSessionParams{
		PriceID:       "price_1",
		SuccessURL:    "https://example.com/success",
		CancelURL:     "https://example.com/cancel",
		CustomerEmail: "reader@example.com",
		PersonalNote:  "keep writing",
	})
	require.NoError(t, err)

	assert.Equal(t, "payment", recorded.form.Get("mode"))
	assert.Equal(t, "donate", recorded.form.Get("submit_type"))
	assert.Equal(t, "keep writing", recorded.form.Get("metadata[personal_note]"))
}

func TestCreatePriceCustomAmount(t *testing.T) {
	provider, recorded := newTestProvider(t, http.StatusOK, `{"id":"price_1","currency":"usd","active":true,"custom_unit_amount":{"preset":500}}`)

	price, err := provider.CreatePrice(context.Background(), domain.CreatePriceParams{
		ProductID:      "prod_1",
		Currency:       "USD",
		Amount:         500,
		Nickname:       "Support Inkpress Weekly",
		CustomAmount:   true,
		IdempotencyKey: "key-1",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(500), price.Amount, "the preset stands in for unit_amount")

	assert.Equal(t, "true", recorded.form.Get("custom_unit_amount[enabled]"))
	assert.Equal(t, "500", recorded.form.Get("custom_unit_amount[preset]"))
	assert.Empty(t, recorded.form.Get("unit_amount"))
	assert.Equal(t, "usd", recorded.form.Get("currency"))
	assert.Equal(t, "key-1", recorded.idempotencyKey)
}

func TestCreatePriceRecurring(t *testing.T) {
	provider, recorded := newTestProvider(t, http.StatusOK, `{"id":"price_1","currency":"usd","unit_amount":500,"active":true,"recurring":{"interval":"month"}}`)

	price, err := provider.CreatePrice(context.Background(), domain.CreatePriceParams{
		ProductID: "prod_1",
		Currency:  "usd",
		Amount:    500,
		Interval:  "month",
	})
	require.NoError(t, err)
	assert.Equal(t, "month", price.Interval)

	assert.Equal(t, "500", recorded.form.Get("unit_amount"))
	assert.Equal(t, "month", recorded.form.Get("recurring[interval]"))
	assert.Empty(t, recorded.form.Get("custom_unit_amount[enabled]"))
}

func TestCreateCouponFixedAmountRepeating(t *testing.T) {
	provider, recorded := newTestProvider(t, http.StatusOK, `{"id":"coupon_1","name":"Launch"}`)

	_, err := provider.CreateCoupon(context.Background(), domain.CreateCouponParams{
		Name:             "Launch",
		AmountOff:        100,
		Currency:         "usd",
		Duration:         "repeating",
		DurationInMonths: 3,
	})
	require.NoError(t, err)

	assert.Equal(t, "100", recorded.form.Get("amount_off"))
	assert.Equal(t, "usd", recorded.form.Get("currency"))
	assert.Equal(t, "repeating", recorded.form.Get("duration"))
	assert.Equal(t, "3", recorded.form.Get("duration_in_months"))
	assert.Empty(t, recorded.form.Get("percent_off"))
}

func TestErrorResponsesWrapProviderRequest(t *testing.T) {
	provider, _ := newTestProvider(t, http.StatusBadRequest, `{"error":{"message":"No such price: price_missing"}}`)

	_, err := provider.GetPrice(context.Background(), "price_missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrProviderRequest)
	assert.Contains(t, err.Error(), "No such price")
}

func TestGetCustomerSurfacesDeletedFlag(t *testing.T) {
	provider, recorded := newTestProvider(t, http.StatusOK, `{"id":"cus_1","deleted":true}`)

	customer, err := provider.GetCustomer(context.Background(), "cus_1")
	require.NoError(t, err)
	assert.True(t, customer.Deleted)
	assert.Equal(t, http.MethodGet, recorded.method)
	assert.Equal(t, "/v1/customers/cus_1", recorded.path)
}
