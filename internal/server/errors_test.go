package server

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	memberdomain "github.com/inkpress/inkpress/internal/member/domain"
	offerdomain "github.com/inkpress/inkpress/internal/offer/domain"
	paymentsdomain "github.com/inkpress/inkpress/internal/payments/domain"
	tierdomain "github.com/inkpress/inkpress/internal/tier/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestMapErrorStatuses(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		status   int
		typeName string
	}{
		{"invalid request", ErrInvalidRequest, http.StatusBadRequest, "validation_error"},
		{"checkout invalid request", paymentsdomain.ErrInvalidRequest, http.StatusBadRequest, "validation_error"},
		{"offer tier mismatch", paymentsdomain.ErrOfferTierMismatch, http.StatusBadRequest, "validation_error"},
		{"tier currency", tierdomain.ErrInvalidCurrency, http.StatusBadRequest, "validation_error"},
		{"offer duration", offerdomain.ErrInvalidDuration, http.StatusBadRequest, "validation_error"},
		{"member email", memberdomain.ErrInvalidEmail, http.StatusBadRequest, "validation_error"},
		{"webhook signature", paymentsdomain.ErrInvalidSignature, http.StatusBadRequest, "invalid_signature"},
		{"webhook payload", paymentsdomain.ErrInvalidPayload, http.StatusBadRequest, "invalid_payload"},
		{"rate limited", ErrTooManyRequests, http.StatusTooManyRequests, "too_many_requests"},
		{"conflict", ErrConflict, http.StatusConflict, "conflict"},
		{"slug taken", tierdomain.ErrSlugTaken, http.StatusConflict, "conflict"},
		{"tier missing", tierdomain.ErrNotFound, http.StatusNotFound, "not_found"},
		{"member missing via checkout", paymentsdomain.ErrMemberNotFound, http.StatusNotFound, "not_found"},
		{"gorm record missing", gorm.ErrRecordNotFound, http.StatusNotFound, "not_found"},
		{"wrapped sentinel", fmt.Errorf("create tier: %w", tierdomain.ErrSlugTaken), http.StatusConflict, "conflict"},
		{"unclassified", errors.New("boom"), http.StatusInternalServerError, "internal_error"},
		{"nil", nil, http.StatusInternalServerError, "internal_error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, payload := mapError(tc.err)
			assert.Equal(t, tc.status, status)
			assert.Equal(t, tc.typeName, payload.Type)
		})
	}
}

func TestMapErrorValidationPayloadShape(t *testing.T) {
	status, payload := mapError(paymentsdomain.ErrOfferTierMismatch)
	assert.Equal(t, http.StatusBadRequest, status)
	require.Len(t, payload.Errors, 1)
	assert.Equal(t, "offer_tier_mismatch", payload.Errors[0].Code)
	assert.Equal(t, "offer does not belong to the requested tier", payload.Errors[0].Message)

	status, payload = mapError(tierdomain.ErrInvalidCurrency)
	assert.Equal(t, http.StatusBadRequest, status)
	require.Len(t, payload.Errors, 1)
	assert.Equal(t, "currency", payload.Errors[0].Field)
	assert.Equal(t, "invalid_currency", payload.Errors[0].Code)
}

func TestMapErrorCarriesValidationErrors(t *testing.T) {
	status, payload := mapError(newValidationError("email", "invalid_email", "email is required"))
	assert.Equal(t, http.StatusBadRequest, status)
	require.Len(t, payload.Errors, 1)
	assert.Equal(t, "email", payload.Errors[0].Field)
	assert.Equal(t, "email is required", payload.Errors[0].Message)
}
