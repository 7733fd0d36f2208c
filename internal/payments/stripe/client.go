package stripe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/inkpress/inkpress/internal/payments/domain"
)

type stripeErrorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

type client struct {
	apiKey  string
	apiBase string
	http    *http.Client
}

func newClient(apiKey, apiBase string, timeout time.Duration) *client {
	base := strings.TrimRight(strings.TrimSpace(apiBase), "/")
	if base == "" {
		base = "https://api.stripe.com"
	}
	if timeout <= 0 {
		timeout = 12 * time.Second
	}
	return &client{
		apiKey:  strings.TrimSpace(apiKey),
		apiBase: base,
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *client) do(ctx context.Context, method, path string, values url.Values, idempotencyKey string, out any) error {
	if c.apiKey == "" {
		return errors.New("stripe_api_key_missing")
	}

	body := ""
	if values != nil {
		body = values.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, c.apiBase+path, strings.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if values != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrProviderRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var stripeErr stripeErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&stripeErr); err != nil {
			return domain.ErrProviderRequest
		}
		message := strings.TrimSpace(stripeErr.Error.Message)
		if message == "" {
			return domain.ErrProviderRequest
		}
		return fmt.Errorf("%w: %s", domain.ErrProviderRequest, message)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
