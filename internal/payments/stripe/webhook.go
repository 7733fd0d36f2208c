package stripe

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/inkpress/inkpress/internal/payments/domain"
)

func (p *Provider) VerifySignature(payload []byte, header string) error {
	header = strings.TrimSpace(header)
	if header == "" || p.webhookSecret == "" {
		return domain.ErrInvalidSignature
	}

	timestamp, signatures, err := parseSignatureHeader(header)
	if err != nil {
		return domain.ErrInvalidSignature
	}

	signedPayload := fmt.Sprintf("%s.%s", timestamp, string(payload))
	mac := hmac.New(sha256.New, []byte(p.webhookSecret))
	_, _ = mac.Write([]byte(signedPayload))
	expected := hex.EncodeToString(mac.Sum(nil))

	for _, signature := range signatures {
		if hmac.Equal([]byte(signature), []byte(expected)) {
			return nil
		}
	}
	return domain.ErrInvalidSignature
}

func parseSignatureHeader(header string) (string, []string, error) {
	var timestamp string
	signatures := []string{}
	for _, part := range strings.Split(header, ",") {
		piece := strings.TrimSpace(part)
		if piece == "" {
			continue
		}
		keyValue := strings.SplitN(piece, "=", 2)
		if len(keyValue) != 2 {
			continue
		}
		key := strings.TrimSpace(keyValue[0])
		value := strings.TrimSpace(keyValue[1])
		if key == "t" {
			timestamp = value
		}
		if key == "v1" {
			signatures = append(signatures, value)
		}
	}
	if timestamp == "" || len(signatures) == 0 {
		return "", nil, domain.ErrInvalidSignature
	}
	return timestamp, signatures, nil
}

type wireEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

type wirePayment struct {
	ID       string `json:"id"`
	Customer string `json:"customer"`
	Email    string `json:"email"`
	// CustomerEmail is the field name on invoice-shaped objects.
	CustomerEmail string `json:"customer_email"`
}

type wireSubscription struct {
	ID       string `json:"id"`
	Customer string `json:"customer"`
	Status   string `json:"status"`
	Items    struct {
		Data []struct {
			Price struct {
				ID string `json:"id"`
			} `json:"price"`
		} `json:"data"`
	} `json:"items"`
	Price struct {
		ID string `json:"id"`
	} `json:"price"`
}

type wireCustomer struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// ParseEvent reduces a raw webhook payload to a typed event. Invoice
// payment events are normalized onto the payment pair so a single
// handler covers both shapes.
func (p *Provider) ParseEvent(payload []byte) (*domain.Event, error) {
	var event wireEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, domain.ErrInvalidPayload
	}
	rawType := strings.TrimSpace(event.Type)
	if rawType == "" {
		return nil, domain.ErrInvalidEvent
	}

	out := &domain.Event{ID: strings.TrimSpace(event.ID), RawType: rawType}

	switch rawType {
	case "payment.succeeded", "invoice.payment_succeeded":
		out.Type = domain.EventPaymentSucceeded
		return parsePayment(out, event.Data.Object)
	case "payment.failed", "invoice.payment_failed":
		out.Type = domain.EventPaymentFailed
		return parsePayment(out, event.Data.Object)
	case "subscription.created":
		out.Type = domain.EventSubscriptionCreated
		return parseSubscription(out, event.Data.Object)
	case "subscription.updated":
		out.Type = domain.EventSubscriptionUpdated
		return parseSubscription(out, event.Data.Object)
	case "subscription.cancelled":
		out.Type = domain.EventSubscriptionCancelled
		return parseSubscription(out, event.Data.Object)
	case "customer.created":
		out.Type = domain.EventCustomerCreated
		return parseCustomer(out, event.Data.Object)
	case "customer.updated":
		out.Type = domain.EventCustomerUpdated
		return parseCustomer(out, event.Data.Object)
	default:
		out.Type = domain.EventUnknown
		return out, nil
	}
}

func parsePayment(out *domain.Event, object json.RawMessage) (*domain.Event, error) {
	var payment wirePayment
	if err := json.Unmarshal(object, &payment); err != nil {
		return nil, domain.ErrInvalidPayload
	}
	out.CustomerID = strings.TrimSpace(payment.Customer)
	out.Email = strings.TrimSpace(payment.Email)
	if out.Email == "" {
		out.Email = strings.TrimSpace(payment.CustomerEmail)
	}
	return out, nil
}

func parseSubscription(out *domain.Event, object json.RawMessage) (*domain.Event, error) {
	var sub wireSubscription
	if err := json.Unmarshal(object, &sub); err != nil {
		return nil, domain.ErrInvalidPayload
	}
	out.CustomerID = strings.TrimSpace(sub.Customer)
	out.Status = strings.TrimSpace(sub.Status)
	if len(sub.Items.Data) > 0 {
		out.PriceID = strings.TrimSpace(sub.Items.Data[0].Price.ID)
	}
	if out.PriceID == "" {
		out.PriceID = strings.TrimSpace(sub.Price.ID)
	}
	return out, nil
}

func parseCustomer(out *domain.Event, object json.RawMessage) (*domain.Event, error) {
	var customer wireCustomer
	if err := json.Unmarshal(object, &customer); err != nil {
		return nil, domain.ErrInvalidPayload
	}
	out.CustomerID = strings.TrimSpace(customer.ID)
	out.Email = strings.TrimSpace(customer.Email)
	out.Name = strings.TrimSpace(customer.Name)
	return out, nil
}
