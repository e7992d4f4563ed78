package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"zapshift/internal/core/apperror"
	"zapshift/internal/core/config"
	"zapshift/internal/core/httpclient"
	"zapshift/internal/features/payments/domain"
)

// StripeAdapter implements ports.PaymentProvider on the Stripe Checkout REST API.
type StripeAdapter struct {
	client *http.Client
	config config.StripeConfig
}

// NewStripeAdapter creates a new StripeAdapter.
func NewStripeAdapter(cfg config.StripeConfig) *StripeAdapter {
	return &StripeAdapter{
		client: httpclient.NewClient("stripe", 15*time.Second),
		config: cfg,
	}
}

// stripeSession is the subset of the checkout session object we read.
type stripeSession struct {
	ID            string            `json:"id"`
	URL           string            `json:"url"`
	PaymentStatus string            `json:"payment_status"`
	PaymentIntent json.RawMessage   `json:"payment_intent"`
	AmountTotal   int64             `json:"amount_total"`
	Currency      string            `json:"currency"`
	CustomerEmail string            `json:"customer_email"`
	Metadata      map[string]string `json:"metadata"`
}

type stripeError struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// CreateSession opens a one item checkout session in payment mode.
func (a *StripeAdapter) CreateSession(ctx context.Context, params domain.SessionParams) (*domain.Session, error) {
	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("line_items[0][quantity]", "1")
	form.Set("line_items[0][price_data][currency]", params.Currency)
	form.Set("line_items[0][price_data][unit_amount]", strconv.FormatInt(params.AmountMinor, 10))
	form.Set("line_items[0][price_data][product_data][name]", params.ProductName)
	form.Set("success_url", params.SuccessURL)
	form.Set("cancel_url", params.CancelURL)
	if params.CustomerEmail != "" {
		form.Set("customer_email", params.CustomerEmail)
	}
	for k, v := range params.Metadata {
		form.Set("metadata["+k+"]", v)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		a.config.APIURL+"/v1/checkout/sessions", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return a.do(req)
}

// RetrieveSession fetches a checkout session by id.
func (a *StripeAdapter) RetrieveSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		a.config.APIURL+"/v1/checkout/sessions/"+url.PathEscape(sessionID), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return a.do(req)
}

func (a *StripeAdapter) do(req *http.Request) (*domain.Session, error) {
	req.Header.Set("Authorization", "Bearer "+a.config.SecretKey)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var se stripeError
		_ = json.Unmarshal(body, &se)
		if resp.StatusCode == http.StatusNotFound {
			return nil, apperror.NotFound("checkout session", se.Error.Message)
		}
		return nil, fmt.Errorf("stripe API returned status %d: %s", resp.StatusCode, se.Error.Message)
	}

	var s stripeSession
	if err := json.Unmarshal(body, &s); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return mapSession(s), nil
}

func mapSession(s stripeSession) *domain.Session {
	return &domain.Session{
		ID:            s.ID,
		URL:           s.URL,
		PaymentStatus: s.PaymentStatus,
		PaymentIntent: paymentIntentID(s.PaymentIntent),
		AmountTotal:   s.AmountTotal,
		Currency:      s.Currency,
		CustomerEmail: s.CustomerEmail,
		Metadata:      s.Metadata,
	}
}

// paymentIntentID reads payment_intent, which is an id or an expanded object.
func paymentIntentID(raw json.RawMessage) string {
	var id string
	if err := json.Unmarshal(raw, &id); err == nil {
		return id
	}
	var obj struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.ID
	}
	return ""
}
