package billing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const stripeAPIBase = "https://api.stripe.com/v1"

// Provider is the payment-provider surface the billing service needs.
type Provider interface {
	CreateCustomer(ctx context.Context, email, name string) (string, error)
	CreateCheckoutSession(ctx context.Context, customerID, priceID, successURL, cancelURL string) (string, error)
	CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error)
	CancelSubscription(ctx context.Context, subscriptionID string) error
}

// StripeClient talks to the Stripe REST API with form-encoded requests.
type StripeClient struct {
	secretKey string
	baseURL   string
	client    *http.Client
	logger    zerolog.Logger
}

// NewStripeClient creates a Stripe API client.
func NewStripeClient(secretKey string, logger zerolog.Logger) *StripeClient {
	return &StripeClient{
		secretKey: secretKey,
		baseURL:   stripeAPIBase,
		client:    &http.Client{Timeout: 30 * time.Second},
		logger:    logger.With().Str("component", "billing").Logger(),
	}
}

type stripeError struct {
	Error struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// do posts a form-encoded request and decodes the JSON response into out.
func (s *StripeClient) do(ctx context.Context, method, path string, form url.Values, out any) error {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("billing: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.secretKey)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("billing: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("billing: read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var serr stripeError
		if json.Unmarshal(data, &serr) == nil && serr.Error.Message != "" {
			return fmt.Errorf("billing: stripe %s (%s): %s", serr.Error.Type, serr.Error.Code, serr.Error.Message)
		}
		return fmt.Errorf("billing: stripe returned status %d", resp.StatusCode)
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("billing: decode response: %w", err)
		}
	}
	return nil
}

// CreateCustomer creates a Stripe customer and returns its ID.
func (s *StripeClient) CreateCustomer(ctx context.Context, email, name string) (string, error) {
	form := url.Values{}
	form.Set("email", email)
	if name != "" {
		form.Set("name", name)
	}

	var out struct {
		ID string `json:"id"`
	}
	if err := s.do(ctx, http.MethodPost, "/customers", form, &out); err != nil {
		return "", err
	}

	s.logger.Debug().Str("customer_id", out.ID).Msg("stripe customer created")
	return out.ID, nil
}

// CreateCheckoutSession starts a subscription checkout and returns the
// hosted page URL.
func (s *StripeClient) CreateCheckoutSession(ctx context.Context, customerID, priceID, successURL, cancelURL string) (string, error) {
	form := url.Values{}
	form.Set("customer", customerID)
	form.Set("mode", "subscription")
	form.Set("line_items[0][price]", priceID)
	form.Set("line_items[0][quantity]", "1")
	form.Set("success_url", successURL)
	form.Set("cancel_url", cancelURL)

	var out struct {
		URL string `json:"url"`
	}
	if err := s.do(ctx, http.MethodPost, "/checkout/sessions", form, &out); err != nil {
		return "", err
	}
	return out.URL, nil
}

// CreatePortalSession returns a customer-portal URL for self-serve
// subscription management.
func (s *StripeClient) CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error) {
	form := url.Values{}
	form.Set("customer", customerID)
	form.Set("return_url", returnURL)

	var out struct {
		URL string `json:"url"`
	}
	if err := s.do(ctx, http.MethodPost, "/billing_portal/sessions", form, &out); err != nil {
		return "", err
	}
	return out.URL, nil
}

// CancelSubscription cancels a subscription immediately.
func (s *StripeClient) CancelSubscription(ctx context.Context, subscriptionID string) error {
	return s.do(ctx, http.MethodDelete, "/subscriptions/"+url.PathEscape(subscriptionID), nil, nil)
}
