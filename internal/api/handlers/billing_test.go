package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/linkstream/linkstream/internal/billing"
	"github.com/linkstream/linkstream/internal/models"
)

// mockProvider implements billing.Provider for testing.
type mockProvider struct {
	customerID  string
	checkoutURL string
	portalURL   string
	err         error

	canceledSubID string
}

func (m *mockProvider) CreateCustomer(_ context.Context, _, _ string) (string, error) {
	return m.customerID, m.err
}

func (m *mockProvider) CreateCheckoutSession(_ context.Context, _, _, _, _ string) (string, error) {
	return m.checkoutURL, m.err
}

func (m *mockProvider) CreatePortalSession(_ context.Context, _, _ string) (string, error) {
	return m.portalURL, m.err
}

func (m *mockProvider) CancelSubscription(_ context.Context, subscriptionID string) error {
	m.canceledSubID = subscriptionID
	return m.err
}

// mockBillingStore implements BillingStore for testing.
type mockBillingStore struct {
	updated *models.User
	err     error
}

func (m *mockBillingStore) UpdateUser(_ context.Context, u *models.User) error {
	m.updated = u
	return m.err
}

// mockWebhookService implements WebhookService for testing.
type mockWebhookService struct {
	err     error
	payload []byte
	header  string
}

func (m *mockWebhookService) HandleWebhook(_ context.Context, payload []byte, header string) error {
	m.payload = payload
	m.header = header
	return m.err
}

func setupBillingTestRouter(store *mockBillingStore, provider *mockProvider, webhooks *mockWebhookService, user *models.User) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	catalog := billing.NewCatalog("price_pro", "price_business")
	handler := NewBillingHandler(store, provider, catalog, webhooks, "https://app.example.com", zerolog.Nop())

	authed := r.Group("/api/v1")
	authed.Use(injectUser(user))
	handler.RegisterRoutes(authed)
	handler.RegisterWebhookRoutes(r.Group(""))
	return r
}

func TestListPlans(t *testing.T) {
	r := setupBillingTestRouter(&mockBillingStore{}, &mockProvider{}, &mockWebhookService{}, testUser(models.TierFree))

	w := doRequest(r, jsonRequest("GET", "/api/v1/billing/plans", ""))
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Plans []billing.Plan `json:"plans"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if len(resp.Plans) != 4 {
		t.Fatalf("expected 4 plans, got %d", len(resp.Plans))
	}
}

func TestCheckout(t *testing.T) {
	t.Run("creates customer and session", func(t *testing.T) {
		user := testUser(models.TierFree)
		store := &mockBillingStore{}
		provider := &mockProvider{customerID: "cus_123", checkoutURL: "https://checkout.stripe.com/s/abc"}
		r := setupBillingTestRouter(store, provider, &mockWebhookService{}, user)

		w := doRequest(r, jsonRequest("POST", "/api/v1/billing/checkout", `{"tier":"pro"}`))
		if w.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
		}
		if store.updated == nil || store.updated.StripeCustomerID != "cus_123" {
			t.Fatal("expected customer ID to be persisted")
		}
	})

	t.Run("existing customer is reused", func(t *testing.T) {
		user := testUser(models.TierFree)
		user.StripeCustomerID = "cus_existing"
		store := &mockBillingStore{}
		provider := &mockProvider{checkoutURL: "https://checkout.stripe.com/s/abc"}
		r := setupBillingTestRouter(store, provider, &mockWebhookService{}, user)

		w := doRequest(r, jsonRequest("POST", "/api/v1/billing/checkout", `{"tier":"business"}`))
		if w.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
		}
		if store.updated != nil {
			t.Fatal("expected no user update for existing customer")
		}
	})

	t.Run("enterprise is sales-led", func(t *testing.T) {
		r := setupBillingTestRouter(&mockBillingStore{}, &mockProvider{}, &mockWebhookService{}, testUser(models.TierFree))

		w := doRequest(r, jsonRequest("POST", "/api/v1/billing/checkout", `{"tier":"enterprise"}`))
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400, got %d", w.Code)
		}
	})

	t.Run("provider failure returns 502", func(t *testing.T) {
		provider := &mockProvider{err: errors.New("stripe down")}
		r := setupBillingTestRouter(&mockBillingStore{}, provider, &mockWebhookService{}, testUser(models.TierFree))

		w := doRequest(r, jsonRequest("POST", "/api/v1/billing/checkout", `{"tier":"pro"}`))
		if w.Code != http.StatusBadGateway {
			t.Fatalf("expected status 502, got %d", w.Code)
		}
	})
}

func TestPortal(t *testing.T) {
	t.Run("opens portal", func(t *testing.T) {
		user := testUser(models.TierPro)
		user.StripeCustomerID = "cus_123"
		provider := &mockProvider{portalURL: "https://billing.stripe.com/p/xyz"}
		r := setupBillingTestRouter(&mockBillingStore{}, provider, &mockWebhookService{}, user)

		w := doRequest(r, jsonRequest("POST", "/api/v1/billing/portal", ""))
		if w.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
		}
	})

	t.Run("no billing account returns 409", func(t *testing.T) {
		r := setupBillingTestRouter(&mockBillingStore{}, &mockProvider{}, &mockWebhookService{}, testUser(models.TierFree))

		w := doRequest(r, jsonRequest("POST", "/api/v1/billing/portal", ""))
		if w.Code != http.StatusConflict {
			t.Fatalf("expected status 409, got %d", w.Code)
		}
	})
}

func TestWebhookEndpoint(t *testing.T) {
	t.Run("forwards payload and signature", func(t *testing.T) {
		webhooks := &mockWebhookService{}
		r := setupBillingTestRouter(&mockBillingStore{}, &mockProvider{}, webhooks, nil)

		req := jsonRequest("POST", "/webhooks/stripe", `{"type":"checkout.session.completed"}`)
		req.Header.Set("Stripe-Signature", "t=123,v1=abc")
		w := doRequest(r, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
		}
		if webhooks.header != "t=123,v1=abc" {
			t.Fatalf("expected signature header to be forwarded, got %q", webhooks.header)
		}
		if len(webhooks.payload) == 0 {
			t.Fatal("expected payload to be forwarded")
		}
	})

	t.Run("invalid signature returns 400", func(t *testing.T) {
		webhooks := &mockWebhookService{err: billing.ErrInvalidSignature}
		r := setupBillingTestRouter(&mockBillingStore{}, &mockProvider{}, webhooks, nil)

		w := doRequest(r, jsonRequest("POST", "/webhooks/stripe", `{}`))
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400, got %d", w.Code)
		}
	})

	t.Run("unknown customer is acknowledged", func(t *testing.T) {
		webhooks := &mockWebhookService{err: billing.ErrUnknownCustomer}
		r := setupBillingTestRouter(&mockBillingStore{}, &mockProvider{}, webhooks, nil)

		w := doRequest(r, jsonRequest("POST", "/webhooks/stripe", `{}`))
		if w.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", w.Code)
		}
	})

	t.Run("processing failure returns 500", func(t *testing.T) {
		webhooks := &mockWebhookService{err: errors.New("db down")}
		r := setupBillingTestRouter(&mockBillingStore{}, &mockProvider{}, webhooks, nil)

		w := doRequest(r, jsonRequest("POST", "/webhooks/stripe", `{}`))
		if w.Code != http.StatusInternalServerError {
			t.Fatalf("expected status 500, got %d", w.Code)
		}
	})
}
