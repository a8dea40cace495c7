package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/linkstream/linkstream/internal/api/middleware"
	"github.com/linkstream/linkstream/internal/billing"
	"github.com/linkstream/linkstream/internal/models"
)

// maxWebhookBytes caps webhook payload reads.
const maxWebhookBytes = 1 << 20

// BillingStore persists billing identifiers on users.
type BillingStore interface {
	UpdateUser(ctx context.Context, u *models.User) error
}

// WebhookService processes verified payment provider events.
type WebhookService interface {
	HandleWebhook(ctx context.Context, payload []byte, signatureHeader string) error
}

// BillingHandler handles plan listing, checkout, portal, and webhook endpoints.
type BillingHandler struct {
	store    BillingStore
	provider billing.Provider
	catalog  *billing.Catalog
	webhooks WebhookService
	baseURL  string
	logger   zerolog.Logger
}

// NewBillingHandler creates a new BillingHandler.
func NewBillingHandler(store BillingStore, provider billing.Provider, catalog *billing.Catalog, webhooks WebhookService, baseURL string, logger zerolog.Logger) *BillingHandler {
	return &BillingHandler{
		store:    store,
		provider: provider,
		catalog:  catalog,
		webhooks: webhooks,
		baseURL:  baseURL,
		logger:   logger.With().Str("component", "billing_handler").Logger(),
	}
}

// RegisterRoutes registers authenticated billing routes.
func (h *BillingHandler) RegisterRoutes(r *gin.RouterGroup) {
	bill := r.Group("/billing")
	{
		bill.GET("/plans", h.Plans)
		bill.GET("/subscription", h.Subscription)
		bill.POST("/checkout", h.Checkout)
		bill.POST("/portal", h.Portal)
	}
}

// RegisterWebhookRoutes registers the unauthenticated webhook endpoint.
func (h *BillingHandler) RegisterWebhookRoutes(r *gin.RouterGroup) {
	r.POST("/webhooks/stripe", h.Webhook)
}

// Plans lists the available subscription plans.
//
//	@Summary	List subscription plans
//	@Tags		Billing
//	@Produce	json
//	@Success	200	{object}	map[string][]billing.Plan
//	@Router		/billing/plans [get]
func (h *BillingHandler) Plans(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"plans": h.catalog.Plans()})
}

// Subscription returns the caller's current plan and subscription state.
//
//	@Summary	Get subscription state
//	@Tags		Billing
//	@Produce	json
//	@Success	200	{object}	map[string]any
//	@Security	SessionAuth
//	@Router		/billing/subscription [get]
func (h *BillingHandler) Subscription(c *gin.Context) {
	user := middleware.RequireUser(c)
	if user == nil {
		return
	}

	resp := gin.H{
		"tier":             user.Tier,
		"limits":           models.LimitsForTier(user.Tier),
		"has_billing":      user.StripeCustomerID != "",
		"has_subscription": user.StripeSubscriptionID != "",
	}
	for _, plan := range h.catalog.Plans() {
		if plan.Tier == user.Tier {
			resp["plan"] = plan
			break
		}
	}
	c.JSON(http.StatusOK, resp)
}

type checkoutRequest struct {
	Tier string `json:"tier" binding:"required"`
}

// ensureCustomer creates the payment provider customer on first use.
func (h *BillingHandler) ensureCustomer(ctx context.Context, user *models.User) (string, error) {
	if user.StripeCustomerID != "" {
		return user.StripeCustomerID, nil
	}
	customerID, err := h.provider.CreateCustomer(ctx, user.Email, user.Name)
	if err != nil {
		return "", err
	}
	user.StripeCustomerID = customerID
	if err := h.store.UpdateUser(ctx, user); err != nil {
		return "", err
	}
	return customerID, nil
}

// Checkout starts a subscription checkout session for a paid tier.
//
//	@Summary	Start a checkout session
//	@Tags		Billing
//	@Accept		json
//	@Produce	json
//	@Param		request	body		checkoutRequest	true	"target tier"
//	@Success	200	{object}	map[string]string
//	@Failure	400	{object}	map[string]string
//	@Security	SessionAuth
//	@Router		/billing/checkout [post]
func (h *BillingHandler) Checkout(c *gin.Context) {
	user := middleware.RequireUser(c)
	if user == nil {
		return
	}

	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tier is required"})
		return
	}

	tier := models.Tier(req.Tier)
	priceID, ok := h.catalog.PriceForTier(tier)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tier is not available for self-serve checkout"})
		return
	}

	customerID, err := h.ensureCustomer(c.Request.Context(), user)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to ensure customer")
		c.JSON(http.StatusBadGateway, gin.H{"error": "billing provider unavailable"})
		return
	}

	url, err := h.provider.CreateCheckoutSession(c.Request.Context(), customerID, priceID,
		h.baseURL+"/billing/success", h.baseURL+"/billing/cancel")
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to create checkout session")
		c.JSON(http.StatusBadGateway, gin.H{"error": "billing provider unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"checkout_url": url})
}

// Portal opens a billing portal session for the customer.
//
//	@Summary	Open the billing portal
//	@Tags		Billing
//	@Produce	json
//	@Success	200	{object}	map[string]string
//	@Failure	409	{object}	map[string]string
//	@Security	SessionAuth
//	@Router		/billing/portal [post]
func (h *BillingHandler) Portal(c *gin.Context) {
	user := middleware.RequireUser(c)
	if user == nil {
		return
	}
	if user.StripeCustomerID == "" {
		c.JSON(http.StatusConflict, gin.H{"error": "no billing account yet; start a checkout first"})
		return
	}

	url, err := h.provider.CreatePortalSession(c.Request.Context(), user.StripeCustomerID, h.baseURL+"/settings")
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to create portal session")
		c.JSON(http.StatusBadGateway, gin.H{"error": "billing provider unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"portal_url": url})
}

// Webhook receives signed payment provider events.
//
//	@Summary	Payment provider webhook
//	@Tags		Billing
//	@Accept		json
//	@Success	200
//	@Failure	400	{object}	map[string]string
//	@Router		/webhooks/stripe [post]
func (h *BillingHandler) Webhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable payload"})
		return
	}

	err = h.webhooks.HandleWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature"))
	switch {
	case err == nil:
		c.Status(http.StatusOK)
	case errors.Is(err, billing.ErrInvalidSignature):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid signature"})
	case errors.Is(err, billing.ErrUnknownCustomer):
		// Acknowledge so the provider stops retrying an event we
		// cannot attribute.
		c.Status(http.StatusOK)
	default:
		h.logger.Error().Err(err).Msg("webhook processing failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "webhook processing failed"})
	}
}
