// Package billing handles subscription plans, the Stripe API surface,
// and webhook-driven tier transitions.
package billing

import (
	"github.com/linkstream/linkstream/internal/models"
)

// Plan describes a purchasable subscription plan.
type Plan struct {
	Tier         models.Tier `json:"tier"`
	Name         string      `json:"name"`
	PriceID      string      `json:"price_id,omitempty"`
	MonthlyCents int         `json:"monthly_cents"`
	// SalesLed plans have no self-serve checkout.
	SalesLed bool `json:"sales_led,omitempty"`
}

// Catalog maps price IDs to tiers and exposes the purchasable plans.
type Catalog struct {
	plans       []Plan
	tierByPrice map[string]models.Tier
	priceByTier map[models.Tier]string
}

// NewCatalog builds the plan catalog from the configured Stripe price IDs.
func NewCatalog(priceProID, priceBusinessID string) *Catalog {
	plans := []Plan{
		{Tier: models.TierFree, Name: "Free", MonthlyCents: 0},
		{Tier: models.TierPro, Name: "Pro", PriceID: priceProID, MonthlyCents: 900},
		{Tier: models.TierBusiness, Name: "Business", PriceID: priceBusinessID, MonthlyCents: 4900},
		{Tier: models.TierEnterprise, Name: "Enterprise", SalesLed: true},
	}

	c := &Catalog{
		plans:       plans,
		tierByPrice: make(map[string]models.Tier),
		priceByTier: make(map[models.Tier]string),
	}
	for _, p := range plans {
		if p.PriceID != "" {
			c.tierByPrice[p.PriceID] = p.Tier
			c.priceByTier[p.Tier] = p.PriceID
		}
	}
	return c
}

// Plans returns all plans in display order.
func (c *Catalog) Plans() []Plan {
	return c.plans
}

// TierForPrice resolves a Stripe price ID to a tier. Unknown prices
// resolve to the free tier with ok=false.
func (c *Catalog) TierForPrice(priceID string) (models.Tier, bool) {
	tier, ok := c.tierByPrice[priceID]
	if !ok {
		return models.TierFree, false
	}
	return tier, true
}

// PriceForTier returns the price ID for a self-serve paid tier.
func (c *Catalog) PriceForTier(tier models.Tier) (string, bool) {
	price, ok := c.priceByTier[tier]
	return price, ok
}
