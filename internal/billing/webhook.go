package billing

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/linkstream/linkstream/internal/models"
)

// SignatureTolerance bounds how old a webhook timestamp may be.
const SignatureTolerance = 5 * time.Minute

var (
	// ErrInvalidSignature means the webhook signature did not verify.
	ErrInvalidSignature = errors.New("invalid webhook signature")
	// ErrUnknownCustomer means the event referenced no known user.
	ErrUnknownCustomer = errors.New("unknown stripe customer")
)

// VerifySignature checks a Stripe-Signature header against the payload.
// The header carries a unix timestamp and one or more v1 HMAC-SHA256
// signatures over "timestamp.payload".
func VerifySignature(payload []byte, header, secret string, now time.Time) error {
	var ts int64
	var sigs []string
	for _, part := range strings.Split(header, ",") {
		k, v, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch k {
		case "t":
			parsed, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return ErrInvalidSignature
			}
			ts = parsed
		case "v1":
			sigs = append(sigs, v)
		}
	}
	if ts == 0 || len(sigs) == 0 {
		return ErrInvalidSignature
	}

	age := now.Sub(time.Unix(ts, 0))
	if age > SignatureTolerance || age < -SignatureTolerance {
		return ErrInvalidSignature
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(ts, 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	expected := mac.Sum(nil)

	for _, sig := range sigs {
		got, err := hex.DecodeString(sig)
		if err != nil {
			continue
		}
		if hmac.Equal(expected, got) {
			return nil
		}
	}
	return ErrInvalidSignature
}

// Event is the subset of a Stripe webhook event the service consumes.
type Event struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

// ParseEvent decodes a verified webhook payload.
func ParseEvent(payload []byte) (*Event, error) {
	var ev Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		return nil, fmt.Errorf("billing: parse event: %w", err)
	}
	if ev.Type == "" {
		return nil, errors.New("billing: event has no type")
	}
	return &ev, nil
}

type checkoutSession struct {
	Customer     string `json:"customer"`
	Subscription string `json:"subscription"`
}

type subscription struct {
	ID                string `json:"id"`
	Customer          string `json:"customer"`
	Status            string `json:"status"`
	CancelAtPeriodEnd bool   `json:"cancel_at_period_end"`
	Items             struct {
		Data []struct {
			Price struct {
				ID string `json:"id"`
			} `json:"price"`
		} `json:"data"`
	} `json:"items"`
}

func (s *subscription) priceID() string {
	if len(s.Items.Data) == 0 {
		return ""
	}
	return s.Items.Data[0].Price.ID
}

// UserStore is the user persistence webhook processing needs.
type UserStore interface {
	GetUserByStripeCustomerID(ctx context.Context, customerID string) (*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
}

// TeamProvisioner creates a team when a seat-bearing tier activates.
type TeamProvisioner interface {
	Provision(ctx context.Context, owner *models.User, name string) (*models.Team, error)
}

// Service applies verified webhook events to user subscription state.
type Service struct {
	store   UserStore
	catalog *Catalog
	teams   TeamProvisioner
	secret  string
	logger  zerolog.Logger
}

// NewService creates the webhook processing service.
func NewService(store UserStore, catalog *Catalog, teams TeamProvisioner, webhookSecret string, logger zerolog.Logger) *Service {
	return &Service{
		store:   store,
		catalog: catalog,
		teams:   teams,
		secret:  webhookSecret,
		logger:  logger.With().Str("component", "billing").Logger(),
	}
}

// HandleWebhook verifies and applies one webhook delivery. Unhandled
// event types are acknowledged without effect so Stripe stops retrying.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signatureHeader string) error {
	if err := VerifySignature(payload, signatureHeader, s.secret, time.Now()); err != nil {
		return err
	}

	ev, err := ParseEvent(payload)
	if err != nil {
		return err
	}

	log := s.logger.With().Str("event_id", ev.ID).Str("event_type", ev.Type).Logger()

	switch ev.Type {
	case "checkout.session.completed":
		err = s.handleCheckoutCompleted(ctx, ev)
	case "customer.subscription.created", "customer.subscription.updated":
		err = s.handleSubscriptionChanged(ctx, ev)
	case "customer.subscription.deleted":
		err = s.handleSubscriptionDeleted(ctx, ev)
	default:
		log.Debug().Msg("ignoring webhook event")
		return nil
	}

	if err != nil {
		log.Error().Err(err).Msg("webhook processing failed")
		return err
	}
	log.Info().Msg("webhook processed")
	return nil
}

func (s *Service) handleCheckoutCompleted(ctx context.Context, ev *Event) error {
	var sess checkoutSession
	if err := json.Unmarshal(ev.Data.Object, &sess); err != nil {
		return fmt.Errorf("billing: parse checkout session: %w", err)
	}
	if sess.Customer == "" {
		return ErrUnknownCustomer
	}

	user, err := s.store.GetUserByStripeCustomerID(ctx, sess.Customer)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrUnknownCustomer, sess.Customer)
	}

	user.StripeSubscriptionID = sess.Subscription
	return s.store.UpdateUser(ctx, user)
}

func (s *Service) handleSubscriptionChanged(ctx context.Context, ev *Event) error {
	var sub subscription
	if err := json.Unmarshal(ev.Data.Object, &sub); err != nil {
		return fmt.Errorf("billing: parse subscription: %w", err)
	}

	user, err := s.store.GetUserByStripeCustomerID(ctx, sub.Customer)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrUnknownCustomer, sub.Customer)
	}

	switch sub.Status {
	case "active", "trialing", "past_due":
		tier, ok := s.catalog.TierForPrice(sub.priceID())
		if !ok {
			s.logger.Warn().Str("price_id", sub.priceID()).Msg("subscription references unknown price")
			return nil
		}
		user.Tier = tier
		user.StripeSubscriptionID = sub.ID
		if err := s.store.UpdateUser(ctx, user); err != nil {
			return err
		}
		if models.LimitsForTier(tier).MaxSeats > 0 && s.teams != nil {
			if _, err := s.teams.Provision(ctx, user, ""); err != nil {
				s.logger.Warn().Err(err).Str("user_id", user.ID.String()).Msg("team provisioning failed")
			}
		}
		return nil
	case "canceled", "unpaid", "incomplete_expired":
		return s.downgrade(ctx, user)
	default:
		// incomplete, paused: leave the current tier until Stripe settles.
		return nil
	}
}

func (s *Service) handleSubscriptionDeleted(ctx context.Context, ev *Event) error {
	var sub subscription
	if err := json.Unmarshal(ev.Data.Object, &sub); err != nil {
		return fmt.Errorf("billing: parse subscription: %w", err)
	}

	user, err := s.store.GetUserByStripeCustomerID(ctx, sub.Customer)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrUnknownCustomer, sub.Customer)
	}
	return s.downgrade(ctx, user)
}

func (s *Service) downgrade(ctx context.Context, user *models.User) error {
	user.Tier = models.TierFree
	user.StripeSubscriptionID = ""
	return s.store.UpdateUser(ctx, user)
}
