package models

import (
	"time"

	"github.com/google/uuid"
)

// UserRole defines the platform-level role of a user.
type UserRole string

const (
	// UserRoleAdmin has access to the admin endpoints.
	UserRoleAdmin UserRole = "admin"
	// UserRoleUser has standard access to their own data and team.
	UserRoleUser UserRole = "user"
)

// ReminderFrequency controls how often a user receives export reminder emails.
type ReminderFrequency string

const (
	ReminderNever     ReminderFrequency = "never"
	ReminderMonthly   ReminderFrequency = "monthly"
	ReminderQuarterly ReminderFrequency = "quarterly"
)

// IsValidReminderFrequency checks if the given value is a known reminder frequency.
func IsValidReminderFrequency(f string) bool {
	switch ReminderFrequency(f) {
	case ReminderNever, ReminderMonthly, ReminderQuarterly:
		return true
	}
	return false
}

// User represents a user authenticated via the identity provider.
type User struct {
	ID                   uuid.UUID         `json:"id"`
	OIDCSubject          string            `json:"oidc_subject"`
	Email                string            `json:"email"`
	Name                 string            `json:"name,omitempty"`
	Role                 UserRole          `json:"role"`
	Tier                 Tier              `json:"tier"`
	TeamID               *uuid.UUID        `json:"team_id,omitempty"`
	TeamRole             TeamRole          `json:"team_role,omitempty"`
	TeamJoinedAt         *time.Time        `json:"team_joined_at,omitempty"`
	StripeCustomerID     string            `json:"stripe_customer_id,omitempty"`
	StripeSubscriptionID string            `json:"stripe_subscription_id,omitempty"`
	ReminderFrequency    ReminderFrequency `json:"reminder_frequency"`
	ReminderLastSentAt   *time.Time        `json:"reminder_last_sent_at,omitempty"`
	CreatedAt            time.Time         `json:"created_at"`
	UpdatedAt            time.Time         `json:"updated_at"`
}

// NewUser creates a new User on the free tier.
func NewUser(oidcSubject, email, name string) *User {
	now := time.Now()
	return &User{
		ID:                uuid.New(),
		OIDCSubject:       oidcSubject,
		Email:             email,
		Name:              name,
		Role:              UserRoleUser,
		Tier:              TierFree,
		ReminderFrequency: ReminderMonthly,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// IsAdmin returns true if the user has the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == UserRoleAdmin
}

// OnTeam returns true if the user belongs to a team.
func (u *User) OnTeam() bool {
	return u.TeamID != nil
}
