package models

import (
	"time"

	"github.com/google/uuid"
)

// TeamRole defines the role of a member within a team.
type TeamRole string

const (
	// TeamRoleOwner has full control over the team, including billing.
	TeamRoleOwner TeamRole = "owner"
	// TeamRoleAdmin can manage members and invites.
	TeamRoleAdmin TeamRole = "admin"
	// TeamRoleMember has standard access to team features.
	TeamRoleMember TeamRole = "member"
)

// ValidTeamRoles returns all valid team roles.
func ValidTeamRoles() []TeamRole {
	return []TeamRole{TeamRoleOwner, TeamRoleAdmin, TeamRoleMember}
}

// IsValidTeamRole checks if the given role is a valid team role.
func IsValidTeamRole(role string) bool {
	for _, r := range ValidTeamRoles() {
		if string(r) == role {
			return true
		}
	}
	return false
}

// Team represents a seat-limited group of users sharing a subscription.
type Team struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	OwnerID   uuid.UUID `json:"owner_id"`
	MaxSeats  int       `json:"max_seats"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewTeam creates a new Team owned by the given user.
func NewTeam(name string, ownerID uuid.UUID, maxSeats int) *Team {
	now := time.Now()
	return &Team{
		ID:        uuid.New(),
		Name:      name,
		OwnerID:   ownerID,
		MaxSeats:  maxSeats,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// TeamMember is a user's membership in a team, with display details.
type TeamMember struct {
	UserID   uuid.UUID `json:"user_id"`
	TeamID   uuid.UUID `json:"team_id"`
	Role     TeamRole  `json:"role"`
	Email    string    `json:"email"`
	Name     string    `json:"name,omitempty"`
	JoinedAt time.Time `json:"joined_at"`
}

// TeamInvite represents a pending offer to join a team.
// Expiry is computed from ExpiresAt at read time; there is no stored
// "expired" status.
type TeamInvite struct {
	ID         uuid.UUID  `json:"id"`
	TeamID     uuid.UUID  `json:"team_id"`
	Email      string     `json:"email"`
	Role       TeamRole   `json:"role"`
	Token      string     `json:"-"` // never expose the token in JSON
	InvitedBy  uuid.UUID  `json:"invited_by"`
	ExpiresAt  time.Time  `json:"expires_at"`
	AcceptedAt *time.Time `json:"accepted_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// NewTeamInvite creates a new TeamInvite.
func NewTeamInvite(teamID uuid.UUID, email string, role TeamRole, token string, invitedBy uuid.UUID, expiresAt time.Time) *TeamInvite {
	return &TeamInvite{
		ID:        uuid.New(),
		TeamID:    teamID,
		Email:     email,
		Role:      role,
		Token:     token,
		InvitedBy: invitedBy,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}
}

// IsExpired returns true if the invite has expired.
func (i *TeamInvite) IsExpired() bool {
	return time.Now().After(i.ExpiresAt)
}

// IsAccepted returns true if the invite has been accepted.
func (i *TeamInvite) IsAccepted() bool {
	return i.AcceptedAt != nil
}

// IsPending returns true if the invite still counts against the seat limit.
func (i *TeamInvite) IsPending() bool {
	return !i.IsAccepted() && !i.IsExpired()
}
