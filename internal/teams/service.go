// Package teams implements team membership, seat management, and the
// invite lifecycle on top of the database store.
package teams

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/linkstream/linkstream/internal/auth"
	"github.com/linkstream/linkstream/internal/db"
	"github.com/linkstream/linkstream/internal/models"
)

// InviteTTL is how long a team invite stays acceptable.
const InviteTTL = 7 * 24 * time.Hour

var (
	// ErrNotTeamAdmin means the caller lacks team admin or owner rights.
	ErrNotTeamAdmin = errors.New("caller is not a team admin")
	// ErrOwnerRemoval means someone tried to remove the team owner.
	ErrOwnerRemoval = errors.New("team owner cannot be removed")
	// ErrAlreadyOnTeam means the user already belongs to a team.
	ErrAlreadyOnTeam = errors.New("user already belongs to a team")
	// ErrTierWithoutTeams means the team's tier carries no seats.
	ErrTierWithoutTeams = errors.New("subscription tier does not include team seats")
)

// Store is the persistence the team service needs.
type Store interface {
	GetTeamByID(ctx context.Context, id uuid.UUID) (*models.Team, error)
	CreateTeam(ctx context.Context, team *models.Team) error
	UpdateTeam(ctx context.Context, team *models.Team) error
	DeleteTeam(ctx context.Context, id uuid.UUID) error
	GetTeamMembers(ctx context.Context, teamID uuid.UUID) ([]*models.TeamMember, error)
	RemoveTeamMember(ctx context.Context, teamID, userID uuid.UUID) error
	CreateInvite(ctx context.Context, invite *models.TeamInvite) error
	GetInviteByToken(ctx context.Context, token string) (*models.TeamInvite, error)
	GetPendingInvitesByTeamID(ctx context.Context, teamID uuid.UUID) ([]*models.TeamInvite, error)
	AcceptInvite(ctx context.Context, token string, userID uuid.UUID) (*models.TeamInvite, error)
	RevokeInvite(ctx context.Context, teamID uuid.UUID, token string) error
	RevokeInvitesByEmail(ctx context.Context, teamID uuid.UUID, email string) (int64, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
}

// Mailer sends invite notifications. Sending is best effort; a mail
// failure never rolls back the invite.
type Mailer interface {
	SendTeamInvite(ctx context.Context, email, teamName, inviterName, token string) error
}

// Service coordinates team operations.
type Service struct {
	store  Store
	mailer Mailer
	logger zerolog.Logger
}

// NewService creates a team service. A nil mailer disables notifications.
func NewService(store Store, mailer Mailer, logger zerolog.Logger) *Service {
	return &Service{
		store:  store,
		mailer: mailer,
		logger: logger.With().Str("component", "teams").Logger(),
	}
}

// Provision creates a team for a user whose tier includes seats, with the
// user as owner. Called when a business or enterprise subscription
// activates. No-op if the user is already on a team.
func (s *Service) Provision(ctx context.Context, owner *models.User, name string) (*models.Team, error) {
	if owner.OnTeam() {
		return s.store.GetTeamByID(ctx, *owner.TeamID)
	}

	limits := models.LimitsForTier(owner.Tier)
	if limits.MaxSeats <= 0 {
		return nil, ErrTierWithoutTeams
	}

	if strings.TrimSpace(name) == "" {
		name = fmt.Sprintf("%s's team", owner.Name)
	}

	team := models.NewTeam(name, owner.ID, limits.MaxSeats)
	if err := s.store.CreateTeam(ctx, team); err != nil {
		return nil, fmt.Errorf("teams: create team: %w", err)
	}

	s.logger.Info().
		Str("team_id", team.ID.String()).
		Str("owner_id", owner.ID.String()).
		Int("max_seats", team.MaxSeats).
		Msg("team provisioned")
	return team, nil
}

// Get returns the team a member belongs to.
func (s *Service) Get(ctx context.Context, caller *models.User, teamID uuid.UUID) (*models.Team, error) {
	team, err := s.store.GetTeamByID(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("get team: %w", err)
	}
	if team.OwnerID != caller.ID && (caller.TeamID == nil || *caller.TeamID != teamID) {
		return nil, ErrNotTeamAdmin
	}
	return team, nil
}

// Rename changes the team name. Owner or team admin only.
func (s *Service) Rename(ctx context.Context, caller *models.User, teamID uuid.UUID, name string) (*models.Team, error) {
	team, err := s.requireAdmin(ctx, caller, teamID)
	if err != nil {
		return nil, err
	}
	team.Name = name
	if err := s.store.UpdateTeam(ctx, team); err != nil {
		return nil, fmt.Errorf("rename team: %w", err)
	}
	return team, nil
}

// Disband deletes the team. Owner only. Every other member is detached
// and dropped to the free tier; the owner keeps their subscription.
func (s *Service) Disband(ctx context.Context, caller *models.User, teamID uuid.UUID) error {
	team, err := s.store.GetTeamByID(ctx, teamID)
	if err != nil {
		return fmt.Errorf("get team: %w", err)
	}
	if team.OwnerID != caller.ID {
		return ErrNotTeamAdmin
	}

	members, err := s.store.GetTeamMembers(ctx, teamID)
	if err != nil {
		return fmt.Errorf("list members: %w", err)
	}
	for _, m := range members {
		if m.UserID == team.OwnerID {
			continue
		}
		user, err := s.store.GetUserByID(ctx, m.UserID)
		if err != nil {
			return fmt.Errorf("get member: %w", err)
		}
		user.TeamID = nil
		user.TeamRole = ""
		user.Tier = models.TierFree
		if err := s.store.UpdateUser(ctx, user); err != nil {
			return fmt.Errorf("detach member: %w", err)
		}
	}

	if err := s.store.DeleteTeam(ctx, teamID); err != nil {
		return fmt.Errorf("delete team: %w", err)
	}

	caller.TeamID = nil
	caller.TeamRole = ""
	if err := s.store.UpdateUser(ctx, caller); err != nil {
		return fmt.Errorf("detach owner: %w", err)
	}

	s.logger.Info().Str("team_id", teamID.String()).Msg("team disbanded")
	return nil
}

// requireAdmin checks that the caller can manage the given team.
func (s *Service) requireAdmin(ctx context.Context, caller *models.User, teamID uuid.UUID) (*models.Team, error) {
	team, err := s.store.GetTeamByID(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if team.OwnerID == caller.ID {
		return team, nil
	}
	if caller.TeamID != nil && *caller.TeamID == teamID && caller.TeamRole == models.TeamRoleAdmin {
		return team, nil
	}
	return nil, ErrNotTeamAdmin
}

// Invite creates a pending invite for an email address and emails the
// token. Seat enforcement (members plus pending invites against
// max_seats) happens transactionally in the store.
func (s *Service) Invite(ctx context.Context, caller *models.User, teamID uuid.UUID, email string, role models.TeamRole) (*models.TeamInvite, error) {
	team, err := s.requireAdmin(ctx, caller, teamID)
	if err != nil {
		return nil, err
	}
	if role != models.TeamRoleAdmin && role != models.TeamRoleMember {
		role = models.TeamRoleMember
	}

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, errors.New("teams: invite email is required")
	}

	token, err := auth.GenerateInviteToken()
	if err != nil {
		return nil, fmt.Errorf("teams: generate invite token: %w", err)
	}

	invite := models.NewTeamInvite(teamID, email, role, token, caller.ID, time.Now().Add(InviteTTL))
	if err := s.store.CreateInvite(ctx, invite); err != nil {
		return nil, err
	}

	if s.mailer != nil {
		if err := s.mailer.SendTeamInvite(ctx, email, team.Name, caller.Name, token); err != nil {
			s.logger.Warn().Err(err).Str("email", email).Msg("invite email failed")
		}
	}

	s.logger.Info().
		Str("team_id", teamID.String()).
		Str("email", email).
		Str("role", string(role)).
		Msg("invite created")
	return invite, nil
}

// Accept redeems an invite token for the given user. The store enforces
// single use, expiry, and the seat limit atomically. On success the
// user's tier follows the team owner's tier.
func (s *Service) Accept(ctx context.Context, user *models.User, token string) (*models.Team, error) {
	if user.OnTeam() {
		return nil, ErrAlreadyOnTeam
	}

	invite, err := s.store.AcceptInvite(ctx, token, user.ID)
	if err != nil {
		return nil, err
	}

	team, err := s.store.GetTeamByID(ctx, invite.TeamID)
	if err != nil {
		return nil, err
	}

	owner, err := s.store.GetUserByID(ctx, team.OwnerID)
	if err == nil && owner.Tier != user.Tier {
		user.Tier = owner.Tier
		user.TeamID = &team.ID
		user.TeamRole = invite.Role
		if uerr := s.store.UpdateUser(ctx, user); uerr != nil {
			s.logger.Warn().Err(uerr).Str("user_id", user.ID.String()).Msg("tier sync after accept failed")
		}
	} else {
		user.TeamID = &team.ID
		user.TeamRole = invite.Role
	}

	s.logger.Info().
		Str("team_id", team.ID.String()).
		Str("user_id", user.ID.String()).
		Msg("invite accepted")
	return team, nil
}

// Revoke cancels a pending invite, freeing its seat.
func (s *Service) Revoke(ctx context.Context, caller *models.User, teamID uuid.UUID, token string) error {
	if _, err := s.requireAdmin(ctx, caller, teamID); err != nil {
		return err
	}
	return s.store.RevokeInvite(ctx, teamID, token)
}

// RevokeByEmail cancels every pending invite for an email address. Admin
// only. Returns ErrNotFound when no pending invite matches.
func (s *Service) RevokeByEmail(ctx context.Context, caller *models.User, teamID uuid.UUID, email string) (int64, error) {
	if _, err := s.requireAdmin(ctx, caller, teamID); err != nil {
		return 0, err
	}
	revoked, err := s.store.RevokeInvitesByEmail(ctx, teamID, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return 0, err
	}
	if revoked == 0 {
		return 0, db.ErrNotFound
	}
	return revoked, nil
}

// Members lists current team members.
func (s *Service) Members(ctx context.Context, caller *models.User, teamID uuid.UUID) ([]*models.TeamMember, error) {
	if caller.TeamID == nil || *caller.TeamID != teamID {
		if _, err := s.requireAdmin(ctx, caller, teamID); err != nil {
			return nil, err
		}
	}
	return s.store.GetTeamMembers(ctx, teamID)
}

// PendingInvites lists invites that still count against the seat limit.
func (s *Service) PendingInvites(ctx context.Context, caller *models.User, teamID uuid.UUID) ([]*models.TeamInvite, error) {
	if _, err := s.requireAdmin(ctx, caller, teamID); err != nil {
		return nil, err
	}
	return s.store.GetPendingInvitesByTeamID(ctx, teamID)
}

// RemoveMember detaches a member from the team and drops them back to
// the free tier. The owner cannot be removed; members may remove
// themselves.
func (s *Service) RemoveMember(ctx context.Context, caller *models.User, teamID, userID uuid.UUID) error {
	team, err := s.store.GetTeamByID(ctx, teamID)
	if err != nil {
		return err
	}
	if userID == team.OwnerID {
		return ErrOwnerRemoval
	}
	if caller.ID != userID {
		if _, err := s.requireAdmin(ctx, caller, teamID); err != nil {
			return err
		}
	}

	if err := s.store.RemoveTeamMember(ctx, teamID, userID); err != nil {
		return err
	}

	member, err := s.store.GetUserByID(ctx, userID)
	if err == nil {
		member.Tier = models.TierFree
		member.TeamID = nil
		member.TeamRole = ""
		if uerr := s.store.UpdateUser(ctx, member); uerr != nil {
			s.logger.Warn().Err(uerr).Str("user_id", userID.String()).Msg("tier downgrade after removal failed")
		}
	}

	s.logger.Info().
		Str("team_id", teamID.String()).
		Str("user_id", userID.String()).
		Msg("member removed")
	return nil
}
