package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/linkstream/linkstream/internal/models"
)

// Sentinel errors surfaced to the teams service for error mapping.
var (
	// ErrSeatLimitReached means members plus pending invites already fill max_seats.
	ErrSeatLimitReached = errors.New("team seat limit reached")
	// ErrInviteAlreadyUsed means the invite token was already accepted.
	ErrInviteAlreadyUsed = errors.New("invite already used")
	// ErrInviteExpired means the invite token is past its expiry.
	ErrInviteExpired = errors.New("invite expired")
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("not found")
)

// Team methods

// GetTeamByID returns a team by its ID.
func (db *DB) GetTeamByID(ctx context.Context, id uuid.UUID) (*models.Team, error) {
	var team models.Team
	err := db.Pool.QueryRow(ctx, `
		SELECT id, name, owner_id, max_seats, created_at, updated_at
		FROM teams
		WHERE id = $1
	`, id).Scan(&team.ID, &team.Name, &team.OwnerID, &team.MaxSeats, &team.CreatedAt, &team.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get team by ID: %w", err)
	}
	return &team, nil
}

// CreateTeam creates a team and assigns the owner to it in one transaction.
func (db *DB) CreateTeam(ctx context.Context, team *models.Team) error {
	return db.ExecTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO teams (id, name, owner_id, max_seats, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, team.ID, team.Name, team.OwnerID, team.MaxSeats, team.CreatedAt, team.UpdatedAt)
		if err != nil {
			return fmt.Errorf("create team: %w", err)
		}

		_, err = tx.Exec(ctx, `
			UPDATE users
			SET team_id = $2, team_role = $3, team_joined_at = NOW(), updated_at = NOW()
			WHERE id = $1
		`, team.OwnerID, team.ID, string(models.TeamRoleOwner))
		if err != nil {
			return fmt.Errorf("assign team owner: %w", err)
		}
		return nil
	})
}

// UpdateTeam updates a team's name and seat limit.
func (db *DB) UpdateTeam(ctx context.Context, team *models.Team) error {
	team.UpdatedAt = time.Now()
	tag, err := db.Pool.Exec(ctx, `
		UPDATE teams SET name = $2, max_seats = $3, updated_at = $4 WHERE id = $1
	`, team.ID, team.Name, team.MaxSeats, team.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update team: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteTeam deletes a team; member users are detached via ON DELETE SET NULL.
func (db *DB) DeleteTeam(ctx context.Context, id uuid.UUID) error {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM teams WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete team: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetTeamMembers returns the members of a team with display details.
func (db *DB) GetTeamMembers(ctx context.Context, teamID uuid.UUID) ([]*models.TeamMember, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT id, team_id, COALESCE(team_role, 'member'), email, name, COALESCE(team_joined_at, created_at)
		FROM users
		WHERE team_id = $1
		ORDER BY team_joined_at
	`, teamID)
	if err != nil {
		return nil, fmt.Errorf("get team members: %w", err)
	}
	defer rows.Close()

	var members []*models.TeamMember
	for rows.Next() {
		var m models.TeamMember
		var roleStr string
		if err := rows.Scan(&m.UserID, &m.TeamID, &roleStr, &m.Email, &m.Name, &m.JoinedAt); err != nil {
			return nil, fmt.Errorf("scan team member: %w", err)
		}
		m.Role = models.TeamRole(roleStr)
		members = append(members, &m)
	}
	return members, rows.Err()
}

// RemoveTeamMember detaches a user from a team.
func (db *DB) RemoveTeamMember(ctx context.Context, teamID, userID uuid.UUID) error {
	tag, err := db.Pool.Exec(ctx, `
		UPDATE users
		SET team_id = NULL, team_role = NULL, team_joined_at = NULL, updated_at = NOW()
		WHERE id = $1 AND team_id = $2
	`, userID, teamID)
	if err != nil {
		return fmt.Errorf("remove team member: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Invite methods

// seatUsage counts members plus pending (unaccepted, unexpired) invites.
// Must run inside a transaction that has locked the team row.
func seatUsage(ctx context.Context, tx pgx.Tx, teamID uuid.UUID) (int, error) {
	var members, pending int
	err := tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM users WHERE team_id = $1`, teamID,
	).Scan(&members)
	if err != nil {
		return 0, fmt.Errorf("count members: %w", err)
	}
	err = tx.QueryRow(ctx, `
		SELECT COUNT(*) FROM team_invites
		WHERE team_id = $1 AND accepted_at IS NULL AND expires_at > NOW()
	`, teamID).Scan(&pending)
	if err != nil {
		return 0, fmt.Errorf("count pending invites: %w", err)
	}
	return members + pending, nil
}

// CreateInvite inserts an invite after re-checking the seat limit under a
// row lock on the team, so concurrent invites cannot overshoot max_seats.
func (db *DB) CreateInvite(ctx context.Context, invite *models.TeamInvite) error {
	return db.ExecTx(ctx, func(tx pgx.Tx) error {
		var maxSeats int
		err := tx.QueryRow(ctx,
			`SELECT max_seats FROM teams WHERE id = $1 FOR UPDATE`, invite.TeamID,
		).Scan(&maxSeats)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("lock team: %w", err)
		}

		used, err := seatUsage(ctx, tx, invite.TeamID)
		if err != nil {
			return err
		}
		if used >= maxSeats {
			return ErrSeatLimitReached
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO team_invites (id, team_id, email, role, token, invited_by, expires_at, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, invite.ID, invite.TeamID, invite.Email, string(invite.Role), invite.Token,
			invite.InvitedBy, invite.ExpiresAt, invite.CreatedAt)
		if err != nil {
			return fmt.Errorf("create invite: %w", err)
		}
		return nil
	})
}

const inviteColumns = `id, team_id, email, role, token, invited_by, expires_at, accepted_at, created_at`

func scanInvite(row pgx.Row) (*models.TeamInvite, error) {
	var inv models.TeamInvite
	var roleStr string
	err := row.Scan(&inv.ID, &inv.TeamID, &inv.Email, &roleStr, &inv.Token,
		&inv.InvitedBy, &inv.ExpiresAt, &inv.AcceptedAt, &inv.CreatedAt)
	if err != nil {
		return nil, err
	}
	inv.Role = models.TeamRole(roleStr)
	return &inv, nil
}

// GetInviteByToken returns an invite by its token.
func (db *DB) GetInviteByToken(ctx context.Context, token string) (*models.TeamInvite, error) {
	inv, err := scanInvite(db.Pool.QueryRow(ctx,
		"SELECT "+inviteColumns+" FROM team_invites WHERE token = $1", token))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get invite by token: %w", err)
	}
	return inv, nil
}

// GetPendingInvitesByTeamID returns unaccepted, unexpired invites for a team.
func (db *DB) GetPendingInvitesByTeamID(ctx context.Context, teamID uuid.UUID) ([]*models.TeamInvite, error) {
	rows, err := db.Pool.Query(ctx,
		"SELECT "+inviteColumns+` FROM team_invites
		 WHERE team_id = $1 AND accepted_at IS NULL AND expires_at > NOW()
		 ORDER BY created_at`, teamID)
	if err != nil {
		return nil, fmt.Errorf("list pending invites: %w", err)
	}
	defer rows.Close()

	var invites []*models.TeamInvite
	for rows.Next() {
		inv, err := scanInvite(rows)
		if err != nil {
			return nil, fmt.Errorf("scan invite: %w", err)
		}
		invites = append(invites, inv)
	}
	return invites, rows.Err()
}

// AcceptInvite marks an invite accepted and attaches the user to the team,
// all under a row lock on the team so the seat check holds.
func (db *DB) AcceptInvite(ctx context.Context, token string, userID uuid.UUID) (*models.TeamInvite, error) {
	var accepted *models.TeamInvite
	err := db.ExecTx(ctx, func(tx pgx.Tx) error {
		inv, err := scanInvite(tx.QueryRow(ctx,
			"SELECT "+inviteColumns+" FROM team_invites WHERE token = $1 FOR UPDATE", token))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("get invite: %w", err)
		}

		if inv.IsAccepted() {
			return ErrInviteAlreadyUsed
		}
		if inv.IsExpired() {
			return ErrInviteExpired
		}

		var maxSeats int
		err = tx.QueryRow(ctx,
			`SELECT max_seats FROM teams WHERE id = $1 FOR UPDATE`, inv.TeamID,
		).Scan(&maxSeats)
		if err != nil {
			return fmt.Errorf("lock team: %w", err)
		}

		var members int
		err = tx.QueryRow(ctx,
			`SELECT COUNT(*) FROM users WHERE team_id = $1`, inv.TeamID,
		).Scan(&members)
		if err != nil {
			return fmt.Errorf("count members: %w", err)
		}
		// The accepting member replaces their own pending invite, so only
		// existing members count here.
		if members >= maxSeats {
			return ErrSeatLimitReached
		}

		now := time.Now()
		_, err = tx.Exec(ctx,
			`UPDATE team_invites SET accepted_at = $2 WHERE id = $1`, inv.ID, now)
		if err != nil {
			return fmt.Errorf("mark invite accepted: %w", err)
		}

		_, err = tx.Exec(ctx, `
			UPDATE users
			SET team_id = $2, team_role = $3, team_joined_at = $4, updated_at = $4
			WHERE id = $1
		`, userID, inv.TeamID, string(inv.Role), now)
		if err != nil {
			return fmt.Errorf("attach user to team: %w", err)
		}

		inv.AcceptedAt = &now
		accepted = inv
		return nil
	})
	if err != nil {
		return nil, err
	}
	return accepted, nil
}

// RevokeInvite deletes an unaccepted invite by token.
func (db *DB) RevokeInvite(ctx context.Context, teamID uuid.UUID, token string) error {
	tag, err := db.Pool.Exec(ctx, `
		DELETE FROM team_invites WHERE team_id = $1 AND token = $2 AND accepted_at IS NULL
	`, teamID, token)
	if err != nil {
		return fmt.Errorf("revoke invite: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// RevokeInvitesByEmail deletes all unaccepted invites for an email on a team.
func (db *DB) RevokeInvitesByEmail(ctx context.Context, teamID uuid.UUID, email string) (int64, error) {
	tag, err := db.Pool.Exec(ctx, `
		DELETE FROM team_invites WHERE team_id = $1 AND email = $2 AND accepted_at IS NULL
	`, teamID, email)
	if err != nil {
		return 0, fmt.Errorf("revoke invites by email: %w", err)
	}
	return tag.RowsAffected(), nil
}
