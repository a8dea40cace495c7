package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/linkstream/linkstream/internal/models"
)

// User methods

// GetUserByOIDCSubject returns a user by their OIDC subject.
func (db *DB) GetUserByOIDCSubject(ctx context.Context, subject string) (*models.User, error) {
	return db.getUser(ctx, "oidc_subject = $1", subject)
}

// GetUserByID returns a user by their ID.
func (db *DB) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return db.getUser(ctx, "id = $1", id)
}

// GetUserByEmail returns a user by their email address.
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return db.getUser(ctx, "email = $1", email)
}

// GetUserByStripeCustomerID returns a user by their Stripe customer ID.
func (db *DB) GetUserByStripeCustomerID(ctx context.Context, customerID string) (*models.User, error) {
	return db.getUser(ctx, "stripe_customer_id = $1", customerID)
}

const userColumns = `id, oidc_subject, email, name, role, tier, team_id, team_role, team_joined_at,
	stripe_customer_id, stripe_subscription_id,
	reminder_frequency, reminder_last_sent_at, created_at, updated_at`

// scanUser reads one row of userColumns. Every user SELECT goes through
// here so the column list and the scan destinations cannot drift apart.
func scanUser(rows interface{ Scan(dest ...any) error }) (*models.User, error) {
	var user models.User
	var roleStr, tierStr, reminderStr string
	var teamRole *string
	err := rows.Scan(
		&user.ID, &user.OIDCSubject, &user.Email, &user.Name, &roleStr, &tierStr,
		&user.TeamID, &teamRole, &user.TeamJoinedAt,
		&user.StripeCustomerID, &user.StripeSubscriptionID,
		&reminderStr, &user.ReminderLastSentAt, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	user.Role = models.UserRole(roleStr)
	user.Tier = models.Tier(tierStr)
	if teamRole != nil {
		user.TeamRole = models.TeamRole(*teamRole)
	}
	user.ReminderFrequency = models.ReminderFrequency(reminderStr)
	return &user, nil
}

func (db *DB) getUser(ctx context.Context, where string, arg any) (*models.User, error) {
	user, err := scanUser(db.Pool.QueryRow(ctx,
		"SELECT "+userColumns+" FROM users WHERE "+where, arg,
	))
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// CreateUser creates a new user.
func (db *DB) CreateUser(ctx context.Context, user *models.User) error {
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO users (id, oidc_subject, email, name, role, tier, team_id,
			stripe_customer_id, stripe_subscription_id,
			reminder_frequency, reminder_last_sent_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, user.ID, user.OIDCSubject, user.Email, user.Name, string(user.Role), string(user.Tier),
		user.TeamID, user.StripeCustomerID, user.StripeSubscriptionID,
		string(user.ReminderFrequency), user.ReminderLastSentAt, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// UpdateUser updates an existing user.
func (db *DB) UpdateUser(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now()
	tag, err := db.Pool.Exec(ctx, `
		UPDATE users
		SET email = $2, name = $3, role = $4, tier = $5, team_id = $6, team_role = NULLIF($7, ''),
			stripe_customer_id = $8, stripe_subscription_id = $9,
			reminder_frequency = $10, reminder_last_sent_at = $11, updated_at = $12
		WHERE id = $1
	`, user.ID, user.Email, user.Name, string(user.Role), string(user.Tier), user.TeamID, string(user.TeamRole),
		user.StripeCustomerID, user.StripeSubscriptionID,
		string(user.ReminderFrequency), user.ReminderLastSentAt, user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update user: user %s not found", user.ID)
	}
	return nil
}

// UpdateUserTier sets a user's subscription tier.
func (db *DB) UpdateUserTier(ctx context.Context, id uuid.UUID, tier models.Tier) error {
	tag, err := db.Pool.Exec(ctx, `
		UPDATE users SET tier = $2, updated_at = NOW() WHERE id = $1
	`, id, string(tier))
	if err != nil {
		return fmt.Errorf("update user tier: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update user tier: user %s not found", id)
	}
	return nil
}

// DeleteUser deletes a user and, via cascades, their backups, usage and invites.
func (db *DB) DeleteUser(ctx context.Context, id uuid.UUID) error {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete user: user %s not found", id)
	}
	return nil
}

// ListUsers returns all users ordered by creation time, newest first.
func (db *DB) ListUsers(ctx context.Context, limit, offset int) ([]*models.User, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := db.Pool.Query(ctx,
		"SELECT "+userColumns+" FROM users ORDER BY created_at DESC LIMIT $1 OFFSET $2",
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// CountUsersByTier returns the number of users on each tier.
func (db *DB) CountUsersByTier(ctx context.Context) (map[models.Tier]int64, error) {
	rows, err := db.Pool.Query(ctx, `SELECT tier, COUNT(*) FROM users GROUP BY tier`)
	if err != nil {
		return nil, fmt.Errorf("count users by tier: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.Tier]int64)
	for rows.Next() {
		var tier string
		var count int64
		if err := rows.Scan(&tier, &count); err != nil {
			return nil, fmt.Errorf("scan tier count: %w", err)
		}
		counts[models.Tier(tier)] = count
	}
	return counts, rows.Err()
}

// GetUsersDueReminder returns users whose reminder is due relative to now.
func (db *DB) GetUsersDueReminder(ctx context.Context, now time.Time) ([]*models.User, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE reminder_frequency <> 'never'
		  AND (reminder_last_sent_at IS NULL
			OR (reminder_frequency = 'monthly' AND reminder_last_sent_at < $1)
			OR (reminder_frequency = 'quarterly' AND reminder_last_sent_at < $2))
	`, now.AddDate(0, -1, 0), now.AddDate(0, -3, 0))
	if err != nil {
		return nil, fmt.Errorf("get users due reminder: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// MarkReminderSent stamps the user's last reminder time.
func (db *DB) MarkReminderSent(ctx context.Context, id uuid.UUID, sentAt time.Time) error {
	_, err := db.Pool.Exec(ctx, `
		UPDATE users SET reminder_last_sent_at = $2, updated_at = NOW() WHERE id = $1
	`, id, sentAt)
	if err != nil {
		return fmt.Errorf("mark reminder sent: %w", err)
	}
	return nil
}
