// Package middleware provides HTTP middleware for the LinkStream API.
package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/linkstream/linkstream/internal/auth"
	"github.com/linkstream/linkstream/internal/models"
)

// UserStore is the interface for loading the database user behind a session.
type UserStore interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// ContextKey is the type for context keys used by this package.
type ContextKey string

const (
	// SessionUserContextKey holds the session-level user identity.
	SessionUserContextKey ContextKey = "session_user"
	// UserContextKey holds the full database user record.
	UserContextKey ContextKey = "user"
)

// AuthMiddleware returns a Gin middleware that requires a valid session
// and loads the database user behind it. Stale sessions whose user no
// longer exists are cleared.
func AuthMiddleware(sessions *auth.SessionStore, store UserStore, logger zerolog.Logger) gin.HandlerFunc {
	log := logger.With().Str("component", "auth_middleware").Logger()

	return func(c *gin.Context) {
		sessionUser, err := sessions.GetUser(c.Request)
		if err != nil {
			log.Debug().Err(err).Str("path", c.Request.URL.Path).Msg("unauthenticated request")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		// Refresh last activity timestamp for idle timeout tracking
		if err := sessions.TouchSession(c.Request, c.Writer); err != nil {
			log.Warn().Err(err).Msg("failed to touch session")
		}

		user, err := store.GetUserByID(c.Request.Context(), sessionUser.ID)
		if err != nil {
			log.Warn().
				Str("user_id", sessionUser.ID.String()).
				Msg("session user not found in database, clearing stale session")
			if clearErr := sessions.ClearUser(c.Request, c.Writer); clearErr != nil {
				log.Warn().Err(clearErr).Msg("failed to clear stale session")
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session expired, please log in again"})
			return
		}

		c.Set(string(SessionUserContextKey), sessionUser)
		c.Set(string(UserContextKey), user)

		log.Debug().
			Str("user_id", user.ID.String()).
			Str("path", c.Request.URL.Path).
			Msg("authenticated request")

		c.Next()
	}
}

// AdminMiddleware aborts with 403 unless the authenticated user has the
// admin role. Must run after AuthMiddleware.
func AdminMiddleware(logger zerolog.Logger) gin.HandlerFunc {
	log := logger.With().Str("component", "admin_middleware").Logger()

	return func(c *gin.Context) {
		user := GetUser(c)
		if user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		if !user.IsAdmin() {
			log.Warn().
				Str("user_id", user.ID.String()).
				Str("path", c.Request.URL.Path).
				Msg("admin access denied")
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			return
		}
		c.Next()
	}
}

// GetUser retrieves the authenticated database user from the Gin context.
// Returns nil if no user is authenticated.
func GetUser(c *gin.Context) *models.User {
	v, exists := c.Get(string(UserContextKey))
	if !exists {
		return nil
	}
	user, ok := v.(*models.User)
	if !ok {
		return nil
	}
	return user
}

// RequireUser is a helper that gets the authenticated user or aborts with 401.
// Use this in handlers that expect AuthMiddleware to have already run.
func RequireUser(c *gin.Context) *models.User {
	user := GetUser(c)
	if user == nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return nil
	}
	return user
}
