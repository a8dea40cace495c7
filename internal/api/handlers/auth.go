package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/linkstream/linkstream/internal/api/middleware"
	"github.com/linkstream/linkstream/internal/auth"
	"github.com/linkstream/linkstream/internal/models"
)

// AuthStore defines the interface for user persistence during login.
type AuthStore interface {
	GetUserByOIDCSubject(ctx context.Context, subject string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
	UpdateUser(ctx context.Context, user *models.User) error
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// AuthHandler handles the OIDC login flow and session endpoints.
type AuthHandler struct {
	oidc     *auth.OIDC
	sessions *auth.SessionStore
	store    AuthStore
	baseURL  string
	logger   zerolog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(oidc *auth.OIDC, sessions *auth.SessionStore, store AuthStore, baseURL string, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		oidc:     oidc,
		sessions: sessions,
		store:    store,
		baseURL:  baseURL,
		logger:   logger.With().Str("component", "auth_handler").Logger(),
	}
}

// RegisterRoutes registers auth routes on the given router group.
func (h *AuthHandler) RegisterRoutes(r *gin.RouterGroup) {
	authGroup := r.Group("/auth")
	{
		authGroup.GET("/login", h.Login)
		authGroup.GET("/callback", h.Callback)
		authGroup.POST("/logout", h.Logout)
	}
}

// Login starts the OIDC authorization code flow.
//
//	@Summary	Begin login
//	@Tags		Auth
//	@Success	302
//	@Router		/auth/login [get]
func (h *AuthHandler) Login(c *gin.Context) {
	state, err := auth.GenerateState()
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to generate state")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to start login"})
		return
	}

	if err := h.sessions.SetOIDCState(c.Request, c.Writer, state); err != nil {
		h.logger.Error().Err(err).Msg("failed to persist state")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to start login"})
		return
	}

	c.Redirect(http.StatusFound, h.oidc.AuthorizationURL(state))
}

// Callback completes the OIDC flow, upserting the user and creating a session.
//
//	@Summary	Complete login
//	@Tags		Auth
//	@Param		code	query	string	true	"authorization code"
//	@Param		state	query	string	true	"anti-CSRF state"
//	@Success	302
//	@Failure	400	{object}	map[string]string
//	@Router		/auth/callback [get]
func (h *AuthHandler) Callback(c *gin.Context) {
	expectedState, err := h.sessions.GetOIDCState(c.Request, c.Writer)
	if err != nil || expectedState == "" || c.Query("state") != expectedState {
		h.logger.Warn().Msg("oidc state mismatch")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid state"})
		return
	}

	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing authorization code"})
		return
	}

	token, err := h.oidc.Exchange(c.Request.Context(), code)
	if err != nil {
		h.logger.Error().Err(err).Msg("code exchange failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "authentication failed"})
		return
	}

	claims, err := h.oidc.VerifyIDToken(c.Request.Context(), token)
	if err != nil {
		h.logger.Error().Err(err).Msg("id token verification failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "authentication failed"})
		return
	}

	user, err := h.upsertUser(c.Request.Context(), claims)
	if err != nil {
		h.logger.Error().Err(err).Msg("user upsert failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "authentication failed"})
		return
	}

	sessionUser := &auth.SessionUser{
		ID:          user.ID,
		OIDCSubject: user.OIDCSubject,
		Email:       user.Email,
		Name:        user.Name,
	}
	if err := h.sessions.SetUser(c.Request, c.Writer, sessionUser); err != nil {
		h.logger.Error().Err(err).Msg("failed to create session")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "authentication failed"})
		return
	}

	h.audit(user, models.AuditActionLogin, c)
	h.logger.Info().Str("user_id", user.ID.String()).Msg("user logged in")
	c.Redirect(http.StatusFound, h.baseURL+"/")
}

// upsertUser finds or creates the user behind verified OIDC claims and
// refreshes profile fields on every login.
func (h *AuthHandler) upsertUser(ctx context.Context, claims *auth.IDTokenClaims) (*models.User, error) {
	user, err := h.store.GetUserByOIDCSubject(ctx, claims.Subject)
	if err != nil {
		user = models.NewUser(claims.Subject, claims.Email, claims.Name)
		if err := h.store.CreateUser(ctx, user); err != nil {
			return nil, err
		}
		return user, nil
	}

	if user.Email != claims.Email || user.Name != claims.Name {
		user.Email = claims.Email
		user.Name = claims.Name
		if err := h.store.UpdateUser(ctx, user); err != nil {
			return nil, err
		}
	}
	return user, nil
}

// Logout clears the session.
//
//	@Summary	Log out
//	@Tags		Auth
//	@Success	204
//	@Router		/auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	user := middleware.GetUser(c)
	if err := h.sessions.ClearUser(c.Request, c.Writer); err != nil {
		h.logger.Warn().Err(err).Msg("failed to clear session")
	}
	if user != nil {
		h.audit(user, models.AuditActionLogout, c)
	}
	c.Status(http.StatusNoContent)
}

func (h *AuthHandler) audit(user *models.User, action models.AuditAction, c *gin.Context) {
	entry := models.NewAuditLog(action, "session", models.AuditResultSuccess).
		WithUser(user.ID).
		WithRequestInfo(c.ClientIP(), c.Request.UserAgent())
	go func() {
		if err := h.store.CreateAuditLog(context.Background(), entry); err != nil {
			h.logger.Error().Err(err).Msg("failed to create audit log")
		}
	}()
}
