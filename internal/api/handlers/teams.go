package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/linkstream/linkstream/internal/api/middleware"
	"github.com/linkstream/linkstream/internal/db"
	"github.com/linkstream/linkstream/internal/models"
	"github.com/linkstream/linkstream/internal/teams"
)

// TeamService is the team management surface the handler needs.
type TeamService interface {
	Provision(ctx context.Context, owner *models.User, name string) (*models.Team, error)
	Get(ctx context.Context, caller *models.User, teamID uuid.UUID) (*models.Team, error)
	Rename(ctx context.Context, caller *models.User, teamID uuid.UUID, name string) (*models.Team, error)
	Disband(ctx context.Context, caller *models.User, teamID uuid.UUID) error
	Invite(ctx context.Context, caller *models.User, teamID uuid.UUID, email string, role models.TeamRole) (*models.TeamInvite, error)
	Accept(ctx context.Context, user *models.User, token string) (*models.Team, error)
	Revoke(ctx context.Context, caller *models.User, teamID uuid.UUID, token string) error
	RevokeByEmail(ctx context.Context, caller *models.User, teamID uuid.UUID, email string) (int64, error)
	Members(ctx context.Context, caller *models.User, teamID uuid.UUID) ([]*models.TeamMember, error)
	PendingInvites(ctx context.Context, caller *models.User, teamID uuid.UUID) ([]*models.TeamInvite, error)
	RemoveMember(ctx context.Context, caller *models.User, teamID, userID uuid.UUID) error
}

// TeamsHandler handles team and invite HTTP endpoints.
type TeamsHandler struct {
	service TeamService
	logger  zerolog.Logger
}

// NewTeamsHandler creates a new TeamsHandler.
func NewTeamsHandler(service TeamService, logger zerolog.Logger) *TeamsHandler {
	return &TeamsHandler{
		service: service,
		logger:  logger.With().Str("component", "teams_handler").Logger(),
	}
}

// RegisterRoutes registers team routes on the given router group.
func (h *TeamsHandler) RegisterRoutes(r *gin.RouterGroup) {
	team := r.Group("/team")
	{
		team.POST("", h.Create)
		team.GET("", h.Get)
		team.PATCH("", h.Rename)
		team.DELETE("", h.Disband)
		team.GET("/members", h.Members)
		team.GET("/invites", h.PendingInvites)
		team.POST("/invites", h.Invite)
		team.DELETE("/invites", h.RevokeByEmail)
		team.DELETE("/invites/:token", h.Revoke)
		team.DELETE("/members/:id", h.RemoveMember)
	}
	r.POST("/invites/:token/accept", h.Accept)
}

// requireTeam resolves the caller's team ID, responding 404 when the
// user has none.
func requireTeam(c *gin.Context, user *models.User) (uuid.UUID, bool) {
	if user.TeamID == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "you are not on a team"})
		return uuid.Nil, false
	}
	return *user.TeamID, true
}

func (h *TeamsHandler) writeServiceError(c *gin.Context, err error, action string) {
	switch {
	case errors.Is(err, teams.ErrNotTeamAdmin):
		c.JSON(http.StatusForbidden, gin.H{"error": "team admin rights required"})
	case errors.Is(err, teams.ErrOwnerRemoval):
		c.JSON(http.StatusConflict, gin.H{"error": "the team owner cannot be removed"})
	case errors.Is(err, teams.ErrAlreadyOnTeam):
		c.JSON(http.StatusConflict, gin.H{"error": "you already belong to a team"})
	case errors.Is(err, teams.ErrTierWithoutTeams):
		c.JSON(http.StatusForbidden, gin.H{"error": "your plan does not include team seats"})
	case errors.Is(err, db.ErrSeatLimitReached):
		c.JSON(http.StatusConflict, gin.H{"error": "all team seats are taken"})
	case errors.Is(err, db.ErrInviteAlreadyUsed):
		c.JSON(http.StatusGone, gin.H{"error": "invite has already been used"})
	case errors.Is(err, db.ErrInviteExpired):
		c.JSON(http.StatusGone, gin.H{"error": "invite has expired"})
	case errors.Is(err, db.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	default:
		h.logger.Error().Err(err).Str("action", action).Msg("team operation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "team operation failed"})
	}
}

type createTeamRequest struct {
	Name string `json:"name"`
}

// Create provisions a team for the caller. Idempotent for users who
// already own one; seat-bearing tiers only.
//
//	@Summary	Create team
//	@Tags		Teams
//	@Accept		json
//	@Produce	json
//	@Param		request	body		createTeamRequest	false	"team name"
//	@Success	201	{object}	map[string]models.Team
//	@Failure	403	{object}	map[string]string
//	@Security	SessionAuth
//	@Router		/team [post]
func (h *TeamsHandler) Create(c *gin.Context) {
	user := middleware.RequireUser(c)
	if user == nil {
		return
	}

	var req createTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	team, err := h.service.Provision(c.Request.Context(), user, strings.TrimSpace(req.Name))
	if err != nil {
		h.writeServiceError(c, err, "create")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"team": team})
}

// Get returns the caller's team.
//
//	@Summary	Get team
//	@Tags		Teams
//	@Produce	json
//	@Success	200	{object}	map[string]models.Team
//	@Failure	404	{object}	map[string]string
//	@Security	SessionAuth
//	@Router		/team [get]
func (h *TeamsHandler) Get(c *gin.Context) {
	user := middleware.RequireUser(c)
	if user == nil {
		return
	}
	teamID, ok := requireTeam(c, user)
	if !ok {
		return
	}

	team, err := h.service.Get(c.Request.Context(), user, teamID)
	if err != nil {
		h.writeServiceError(c, err, "get")
		return
	}
	c.JSON(http.StatusOK, gin.H{"team": team})
}

type renameTeamRequest struct {
	Name string `json:"name" binding:"required"`
}

// Rename changes the team name.
//
//	@Summary	Rename team
//	@Tags		Teams
//	@Accept		json
//	@Produce	json
//	@Param		request	body		renameTeamRequest	true	"new name"
//	@Success	200	{object}	map[string]models.Team
//	@Failure	403	{object}	map[string]string
//	@Security	SessionAuth
//	@Router		/team [patch]
func (h *TeamsHandler) Rename(c *gin.Context) {
	user := middleware.RequireUser(c)
	if user == nil {
		return
	}
	teamID, ok := requireTeam(c, user)
	if !ok {
		return
	}

	var req renameTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	team, err := h.service.Rename(c.Request.Context(), user, teamID, strings.TrimSpace(req.Name))
	if err != nil {
		h.writeServiceError(c, err, "rename")
		return
	}
	c.JSON(http.StatusOK, gin.H{"team": team})
}

// Disband deletes the caller's team and detaches its members.
//
//	@Summary	Disband team
//	@Tags		Teams
//	@Success	204
//	@Failure	403	{object}	map[string]string
//	@Security	SessionAuth
//	@Router		/team [delete]
func (h *TeamsHandler) Disband(c *gin.Context) {
	user := middleware.RequireUser(c)
	if user == nil {
		return
	}
	teamID, ok := requireTeam(c, user)
	if !ok {
		return
	}

	if err := h.service.Disband(c.Request.Context(), user, teamID); err != nil {
		h.writeServiceError(c, err, "disband")
		return
	}
	c.Status(http.StatusNoContent)
}

// Members lists the caller's team members.
//
//	@Summary	List team members
//	@Tags		Teams
//	@Produce	json
//	@Success	200	{object}	map[string][]models.TeamMember
//	@Failure	404	{object}	map[string]string
//	@Security	SessionAuth
//	@Router		/team/members [get]
func (h *TeamsHandler) Members(c *gin.Context) {
	user := middleware.RequireUser(c)
	if user == nil {
		return
	}
	teamID, ok := requireTeam(c, user)
	if !ok {
		return
	}

	members, err := h.service.Members(c.Request.Context(), user, teamID)
	if err != nil {
		h.writeServiceError(c, err, "members")
		return
	}
	c.JSON(http.StatusOK, gin.H{"members": members})
}

// PendingInvites lists outstanding invites for the caller's team.
//
//	@Summary	List pending invites
//	@Tags		Teams
//	@Produce	json
//	@Success	200	{object}	map[string][]models.TeamInvite
//	@Failure	403	{object}	map[string]string
//	@Security	SessionAuth
//	@Router		/team/invites [get]
func (h *TeamsHandler) PendingInvites(c *gin.Context) {
	user := middleware.RequireUser(c)
	if user == nil {
		return
	}
	teamID, ok := requireTeam(c, user)
	if !ok {
		return
	}

	invites, err := h.service.PendingInvites(c.Request.Context(), user, teamID)
	if err != nil {
		h.writeServiceError(c, err, "pending_invites")
		return
	}
	c.JSON(http.StatusOK, gin.H{"invites": invites})
}

type inviteRequest struct {
	Email string `json:"email" binding:"required,email"`
	Role  string `json:"role"`
}

// Invite sends a team invite to an email address.
//
//	@Summary	Invite a team member
//	@Tags		Teams
//	@Accept		json
//	@Produce	json
//	@Param		request	body		inviteRequest	true	"invite details"
//	@Success	201	{object}	map[string]models.TeamInvite
//	@Failure	409	{object}	map[string]string
//	@Security	SessionAuth
//	@Router		/team/invites [post]
func (h *TeamsHandler) Invite(c *gin.Context) {
	user := middleware.RequireUser(c)
	if user == nil {
		return
	}
	teamID, ok := requireTeam(c, user)
	if !ok {
		return
	}

	var req inviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "a valid email is required"})
		return
	}

	invite, err := h.service.Invite(c.Request.Context(), user, teamID, req.Email, models.TeamRole(req.Role))
	if err != nil {
		h.writeServiceError(c, err, "invite")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"invite": invite})
}

// Accept redeems an invite token for the authenticated user.
//
//	@Summary	Accept a team invite
//	@Tags		Teams
//	@Produce	json
//	@Param		token	path		string	true	"invite token"
//	@Success	200	{object}	map[string]models.Team
//	@Failure	410	{object}	map[string]string
//	@Security	SessionAuth
//	@Router		/invites/{token}/accept [post]
func (h *TeamsHandler) Accept(c *gin.Context) {
	user := middleware.RequireUser(c)
	if user == nil {
		return
	}

	team, err := h.service.Accept(c.Request.Context(), user, c.Param("token"))
	if err != nil {
		h.writeServiceError(c, err, "accept")
		return
	}
	c.JSON(http.StatusOK, gin.H{"team": team})
}

// Revoke cancels a pending invite.
//
//	@Summary	Revoke a pending invite
//	@Tags		Teams
//	@Param		token	path	string	true	"invite token"
//	@Success	204
//	@Failure	403	{object}	map[string]string
//	@Security	SessionAuth
//	@Router		/team/invites/{token} [delete]
func (h *TeamsHandler) Revoke(c *gin.Context) {
	user := middleware.RequireUser(c)
	if user == nil {
		return
	}
	teamID, ok := requireTeam(c, user)
	if !ok {
		return
	}

	if err := h.service.Revoke(c.Request.Context(), user, teamID, c.Param("token")); err != nil {
		h.writeServiceError(c, err, "revoke")
		return
	}
	c.Status(http.StatusNoContent)
}

// RevokeByEmail cancels every pending invite for an email address.
//
//	@Summary	Revoke invites by email
//	@Tags		Teams
//	@Produce	json
//	@Param		email	query	string	true	"invited email"
//	@Success	200	{object}	map[string]int64
//	@Failure	404	{object}	map[string]string
//	@Security	SessionAuth
//	@Router		/team/invites [delete]
func (h *TeamsHandler) RevokeByEmail(c *gin.Context) {
	user := middleware.RequireUser(c)
	if user == nil {
		return
	}
	teamID, ok := requireTeam(c, user)
	if !ok {
		return
	}

	email := strings.TrimSpace(c.Query("email"))
	if email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email query parameter is required"})
		return
	}

	revoked, err := h.service.RevokeByEmail(c.Request.Context(), user, teamID, email)
	if err != nil {
		h.writeServiceError(c, err, "revoke_by_email")
		return
	}
	c.JSON(http.StatusOK, gin.H{"revoked": revoked})
}

// RemoveMember removes a member from the caller's team.
//
//	@Summary	Remove a team member
//	@Tags		Teams
//	@Param		id	path	string	true	"user ID"
//	@Success	204
//	@Failure	409	{object}	map[string]string
//	@Security	SessionAuth
//	@Router		/team/members/{id} [delete]
func (h *TeamsHandler) RemoveMember(c *gin.Context) {
	user := middleware.RequireUser(c)
	if user == nil {
		return
	}
	teamID, ok := requireTeam(c, user)
	if !ok {
		return
	}

	memberID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	if err := h.service.RemoveMember(c.Request.Context(), user, teamID, memberID); err != nil {
		h.writeServiceError(c, err, "remove_member")
		return
	}
	c.Status(http.StatusNoContent)
}
