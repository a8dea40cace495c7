package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/linkstream/linkstream/internal/models"
)

// AuditStore defines the interface for audit log persistence operations.
type AuditStore interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// AuditMiddleware returns a Gin middleware that records mutating and
// reading API actions for compliance. Must run after AuthMiddleware.
func AuditMiddleware(store AuditStore, logger zerolog.Logger) gin.HandlerFunc {
	log := logger.With().Str("component", "audit_middleware").Logger()

	return func(c *gin.Context) {
		// Skip audit log endpoints to avoid recursion
		if strings.HasPrefix(c.Request.URL.Path, "/api/v1/admin/audit-logs") {
			c.Next()
			return
		}

		user := GetUser(c)

		c.Next()

		// Only audit authenticated requests
		if user == nil {
			return
		}

		action := mapMethodToAction(c.Request.Method)
		if action == "" {
			return
		}

		resourceType, resourceID := parseResourceFromPath(c.Request.URL.Path)
		if resourceType == "" {
			return
		}

		result := models.AuditResultSuccess
		if c.Writer.Status() >= 400 {
			result = models.AuditResultFailure
		}
		if c.Writer.Status() == http.StatusForbidden || c.Writer.Status() == http.StatusUnauthorized {
			result = models.AuditResultDenied
		}

		entry := models.NewAuditLog(action, resourceType, result).
			WithUser(user.ID).
			WithRequestInfo(c.ClientIP(), c.Request.UserAgent())
		if resourceID != uuid.Nil {
			entry.WithResource(resourceID)
		}

		// Save asynchronously to not block the response
		go func(ctx context.Context, entry *models.AuditLog) {
			if err := store.CreateAuditLog(ctx, entry); err != nil {
				log.Error().Err(err).
					Str("action", string(entry.Action)).
					Str("resource_type", entry.ResourceType).
					Msg("failed to create audit log")
			}
		}(context.Background(), entry)
	}
}

// mapMethodToAction maps HTTP methods to audit actions.
func mapMethodToAction(method string) models.AuditAction {
	switch method {
	case http.MethodGet:
		return models.AuditActionRead
	case http.MethodPost:
		return models.AuditActionCreate
	case http.MethodPut, http.MethodPatch:
		return models.AuditActionUpdate
	case http.MethodDelete:
		return models.AuditActionDelete
	default:
		return ""
	}
}

// parseResourceFromPath extracts the resource type and ID from the API path.
func parseResourceFromPath(path string) (string, uuid.UUID) {
	path = strings.TrimPrefix(path, "/api/v1/")
	path = strings.TrimPrefix(path, "/")

	parts := strings.Split(path, "/")
	if len(parts) == 0 {
		return "", uuid.Nil
	}

	resourceType := parts[0]

	var resourceID uuid.UUID
	if len(parts) >= 2 {
		if id, err := uuid.Parse(parts[1]); err == nil {
			resourceID = id
		}
	}

	switch resourceType {
	case "backups":
		return "backup", resourceID
	case "teams":
		return "team", resourceID
	case "invites":
		return "invite", uuid.Nil
	case "users":
		return "user", resourceID
	case "billing":
		return "billing", uuid.Nil
	case "usage":
		return "usage", uuid.Nil
	case "admin":
		return "admin", uuid.Nil
	case "gdpr":
		return "gdpr", uuid.Nil
	default:
		return "", uuid.Nil
	}
}
