package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/linkstream/linkstream/internal/api/middleware"
	"github.com/linkstream/linkstream/internal/models"
)

// injectUser places a user in the request context the way the auth
// middleware would.
func injectUser(user *models.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		if user != nil {
			c.Set(string(middleware.UserContextKey), user)
		}
		c.Next()
	}
}

// jsonRequest builds a JSON request with the given body.
func jsonRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// doRequest runs a request through the router and records the response.
func doRequest(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// testUser creates a user on the given tier for testing.
func testUser(tier models.Tier) *models.User {
	u := models.NewUser("oidc|"+uuid.NewString(), "test@example.com", "Test User")
	u.Tier = tier
	return u
}
