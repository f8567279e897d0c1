package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nmkdev/intern-management/internal/application"
	"github.com/nmkdev/intern-management/internal/domain/entity"
	"github.com/nmkdev/intern-management/pkg/helpers"
	"github.com/nmkdev/intern-management/pkg/response"
)

const (
	ctxIdentityKey = "identity"
	ctxEmailKey    = "userEmail"
)

// Auth resolves the session cookie into an identity and injects it into the
// Gin context. An invalid or expired session clears the client-side cookie
// before rejecting the request.
func Auth(svc *application.AuthService, cookies *helpers.CookieManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		credential := cookies.Read(c)
		id, err := svc.ResolveSession(c.Request.Context(), credential)
		if err != nil {
			if errors.Is(err, application.ErrNoSession) {
				response.AbortError(c, http.StatusUnauthorized, "no session", nil)
				return
			}
			if errors.Is(err, application.ErrInvalidSession) {
				cookies.Clear(c)
				response.AbortError(c, http.StatusUnauthorized, "invalid session", nil)
				return
			}
			response.AbortError(c, http.StatusInternalServerError, "session check failed", nil)
			return
		}
		c.Set(ctxIdentityKey, id)
		c.Set(ctxEmailKey, id.Email)
		c.Next()
	}
}

// RequireRole gates a route group on the resolved role. The services enforce
// the same gate again; this just rejects earlier with the same error shape.
func RequireRole(role entity.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := IdentityFrom(c)
		if !ok || id.Role != role {
			response.AbortError(c, http.StatusForbidden, "forbidden", nil)
			return
		}
		c.Next()
	}
}

// IdentityFrom returns the identity injected by Auth.
func IdentityFrom(c *gin.Context) (entity.Identity, bool) {
	v, ok := c.Get(ctxIdentityKey)
	if !ok {
		return entity.Identity{}, false
	}
	id, ok := v.(entity.Identity)
	return id, ok
}
