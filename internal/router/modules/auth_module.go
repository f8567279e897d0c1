package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	handlers "github.com/nmkdev/intern-management/internal/interface/http"
	"github.com/nmkdev/intern-management/internal/interface/middleware"
)

// AuthModule registers the magic-link login flow.
// Public: request-magic-link, verify-magic-link, check-session, logout.
// The request endpoint carries the tightest rate limit: it triggers email
// delivery and must not become a mail cannon.
type AuthModule struct {
	Handler *handlers.AuthHandler
	Redis   *redis.Client
}

func NewAuthModule(h *handlers.AuthHandler, rdb *redis.Client) *AuthModule {
	return &AuthModule{Handler: h, Redis: rdb}
}

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	requestLimiter := middleware.RateLimit(m.Redis, 5, time.Minute, middleware.KeyByIPAndPath())
	verifyLimiter := middleware.RateLimit(m.Redis, 30, time.Minute, middleware.KeyByIPAndPath())

	rg.POST("/auth/request-magic-link", requestLimiter, m.Handler.RequestMagicLink)
	rg.POST("/auth/verify-magic-link", verifyLimiter, m.Handler.VerifyMagicLink)
	rg.GET("/auth/check-session", m.Handler.CheckSession)
	rg.POST("/auth/logout", m.Handler.Logout)
}
