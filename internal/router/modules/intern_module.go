package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/nmkdev/intern-management/internal/application"
	"github.com/nmkdev/intern-management/internal/domain/entity"
	handlers "github.com/nmkdev/intern-management/internal/interface/http"
	"github.com/nmkdev/intern-management/internal/interface/middleware"
	"github.com/nmkdev/intern-management/pkg/helpers"
)

// InternModule registers the record routes. Everything is behind the session
// cookie; mutating routes are additionally gated by role:
// Staff: create, update, delete. HR: status. Either: list, search, comments.
type InternModule struct {
	Handler *handlers.InternHandler
	Auth    *application.AuthService
	Cookies *helpers.CookieManager
	Redis   *redis.Client
}

func NewInternModule(h *handlers.InternHandler, auth *application.AuthService, cookies *helpers.CookieManager, rdb *redis.Client) *InternModule {
	return &InternModule{Handler: h, Auth: auth, Cookies: cookies, Redis: rdb}
}

func (m *InternModule) Register(rg *gin.RouterGroup) {
	authed := rg.Group("/")
	authed.Use(middleware.Auth(m.Auth, m.Cookies))
	authed.Use(middleware.RateLimit(m.Redis, 120, time.Minute, middleware.KeyByUser()))

	authed.GET("/interns", m.Handler.List)
	authed.GET("/interns/search", m.Handler.Search)
	authed.POST("/interns/:idNumber/comments", m.Handler.AddComment)

	staff := authed.Group("/")
	staff.Use(middleware.RequireRole(entity.RoleStaff))
	{
		staff.POST("/interns", m.Handler.Create)
		staff.PUT("/interns/:idNumber", m.Handler.Update)
		staff.DELETE("/interns/:idNumber", m.Handler.Delete)
	}

	hr := authed.Group("/")
	hr.Use(middleware.RequireRole(entity.RoleHR))
	{
		hr.PATCH("/interns/:idNumber/status", m.Handler.SetStatus)
	}
}
