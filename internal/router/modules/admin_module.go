package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	handlers "github.com/nmkdev/intern-management/internal/interface/http"
	"github.com/nmkdev/intern-management/internal/interface/middleware"
)

// AdminModule registers the user administration utilities used to provision
// the departmental users. Tightly rate limited per IP.
type AdminModule struct {
	Handler *handlers.AdminHandler
	Redis   *redis.Client
}

func NewAdminModule(h *handlers.AdminHandler, rdb *redis.Client) *AdminModule {
	return &AdminModule{Handler: h, Redis: rdb}
}

func (m *AdminModule) Register(rg *gin.RouterGroup) {
	limiter := middleware.RateLimit(m.Redis, 10, time.Minute, middleware.KeyByIPAndPath())

	rg.POST("/users/create", limiter, m.Handler.CreateUser)
	rg.POST("/users/update-department", limiter, m.Handler.UpdateDepartment)
}
