package router

import (
	"net/http"

	"cloud.google.com/go/storage"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/nmkdev/intern-management/config"
	"github.com/nmkdev/intern-management/internal/application"
	gcsinfra "github.com/nmkdev/intern-management/internal/infrastructure/gcs"
	"github.com/nmkdev/intern-management/internal/infrastructure/mongodb"
	handlers "github.com/nmkdev/intern-management/internal/interface/http"
	"github.com/nmkdev/intern-management/internal/router/modules"
	"github.com/nmkdev/intern-management/pkg/helpers"
	"github.com/nmkdev/intern-management/pkg/response"
)

// Deps carries the process-wide dependencies, constructed once in main and
// passed down explicitly. No ambient singletons.
type Deps struct {
	Cfg      *config.Config
	Logger   *logrus.Logger
	DB       *mongo.Database
	Redis    *redis.Client
	GCS      *storage.Client
	ES       *elasticsearch.Client
	Notifier application.Notifier
}

// InitModules wires repositories, services, and handlers and registers all
// feature modules. Called once during startup.
func InitModules(r *Registry, d Deps) {
	users := mongodb.NewUserRepository(d.DB)
	interns := mongodb.NewInternRepository(d.DB)
	blobs := gcsinfra.NewBlobStore(d.GCS, d.Cfg.GCSBucket)
	cookies := helpers.NewCookie(d.Cfg.CookieName, d.Cfg.CookieDomain, d.Cfg.CookieSecure)

	authSvc := application.NewAuthService(users, d.Notifier, d.Logger, d.Cfg.MagicLinkTTL, d.Cfg.SessionTTL, d.Cfg.LoginBaseURL)
	internSvc := application.NewInternService(interns, blobs, d.Logger, d.ES, d.Cfg.ESInternsIndex)

	authHandler := handlers.NewAuthHandler(authSvc, d.Logger, cookies)
	internHandler := handlers.NewInternHandler(internSvc, blobs, d.Logger)
	adminHandler := handlers.NewAdminHandler(users, d.Logger)

	r.Add(modules.NewAuthModule(authHandler, d.Redis))
	r.Add(modules.NewInternModule(internHandler, authSvc, cookies, d.Redis))
	r.Add(modules.NewAdminModule(adminHandler, d.Redis))

	r.API.GET("/healthz", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"ok": true}, "healthy")
	})
}
