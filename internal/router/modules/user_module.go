package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	handlers "github.com/oksasatya/go-user-admin/internal/interface/http"
	"github.com/oksasatya/go-user-admin/internal/interface/middleware"
	"github.com/oksasatya/go-user-admin/pkg/helpers"
)

// UserModule wires the user CRUD handlers behind bearer auth.
type UserModule struct {
	Handler *handlers.UserHandler
	Tokens  *helpers.TokenManager
	Redis   *redis.Client
	Logger  *logrus.Logger
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	users := rg.Group("/users")
	users.Use(middleware.Auth(m.Tokens))
	users.Use(middleware.RateLimit(m.Redis, m.Logger, 120, time.Minute, middleware.KeyByUserID(), nil))
	{
		users.GET("", m.Handler.List)
		users.POST("", m.Handler.Create)
		users.GET("/search", m.Handler.Search)
		users.PUT("/:id", m.Handler.Update)
		users.DELETE("/:id", m.Handler.Delete)
	}
}
