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

// AuthModule routes:
// Public: POST /login (rate limited per IP)
// Protected: GET /verify
type AuthModule struct {
	Handler       *handlers.AuthHandler
	Tokens        *helpers.TokenManager
	Redis         *redis.Client
	Logger        *logrus.Logger
	LoginLimit    int // per minute
	BypassPrivate bool
}

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	loginLimiter := middleware.RateLimit(m.Redis, m.Logger, m.LoginLimit, time.Minute,
		middleware.KeyByIPAndPath(), middleware.AllowIf(m.BypassPrivate, middleware.AllowPrivateIP()))

	rg.POST("/login", loginLimiter, m.Handler.Login)
	rg.GET("/verify", middleware.Auth(m.Tokens), m.Handler.Verify)
}
