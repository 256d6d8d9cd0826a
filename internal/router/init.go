package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/oksasatya/go-user-admin/internal/container"
	handlers "github.com/oksasatya/go-user-admin/internal/interface/http"
	"github.com/oksasatya/go-user-admin/internal/interface/middleware"
	"github.com/oksasatya/go-user-admin/internal/router/modules"
	"github.com/oksasatya/go-user-admin/pkg/validation"
)

// NewEngine builds the Gin engine with the global middleware stack and every
// module registered under /api.
func NewEngine(c *container.Container) *gin.Engine {
	cfg := c.Config
	validation.Init()

	r := gin.New()
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.Recovery(c.Logger))
	r.Use(middleware.RealIP(cfg.TrustProxyHeaders))
	if origins := cfg.CORSOrigins(); len(origins) > 0 {
		r.Use(cors.New(corsConfig(origins)))
	}
	if cfg.HTTPLogEnabled {
		r.Use(gin.Logger())
	}
	r.Use(middleware.Errors(c.Logger, cfg.IsDevelopment()))

	reg := NewRegistry(r)
	InitModules(reg, c)
	reg.RegisterAll()
	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderRequestID},
		ExposeHeaders: []string{"Content-Length", middleware.HeaderRequestID, "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 1 && origins[0] == "*" {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}

// InitModules wires every feature module from the container.
func InitModules(r *Registry, c *container.Container) {
	cfg := c.Config

	r.Add(modules.NewHealthModule(handlers.NewHealthHandler(c.HealthChecks(), c.Logger)))
	r.Add(&modules.AuthModule{
		Handler:       handlers.NewAuthHandler(c.Service),
		Tokens:        c.Tokens,
		Redis:         c.Redis,
		Logger:        c.Logger,
		LoginLimit:    cfg.LoginRateLimit,
		BypassPrivate: cfg.RateLimitBypassPrivate,
	})
	r.Add(&modules.UserModule{
		Handler: handlers.NewUserHandler(c.Service),
		Tokens:  c.Tokens,
		Redis:   c.Redis,
		Logger:  c.Logger,
	})
	if cfg.DebugMetricsEnabled {
		r.Add(&modules.DebugModule{Redis: c.Redis, Logger: c.Logger})
	}
}
