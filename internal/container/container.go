package container

import (
	"context"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-user-admin/config"
	"github.com/oksasatya/go-user-admin/internal/application"
	"github.com/oksasatya/go-user-admin/internal/domain/repository"
	"github.com/oksasatya/go-user-admin/internal/infrastructure/memory"
	pginfra "github.com/oksasatya/go-user-admin/internal/infrastructure/postgres"
	"github.com/oksasatya/go-user-admin/internal/infrastructure/search"
	"github.com/oksasatya/go-user-admin/pkg/helpers"
)

// Container holds the constructed components shared by the router modules.
// Infrastructure clients are optional: a nil client disables its feature.
type Container struct {
	Config *config.Config
	Logger *logrus.Logger

	PGPool *pgxpool.Pool
	Redis  *redis.Client
	Rabbit *helpers.RabbitPublisher
	ES     *elasticsearch.Client

	Repo    repository.UserRepository
	Hasher  helpers.PasswordHasher
	Tokens  *helpers.TokenManager
	Service *application.Service
}

// Build fills in the hasher, token manager and service from Config.
// Fields already set are kept.
func (c *Container) Build() *Container {
	if c.Logger == nil {
		c.Logger = helpers.DiscardLogger()
	}
	if c.Hasher == nil {
		c.Hasher = helpers.NewBcryptHasher(c.Config.BcryptCost)
	}
	if c.Tokens == nil {
		c.Tokens = helpers.NewTokenManager(c.Config.JWTSecret, c.Config.AccessTTL)
	}
	if c.Service == nil {
		svc := application.NewService(c.Repo, c.Hasher, c.Tokens, c.Logger)
		if c.Rabbit != nil {
			svc.WithEvents(c.Rabbit)
		}
		if c.ES != nil {
			svc.WithSearch(search.NewUserIndex(c.ES, c.Config.ESUsersIndex))
		}
		c.Service = svc
	}
	return c
}

// HealthChecks returns a ping per configured backing service.
func (c *Container) HealthChecks() map[string]func(context.Context) error {
	checks := map[string]func(context.Context) error{}
	if c.PGPool != nil {
		pool := c.PGPool
		checks["postgres"] = func(ctx context.Context) error { return pginfra.Ping(ctx, pool) }
	}
	if c.Redis != nil {
		rdb := c.Redis
		checks["redis"] = func(ctx context.Context) error { return helpers.PingRedis(ctx, rdb) }
	}
	return checks
}

// Close releases the infrastructure clients.
func (c *Container) Close() {
	c.Rabbit.Close()
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
	if c.PGPool != nil {
		c.PGPool.Close()
	}
}

// NewFromConfig connects the infrastructure named by cfg and builds the container.
// Postgres (or the memory store) is required; Redis, RabbitMQ and Elasticsearch
// are optional and only logged when unavailable.
func NewFromConfig(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*Container, error) {
	c := &Container{Config: cfg, Logger: logger}

	switch cfg.DBDriver {
	case "memory":
		logger.Warn("using in-memory user store; data is lost on exit")
		c.Repo = memory.NewUserRepository()
	case "postgres":
		pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), pginfra.PoolOptions{
			MaxConns:    cfg.DBMaxConns,
			MinConns:    cfg.DBMinConns,
			MaxConnLife: cfg.DBMaxConnLife,
		})
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := pginfra.RunMigrations(cfg.PostgresDSN(), logger); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrations: %w", err)
		}
		c.PGPool = pool
		c.Repo = pginfra.NewUserRepository(pool)
	default:
		return nil, fmt.Errorf("unknown DB_DRIVER %q", cfg.DBDriver)
	}

	c.Redis = helpers.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if c.Redis != nil {
		if err := helpers.PingRedis(ctx, c.Redis); err != nil {
			logger.WithError(err).Warn("redis unreachable; rate limiting fails open")
		}
	}

	if cfg.RabbitMQURL != "" {
		pub, err := helpers.NewRabbitPublisher(cfg.RabbitMQURL, cfg.RabbitMQUserEventsQueue)
		if err != nil {
			logger.WithError(err).Warn("rabbitmq unavailable; user events disabled")
		} else {
			c.Rabbit = pub
		}
	}

	es, err := helpers.NewESClient(cfg.ESAddrs(), cfg.ElasticsearchUser, cfg.ElasticsearchPass)
	if err != nil {
		logger.WithError(err).Warn("elasticsearch client init failed; search disabled")
	} else {
		c.ES = es
	}

	return c.Build(), nil
}
