package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/oksasatya/go-user-admin/config"
	"github.com/oksasatya/go-user-admin/internal/application"
	"github.com/oksasatya/go-user-admin/internal/container"
	"github.com/oksasatya/go-user-admin/pkg/apperror"
	"github.com/oksasatya/go-user-admin/pkg/helpers"
)

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-seed", cfg.Env)

	c, err := container.NewFromConfig(context.Background(), cfg, logger)
	if err != nil {
		log.Fatalf("startup failed: %v", err)
	}
	defer c.Close()

	in := application.CreateUserInput{
		Name:     getenv("SEED_ADMIN_NAME", "admin"),
		Email:    getenv("SEED_ADMIN_EMAIL", "admin@mail.com"),
		Password: getenv("SEED_ADMIN_PASSWORD", "adminpassword"),
	}

	u, err := c.Service.CreateUser(context.Background(), in)
	switch {
	case apperror.Is(err, apperror.KindConflict):
		fmt.Printf("user already exists: email=%s\n", in.Email)
		return
	case err != nil:
		log.Fatalf("failed to seed user: %v", err)
	}
	fmt.Printf("seeded user: id=%d email=%s name=%s\n", u.ID, u.Email, u.Name)
}
