package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-user-admin/pkg/response"
)

type HealthHandler struct {
	Checks map[string]func(context.Context) error
	Logger *logrus.Logger
}

func NewHealthHandler(checks map[string]func(context.Context) error, logger *logrus.Logger) *HealthHandler {
	return &HealthHandler{Checks: checks, Logger: logger}
}

type healthResponse struct {
	Status    map[string]string `json:"status"`
	Timestamp string            `json:"timestamp"`
}

// Health pings every configured dependency; any failure yields 503.
func (h *HealthHandler) Health(c *gin.Context) {
	code := http.StatusOK
	status := make(map[string]string, len(h.Checks))
	for name, check := range h.Checks {
		if err := check(c.Request.Context()); err != nil {
			h.Logger.WithError(err).WithField("dependency", name).Warn("health check failed")
			status[name] = "down"
			code = http.StatusServiceUnavailable
			continue
		}
		status[name] = "ok"
	}
	response.JSON(c, code, healthResponse{Status: status, Timestamp: time.Now().UTC().Format(time.RFC3339)})
}
