package middleware

import (
	"net"

	"github.com/gin-gonic/gin"
)

// AllowFunc returns true when a request bypasses the rate limit.
type AllowFunc func(*gin.Context) bool

// AllowPrivateIP bypasses requests from loopback and private networks.
func AllowPrivateIP() AllowFunc {
	return func(c *gin.Context) bool {
		parsed := net.ParseIP(ipFromCtx(c))
		if parsed == nil {
			return false
		}
		return parsed.IsLoopback() || parsed.IsPrivate()
	}
}

// AllowIf returns fn when enabled and nil otherwise.
func AllowIf(enabled bool, fn AllowFunc) AllowFunc {
	if !enabled {
		return nil
	}
	return fn
}
