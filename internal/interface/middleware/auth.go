package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/go-user-admin/pkg/apperror"
	"github.com/oksasatya/go-user-admin/pkg/helpers"
)

const (
	MsgNoToken      = "No token provided"
	MsgInvalidToken = "Invalid or expired token"
)

// Auth admits requests carrying a valid bearer token.
// A missing token is rejected with 401, an invalid or expired one with 403.
// On success the claims, userID and userEmail are set in the Gin context.
func Auth(tokens *helpers.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			_ = c.Error(apperror.AuthMissing(MsgNoToken))
			c.Abort()
			return
		}
		claims, err := tokens.Verify(token)
		if err != nil {
			_ = c.Error(apperror.AuthInvalid(MsgInvalidToken, err))
			c.Abort()
			return
		}
		setClaims(c, claims)
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
