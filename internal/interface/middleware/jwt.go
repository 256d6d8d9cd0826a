package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/oksasatya/go-user-admin/pkg/helpers"
)

const (
	CtxClaimsKey    = "claims"
	CtxUserIDKey    = "userID"
	CtxUserEmailKey = "userEmail"
)

func setClaims(c *gin.Context, claims *helpers.Claims) {
	c.Set(CtxClaimsKey, claims)
	c.Set(CtxUserIDKey, claims.UserID)
	c.Set(CtxUserEmailKey, claims.Email)
}

// ClaimsFrom returns the claims admitted by Auth for this request.
func ClaimsFrom(c *gin.Context) (*helpers.Claims, bool) {
	v, ok := c.Get(CtxClaimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*helpers.Claims)
	return claims, ok
}
