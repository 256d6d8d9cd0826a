package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/go-user-admin/internal/application"
	"github.com/oksasatya/go-user-admin/internal/interface/middleware"
	"github.com/oksasatya/go-user-admin/pkg/apperror"
	"github.com/oksasatya/go-user-admin/pkg/response"
)

type AuthHandler struct {
	Svc *application.Service
}

func NewAuthHandler(svc *application.Service) *AuthHandler {
	return &AuthHandler{Svc: svc}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// Login exchanges credentials for a bearer token.
// Every rejected attempt gets the same 401, including unusable bodies.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Email) == "" || req.Password == "" {
		fail(c, apperror.Unauthenticated(application.MsgInvalidCredentials))
		return
	}

	token, err := h.Svc.Login(c.Request.Context(), strings.TrimSpace(req.Email), req.Password)
	if err != nil {
		fail(c, err)
		return
	}
	response.JSON(c, http.StatusOK, tokenResponse{Token: token})
}

type verifiedUser struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Iat   int64  `json:"iat"`
	Exp   int64  `json:"exp"`
}

type verifyResponse struct {
	Valid bool         `json:"valid"`
	User  verifiedUser `json:"user"`
}

// Verify reports the identity carried by the admitted token.
func (h *AuthHandler) Verify(c *gin.Context) {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		fail(c, apperror.AuthMissing(middleware.MsgNoToken))
		return
	}
	u := verifiedUser{ID: claims.UserID, Email: claims.Email}
	if claims.IssuedAt != nil {
		u.Iat = claims.IssuedAt.Unix()
	}
	if claims.ExpiresAt != nil {
		u.Exp = claims.ExpiresAt.Unix()
	}
	response.JSON(c, http.StatusOK, verifyResponse{Valid: true, User: u})
}
