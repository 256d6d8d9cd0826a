package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/go-user-admin/internal/application"
	"github.com/oksasatya/go-user-admin/internal/infrastructure/search"
	"github.com/oksasatya/go-user-admin/pkg/apperror"
	"github.com/oksasatya/go-user-admin/pkg/response"
	"github.com/oksasatya/go-user-admin/pkg/validation"
)

type UserHandler struct {
	Svc *application.Service
}

func NewUserHandler(svc *application.Service) *UserHandler {
	return &UserHandler{Svc: svc}
}

type createUserRequest struct {
	Name     string `json:"name" binding:"required,notblank"`
	Email    string `json:"email" binding:"required,notblank,email"`
	Password string `json:"password" binding:"required,pwd"`
}

// Empty strings are treated like absent fields, so the email format is
// checked by the service once blanks are dropped.
type updateUserRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Password *string `json:"password" binding:"omitempty,max=72"`
}

// bindError classifies a binding failure. Handlers let an empty body through
// so the service reports which fields are missing.
func bindError(err error) error {
	if validation.MissingRequired(err) {
		return apperror.Validation(application.MsgFieldsRequired, validation.ToDetails(err))
	}
	return apperror.Validation(application.MsgInvalidUser, validation.ToDetails(err))
}

func (h *UserHandler) List(c *gin.Context) {
	users, err := h.Svc.ListUsers(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	response.JSON(c, http.StatusOK, users)
}

func (h *UserHandler) Create(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		fail(c, bindError(err))
		return
	}

	u, err := h.Svc.CreateUser(c.Request.Context(), application.CreateUserInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		fail(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, u)
}

func (h *UserHandler) Update(c *gin.Context) {
	id, err := userID(c)
	if err != nil {
		fail(c, err)
		return
	}
	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		fail(c, bindError(err))
		return
	}

	u, err := h.Svc.UpdateUser(c.Request.Context(), id, application.UpdateUserInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		fail(c, err)
		return
	}
	response.JSON(c, http.StatusOK, u)
}

func (h *UserHandler) Delete(c *gin.Context) {
	id, err := userID(c)
	if err != nil {
		fail(c, err)
		return
	}
	if err := h.Svc.DeleteUser(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	response.Message(c, http.StatusOK, "User deleted successfully")
}

// Search queries the search mirror: GET /users/search?q=&size=
func (h *UserHandler) Search(c *gin.Context) {
	size, err := strconv.Atoi(c.Query("size"))
	if err != nil {
		size = search.DefaultSize
	}
	users, err := h.Svc.SearchUsers(c.Request.Context(), c.Query("q"), search.ClampSize(size))
	if err != nil {
		fail(c, err)
		return
	}
	response.JSON(c, http.StatusOK, users)
}
