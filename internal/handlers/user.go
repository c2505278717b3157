// internal/handlers/user.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/contoso/storefront/internal/services"
	"github.com/contoso/storefront/internal/utils"
)

type UserHandler struct {
	users *services.UserService
}

func NewUserHandler(users *services.UserService) *UserHandler {
	return &UserHandler{users: users}
}

func (h *UserHandler) CreateUser(c *gin.Context) {
	var req services.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	user, err := h.users.CreateUser(c.Request.Context(), &req)
	if err != nil {
		utils.FailWith(c, err)
		return
	}
	utils.CreatedResponse(c, user.PublicView())
}

func (h *UserHandler) GetUserByEmail(c *gin.Context) {
	email := c.Query("email")
	if email == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "BAD_REQUEST", "email is required", nil)
		return
	}
	user, err := h.users.GetUserByEmail(c.Request.Context(), email)
	if err != nil {
		utils.FailWith(c, err)
		return
	}
	utils.SuccessResponse(c, user.PublicView())
}
