package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/labintake/internal/middleware"
	"github.com/lalith-99/labintake/internal/models"
	"github.com/lalith-99/labintake/internal/repository"
	"go.uber.org/zap"
)

// UserHandler serves the staff directory. Reception uses it to find the
// analyst ids that assays are assigned to.
type UserHandler struct {
	users  repository.UserRepository
	logger *zap.Logger
}

func NewUserHandler(users repository.UserRepository, logger *zap.Logger) *UserHandler {
	return &UserHandler{users: users, logger: logger}
}

// GetMe handles GET /v1/users/me
func (h *UserHandler) GetMe(c *gin.Context) {
	id := middleware.GetUserID(c)
	user, err := h.users.GetByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.logger, "get current user", err)
		return
	}
	if user == nil {
		c.JSON(http.StatusNotFound, errorResponse{
			Error:    "account no longer exists",
			Code:     "NOT_FOUND",
			Resource: "user",
			ID:       id.String(),
		})
		return
	}
	c.JSON(http.StatusOK, user)
}

// List handles GET /v1/users?role=ANALYST
func (h *UserHandler) List(c *gin.Context) {
	role := models.Role(c.Query("role"))
	if role != "" && !role.Valid() {
		badRequest(c, "INVALID_VALUE", "role", "invalid role")
		return
	}

	users, err := h.users.List(c.Request.Context(), role)
	if err != nil {
		writeError(c, h.logger, "list users", err)
		return
	}
	if users == nil {
		users = []models.User{}
	}
	c.JSON(http.StatusOK, users)
}
