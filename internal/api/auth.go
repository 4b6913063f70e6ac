package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/labintake/internal/auth"
	"github.com/lalith-99/labintake/internal/models"
	"github.com/lalith-99/labintake/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// AuthHandler issues access tokens. Accounts are provisioned with
// cmd/createuser; there is no signup endpoint.
type AuthHandler struct {
	userRepo  repository.UserRepository
	jwtSecret string
	jwtTTL    time.Duration
	logger    *zap.Logger
}

func NewAuthHandler(userRepo repository.UserRepository, jwtSecret string, jwtTTL time.Duration, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		userRepo:  userRepo,
		jwtSecret: jwtSecret,
		jwtTTL:    jwtTTL,
		logger:    logger,
	}
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type authResponse struct {
	Token     string       `json:"token"`
	ExpiresIn int64        `json:"expires_in"`
	User      *models.User `json:"user"`
}

// Login handles POST /v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userRepo.GetByUsername(c.Request.Context(), req.Username)
	if err != nil {
		writeError(c, h.logger, "login", err)
		return
	}

	// Unknown user and wrong password get the same answer.
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		c.JSON(http.StatusUnauthorized, errorResponse{
			Error: "invalid username or password",
			Code:  "UNAUTHENTICATED",
		})
		return
	}

	token, err := auth.GenerateToken(user, h.jwtSecret, h.jwtTTL)
	if err != nil {
		writeError(c, h.logger, "login", err)
		return
	}

	h.logger.Info("user logged in", zap.String("username", user.Username))
	c.JSON(http.StatusOK, authResponse{
		Token:     token,
		ExpiresIn: int64(h.jwtTTL.Seconds()),
		User:      user,
	})
}
