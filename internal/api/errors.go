package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/labintake/internal/service"
	"go.uber.org/zap"
)

// errorResponse is the body of every 4xx and 5xx response.
type errorResponse struct {
	Error    string `json:"error"`
	Code     string `json:"code"`
	Field    string `json:"field,omitempty"`
	Index    int    `json:"index,omitempty"`
	Resource string `json:"resource,omitempty"`
	ID       string `json:"id,omitempty"`
}

func statusFor(k service.Kind) int {
	switch k {
	case service.KindValidation:
		return http.StatusBadRequest
	case service.KindConflict, service.KindIntegrity:
		return http.StatusConflict
	case service.KindNotFound:
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// writeError renders err. Service errors keep their code and message;
// anything else is logged and answered with a generic 500.
func writeError(c *gin.Context, logger *zap.Logger, op string, err error) {
	var se *service.Error
	if errors.As(err, &se) {
		c.JSON(statusFor(se.Kind), errorResponse{
			Error:    se.Message,
			Code:     se.Code,
			Field:    se.Field,
			Index:    se.Index,
			Resource: se.Resource,
			ID:       se.ID,
		})
		return
	}

	logger.Error(op+" failed", zap.Error(err))
	c.JSON(http.StatusInternalServerError, errorResponse{
		Error: op + " failed",
		Code:  "INTERNAL",
	})
}

func badRequest(c *gin.Context, code, field, msg string) {
	c.JSON(http.StatusBadRequest, errorResponse{Error: msg, Code: code, Field: field})
}
