// internal/pkg/response/response.go
package response

import (
	"net/http"

	xerrors "tipster-service/internal/pkg/errors"

	"github.com/gin-gonic/gin"
)

// Response defines the standard API response format. Error carries a short
// machine-readable code on failures.
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Success sends a successful response with a message and optional data.
func Success(c *gin.Context, status int, message string, data interface{}) {
	if status == 0 {
		status = http.StatusOK
	}

	c.JSON(status, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Fail aborts the request with an error envelope.
func Fail(c *gin.Context, status int, code, message string, data ...interface{}) {
	resp := Response{Message: message, Error: code}
	if len(data) > 0 {
		resp.Data = data[0]
	}
	c.AbortWithStatusJSON(status, resp)
}

func Unauthorized(c *gin.Context, message string) {
	Fail(c, http.StatusUnauthorized, "unauthorized", message)
}

func Forbidden(c *gin.Context, message string, data ...interface{}) {
	Fail(c, http.StatusForbidden, "forbidden", message, data...)
}

func TooManyRequests(c *gin.Context, message string) {
	Fail(c, http.StatusTooManyRequests, "rate_limited", message)
}

// StatusFor maps an error classification to its HTTP status.
func StatusFor(kind xerrors.Kind) int {
	switch kind {
	case xerrors.KindNotFound:
		return http.StatusNotFound
	case xerrors.KindInvalidTransition, xerrors.KindConflict:
		return http.StatusConflict
	case xerrors.KindValidation:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// FromError writes err with the status of its kind. Internal errors only ever
// expose their public message.
func FromError(c *gin.Context, err error) {
	kind := xerrors.KindOf(err)
	Fail(c, StatusFor(kind), string(kind), xerrors.PublicMessage(err))
}
