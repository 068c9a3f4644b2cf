package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appErr "github.com/shelfmark/shelfmark/internal/pkg/errcode"
	sentinel "github.com/shelfmark/shelfmark/internal/pkg/errors"
)

type envelope struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, envelope{Code: 0, Message: "ok", Data: data})
}

func Error(c *gin.Context, status, code int, message string) {
	c.JSON(status, envelope{Code: code, Message: message})
}

// HandleError maps the sentinel error kinds onto wire status/code pairs.
// Unrecognized errors collapse to a generic internal error so storage
// details never reach the client.
func HandleError(c *gin.Context, err error) {
	switch {
	case err == nil:
		return
	case sentinel.IsNotFound(err):
		Error(c, http.StatusNotFound, appErr.ErrNotFound, "not found")
	case sentinel.IsForbidden(err):
		Error(c, http.StatusForbidden, appErr.ErrForbidden, "forbidden")
	case sentinel.IsConflict(err):
		Error(c, http.StatusConflict, appErr.ErrConflict, "conflict")
	case err == sentinel.ErrUnauthorized:
		Error(c, http.StatusUnauthorized, appErr.ErrUnauthorized, "unauthorized")
	case err == sentinel.ErrInvalid:
		Error(c, http.StatusBadRequest, appErr.ErrInvalid, "invalid request")
	case err == sentinel.ErrTooMany:
		Error(c, http.StatusTooManyRequests, appErr.ErrTooMany, "too many requests")
	default:
		Error(c, http.StatusInternalServerError, appErr.ErrInternal, "internal error")
	}
}
