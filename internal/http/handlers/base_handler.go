// README: Base handler utilities (JSON helpers, error mapping).
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"shiftmatch/internal/modules/matchconfig"
	"shiftmatch/internal/modules/shift"
	"shiftmatch/internal/modules/worker"
)

type errorResponse struct {
	Error   string   `json:"error"`
	Reasons []string `json:"reasons,omitempty"`
}

func writeError(c *gin.Context, status int, msg string) {
	c.JSON(status, errorResponse{Error: msg})
}

// writeServiceError maps module errors onto HTTP statuses. Validation failures
// carry their per-check reasons so clients can show actionable messages.
func writeServiceError(c *gin.Context, err error) {
	var verr *shift.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, errorResponse{Error: verr.Msg, Reasons: verr.Reasons})
	case errors.Is(err, shift.ErrBadRequest):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, shift.ErrNotFound),
		errors.Is(err, worker.ErrNotFound),
		errors.Is(err, matchconfig.ErrNotFound),
		errors.Is(err, matchconfig.ErrNoConfiguration):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, shift.ErrConflict), errors.Is(err, shift.ErrInvalidState):
		writeError(c, http.StatusConflict, err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}
