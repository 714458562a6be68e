// README: Error taxonomy for the orchestrator.
package shift

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound     = errors.New("shift or proposal not found")
	ErrConflict     = errors.New("shift state conflict")
	ErrInvalidState = errors.New("invalid state transition")
	ErrBadRequest   = errors.New("bad request")
)

// ValidationError carries the specific reasons a request was refused (missing
// configuration, ineligibility, score below threshold) so callers can surface
// them instead of a bare status code.
type ValidationError struct {
	Msg     string
	Reasons []string
}

func (e *ValidationError) Error() string {
	if len(e.Reasons) == 0 {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Msg, strings.Join(e.Reasons, "; "))
}

func validationf(reasons []string, format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...), Reasons: reasons}
}
