// Package httpapi is the thin JSON/REST translator over internal/kernel
// (spec.md §6.1): it parses the request, calls the kernel use-case
// functions that serve it (typically a write followed by a fetch of the
// resulting manifest), and maps the result to a status code and JSON body.
// It carries no domain logic of its own.
package httpapi

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"eve.evalgo.org/kernel/internal/kernelerr"
)

// errorResponse is the JSON body returned on every non-2xx response,
// mirroring the teacher's api/rest.go map[string]string{"error": ...}
// handlers.
type errorResponse struct {
	Error string `json:"error"`
}

// writeError maps a kernel/service error to the status codes spec.md
// §6.1 requires (not-found → 404, validation → 400, conflict → 409) and
// writes the JSON error body.
func writeError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, kernelerr.ErrNotFound):
		return c.JSON(http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, kernelerr.ErrValidation):
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, kernelerr.ErrAlreadyExists),
		errors.Is(err, kernelerr.ErrAlreadyDeleted),
		errors.Is(err, kernelerr.ErrDuplicateReference):
		return c.JSON(http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, kernelerr.ErrUnknownReference),
		errors.Is(err, kernelerr.ErrAssetSlotUnknown):
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, kernelerr.ErrRetryableExhausted),
		errors.Is(err, kernelerr.ErrChangeLogAppendFailed):
		return c.JSON(http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
	default:
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
	}
}
