package httpserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/bookstore_checkout/internal/catalog"
	"github.com/Skotchmaster/bookstore_checkout/internal/service"
	"github.com/Skotchmaster/bookstore_checkout/internal/transport"
)

var statusBySentinel = []struct {
	err    error
	status int
}{
	{service.ErrValidation, http.StatusBadRequest},
	{service.ErrEmptyCart, http.StatusBadRequest},
	{service.ErrEmailNotVerified, http.StatusBadRequest},
	{service.ErrInvalidOTP, http.StatusBadRequest},
	{service.ErrIntegrity, http.StatusBadRequest},
	{service.ErrNotFound, http.StatusNotFound},
	{catalog.ErrUnknownCategory, http.StatusNotFound},
	{service.ErrUpstream, http.StatusBadGateway},
}

// publicMessage drops the sentinel prefix so "validation: all fields are
// required" reads "all fields are required".
func publicMessage(sentinel, err error) string {
	msg := err.Error()
	if trimmed := strings.TrimPrefix(msg, sentinel.Error()+": "); trimmed != msg {
		if i := strings.Index(trimmed, ": "); i > 0 && errors.Is(sentinel, service.ErrUpstream) {
			return trimmed[:i]
		}
		return trimmed
	}
	return msg
}

func fail(c echo.Context, status int, msg string) error {
	return c.JSON(status, transport.ErrorResponse{Success: false, Error: msg})
}

// writeError maps service errors to a JSON error body and logs at a level
// that matches the status.
func writeError(c echo.Context, l *slog.Logger, event string, err error) error {
	for _, m := range statusBySentinel {
		if errors.Is(err, m.err) {
			if m.status >= 500 {
				l.Error(event, "status", m.status, "error", err)
			} else {
				l.Warn(event, "status", m.status, "error", err)
			}
			return fail(c, m.status, publicMessage(m.err, err))
		}
	}
	l.Error(event, "status", 500, "error", err)
	return fail(c, http.StatusInternalServerError, "internal error")
}
