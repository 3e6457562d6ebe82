// Package webhook receives shipment status pushes from the logistics
// provider.
package webhook

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/bookstore_checkout/pkg/logging"
)

const (
	HeaderAPIKey = "x-api-key"
	maxBody      = 1 << 20
)

// Sink takes a verified webhook payload. The payload is passed through
// untouched.
type Sink interface {
	Handle(ctx context.Context, payload json.RawMessage) error
}

type Handler struct {
	Secret string
	Sink   Sink
}

func status(c echo.Context, code int, s string) error {
	return c.JSON(code, map[string]string{"status": s})
}

// Authorized reports whether key matches the configured secret. An empty
// secret authorizes nothing.
func (h *Handler) Authorized(key string) bool {
	if h.Secret == "" || key == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(key), []byte(h.Secret)) == 1
}

func (h *Handler) Receive(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "webhook.shipment")

	if c.Request().Method != http.MethodPost {
		l.Warn("shipment_webhook_error", "status", 405, "method", c.Request().Method)
		return status(c, http.StatusMethodNotAllowed, "method_not_allowed")
	}

	if !h.Authorized(c.Request().Header.Get(HeaderAPIKey)) {
		l.Warn("shipment_webhook_error", "status", 401, "reason", "bad api key")
		return status(c, http.StatusUnauthorized, "unauthorized")
	}

	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxBody))
	if err != nil || !json.Valid(body) {
		l.Warn("shipment_webhook_error", "status", 400, "reason", "invalid json", "error", err)
		return status(c, http.StatusBadRequest, "invalid_json")
	}

	if h.Sink != nil {
		if err := h.Sink.Handle(ctx, json.RawMessage(body)); err != nil {
			l.Error("shipment_webhook_sink_error", "error", err)
		}
	}

	l.Info("shipment_webhook_success")
	return status(c, http.StatusOK, "success")
}
