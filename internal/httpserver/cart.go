package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/bookstore_checkout/internal/service"
	"github.com/Skotchmaster/bookstore_checkout/internal/session"
	"github.com/Skotchmaster/bookstore_checkout/internal/transport"
	"github.com/Skotchmaster/bookstore_checkout/pkg/logging"
)

type CartHTTP struct {
	Svc *service.CartService
}

func (h *CartHTTP) Add(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add")

	var req transport.AddToCartRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("add_to_cart_error", "status", 400, "reason", "invalid body", "error", err)
		return fail(c, http.StatusBadRequest, "invalid body")
	}

	resp, err := h.Svc.Add(session.FromContext(c), req)
	if err != nil {
		return writeError(c, l, "add_to_cart_error", err)
	}
	l.Info("add_to_cart_success", "key", req.Type, "id", req.ID)
	return c.JSON(http.StatusOK, resp)
}

func (h *CartHTTP) Remove(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.remove")

	var req transport.CartKeyRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("remove_from_cart_error", "status", 400, "reason", "invalid body", "error", err)
		return fail(c, http.StatusBadRequest, "invalid body")
	}

	resp, err := h.Svc.Remove(session.FromContext(c), req.Key)
	if err != nil {
		return writeError(c, l, "remove_from_cart_error", err)
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *CartHTTP) Update(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.update")

	var req transport.UpdateQuantityRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("update_cart_error", "status", 400, "reason", "invalid quantity", "error", err)
		return fail(c, http.StatusBadRequest, "invalid quantity")
	}

	resp, err := h.Svc.Update(session.FromContext(c), req.Key, req.Quantity)
	if err != nil {
		return writeError(c, l, "update_cart_error", err)
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *CartHTTP) Clear(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Svc.Clear(session.FromContext(c)))
}

func (h *CartHTTP) Items(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Svc.CartView(session.FromContext(c)))
}

func (h *CartHTTP) UpdateAddons(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.update_addons")

	var req transport.UpdateAddonsRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("update_addons_error", "status", 400, "reason", "invalid body", "error", err)
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	return c.JSON(http.StatusOK, h.Svc.UpdateAddons(session.FromContext(c), req.Addons))
}

func (h *CartHTTP) Addons(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Svc.Addons(session.FromContext(c)))
}

func (h *CartHTTP) Checkout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "checkout.summary")

	summary, err := h.Svc.CheckoutSummary(session.FromContext(c))
	if err != nil {
		return writeError(c, l, "checkout_summary_error", err)
	}
	return c.JSON(http.StatusOK, summary)
}
