package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/bookstore_checkout/internal/service"
	"github.com/Skotchmaster/bookstore_checkout/internal/session"
	"github.com/Skotchmaster/bookstore_checkout/internal/transport"
	"github.com/Skotchmaster/bookstore_checkout/pkg/logging"
)

type CheckoutHTTP struct {
	Svc *service.CheckoutService
}

func (h *CheckoutHTTP) InitiatePayment(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "checkout.initiate_payment")

	var req transport.InitiatePaymentRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("initiate_payment_error", "status", 400, "reason", "invalid body", "error", err)
		return fail(c, http.StatusBadRequest, "invalid body")
	}

	resp, err := h.Svc.InitiatePayment(ctx, session.FromContext(c), req)
	if err != nil {
		return writeError(c, l, "initiate_payment_error", err)
	}
	l.Info("initiate_payment_success", "order_id", resp.OrderID)
	return c.JSON(http.StatusOK, resp)
}

func (h *CheckoutHTTP) CalculateShipping(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "checkout.calculate_shipping")

	var req transport.ShippingRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("calculate_shipping_error", "status", 400, "reason", "invalid body", "error", err)
		return fail(c, http.StatusBadRequest, "invalid body")
	}

	resp, err := h.Svc.ShippingQuote(ctx, session.FromContext(c), req.Pincode, req.PaymentMethod)
	if err != nil {
		return writeError(c, l, "calculate_shipping_error", err)
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *CheckoutHTTP) PaymentSuccess(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "payment.success")

	form, err := c.FormParams()
	if err != nil {
		l.Warn("payment_callback_error", "status", 400, "reason", "invalid form", "error", err)
		return renderResult(c, http.StatusBadRequest, failurePage("Invalid request"))
	}

	out, err := h.Svc.CompletePayment(ctx, session.FromContext(c), form)
	switch {
	case errors.Is(err, service.ErrIntegrity):
		l.Warn("payment_callback_error", "status", 400, "reason", "integrity", "error", err)
		return renderResult(c, http.StatusBadRequest, failurePage("Security verification failed"))
	case errors.Is(err, service.ErrNotFound):
		l.Warn("payment_callback_error", "status", 404, "reason", "order not found", "error", err)
		return renderResult(c, http.StatusNotFound, failurePage("Order not found"))
	case err != nil:
		l.Error("payment_callback_error", "status", 500, "error", err)
		return renderResult(c, http.StatusInternalServerError, failurePage("Payment could not be processed"))
	}

	if !out.Success {
		l.Info("payment_not_successful", "message", out.Message)
		return renderResult(c, http.StatusOK, failurePage(out.Message))
	}
	l.Info("payment_success", "order_id", out.Order.ID, "status", out.Order.Status, "replayed", out.Replayed)
	return renderResult(c, http.StatusOK, successPage(out))
}

func (h *CheckoutHTTP) PaymentFailure(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "payment.failure")

	form, err := c.FormParams()
	if err != nil {
		l.Warn("payment_failure_error", "status", 400, "reason", "invalid form", "error", err)
		return renderResult(c, http.StatusBadRequest, failurePage("Payment cancelled or failed"))
	}

	out := h.Svc.FailPayment(ctx, session.FromContext(c), form)
	l.Info("payment_failed", "message", out.Message)
	return renderResult(c, http.StatusOK, failurePage(out.Message))
}
