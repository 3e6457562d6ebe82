package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/bookstore_checkout/internal/service"
	"github.com/Skotchmaster/bookstore_checkout/internal/session"
	"github.com/Skotchmaster/bookstore_checkout/internal/transport"
	"github.com/Skotchmaster/bookstore_checkout/pkg/logging"
)

type VerificationHTTP struct {
	Svc *service.VerificationService
}

func (h *VerificationHTTP) SendEmailOTP(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "otp.send_email")

	var req transport.SendEmailOTPRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("send_email_otp_error", "status", 400, "reason", "invalid body", "error", err)
		return fail(c, http.StatusBadRequest, "invalid body")
	}

	if err := h.Svc.SendEmail(ctx, req.Email); err != nil {
		return writeError(c, l, "send_email_otp_error", err)
	}
	l.Info("send_email_otp_success")
	return c.JSON(http.StatusOK, transport.MessageResponse{Success: true, Message: "OTP sent to your email"})
}

func (h *VerificationHTTP) VerifyEmailOTP(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "otp.verify_email")

	var req transport.VerifyEmailOTPRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("verify_email_otp_error", "status", 400, "reason", "invalid body", "error", err)
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	if req.Email == "" || req.OTP == "" {
		l.Warn("verify_email_otp_error", "status", 400, "reason", "missing fields")
		return fail(c, http.StatusBadRequest, "Email and OTP required")
	}

	if err := h.Svc.VerifyEmail(ctx, session.FromContext(c), req.Email, req.OTP); err != nil {
		return writeError(c, l, "verify_email_otp_error", err)
	}
	l.Info("verify_email_otp_success")
	return c.JSON(http.StatusOK, transport.MessageResponse{Success: true, Message: "Email verified successfully"})
}

func (h *VerificationHTTP) SendPhoneOTP(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "otp.send_phone")

	var req transport.SendPhoneOTPRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("send_phone_otp_error", "status", 400, "reason", "invalid body", "error", err)
		return fail(c, http.StatusBadRequest, "invalid body")
	}

	if err := h.Svc.SendPhone(ctx, req.Channel, req.Phone); err != nil {
		return writeError(c, l, "send_phone_otp_error", err)
	}
	l.Info("send_phone_otp_success", "channel", req.Channel)
	return c.JSON(http.StatusOK, transport.MessageResponse{Success: true, Message: "OTP sent to your phone"})
}

func (h *VerificationHTTP) VerifyPhoneOTP(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "otp.verify_phone")

	var req transport.VerifyPhoneOTPRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("verify_phone_otp_error", "status", 400, "reason", "invalid body", "error", err)
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	if req.Phone == "" || req.OTP == "" {
		l.Warn("verify_phone_otp_error", "status", 400, "reason", "missing fields")
		return fail(c, http.StatusBadRequest, "Phone and OTP required")
	}

	if err := h.Svc.VerifyPhone(ctx, session.FromContext(c), req.Channel, req.Phone, req.OTP); err != nil {
		return writeError(c, l, "verify_phone_otp_error", err)
	}
	l.Info("verify_phone_otp_success")
	return c.JSON(http.StatusOK, transport.MessageResponse{Success: true, Message: "Phone verified successfully"})
}
