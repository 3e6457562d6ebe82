package httpserver

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/bookstore_checkout/internal/webhook"
)

type Deps struct {
	CartHandler         *CartHTTP
	VerificationHandler *VerificationHTTP
	CheckoutHandler     *CheckoutHTTP
	CatalogHandler      *CatalogHTTP
	WebhookHandler      *webhook.Handler
	Session             echo.MiddlewareFunc
	CSRF                echo.MiddlewareFunc
	Ready               map[string]func(context.Context) error
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", d.ready)

	e.Any("/webhook/shipment/", d.WebhookHandler.Receive)

	catalogGroup := e.Group("/api/categories")
	catalogGroup.GET("", d.CatalogHandler.Categories)
	catalogGroup.GET("/:code/products", d.CatalogHandler.CategoryProducts)

	// PayU posts the callbacks cross site, so they only get the session.
	var callback []echo.MiddlewareFunc
	if d.Session != nil {
		callback = append(callback, d.Session)
	}
	mw := append([]echo.MiddlewareFunc(nil), callback...)
	if d.CSRF != nil {
		mw = append(mw, d.CSRF)
	}

	api := e.Group("/api", mw...)
	api.POST("/send-email-otp/", d.VerificationHandler.SendEmailOTP)
	api.POST("/verify-email-otp/", d.VerificationHandler.VerifyEmailOTP)
	api.POST("/send-phone-otp/", d.VerificationHandler.SendPhoneOTP)
	api.POST("/verify-phone-otp/", d.VerificationHandler.VerifyPhoneOTP)
	api.POST("/initiate-payment/", d.CheckoutHandler.InitiatePayment)
	api.POST("/calculate-shipping/", d.CheckoutHandler.CalculateShipping)

	cart := e.Group("/cart", mw...)
	cart.POST("/add/", d.CartHandler.Add)
	cart.POST("/remove/", d.CartHandler.Remove)
	cart.POST("/update/", d.CartHandler.Update)
	cart.POST("/clear/", d.CartHandler.Clear)
	cart.GET("/items/", d.CartHandler.Items)
	cart.POST("/addons/update/", d.CartHandler.UpdateAddons)
	cart.GET("/addons/get/", d.CartHandler.Addons)

	e.GET("/checkout/", d.CartHandler.Checkout, mw...)
	e.POST("/payment/success/", d.CheckoutHandler.PaymentSuccess, callback...)
	e.POST("/payment/failure/", d.CheckoutHandler.PaymentFailure, callback...)
}

func (d *Deps) ready(c echo.Context) error {
	ctx := c.Request().Context()
	failed := map[string]string{}
	for name, check := range d.Ready {
		if err := check(ctx); err != nil {
			failed[name] = err.Error()
		}
	}
	if len(failed) > 0 {
		return c.JSON(http.StatusServiceUnavailable, map[string]any{"status": "unavailable", "failed": failed})
	}
	return c.NoContent(http.StatusOK)
}
