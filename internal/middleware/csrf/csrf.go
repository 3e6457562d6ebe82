// Package csrf is a double submit cookie check for the cookie authenticated
// JSON endpoints. The browser reads the token cookie and echoes it back in
// a request header.
package csrf

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/bookstore_checkout/pkg/logging"
)

const (
	DefaultCookieName = "csrftoken"
	DefaultHeaderName = "X-CSRFToken"
	tokenBytes        = 32
)

type Config struct {
	CookieName string
	HeaderName string
	Secure     bool
	MaxAge     time.Duration
	// TrustedOrigins may post in addition to the serving host itself.
	TrustedOrigins []string
}

func (cfg Config) withDefaults() Config {
	if cfg.CookieName == "" {
		cfg.CookieName = DefaultCookieName
	}
	if cfg.HeaderName == "" {
		cfg.HeaderName = DefaultHeaderName
	}
	if cfg.MaxAge == 0 {
		cfg.MaxAge = 365 * 24 * time.Hour
	}
	return cfg
}

func Middleware(cfg Config) echo.MiddlewareFunc {
	cfg = cfg.withDefaults()
	trusted := make(map[string]struct{}, len(cfg.TrustedOrigins))
	for _, o := range cfg.TrustedOrigins {
		trusted[strings.ToLower(strings.TrimRight(o, "/"))] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			l := logging.FromContext(req.Context()).With("component", "csrf")

			token := readCookie(req, cfg.CookieName)
			if token == "" {
				var err error
				if token, err = newToken(); err != nil {
					l.Error("csrf_token_error", "error", err)
					return deny(c, http.StatusInternalServerError, "could not create CSRF token")
				}
				setCookie(c, cfg, token)
			}

			switch req.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				c.Response().Header().Set(cfg.HeaderName, token)
				return next(c)
			}

			if !allowedOrigin(req, trusted) {
				l.Warn("csrf_rejected", "reason", "origin", "origin", req.Header.Get(echo.HeaderOrigin))
				return deny(c, http.StatusForbidden, "invalid origin")
			}
			if !Equal(token, req.Header.Get(cfg.HeaderName)) {
				l.Warn("csrf_rejected", "reason", "token")
				return deny(c, http.StatusForbidden, "invalid CSRF token")
			}
			return next(c)
		}
	}
}

func Equal(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func deny(c echo.Context, status int, msg string) error {
	return c.JSON(status, map[string]any{"success": false, "error": msg})
}

func newToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func setCookie(c echo.Context, cfg Config, token string) {
	c.SetCookie(&http.Cookie{
		Name:     cfg.CookieName,
		Value:    token,
		Path:     "/",
		Secure:   cfg.Secure,
		HttpOnly: false,
		MaxAge:   int(cfg.MaxAge.Seconds()),
		SameSite: http.SameSiteLaxMode,
	})
}

func readCookie(req *http.Request, name string) string {
	ck, err := req.Cookie(name)
	if err != nil {
		return ""
	}
	return ck.Value
}

// allowedOrigin accepts requests whose Origin (or Referer, when Origin is
// missing) is the serving host or a trusted origin. Requests carrying
// neither header are let through to the token check.
func allowedOrigin(r *http.Request, trusted map[string]struct{}) bool {
	origin := r.Header.Get(echo.HeaderOrigin)
	if origin == "" {
		origin = r.Header.Get("Referer")
	}
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return false
	}
	if strings.EqualFold(u.Host, r.Host) {
		return true
	}
	_, ok := trusted[strings.ToLower(u.Scheme+"://"+u.Host)]
	return ok
}
