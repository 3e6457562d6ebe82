package session

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/bookstore_checkout/pkg/logging"
	"github.com/Skotchmaster/bookstore_checkout/pkg/tokens"
)

const (
	CookieName  = "session"
	contextKey  = "checkout_session"
	saveTimeout = 3 * time.Second
)

type Manager struct {
	Store  *Store
	Secret []byte
	TTL    time.Duration
	Secure bool
}

// Middleware attaches the caller's session to the echo context. Changes are
// written back to Redis right before the response headers go out, and a new
// session only gets a cookie once something was stored in it.
func (m *Manager) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			l := logging.FromContext(ctx).With("component", "session")

			sess := m.load(c, l)
			Set(c, sess)

			c.Response().Before(func() {
				if !sess.Dirty() {
					return
				}
				created := sess.IsNew()
				saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), saveTimeout)
				defer cancel()
				if err := m.Store.Save(saveCtx, sess); err != nil {
					l.Error("session_save_error", "session_id", sess.ID, "error", err)
					return
				}
				if created {
					l.Debug("session_created", "session_id", sess.ID)
				}
				if err := m.setCookie(c, sess.ID); err != nil {
					l.Error("session_cookie_error", "session_id", sess.ID, "error", err)
				}
			})

			return next(c)
		}
	}
}

func (m *Manager) load(c echo.Context, l *slog.Logger) *Session {
	cookie, err := c.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return New()
	}
	id, err := tokens.SessionIDFromToken(cookie.Value, m.Secret)
	if err != nil {
		l.Warn("session_token_invalid", "error", err)
		return New()
	}
	sess, err := m.Store.Load(c.Request().Context(), id)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			l.Warn("session_load_error", "error", err)
		}
		return New()
	}
	return sess
}

func (m *Manager) setCookie(c echo.Context, id string) error {
	exp := time.Now().Add(m.TTL)
	tok, err := tokens.NewSessionToken(id, exp, m.Secret)
	if err != nil {
		return err
	}

	sameSite := http.SameSiteLaxMode
	if m.Secure {
		sameSite = http.SameSiteNoneMode
	}
	c.SetCookie(&http.Cookie{
		Name:     CookieName,
		Value:    tok,
		Path:     "/",
		Expires:  exp,
		HttpOnly: true,
		Secure:   m.Secure,
		SameSite: sameSite,
	})
	return nil
}

func Set(c echo.Context, s *Session) { c.Set(contextKey, s) }

// FromContext returns the request's session. Outside the middleware a
// throwaway session is attached so callers never see nil.
func FromContext(c echo.Context) *Session {
	if s, ok := c.Get(contextKey).(*Session); ok && s != nil {
		return s
	}
	s := New()
	Set(c, s)
	return s
}
