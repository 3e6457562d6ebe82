// Package shipping talks to the Shiprocket external API: authentication,
// courier serviceability quotes and ad hoc order creation.
package shipping

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/Skotchmaster/bookstore_checkout/pkg/apiclient"
)

const (
	DefaultBaseURL = "https://apiv2.shiprocket.in/v1/external"

	loginTimeout = 10 * time.Second
	callTimeout  = 30 * time.Second
	tokenTTL     = 9 * 24 * time.Hour
)

var (
	ErrAuth            = errors.New("shiprocket: authentication failed")
	ErrUpstream        = errors.New("shiprocket: upstream error")
	ErrBookingRejected = errors.New("shiprocket: booking rejected")
	ErrNotConfigured   = errors.New("shiprocket: credentials not configured")
)

type Config struct {
	BaseURL        string
	Email          string
	Password       string
	PickupLocation string
	PickupPincode  string
	ChannelID      string
}

type Client struct {
	cfg Config
	api *apiclient.Client
	now func() time.Time

	mu       sync.Mutex
	token    string
	tokenExp time.Time
}

func NewClient(cfg Config, opts ...apiclient.Option) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	return &Client{
		cfg: cfg,
		api: apiclient.NewClient(cfg.BaseURL, opts...),
		now: time.Now,
	}
}

func (c *Client) PickupPincode() string { return c.cfg.PickupPincode }

type loginResponse struct {
	Token string `json:"token"`
}

func (c *Client) login(ctx context.Context) (string, error) {
	if c.cfg.Email == "" || c.cfg.Password == "" {
		return "", ErrNotConfigured
	}

	ctx, cancel := context.WithTimeout(ctx, loginTimeout)
	defer cancel()

	var out loginResponse
	err := c.api.Do(ctx, apiclient.Request{
		Method: http.MethodPost,
		Path:   "/auth/login",
		Body:   map[string]string{"email": c.cfg.Email, "password": c.cfg.Password},
	}, &out)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrAuth, err)
	}
	if out.Token == "" {
		return "", fmt.Errorf("%w: empty token", ErrAuth)
	}
	return out.Token, nil
}

// bearer returns the cached token, logging in when none is cached or the
// cached one has aged out.
func (c *Client) bearer(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && c.now().Before(c.tokenExp) {
		return c.token, nil
	}
	tok, err := c.login(ctx)
	if err != nil {
		return "", err
	}
	c.token = tok
	c.tokenExp = c.now().Add(tokenTTL)
	return tok, nil
}

func (c *Client) invalidate(tok string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token == tok {
		c.token = ""
	}
}

// call runs an authenticated request. A 401 drops the cached token and the
// request is retried once with a fresh login.
func (c *Client) call(ctx context.Context, r apiclient.Request, out any) error {
	for attempt := 0; ; attempt++ {
		tok, err := c.bearer(ctx)
		if err != nil {
			return err
		}

		req := r
		req.Header = http.Header{"Authorization": {"Bearer " + tok}}

		callCtx, cancel := context.WithTimeout(ctx, callTimeout)
		err = c.api.Do(callCtx, req, out)
		cancel()
		if err == nil {
			return nil
		}

		var se *apiclient.StatusError
		if errors.As(err, &se) && se.Status == http.StatusUnauthorized && attempt == 0 {
			c.invalidate(tok)
			continue
		}
		return fmt.Errorf("%w: %w", ErrUpstream, err)
	}
}
