package notify

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Skotchmaster/bookstore_checkout/pkg/apiclient"
)

type Email struct {
	To      []string
	Subject string
	HTML    string
	Text    string
}

// Mailer posts messages to an HTTP email API that accepts
// {"from","to","subject","html","text"} on /emails.
type Mailer struct {
	api    *apiclient.Client
	apiKey string
	from   string
}

func NewMailer(baseURL, apiKey, from string) *Mailer {
	return &Mailer{
		api:    apiclient.NewClient(baseURL, apiclient.WithTimeout(10*time.Second)),
		apiKey: apiKey,
		from:   from,
	}
}

type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html,omitempty"`
	Text    string   `json:"text,omitempty"`
}

func (m *Mailer) SendEmail(ctx context.Context, e Email) error {
	if m.apiKey == "" {
		return fmt.Errorf("mail: %w", ErrNotConfigured)
	}
	if len(e.To) == 0 {
		return fmt.Errorf("mail: %w: no recipients", ErrSend)
	}

	err := m.api.Do(ctx, apiclient.Request{
		Method: http.MethodPost,
		Path:   "/emails",
		Header: http.Header{"Authorization": {"Bearer " + m.apiKey}},
		Body: sendRequest{
			From:    m.from,
			To:      e.To,
			Subject: e.Subject,
			HTML:    e.HTML,
			Text:    e.Text,
		},
	}, nil)
	if err != nil {
		return fmt.Errorf("mail: %w: %w", ErrSend, err)
	}
	return nil
}

// EmailCodeSender delivers verification codes by email.
type EmailCodeSender struct {
	Mailer    *Mailer
	StoreName string
}

func (s EmailCodeSender) SendCode(ctx context.Context, email, code string) error {
	return s.Mailer.SendEmail(ctx, Email{
		To:      []string{email},
		Subject: fmt.Sprintf("%s verification code", s.StoreName),
		Text:    fmt.Sprintf("Your %s verification code is %s. It expires in 10 minutes.", s.StoreName, code),
		HTML:    fmt.Sprintf("<p>Your %s verification code is <strong>%s</strong>.</p><p>It expires in 10 minutes.</p>", s.StoreName, code),
	})
}
