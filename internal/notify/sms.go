package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Skotchmaster/bookstore_checkout/pkg/apiclient"
)

var (
	ErrSend          = errors.New("notification not delivered")
	ErrNotConfigured = errors.New("notifier not configured")
)

// SMS sends text messages through the Fast2SMS bulk API.
type SMS struct {
	api    *apiclient.Client
	apiKey string
}

func NewSMS(endpoint, apiKey string) *SMS {
	return &SMS{
		api:    apiclient.NewClient(endpoint, apiclient.WithTimeout(10*time.Second)),
		apiKey: apiKey,
	}
}

type fast2smsRequest struct {
	Route    string `json:"route"`
	Message  string `json:"message"`
	Language string `json:"language"`
	Numbers  string `json:"numbers"`
}

type fast2smsResponse struct {
	Return bool `json:"return"`
}

func (s *SMS) Send(ctx context.Context, phone, message string) error {
	if s.apiKey == "" {
		return fmt.Errorf("sms: %w", ErrNotConfigured)
	}
	number, err := NormalizePhone(phone)
	if err != nil {
		return fmt.Errorf("sms: %w", err)
	}

	var out fast2smsResponse
	err = s.api.Do(ctx, apiclient.Request{
		Method: http.MethodPost,
		Header: http.Header{"authorization": {s.apiKey}},
		Body: fast2smsRequest{
			Route:    "q",
			Message:  message,
			Language: "english",
			Numbers:  number,
		},
	}, &out)
	if err != nil {
		return fmt.Errorf("sms: %w: %w", ErrSend, err)
	}
	if !out.Return {
		return fmt.Errorf("sms: %w: provider returned false", ErrSend)
	}
	return nil
}

func (s *SMS) SendCode(ctx context.Context, phone, code string) error {
	return s.Send(ctx, phone, codeMessage(code))
}

func codeMessage(code string) string {
	return fmt.Sprintf("Your verification code is %s. It is valid for 10 minutes.", code)
}
