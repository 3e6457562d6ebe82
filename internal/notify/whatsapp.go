package notify

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Skotchmaster/bookstore_checkout/pkg/apiclient"
)

// WhatsApp sends text messages through the WhatsApp Cloud API.
type WhatsApp struct {
	api     *apiclient.Client
	token   string
	phoneID string
}

func NewWhatsApp(apiURL, token, phoneID string) *WhatsApp {
	return &WhatsApp{
		api:     apiclient.NewClient(apiURL, apiclient.WithTimeout(10*time.Second)),
		token:   token,
		phoneID: phoneID,
	}
}

type waText struct {
	Body string `json:"body"`
}

type waRequest struct {
	MessagingProduct string `json:"messaging_product"`
	To               string `json:"to"`
	Type             string `json:"type"`
	Text             waText `json:"text"`
}

type waResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

func (w *WhatsApp) Send(ctx context.Context, phone, message string) error {
	if w.token == "" || w.phoneID == "" {
		return fmt.Errorf("whatsapp: %w", ErrNotConfigured)
	}
	number, err := NormalizePhone(phone)
	if err != nil {
		return fmt.Errorf("whatsapp: %w", err)
	}

	var out waResponse
	err = w.api.Do(ctx, apiclient.Request{
		Method: http.MethodPost,
		Path:   "/" + w.phoneID + "/messages",
		Header: http.Header{"Authorization": {"Bearer " + w.token}},
		Body: waRequest{
			MessagingProduct: "whatsapp",
			To:               "91" + number,
			Type:             "text",
			Text:             waText{Body: message},
		},
	}, &out)
	if err != nil {
		return fmt.Errorf("whatsapp: %w: %w", ErrSend, err)
	}
	if len(out.Messages) == 0 {
		return fmt.Errorf("whatsapp: %w: no message id returned", ErrSend)
	}
	return nil
}

func (w *WhatsApp) SendCode(ctx context.Context, phone, code string) error {
	return w.Send(ctx, phone, codeMessage(code))
}
