// Package notify delivers user-facing text messages over WhatsApp.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/finzap/finzap/internal/retry"
)

// DefaultAPIBase is the Meta Graph API endpoint for the WhatsApp Cloud API.
const DefaultAPIBase = "https://graph.facebook.com/v19.0"

// WhatsAppSender sends text messages through the WhatsApp Cloud API.
type WhatsAppSender struct {
	apiBase       string
	token         string
	phoneNumberID string
	client        *http.Client
}

// NewWhatsAppSender creates a sender for the given business phone number.
// An empty apiBase falls back to DefaultAPIBase.
func NewWhatsAppSender(apiBase, token, phoneNumberID string) *WhatsAppSender {
	if apiBase == "" {
		apiBase = DefaultAPIBase
	}
	return &WhatsAppSender{
		apiBase:       apiBase,
		token:         token,
		phoneNumberID: phoneNumberID,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Name returns the sender identifier.
func (s *WhatsAppSender) Name() string { return "whatsapp" }

// Send delivers a text message to the given WhatsApp number. The call is
// retried a bounded number of times before giving up.
func (s *WhatsAppSender) Send(ctx context.Context, to, text string) error {
	payload := messagePayload{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "text",
		Text:             messageText{Body: text},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal message payload: %w", err)
	}

	url := fmt.Sprintf("%s/%s/messages", s.apiBase, s.phoneNumberID)

	return retry.Do(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create message request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+s.token)

		resp, err := s.client.Do(req)
		if err != nil {
			return fmt.Errorf("send message: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return fmt.Errorf("whatsapp api returned status %d: %s", resp.StatusCode, detail)
		}
		return nil
	}, retry.Options{MaxAttempts: 3, InitialDelay: 500 * time.Millisecond})
}

type messagePayload struct {
	MessagingProduct string      `json:"messaging_product"`
	To               string      `json:"to"`
	Type             string      `json:"type"`
	Text             messageText `json:"text"`
}

type messageText struct {
	Body string `json:"body"`
}
