package transport

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/PEASEC/Warning-Messenger-Bot/internal/models"
)

// WebhookDeliverer posts matched warnings to an HTTP endpoint, one
// request per (recipient, warning) pair. The receiving side renders the
// message and forwards it to the chat transport.
type WebhookDeliverer struct {
	webhookURL string
	hmacSecret string
	httpClient *http.Client
}

func NewWebhookDeliverer(webhookURL, hmacSecret string, timeout time.Duration) *WebhookDeliverer {
	return &WebhookDeliverer{
		webhookURL: webhookURL,
		hmacSecret: hmacSecret,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type deliveryPayload struct {
	RecipientID string    `json:"recipient_id"`
	WarningID   string    `json:"warning_id"`
	Severity    string    `json:"severity"`
	Category    string    `json:"category"`
	Title       string    `json:"title"`
	Source      string    `json:"source"`
	StartDate   time.Time `json:"start_date"`
}

func (w *WebhookDeliverer) Deliver(ctx context.Context, recipientID string, warning models.Warning) error {
	requestBody, err := json.Marshal(deliveryPayload{
		RecipientID: recipientID,
		WarningID:   warning.ID,
		Severity:    warning.Severity.String(),
		Category:    string(warning.Category),
		Title:       warning.Title,
		Source:      warning.Source,
		StartDate:   warning.StartDate,
	})
	if err != nil {
		return err
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, w.webhookURL, bytes.NewReader(requestBody))
	if err != nil {
		return err
	}
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("User-Agent", "warning-engine/1.0")
	if w.hmacSecret != "" {
		signer := hmac.New(sha256.New, []byte(w.hmacSecret))
		signer.Write(requestBody)
		request.Header.Set("X-Signature", fmt.Sprintf("%x", signer.Sum(nil)))
	}

	response, err := w.httpClient.Do(request)
	if err != nil {
		return err
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return fmt.Errorf("delivery rejected: non-2xx response code %d", response.StatusCode)
	}

	return nil
}
