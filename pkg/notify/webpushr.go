package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"locpulse/pkg/config"
	"locpulse/pkg/model"
	"locpulse/pkg/request"
)

// Webpushr delivers through the Webpushr REST API. Requests go through the
// shared client so they share the provider queue and backoff policy.
type Webpushr struct {
	client   *request.Client
	endpoint string
	key      string
	token    string
}

// NewWebpushr creates a Webpushr channel from config.
func NewWebpushr(client *request.Client, cfg config.PushConfig) *Webpushr {
	return &Webpushr{
		client:   client,
		endpoint: cfg.Endpoint,
		key:      cfg.Key,
		token:    cfg.Token,
	}
}

// Ready reports whether credentials are configured.
func (w *Webpushr) Ready() bool {
	return w.key != "" && w.token != ""
}

type webpushrPayload struct {
	Title              string `json:"title"`
	Message            string `json:"message"`
	TargetURL          string `json:"target_url"`
	RequireInteraction bool   `json:"require_interaction"`
}

// Show posts the notification to Webpushr.
func (w *Webpushr) Show(ctx context.Context, n model.Notification) error {
	body, err := json.Marshal(webpushrPayload{
		Title:              n.Title,
		Message:            n.Body,
		TargetURL:          n.Data.URL,
		RequireInteraction: n.RequireInteraction,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal push payload: %w", err)
	}

	headers := map[string]string{
		"webpushrKey":       w.key,
		"webpushrAuthToken": w.token,
		"Content-Type":      "application/json",
	}
	if _, err := w.client.Post(ctx, w.endpoint, body, headers); err != nil {
		return fmt.Errorf("push delivery failed: %w", err)
	}
	return nil
}
