// Package notifications delivers vault events to external observers.
// Delivery is best effort: a lost notification never affects the
// operation that produced it.
package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/ethvault/go-vault-ledger/internal/app/core/domain"
	"github.com/ethvault/go-vault-ledger/internal/app/core/usecase"
)

// WebhookNotifier POSTs each event as JSON to a configured URL.
type WebhookNotifier struct {
	url    string
	client *http.Client
}

func NewWebhookNotifier(url string) *WebhookNotifier {
	return &WebhookNotifier{
		url: url,
		// Don't let a slow receiver block the caller.
		client: &http.Client{Timeout: 5 * time.Second},
	}
}

func (n *WebhookNotifier) Notify(ctx context.Context, event domain.Event) {
	if err := n.send(ctx, event); err != nil {
		slog.Error("webhook notification failed",
			"kind", event.Kind, "account", event.Account.Hex(), "error", err)
	}
}

func (n *WebhookNotifier) send(ctx context.Context, event domain.Event) error {
	jsonData, err := json.Marshal(event)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewBuffer(jsonData))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "VaultLedger-Webhook/1.0")

	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	return fmt.Errorf("receiver returned status %d", resp.StatusCode)
}

var _ usecase.Notifier = (*WebhookNotifier)(nil)

// LogNotifier writes events to the structured log. Used when no webhook
// URL is configured.
type LogNotifier struct{}

func (LogNotifier) Notify(ctx context.Context, event domain.Event) {
	slog.Info("vault event",
		"kind", event.Kind,
		"account", event.Account.Hex(),
		"amount", event.Amount.String(),
		"new_balance", event.NewBalance.String(),
	)
}

var _ usecase.Notifier = LogNotifier{}
