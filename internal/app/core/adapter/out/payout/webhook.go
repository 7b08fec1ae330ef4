// Package payout implements the external value-transfer step of a
// withdrawal. The vault calls it last, after its own state is updated;
// any failure here makes the vault re-credit the debited amount.
package payout

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ethvault/go-vault-ledger/internal/app/core/usecase"
)

// WebhookTransferer hands the payout to an external settlement endpoint.
// The endpoint runs arbitrary logic and can fail for any reason or none;
// it may also call back into the vault's API before responding.
type WebhookTransferer struct {
	url    string
	client *http.Client
}

func NewWebhookTransferer(url string) *WebhookTransferer {
	return &WebhookTransferer{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (t *WebhookTransferer) Transfer(ctx context.Context, to common.Address, amount *big.Int) error {
	body, err := json.Marshal(map[string]string{
		"to":         to.Hex(),
		"amount_wei": amount.String(),
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	return fmt.Errorf("settlement endpoint returned status %d", resp.StatusCode)
}

var _ usecase.Transferer = (*WebhookTransferer)(nil)

// NopTransferer acknowledges every transfer without moving anything.
// Used for local runs with no settlement endpoint configured.
type NopTransferer struct{}

func (NopTransferer) Transfer(ctx context.Context, to common.Address, amount *big.Int) error {
	return nil
}

var _ usecase.Transferer = NopTransferer{}
