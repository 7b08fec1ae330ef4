package http

import (
	"bytes"
	"encoding/json"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethvault/go-vault-ledger/internal/app/core/adapter/out/memory"
	"github.com/ethvault/go-vault-ledger/internal/app/core/adapter/out/payout"
	"github.com/ethvault/go-vault-ledger/internal/app/core/usecase"
)

const testAccount = "0x00000000000000000000000000000000000000A1"

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	vault, err := memory.NewMutexVault(
		big.NewInt(1000), big.NewInt(100), nil, payout.NopTransferer{}, nil)
	require.NoError(t, err)

	bank := usecase.NewBankUseCase(vault, common.HexToAddress("0x01"))
	app := fiber.New()
	NewServer(bank).Register(app)
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req)
	require.NoError(t, err)

	var decoded map[string]any
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded))
	}
	return resp, decoded
}

func TestDepositAndBalance(t *testing.T) {
	app := newTestApp(t)

	resp, body := doJSON(t, app, "POST", "/v1/deposits", map[string]string{
		"account":    testAccount,
		"amount_wei": "250",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	assert.Equal(t, "250", body["balance_wei"])

	resp, body = doJSON(t, app, "GET", "/v1/accounts/"+testAccount+"/balance", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "250", body["balance_wei"])
}

func TestReceiveDelegatesToDeposit(t *testing.T) {
	app := newTestApp(t)

	resp, _ := doJSON(t, app, "POST", "/v1/receive", map[string]string{
		"account":    testAccount,
		"amount_wei": "10",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	_, body := doJSON(t, app, "GET", "/v1/stats", nil)
	assert.EqualValues(t, 1, body["deposit_count"])
}

func TestDepositValidation(t *testing.T) {
	app := newTestApp(t)

	resp, body := doJSON(t, app, "POST", "/v1/deposits", map[string]string{
		"account":    "not-an-address",
		"amount_wei": "10",
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.NotEmpty(t, body["error"])

	resp, _ = doJSON(t, app, "POST", "/v1/deposits", map[string]string{
		"account":    testAccount,
		"amount_wei": "0",
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestDepositOverCap(t *testing.T) {
	app := newTestApp(t)

	resp, _ := doJSON(t, app, "POST", "/v1/deposits", map[string]string{
		"account":    testAccount,
		"amount_wei": "900",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp, body := doJSON(t, app, "POST", "/v1/deposits", map[string]string{
		"account":    testAccount,
		"amount_wei": "200",
	})
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	assert.Equal(t, "bank_cap_exceeded", body["error"])
	assert.Equal(t, "1000", body["cap_wei"])
	assert.Equal(t, "900", body["held_wei"])
	assert.Equal(t, "200", body["requested_wei"])
}

func TestWithdrawErrors(t *testing.T) {
	app := newTestApp(t)

	resp, _ := doJSON(t, app, "POST", "/v1/deposits", map[string]string{
		"account":    testAccount,
		"amount_wei": "150",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	// Above the ceiling of 100.
	resp, body := doJSON(t, app, "POST", "/v1/withdrawals", map[string]string{
		"account":    testAccount,
		"amount_wei": "120",
	})
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	assert.Equal(t, "withdrawal_limit_exceeded", body["error"])
	assert.Equal(t, "100", body["limit_wei"])

	// More than the balance.
	resp, body = doJSON(t, app, "POST", "/v1/withdrawals", map[string]string{
		"account":    "0x00000000000000000000000000000000000000B2",
		"amount_wei": "10",
	})
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	assert.Equal(t, "insufficient_funds", body["error"])
	assert.Equal(t, "0", body["available_wei"])

	// Within both limits.
	resp, body = doJSON(t, app, "POST", "/v1/withdrawals", map[string]string{
		"account":    testAccount,
		"amount_wei": "100",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	assert.Equal(t, "50", body["balance_wei"])
}

func TestStatsAndConfig(t *testing.T) {
	app := newTestApp(t)

	_, body := doJSON(t, app, "GET", "/v1/stats", nil)
	assert.EqualValues(t, 0, body["deposit_count"])
	assert.EqualValues(t, 0, body["withdrawal_count"])

	_, body = doJSON(t, app, "GET", "/v1/config", nil)
	assert.Equal(t, "1000", body["bank_cap_wei"])
	assert.Equal(t, "100", body["max_withdrawal_wei"])
	assert.Equal(t, common.HexToAddress("0x01").Hex(), body["owner"])
}
