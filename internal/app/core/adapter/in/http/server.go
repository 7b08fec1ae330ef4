// Package http is the driving adapter: a small JSON API over the bank
// use case. Handlers validate and decode, the vault enforces the rules.
package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ethvault/go-vault-ledger/internal/app/core/usecase"
)

type Server struct {
	bank *usecase.BankUseCase
}

func NewServer(bank *usecase.BankUseCase) *Server {
	return &Server{
		bank: bank,
	}
}

// Register mounts the API routes on the app.
func (s *Server) Register(app *fiber.App) {
	v1 := app.Group("/v1")

	v1.Post("/deposits", s.handleDeposit)
	v1.Post("/withdrawals", s.handleWithdraw)
	// Bare value sent at the vault is treated as a deposit.
	v1.Post("/receive", s.handleDeposit)

	v1.Get("/accounts/:address/balance", s.handleBalance)
	v1.Get("/stats", s.handleStats)
	v1.Get("/config", s.handleConfig)
}
