package http

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/ethvault/go-vault-ledger/internal/app/core/domain"
)

// operationRequest is the body of both state-changing endpoints. The
// amount travels as a decimal string because wei values overflow JSON
// numbers.
type operationRequest struct {
	Account   string `json:"account"`
	AmountWei string `json:"amount_wei"`
	RefID     string `json:"ref_id"`
}

func (r *operationRequest) parse() (uuid.UUID, common.Address, *big.Int, error) {
	if !common.IsHexAddress(r.Account) {
		return uuid.Nil, common.Address{}, nil, errors.New("account must be a 0x-prefixed hex address")
	}
	account := common.HexToAddress(r.Account)

	amount, err := domain.ParseWei(r.AmountWei)
	if err != nil {
		return uuid.Nil, common.Address{}, nil, err
	}

	refID := uuid.Nil
	if r.RefID != "" {
		refID, err = uuid.Parse(r.RefID)
		if err != nil {
			return uuid.Nil, common.Address{}, nil, errors.New("ref_id must be a UUID")
		}
	}
	return refID, account, amount, nil
}

func (s *Server) handleDeposit(c *fiber.Ctx) error {
	var req operationRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "malformed request body")
	}
	refID, account, amount, err := req.parse()
	if err != nil {
		return badRequest(c, err.Error())
	}

	if err := s.bank.Deposit(c.Context(), refID, account, amount); err != nil {
		return domainError(c, err)
	}

	balance, err := s.bank.BalanceOf(c.Context(), account)
	if err != nil {
		return domainError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"account":     account.Hex(),
		"amount_wei":  amount.String(),
		"balance_wei": balance.String(),
	})
}

func (s *Server) handleWithdraw(c *fiber.Ctx) error {
	var req operationRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "malformed request body")
	}
	refID, account, amount, err := req.parse()
	if err != nil {
		return badRequest(c, err.Error())
	}

	if err := s.bank.Withdraw(c.Context(), refID, account, amount); err != nil {
		return domainError(c, err)
	}

	balance, err := s.bank.BalanceOf(c.Context(), account)
	if err != nil {
		return domainError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"account":     account.Hex(),
		"amount_wei":  amount.String(),
		"balance_wei": balance.String(),
	})
}

func (s *Server) handleBalance(c *fiber.Ctx) error {
	addr := c.Params("address")
	if !common.IsHexAddress(addr) {
		return badRequest(c, "address must be a 0x-prefixed hex address")
	}
	balance, err := s.bank.BalanceOf(c.Context(), common.HexToAddress(addr))
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(fiber.Map{
		"account":     common.HexToAddress(addr).Hex(),
		"balance_wei": balance.String(),
	})
}

func (s *Server) handleStats(c *fiber.Ctx) error {
	stats, err := s.bank.Stats(c.Context())
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(fiber.Map{
		"deposit_count":    stats.DepositCount,
		"withdrawal_count": stats.WithdrawalCount,
	})
}

func (s *Server) handleConfig(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"bank_cap_wei":       s.bank.Cap().String(),
		"max_withdrawal_wei": s.bank.MaxWithdrawal().String(),
		"owner":              s.bank.Owner().Hex(),
	})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": msg,
	})
}

// domainError maps the vault's error taxonomy onto HTTP statuses and
// surfaces each error's payload fields so clients can react
// programmatically.
func domainError(c *fiber.Ctx, err error) error {
	var (
		capErr      *domain.BankCapExceededError
		fundsErr    *domain.InsufficientFundsError
		limitErr    *domain.WithdrawalLimitExceededError
		transferErr *domain.TransferFailedError
	)

	switch {
	case errors.Is(err, domain.ErrZeroDeposit), errors.Is(err, domain.ErrZeroAmount):
		return badRequest(c, err.Error())

	case errors.As(err, &capErr):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":         "bank_cap_exceeded",
			"cap_wei":       capErr.Cap.String(),
			"held_wei":      capErr.Held.String(),
			"requested_wei": capErr.Requested.String(),
		})

	case errors.As(err, &fundsErr):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":         "insufficient_funds",
			"available_wei": fundsErr.Available.String(),
			"requested_wei": fundsErr.Requested.String(),
		})

	case errors.As(err, &limitErr):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":         "withdrawal_limit_exceeded",
			"limit_wei":     limitErr.Limit.String(),
			"requested_wei": limitErr.Requested.String(),
		})

	case errors.As(err, &transferErr):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "transfer_failed",
		})

	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal error",
		})
	}
}
