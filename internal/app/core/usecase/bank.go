package usecase

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"github.com/ethvault/go-vault-ledger/internal/app/core/domain"
)

// BankUseCase is the application service in front of the vault. It fills
// in missing reference IDs and delegates; all accounting rules live in
// the Vault implementation.
type BankUseCase struct {
	vault Vault
	owner common.Address
}

// NewBankUseCase wires a vault behind the application service. The owner
// address is recorded for observability only; no operation is gated on it.
func NewBankUseCase(vault Vault, owner common.Address) *BankUseCase {
	return &BankUseCase{
		vault: vault,
		owner: owner,
	}
}

// Deposit credits amount wei to account. A zero refID gets a fresh one.
func (b *BankUseCase) Deposit(ctx context.Context, refID uuid.UUID, account common.Address, amount *big.Int) error {
	if refID == uuid.Nil {
		refID = uuid.New()
	}
	return b.vault.Deposit(ctx, domain.NewDeposit(refID, account, amount))
}

// Withdraw moves amount wei out of account through the external transfer
// step. A zero refID gets a fresh one.
func (b *BankUseCase) Withdraw(ctx context.Context, refID uuid.UUID, account common.Address, amount *big.Int) error {
	if refID == uuid.Nil {
		refID = uuid.New()
	}
	return b.vault.Withdraw(ctx, domain.NewWithdrawal(refID, account, amount))
}

// BalanceOf reports the account's current balance in wei.
func (b *BankUseCase) BalanceOf(ctx context.Context, account common.Address) (*big.Int, error) {
	return b.vault.BalanceOf(ctx, account)
}

// Stats reports the success counters.
func (b *BankUseCase) Stats(ctx context.Context) (Stats, error) {
	return b.vault.Stats(ctx)
}

// Cap is the configured total capacity in wei.
func (b *BankUseCase) Cap() *big.Int {
	return b.vault.Cap()
}

// MaxWithdrawal is the configured per-withdrawal ceiling in wei.
func (b *BankUseCase) MaxWithdrawal() *big.Int {
	return b.vault.MaxWithdrawal()
}

// Owner is the address that deployed the vault. Recorded but unused by
// the state-changing operations.
func (b *BankUseCase) Owner() common.Address {
	return b.owner
}
