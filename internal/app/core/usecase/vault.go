package usecase

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ethvault/go-vault-ledger/internal/app/core/domain"
)

// Stats is the read model for the vault's monotonic counters. The
// counters only move on successful operations and never decrease.
type Stats struct {
	DepositCount    uint64
	WithdrawalCount uint64
}

// Vault is the ledger port. Implementations own the balance map and the
// counters; every invariant is enforced inline at the moment of mutation
// and a failed call leaves no state change behind.
type Vault interface {
	// Deposit credits op.Amount to op.Account, subject to the bank cap.
	Deposit(ctx context.Context, op *domain.Operation) error
	// Withdraw debits op.Amount from op.Account, subject to the balance
	// and the per-transaction ceiling, then pushes the value out through
	// the external transferer. A failed transfer re-credits the debit.
	Withdraw(ctx context.Context, op *domain.Operation) error
	// BalanceOf reports an account's current balance. Unknown accounts
	// read as zero.
	BalanceOf(ctx context.Context, account common.Address) (*big.Int, error)
	// Stats reports the deposit and withdrawal counters.
	Stats(ctx context.Context) (Stats, error)
	// Cap is the fixed total capacity in wei.
	Cap() *big.Int
	// MaxWithdrawal is the fixed per-withdrawal ceiling in wei.
	MaxWithdrawal() *big.Int
}

// Transferer pushes value out of the vault to a caller-controlled
// destination. The destination can run arbitrary logic, fail without a
// reason, or synchronously call back into the vault before returning.
// The vault invokes it strictly after its own state is updated.
type Transferer interface {
	Transfer(ctx context.Context, to common.Address, amount *big.Int) error
}

// TransferFunc adapts a function to the Transferer port.
type TransferFunc func(ctx context.Context, to common.Address, amount *big.Int) error

func (f TransferFunc) Transfer(ctx context.Context, to common.Address, amount *big.Int) error {
	return f(ctx, to, amount)
}

// Notifier receives vault events once the operation that produced them is
// finalized. Delivery is best effort and must not affect the operation's
// outcome.
type Notifier interface {
	Notify(ctx context.Context, event domain.Event)
}
