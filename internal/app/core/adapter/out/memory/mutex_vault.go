package memory

import (
	"context"
	"encoding/json"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"github.com/ethvault/go-vault-ledger/internal/app/core/domain"
	"github.com/ethvault/go-vault-ledger/internal/app/core/usecase"
	"github.com/ethvault/go-vault-ledger/pkg/wal"
)

// MutexVault is the in-memory vault backend. One mutex guards the balance
// map, the held total and the counters; committed operations are appended
// to the WAL so a restart rebuilds the same state.
//
// Ordering discipline for withdrawals: validate, debit, release the lock,
// then run the external transfer. The transfer destination can call back
// into the vault synchronously; by then the debit is already visible, so
// a reentrant withdrawal is bounded by the normal insufficient-funds
// check. A failed transfer re-credits the debit before the error leaves
// the vault.
type MutexVault struct {
	mu       sync.Mutex
	accounts map[common.Address]*domain.Account

	// held is the sum of all balances; kept alongside the map so the cap
	// admission check is O(1).
	held            *big.Int
	bankCap         *big.Int
	maxWithdrawal   *big.Int
	depositCount    uint64
	withdrawalCount uint64
	seq             uint64

	// processed records committed RefIDs; replays succeed without
	// re-applying.
	processed map[uuid.UUID]time.Time

	wal        *wal.WAL
	transferer usecase.Transferer
	notifier   usecase.Notifier
}

// NewMutexVault builds a vault with the given fixed limits (both in wei)
// and recovers any state recorded in the journal. The journal may be nil
// for a purely volatile vault; the notifier may be nil.
func NewMutexVault(bankCap, maxWithdrawal *big.Int, journal *wal.WAL, transferer usecase.Transferer, notifier usecase.Notifier) (*MutexVault, error) {
	v := &MutexVault{
		accounts:      make(map[common.Address]*domain.Account),
		held:          new(big.Int),
		bankCap:       new(big.Int).Set(bankCap),
		maxWithdrawal: new(big.Int).Set(maxWithdrawal),
		processed:     make(map[uuid.UUID]time.Time),
		wal:           journal,
		transferer:    transferer,
		notifier:      notifier,
	}
	if err := v.recoverFromWAL(); err != nil {
		return nil, err
	}
	return v, nil
}

// recoverFromWAL replays the journal into memory. Only committed
// operations are ever journaled, so replay applies them directly without
// re-checking admission rules (the limits may legitimately differ from
// the run that recorded them) and without touching the external
// transferer.
func (v *MutexVault) recoverFromWAL() error {
	if v.wal == nil {
		return nil
	}
	now := time.Now()
	return v.wal.ReadAll(func(jsonRaw []byte) error {
		var op domain.Operation
		if err := json.Unmarshal(jsonRaw, &op); err != nil {
			return err
		}
		return v.applyRecovered(&op, now)
	})
}

// applyRecovered applies one journaled operation. Runs single-threaded
// inside NewMutexVault, no lock needed.
func (v *MutexVault) applyRecovered(op *domain.Operation, now time.Time) error {
	acct := v.getOrCreate(op.Account)
	switch op.Kind {
	case domain.OpDeposit:
		if err := acct.Credit(op.Amount); err != nil {
			return err
		}
		v.held.Add(v.held, op.Amount)
		v.depositCount++
	case domain.OpWithdrawal:
		if err := acct.Debit(op.Amount); err != nil {
			return err
		}
		v.held.Sub(v.held, op.Amount)
		v.withdrawalCount++
	}
	if op.Sequence > v.seq {
		v.seq = op.Sequence
	}
	v.processed[op.RefID] = now
	return nil
}

// getOrCreate returns the account entry, creating it on first use.
// Callers hold the lock (or run during single-threaded recovery).
func (v *MutexVault) getOrCreate(address common.Address) *domain.Account {
	acct, ok := v.accounts[address]
	if !ok {
		acct = domain.NewAccount(address)
		v.accounts[address] = acct
	}
	return acct
}

// Deposit credits op.Amount to op.Account. The admission check compares
// the post-acceptance held total against the cap, so a deposit landing
// exactly at the cap is accepted and any deposit beyond it is rejected.
func (v *MutexVault) Deposit(ctx context.Context, op *domain.Operation) error {
	v.mu.Lock()

	if _, ok := v.processed[op.RefID]; ok {
		v.mu.Unlock()
		return nil
	}
	if op.Amount == nil || op.Amount.Sign() <= 0 {
		v.mu.Unlock()
		return domain.ErrZeroDeposit
	}

	newHeld := new(big.Int).Add(v.held, op.Amount)
	if newHeld.Cmp(v.bankCap) > 0 {
		err := &domain.BankCapExceededError{
			Cap:       new(big.Int).Set(v.bankCap),
			Held:      new(big.Int).Set(v.held),
			Requested: new(big.Int).Set(op.Amount),
		}
		v.mu.Unlock()
		return err
	}

	acct := v.getOrCreate(op.Account)
	if err := acct.Credit(op.Amount); err != nil {
		v.mu.Unlock()
		return err
	}
	v.held = newHeld

	now := time.Now()
	v.seq++
	op.Sequence = v.seq
	op.CreatedAt = now.UnixNano()

	if v.wal != nil {
		if err := v.journal(op); err != nil {
			// Undo the credit so the rejected call is state-neutral.
			acct.Balance.Sub(acct.Balance, op.Amount)
			v.held.Sub(v.held, op.Amount)
			v.seq--
			v.mu.Unlock()
			return domain.ErrJournalWriteFailed
		}
	}

	v.depositCount++
	v.processed[op.RefID] = now
	newBalance := new(big.Int).Set(acct.Balance)
	v.mu.Unlock()

	v.notify(ctx, domain.Event{
		Kind:       domain.EventDepositSucceeded,
		Account:    op.Account,
		Amount:     op.Amount,
		NewBalance: newBalance,
		At:         now,
	})
	return nil
}

// Withdraw debits op.Amount from op.Account and pushes the value out
// through the external transferer. The balance check runs before the
// ceiling check and wins when both would reject.
func (v *MutexVault) Withdraw(ctx context.Context, op *domain.Operation) error {
	v.mu.Lock()

	if _, ok := v.processed[op.RefID]; ok {
		v.mu.Unlock()
		return nil
	}
	if op.Amount == nil || op.Amount.Sign() <= 0 {
		v.mu.Unlock()
		return domain.ErrZeroAmount
	}

	// No getOrCreate here: a rejected withdrawal must not leave an empty
	// account entry behind.
	acct, ok := v.accounts[op.Account]
	available := new(big.Int)
	if ok {
		available.Set(acct.Balance)
	}
	if available.Cmp(op.Amount) < 0 {
		err := &domain.InsufficientFundsError{
			Available: available,
			Requested: new(big.Int).Set(op.Amount),
		}
		v.mu.Unlock()
		return err
	}
	if op.Amount.Cmp(v.maxWithdrawal) > 0 {
		err := &domain.WithdrawalLimitExceededError{
			Limit:     new(big.Int).Set(v.maxWithdrawal),
			Requested: new(big.Int).Set(op.Amount),
		}
		v.mu.Unlock()
		return err
	}

	// Tentative debit, committed before control leaves the vault.
	acct.Balance.Sub(acct.Balance, op.Amount)
	v.held.Sub(v.held, op.Amount)
	v.mu.Unlock()

	transferErr := v.transferer.Transfer(ctx, op.Account, op.Amount)

	v.mu.Lock()
	if transferErr != nil {
		// Re-credit so the failed call is balance-neutral. The counters
		// were never touched.
		acct.Balance.Add(acct.Balance, op.Amount)
		v.held.Add(v.held, op.Amount)
		v.mu.Unlock()
		return &domain.TransferFailedError{Cause: transferErr}
	}

	now := time.Now()
	v.seq++
	op.Sequence = v.seq
	op.CreatedAt = now.UnixNano()

	if v.wal != nil {
		if err := v.journal(op); err != nil {
			// The value has already left custody; the debit must stand.
			// The journal will be short one record until the next
			// successful flush.
			slog.Error("withdrawal journal write failed", "ref_id", op.RefID, "error", err)
		}
	}

	v.withdrawalCount++
	v.processed[op.RefID] = now
	newBalance := new(big.Int).Set(acct.Balance)
	v.mu.Unlock()

	v.notify(ctx, domain.Event{
		Kind:       domain.EventWithdrawalSucceeded,
		Account:    op.Account,
		Amount:     op.Amount,
		NewBalance: newBalance,
		At:         now,
	})
	return nil
}

func (v *MutexVault) journal(op *domain.Operation) error {
	if err := v.wal.Write(op); err != nil {
		return err
	}
	return v.wal.Flush()
}

func (v *MutexVault) notify(ctx context.Context, event domain.Event) {
	if v.notifier != nil {
		v.notifier.Notify(ctx, event)
	}
}

// BalanceOf reports the account's current balance. Unknown accounts read
// as zero.
func (v *MutexVault) BalanceOf(ctx context.Context, account common.Address) (*big.Int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	acct, ok := v.accounts[account]
	if !ok {
		return new(big.Int), nil
	}
	return new(big.Int).Set(acct.Balance), nil
}

// Stats reports the success counters.
func (v *MutexVault) Stats(ctx context.Context) (usecase.Stats, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return usecase.Stats{
		DepositCount:    v.depositCount,
		WithdrawalCount: v.withdrawalCount,
	}, nil
}

// Cap is the fixed total capacity in wei.
func (v *MutexVault) Cap() *big.Int {
	return new(big.Int).Set(v.bankCap)
}

// MaxWithdrawal is the fixed per-withdrawal ceiling in wei.
func (v *MutexVault) MaxWithdrawal() *big.Int {
	return new(big.Int).Set(v.maxWithdrawal)
}

var _ usecase.Vault = (*MutexVault)(nil)
