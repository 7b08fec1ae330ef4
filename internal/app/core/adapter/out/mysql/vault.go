package mysql

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ethvault/go-vault-ledger/internal/app/core/domain"
	"github.com/ethvault/go-vault-ledger/internal/app/core/usecase"
	"github.com/ethvault/go-vault-ledger/pkg/mysql"
)

// sqlAccount maps to the vault_accounts table. Balances are stored as
// decimal(65,0) strings because wei amounts outgrow int64.
type sqlAccount struct {
	Address   []byte `gorm:"column:address;type:binary(20);primaryKey"`
	Balance   string `gorm:"type:decimal(65,0)"`
	UpdatedAt int64  `gorm:"autoUpdateTime:milli"`
}

func (*sqlAccount) TableName() string {
	return "vault_accounts"
}

// sqlVaultState is the singleton row holding the held total and the
// counters. Locking it FOR UPDATE serializes state-changing operations,
// which is what makes the global cap check sound.
type sqlVaultState struct {
	ID              int64  `gorm:"primaryKey"`
	Held            string `gorm:"type:decimal(65,0)"`
	DepositCount    uint64
	WithdrawalCount uint64
	Sequence        uint64
}

func (*sqlVaultState) TableName() string {
	return "vault_state"
}

// sqlOperation maps to the vault_operations journal. The unique ref_id
// index is the idempotency barrier.
type sqlOperation struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	RefID     []byte `gorm:"column:ref_id;type:binary(16);uniqueIndex"`
	Sequence  uint64 `gorm:"index"`
	Address   []byte `gorm:"type:binary(20)"`
	Amount    string `gorm:"type:decimal(65,0)"`
	Kind      uint8
	CreatedAt int64 `gorm:"autoCreateTime:milli"`
}

func (*sqlOperation) TableName() string {
	return "vault_operations"
}

const stateRowID = 1

// MySQLVault is the durable vault backend. The limits stay
// deployment-fixed configuration, only balances, counters and the
// operation journal live in the database.
type MySQLVault struct {
	client        *mysql.Client
	bankCap       *big.Int
	maxWithdrawal *big.Int
	transferer    usecase.Transferer
	notifier      usecase.Notifier
}

func NewMySQLVault(client *mysql.Client, bankCap, maxWithdrawal *big.Int, transferer usecase.Transferer, notifier usecase.Notifier) *MySQLVault {
	return &MySQLVault{
		client:        client,
		bankCap:       new(big.Int).Set(bankCap),
		maxWithdrawal: new(big.Int).Set(maxWithdrawal),
		transferer:    transferer,
		notifier:      notifier,
	}
}

// Migrate creates the vault tables and the state row.
func (v *MySQLVault) Migrate() error {
	db := v.client.DB()
	if err := db.AutoMigrate(&sqlAccount{}, &sqlVaultState{}, &sqlOperation{}); err != nil {
		return err
	}
	state := sqlVaultState{ID: stateRowID, Held: "0"}
	return db.Clauses(clause.OnConflict{DoNothing: true}).Create(&state).Error
}

func parseDec(s string) (*big.Int, error) {
	if s == "" {
		return new(big.Int), nil
	}
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("malformed decimal column value %q", s)
	}
	return n, nil
}

// lockState loads the singleton state row FOR UPDATE.
func lockState(tx *gorm.DB) (*sqlVaultState, error) {
	var state sqlVaultState
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&state, stateRowID).Error
	if err != nil {
		return nil, fmt.Errorf("vault state row missing (run Migrate): %w", err)
	}
	return &state, nil
}

// refProcessed reports whether an operation with this ref_id already
// committed.
func refProcessed(tx *gorm.DB, refID []byte) (bool, error) {
	var existing sqlOperation
	err := tx.Where("ref_id = ?", refID).First(&existing).Error
	if err == nil {
		return true, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return false, err
}

// Deposit credits op.Amount to op.Account inside one database
// transaction: ref check, state row lock, cap admission, account upsert,
// counter bump, journal insert.
func (v *MySQLVault) Deposit(ctx context.Context, op *domain.Operation) error {
	var event *domain.Event

	err := v.client.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		done, err := refProcessed(tx, op.RefID[:])
		if err != nil {
			return err
		}
		if done {
			return nil
		}

		if op.Amount == nil || op.Amount.Sign() <= 0 {
			return domain.ErrZeroDeposit
		}

		state, err := lockState(tx)
		if err != nil {
			return err
		}
		held, err := parseDec(state.Held)
		if err != nil {
			return err
		}

		newHeld := new(big.Int).Add(held, op.Amount)
		if newHeld.Cmp(v.bankCap) > 0 {
			return &domain.BankCapExceededError{
				Cap:       new(big.Int).Set(v.bankCap),
				Held:      held,
				Requested: new(big.Int).Set(op.Amount),
			}
		}

		var acct sqlAccount
		err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("address = ?", op.Account[:]).First(&acct).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			acct = sqlAccount{Address: op.Account.Bytes(), Balance: "0"}
			if err := tx.Create(&acct).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		balance, err := parseDec(acct.Balance)
		if err != nil {
			return err
		}
		newBalance := new(big.Int).Add(balance, op.Amount)

		if err := tx.Model(&sqlAccount{}).
			Where("address = ?", op.Account[:]).
			Update("balance", newBalance.String()).Error; err != nil {
			return err
		}

		state.Held = newHeld.String()
		state.Sequence++
		state.DepositCount++
		if err := tx.Save(state).Error; err != nil {
			return err
		}

		op.Sequence = state.Sequence
		op.CreatedAt = time.Now().UnixNano()
		record := sqlOperation{
			RefID:    op.RefID[:],
			Sequence: op.Sequence,
			Address:  op.Account.Bytes(),
			Amount:   op.Amount.String(),
			Kind:     uint8(op.Kind),
		}
		if err := tx.Create(&record).Error; err != nil {
			return err
		}

		event = &domain.Event{
			Kind:       domain.EventDepositSucceeded,
			Account:    op.Account,
			Amount:     op.Amount,
			NewBalance: newBalance,
			At:         time.Now(),
		}
		return nil
	})
	if err != nil {
		return err
	}

	if event != nil && v.notifier != nil {
		v.notifier.Notify(ctx, *event)
	}
	return nil
}

// Withdraw runs in three phases: a debit transaction (validations and
// balance/held updates), the external transfer, then either a finalize
// transaction (counters plus journal row) or a compensating re-credit
// transaction when the transfer failed. The debit is committed before
// the transfer starts, so anything the destination does during the
// transfer observes the post-debit balance.
func (v *MySQLVault) Withdraw(ctx context.Context, op *domain.Operation) error {
	var newBalance *big.Int

	err := v.client.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		done, err := refProcessed(tx, op.RefID[:])
		if err != nil {
			return err
		}
		if done {
			return nil
		}

		if op.Amount == nil || op.Amount.Sign() <= 0 {
			return domain.ErrZeroAmount
		}

		state, err := lockState(tx)
		if err != nil {
			return err
		}

		var acct sqlAccount
		available := new(big.Int)
		err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("address = ?", op.Account[:]).First(&acct).Error
		if err == nil {
			if available, err = parseDec(acct.Balance); err != nil {
				return err
			}
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if available.Cmp(op.Amount) < 0 {
			return &domain.InsufficientFundsError{
				Available: available,
				Requested: new(big.Int).Set(op.Amount),
			}
		}
		if op.Amount.Cmp(v.maxWithdrawal) > 0 {
			return &domain.WithdrawalLimitExceededError{
				Limit:     new(big.Int).Set(v.maxWithdrawal),
				Requested: new(big.Int).Set(op.Amount),
			}
		}

		newBalance = new(big.Int).Sub(available, op.Amount)
		if err := tx.Model(&sqlAccount{}).
			Where("address = ?", op.Account[:]).
			Update("balance", newBalance.String()).Error; err != nil {
			return err
		}

		held, err := parseDec(state.Held)
		if err != nil {
			return err
		}
		state.Held = new(big.Int).Sub(held, op.Amount).String()
		return tx.Save(state).Error
	})
	if err != nil {
		return err
	}
	if newBalance == nil {
		// Ref already processed, nothing to apply.
		return nil
	}

	if transferErr := v.transferer.Transfer(ctx, op.Account, op.Amount); transferErr != nil {
		if err := v.recredit(ctx, op); err != nil {
			// The compensation itself failed; surface both.
			return &domain.TransferFailedError{
				Cause: fmt.Errorf("%v (re-credit also failed: %w)", transferErr, err),
			}
		}
		return &domain.TransferFailedError{Cause: transferErr}
	}

	err = v.client.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		state, err := lockState(tx)
		if err != nil {
			return err
		}
		state.Sequence++
		state.WithdrawalCount++
		if err := tx.Save(state).Error; err != nil {
			return err
		}

		op.Sequence = state.Sequence
		op.CreatedAt = time.Now().UnixNano()
		record := sqlOperation{
			RefID:    op.RefID[:],
			Sequence: op.Sequence,
			Address:  op.Account.Bytes(),
			Amount:   op.Amount.String(),
			Kind:     uint8(op.Kind),
		}
		return tx.Create(&record).Error
	})
	if err != nil {
		return err
	}

	if v.notifier != nil {
		v.notifier.Notify(ctx, domain.Event{
			Kind:       domain.EventWithdrawalSucceeded,
			Account:    op.Account,
			Amount:     op.Amount,
			NewBalance: newBalance,
			At:         time.Now(),
		})
	}
	return nil
}

// recredit undoes the tentative debit of a withdrawal whose external
// transfer failed.
func (v *MySQLVault) recredit(ctx context.Context, op *domain.Operation) error {
	return v.client.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		state, err := lockState(tx)
		if err != nil {
			return err
		}

		var acct sqlAccount
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("address = ?", op.Account[:]).First(&acct).Error; err != nil {
			return err
		}
		balance, err := parseDec(acct.Balance)
		if err != nil {
			return err
		}
		if err := tx.Model(&sqlAccount{}).
			Where("address = ?", op.Account[:]).
			Update("balance", new(big.Int).Add(balance, op.Amount).String()).Error; err != nil {
			return err
		}

		held, err := parseDec(state.Held)
		if err != nil {
			return err
		}
		state.Held = new(big.Int).Add(held, op.Amount).String()
		return tx.Save(state).Error
	})
}

// BalanceOf reports the account's balance; unknown accounts read as zero.
func (v *MySQLVault) BalanceOf(ctx context.Context, account common.Address) (*big.Int, error) {
	var acct sqlAccount
	err := v.client.DB().WithContext(ctx).
		Where("address = ?", account[:]).First(&acct).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return new(big.Int), nil
	}
	if err != nil {
		return nil, err
	}
	return parseDec(acct.Balance)
}

// Stats reports the success counters from the state row.
func (v *MySQLVault) Stats(ctx context.Context) (usecase.Stats, error) {
	var state sqlVaultState
	if err := v.client.DB().WithContext(ctx).First(&state, stateRowID).Error; err != nil {
		return usecase.Stats{}, err
	}
	return usecase.Stats{
		DepositCount:    state.DepositCount,
		WithdrawalCount: state.WithdrawalCount,
	}, nil
}

// Cap is the fixed total capacity in wei.
func (v *MySQLVault) Cap() *big.Int {
	return new(big.Int).Set(v.bankCap)
}

// MaxWithdrawal is the fixed per-withdrawal ceiling in wei.
func (v *MySQLVault) MaxWithdrawal() *big.Int {
	return new(big.Int).Set(v.maxWithdrawal)
}

var _ usecase.Vault = (*MySQLVault)(nil)
