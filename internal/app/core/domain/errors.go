package domain

import (
	"errors"
	"fmt"
	"math/big"
)

var (
	// ErrZeroDeposit rejects a deposit carrying no value.
	ErrZeroDeposit = errors.New("deposit amount must be greater than zero")

	// ErrZeroAmount rejects a non-positive withdrawal request.
	ErrZeroAmount = errors.New("amount must be positive")

	// ErrJournalWriteFailed signals that an accepted operation could not
	// be made durable and was rolled back.
	ErrJournalWriteFailed = errors.New("journal write failed")
)

// BankCapExceededError rejects a deposit that would push the total value
// held by the vault above its fixed capacity. The comparison is made
// against the post-acceptance total, so a deposit landing exactly at the
// cap is admitted.
type BankCapExceededError struct {
	Cap       *big.Int
	Held      *big.Int
	Requested *big.Int
}

func (e *BankCapExceededError) Error() string {
	return fmt.Sprintf("bank cap exceeded: cap=%s held=%s requested=%s", e.Cap, e.Held, e.Requested)
}

// InsufficientFundsError rejects a withdrawal larger than the caller's
// balance. Reported in preference to the ceiling check when both hold.
type InsufficientFundsError struct {
	Available *big.Int
	Requested *big.Int
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: available=%s requested=%s", e.Available, e.Requested)
}

// WithdrawalLimitExceededError rejects a withdrawal above the fixed
// per-transaction ceiling.
type WithdrawalLimitExceededError struct {
	Limit     *big.Int
	Requested *big.Int
}

func (e *WithdrawalLimitExceededError) Error() string {
	return fmt.Sprintf("withdrawal limit exceeded: limit=%s requested=%s", e.Limit, e.Requested)
}

// TransferFailedError reports that the external value transfer at the end
// of a withdrawal failed. The vault has already re-credited the debited
// amount by the time this error surfaces, so the failed call is
// balance-neutral.
type TransferFailedError struct {
	Cause error
}

func (e *TransferFailedError) Error() string {
	if e.Cause == nil {
		return "external transfer failed"
	}
	return fmt.Sprintf("external transfer failed: %v", e.Cause)
}

func (e *TransferFailedError) Unwrap() error {
	return e.Cause
}
