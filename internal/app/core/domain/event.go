package domain

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// EventKind names an externally observable vault notification.
type EventKind string

const (
	EventDepositSucceeded    EventKind = "deposit.succeeded"
	EventWithdrawalSucceeded EventKind = "withdrawal.succeeded"
)

// Event is emitted exactly once per successful deposit or withdrawal,
// after all state mutation for the operation is finalized. Events are
// append-only observability output; nothing inside the vault consumes
// them.
type Event struct {
	Kind       EventKind      `json:"kind"`
	Account    common.Address `json:"account"`
	Amount     *big.Int       `json:"amount"`
	NewBalance *big.Int       `json:"new_balance"`
	At         time.Time      `json:"at"`
}
