package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
)

// OperationKind tags a journaled vault operation.
type OperationKind uint8

const (
	OpDeposit    OperationKind = 1
	OpWithdrawal OperationKind = 2
)

func (k OperationKind) String() string {
	switch k {
	case OpDeposit:
		return "deposit"
	case OpWithdrawal:
		return "withdrawal"
	default:
		return "unknown"
	}
}

// Operation is one state-changing request against the vault. Successful
// operations are appended to the journal in sequence order and replayed on
// recovery; failed operations are never journaled.
type Operation struct {
	// Sequence is assigned by the vault when the operation commits
	// (1, 2, 3...). Zero until then.
	Sequence uint64 `json:"seq"`
	// Account is the vault entry being credited or debited.
	Account common.Address `json:"account"`
	// Amount in wei. Always positive.
	Amount *big.Int `json:"amount"`
	// CreatedAt is the commit time in unix nanoseconds.
	CreatedAt int64 `json:"created_at"`
	// RefID is the caller-supplied tracking ID. Replays of an already
	// committed RefID succeed without applying anything.
	RefID uuid.UUID     `json:"ref_id"`
	Kind  OperationKind `json:"kind"`
}

// NewDeposit builds a deposit operation for account carrying amount wei.
func NewDeposit(refID uuid.UUID, account common.Address, amount *big.Int) *Operation {
	return &Operation{
		Account: account,
		Amount:  amount,
		RefID:   refID,
		Kind:    OpDeposit,
	}
}

// NewWithdrawal builds a withdrawal operation moving amount wei out of
// account.
func NewWithdrawal(refID uuid.UUID, account common.Address, amount *big.Int) *Operation {
	return &Operation{
		Account: account,
		Amount:  amount,
		RefID:   refID,
		Kind:    OpWithdrawal,
	}
}
