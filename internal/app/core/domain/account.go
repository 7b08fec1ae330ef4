package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Account is one vault entry: an Ethereum address and the wei it holds.
// A missing account and an account with a zero balance are equivalent;
// accounts are created implicitly on first credit and never deleted.
type Account struct {
	Address common.Address
	Balance *big.Int
}

func NewAccount(address common.Address) *Account {
	return &Account{
		Address: address,
		Balance: new(big.Int),
	}
}

// Credit adds amount to the balance. Amount must be positive.
func (a *Account) Credit(amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrZeroDeposit
	}
	a.Balance = new(big.Int).Add(a.Balance, amount)
	return nil
}

// Debit removes amount from the balance. The balance can never go
// negative; a debit beyond the available funds is rejected whole.
func (a *Account) Debit(amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrZeroAmount
	}
	if a.Balance.Cmp(amount) < 0 {
		return &InsufficientFundsError{
			Available: new(big.Int).Set(a.Balance),
			Requested: new(big.Int).Set(amount),
		}
	}
	a.Balance = new(big.Int).Sub(a.Balance, amount)
	return nil
}
