package usecase

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethvault/go-vault-ledger/internal/app/core/domain"
)

// recordingVault captures the operations handed to it.
type recordingVault struct {
	ops []*domain.Operation
}

func (r *recordingVault) Deposit(ctx context.Context, op *domain.Operation) error {
	r.ops = append(r.ops, op)
	return nil
}

func (r *recordingVault) Withdraw(ctx context.Context, op *domain.Operation) error {
	r.ops = append(r.ops, op)
	return nil
}

func (r *recordingVault) BalanceOf(ctx context.Context, account common.Address) (*big.Int, error) {
	return new(big.Int), nil
}

func (r *recordingVault) Stats(ctx context.Context) (Stats, error) {
	return Stats{}, nil
}

func (r *recordingVault) Cap() *big.Int {
	return big.NewInt(100)
}

func (r *recordingVault) MaxWithdrawal() *big.Int {
	return big.NewInt(10)
}

func TestBankAssignsRefIDWhenMissing(t *testing.T) {
	v := &recordingVault{}
	bank := NewBankUseCase(v, common.Address{})

	account := common.HexToAddress("0xa1")
	require.NoError(t, bank.Deposit(context.Background(), uuid.Nil, account, big.NewInt(5)))
	require.NoError(t, bank.Withdraw(context.Background(), uuid.Nil, account, big.NewInt(5)))

	require.Len(t, v.ops, 2)
	assert.NotEqual(t, uuid.Nil, v.ops[0].RefID)
	assert.NotEqual(t, uuid.Nil, v.ops[1].RefID)
	assert.Equal(t, domain.OpDeposit, v.ops[0].Kind)
	assert.Equal(t, domain.OpWithdrawal, v.ops[1].Kind)
}

func TestBankPreservesCallerRefID(t *testing.T) {
	v := &recordingVault{}
	bank := NewBankUseCase(v, common.Address{})

	ref := uuid.New()
	require.NoError(t, bank.Deposit(context.Background(), ref, common.HexToAddress("0xa1"), big.NewInt(5)))

	require.Len(t, v.ops, 1)
	assert.Equal(t, ref, v.ops[0].RefID)
}

func TestBankExposesLimitsAndOwner(t *testing.T) {
	owner := common.HexToAddress("0xdead")
	bank := NewBankUseCase(&recordingVault{}, owner)

	assert.Equal(t, big.NewInt(100), bank.Cap())
	assert.Equal(t, big.NewInt(10), bank.MaxWithdrawal())
	assert.Equal(t, owner, bank.Owner())
}
