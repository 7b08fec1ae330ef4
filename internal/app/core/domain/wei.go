package domain

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/params"
)

// EtherToWei scales a whole-ether amount into wei. The bank cap is
// configured in ether and stored internally in wei.
func EtherToWei(ether uint64) *big.Int {
	return new(big.Int).Mul(new(big.Int).SetUint64(ether), big.NewInt(params.Ether))
}

// ParseWei parses a base-10 wei amount. Negative values are rejected.
func ParseWei(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("invalid wei amount %q", s)
	}
	if v.Sign() < 0 {
		return nil, fmt.Errorf("negative wei amount %q", s)
	}
	return v, nil
}
