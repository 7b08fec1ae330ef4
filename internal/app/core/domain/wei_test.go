package domain

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEtherToWei(t *testing.T) {
	one, _ := new(big.Int).SetString("1000000000000000000", 10)
	assert.Equal(t, one, EtherToWei(1))

	fifty, _ := new(big.Int).SetString("50000000000000000000", 10)
	assert.Equal(t, fifty, EtherToWei(50))

	assert.Equal(t, 0, EtherToWei(0).Sign())
}

func TestParseWei(t *testing.T) {
	v, err := ParseWei("500000000000000000")
	require.NoError(t, err)
	assert.Equal(t, "500000000000000000", v.String())

	_, err = ParseWei("")
	assert.Error(t, err)

	_, err = ParseWei("12.5")
	assert.Error(t, err)

	_, err = ParseWei("-3")
	assert.Error(t, err)
}
