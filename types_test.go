package anchorarmy

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatCAIP2(t *testing.T) {
	tests := []struct {
		chainID  int64
		expected string
	}{
		{1, "eip155:1"},
		{5, "eip155:5"},
		{42161, "eip155:42161"},
		{11155111, "eip155:11155111"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, FormatCAIP2(big.NewInt(tt.chainID)))
	}
}

func TestTxRequest_Cost(t *testing.T) {
	t.Run("legacy pricing", func(t *testing.T) {
		req := &TxRequest{GasLimit: 21000, GasPrice: big.NewInt(100)}
		assert.Equal(t, int64(2100000), req.Cost().Int64())
	})

	t.Run("fee-market pricing uses the fee cap", func(t *testing.T) {
		req := &TxRequest{
			GasLimit:  21000,
			GasFeeCap: big.NewInt(200),
			GasTipCap: big.NewInt(10),
		}
		assert.Equal(t, int64(4200000), req.Cost().Int64())
	})

	t.Run("fee cap wins when both families are set", func(t *testing.T) {
		req := &TxRequest{
			GasLimit:  1000,
			GasPrice:  big.NewInt(50),
			GasFeeCap: big.NewInt(80),
		}
		assert.Equal(t, int64(80000), req.Cost().Int64())
	})

	t.Run("unpriced request costs zero", func(t *testing.T) {
		req := &TxRequest{GasLimit: 21000}
		assert.Equal(t, int64(0), req.Cost().Int64())
	})
}

func TestFeeEstimate_Dynamic(t *testing.T) {
	assert.False(t, (&FeeEstimate{GasPrice: big.NewInt(1)}).Dynamic())
	assert.False(t, (&FeeEstimate{MaxFeePerGas: big.NewInt(1)}).Dynamic())
	assert.True(t, (&FeeEstimate{
		MaxFeePerGas:         big.NewInt(2),
		MaxPriorityFeePerGas: big.NewInt(1),
	}).Dynamic())
}
