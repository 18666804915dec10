package anchorarmy

import (
	"context"
	"fmt"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPad(t *testing.T) {
	tests := []struct {
		in       int64
		expected int64
	}{
		{0, 0},
		{9, 9},
		{10, 11},
		{15, 16},
		{100, 110},
		{110, 121},
		{121, 133},
		{1000000000, 1100000000},
	}

	for _, tt := range tests {
		got := pad(big.NewInt(tt.in))
		assert.Equal(t, tt.expected, got.Int64(), "pad(%d)", tt.in)
	}
}

func TestBigMax(t *testing.T) {
	a := big.NewInt(5)
	b := big.NewInt(7)

	assert.Equal(t, b, bigMax(a, b))
	assert.Equal(t, b, bigMax(b, a))
	assert.Equal(t, a, bigMax(a, nil))
	assert.Equal(t, b, bigMax(nil, b))
	assert.Nil(t, bigMax(nil, nil))
}

func TestReprice_Legacy(t *testing.T) {
	signer := newMockSigner()
	signer.estimates = []*FeeEstimate{{GasPrice: big.NewInt(100)}}
	estimator := NewFeeEstimator(signer)

	req := &TxRequest{From: signer.address}

	t.Run("first attempt pads the network estimate", func(t *testing.T) {
		require.NoError(t, estimator.Reprice(context.Background(), req))
		assert.Equal(t, int64(110), req.GasPrice.Int64())
		assert.Nil(t, req.GasFeeCap)
		assert.Nil(t, req.GasTipCap)
		assert.Equal(t, uint64(21000), req.GasLimit)
	})

	t.Run("later attempts escalate over the previous price", func(t *testing.T) {
		require.NoError(t, estimator.Reprice(context.Background(), req))
		assert.Equal(t, int64(121), req.GasPrice.Int64())

		require.NoError(t, estimator.Reprice(context.Background(), req))
		assert.Equal(t, int64(133), req.GasPrice.Int64())
	})

	t.Run("a fee spike wins over the previous price", func(t *testing.T) {
		signer.estimates = []*FeeEstimate{{GasPrice: big.NewInt(500)}}
		signer.estimateIdx = 0

		require.NoError(t, estimator.Reprice(context.Background(), req))
		assert.Equal(t, int64(550), req.GasPrice.Int64())
	})
}

func TestReprice_FeeMarket(t *testing.T) {
	signer := newMockSigner()
	signer.estimates = []*FeeEstimate{{
		GasPrice:             big.NewInt(2000),
		MaxFeePerGas:         big.NewInt(2000),
		MaxPriorityFeePerGas: big.NewInt(100),
	}}
	estimator := NewFeeEstimator(signer)

	req := &TxRequest{From: signer.address}

	t.Run("rebuilds the max fee from the live base fee", func(t *testing.T) {
		require.NoError(t, estimator.Reprice(context.Background(), req))
		// base fee 1900, tip pad(100) = 110, max fee pad(1900+110) = 2211
		assert.Equal(t, int64(110), req.GasTipCap.Int64())
		assert.Equal(t, int64(2211), req.GasFeeCap.Int64())
		assert.Nil(t, req.GasPrice)
	})

	t.Run("escalates the tip over the previous attempt", func(t *testing.T) {
		req.GasTipCap = big.NewInt(200)

		require.NoError(t, estimator.Reprice(context.Background(), req))
		assert.Equal(t, int64(220), req.GasTipCap.Int64())
		assert.Equal(t, int64(2332), req.GasFeeCap.Int64())
	})

	t.Run("switching from legacy clears the gas price", func(t *testing.T) {
		req.GasPrice = big.NewInt(42)

		require.NoError(t, estimator.Reprice(context.Background(), req))
		assert.Nil(t, req.GasPrice)
		assert.NotNil(t, req.GasFeeCap)
	})
}

func TestReprice_EscalationProperty(t *testing.T) {
	// every repricing must pay strictly more than the previous attempt
	signer := newMockSigner()
	signer.estimates = []*FeeEstimate{{GasPrice: big.NewInt(100)}}
	estimator := NewFeeEstimator(signer)

	req := &TxRequest{From: signer.address}
	prev := big.NewInt(0)
	for i := 0; i < 10; i++ {
		require.NoError(t, estimator.Reprice(context.Background(), req))
		assert.True(t, req.GasPrice.Cmp(prev) > 0, "attempt %d: %s should exceed %s", i, req.GasPrice, prev)
		prev = req.GasPrice
	}
}

func TestReprice_GasOverride(t *testing.T) {
	signer := newMockSigner()
	signer.gasErr = fmt.Errorf("estimation must not be called")
	estimator := NewFeeEstimator(signer)
	estimator.SetGasOverride(500000)

	req := &TxRequest{From: signer.address}
	require.NoError(t, estimator.Reprice(context.Background(), req))
	assert.Equal(t, uint64(500000), req.GasLimit)
}

func TestReprice_EstimateFailure(t *testing.T) {
	t.Run("estimate with no prices at all", func(t *testing.T) {
		signer := newMockSigner()
		signer.estimates = []*FeeEstimate{{}}
		estimator := NewFeeEstimator(signer)

		req := &TxRequest{From: signer.address}
		err := estimator.Reprice(context.Background(), req)
		assert.ErrorIs(t, err, ErrUnhandledTransport)
	})

	t.Run("gas estimation failure", func(t *testing.T) {
		signer := newMockSigner()
		signer.gasErr = fmt.Errorf("execution reverted")
		estimator := NewFeeEstimator(signer)

		req := &TxRequest{From: signer.address}
		err := estimator.Reprice(context.Background(), req)
		assert.ErrorIs(t, err, ErrUnhandledTransport)
	})
}
