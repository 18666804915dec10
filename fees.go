package anchorarmy

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/KyberNetwork/logger"
)

var ten = big.NewInt(10)

// pad adds the 10% safety margin: pad(x) = x + floor(x/10), in the chain's
// smallest fee unit.
func pad(x *big.Int) *big.Int {
	return new(big.Int).Add(x, new(big.Int).Div(x, ten))
}

// bigMax returns the larger of a and b, treating nil as negative infinity.
func bigMax(a, b *big.Int) *big.Int {
	if a == nil {
		return b
	}
	if b == nil || a.Cmp(b) >= 0 {
		return a
	}
	return b
}

// FeeEstimator prices the request for each attempt. It guarantees every
// attempt pays at least the current network estimate and at least 10% more
// than the previous attempt, padded by a further 10% so retries keep clearing
// the mempool's replacement threshold.
type FeeEstimator struct {
	signer Signer

	// gasOverride, when selected, is used as the gas limit unconditionally
	// instead of live estimation.
	gasOverride    uint64
	useGasOverride bool
}

// NewFeeEstimator creates an estimator over the given signer.
func NewFeeEstimator(signer Signer) *FeeEstimator {
	return &FeeEstimator{signer: signer}
}

// SetGasOverride switches the estimator into fixed-gas-limit mode.
func (f *FeeEstimator) SetGasOverride(gasLimit uint64) {
	f.gasOverride = gasLimit
	f.useGasOverride = true
}

// Reprice rewrites the request's fee fields for the next attempt. The fields
// already on the request are read as the previous attempt's prices; on the
// first attempt they are nil and only the network estimate matters.
//
// Fee-market estimates take the EIP-1559 path: the base fee is recovered from
// the estimate (max fee minus priority fee) and the safety buffer is rebuilt
// from that live base fee rather than reusing the previous attempt's buffer.
// Single-price estimates take the legacy path.
func (f *FeeEstimator) Reprice(ctx context.Context, req *TxRequest) error {
	est, err := f.signer.FeeEstimate(ctx)
	if err != nil {
		return errors.Join(ErrUnhandledTransport, fmt.Errorf("couldn't fetch fee estimate: %w", err))
	}

	if est.Dynamic() {
		baseFee := new(big.Int).Sub(est.MaxFeePerGas, est.MaxPriorityFeePerGas)
		nextTip := pad(bigMax(est.MaxPriorityFeePerGas, req.GasTipCap))
		nextMaxFee := pad(new(big.Int).Add(baseFee, nextTip))

		req.GasTipCap = nextTip
		req.GasFeeCap = nextMaxFee
		req.GasPrice = nil

		logger.WithFields(logger.Fields{
			"nonce":                    req.Nonce,
			"base_fee":                 baseFee.String(),
			"max_fee_per_gas":          nextMaxFee.String(),
			"max_priority_fee_per_gas": nextTip.String(),
		}).Debug("repriced request with fee-market estimate")
	} else {
		if est.GasPrice == nil {
			return errors.Join(ErrUnhandledTransport, fmt.Errorf("fee estimate carries neither legacy nor fee-market prices"))
		}
		next := pad(bigMax(est.GasPrice, req.GasPrice))

		req.GasPrice = next
		req.GasFeeCap = nil
		req.GasTipCap = nil

		logger.WithFields(logger.Fields{
			"nonce":     req.Nonce,
			"gas_price": next.String(),
		}).Debug("repriced request with legacy estimate")
	}

	return f.setGasLimit(ctx, req)
}

// setGasLimit fills the gas limit: the configured override when selected,
// otherwise a live estimate against the fully priced request.
func (f *FeeEstimator) setGasLimit(ctx context.Context, req *TxRequest) error {
	if f.useGasOverride {
		req.GasLimit = f.gasOverride
		return nil
	}
	gas, err := f.signer.EstimateGas(ctx, req)
	if err != nil {
		return errors.Join(ErrUnhandledTransport, fmt.Errorf("couldn't estimate gas: %w", err))
	}
	req.GasLimit = gas
	return nil
}
