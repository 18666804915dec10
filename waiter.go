package anchorarmy

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// ConfirmationWaiter blocks until a broadcast transaction is buried under the
// required confirmation depth, then assembles the final AnchorTransaction
// from the receipt and the containing block's timestamp.
type ConfirmationWaiter struct {
	signer        Signer
	chainID       *big.Int
	confirmations uint64
	timeout       time.Duration
}

// NewConfirmationWaiter creates a waiter bound to the chain id cached at
// connect time.
func NewConfirmationWaiter(signer Signer, chainID *big.Int, confirmations uint64, timeout time.Duration) *ConfirmationWaiter {
	return &ConfirmationWaiter{
		signer:        signer,
		chainID:       chainID,
		confirmations: confirmations,
		timeout:       timeout,
	}
}

// Timeout returns the configured confirmation deadline.
func (w *ConfirmationWaiter) Timeout() time.Duration {
	return w.timeout
}

// Wait blocks until the transaction is confirmed or the timeout elapses.
//
// A missing receipt yields ErrConfirmationTimeout (retryable). A receipt with
// failure status yields ErrMinedFailure together with the receipt so callers
// can still report it. On success the AnchorTransaction is returned along
// with the receipt it was assembled from.
func (w *ConfirmationWaiter) Wait(ctx context.Context, hash common.Hash) (*AnchorTransaction, *types.Receipt, error) {
	receipt, err := w.signer.WaitForReceipt(ctx, hash, w.confirmations, w.timeout)
	if err != nil {
		return nil, nil, ClassifyTransportError(err)
	}
	if receipt == nil {
		return nil, nil, errors.Join(ErrConfirmationTimeout,
			fmt.Errorf("no receipt for %s within %s", hash.Hex(), w.timeout))
	}

	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, receipt, errors.Join(ErrMinedFailure,
			fmt.Errorf("transaction %s mined in block %s with failure status", hash.Hex(), receipt.BlockNumber))
	}

	header, err := w.signer.HeaderByHash(ctx, receipt.BlockHash)
	if err != nil {
		return nil, receipt, errors.Join(ErrUnhandledTransport,
			fmt.Errorf("couldn't fetch block %s for timestamp: %w", receipt.BlockHash.Hex(), err))
	}

	return &AnchorTransaction{
		ChainID:        FormatCAIP2(w.chainID),
		TxHash:         receipt.TxHash.Hex(),
		BlockNumber:    receipt.BlockNumber.Uint64(),
		BlockTimestamp: time.Unix(int64(header.Time), 0).UTC(),
	}, receipt, nil
}
