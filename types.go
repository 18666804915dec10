package anchorarmy

import (
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Constants for the submission loop
const (
	DefaultMaxAttempts         = 3
	DefaultAttemptDelay        = 5 * time.Second
	DefaultConfirmations       = uint64(4)
	DefaultConfirmationTimeout = 5 * time.Minute
	DefaultReceiptInterval     = 5 * time.Second
)

// FormatCAIP2 renders a numeric chain id in the CAIP-2 form used on every
// AnchorTransaction, e.g. FormatCAIP2(big.NewInt(1)) == "eip155:1".
func FormatCAIP2(chainID *big.Int) string {
	return fmt.Sprintf("eip155:%s", chainID.String())
}

// TxRequest is the mutable transaction under construction for one logical
// submission. The nonce is fixed for the submission's entire lifetime while
// the fee fields are rewritten on every attempt.
//
// Exactly one of the two fee families is populated at a time:
// GasPrice for legacy pricing, GasFeeCap+GasTipCap for fee-market pricing.
type TxRequest struct {
	From     common.Address
	To       *common.Address
	Data     []byte
	Nonce    uint64
	GasLimit uint64

	GasPrice  *big.Int
	GasFeeCap *big.Int
	GasTipCap *big.Int
}

// Cost returns the worst-case spend of the request: gas limit times the
// maximum per-gas price of whichever fee family is populated.
func (r *TxRequest) Cost() *big.Int {
	perGas := r.GasPrice
	if r.GasFeeCap != nil {
		perGas = r.GasFeeCap
	}
	if perGas == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Mul(perGas, new(big.Int).SetUint64(r.GasLimit))
}

// TxResponse is the result of one broadcast, before any confirmation.
type TxResponse struct {
	Hash        common.Hash
	ChainID     *big.Int
	BlockNumber *big.Int
	BlockHash   *common.Hash
	From        common.Address
	Raw         []byte
}

// FeeEstimate is a snapshot of the network's fee suggestion. MaxFeePerGas and
// MaxPriorityFeePerGas are nil on networks that only report a single legacy
// gas price.
type FeeEstimate struct {
	GasPrice             *big.Int
	MaxFeePerGas         *big.Int
	MaxPriorityFeePerGas *big.Int
}

// Dynamic reports whether the estimate carries a fee-market (EIP-1559) split.
func (f *FeeEstimate) Dynamic() bool {
	return f.MaxFeePerGas != nil && f.MaxPriorityFeePerGas != nil
}

// AnchorTransaction is the final immutable artifact of a successful
// submission. It is only ever assembled from a receipt with success status.
type AnchorTransaction struct {
	ChainID        string    `json:"chain_id"`
	TxHash         string    `json:"tx_hash"`
	BlockNumber    uint64    `json:"block_number"`
	BlockTimestamp time.Time `json:"block_timestamp"`
}
