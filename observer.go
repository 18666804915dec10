package anchorarmy

import (
	"math/big"
	"time"

	"github.com/KyberNetwork/logger"
	"github.com/ethereum/go-ethereum/core/types"
)

// Observer receives telemetry at fixed points of a submission. Implementations
// must not block; the engine calls them inline on its retry loop.
type Observer interface {
	// TxRequest is emitted every attempt, after pricing and before broadcast.
	TxRequest(req *TxRequest)

	// TxResponse is emitted after each successful broadcast.
	TxResponse(resp *TxResponse)

	// TxReceipt is emitted when a receipt is observed, mined or reverted.
	TxReceipt(receipt *types.Receipt)

	// InsufficientFunds is emitted before the submission aborts because the
	// transaction cost exceeds the freshly queried wallet balance.
	InsufficientFunds(txCost, balance *big.Int)

	// TransactionTimeout is emitted when a confirmation wait expires, or
	// with a zero duration when the transport reported a timeout during
	// broadcast, before any confirmation deadline was running.
	TransactionTimeout(timeout time.Duration)

	// NonceExpired is emitted when the transport reports the submission's
	// nonce as already used.
	NonceExpired(nonce uint64)

	// WalletBalance is emitted before and after one full submission.
	WalletBalance(balance *big.Int)
}

// NopObserver discards all events.
type NopObserver struct{}

func (NopObserver) TxRequest(*TxRequest)             {}
func (NopObserver) TxResponse(*TxResponse)           {}
func (NopObserver) TxReceipt(*types.Receipt)         {}
func (NopObserver) InsufficientFunds(_, _ *big.Int)  {}
func (NopObserver) TransactionTimeout(time.Duration) {}
func (NopObserver) NonceExpired(uint64)              {}
func (NopObserver) WalletBalance(*big.Int)           {}

// LogObserver writes every event to the structured logger. It is the default
// observer of a new Engine.
type LogObserver struct{}

func (LogObserver) TxRequest(req *TxRequest) {
	fields := logger.Fields{
		"nonce":     req.Nonce,
		"gas_limit": req.GasLimit,
	}
	if req.To != nil {
		fields["to"] = req.To.Hex()
	}
	if req.GasPrice != nil {
		fields["gas_price"] = req.GasPrice.String()
	}
	if req.GasFeeCap != nil {
		fields["max_fee_per_gas"] = req.GasFeeCap.String()
		fields["max_priority_fee_per_gas"] = req.GasTipCap.String()
	}
	logger.WithFields(fields).Info("submitting anchor transaction")
}

func (LogObserver) TxResponse(resp *TxResponse) {
	fields := logger.Fields{
		"tx_hash": resp.Hash.Hex(),
		"from":    resp.From.Hex(),
	}
	if resp.BlockNumber != nil {
		fields["block_number"] = resp.BlockNumber.String()
	}
	if resp.BlockHash != nil {
		fields["block_hash"] = resp.BlockHash.Hex()
	}
	logger.WithFields(fields).Info("anchor transaction broadcast")
}

func (LogObserver) TxReceipt(receipt *types.Receipt) {
	logger.WithFields(logger.Fields{
		"tx_hash":      receipt.TxHash.Hex(),
		"status":       receipt.Status,
		"block_number": receipt.BlockNumber.String(),
		"block_hash":   receipt.BlockHash.Hex(),
	}).Info("anchor transaction receipt")
}

func (LogObserver) InsufficientFunds(txCost, balance *big.Int) {
	logger.WithFields(logger.Fields{
		"tx_cost": txCost.String(),
		"balance": balance.String(),
	}).Error("wallet cannot cover transaction cost")
}

func (LogObserver) TransactionTimeout(timeout time.Duration) {
	logger.WithFields(logger.Fields{
		"timeout_secs": timeout.Seconds(),
	}).Warn("transaction confirmation timed out")
}

func (LogObserver) NonceExpired(nonce uint64) {
	logger.WithFields(logger.Fields{
		"nonce": nonce,
	}).Warn("nonce reported as already used")
}

func (LogObserver) WalletBalance(balance *big.Int) {
	logger.WithFields(logger.Fields{
		"balance": balance.String(),
	}).Info("wallet balance")
}
