package testutil

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// ============================================================
// Receipt Builders
// ============================================================

// NewReceipt creates a test receipt with a specific status
func NewReceipt(txHash common.Hash, status uint64) *types.Receipt {
	return &types.Receipt{
		Status:            status,
		TxHash:            txHash,
		BlockNumber:       big.NewInt(12345678),
		BlockHash:         TestBlockHash,
		TransactionIndex:  0,
		GasUsed:           21000,
		CumulativeGasUsed: 21000,
	}
}

// NewSuccessReceipt creates a successful receipt for a transaction hash
func NewSuccessReceipt(txHash common.Hash) *types.Receipt {
	return NewReceipt(txHash, types.ReceiptStatusSuccessful)
}

// NewFailedReceipt creates a failed (reverted) receipt for a transaction hash
func NewFailedReceipt(txHash common.Hash) *types.Receipt {
	return NewReceipt(txHash, types.ReceiptStatusFailed)
}

// NewReceiptWithBlockNumber creates a receipt with a specific block number
func NewReceiptWithBlockNumber(txHash common.Hash, status uint64, blockNumber int64) *types.Receipt {
	receipt := NewReceipt(txHash, status)
	receipt.BlockNumber = big.NewInt(blockNumber)
	return receipt
}

// ============================================================
// Header Builders
// ============================================================

// NewHeader creates a test block header with the given unix timestamp
func NewHeader(blockNumber int64, unixTime uint64) *types.Header {
	return &types.Header{
		Number: big.NewInt(blockNumber),
		Time:   unixTime,
	}
}
