package anchorarmy

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Signer is the capability the engine consumes for everything that touches
// the chain: reads, fee queries, broadcasting and receipt waits. Key
// management and endpoint bootstrap live behind it; the engine never sees
// private keys or raw RPC plumbing.
//
// Broadcast must return errors already run through ClassifyTransportError so
// the engine can branch on the classified set without inspecting transport
// messages.
//
// WaitForReceipt returns (nil, nil) when the transaction is not yet mined to
// the requested depth within the timeout.
type Signer interface {
	// Address returns the signing account's address.
	Address() common.Address

	// ChainID returns the connected network's chain id. The engine queries
	// it once at connect time and caches it for its lifetime.
	ChainID(ctx context.Context) (*big.Int, error)

	// NonceAt returns the current on-chain nonce for the address.
	NonceAt(ctx context.Context, addr common.Address) (uint64, error)

	// BalanceAt returns the current wallet balance in the chain's smallest
	// fee unit.
	BalanceAt(ctx context.Context, addr common.Address) (*big.Int, error)

	// FeeEstimate returns the network's current fee suggestion.
	FeeEstimate(ctx context.Context) (*FeeEstimate, error)

	// EstimateGas estimates the gas limit for the fully priced request.
	EstimateGas(ctx context.Context, req *TxRequest) (uint64, error)

	// Broadcast signs and submits the request to the network.
	Broadcast(ctx context.Context, req *TxRequest) (*TxResponse, error)

	// WaitForReceipt blocks until the transaction has a receipt buried under
	// at least confirmations blocks, or the timeout elapses.
	WaitForReceipt(ctx context.Context, hash common.Hash, confirmations uint64, timeout time.Duration) (*types.Receipt, error)

	// HeaderByHash returns the header of the block with the given hash.
	HeaderByHash(ctx context.Context, hash common.Hash) (*types.Header, error)
}
