package anchorarmy

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/KyberNetwork/logger"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/tranvictor/anchorarmy/internal/circuitbreaker"
)

// ClientSigner is the default Signer: a JSON-RPC endpoint plus a local
// signing key. Every discrete RPC call runs through a circuit breaker so a
// dead endpoint fails fast instead of stalling the submission loop on each
// attempt.
type ClientSigner struct {
	client  *ethclient.Client
	key     *ecdsa.PrivateKey
	address common.Address
	chainID *big.Int

	breaker         *circuitbreaker.Breaker
	receiptInterval time.Duration
}

// ClientSignerOption configures a ClientSigner.
type ClientSignerOption func(*ClientSigner)

// WithReceiptInterval sets the polling interval of WaitForReceipt.
func WithReceiptInterval(d time.Duration) ClientSignerOption {
	return func(s *ClientSigner) { s.receiptInterval = d }
}

// WithBreakerConfig replaces the default circuit breaker configuration.
func WithBreakerConfig(cfg circuitbreaker.Config) ClientSignerOption {
	return func(s *ClientSigner) { s.breaker = circuitbreaker.New(cfg) }
}

// NewClientSigner dials the endpoint and derives the signing address from
// the key. The chain id is fetched eagerly; an unreachable endpoint is a
// configuration error.
func NewClientSigner(ctx context.Context, rpcURL string, key *ecdsa.PrivateKey, opts ...ClientSignerOption) (*ClientSigner, error) {
	if key == nil {
		return nil, errors.Join(ErrConfiguration, fmt.Errorf("signing key is required"))
	}

	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, errors.Join(ErrConfiguration, fmt.Errorf("couldn't dial %s: %w", rpcURL, err))
	}

	s := &ClientSigner{
		client:          client,
		key:             key,
		address:         crypto.PubkeyToAddress(key.PublicKey),
		breaker:         circuitbreaker.New(circuitbreaker.DefaultConfig()),
		receiptInterval: DefaultReceiptInterval,
	}
	for _, opt := range opts {
		opt(s)
	}

	chainID, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		return nil, errors.Join(ErrConfiguration, fmt.Errorf("couldn't query chain id from %s: %w", rpcURL, err))
	}
	s.chainID = chainID
	return s, nil
}

// Close releases the underlying RPC connection.
func (s *ClientSigner) Close() {
	s.client.Close()
}

// Address returns the signing account's address.
func (s *ClientSigner) Address() common.Address {
	return s.address
}

// ChainID returns the chain id fetched at dial time.
func (s *ClientSigner) ChainID(_ context.Context) (*big.Int, error) {
	return s.chainID, nil
}

// NonceAt returns the address's nonce at the latest block.
func (s *ClientSigner) NonceAt(ctx context.Context, addr common.Address) (uint64, error) {
	var nonce uint64
	err := s.breaker.Do(func() error {
		var inner error
		nonce, inner = s.client.NonceAt(ctx, addr, nil)
		return inner
	})
	return nonce, err
}

// BalanceAt returns the address's balance at the latest block.
func (s *ClientSigner) BalanceAt(ctx context.Context, addr common.Address) (*big.Int, error) {
	var balance *big.Int
	err := s.breaker.Do(func() error {
		var inner error
		balance, inner = s.client.BalanceAt(ctx, addr, nil)
		return inner
	})
	return balance, err
}

// FeeEstimate queries the node's fee suggestion. On networks whose head
// block carries a base fee the estimate is fee-market shaped, with the max
// fee built as twice the base fee plus the suggested tip; otherwise only the
// legacy gas price is filled.
func (s *ClientSigner) FeeEstimate(ctx context.Context) (*FeeEstimate, error) {
	est := &FeeEstimate{}
	err := s.breaker.Do(func() error {
		gasPrice, inner := s.client.SuggestGasPrice(ctx)
		if inner != nil {
			return inner
		}
		est.GasPrice = gasPrice

		head, inner := s.client.HeaderByNumber(ctx, nil)
		if inner != nil {
			return inner
		}
		if head.BaseFee == nil {
			return nil
		}

		tip, inner := s.client.SuggestGasTipCap(ctx)
		if inner != nil {
			// node advertises a base fee but not eth_maxPriorityFeePerGas,
			// fall back to legacy pricing
			logger.WithFields(logger.Fields{
				"error": inner,
			}).Debug("no tip cap suggestion, using legacy gas price")
			return nil
		}
		est.MaxPriorityFeePerGas = tip
		est.MaxFeePerGas = new(big.Int).Add(new(big.Int).Mul(head.BaseFee, big.NewInt(2)), tip)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return est, nil
}

// EstimateGas estimates the gas limit for the fully priced request.
func (s *ClientSigner) EstimateGas(ctx context.Context, req *TxRequest) (uint64, error) {
	msg := ethereum.CallMsg{
		From:      req.From,
		To:        req.To,
		Data:      req.Data,
		GasPrice:  req.GasPrice,
		GasFeeCap: req.GasFeeCap,
		GasTipCap: req.GasTipCap,
	}
	var gas uint64
	err := s.breaker.Do(func() error {
		var inner error
		gas, inner = s.client.EstimateGas(ctx, msg)
		return inner
	})
	return gas, err
}

// Broadcast signs the request with the local key and submits it. Errors come
// back classified.
func (s *ClientSigner) Broadcast(ctx context.Context, req *TxRequest) (*TxResponse, error) {
	signedTx, err := s.sign(req)
	if err != nil {
		return nil, err
	}

	err = s.breaker.Do(func() error {
		return s.client.SendTransaction(ctx, signedTx)
	})
	if err != nil {
		return nil, ClassifyTransportError(err)
	}

	raw, err := signedTx.MarshalBinary()
	if err != nil {
		raw = nil
		logger.WithFields(logger.Fields{
			"tx_hash": signedTx.Hash().Hex(),
			"error":   err,
		}).Debug("couldn't encode broadcast transaction")
	}

	return &TxResponse{
		Hash:    signedTx.Hash(),
		ChainID: s.chainID,
		From:    s.address,
		Raw:     raw,
	}, nil
}

// sign assembles the concrete transaction type from whichever fee family the
// request carries.
func (s *ClientSigner) sign(req *TxRequest) (*types.Transaction, error) {
	var txdata types.TxData
	if req.GasFeeCap != nil {
		txdata = &types.DynamicFeeTx{
			ChainID:   s.chainID,
			Nonce:     req.Nonce,
			GasTipCap: req.GasTipCap,
			GasFeeCap: req.GasFeeCap,
			Gas:       req.GasLimit,
			To:        req.To,
			Data:      req.Data,
		}
	} else {
		txdata = &types.LegacyTx{
			Nonce:    req.Nonce,
			GasPrice: req.GasPrice,
			Gas:      req.GasLimit,
			To:       req.To,
			Data:     req.Data,
		}
	}
	signedTx, err := types.SignNewTx(s.key, types.LatestSignerForChainID(s.chainID), txdata)
	if err != nil {
		return nil, errors.Join(ErrConfiguration, fmt.Errorf("couldn't sign transaction: %w", err))
	}
	return signedTx, nil
}

// confirmedAtDepth reports whether a transaction mined in block mined has at
// least confirmations blocks atop it at head.
func confirmedAtDepth(head, mined, confirmations uint64) bool {
	return head >= mined+confirmations
}

// WaitForReceipt polls for the receipt until it is buried under the
// requested number of confirmations or the timeout elapses. A missing
// receipt at the deadline returns (nil, nil); transient lookup failures are
// retried on the next tick rather than surfaced.
func (s *ClientSigner) WaitForReceipt(ctx context.Context, hash common.Hash, confirmations uint64, timeout time.Duration) (*types.Receipt, error) {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(s.receiptInterval)
	defer ticker.Stop()

	for {
		receipt, err := s.client.TransactionReceipt(ctx, hash)
		switch {
		case err == nil:
			head, headErr := s.client.BlockNumber(ctx)
			if headErr == nil && confirmedAtDepth(head, receipt.BlockNumber.Uint64(), confirmations) {
				return receipt, nil
			}
		case !errors.Is(err, ethereum.NotFound):
			logger.WithFields(logger.Fields{
				"tx_hash": hash.Hex(),
				"error":   err,
			}).Debug("receipt lookup failed, retrying on next tick")
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline.C:
			return nil, nil
		case <-ticker.C:
		}
	}
}

// HeaderByHash returns the header of the block with the given hash.
func (s *ClientSigner) HeaderByHash(ctx context.Context, hash common.Hash) (*types.Header, error) {
	var header *types.Header
	err := s.breaker.Do(func() error {
		var inner error
		header, inner = s.client.HeaderByHash(ctx, hash)
		return inner
	})
	return header, err
}
