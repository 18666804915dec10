package anchorarmy

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// anchorABI is the fixed method invoked in contract mode. The payload is
// passed through untouched; the contract is responsible for interpreting it.
const anchorABI = `[{"inputs":[{"internalType":"bytes","name":"proof","type":"bytes"}],"name":"anchor","outputs":[],"stateMutability":"nonpayable","type":"function"}]`

// TxBuilder turns an anchor payload and the account's current nonce into an
// unsigned TxRequest. The builder has two static modes:
//
//   - raw mode (contract == nil): the payload rides in the data field of a
//     zero-value transfer the account sends to itself
//   - contract mode: the payload is the argument of a call to the anchor
//     method on the configured contract
//
// Mode is fixed at construction, never per call. Building has no side effect
// beyond the single nonce read.
type TxBuilder struct {
	contract *common.Address
	abi      abi.ABI
}

// NewTxBuilder creates a builder. Pass nil for raw data-carrying mode.
func NewTxBuilder(contract *common.Address) (*TxBuilder, error) {
	b := &TxBuilder{contract: contract}
	if contract != nil {
		parsed, err := abi.JSON(strings.NewReader(anchorABI))
		if err != nil {
			return nil, errors.Join(ErrConfiguration, fmt.Errorf("couldn't parse anchor contract abi: %w", err))
		}
		b.abi = parsed
	}
	return b, nil
}

// Build fetches the account's on-chain nonce once and assembles the request.
// Fee fields and gas limit stay zero; the FeeEstimator fills them per attempt.
func (b *TxBuilder) Build(ctx context.Context, signer Signer, payload []byte) (*TxRequest, error) {
	from := signer.Address()
	nonce, err := signer.NonceAt(ctx, from)
	if err != nil {
		return nil, errors.Join(ErrUnhandledTransport, fmt.Errorf("couldn't fetch account nonce: %w", err))
	}

	req := &TxRequest{
		From:  from,
		Nonce: nonce,
	}

	if b.contract == nil {
		to := from
		req.To = &to
		req.Data = payload
		return req, nil
	}

	data, err := b.abi.Pack("anchor", payload)
	if err != nil {
		return nil, errors.Join(ErrConfiguration, fmt.Errorf("couldn't encode anchor call: %w", err))
	}
	req.To = b.contract
	req.Data = data
	return req, nil
}
