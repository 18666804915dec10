package anchorarmy

// Mock implementations live here rather than in testutil to avoid an import
// cycle: they implement interfaces defined by this package.

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/tranvictor/anchorarmy/testutil"
)

// waitResult is one scripted outcome of a WaitForReceipt call.
type waitResult struct {
	receipt *types.Receipt
	err     error
}

// mockSigner is a fully scriptable Signer. Fee estimates are consumed one
// per call with the last repeating; broadcast errors and hashes are consumed
// per broadcast; receipt waits pop a per-hash queue, with an exhausted or
// unscripted queue meaning "not mined in time".
type mockSigner struct {
	address common.Address
	chainID *big.Int

	nonce    uint64
	nonceErr error

	balance    *big.Int
	balanceErr error

	estimates   []*FeeEstimate
	estimateIdx int

	gasLimit uint64
	gasErr   error

	broadcastErrs []error
	hashes        []common.Hash
	respChainID   *big.Int

	headers map[common.Hash]*types.Header
	waits   map[common.Hash][]waitResult

	// call records
	nonceCalls    int
	broadcasts    []TxRequest
	waitedHashes  []common.Hash
	balanceCalls  int
	estimateCalls int
}

func newMockSigner() *mockSigner {
	return &mockSigner{
		address: testutil.TestAddr1,
		chainID: testutil.ChainIDMainnet,
		balance: testutil.OneEth,
		headers: make(map[common.Hash]*types.Header),
		waits:   make(map[common.Hash][]waitResult),
	}
}

// scriptWait appends one outcome to the hash's wait queue.
func (m *mockSigner) scriptWait(hash common.Hash, receipt *types.Receipt, err error) {
	m.waits[hash] = append(m.waits[hash], waitResult{receipt: receipt, err: err})
}

func (m *mockSigner) Address() common.Address {
	return m.address
}

func (m *mockSigner) ChainID(_ context.Context) (*big.Int, error) {
	return m.chainID, nil
}

func (m *mockSigner) NonceAt(_ context.Context, _ common.Address) (uint64, error) {
	m.nonceCalls++
	if m.nonceErr != nil {
		return 0, m.nonceErr
	}
	return m.nonce, nil
}

func (m *mockSigner) BalanceAt(_ context.Context, _ common.Address) (*big.Int, error) {
	m.balanceCalls++
	if m.balanceErr != nil {
		return nil, m.balanceErr
	}
	return m.balance, nil
}

func (m *mockSigner) FeeEstimate(_ context.Context) (*FeeEstimate, error) {
	m.estimateCalls++
	if len(m.estimates) == 0 {
		return &FeeEstimate{GasPrice: big.NewInt(100)}, nil
	}
	est := m.estimates[m.estimateIdx]
	if m.estimateIdx < len(m.estimates)-1 {
		m.estimateIdx++
	}
	return est, nil
}

func (m *mockSigner) EstimateGas(_ context.Context, _ *TxRequest) (uint64, error) {
	if m.gasErr != nil {
		return 0, m.gasErr
	}
	if m.gasLimit == 0 {
		return 21000, nil
	}
	return m.gasLimit, nil
}

func (m *mockSigner) Broadcast(_ context.Context, req *TxRequest) (*TxResponse, error) {
	idx := len(m.broadcasts)
	m.broadcasts = append(m.broadcasts, *req)

	if idx < len(m.broadcastErrs) && m.broadcastErrs[idx] != nil {
		return nil, ClassifyTransportError(m.broadcastErrs[idx])
	}

	hash := common.BigToHash(big.NewInt(int64(idx + 1)))
	if idx < len(m.hashes) {
		hash = m.hashes[idx]
	}
	respChainID := m.chainID
	if m.respChainID != nil {
		respChainID = m.respChainID
	}
	return &TxResponse{
		Hash:    hash,
		ChainID: respChainID,
		From:    m.address,
	}, nil
}

func (m *mockSigner) WaitForReceipt(_ context.Context, hash common.Hash, _ uint64, _ time.Duration) (*types.Receipt, error) {
	m.waitedHashes = append(m.waitedHashes, hash)
	queue := m.waits[hash]
	if len(queue) == 0 {
		return nil, nil
	}
	res := queue[0]
	m.waits[hash] = queue[1:]
	return res.receipt, res.err
}

func (m *mockSigner) HeaderByHash(_ context.Context, hash common.Hash) (*types.Header, error) {
	if header, ok := m.headers[hash]; ok {
		return header, nil
	}
	return testutil.NewHeader(12345678, 1700000000), nil
}

// recordingObserver captures every event for assertions.
type recordingObserver struct {
	requests  []TxRequest
	responses []TxResponse
	receipts  []*types.Receipt

	insufficientCosts    []*big.Int
	insufficientBalances []*big.Int
	timeouts             []time.Duration
	expiredNonces        []uint64
	balances             []*big.Int
}

func (o *recordingObserver) TxRequest(req *TxRequest) {
	o.requests = append(o.requests, *req)
}

func (o *recordingObserver) TxResponse(resp *TxResponse) {
	o.responses = append(o.responses, *resp)
}

func (o *recordingObserver) TxReceipt(receipt *types.Receipt) {
	o.receipts = append(o.receipts, receipt)
}

func (o *recordingObserver) InsufficientFunds(txCost, balance *big.Int) {
	o.insufficientCosts = append(o.insufficientCosts, txCost)
	o.insufficientBalances = append(o.insufficientBalances, balance)
}

func (o *recordingObserver) TransactionTimeout(timeout time.Duration) {
	o.timeouts = append(o.timeouts, timeout)
}

func (o *recordingObserver) NonceExpired(nonce uint64) {
	o.expiredNonces = append(o.expiredNonces, nonce)
}

func (o *recordingObserver) WalletBalance(balance *big.Int) {
	o.balances = append(o.balances, balance)
}
