package anchorarmy

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/KyberNetwork/logger"
	"github.com/ethereum/go-ethereum/common"

	"github.com/tranvictor/anchorarmy/internal/attempts"
)

// Engine drives one anchor payload from bytes to a confirmed on-chain
// transaction. It prices each attempt against live fee conditions, broadcasts
// through the Signer, waits for confirmation and recovers from nonce
// conflicts caused by its own earlier retries.
//
// Attempts within one Submit run strictly sequentially. The account nonce is
// the only externally shared state: the caller must serialize Submit calls
// for the same signing account, while engines over different accounts are
// free to run concurrently.
type Engine struct {
	signer   Signer
	observer Observer
	builder  *TxBuilder
	fees     *FeeEstimator
	store    AnchorStore

	maxAttempts         int
	attemptDelay        time.Duration
	confirmations       uint64
	confirmationTimeout time.Duration

	contract       *common.Address
	gasOverride    uint64
	useGasOverride bool

	// set by Connect, immutable afterwards
	chainID *big.Int
	waiter  *ConfirmationWaiter
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithObserver sets the telemetry sink. Defaults to LogObserver.
func WithObserver(obs Observer) EngineOption {
	return func(e *Engine) { e.observer = obs }
}

// WithContract switches the builder into contract-invocation mode against
// the given anchor contract. Without it payloads ride in raw tx data.
func WithContract(contract common.Address) EngineOption {
	return func(e *Engine) { e.contract = &contract }
}

// WithGasLimitOverride pins the gas limit, skipping live estimation
// unconditionally.
func WithGasLimitOverride(gasLimit uint64) EngineOption {
	return func(e *Engine) {
		e.gasOverride = gasLimit
		e.useGasOverride = true
	}
}

// WithMaxAttempts sets the attempt budget of one logical submission.
func WithMaxAttempts(n int) EngineOption {
	return func(e *Engine) { e.maxAttempts = n }
}

// WithAttemptDelay sets the fixed pause between attempts.
func WithAttemptDelay(d time.Duration) EngineOption {
	return func(e *Engine) { e.attemptDelay = d }
}

// WithConfirmations sets the confirmation depth a receipt must reach.
func WithConfirmations(depth uint64) EngineOption {
	return func(e *Engine) { e.confirmations = depth }
}

// WithConfirmationTimeout bounds each confirmation wait.
func WithConfirmationTimeout(d time.Duration) EngineOption {
	return func(e *Engine) { e.confirmationTimeout = d }
}

// WithAnchorStore installs the at-most-once guard: a payload whose digest is
// already confirmed returns the recorded AnchorTransaction without spending
// again, and a digest mid-submission is rejected as a duplicate.
func WithAnchorStore(store AnchorStore) EngineOption {
	return func(e *Engine) { e.store = store }
}

// NewEngine creates an engine over the signer. Connect must be called before
// Submit.
func NewEngine(signer Signer, opts ...EngineOption) (*Engine, error) {
	if signer == nil {
		return nil, errors.Join(ErrConfiguration, fmt.Errorf("signer is required"))
	}

	e := &Engine{
		signer:              signer,
		observer:            LogObserver{},
		maxAttempts:         DefaultMaxAttempts,
		attemptDelay:        DefaultAttemptDelay,
		confirmations:       DefaultConfirmations,
		confirmationTimeout: DefaultConfirmationTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}

	builder, err := NewTxBuilder(e.contract)
	if err != nil {
		return nil, err
	}
	e.builder = builder

	e.fees = NewFeeEstimator(signer)
	if e.useGasOverride {
		e.fees.SetGasOverride(e.gasOverride)
	}

	return e, nil
}

// Connect queries the chain id once and caches it for the engine's lifetime.
// It must succeed before any Submit.
func (e *Engine) Connect(ctx context.Context) error {
	chainID, err := e.signer.ChainID(ctx)
	if err != nil {
		return errors.Join(ErrConfiguration, fmt.Errorf("couldn't query chain id: %w", err))
	}
	e.chainID = chainID
	e.waiter = NewConfirmationWaiter(e.signer, chainID, e.confirmations, e.confirmationTimeout)

	logger.WithFields(logger.Fields{
		"chain_id": FormatCAIP2(chainID),
		"wallet":   e.signer.Address().Hex(),
	}).Info("anchor engine connected")
	return nil
}

// ChainID returns the cached chain id in CAIP-2 form. It is only valid after
// a successful Connect; before that it returns the empty string.
func (e *Engine) ChainID() string {
	if e.chainID == nil {
		return ""
	}
	return FormatCAIP2(e.chainID)
}

// Submit anchors the payload and blocks until it is confirmed or fails with
// one of the taxonomy errors. Wallet balance is reported to the observer
// before and after the full submission; the telemetry never alters the
// outcome.
func (e *Engine) Submit(ctx context.Context, payload []byte) (*AnchorTransaction, error) {
	if e.chainID == nil {
		return nil, errors.Join(ErrConfiguration, fmt.Errorf("engine is not connected"))
	}

	e.reportBalance(ctx)
	defer e.reportBalance(ctx)

	if e.store == nil {
		return e.submit(ctx, payload)
	}
	return e.submitGuarded(ctx, payload)
}

// submitGuarded consults the AnchorStore before and after the submission so
// the same payload can never be anchored twice.
func (e *Engine) submitGuarded(ctx context.Context, payload []byte) (*AnchorTransaction, error) {
	digest := PayloadDigest(payload)

	existing, err := e.store.Get(ctx, digest)
	if err == nil {
		switch existing.Status {
		case AnchorStatusConfirmed:
			return existing.Anchor, nil
		case AnchorStatusPending:
			return nil, fmt.Errorf("%w: digest %s", ErrDuplicateAnchor, digest)
		case AnchorStatusFailed:
			// a failed submission spent nothing, clear it and try again
			if delErr := e.store.Delete(ctx, digest); delErr != nil {
				return nil, fmt.Errorf("couldn't clear failed anchor record: %w", delErr)
			}
		}
	} else if !errors.Is(err, ErrAnchorNotFound) {
		return nil, fmt.Errorf("couldn't consult anchor store: %w", err)
	}

	record, err := e.store.Create(ctx, digest)
	if err != nil {
		if errors.Is(err, ErrDuplicateAnchor) && record != nil && record.Status == AnchorStatusConfirmed {
			return record.Anchor, nil
		}
		return nil, err
	}

	anchor, submitErr := e.submit(ctx, payload)
	if submitErr != nil {
		record.Status = AnchorStatusFailed
		record.FailureMsg = submitErr.Error()
	} else {
		record.Status = AnchorStatusConfirmed
		record.Anchor = anchor
	}
	if updErr := e.store.Update(ctx, record); updErr != nil {
		logger.WithFields(logger.Fields{
			"digest": digest,
			"error":  updErr,
		}).Warn("couldn't record anchor outcome")
	}
	return anchor, submitErr
}

// submit runs the bounded attempt loop: build once, then price, broadcast
// and confirm up to maxAttempts times.
func (e *Engine) submit(ctx context.Context, payload []byte) (*AnchorTransaction, error) {
	req, err := e.builder.Build(ctx, e.signer, payload)
	if err != nil {
		return nil, err
	}

	history := attempts.NewHistory()

	for attempt := 0; attempt < e.maxAttempts; attempt++ {
		if attempt > 0 {
			// fixed pause so transient conditions settle before the next try
			delay := time.NewTimer(e.attemptDelay)
			select {
			case <-ctx.Done():
				delay.Stop()
				return nil, ctx.Err()
			case <-delay.C:
			}
		}

		if err := e.fees.Reprice(ctx, req); err != nil {
			return nil, err
		}
		e.observer.TxRequest(req)

		resp, err := e.signer.Broadcast(ctx, req)
		if err != nil {
			anchor, fatal := e.handleBroadcastError(ctx, err, req, attempt, history)
			if anchor != nil {
				return anchor, nil
			}
			if fatal != nil {
				return nil, fatal
			}
			continue
		}

		if resp.ChainID != nil && resp.ChainID.Cmp(e.chainID) != 0 {
			return nil, fmt.Errorf("%w: connected to %s but response reports %s",
				ErrChainIDMismatch, FormatCAIP2(e.chainID), FormatCAIP2(resp.ChainID))
		}

		history.Append(attempts.Record{Hash: resp.Hash, Nonce: req.Nonce, At: time.Now()})
		e.observer.TxResponse(resp)

		anchor, receipt, err := e.waiter.Wait(ctx, resp.Hash)
		if err == nil {
			e.observer.TxReceipt(receipt)
			return anchor, nil
		}

		switch {
		case errors.Is(err, ErrConfirmationTimeout):
			e.observer.TransactionTimeout(e.waiter.Timeout())
			logger.WithFields(logger.Fields{
				"tx_hash": resp.Hash.Hex(),
				"attempt": attempt,
			}).Warn("confirmation timed out, escalating fee and retrying")
			continue
		case errors.Is(err, ErrMinedFailure):
			if receipt != nil {
				e.observer.TxReceipt(receipt)
			}
			return nil, err
		default:
			return nil, err
		}
	}

	return nil, errors.Join(ErrRetriesExhausted,
		fmt.Errorf("no confirmed transaction after %d attempts", e.maxAttempts))
}

// handleBroadcastError classifies a failed broadcast. It returns a recovered
// anchor when a prior attempt turns out to have been mined, a fatal error to
// surface, or (nil, nil) to let the loop retry.
func (e *Engine) handleBroadcastError(ctx context.Context, err error, req *TxRequest, attempt int, history *attempts.History) (*AnchorTransaction, error) {
	err = ClassifyTransportError(err)

	switch {
	case errors.Is(err, ErrInsufficientFunds):
		cost := req.Cost()
		balance, balErr := e.signer.BalanceAt(ctx, e.signer.Address())
		if balErr != nil {
			balance = big.NewInt(0)
			logger.WithFields(logger.Fields{
				"error": balErr,
			}).Debug("couldn't query balance while reporting insufficient funds")
		}
		e.observer.InsufficientFunds(cost, balance)
		return nil, fmt.Errorf("%w: cost %s exceeds balance %s", ErrInsufficientFunds, cost, balance)

	case errors.Is(err, ErrConfirmationTimeout):
		// the transport itself timed out, no confirmation deadline was
		// running; a zero duration marks that for the observer
		e.observer.TransactionTimeout(0)
		return nil, nil

	case errors.Is(err, ErrNonceConflict):
		e.observer.NonceExpired(req.Nonce)
		if attempt == 0 || history.Len() == 0 {
			// nothing of ours could have consumed the nonce, so the
			// conflict is unexplained and must surface
			return nil, err
		}
		return e.recoverFromHistory(ctx, history)

	default:
		return nil, err
	}
}

// recoverFromHistory walks the submission's own broadcasts newest-first and
// returns the anchor of the first one that confirms. The nonce conflict
// usually means one of them was mined while we were retrying.
func (e *Engine) recoverFromHistory(ctx context.Context, history *attempts.History) (*AnchorTransaction, error) {
	for _, record := range history.NewestFirst() {
		anchor, receipt, err := e.waiter.Wait(ctx, record.Hash)
		if err != nil {
			logger.WithFields(logger.Fields{
				"tx_hash": record.Hash.Hex(),
				"error":   err,
			}).Debug("prior attempt did not confirm during recovery")
			continue
		}
		e.observer.TxReceipt(receipt)
		logger.WithFields(logger.Fields{
			"tx_hash": record.Hash.Hex(),
			"nonce":   record.Nonce,
		}).Info("recovered confirmed transaction from an earlier attempt")
		return anchor, nil
	}
	return nil, errors.Join(ErrNoConfirmedAttempt,
		fmt.Errorf("none of %d broadcast attempts could be confirmed", history.Len()))
}

func (e *Engine) reportBalance(ctx context.Context) {
	balance, err := e.signer.BalanceAt(ctx, e.signer.Address())
	if err != nil {
		logger.WithFields(logger.Fields{
			"error": err,
		}).Debug("couldn't query wallet balance for telemetry")
		return
	}
	e.observer.WalletBalance(balance)
}
