package anchorarmy

import "fmt"

// Submission error taxonomy. Every fatal kind terminates Submit with a typed
// failure; callers can use errors.Is to tell them apart.
var (
	// ErrConfiguration covers unreachable endpoints and missing signers,
	// surfaced at connect time.
	ErrConfiguration = fmt.Errorf("engine configuration error")

	// ErrChainIDMismatch means a broadcast response reported a chain id
	// different from the one cached at connect time. Never tolerated.
	ErrChainIDMismatch = fmt.Errorf("chain id mismatch")

	// ErrInsufficientFunds means the transaction cost exceeds the wallet
	// balance. Fatal, no further attempts.
	ErrInsufficientFunds = fmt.Errorf("insufficient funds for transaction")

	// ErrConfirmationTimeout means no receipt arrived within the deadline.
	// Retried with an escalated fee.
	ErrConfirmationTimeout = fmt.Errorf("transaction confirmation timed out")

	// ErrNonceConflict means the transport reported the nonce as already
	// used or expired. Triggers the attempt-history recovery scan.
	ErrNonceConflict = fmt.Errorf("nonce already used")

	// ErrMinedFailure means the transaction was mined but its receipt
	// reports failure status.
	ErrMinedFailure = fmt.Errorf("transaction mined but reverted")

	// ErrRetriesExhausted means the attempt budget was spent without a
	// confirmed transaction.
	ErrRetriesExhausted = fmt.Errorf("submission out of retries")

	// ErrNoConfirmedAttempt means a nonce conflict pointed at an earlier
	// broadcast but none of the recorded attempts could be confirmed.
	ErrNoConfirmedAttempt = fmt.Errorf("unable to confirm any prior attempt")

	// ErrUnhandledTransport wraps any transport failure outside the
	// classified set.
	ErrUnhandledTransport = fmt.Errorf("unhandled transport error")
)
