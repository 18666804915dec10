package anchorarmy

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Transport phrases observed across RPC node implementations. Geth and most
// compatible nodes differ in wording for the same condition, so each class
// matches several substrings.
var (
	nonceConflictPhrases = []string{
		"nonce too low",
		"nonce is too low",
		"invalid nonce",
		"nonce has already been used",
		"oldnonce",
		// only the replacement form: a bare "transaction underpriced" means
		// the attempt itself was priced below the network floor, not that an
		// earlier broadcast holds the nonce
		"replacement transaction underpriced",
		"already known",
	}
	insufficientFundsPhrases = []string{
		"insufficient funds",
		"insufficient balance",
	}
	timeoutPhrases = []string{
		"timeout",
		"timed out",
		"deadline exceeded",
	}
)

// ClassifyTransportError folds a raw transport error into the closed error
// set the engine branches on. It is the only place in the module that pattern
// matches transport messages; Signer implementations call it at the boundary
// so the core never sees raw node wording.
//
// Unrecognized errors come back wrapped in ErrUnhandledTransport with the
// original message preserved.
func ClassifyTransportError(err error) error {
	if err == nil {
		return nil
	}

	// Already classified, either by a Signer implementation or a prior pass.
	for _, sentinel := range []error{
		ErrNonceConflict,
		ErrInsufficientFunds,
		ErrConfirmationTimeout,
		ErrUnhandledTransport,
	} {
		if errors.Is(err, sentinel) {
			return err
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return errors.Join(ErrConfirmationTimeout, err)
	}

	msg := strings.ToLower(err.Error())
	switch {
	case matchesAny(msg, nonceConflictPhrases):
		return errors.Join(ErrNonceConflict, err)
	case matchesAny(msg, insufficientFundsPhrases):
		return errors.Join(ErrInsufficientFunds, err)
	case matchesAny(msg, timeoutPhrases):
		return errors.Join(ErrConfirmationTimeout, err)
	}

	return errors.Join(ErrUnhandledTransport, fmt.Errorf("transport said: %s", err))
}

func matchesAny(msg string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}
