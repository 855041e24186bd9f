package txm

import (
	"errors"
	"fmt"
	"strings"
)

// ErrAlreadyKnown matches the node's rejection of a resubmitted transaction that is
// already in its pool or on-chain. Kept in sync with go-ethereum's txpool error text.
var ErrAlreadyKnown = errors.New("already known")

// IsAlreadyKnown reports whether err is the duplicate-submission rejection.
// Structured classification is preferred; JSON-RPC transports flatten errors to
// text, so a substring check remains as fallback.
func IsAlreadyKnown(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrAlreadyKnown) {
		return true
	}
	return strings.Contains(err.Error(), "already known")
}

// EstimationError wraps a failed fee query. The current attempt is abandoned but a
// later attempt, if any remain, re-estimates from scratch.
type EstimationError struct {
	Err error
}

func (e *EstimationError) Error() string {
	return fmt.Sprintf("failed to estimate fee: %s", e.Err)
}

func (e *EstimationError) Unwrap() error { return e.Err }

// SubmissionError wraps a rejection from the node's send endpoint.
type SubmissionError struct {
	Err error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("failed to send transaction: %s", e.Err)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// ConfirmationError wraps a failure while waiting for confirmations. It is never
// retried: the transaction may already be on-chain and a blind resubmission risks
// a duplicate.
type ConfirmationError struct {
	Err error
}

func (e *ConfirmationError) Error() string {
	return fmt.Sprintf("failed while awaiting confirmations: %s", e.Err)
}

func (e *ConfirmationError) Unwrap() error { return e.Err }
