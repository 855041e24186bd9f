package txm_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/venga-labs/evm-txm/txm"
)

func TestIsAlreadyKnown(t *testing.T) {
	t.Parallel()

	require.False(t, txm.IsAlreadyKnown(nil))
	require.True(t, txm.IsAlreadyKnown(txm.ErrAlreadyKnown))
	require.True(t, txm.IsAlreadyKnown(fmt.Errorf("sending failed: %w", txm.ErrAlreadyKnown)))

	// RPC transports flatten structured errors to text
	require.True(t, txm.IsAlreadyKnown(errors.New("server returned an error: already known")))
	require.True(t, txm.IsAlreadyKnown(&txm.SubmissionError{Err: errors.New("already known")}))

	require.False(t, txm.IsAlreadyKnown(errors.New("nonce too low")))
	require.False(t, txm.IsAlreadyKnown(errors.New("insufficient funds")))
}

func TestErrorWrapping(t *testing.T) {
	t.Parallel()

	cause := errors.New("boom")

	estErr := &txm.EstimationError{Err: cause}
	require.ErrorIs(t, estErr, cause)
	require.Contains(t, estErr.Error(), "failed to estimate fee")

	subErr := &txm.SubmissionError{Err: cause}
	require.ErrorIs(t, subErr, cause)
	require.Contains(t, subErr.Error(), "failed to send transaction")

	confErr := &txm.ConfirmationError{Err: cause}
	require.ErrorIs(t, confErr, cause)
	require.Contains(t, confErr.Error(), "failed while awaiting confirmations")
}
