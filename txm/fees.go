package txm

import "math/big"

// Fee estimates are padded by 10% before submission to reduce the chance of an
// underpriced rejection. Integer division truncates toward zero.
const (
	feePaddingNumerator   = 110
	feePaddingDenominator = 100
)

func PaddedFeeLimit(feeEstimate *big.Int) *big.Int {
	padded := new(big.Int).Mul(feeEstimate, big.NewInt(feePaddingNumerator))
	return padded.Div(padded, big.NewInt(feePaddingDenominator))
}

// CorrectedNonce recomputes the nonce after a duplicate-submission rejection.
// The chain count is shifted by (attempt - 2) on the assumption that the previous
// attempt's nonce slot was skipped by exactly one due to a reorg. This is a
// recovery heuristic for that single scenario, not a general proof of the right
// slot; when the shift would underflow the result is clamped to the chain count.
func CorrectedNonce(chainCount uint64, attempt uint64) uint64 {
	if attempt >= 2 {
		return chainCount + (attempt - 2)
	}
	shift := 2 - attempt
	if chainCount < shift {
		return chainCount
	}
	return chainCount - shift
}
