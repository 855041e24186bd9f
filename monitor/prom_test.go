package monitor

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestBalanceMonitorUpdateProm(t *testing.T) {
	b := &balanceMonitor{
		chainID: "testChainID",
	}

	testAddr := common.HexToAddress("0x8ba1f109551bD432803012645Ac136ddd64DBA72")

	// Test cases
	testCases := []struct {
		name     string
		wei      *big.Int
		expected float64
	}{
		{"Zero balance", big.NewInt(0), 0},
		{"1 ETH", big.NewInt(1_000_000_000_000_000_000), 1},
		{"1.5 ETH", big.NewInt(1_500_000_000_000_000_000), 1.5},
		{"Large balance", new(big.Int).Mul(big.NewInt(1_000_000), big.NewInt(1_000_000_000_000_000_000)), 1_000_000},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			promEvmBalance.Reset()
			b.updateProm(testAddr, tc.wei)

			// Check if the metric was updated correctly
			expected := tc.expected
			actual := testutil.ToFloat64(promEvmBalance.WithLabelValues(testAddr.Hex(), b.chainID, "evm", "ETH"))

			assert.Equal(t, expected, actual, "Unexpected metric value")
		})
	}
}
