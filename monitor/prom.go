package monitor

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/params"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var promEvmBalance = promauto.NewGaugeVec(
	prometheus.GaugeOpts{Name: "evm_balance", Help: "EVM account balances"},
	[]string{"account", "chainID", "chainSet", "denomination"},
)

var (
	promTxAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{Name: "txm_attempts_total", Help: "Transaction submission attempts"},
		[]string{"chainID"},
	)
	promTxConfirmed = promauto.NewCounterVec(
		prometheus.CounterOpts{Name: "txm_confirmed_total", Help: "Transactions confirmed at the configured depth"},
		[]string{"chainID"},
	)
	promTxFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{Name: "txm_failed_total", Help: "Transactions that exhausted retries or failed terminally"},
		[]string{"chainID"},
	)
)

func RecordAttempt(chainID string)   { promTxAttempts.WithLabelValues(chainID).Inc() }
func RecordConfirmed(chainID string) { promTxConfirmed.WithLabelValues(chainID).Inc() }
func RecordFailed(chainID string)    { promTxFailed.WithLabelValues(chainID).Inc() }

func (b *balanceMonitor) updateProm(acc common.Address, wei *big.Int) {
	v := weiToEth(wei)
	promEvmBalance.WithLabelValues(acc.Hex(), b.chainID, "evm", "ETH").Set(v)
}

// weiToEth converts wei to ETH
func weiToEth(wei *big.Int) float64 {
	v, _ := new(big.Float).Quo(new(big.Float).SetInt(wei), big.NewFloat(params.Ether)).Float64()
	return v
}
