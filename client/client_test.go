package client

import (
	"context"
	"errors"
	"math/big"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"
)

type stubBackend struct {
	transactionReceipt func(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	blockNumber        func(ctx context.Context) (uint64, error)
}

func (s *stubBackend) ChainID(ctx context.Context) (*big.Int, error) { return big.NewInt(1337), nil }

func (s *stubBackend) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	return 0, nil
}

func (s *stubBackend) EstimateGas(ctx context.Context, call ethereum.CallMsg) (uint64, error) {
	return 21000, nil
}

func (s *stubBackend) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return big.NewInt(1), nil
}

func (s *stubBackend) SendTransaction(ctx context.Context, tx *types.Transaction) error { return nil }

func (s *stubBackend) BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error) {
	return big.NewInt(0), nil
}

func (s *stubBackend) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	return s.transactionReceipt(ctx, txHash)
}

func (s *stubBackend) BlockNumber(ctx context.Context) (uint64, error) {
	return s.blockNumber(ctx)
}

var testHash = common.HexToHash("0x2a037789237971c1c1d648f7b90b70c68a9aa6b0a2892f947213286346d0210d")

func TestWaitForConfirmations(t *testing.T) {
	t.Parallel()

	t.Run("waits until the inclusion block is deep enough", func(t *testing.T) {
		receipt := &types.Receipt{BlockNumber: big.NewInt(10)}

		var heads atomic.Uint64
		heads.Store(9) // first poll observes head 10, second observes 11
		backend := &stubBackend{
			transactionReceipt: func(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
				return receipt, nil
			},
			blockNumber: func(ctx context.Context) (uint64, error) {
				return heads.Add(1), nil
			},
		}

		c := newEthNodeClient(backend, time.Millisecond)
		got, err := c.WaitForConfirmations(context.Background(), testHash, 2)
		require.NoError(t, err)
		require.Equal(t, receipt, got)
		require.Equal(t, uint64(11), heads.Load())
	})

	t.Run("keeps polling while the transaction is unmined", func(t *testing.T) {
		receipt := &types.Receipt{BlockNumber: big.NewInt(10)}

		var polls atomic.Int32
		backend := &stubBackend{
			transactionReceipt: func(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
				if polls.Add(1) < 3 {
					return nil, ethereum.NotFound
				}
				return receipt, nil
			},
			blockNumber: func(ctx context.Context) (uint64, error) {
				return 12, nil
			},
		}

		c := newEthNodeClient(backend, time.Millisecond)
		got, err := c.WaitForConfirmations(context.Background(), testHash, 1)
		require.NoError(t, err)
		require.Equal(t, receipt, got)
		require.Equal(t, int32(3), polls.Load())
	})

	t.Run("transport failure is returned to the caller", func(t *testing.T) {
		backend := &stubBackend{
			transactionReceipt: func(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
				return nil, errors.New("connection reset by peer")
			},
		}

		c := newEthNodeClient(backend, time.Millisecond)
		_, err := c.WaitForConfirmations(context.Background(), testHash, 1)
		require.Error(t, err)
		require.ErrorContains(t, err, "connection reset by peer")
	})

	t.Run("context cancellation aborts the wait", func(t *testing.T) {
		backend := &stubBackend{
			transactionReceipt: func(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
				return nil, ethereum.NotFound
			},
			blockNumber: func(ctx context.Context) (uint64, error) {
				return 0, nil
			},
		}

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		c := newEthNodeClient(backend, time.Millisecond)
		_, err := c.WaitForConfirmations(ctx, testHash, 1)
		require.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestEstimateFee(t *testing.T) {
	t.Parallel()

	c := newEthNodeClient(&stubBackend{}, time.Millisecond)
	fee, err := c.EstimateFee(context.Background(), ethereum.CallMsg{})
	require.NoError(t, err)
	require.Equal(t, uint64(21000), fee.Uint64())
}
