package monitor

import (
	"context"
	"crypto/ecdsa"
	"crypto/rand"
	"fmt"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartcontractkit/chainlink-common/pkg/logger"
	"github.com/smartcontractkit/chainlink-common/pkg/utils/tests"
)

func TestBalanceMonitor(t *testing.T) {
	const chainID = "1337"
	ks := keystore{}
	for i := 0; i < 3; i++ {
		ks = append(ks, generateAddress(t))
	}

	bals := []*big.Int{
		big.NewInt(0),
		big.NewInt(1_000_000_000_000_000), // 0.001 ETH
		big.NewInt(1_000_000_000_000_000_000),
	}
	expBals := []string{
		"0.000000",
		"0.001000",
		"1.000000",
	}

	mockClient := &mockBalanceClient{}
	var exp []update
	for i := range bals {
		exp = append(exp, update{ks[i].Hex(), expBals[i]})
	}
	mockClient.BalanceAtFunc = func(ctx context.Context, account common.Address) (*big.Int, error) {
		for i, addr := range ks {
			if addr == account {
				return bals[i], nil
			}
		}
		return nil, fmt.Errorf("address not found")
	}
	cfg := &config{balancePollPeriod: time.Second}

	b := newBalanceMonitor(chainID, cfg, logger.Test(t), ks, func() (BalanceClient, error) {
		return mockClient, nil
	})

	var got []update
	done := make(chan struct{})
	b.updateFn = func(acc common.Address, wei *big.Int) {
		select {
		case <-done:
			return
		default:
		}
		got = append(got, update{acc.Hex(), fmt.Sprintf("%.6f", weiToEth(wei))})
		if len(got) == len(exp) {
			close(done)
		}
	}

	require.NoError(t, b.Start(tests.Context(t)))
	t.Cleanup(func() {
		assert.NoError(t, b.Close())
	})
	select {
	case <-time.After(tests.WaitTimeout(t)):
		t.Fatal("timed out waiting for balance monitor")
	case <-done:
	}

	assert.EqualValues(t, exp, got)
}

func generateAddress(t *testing.T) common.Address {
	key, err := ecdsa.GenerateKey(crypto.S256(), rand.Reader)
	require.NoError(t, err)
	return crypto.PubkeyToAddress(key.PublicKey)
}

type config struct {
	balancePollPeriod time.Duration
}

func (c *config) BalancePollPeriod() time.Duration {
	return c.balancePollPeriod
}

type keystore []common.Address

func (k keystore) Accounts(ctx context.Context) (ks []string, err error) {
	for _, acc := range k {
		ks = append(ks, acc.Hex())
	}
	return
}

func (k keystore) Sign(ctx context.Context, id string, hash []byte) ([]byte, error) {
	// No Op
	return nil, nil
}

type mockBalanceClient struct {
	BalanceAtFunc func(ctx context.Context, account common.Address) (*big.Int, error)
}

func (m *mockBalanceClient) BalanceAt(ctx context.Context, account common.Address) (*big.Int, error) {
	if m.BalanceAtFunc != nil {
		return m.BalanceAtFunc(ctx, account)
	}
	return nil, fmt.Errorf("BalanceAt not implemented")
}

type update struct{ acc, bal string }
