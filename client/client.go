package client

import (
	"context"
	"errors"
	"math/big"
	"net/url"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	pkgerrors "github.com/pkg/errors"

	"github.com/smartcontractkit/chainlink-common/pkg/utils"
)

const DefaultConfirmPollPeriod = 2 * time.Second

//go:generate mockery --name NodeClient --output ../mocks/
type NodeClient interface {
	ChainID(ctx context.Context) (*big.Int, error)
	// TransactionCount returns the pending-state transaction count for the account,
	// i.e. the next nonce the node expects.
	TransactionCount(ctx context.Context, account common.Address) (uint64, error)
	EstimateFee(ctx context.Context, call ethereum.CallMsg) (*big.Int, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	BalanceAt(ctx context.Context, account common.Address) (*big.Int, error)
	WaitForConfirmations(ctx context.Context, txHash common.Hash, confirmations uint64) (*types.Receipt, error)
}

var _ NodeClient = &EthNodeClient{}

// ethBackend is the subset of ethclient.Client the node client is built on.
// Split out so the confirmation poll loop can be tested against a stub.
type ethBackend interface {
	ChainID(ctx context.Context) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	EstimateGas(ctx context.Context, call ethereum.CallMsg) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	BlockNumber(ctx context.Context) (uint64, error)
}

type EthNodeClient struct {
	backend           ethBackend
	confirmPollPeriod time.Duration
}

func NewEthNodeClient(backend *ethclient.Client, confirmPollPeriod time.Duration) *EthNodeClient {
	return newEthNodeClient(backend, confirmPollPeriod)
}

func newEthNodeClient(backend ethBackend, confirmPollPeriod time.Duration) *EthNodeClient {
	if confirmPollPeriod <= 0 {
		confirmPollPeriod = DefaultConfirmPollPeriod
	}
	return &EthNodeClient{backend: backend, confirmPollPeriod: confirmPollPeriod}
}

func DialEthNodeClient(rpcUrl *url.URL) (*EthNodeClient, error) {
	return DialEthNodeClientWithPollPeriod(rpcUrl, DefaultConfirmPollPeriod)
}

func DialEthNodeClientWithPollPeriod(rpcUrl *url.URL, confirmPollPeriod time.Duration) (*EthNodeClient, error) {
	backend, err := ethclient.Dial(rpcUrl.String())
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to dial eth node at %s", rpcUrl)
	}
	return NewEthNodeClient(backend, confirmPollPeriod), nil
}

func (c *EthNodeClient) ChainID(ctx context.Context) (*big.Int, error) {
	return c.backend.ChainID(ctx)
}

func (c *EthNodeClient) TransactionCount(ctx context.Context, account common.Address) (uint64, error) {
	return c.backend.PendingNonceAt(ctx, account)
}

// EstimateFee performs a legacy-style fee query for the call. The returned amount
// is the minimum cost unit quoted by the node at current network conditions.
func (c *EthNodeClient) EstimateFee(ctx context.Context, call ethereum.CallMsg) (*big.Int, error) {
	fee, err := c.backend.EstimateGas(ctx, call)
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetUint64(fee), nil
}

func (c *EthNodeClient) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return c.backend.SuggestGasPrice(ctx)
}

func (c *EthNodeClient) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	return c.backend.SendTransaction(ctx, tx)
}

func (c *EthNodeClient) BalanceAt(ctx context.Context, account common.Address) (*big.Int, error) {
	return c.backend.BalanceAt(ctx, account, nil)
}

// WaitForConfirmations polls for the transaction receipt until its inclusion block
// is `confirmations` blocks deep in the canonical chain. A not-yet-mined transaction
// keeps the poll going; any transport failure is returned to the caller, which must
// not blindly resubmit since the transaction may already be on-chain.
func (c *EthNodeClient) WaitForConfirmations(ctx context.Context, txHash common.Hash, confirmations uint64) (*types.Receipt, error) {
	tick := time.After(0)
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-tick:
		}

		receipt, err := c.backend.TransactionReceipt(ctx, txHash)
		if err == nil {
			head, err := c.backend.BlockNumber(ctx)
			if err != nil {
				return nil, err
			}
			included := receipt.BlockNumber.Uint64()
			if head >= included && head-included+1 >= confirmations {
				return receipt, nil
			}
		} else if !errors.Is(err, ethereum.NotFound) {
			return nil, err
		}

		tick = time.After(utils.WithJitter(c.confirmPollPeriod))
	}
}
