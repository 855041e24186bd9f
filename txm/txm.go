package txm

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/google/uuid"

	"github.com/smartcontractkit/chainlink-common/pkg/logger"
	"github.com/smartcontractkit/chainlink-common/pkg/loop"
	"github.com/smartcontractkit/chainlink-common/pkg/services"
	"github.com/smartcontractkit/chainlink-common/pkg/utils"

	"github.com/venga-labs/evm-txm/client"
	"github.com/venga-labs/evm-txm/monitor"
)

var _ services.Service = &Txm{}

// Txm delivers signed transactions to an EVM network, retrying submission with
// nonce correction when the node reports a duplicate and padding fees against
// underpriced rejection. Attempts within one Submit call are strictly sequential;
// the manager is shareable across callers for independent requests, but concurrent
// submissions for the same identity must be serialized externally (Enqueue provides
// that serialization).
type Txm struct {
	lggr     logger.Logger
	keystore loop.Keystore
	client   client.NodeClient
	cfg      Config

	fromAddress common.Address
	chainID     *big.Int
	signer      types.Signer

	broadcastChan chan *TxRequest
	accountStore  *AccountStore
	starter       utils.StartStopOnce
	done          sync.WaitGroup
	stop          chan struct{}
}

func New(lggr logger.Logger, ks loop.Keystore, c client.NodeClient, fromAddress common.Address, chainID *big.Int, cfg Config) *Txm {
	cfg = cfg.withDefaults()
	return &Txm{
		lggr:     logger.Named(lggr, "EvmTxm"),
		keystore: ks,
		client:   c,
		cfg:      cfg,

		fromAddress: fromAddress,
		chainID:     chainID,
		signer:      types.LatestSignerForChainID(chainID),

		broadcastChan: make(chan *TxRequest, cfg.BroadcastChanSize),
		accountStore:  NewAccountStore(),
		stop:          make(chan struct{}),
	}
}

func (t *Txm) Name() string {
	return t.lggr.Name()
}

func (t *Txm) Ready() error {
	return t.starter.Ready()
}

func (t *Txm) HealthReport() map[string]error {
	return map[string]error{t.Name(): t.starter.Healthy()}
}

// Address returns the submitting identity's address.
func (t *Txm) Address() common.Address {
	return t.fromAddress
}

func (t *Txm) Config() Config {
	return t.cfg
}

func (t *Txm) Start(ctx context.Context) error {
	return t.starter.StartOnce("EvmTxm", func() error {
		t.done.Add(1)
		go t.broadcastLoop()
		return nil
	})
}

func (t *Txm) Close() error {
	return t.starter.StopOnce("EvmTxm", func() error {
		close(t.stop)
		t.done.Wait()
		return nil
	})
}

// Enqueue hands a transaction request to the broadcast loop, which submits queued
// requests one at a time. Returns an error when the queue is full rather than
// blocking the caller.
func (t *Txm) Enqueue(request *TxRequest) error {
	// nil-hash sign checks that the identity's key exists in the keystore.
	if _, err := t.keystore.Sign(context.Background(), t.fromAddress.Hex(), nil); err != nil {
		return fmt.Errorf("failed to sign: %+w", err)
	}

	if request.From != (common.Address{}) && request.From != t.fromAddress {
		return fmt.Errorf("from address mismatch: got %s, manager identity is %s", request.From, t.fromAddress)
	}

	if request.ID == "" {
		request.ID = uuid.NewString()
	}

	txStore := t.accountStore.GetTxStore(t.fromAddress.Hex())
	if err := txStore.Add(request.ID, request); err != nil {
		return err
	}

	select {
	case t.broadcastChan <- request:
	default:
		if err := txStore.Complete(request.ID, Errored); err != nil {
			t.lggr.Errorw("could not drop overflowed transaction locally", "id", request.ID, "err", err)
		}
		return fmt.Errorf("failed to enqueue transaction: %s", request.ID)
	}

	return nil
}

func (t *Txm) InflightCount() (int, int) {
	return len(t.broadcastChan), t.accountStore.GetTotalInflightCount()
}

func (t *Txm) broadcastLoop() {
	defer t.done.Done()

	ctx, cancel := utils.ContextFromChan(t.stop)
	defer cancel()

	t.lggr.Debugw("broadcastLoop: started")
	for {
		select {
		case request := <-t.broadcastChan:
			txStore := t.accountStore.GetTxStore(t.fromAddress.Hex())
			if err := txStore.MarkInFlight(request.ID); err != nil {
				t.lggr.Errorw("could not mark transaction in flight", "id", request.ID, "err", err)
			}

			if err := t.Submit(ctx, request); err != nil {
				t.lggr.Errorw("transaction failed", "id", request.ID, "err", err)
				if err := txStore.Complete(request.ID, Errored); err != nil {
					t.lggr.Errorw("could not complete transaction locally", "id", request.ID, "err", err)
				}
				continue
			}

			if err := txStore.Complete(request.ID, Confirmed); err != nil {
				t.lggr.Errorw("could not complete transaction locally", "id", request.ID, "err", err)
			}

		case <-t.stop:
			t.lggr.Debugw("broadcastLoop: stopped")
			return
		}
	}
}

// Submit runs up to MaxRetries sequential attempts to deliver the request: estimate
// fee, pad it, send, await confirmations. A duplicate-submission rejection flags the
// next attempt to requery the chain nonce; any other send error is retried with the
// same nonce. The final attempt's error is returned verbatim once retries are
// exhausted. Confirmation-wait failures are returned immediately without retry.
func (t *Txm) Submit(ctx context.Context, request *TxRequest) error {
	var attempts uint64
	adjustNonce := false

	for attempts < t.cfg.MaxRetries {
		tx := request.Clone()
		if adjustNonce {
			chainCount, err := t.client.TransactionCount(ctx, t.fromAddress)
			if err != nil {
				return fmt.Errorf("failed to get transaction count: %w", err)
			}
			newNonce := CorrectedNonce(chainCount, attempts)
			t.lggr.Infow("retrying with corrected nonce", "attempt", attempts, "nonce", newNonce, "fromAddress", t.fromAddress, "chainNonce", chainCount)
			tx = tx.WithNonce(newNonce)
		}

		monitor.RecordAttempt(t.chainID.String())
		err := t.trySendTransaction(ctx, tx)
		if err == nil {
			monitor.RecordConfirmed(t.chainID.String())
			return nil
		}

		var confErr *ConfirmationError
		if errors.As(err, &confErr) {
			t.lggr.Errorw("error waiting for confirmations, giving up", "attempt", attempts, "fromAddress", t.fromAddress, "err", err)
			monitor.RecordFailed(t.chainID.String())
			return err
		}

		if IsAlreadyKnown(err) {
			t.lggr.Infow("transaction already known, will retry with corrected nonce", "id", tx.ID, "nonce", tx.Nonce)
			adjustNonce = true
		}

		if attempts+1 >= t.cfg.MaxRetries {
			t.lggr.Errorw("error sending transaction, giving up", "attempt", attempts, "fromAddress", t.fromAddress, "err", err)
			monitor.RecordFailed(t.chainID.String())
			return err
		}

		t.lggr.Errorw("error sending transaction, retrying", "retry", attempts+1, "fromAddress", t.fromAddress, "err", err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(t.cfg.RetryDelay * time.Duration(attempts+1)):
		}
		attempts++
	}

	// unreachable: withDefaults guarantees MaxRetries >= 1 and the loop always
	// returns from inside
	return fmt.Errorf("retries exhausted")
}

func (t *Txm) trySendTransaction(ctx context.Context, tx *TxRequest) error {
	feeEstimate, err := t.EstimateFee(ctx, tx)
	if err != nil {
		return &EstimationError{Err: err}
	}

	paddedFeeLimit := PaddedFeeLimit(feeEstimate)
	t.lggr.Infow("estimated fee", "feeEstimate", feeEstimate, "paddedFeeLimit", paddedFeeLimit)
	tx = tx.WithFeeLimit(paddedFeeLimit)

	signedTx, err := t.signTransaction(ctx, tx)
	if err != nil {
		return &SubmissionError{Err: err}
	}
	txHash := signedTx.Hash()

	t.lggr.Infow("sending transaction", "txHash", txHash, "nonce", signedTx.Nonce(), "feeLimit", signedTx.Gas(), "fromAddress", t.fromAddress)
	if err := t.client.SendTransaction(ctx, signedTx); err != nil {
		t.lggr.Errorw("error sending transaction", "txHash", txHash, "err", err)
		return &SubmissionError{Err: err}
	}

	t.lggr.Infow("transaction sent, waiting for confirmations", "txHash", txHash, "nonce", signedTx.Nonce(), "confirmations", t.cfg.Confirmations)

	receipt, err := t.client.WaitForConfirmations(ctx, txHash, t.cfg.Confirmations)
	if err != nil {
		return &ConfirmationError{Err: err}
	}

	t.lggr.Infow("transaction confirmed", "txHash", txHash, "blockNumber", receipt.BlockNumber, "blockHash", receipt.BlockHash, "status", receipt.Status)
	return nil
}

func (t *Txm) signTransaction(ctx context.Context, tx *TxRequest) (*types.Transaction, error) {
	var nonce uint64
	if tx.Nonce != nil {
		nonce = *tx.Nonce
	} else {
		var err error
		nonce, err = t.client.TransactionCount(ctx, t.fromAddress)
		if err != nil {
			return nil, fmt.Errorf("failed to get transaction count: %w", err)
		}
	}

	gasPrice := tx.GasPrice
	if gasPrice == nil {
		var err error
		gasPrice, err = t.client.SuggestGasPrice(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get gas price: %w", err)
		}
	}

	value := tx.Value
	if value == nil {
		value = new(big.Int)
	}
	if tx.FeeLimit == nil {
		return nil, fmt.Errorf("fee limit not set")
	}

	unsigned := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       tx.To,
		Value:    value,
		Gas:      tx.FeeLimit.Uint64(),
		GasPrice: gasPrice,
		Data:     tx.Data,
	})

	sig, err := t.keystore.Sign(ctx, t.fromAddress.Hex(), t.signer.Hash(unsigned).Bytes())
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}

	return unsigned.WithSignature(t.signer, sig)
}

// EstimateFee delegates to the node's legacy-style fee query for the request. No
// side effects; callers may use it to quote a request without submitting.
func (t *Txm) EstimateFee(ctx context.Context, tx *TxRequest) (*big.Int, error) {
	return t.client.EstimateFee(ctx, ethereum.CallMsg{
		From:     t.fromAddress,
		To:       tx.To,
		Value:    tx.Value,
		GasPrice: tx.GasPrice,
		Data:     tx.Data,
	})
}
