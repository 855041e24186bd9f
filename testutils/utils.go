package testutils

import (
	"crypto/ecdsa"
	"io"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/smartcontractkit/chainlink-common/pkg/logger"

	"github.com/venga-labs/evm-txm/txm"
)

type Key struct {
	Address    common.Address
	PrivateKey *ecdsa.PrivateKey
}

func CreateKey(r io.Reader) Key {
	privateKey, err := ecdsa.GenerateKey(crypto.S256(), r)
	if err != nil {
		panic(err)
	}
	return Key{
		Address:    crypto.PubkeyToAddress(privateKey.PublicKey),
		PrivateKey: privateKey,
	}
}

func WaitForInflightTxs(lggr logger.Logger, txmgr *txm.Txm, timeout time.Duration) {
	start := time.Now()
	for {
		queueLen, unconfirmedLen := txmgr.InflightCount()
		lggr.Debugw("Inflight count", "queued", queueLen, "unconfirmed", unconfirmedLen)
		if queueLen == 0 && unconfirmedLen == 0 {
			break
		}
		if time.Since(start) > timeout {
			panic("Timeout waiting for inflight txs")
		}
		time.Sleep(100 * time.Millisecond)
	}
}
