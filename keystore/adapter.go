package keystore

import (
	"context"

	"github.com/ethereum/go-ethereum/accounts"
	gethkeystore "github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/smartcontractkit/chainlink-common/pkg/loop"
)

type gethKeystoreAdapter struct {
	ks *gethkeystore.KeyStore
}

// NewLoopKeystoreAdapter exposes a go-ethereum keystore through the loop.Keystore
// interface consumed by the transaction manager. Accounts must be unlocked before
// signing.
func NewLoopKeystoreAdapter(ks *gethkeystore.KeyStore) loop.Keystore {
	return &gethKeystoreAdapter{ks: ks}
}

// Accounts returns the list of addresses held by the keystore.
func (l *gethKeystoreAdapter) Accounts(ctx context.Context) (addresses []string, err error) {
	for _, account := range l.ks.Accounts() {
		addresses = append(addresses, account.Address.Hex())
	}
	return addresses, nil
}

// Sign signs the given hash with the key of the named account. A nil hash is an
// existence check for the account.
func (l *gethKeystoreAdapter) Sign(ctx context.Context, account string, hash []byte) (signed []byte, err error) {
	acc := accounts.Account{Address: common.HexToAddress(account)}
	if hash == nil {
		_, err := l.ks.Find(acc)
		return nil, err
	}
	return l.ks.SignHash(acc, hash)
}
