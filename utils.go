package evmtxm

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/crypto/sha3"
)

// PublicKeyToAddress resolves a keystore account string to an address. Accepts a
// 0x-prefixed address directly, or a hex-encoded uncompressed secp256k1 public key
// which is reduced to an address via keccak256.
func PublicKeyToAddress(account string) (common.Address, error) {
	if account == "" {
		return common.Address{}, fmt.Errorf("account cannot be empty")
	}

	if common.IsHexAddress(account) {
		return common.HexToAddress(account), nil
	}

	pubKeyBytes, err := hex.DecodeString(strings.TrimPrefix(account, "0x"))
	if err != nil {
		return common.Address{}, fmt.Errorf("invalid pubkey: %w", err)
	}
	if len(pubKeyBytes) != 65 || pubKeyBytes[0] != 0x04 {
		return common.Address{}, fmt.Errorf("expected uncompressed pubkey, got %d bytes", len(pubKeyBytes))
	}
	hash := sha3.NewLegacyKeccak256()
	hash.Write(pubKeyBytes[1:]) // remove the 0x04 format identifier prefix
	hashed := hash.Sum(nil)
	return common.BytesToAddress(hashed[len(hashed)-20:]), nil
}
