package txm

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// TxRequest is a mutable draft of a transaction. The manager clones it per attempt
// and mutates the clone (nonce, fee limit), never the caller's original.
type TxRequest struct {
	// ID is assigned on enqueue and used for in-flight tracking. Optional for
	// direct Submit calls.
	ID string

	From     common.Address
	To       *common.Address
	Value    *big.Int
	Nonce    *uint64
	GasPrice *big.Int
	// FeeLimit is the padded fee estimate set by the manager before signing.
	FeeLimit *big.Int
	Data     []byte
}

func (r *TxRequest) Clone() *TxRequest {
	c := &TxRequest{
		ID:   r.ID,
		From: r.From,
		To:   r.To,
		Data: r.Data,
	}
	if r.Value != nil {
		c.Value = new(big.Int).Set(r.Value)
	}
	if r.Nonce != nil {
		nonce := *r.Nonce
		c.Nonce = &nonce
	}
	if r.GasPrice != nil {
		c.GasPrice = new(big.Int).Set(r.GasPrice)
	}
	if r.FeeLimit != nil {
		c.FeeLimit = new(big.Int).Set(r.FeeLimit)
	}
	return c
}

func (r *TxRequest) WithNonce(nonce uint64) *TxRequest {
	c := r.Clone()
	c.Nonce = &nonce
	return c
}

func (r *TxRequest) WithFeeLimit(feeLimit *big.Int) *TxRequest {
	c := r.Clone()
	c.FeeLimit = new(big.Int).Set(feeLimit)
	return c
}
