package txm

import (
	"fmt"
	"sync"

	"golang.org/x/exp/maps"
)

type TxState int

const (
	NotFound TxState = iota
	Queued
	InFlight
	Confirmed
	Errored
)

func (s TxState) String() string {
	switch s {
	case NotFound:
		return "NotFound"
	case Queued:
		return "Queued"
	case InFlight:
		return "InFlight"
	case Confirmed:
		return "Confirmed"
	case Errored:
		return "Errored"
	default:
		return fmt.Sprintf("TxState(%d)", s)
	}
}

var stateTransitions = map[TxState][]TxState{
	NotFound: {Queued},
	Queued:   {InFlight, Errored},
	InFlight: {Confirmed, Errored},
}

func (s TxState) CanTransitionTo(t TxState) bool {
	for _, allowed := range stateTransitions[s] {
		if t == allowed {
			return true
		}
	}
	return false
}

type PendingTx struct {
	ID    string
	Tx    *TxRequest
	State TxState
}

// TxStore tracks queued and in-flight transactions for a single account.
// Confirmed and errored transactions are dropped on completion.
type TxStore struct {
	lock sync.RWMutex

	pendingTxs map[string]*PendingTx
}

func NewTxStore() *TxStore {
	return &TxStore{
		pendingTxs: map[string]*PendingTx{},
	}
}

func (s *TxStore) Add(id string, tx *TxRequest) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if _, exists := s.pendingTxs[id]; exists {
		return fmt.Errorf("transaction id already exists: %s", id)
	}

	s.pendingTxs[id] = &PendingTx{ID: id, Tx: tx, State: Queued}
	return nil
}

func (s *TxStore) MarkInFlight(id string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	pending, exists := s.pendingTxs[id]
	if !exists {
		return fmt.Errorf("no such pending transaction: %s", id)
	}
	if !pending.State.CanTransitionTo(InFlight) {
		return fmt.Errorf("invalid state transition: %s -> %s (tx: %s)", pending.State, InFlight, id)
	}
	pending.State = InFlight
	return nil
}

// Complete moves a pending transaction to a terminal state and drops it from the
// store. Only Confirmed and Errored are terminal.
func (s *TxStore) Complete(id string, final TxState) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	pending, exists := s.pendingTxs[id]
	if !exists {
		return fmt.Errorf("no such pending transaction: %s", id)
	}
	if final != Confirmed && final != Errored {
		return fmt.Errorf("not a terminal state: %s", final)
	}
	if !pending.State.CanTransitionTo(final) {
		return fmt.Errorf("invalid state transition: %s -> %s (tx: %s)", pending.State, final, id)
	}
	delete(s.pendingTxs, id)
	return nil
}

func (s *TxStore) GetPending() []*PendingTx {
	s.lock.RLock()
	defer s.lock.RUnlock()

	return maps.Values(s.pendingTxs)
}

func (s *TxStore) InflightCount() int {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return len(s.pendingTxs)
}

// AccountStore maps account addresses to their transaction stores.
type AccountStore struct {
	store map[string]*TxStore
	lock  sync.RWMutex
}

func NewAccountStore() *AccountStore {
	return &AccountStore{
		store: map[string]*TxStore{},
	}
}

func (c *AccountStore) GetTxStore(fromAddress string) *TxStore {
	c.lock.Lock()
	defer c.lock.Unlock()
	store, ok := c.store[fromAddress]
	if !ok {
		store = NewTxStore()
		c.store[fromAddress] = store
	}
	return store
}

func (c *AccountStore) GetTotalInflightCount() int {
	c.lock.RLock()
	defer c.lock.RUnlock()

	count := 0
	for _, store := range c.store {
		count += store.InflightCount()
	}

	return count
}

func (c *AccountStore) GetAllPending() map[string][]*PendingTx {
	c.lock.RLock()
	defer c.lock.RUnlock()

	allPending := map[string][]*PendingTx{}
	for fromAddress, store := range c.store {
		allPending[fromAddress] = store.GetPending()
	}
	return allPending
}
