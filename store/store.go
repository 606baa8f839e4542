// Package store tracks outpoints held by in-flight transfers so that two
// concurrent transfers from the same address never select the same input.
package store

import (
	"fmt"
	"sync"
	"time"
)

// Reservation records one outpoint held by a transfer.
type Reservation struct {
	Outpoint  string // "txid:vout"
	Address   string
	TxRef     string // caller-chosen transfer reference, later the txid
	CreatedAt int64  // unix seconds
}

// ReservationStore persists outpoint reservations.
type ReservationStore interface {
	// Reserve marks every outpoint as held by txRef. It is all-or-nothing:
	// if any outpoint is already held, nothing is reserved and
	// ErrAlreadyReserved is returned.
	Reserve(address string, outpoints []string, txRef string) error

	// Release drops the given reservations. Unknown outpoints are ignored.
	Release(outpoints []string) error

	// ReleaseByRef drops every reservation held by txRef.
	ReleaseByRef(txRef string) error

	// Reserved returns the set of outpoints currently held for address.
	Reserved(address string) (map[string]bool, error)

	// Reconcile drops reservations of address whose outpoint is not in
	// live, i.e. has been spent on chain. It returns how many were dropped.
	Reconcile(address string, live map[string]bool) (int, error)
}

// nowUnix stamps new reservations.
var nowUnix = func() int64 { return time.Now().Unix() }

// MemStore is an in-memory ReservationStore.
type MemStore struct {
	mu    sync.Mutex
	byOut map[string]*Reservation
}

var _ ReservationStore = (*MemStore)(nil)

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{byOut: make(map[string]*Reservation)}
}

func (m *MemStore) Reserve(address string, outpoints []string, txRef string) error {
	if address == "" || txRef == "" || len(outpoints) == 0 {
		return fmt.Errorf("%w: address, outpoints and txRef are required", ErrNilParam)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, op := range outpoints {
		if r, ok := m.byOut[op]; ok {
			return fmt.Errorf("%w: %s (held by %s)", ErrAlreadyReserved, op, r.TxRef)
		}
	}
	now := nowUnix()
	for _, op := range outpoints {
		m.byOut[op] = &Reservation{Outpoint: op, Address: address, TxRef: txRef, CreatedAt: now}
	}
	return nil
}

func (m *MemStore) Release(outpoints []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, op := range outpoints {
		delete(m.byOut, op)
	}
	return nil
}

func (m *MemStore) ReleaseByRef(txRef string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for op, r := range m.byOut {
		if r.TxRef == txRef {
			delete(m.byOut, op)
		}
	}
	return nil
}

func (m *MemStore) Reserved(address string) (map[string]bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]bool)
	for op, r := range m.byOut {
		if r.Address == address {
			out[op] = true
		}
	}
	return out, nil
}

func (m *MemStore) Reconcile(address string, live map[string]bool) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for op, r := range m.byOut {
		if r.Address == address && !live[op] {
			delete(m.byOut, op)
			n++
		}
	}
	return n, nil
}
