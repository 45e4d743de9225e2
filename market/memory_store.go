package market

import (
	"context"
	"sync"

	"github.com/holiman/uint256"

	"github.com/pflow-xyz/go-rental-market/evm"
)

// MemoryStore is the in-memory Store backend.
type MemoryStore struct {
	mu          sync.RWMutex
	created     map[evm.Hash]bool
	deadlines   map[nonceKey]uint64
	commitments map[commitmentKey][32]byte
	rentals     map[evm.Hash]Rental
}

type nonceKey struct {
	lender evm.Address
	nonce  [32]byte
}

type commitmentKey struct {
	registry     evm.Address
	commitmentID uint64
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		created:     make(map[evm.Hash]bool),
		deadlines:   make(map[nonceKey]uint64),
		commitments: make(map[commitmentKey][32]byte),
		rentals:     make(map[evm.Hash]Rental),
	}
}

// IsCreated reports whether an offer hash has been created.
func (s *MemoryStore) IsCreated(_ context.Context, hash evm.Hash) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.created[hash], nil
}

// SetCreated marks an offer hash created.
func (s *MemoryStore) SetCreated(_ context.Context, hash evm.Hash) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.created[hash] = true
	return nil
}

// NonceDeadline returns the deadline for (lender, nonce), zero if unused.
func (s *MemoryStore) NonceDeadline(_ context.Context, lender evm.Address, nonce *uint256.Int) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.deadlines[nonceKey{lender: lender, nonce: nonce.Bytes32()}], nil
}

// SetNonceDeadline records the deadline for (lender, nonce).
func (s *MemoryStore) SetNonceDeadline(_ context.Context, lender evm.Address, nonce *uint256.Int, deadline uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deadlines[nonceKey{lender: lender, nonce: nonce.Bytes32()}] = deadline
	return nil
}

// CommitmentNonce returns the nonce that claimed a commitment, nil if none.
func (s *MemoryStore) CommitmentNonce(_ context.Context, registry evm.Address, commitmentID uint64) (*uint256.Int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.commitments[commitmentKey{registry: registry, commitmentID: commitmentID}]
	if !ok {
		return nil, nil
	}
	return new(uint256.Int).SetBytes(b[:]), nil
}

// SetCommitmentNonce links a commitment to the nonce that claimed it.
func (s *MemoryStore) SetCommitmentNonce(_ context.Context, registry evm.Address, commitmentID uint64, nonce *uint256.Int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commitments[commitmentKey{registry: registry, commitmentID: commitmentID}] = nonce.Bytes32()
	return nil
}

// Rental returns the rental record for an offer hash, if any.
func (s *MemoryStore) Rental(_ context.Context, hash evm.Hash) (Rental, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rentals[hash]
	return r, ok, nil
}

// SetRental writes the rental record for an offer hash.
func (s *MemoryStore) SetRental(_ context.Context, hash evm.Hash, rental Rental) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rentals[hash] = rental
	return nil
}

// Close is a no-op for the memory backend.
func (s *MemoryStore) Close() error {
	return nil
}

var _ Store = (*MemoryStore)(nil)
