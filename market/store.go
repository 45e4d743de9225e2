package market

import (
	"context"

	"github.com/holiman/uint256"

	"github.com/pflow-xyz/go-rental-market/evm"
)

// Rental is the active occupancy record for an offer hash: who accepted,
// and when their access expires.
type Rental struct {
	Borrower       evm.Address
	ExpirationDate uint64
}

// Store holds the marketplace's four shared maps. Production deployments
// bind it to persistent storage; tests use the memory backend. All methods
// must be safe for concurrent use — the marketplace serializes transitions
// above this layer, but pre-flight validation reads concurrently.
type Store interface {
	// IsCreated reports whether an offer hash has been created.
	IsCreated(ctx context.Context, hash evm.Hash) (bool, error)

	// SetCreated marks an offer hash created.
	SetCreated(ctx context.Context, hash evm.Hash) error

	// NonceDeadline returns the deadline recorded for (lender, nonce), or
	// zero if the nonce has never been used.
	NonceDeadline(ctx context.Context, lender evm.Address, nonce *uint256.Int) (uint64, error)

	// SetNonceDeadline records the deadline for (lender, nonce).
	SetNonceDeadline(ctx context.Context, lender evm.Address, nonce *uint256.Int, deadline uint64) error

	// CommitmentNonce returns the most recent nonce that claimed a
	// commitment in a registry, or nil if unclaimed.
	CommitmentNonce(ctx context.Context, registry evm.Address, commitmentID uint64) (*uint256.Int, error)

	// SetCommitmentNonce links a commitment to the nonce that claimed it.
	SetCommitmentNonce(ctx context.Context, registry evm.Address, commitmentID uint64, nonce *uint256.Int) error

	// Rental returns the rental record for an offer hash, if any.
	Rental(ctx context.Context, hash evm.Hash) (Rental, bool, error)

	// SetRental writes the rental record for an offer hash.
	SetRental(ctx context.Context, hash evm.Hash, rental Rental) error

	// Close releases the store's resources.
	Close() error
}
