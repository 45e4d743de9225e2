// Package registry defines the external collaborators the marketplace
// consumes: the ERC-7589 style roles registry (token commitments and role
// grants) and the ERC-20 style fee token. Both are interfaces with in-memory
// reference implementations used for tests and off-chain simulation;
// production deployments bind them to the chain.
package registry

import (
	"context"
	"errors"
	"sync"

	"github.com/holiman/uint256"

	"github.com/pflow-xyz/go-rental-market/evm"
)

var (
	// ErrCommitmentNotFound is returned for an unknown or released commitment.
	ErrCommitmentNotFound = errors.New("registry: commitment not found")

	// ErrInsufficientBalance is returned when the grantor does not hold the
	// balance being committed.
	ErrInsufficientBalance = errors.New("registry: insufficient balance")

	// ErrActiveGrants is returned when releasing a commitment that still has
	// an unexpired, non-revocable role grant.
	ErrActiveGrants = errors.New("registry: commitment has unexpired role grants")

	// ErrGrantNotFound is returned when revoking a grant that does not exist.
	ErrGrantNotFound = errors.New("registry: role grant not found")
)

// Commitment is an escrow record locking a token balance against rentals.
type Commitment struct {
	Grantor      evm.Address
	TokenAddress evm.Address
	TokenID      *uint256.Int
	TokenAmount  *uint256.Int
}

// RoleAssignment is a capability granted out of a commitment.
type RoleAssignment struct {
	Role           evm.Role
	Grantee        evm.Address
	ExpirationDate uint64
	Revocable      bool
	Data           []byte
}

// RolesRegistry tracks token commitments and per-token role grants.
// It is the external capability-grant service the marketplace depends on.
type RolesRegistry interface {
	// Address identifies the registry deployment; the marketplace scopes its
	// commitment bookkeeping per registry address.
	Address() evm.Address

	// CommitTokens escrows amount units of tokenID owned by grantor and
	// returns a fresh commitment id. Fails if grantor lacks the balance.
	CommitTokens(ctx context.Context, grantor, tokenAddress evm.Address, tokenID, amount *uint256.Int) (uint64, error)

	// ReleaseTokens returns the escrowed balance to its grantor. Fails while
	// any non-revocable grant tied to the commitment is unexpired.
	ReleaseTokens(ctx context.Context, commitmentID uint64) error

	// GrantRole records a capability against a commitment.
	GrantRole(ctx context.Context, commitmentID uint64, role evm.Role, grantee evm.Address, expirationDate uint64, revocable bool, data []byte) error

	// RevokeRole removes a capability early.
	RevokeRole(ctx context.Context, commitmentID uint64, role evm.Role, grantee evm.Address) error

	// CommitmentOf looks up a commitment record.
	CommitmentOf(ctx context.Context, commitmentID uint64) (Commitment, bool, error)

	// BalanceOf returns the uncommitted balance grantor holds of tokenID.
	BalanceOf(ctx context.Context, owner, tokenAddress evm.Address, tokenID *uint256.Int) (*uint256.Int, error)
}

// MemoryRegistry is an in-process RolesRegistry. It keeps a token balance
// ledger so that commit/release move real balances, and enforces the
// registry-side invariants the marketplace relies on.
type MemoryRegistry struct {
	mu          sync.RWMutex
	addr        evm.Address
	clock       func() uint64
	nextID      uint64
	balances    map[balanceKey]*uint256.Int
	commitments map[uint64]Commitment
	grants      map[uint64][]RoleAssignment
}

type balanceKey struct {
	owner evm.Address
	token evm.Address
	id    [32]byte
}

// NewMemoryRegistry creates a registry at the given address using the clock
// for grant expiry checks.
func NewMemoryRegistry(addr evm.Address, clock func() uint64) *MemoryRegistry {
	return &MemoryRegistry{
		addr:        addr,
		clock:       clock,
		balances:    make(map[balanceKey]*uint256.Int),
		commitments: make(map[uint64]Commitment),
		grants:      make(map[uint64][]RoleAssignment),
	}
}

// Address returns the registry's address.
func (r *MemoryRegistry) Address() evm.Address {
	return r.addr
}

// SetBalance seeds the ledger with an uncommitted balance. Test helper
// standing in for the underlying token standard's mint/transfer.
func (r *MemoryRegistry) SetBalance(owner, tokenAddress evm.Address, tokenID, amount *uint256.Int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.balances[key(owner, tokenAddress, tokenID)] = amount.Clone()
}

// BalanceOf returns the uncommitted balance owner holds of tokenID.
func (r *MemoryRegistry) BalanceOf(_ context.Context, owner, tokenAddress evm.Address, tokenID *uint256.Int) (*uint256.Int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if b, ok := r.balances[key(owner, tokenAddress, tokenID)]; ok {
		return b.Clone(), nil
	}
	return uint256.NewInt(0), nil
}

// CommitTokens escrows a balance and returns a fresh commitment id.
func (r *MemoryRegistry) CommitTokens(_ context.Context, grantor, tokenAddress evm.Address, tokenID, amount *uint256.Int) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := key(grantor, tokenAddress, tokenID)
	balance, ok := r.balances[k]
	if !ok || balance.Cmp(amount) < 0 {
		return 0, ErrInsufficientBalance
	}
	balance.Sub(balance, amount)

	r.nextID++
	r.commitments[r.nextID] = Commitment{
		Grantor:      grantor,
		TokenAddress: tokenAddress,
		TokenID:      tokenID.Clone(),
		TokenAmount:  amount.Clone(),
	}
	return r.nextID, nil
}

// ReleaseTokens returns the escrowed balance to its grantor.
func (r *MemoryRegistry) ReleaseTokens(_ context.Context, commitmentID uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.commitments[commitmentID]
	if !ok {
		return ErrCommitmentNotFound
	}

	now := r.clock()
	for _, g := range r.grants[commitmentID] {
		if !g.Revocable && g.ExpirationDate > now {
			return ErrActiveGrants
		}
	}

	k := key(c.Grantor, c.TokenAddress, c.TokenID)
	balance, ok := r.balances[k]
	if !ok {
		balance = uint256.NewInt(0)
		r.balances[k] = balance
	}
	balance.Add(balance, c.TokenAmount)

	delete(r.commitments, commitmentID)
	delete(r.grants, commitmentID)
	return nil
}

// GrantRole records a capability against a commitment. A grant for the same
// (role, grantee) pair replaces the previous one.
func (r *MemoryRegistry) GrantRole(_ context.Context, commitmentID uint64, role evm.Role, grantee evm.Address, expirationDate uint64, revocable bool, data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.commitments[commitmentID]; !ok {
		return ErrCommitmentNotFound
	}

	assignment := RoleAssignment{
		Role:           role,
		Grantee:        grantee,
		ExpirationDate: expirationDate,
		Revocable:      revocable,
		Data:           append([]byte(nil), data...),
	}
	grants := r.grants[commitmentID]
	for i, g := range grants {
		if g.Role == role && g.Grantee == grantee {
			grants[i] = assignment
			return nil
		}
	}
	r.grants[commitmentID] = append(grants, assignment)
	return nil
}

// RevokeRole removes a capability early.
func (r *MemoryRegistry) RevokeRole(_ context.Context, commitmentID uint64, role evm.Role, grantee evm.Address) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	grants := r.grants[commitmentID]
	for i, g := range grants {
		if g.Role == role && g.Grantee == grantee {
			r.grants[commitmentID] = append(grants[:i], grants[i+1:]...)
			return nil
		}
	}
	return ErrGrantNotFound
}

// CommitmentOf looks up a commitment record.
func (r *MemoryRegistry) CommitmentOf(_ context.Context, commitmentID uint64) (Commitment, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.commitments[commitmentID]
	if !ok {
		return Commitment{}, false, nil
	}
	return Commitment{
		Grantor:      c.Grantor,
		TokenAddress: c.TokenAddress,
		TokenID:      c.TokenID.Clone(),
		TokenAmount:  c.TokenAmount.Clone(),
	}, true, nil
}

// GrantsOf returns the current assignments for a commitment.
func (r *MemoryRegistry) GrantsOf(commitmentID uint64) []RoleAssignment {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]RoleAssignment, len(r.grants[commitmentID]))
	copy(out, r.grants[commitmentID])
	return out
}

func key(owner, token evm.Address, id *uint256.Int) balanceKey {
	if id == nil {
		id = uint256.NewInt(0)
	}
	return balanceKey{owner: owner, token: token, id: id.Bytes32()}
}

var _ RolesRegistry = (*MemoryRegistry)(nil)
