package registry

import (
	"context"
	"errors"
	"sync"

	"github.com/holiman/uint256"

	"github.com/pflow-xyz/go-rental-market/evm"
)

// ErrTokenNotFound is returned when a fee token address resolves to nothing.
var ErrTokenNotFound = errors.New("registry: fee token not found")

// FeeToken is the minimal ERC-20 surface the fee orchestrator needs.
type FeeToken interface {
	// Transfer moves amount from one account to another. A failed transfer
	// returns an error and moves nothing.
	Transfer(ctx context.Context, from, to evm.Address, amount *uint256.Int) error

	// BalanceOf returns the balance of an account.
	BalanceOf(ctx context.Context, owner evm.Address) (*uint256.Int, error)
}

// TokenResolver maps a fee token address to its FeeToken binding. An
// unknown address yields ErrTokenNotFound.
type TokenResolver interface {
	FeeToken(addr evm.Address) (FeeToken, error)
}

// MemoryToken is an in-process ERC-20 style balance ledger.
type MemoryToken struct {
	mu       sync.RWMutex
	balances map[evm.Address]*uint256.Int
}

// NewMemoryToken creates an empty ledger.
func NewMemoryToken() *MemoryToken {
	return &MemoryToken{balances: make(map[evm.Address]*uint256.Int)}
}

// Mint credits an account.
func (t *MemoryToken) Mint(owner evm.Address, amount *uint256.Int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	b, ok := t.balances[owner]
	if !ok {
		b = uint256.NewInt(0)
		t.balances[owner] = b
	}
	b.Add(b, amount)
}

// Transfer moves amount between accounts, failing on insufficient balance.
func (t *MemoryToken) Transfer(_ context.Context, from, to evm.Address, amount *uint256.Int) error {
	if amount.IsZero() {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	fromBal, ok := t.balances[from]
	if !ok || fromBal.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	toBal, ok := t.balances[to]
	if !ok {
		toBal = uint256.NewInt(0)
		t.balances[to] = toBal
	}
	fromBal.Sub(fromBal, amount)
	toBal.Add(toBal, amount)
	return nil
}

// BalanceOf returns the balance of an account.
func (t *MemoryToken) BalanceOf(_ context.Context, owner evm.Address) (*uint256.Int, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if b, ok := t.balances[owner]; ok {
		return b.Clone(), nil
	}
	return uint256.NewInt(0), nil
}

// MemoryTokens is a TokenResolver over a fixed address->token map.
type MemoryTokens map[evm.Address]FeeToken

// FeeToken resolves an address to its token binding.
func (m MemoryTokens) FeeToken(addr evm.Address) (FeeToken, error) {
	t, ok := m[addr]
	if !ok {
		return nil, ErrTokenNotFound
	}
	return t, nil
}

var (
	_ FeeToken      = (*MemoryToken)(nil)
	_ TokenResolver = (MemoryTokens)(nil)
)
