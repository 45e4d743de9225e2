// Package config provides the marketplace's read-mostly configuration
// surface: trusted token lists, fee and royalty tables, the offer deadline
// window, the pause gate, and the zero-fee policy flag. The Provider
// interface is what the marketplace consumes; MemoryProvider is the
// in-process implementation with owner-only setters.
package config

import (
	"errors"
	"sync"

	"github.com/holiman/uint256"

	"github.com/pflow-xyz/go-rental-market/evm"
	"github.com/pflow-xyz/go-rental-market/percent"
	"github.com/pflow-xyz/go-rental-market/registry"
)

var (
	// ErrNotOwner is returned when a non-owner calls a setter.
	ErrNotOwner = errors.New("config: caller is not the owner")

	// ErrInvalidPercentage is returned when a fee or royalty percentage is
	// out of range, or when marketplace fee + royalty would reach 100%.
	ErrInvalidPercentage = errors.New("config: invalid percentage")
)

// RoyaltyInfo is the creator royalty configuration of a token collection.
// A zero Treasury with a non-zero percentage burns the royalty silently.
type RoyaltyInfo struct {
	Treasury   evm.Address
	Percentage *uint256.Int
}

// Provider is the read-only configuration surface the marketplace consumes.
type Provider interface {
	// IsTrustedToken reports whether a token or fee-token address is
	// marketplace-trusted.
	IsTrustedToken(addr evm.Address) bool

	// RolesRegistryOf returns the roles registry bound to a token
	// collection, or nil if none is configured.
	RolesRegistryOf(tokenAddress evm.Address) registry.RolesRegistry

	// MarketplaceFeeOf returns the marketplace fee percentage for a
	// collection, in percent fixed point.
	MarketplaceFeeOf(tokenAddress evm.Address) *uint256.Int

	// RoyaltyInfoOf returns the creator royalty configuration.
	RoyaltyInfoOf(tokenAddress evm.Address) RoyaltyInfo

	// Treasury is the marketplace fee recipient.
	Treasury() evm.Address

	// MaxDeadline is the farthest an offer deadline may sit in the future,
	// in seconds.
	MaxDeadline() uint64

	// Paused reports whether the administrative pause gate is engaged.
	Paused() bool

	// RequireFeeUnlessPrivateOffer reports the zero-fee policy: when true,
	// an open offer must carry a non-zero fee rate.
	RequireFeeUnlessPrivateOffer() bool
}

// MemoryProvider is an in-process Provider with owner-only mutation.
type MemoryProvider struct {
	mu          sync.RWMutex
	owner       evm.Address
	treasury    evm.Address
	maxDeadline uint64
	paused      bool
	requireFee  bool
	trusted     map[evm.Address]bool
	registries  map[evm.Address]registry.RolesRegistry
	fees        map[evm.Address]*uint256.Int
	royalties   map[evm.Address]RoyaltyInfo
}

// NewMemoryProvider creates a provider owned by owner. The treasury defaults
// to the owner and maxDeadline to 90 days.
func NewMemoryProvider(owner evm.Address) *MemoryProvider {
	return &MemoryProvider{
		owner:       owner,
		treasury:    owner,
		maxDeadline: 90 * 24 * 3600,
		trusted:     make(map[evm.Address]bool),
		registries:  make(map[evm.Address]registry.RolesRegistry),
		fees:        make(map[evm.Address]*uint256.Int),
		royalties:   make(map[evm.Address]RoyaltyInfo),
	}
}

// TrustToken marks a token (or fee token) as marketplace-trusted and binds
// its roles registry. Pass nil for plain fee tokens.
func (p *MemoryProvider) TrustToken(caller, addr evm.Address, reg registry.RolesRegistry) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if caller != p.owner {
		return ErrNotOwner
	}
	p.trusted[addr] = true
	if reg != nil {
		p.registries[addr] = reg
	}
	return nil
}

// SetMarketplaceFee sets the fee percentage for a collection. The combined
// marketplace fee and royalty must stay strictly below 100%.
func (p *MemoryProvider) SetMarketplaceFee(caller, tokenAddress evm.Address, pct *uint256.Int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if caller != p.owner {
		return ErrNotOwner
	}
	if !percent.Valid(pct) || !p.splitBelowMax(pct, p.royaltyLocked(tokenAddress).Percentage) {
		return ErrInvalidPercentage
	}
	p.fees[tokenAddress] = pct.Clone()
	return nil
}

// SetRoyaltyInfo sets the creator royalty for a collection.
func (p *MemoryProvider) SetRoyaltyInfo(caller, tokenAddress evm.Address, info RoyaltyInfo) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if caller != p.owner {
		return ErrNotOwner
	}
	if !percent.Valid(info.Percentage) || !p.splitBelowMax(p.feeLocked(tokenAddress), info.Percentage) {
		return ErrInvalidPercentage
	}
	p.royalties[tokenAddress] = RoyaltyInfo{
		Treasury:   info.Treasury,
		Percentage: info.Percentage.Clone(),
	}
	return nil
}

// SetTreasury changes the marketplace fee recipient.
func (p *MemoryProvider) SetTreasury(caller, treasury evm.Address) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if caller != p.owner {
		return ErrNotOwner
	}
	p.treasury = treasury
	return nil
}

// SetMaxDeadline changes the offer deadline window.
func (p *MemoryProvider) SetMaxDeadline(caller evm.Address, seconds uint64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if caller != p.owner {
		return ErrNotOwner
	}
	p.maxDeadline = seconds
	return nil
}

// SetPaused engages or clears the pause gate.
func (p *MemoryProvider) SetPaused(caller evm.Address, paused bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if caller != p.owner {
		return ErrNotOwner
	}
	p.paused = paused
	return nil
}

// SetRequireFeeUnlessPrivateOffer sets the zero-fee policy flag.
func (p *MemoryProvider) SetRequireFeeUnlessPrivateOffer(caller evm.Address, require bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if caller != p.owner {
		return ErrNotOwner
	}
	p.requireFee = require
	return nil
}

// IsTrustedToken reports whether addr is marketplace-trusted.
func (p *MemoryProvider) IsTrustedToken(addr evm.Address) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.trusted[addr]
}

// RolesRegistryOf returns the registry bound to a collection, or nil.
func (p *MemoryProvider) RolesRegistryOf(tokenAddress evm.Address) registry.RolesRegistry {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.registries[tokenAddress]
}

// MarketplaceFeeOf returns the fee percentage for a collection (zero if unset).
func (p *MemoryProvider) MarketplaceFeeOf(tokenAddress evm.Address) *uint256.Int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.feeLocked(tokenAddress).Clone()
}

// RoyaltyInfoOf returns the royalty configuration for a collection.
func (p *MemoryProvider) RoyaltyInfoOf(tokenAddress evm.Address) RoyaltyInfo {
	p.mu.RLock()
	defer p.mu.RUnlock()
	info := p.royaltyLocked(tokenAddress)
	return RoyaltyInfo{Treasury: info.Treasury, Percentage: info.Percentage.Clone()}
}

// Treasury returns the marketplace fee recipient.
func (p *MemoryProvider) Treasury() evm.Address {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.treasury
}

// MaxDeadline returns the offer deadline window in seconds.
func (p *MemoryProvider) MaxDeadline() uint64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.maxDeadline
}

// Paused reports whether the pause gate is engaged.
func (p *MemoryProvider) Paused() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.paused
}

// RequireFeeUnlessPrivateOffer reports the zero-fee policy flag.
func (p *MemoryProvider) RequireFeeUnlessPrivateOffer() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.requireFee
}

func (p *MemoryProvider) feeLocked(tokenAddress evm.Address) *uint256.Int {
	if f, ok := p.fees[tokenAddress]; ok {
		return f
	}
	return uint256.NewInt(0)
}

func (p *MemoryProvider) royaltyLocked(tokenAddress evm.Address) RoyaltyInfo {
	if r, ok := p.royalties[tokenAddress]; ok {
		return r
	}
	return RoyaltyInfo{Percentage: uint256.NewInt(0)}
}

// splitBelowMax reports whether fee + royalty stays strictly below 100%,
// which keeps the lender's remainder share non-negative by construction.
func (p *MemoryProvider) splitBelowMax(fee, royalty *uint256.Int) bool {
	sum, overflow := new(uint256.Int).AddOverflow(fee, royalty)
	return !overflow && sum.Cmp(percent.MaxPercentage) < 0
}

var _ Provider = (*MemoryProvider)(nil)
