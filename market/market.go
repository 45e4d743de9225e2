// Package market implements the rental marketplace core: the offer
// lifecycle state machine (create, accept, cancel, end, release), its
// validation engine, and the fee transfer orchestration.
//
// Transitions are serialized under a single marketplace mutex, reproducing
// the first-committed-wins guarantee of a serialized-transaction host: of
// two racing accepts on the same offer, exactly one observes "no active
// rental" and succeeds. Every rejection leaves the store untouched.
package market

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/holiman/uint256"
	"github.com/rs/zerolog"

	"github.com/pflow-xyz/go-rental-market/config"
	"github.com/pflow-xyz/go-rental-market/events"
	"github.com/pflow-xyz/go-rental-market/evm"
	"github.com/pflow-xyz/go-rental-market/offer"
	"github.com/pflow-xyz/go-rental-market/registry"
)

// Clock returns the current time in seconds since epoch. All temporal
// comparisons in the marketplace read one shared clock; there are no grace
// periods.
type Clock func() uint64

// Marketplace orchestrates the rental offer lifecycle over an injected
// store, configuration provider, and fee token resolver.
type Marketplace struct {
	mu     sync.Mutex
	store  Store
	cfg    config.Provider
	tokens registry.TokenResolver
	events events.Store
	clock  Clock
	log    zerolog.Logger
}

// Option configures a Marketplace.
type Option func(*Marketplace)

// WithClock replaces the wall clock, e.g. for tests or block-time binding.
func WithClock(clock Clock) Option {
	return func(m *Marketplace) { m.clock = clock }
}

// WithLogger sets the structured logger. Defaults to a no-op logger.
func WithLogger(log zerolog.Logger) Option {
	return func(m *Marketplace) { m.log = log }
}

// WithEvents attaches an event store; every successful transition appends
// one event to it.
func WithEvents(store events.Store) Option {
	return func(m *Marketplace) { m.events = store }
}

// New creates a marketplace over the given store, configuration provider,
// and fee token resolver.
func New(store Store, cfg config.Provider, tokens registry.TokenResolver, opts ...Option) *Marketplace {
	m := &Marketplace{
		store:  store,
		cfg:    cfg,
		tokens: tokens,
		clock:  func() uint64 { return uint64(time.Now().Unix()) },
		log:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Now returns the marketplace's current clock reading.
func (m *Marketplace) Now() uint64 {
	return m.clock()
}

// CreateRentalOffer validates and records a new offer for caller, who must
// be the offer's lender. If the offer carries no commitment id, a fresh
// commitment is created in the token's roles registry, escrowing the offered
// balance. The returned offer is a copy with the assigned commitment id;
// its hash is the offer's storage key from here on.
func (m *Marketplace) CreateRentalOffer(ctx context.Context, caller evm.Address, o *offer.RentalOffer) (*offer.RentalOffer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.validateCreate(ctx, caller, o); err != nil {
		return nil, err
	}

	reg := m.cfg.RolesRegistryOf(o.TokenAddress)
	o = o.Clone()
	fresh := o.CommitmentID == 0
	if fresh {
		id, err := reg.CommitTokens(ctx, o.Lender, o.TokenAddress, o.TokenID, o.TokenAmount)
		if err != nil {
			return nil, fmt.Errorf("%w: commit tokens: %v", ErrTransfer, err)
		}
		o.CommitmentID = id
	}

	// A store write failure after the escrow must leave no trace: the nonce
	// goes back to unused (which also unlinks the commitment-nonce row) and
	// a commitment made here is released.
	revert := func() {
		if err := m.store.SetNonceDeadline(ctx, o.Lender, o.Nonce, 0); err != nil {
			m.log.Error().Err(err).Str("nonce", o.Nonce.Dec()).Msg("nonce rollback failed")
		}
		if fresh {
			if err := reg.ReleaseTokens(ctx, o.CommitmentID); err != nil {
				m.log.Error().Err(err).Uint64("commitment", o.CommitmentID).Msg("escrow release failed")
			}
		}
	}

	hash := o.Hash()
	if err := m.store.SetCommitmentNonce(ctx, reg.Address(), o.CommitmentID, o.Nonce); err != nil {
		revert()
		return nil, err
	}
	if err := m.store.SetNonceDeadline(ctx, o.Lender, o.Nonce, o.Deadline); err != nil {
		revert()
		return nil, err
	}
	if err := m.store.SetCreated(ctx, hash); err != nil {
		revert()
		return nil, err
	}

	m.emitOfferCreated(ctx, hash, o)
	m.log.Info().
		Str("offer", hash.Hex()).
		Str("lender", o.Lender.Hex()).
		Str("nonce", o.Nonce.Dec()).
		Uint64("commitment", o.CommitmentID).
		Msg("rental offer created")
	return o, nil
}

// AcceptRentalOffer starts a rental of duration seconds for caller. Fees
// are computed as feeAmountPerSecond * duration and split between the
// marketplace treasury, the creator royalty, and the lender; the offer's
// roles are granted to the caller until now + duration.
func (m *Marketplace) AcceptRentalOffer(ctx context.Context, caller evm.Address, o *offer.RentalOffer, duration uint64) (Rental, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	hash := o.Hash()
	now := m.clock()
	if err := m.validateAccept(ctx, caller, o, hash, now, duration); err != nil {
		return Rental{}, err
	}
	expiration := now + duration

	undo, err := m.transferFees(ctx, caller, o, duration)
	if err != nil {
		return Rental{}, err
	}

	reg := m.cfg.RolesRegistryOf(o.TokenAddress)
	granted := 0
	for i, role := range o.Roles {
		if err := reg.GrantRole(ctx, o.CommitmentID, role, caller, expiration, false, o.RolesData[i]); err != nil {
			for j := 0; j < granted; j++ {
				reg.RevokeRole(ctx, o.CommitmentID, o.Roles[j], caller)
			}
			undo(ctx)
			return Rental{}, fmt.Errorf("%w: grant role: %v", ErrTransfer, err)
		}
		granted++
	}

	rental := Rental{Borrower: caller, ExpirationDate: expiration}
	if err := m.store.SetRental(ctx, hash, rental); err != nil {
		for _, role := range o.Roles {
			reg.RevokeRole(ctx, o.CommitmentID, role, caller)
		}
		undo(ctx)
		return Rental{}, err
	}

	m.emit(ctx, events.TypeRentalStarted, hash, events.RentalStarted{
		Lender:         o.Lender.Hex(),
		Nonce:          o.Nonce.Dec(),
		Borrower:       caller.Hex(),
		ExpirationDate: expiration,
	})
	m.log.Info().
		Str("offer", hash.Hex()).
		Str("borrower", caller.Hex()).
		Uint64("expiration", expiration).
		Msg("rental started")
	return rental, nil
}

// CancelRentalOffer invalidates an offer by forcing its nonce deadline to
// now. If no rental is active, the commitment is released immediately;
// otherwise it stays locked until the active rental expires and the lender
// reclaims it via BatchReleaseTokens.
func (m *Marketplace) CancelRentalOffer(ctx context.Context, caller evm.Address, o *offer.RentalOffer) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	hash := o.Hash()
	now := m.clock()
	if err := m.validateCancel(ctx, caller, o, hash, now); err != nil {
		return err
	}

	rental, ok, err := m.store.Rental(ctx, hash)
	if err != nil {
		return err
	}
	prev, err := m.store.NonceDeadline(ctx, o.Lender, o.Nonce)
	if err != nil {
		return err
	}

	// The store write goes first: if the registry release then fails, the
	// deadline is restored and the offer is untouched.
	if err := m.store.SetNonceDeadline(ctx, o.Lender, o.Nonce, now); err != nil {
		return err
	}
	if (!ok || rental.ExpirationDate <= now) && o.CommitmentID != 0 {
		reg := m.cfg.RolesRegistryOf(o.TokenAddress)
		if err := reg.ReleaseTokens(ctx, o.CommitmentID); err != nil {
			if rerr := m.store.SetNonceDeadline(ctx, o.Lender, o.Nonce, prev); rerr != nil {
				m.log.Error().Err(rerr).Str("nonce", o.Nonce.Dec()).Msg("nonce deadline restore failed")
			}
			return fmt.Errorf("%w: release tokens: %v", ErrTransfer, err)
		}
	}

	m.emit(ctx, events.TypeRentalOfferCancelled, hash, events.RentalOfferCancelled{
		Lender: o.Lender.Hex(),
		Nonce:  o.Nonce.Dec(),
	})
	m.log.Info().
		Str("offer", hash.Hex()).
		Str("lender", o.Lender.Hex()).
		Msg("rental offer cancelled")
	return nil
}

// EndRental lets the active borrower terminate early: every granted role is
// revoked and the rental's expiration is forced to now.
func (m *Marketplace) EndRental(ctx context.Context, caller evm.Address, o *offer.RentalOffer) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	hash := o.Hash()
	now := m.clock()
	rental, err := m.validateEndRental(ctx, caller, o, hash, now)
	if err != nil {
		return err
	}

	reg := m.cfg.RolesRegistryOf(o.TokenAddress)
	for _, role := range o.Roles {
		if err := reg.RevokeRole(ctx, o.CommitmentID, role, caller); err != nil {
			return fmt.Errorf("%w: revoke role: %v", ErrTransfer, err)
		}
	}

	rental.ExpirationDate = now
	if err := m.store.SetRental(ctx, hash, rental); err != nil {
		return err
	}

	m.emit(ctx, events.TypeRentalEnded, hash, events.RentalEnded{
		Lender: o.Lender.Hex(),
		Nonce:  o.Nonce.Dec(),
	})
	m.log.Info().
		Str("offer", hash.Hex()).
		Str("borrower", caller.Hex()).
		Msg("rental ended")
	return nil
}

// RentalOf returns the rental record for an offer, if any. Read-only.
func (m *Marketplace) RentalOf(ctx context.Context, o *offer.RentalOffer) (Rental, bool, error) {
	return m.store.Rental(ctx, o.Hash())
}

func (m *Marketplace) emitOfferCreated(ctx context.Context, hash evm.Hash, o *offer.RentalOffer) {
	roles := make([]string, len(o.Roles))
	for i, r := range o.Roles {
		roles[i] = r.Hex()
	}
	rolesData := make([]string, len(o.RolesData))
	for i, d := range o.RolesData {
		rolesData[i] = fmt.Sprintf("0x%x", d)
	}
	m.emit(ctx, events.TypeRentalOfferCreated, hash, events.RentalOfferCreated{
		Nonce:              dec(o.Nonce),
		TokenAddress:       o.TokenAddress.Hex(),
		TokenID:            dec(o.TokenID),
		TokenAmount:        dec(o.TokenAmount),
		CommitmentID:       o.CommitmentID,
		Lender:             o.Lender.Hex(),
		Borrower:           o.Borrower.Hex(),
		FeeTokenAddress:    o.FeeTokenAddress.Hex(),
		FeeAmountPerSecond: dec(o.FeeAmountPerSecond),
		Deadline:           o.Deadline,
		MinDuration:        o.MinDuration,
		Roles:              roles,
		RolesData:          rolesData,
	})
}

func dec(v *uint256.Int) string {
	if v == nil {
		return "0"
	}
	return v.Dec()
}

func (m *Marketplace) emit(ctx context.Context, eventType string, hash evm.Hash, payload any) {
	if m.events == nil {
		return
	}
	e, err := events.New(eventType, hash, m.clock(), payload)
	if err != nil {
		m.log.Error().Err(err).Str("type", eventType).Msg("encode event")
		return
	}
	if err := m.events.Append(ctx, e); err != nil {
		m.log.Error().Err(err).Str("type", eventType).Msg("append event")
	}
}
