package market

import (
	"context"
	"fmt"
	"math"

	"github.com/pflow-xyz/go-rental-market/evm"
	"github.com/pflow-xyz/go-rental-market/offer"
)

// The validation engine: pure predicates over the store, registry, and
// configuration. Nothing here mutates state, so the exported Validate*
// methods double as off-chain pre-flight checks.

// ValidateCreate checks every precondition of CreateRentalOffer without
// mutating anything.
func (m *Marketplace) ValidateCreate(ctx context.Context, caller evm.Address, o *offer.RentalOffer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.validateCreate(ctx, caller, o)
}

// ValidateAccept checks every precondition of AcceptRentalOffer without
// mutating anything.
func (m *Marketplace) ValidateAccept(ctx context.Context, caller evm.Address, o *offer.RentalOffer, duration uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.validateAccept(ctx, caller, o, o.Hash(), m.clock(), duration)
}

// ValidateCancel checks every precondition of CancelRentalOffer without
// mutating anything.
func (m *Marketplace) ValidateCancel(ctx context.Context, caller evm.Address, o *offer.RentalOffer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.validateCancel(ctx, caller, o, o.Hash(), m.clock())
}

// ValidateEndRental checks every precondition of EndRental without mutating
// anything.
func (m *Marketplace) ValidateEndRental(ctx context.Context, caller evm.Address, o *offer.RentalOffer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, err := m.validateEndRental(ctx, caller, o, o.Hash(), m.clock())
	return err
}

func (m *Marketplace) validateCreate(ctx context.Context, caller evm.Address, o *offer.RentalOffer) error {
	if m.cfg.Paused() {
		return ErrPaused
	}
	if caller != o.Lender {
		return ErrNotLender
	}
	if err := o.ValidateShape(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidOffer, err)
	}
	if !m.cfg.IsTrustedToken(o.TokenAddress) {
		return ErrUntrustedToken
	}
	if !m.cfg.IsTrustedToken(o.FeeTokenAddress) {
		return ErrUntrustedFeeToken
	}

	now := m.clock()
	if o.Deadline <= now || o.Deadline-now > m.cfg.MaxDeadline() {
		return ErrDeadlineOutOfWindow
	}
	if o.MinDuration > o.Deadline-now {
		return ErrMinDurationTooLong
	}
	if m.cfg.RequireFeeUnlessPrivateOffer() && o.IsOpen() &&
		(o.FeeAmountPerSecond == nil || o.FeeAmountPerSecond.IsZero()) {
		return ErrFeeRequired
	}

	deadline, err := m.store.NonceDeadline(ctx, o.Lender, o.Nonce)
	if err != nil {
		return err
	}
	if deadline != 0 {
		return ErrNonceUsed
	}

	reg := m.cfg.RolesRegistryOf(o.TokenAddress)
	if reg == nil {
		return ErrNoRegistry
	}

	if o.CommitmentID != 0 {
		// A commitment still linked to a live nonce cannot be reused.
		prevNonce, err := m.store.CommitmentNonce(ctx, reg.Address(), o.CommitmentID)
		if err != nil {
			return err
		}
		if prevNonce != nil && !prevNonce.IsZero() {
			prevDeadline, err := m.store.NonceDeadline(ctx, o.Lender, prevNonce)
			if err != nil {
				return err
			}
			if prevDeadline > now {
				return ErrCommitmentClaimed
			}
		}

		c, ok, err := reg.CommitmentOf(ctx, o.CommitmentID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrCommitmentMismatch
		}
		if c.Grantor != o.Lender ||
			c.TokenAddress != o.TokenAddress ||
			c.TokenID.Cmp(o.TokenID) != 0 ||
			c.TokenAmount.Cmp(o.TokenAmount) != 0 {
			return ErrCommitmentMismatch
		}
		return nil
	}

	balance, err := reg.BalanceOf(ctx, o.Lender, o.TokenAddress, o.TokenID)
	if err != nil {
		return err
	}
	if balance.Cmp(o.TokenAmount) < 0 {
		return ErrInsufficientAsset
	}
	return nil
}

func (m *Marketplace) validateAccept(ctx context.Context, caller evm.Address, o *offer.RentalOffer, hash evm.Hash, now, duration uint64) error {
	if m.cfg.Paused() {
		return ErrPaused
	}

	created, err := m.store.IsCreated(ctx, hash)
	if err != nil {
		return err
	}
	if !created {
		return ErrOfferNotCreated
	}

	rental, ok, err := m.store.Rental(ctx, hash)
	if err != nil {
		return err
	}
	if ok && rental.ExpirationDate > now {
		return ErrOngoingRental
	}

	if !o.IsOpen() && caller != o.Borrower {
		return ErrNotBorrower
	}

	if duration > math.MaxUint64-now {
		return ErrTimestampOverflow
	}
	expiration := now + duration

	deadline, err := m.store.NonceDeadline(ctx, o.Lender, o.Nonce)
	if err != nil {
		return err
	}
	if expiration >= deadline {
		return ErrExpirationPastDeadline
	}
	if duration < o.MinDuration {
		return ErrDurationBelowMinimum
	}
	return nil
}

func (m *Marketplace) validateCancel(ctx context.Context, caller evm.Address, o *offer.RentalOffer, hash evm.Hash, now uint64) error {
	created, err := m.store.IsCreated(ctx, hash)
	if err != nil {
		return err
	}
	if !created {
		return ErrOfferNotCreated
	}
	if caller != o.Lender {
		return ErrNotLender
	}

	deadline, err := m.store.NonceDeadline(ctx, o.Lender, o.Nonce)
	if err != nil {
		return err
	}
	if deadline <= now {
		return ErrOfferNotActive
	}
	return nil
}

func (m *Marketplace) validateEndRental(ctx context.Context, caller evm.Address, o *offer.RentalOffer, hash evm.Hash, now uint64) (Rental, error) {
	created, err := m.store.IsCreated(ctx, hash)
	if err != nil {
		return Rental{}, err
	}
	if !created {
		return Rental{}, ErrOfferNotCreated
	}

	rental, ok, err := m.store.Rental(ctx, hash)
	if err != nil {
		return Rental{}, err
	}
	if !ok || caller != rental.Borrower {
		return Rental{}, ErrNotRentalBorrower
	}
	if rental.ExpirationDate <= now {
		return Rental{}, ErrRentalExpired
	}
	return rental, nil
}
