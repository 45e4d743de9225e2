package market

import (
	"context"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/pflow-xyz/go-rental-market/evm"
	"github.com/pflow-xyz/go-rental-market/offer"
)

// BatchReleaseTokens releases the commitments of cancelled or expired
// offers back to their lender. Every offer in the batch must belong to the
// caller, its nonce deadline must have passed, and any rental must have
// expired. The batch is validated in full before any release runs, so a
// rejection leaves every commitment untouched.
func (m *Marketplace) BatchReleaseTokens(ctx context.Context, caller evm.Address, offers []*offer.RentalOffer) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock()
	for _, o := range offers {
		if err := m.validateRelease(ctx, caller, o, now); err != nil {
			return err
		}
	}

	for _, o := range offers {
		reg := m.cfg.RolesRegistryOf(o.TokenAddress)
		if err := reg.ReleaseTokens(ctx, o.CommitmentID); err != nil {
			return fmt.Errorf("%w: release tokens: %v", ErrTransfer, err)
		}
		m.log.Info().
			Str("offer", o.Hash().Hex()).
			Uint64("commitment", o.CommitmentID).
			Msg("commitment released")
	}
	return nil
}

func (m *Marketplace) validateRelease(ctx context.Context, caller evm.Address, o *offer.RentalOffer, now uint64) error {
	hash := o.Hash()
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
	if o.CommitmentID == 0 {
		return ErrNoCommitment
	}

	deadline, err := m.store.NonceDeadline(ctx, o.Lender, o.Nonce)
	if err != nil {
		return err
	}
	if deadline > now {
		return ErrNonceDeadlineNotReached
	}

	rental, ok, err := m.store.Rental(ctx, hash)
	if err != nil {
		return err
	}
	if ok && rental.ExpirationDate > now {
		return ErrRentalNotExpired
	}
	return nil
}

// CommitAndGrant is one entry of BatchCommitTokensAndGrantRole. A zero
// CommitmentID commits TokenAmount first; a non-zero one grants against the
// existing commitment, which must belong to the grantor.
type CommitAndGrant struct {
	CommitmentID   uint64
	TokenAddress   evm.Address
	TokenID        *uint256.Int
	TokenAmount    *uint256.Int
	Role           evm.Role
	Grantee        evm.Address
	ExpirationDate uint64
	Revocable      bool
	Data           []byte
}

// BatchCommitTokensAndGrantRole pre-stages commitments and role grants in
// bulk for a lender, outside the offer lifecycle. Returns the commitment id
// of every entry, in order.
func (m *Marketplace) BatchCommitTokensAndGrantRole(ctx context.Context, caller evm.Address, entries []CommitAndGrant) ([]uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Validate the whole batch before touching the registry.
	for _, e := range entries {
		if !m.cfg.IsTrustedToken(e.TokenAddress) {
			return nil, ErrUntrustedToken
		}
		reg := m.cfg.RolesRegistryOf(e.TokenAddress)
		if reg == nil {
			return nil, ErrNoRegistry
		}
		if e.CommitmentID != 0 {
			c, ok, err := reg.CommitmentOf(ctx, e.CommitmentID)
			if err != nil {
				return nil, err
			}
			if !ok || c.Grantor != caller {
				return nil, ErrCommitmentMismatch
			}
		}
	}

	ids := make([]uint64, 0, len(entries))
	for _, e := range entries {
		reg := m.cfg.RolesRegistryOf(e.TokenAddress)
		id := e.CommitmentID
		if id == 0 {
			var err error
			id, err = reg.CommitTokens(ctx, caller, e.TokenAddress, e.TokenID, e.TokenAmount)
			if err != nil {
				return nil, fmt.Errorf("%w: commit tokens: %v", ErrTransfer, err)
			}
		}
		if err := reg.GrantRole(ctx, id, e.Role, e.Grantee, e.ExpirationDate, e.Revocable, e.Data); err != nil {
			return nil, fmt.Errorf("%w: grant role: %v", ErrTransfer, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
