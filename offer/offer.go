// Package offer defines the RentalOffer value type and its structural hash.
// The hash is the only storage key the marketplace uses to address an offer:
// there is no counter, and two structurally identical offers are the same
// offer by construction (the per-lender nonce is part of the struct, so a
// fresh nonce always yields a fresh hash).
package offer

import (
	"encoding/binary"
	"errors"
	"hash"

	"github.com/holiman/uint256"
	"golang.org/x/crypto/sha3"

	"github.com/pflow-xyz/go-rental-market/evm"
)

var (
	// ErrEmptyRoles is returned when an offer grants no roles.
	ErrEmptyRoles = errors.New("offer: roles must not be empty")

	// ErrRolesLengthMismatch is returned when roles and rolesData differ in length.
	ErrRolesLengthMismatch = errors.New("offer: roles and rolesData length mismatch")

	// ErrZeroNonce is returned for the reserved nonce value zero.
	ErrZeroNonce = errors.New("offer: nonce must not be zero")

	// ErrZeroTokenAmount is returned when no token balance is being rented.
	ErrZeroTokenAmount = errors.New("offer: tokenAmount must be greater than zero")
)

// RentalOffer is a lender's standing order to rent out a token balance.
// A zero Borrower means any address may accept. A zero CommitmentID means
// the marketplace creates a fresh registry commitment on offer creation.
type RentalOffer struct {
	Lender             evm.Address
	Borrower           evm.Address
	TokenAddress       evm.Address
	TokenID            *uint256.Int
	TokenAmount        *uint256.Int
	CommitmentID       uint64
	FeeTokenAddress    evm.Address
	FeeAmountPerSecond *uint256.Int
	Nonce              *uint256.Int
	Deadline           uint64
	MinDuration        uint64
	Roles              []evm.Role
	RolesData          [][]byte
}

// ValidateShape checks the offer's structural invariants: non-empty roles,
// parallel rolesData, non-zero nonce, non-zero token amount. Temporal and
// trust checks belong to the marketplace validation engine.
func (o *RentalOffer) ValidateShape() error {
	if len(o.Roles) == 0 {
		return ErrEmptyRoles
	}
	if len(o.Roles) != len(o.RolesData) {
		return ErrRolesLengthMismatch
	}
	if o.Nonce == nil || o.Nonce.IsZero() {
		return ErrZeroNonce
	}
	if o.TokenAmount == nil || o.TokenAmount.IsZero() {
		return ErrZeroTokenAmount
	}
	return nil
}

// IsOpen reports whether any address may accept the offer.
func (o *RentalOffer) IsOpen() bool {
	return o.Borrower.IsZero()
}

// TotalFee returns feeAmountPerSecond * duration, or an error if the product
// does not fit in 256 bits.
func (o *RentalOffer) TotalFee(duration uint64) (*uint256.Int, error) {
	rate := o.FeeAmountPerSecond
	if rate == nil {
		rate = uint256.NewInt(0)
	}
	total, overflow := new(uint256.Int).MulOverflow(rate, uint256.NewInt(duration))
	if overflow {
		return nil, errors.New("offer: total fee overflow")
	}
	return total, nil
}

// Hash returns the structural keccak-256 digest of every offer field.
// Variable-length fields are length-prefixed so that no two distinct offers
// share an encoding (e.g. rolesData ["AB","C"] and ["A","BC"] hash
// differently).
func (o *RentalOffer) Hash() evm.Hash {
	var out evm.Hash
	h := sha3.NewLegacyKeccak256()

	h.Write(o.Lender[:])
	h.Write(o.Borrower[:])
	h.Write(o.TokenAddress[:])
	writeUint256(h, o.TokenID)
	writeUint256(h, o.TokenAmount)
	writeUint64(h, o.CommitmentID)
	h.Write(o.FeeTokenAddress[:])
	writeUint256(h, o.FeeAmountPerSecond)
	writeUint256(h, o.Nonce)
	writeUint64(h, o.Deadline)
	writeUint64(h, o.MinDuration)

	writeUint64(h, uint64(len(o.Roles)))
	for _, role := range o.Roles {
		h.Write(role[:])
	}
	writeUint64(h, uint64(len(o.RolesData)))
	for _, data := range o.RolesData {
		writeUint64(h, uint64(len(data)))
		h.Write(data)
	}

	copy(out[:], h.Sum(nil))
	return out
}

// Clone returns a deep copy of the offer.
func (o *RentalOffer) Clone() *RentalOffer {
	c := *o
	if o.TokenID != nil {
		c.TokenID = o.TokenID.Clone()
	}
	if o.TokenAmount != nil {
		c.TokenAmount = o.TokenAmount.Clone()
	}
	if o.FeeAmountPerSecond != nil {
		c.FeeAmountPerSecond = o.FeeAmountPerSecond.Clone()
	}
	if o.Nonce != nil {
		c.Nonce = o.Nonce.Clone()
	}
	c.Roles = make([]evm.Role, len(o.Roles))
	copy(c.Roles, o.Roles)
	c.RolesData = make([][]byte, len(o.RolesData))
	for i, d := range o.RolesData {
		c.RolesData[i] = append([]byte(nil), d...)
	}
	return &c
}

func writeUint64(h hash.Hash, v uint64) {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	h.Write(buf[:])
}

func writeUint256(h hash.Hash, v *uint256.Int) {
	if v == nil {
		v = uint256.NewInt(0)
	}
	b := v.Bytes32()
	h.Write(b[:])
}
