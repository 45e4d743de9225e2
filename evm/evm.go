// Package evm provides the fixed-width value types the rental protocol is
// addressed in: 20-byte account addresses, 32-byte hashes, and role
// identifiers (keccak-256 of a role name, following the ERC-7589 convention).
package evm

import (
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/sha3"
)

// AddressLength is the byte length of an account address.
const AddressLength = 20

// HashLength is the byte length of a keccak-256 digest.
const HashLength = 32

// Address is a 20-byte account address.
type Address [AddressLength]byte

// Hash is a 32-byte keccak-256 digest.
type Hash [HashLength]byte

// Role identifies a grantable capability over a token.
type Role = Hash

// ZeroAddress is the open-offer sentinel: an offer whose borrower is the
// zero address may be accepted by any caller.
var ZeroAddress = Address{}

// HexToAddress parses a hex-encoded address, with or without a 0x prefix.
func HexToAddress(s string) (Address, error) {
	var a Address
	s = strings.TrimPrefix(s, "0x")
	b, err := hex.DecodeString(s)
	if err != nil {
		return a, fmt.Errorf("evm: invalid address %q: %w", s, err)
	}
	if len(b) != AddressLength {
		return a, fmt.Errorf("evm: invalid address length %d", len(b))
	}
	copy(a[:], b)
	return a, nil
}

// BytesToAddress right-aligns b into an Address, truncating from the left.
func BytesToAddress(b []byte) Address {
	var a Address
	if len(b) > AddressLength {
		b = b[len(b)-AddressLength:]
	}
	copy(a[AddressLength-len(b):], b)
	return a
}

// Hex returns the 0x-prefixed hex encoding of the address.
func (a Address) Hex() string {
	return "0x" + hex.EncodeToString(a[:])
}

// IsZero reports whether the address is the zero sentinel.
func (a Address) IsZero() bool {
	return a == ZeroAddress
}

// String implements fmt.Stringer.
func (a Address) String() string {
	return a.Hex()
}

// Hex returns the 0x-prefixed hex encoding of the hash.
func (h Hash) Hex() string {
	return "0x" + hex.EncodeToString(h[:])
}

// IsZero reports whether the hash is all zeroes.
func (h Hash) IsZero() bool {
	return h == Hash{}
}

// String implements fmt.Stringer.
func (h Hash) String() string {
	return h.Hex()
}

// HexToHash parses a hex-encoded 32-byte hash, with or without a 0x prefix.
func HexToHash(s string) (Hash, error) {
	var h Hash
	s = strings.TrimPrefix(s, "0x")
	b, err := hex.DecodeString(s)
	if err != nil {
		return h, fmt.Errorf("evm: invalid hash %q: %w", s, err)
	}
	if len(b) != HashLength {
		return h, fmt.Errorf("evm: invalid hash length %d", len(b))
	}
	copy(h[:], b)
	return h, nil
}

// Keccak256 returns the keccak-256 digest of the concatenation of data.
func Keccak256(data ...[]byte) Hash {
	var h Hash
	d := sha3.NewLegacyKeccak256()
	for _, b := range data {
		d.Write(b)
	}
	copy(h[:], d.Sum(nil))
	return h
}

// RoleID derives a role identifier from a role name, e.g. "USER_ROLE".
func RoleID(name string) Role {
	return Keccak256([]byte(name))
}
