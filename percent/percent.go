// Package percent implements the fixed-point percentage arithmetic used for
// marketplace fee splitting. Percentages are 18-decimal fixed point scaled so
// that 100% equals MaxPercentage (10^20). Intermediate products of
// amount * percentage exceed 64 bits for any realistic token amount, so all
// arithmetic is done in 256-bit integers.
package percent

import (
	"errors"

	"github.com/holiman/uint256"
)

// MaxPercentage is 100% in 18-decimal fixed point: 100 * 10^18.
var MaxPercentage = uint256.MustFromDecimal("100000000000000000000")

var (
	// ErrOverflow is returned when amount * pct does not fit in 256 bits.
	ErrOverflow = errors.New("percent: multiplication overflow")

	// ErrOutOfRange is returned for percentages above MaxPercentage.
	ErrOutOfRange = errors.New("percent: percentage exceeds 100%")
)

// Valid reports whether pct is a representable percentage in [0, 100%].
func Valid(pct *uint256.Int) bool {
	return pct != nil && pct.Cmp(MaxPercentage) <= 0
}

// AmountOf returns floor(amount * pct / MaxPercentage).
//
// The division floors, so the result never exceeds the exact share; summing
// floored shares therefore never exceeds the original amount. Callers that
// split an amount assign the remainder explicitly (see market fee splitting,
// where rounding dust goes to the lender).
func AmountOf(amount, pct *uint256.Int) (*uint256.Int, error) {
	if !Valid(pct) {
		return nil, ErrOutOfRange
	}
	product, overflow := new(uint256.Int).MulOverflow(amount, pct)
	if overflow {
		return nil, ErrOverflow
	}
	return product.Div(product, MaxPercentage), nil
}

// FromBasisPoints converts basis points (1 bp = 0.01%) to fixed point,
// e.g. 500 bp = 5% = 5 * 10^18.
func FromBasisPoints(bp uint64) *uint256.Int {
	v := uint256.NewInt(bp)
	return v.Mul(v, uint256.NewInt(1e16))
}
