package market

import (
	"errors"
	"fmt"
)

// Taxonomy classes. Every rejection the marketplace produces wraps exactly
// one of these, so callers can match the class with errors.Is without
// knowing the specific failure.
var (
	ErrAuthorization = errors.New("market: authorization error")
	ErrStateConflict = errors.New("market: state conflict")
	ErrTemporal      = errors.New("market: temporal error")
	ErrSchema        = errors.New("market: schema error")
	ErrTrust         = errors.New("market: trust error")
	ErrTransfer      = errors.New("market: transfer error")
)

// Authorization failures.
var (
	ErrNotLender         = fmt.Errorf("%w: caller is not the lender", ErrAuthorization)
	ErrNotBorrower       = fmt.Errorf("%w: offer reserved for another borrower", ErrAuthorization)
	ErrNotRentalBorrower = fmt.Errorf("%w: caller is not the rental borrower", ErrAuthorization)
)

// State conflicts.
var (
	ErrNonceUsed         = fmt.Errorf("%w: nonce already used", ErrStateConflict)
	ErrOfferNotCreated   = fmt.Errorf("%w: offer not created", ErrStateConflict)
	ErrOngoingRental     = fmt.Errorf("%w: ongoing rental for this offer", ErrStateConflict)
	ErrOfferNotActive    = fmt.Errorf("%w: offer already cancelled or expired", ErrStateConflict)
	ErrCommitmentClaimed = fmt.Errorf("%w: commitment linked to an active offer", ErrStateConflict)
	ErrCommitmentMismatch = fmt.Errorf("%w: commitment does not match offer", ErrStateConflict)
	ErrNoCommitment      = fmt.Errorf("%w: offer has no commitment", ErrStateConflict)
	ErrPaused            = fmt.Errorf("%w: marketplace is paused", ErrStateConflict)
)

// Temporal failures.
var (
	ErrDeadlineOutOfWindow     = fmt.Errorf("%w: deadline outside the allowed window", ErrTemporal)
	ErrMinDurationTooLong      = fmt.Errorf("%w: minimum duration exceeds deadline window", ErrTemporal)
	ErrDurationBelowMinimum    = fmt.Errorf("%w: duration below offer minimum", ErrTemporal)
	ErrExpirationPastDeadline  = fmt.Errorf("%w: expiration not before offer deadline", ErrTemporal)
	ErrRentalExpired           = fmt.Errorf("%w: rental already expired", ErrTemporal)
	ErrRentalNotExpired        = fmt.Errorf("%w: rental has not expired yet", ErrTemporal)
	ErrNonceDeadlineNotReached = fmt.Errorf("%w: nonce deadline still in the future", ErrTemporal)
	ErrTimestampOverflow       = fmt.Errorf("%w: expiration overflows the timestamp width", ErrTemporal)
)

// Schema failures. The offer package's shape errors are reclassified here so
// the caller sees one taxonomy.
var (
	ErrInvalidOffer = fmt.Errorf("%w: invalid offer", ErrSchema)
	ErrFeeRequired  = fmt.Errorf("%w: open offers must carry a fee", ErrSchema)
)

// Trust failures.
var (
	ErrUntrustedToken    = fmt.Errorf("%w: token not marketplace-trusted", ErrTrust)
	ErrUntrustedFeeToken = fmt.Errorf("%w: fee token not marketplace-trusted", ErrTrust)
	ErrNoRegistry        = fmt.Errorf("%w: no roles registry for token", ErrTrust)
)

// Transfer failures.
var (
	ErrInsufficientAsset = fmt.Errorf("%w: lender does not hold the token amount", ErrTransfer)
	ErrFeeTransferFailed = fmt.Errorf("%w: fee transfer failed", ErrTransfer)
)
