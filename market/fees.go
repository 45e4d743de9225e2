package market

import (
	"context"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/pflow-xyz/go-rental-market/evm"
	"github.com/pflow-xyz/go-rental-market/offer"
	"github.com/pflow-xyz/go-rental-market/percent"
)

// FeeSplit is the three-way division of a rental's total fee. Marketplace
// and royalty shares are floor-divided; the remainder (including rounding
// dust) goes to the lender, so the three parts always sum to Total exactly.
type FeeSplit struct {
	Total          *uint256.Int
	MarketplaceFee *uint256.Int
	Royalty        *uint256.Int
	LenderAmount   *uint256.Int
}

// SplitFee computes the fee division for an offer and duration without
// moving any funds.
func (m *Marketplace) SplitFee(o *offer.RentalOffer, duration uint64) (FeeSplit, error) {
	total, err := o.TotalFee(duration)
	if err != nil {
		return FeeSplit{}, fmt.Errorf("%w: %v", ErrFeeTransferFailed, err)
	}

	marketplaceFee, err := percent.AmountOf(total, m.cfg.MarketplaceFeeOf(o.TokenAddress))
	if err != nil {
		return FeeSplit{}, fmt.Errorf("%w: marketplace fee: %v", ErrFeeTransferFailed, err)
	}
	royaltyInfo := m.cfg.RoyaltyInfoOf(o.TokenAddress)
	royalty, err := percent.AmountOf(total, royaltyInfo.Percentage)
	if err != nil {
		return FeeSplit{}, fmt.Errorf("%w: royalty: %v", ErrFeeTransferFailed, err)
	}

	lenderAmount := new(uint256.Int).Sub(total, marketplaceFee)
	lenderAmount.Sub(lenderAmount, royalty)
	return FeeSplit{
		Total:          total,
		MarketplaceFee: marketplaceFee,
		Royalty:        royalty,
		LenderAmount:   lenderAmount,
	}, nil
}

// transferFees executes the fee legs of an acceptance from the borrower. A
// zero total skips everything. The returned undo function reverses the legs
// already executed; the caller invokes it when a later part of the
// acceptance fails, so the whole transition appears atomic.
func (m *Marketplace) transferFees(ctx context.Context, borrower evm.Address, o *offer.RentalOffer, duration uint64) (func(context.Context), error) {
	noop := func(context.Context) {}

	split, err := m.SplitFee(o, duration)
	if err != nil {
		return noop, err
	}
	if split.Total.IsZero() {
		return noop, nil
	}

	token, err := m.tokens.FeeToken(o.FeeTokenAddress)
	if err != nil {
		return noop, fmt.Errorf("%w: fee token %s: %v", ErrFeeTransferFailed, o.FeeTokenAddress.Hex(), err)
	}

	type leg struct {
		to     evm.Address
		amount *uint256.Int
	}
	legs := []leg{
		{to: m.cfg.Treasury(), amount: split.MarketplaceFee},
	}
	// An unset royalty treasury burns the royalty silently: the amount is
	// still deducted from the lender share but no transfer leg runs.
	royaltyInfo := m.cfg.RoyaltyInfoOf(o.TokenAddress)
	if !split.Royalty.IsZero() && !royaltyInfo.Treasury.IsZero() {
		legs = append(legs, leg{to: royaltyInfo.Treasury, amount: split.Royalty})
	}
	legs = append(legs, leg{to: o.Lender, amount: split.LenderAmount})

	var done []leg
	undo := func(ctx context.Context) {
		for i := len(done) - 1; i >= 0; i-- {
			if err := token.Transfer(ctx, done[i].to, borrower, done[i].amount); err != nil {
				m.log.Error().Err(err).
					Str("to", done[i].to.Hex()).
					Str("amount", done[i].amount.Dec()).
					Msg("fee refund failed")
			}
		}
	}

	for _, l := range legs {
		if l.amount.IsZero() {
			continue
		}
		if err := token.Transfer(ctx, borrower, l.to, l.amount); err != nil {
			undo(ctx)
			return noop, fmt.Errorf("%w: %v", ErrFeeTransferFailed, err)
		}
		done = append(done, l)
	}
	return undo, nil
}
