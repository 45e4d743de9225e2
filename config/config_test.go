package config_test

import (
	"testing"

	"github.com/holiman/uint256"

	"github.com/pflow-xyz/go-rental-market/config"
	"github.com/pflow-xyz/go-rental-market/evm"
	"github.com/pflow-xyz/go-rental-market/percent"
)

var (
	owner    = evm.BytesToAddress([]byte{0x01})
	stranger = evm.BytesToAddress([]byte{0x02})
	token    = evm.BytesToAddress([]byte{0x03})
)

func TestOwnerOnlySetters(t *testing.T) {
	p := config.NewMemoryProvider(owner)

	if err := p.TrustToken(stranger, token, nil); err != config.ErrNotOwner {
		t.Errorf("expected ErrNotOwner, got %v", err)
	}
	if err := p.SetPaused(stranger, true); err != config.ErrNotOwner {
		t.Errorf("expected ErrNotOwner, got %v", err)
	}
	if err := p.SetMarketplaceFee(stranger, token, percent.FromBasisPoints(100)); err != config.ErrNotOwner {
		t.Errorf("expected ErrNotOwner, got %v", err)
	}

	if err := p.TrustToken(owner, token, nil); err != nil {
		t.Fatalf("owner TrustToken failed: %v", err)
	}
	if !p.IsTrustedToken(token) {
		t.Error("token should be trusted after TrustToken")
	}
	if p.IsTrustedToken(stranger) {
		t.Error("unconfigured address should not be trusted")
	}
}

func TestPauseGate(t *testing.T) {
	p := config.NewMemoryProvider(owner)
	if p.Paused() {
		t.Error("provider should start unpaused")
	}
	if err := p.SetPaused(owner, true); err != nil {
		t.Fatalf("pause failed: %v", err)
	}
	if !p.Paused() {
		t.Error("provider should be paused")
	}
}

func TestFeeAndRoyalty(t *testing.T) {
	p := config.NewMemoryProvider(owner)

	t.Run("Defaults", func(t *testing.T) {
		if !p.MarketplaceFeeOf(token).IsZero() {
			t.Error("unset fee should be zero")
		}
		if !p.RoyaltyInfoOf(token).Percentage.IsZero() {
			t.Error("unset royalty should be zero")
		}
	})

	t.Run("SetAndGet", func(t *testing.T) {
		if err := p.SetMarketplaceFee(owner, token, percent.FromBasisPoints(500)); err != nil {
			t.Fatalf("set fee failed: %v", err)
		}
		if err := p.SetRoyaltyInfo(owner, token, config.RoyaltyInfo{
			Treasury:   stranger,
			Percentage: percent.FromBasisPoints(200),
		}); err != nil {
			t.Fatalf("set royalty failed: %v", err)
		}
		if p.MarketplaceFeeOf(token).Cmp(percent.FromBasisPoints(500)) != 0 {
			t.Error("fee readback mismatch")
		}
		info := p.RoyaltyInfoOf(token)
		if info.Treasury != stranger || info.Percentage.Cmp(percent.FromBasisPoints(200)) != 0 {
			t.Errorf("royalty readback mismatch: %+v", info)
		}
	})

	t.Run("RejectsSplitAtOrAbove100", func(t *testing.T) {
		// Royalty is 2%; a 98% marketplace fee would make the split reach 100%.
		if err := p.SetMarketplaceFee(owner, token, percent.FromBasisPoints(9800)); err != config.ErrInvalidPercentage {
			t.Errorf("expected ErrInvalidPercentage, got %v", err)
		}
		// Fee is 5%; a 95% royalty would do the same.
		if err := p.SetRoyaltyInfo(owner, token, config.RoyaltyInfo{
			Percentage: percent.FromBasisPoints(9500),
		}); err != config.ErrInvalidPercentage {
			t.Errorf("expected ErrInvalidPercentage, got %v", err)
		}
	})

	t.Run("RejectsOverMaxPercentage", func(t *testing.T) {
		over := new(uint256.Int).Add(percent.MaxPercentage, uint256.NewInt(1))
		if err := p.SetMarketplaceFee(owner, token, over); err != config.ErrInvalidPercentage {
			t.Errorf("expected ErrInvalidPercentage, got %v", err)
		}
	})
}

func TestTreasuryAndDeadline(t *testing.T) {
	p := config.NewMemoryProvider(owner)

	if p.Treasury() != owner {
		t.Error("treasury should default to owner")
	}
	if err := p.SetTreasury(owner, stranger); err != nil {
		t.Fatalf("set treasury failed: %v", err)
	}
	if p.Treasury() != stranger {
		t.Error("treasury readback mismatch")
	}

	if err := p.SetMaxDeadline(owner, 3600); err != nil {
		t.Fatalf("set max deadline failed: %v", err)
	}
	if p.MaxDeadline() != 3600 {
		t.Error("max deadline readback mismatch")
	}
}

func TestZeroFeePolicyFlag(t *testing.T) {
	p := config.NewMemoryProvider(owner)
	if p.RequireFeeUnlessPrivateOffer() {
		t.Error("policy flag should default to off")
	}
	if err := p.SetRequireFeeUnlessPrivateOffer(owner, true); err != nil {
		t.Fatalf("set policy failed: %v", err)
	}
	if !p.RequireFeeUnlessPrivateOffer() {
		t.Error("policy flag readback mismatch")
	}
}
