package registry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/holiman/uint256"

	"github.com/pflow-xyz/go-rental-market/evm"
	"github.com/pflow-xyz/go-rental-market/registry"
)

var (
	regAddr = evm.BytesToAddress([]byte{0xf1, 0x01})
	grantor = evm.BytesToAddress([]byte{0x01})
	grantee = evm.BytesToAddress([]byte{0x02})
	token   = evm.BytesToAddress([]byte{0x03})
	tokenID = uint256.NewInt(1)
)

func newRegistry(now *uint64) *registry.MemoryRegistry {
	return registry.NewMemoryRegistry(regAddr, func() uint64 { return *now })
}

func TestCommitAndRelease(t *testing.T) {
	ctx := context.Background()
	now := uint64(100)

	t.Run("CommitMovesBalance", func(t *testing.T) {
		r := newRegistry(&now)
		r.SetBalance(grantor, token, tokenID, uint256.NewInt(10))

		id, err := r.CommitTokens(ctx, grantor, token, tokenID, uint256.NewInt(4))
		if err != nil {
			t.Fatalf("commit failed: %v", err)
		}
		if id == 0 {
			t.Error("expected non-zero commitment id")
		}

		bal, _ := r.BalanceOf(ctx, grantor, token, tokenID)
		if bal.Uint64() != 6 {
			t.Errorf("expected remaining balance 6, got %s", bal.Dec())
		}

		c, ok, _ := r.CommitmentOf(ctx, id)
		if !ok {
			t.Fatal("commitment should exist")
		}
		if c.Grantor != grantor || c.TokenAmount.Uint64() != 4 {
			t.Errorf("unexpected commitment record: %+v", c)
		}
	})

	t.Run("CommitInsufficientBalance", func(t *testing.T) {
		r := newRegistry(&now)
		r.SetBalance(grantor, token, tokenID, uint256.NewInt(1))
		if _, err := r.CommitTokens(ctx, grantor, token, tokenID, uint256.NewInt(2)); err != registry.ErrInsufficientBalance {
			t.Errorf("expected ErrInsufficientBalance, got %v", err)
		}
	})

	t.Run("ReleaseRestoresBalance", func(t *testing.T) {
		r := newRegistry(&now)
		r.SetBalance(grantor, token, tokenID, uint256.NewInt(5))
		id, _ := r.CommitTokens(ctx, grantor, token, tokenID, uint256.NewInt(5))

		if err := r.ReleaseTokens(ctx, id); err != nil {
			t.Fatalf("release failed: %v", err)
		}
		bal, _ := r.BalanceOf(ctx, grantor, token, tokenID)
		if bal.Uint64() != 5 {
			t.Errorf("expected balance restored to 5, got %s", bal.Dec())
		}

		// Second release: the commitment is gone.
		if err := r.ReleaseTokens(ctx, id); err != registry.ErrCommitmentNotFound {
			t.Errorf("expected ErrCommitmentNotFound, got %v", err)
		}
	})

	t.Run("ReleaseBlockedByActiveGrant", func(t *testing.T) {
		r := newRegistry(&now)
		r.SetBalance(grantor, token, tokenID, uint256.NewInt(5))
		id, _ := r.CommitTokens(ctx, grantor, token, tokenID, uint256.NewInt(5))

		role := evm.RoleID("USER_ROLE")
		if err := r.GrantRole(ctx, id, role, grantee, now+50, false, nil); err != nil {
			t.Fatalf("grant failed: %v", err)
		}
		if err := r.ReleaseTokens(ctx, id); err != registry.ErrActiveGrants {
			t.Errorf("expected ErrActiveGrants, got %v", err)
		}

		// Once the grant expires the release goes through.
		now += 51
		if err := r.ReleaseTokens(ctx, id); err != nil {
			t.Errorf("release after expiry failed: %v", err)
		}
		now = 100
	})
}

func TestGrantAndRevoke(t *testing.T) {
	ctx := context.Background()
	now := uint64(100)
	role := evm.RoleID("USER_ROLE")

	r := newRegistry(&now)
	r.SetBalance(grantor, token, tokenID, uint256.NewInt(5))
	id, _ := r.CommitTokens(ctx, grantor, token, tokenID, uint256.NewInt(5))

	t.Run("GrantUnknownCommitment", func(t *testing.T) {
		if err := r.GrantRole(ctx, id+99, role, grantee, now+10, false, nil); err != registry.ErrCommitmentNotFound {
			t.Errorf("expected ErrCommitmentNotFound, got %v", err)
		}
	})

	t.Run("GrantReplacesSamePair", func(t *testing.T) {
		if err := r.GrantRole(ctx, id, role, grantee, now+10, false, []byte("a")); err != nil {
			t.Fatalf("grant failed: %v", err)
		}
		if err := r.GrantRole(ctx, id, role, grantee, now+20, false, []byte("b")); err != nil {
			t.Fatalf("regrant failed: %v", err)
		}
		grants := r.GrantsOf(id)
		if len(grants) != 1 {
			t.Fatalf("expected 1 grant, got %d", len(grants))
		}
		if grants[0].ExpirationDate != now+20 || string(grants[0].Data) != "b" {
			t.Errorf("regrant did not replace: %+v", grants[0])
		}
	})

	t.Run("Revoke", func(t *testing.T) {
		if err := r.RevokeRole(ctx, id, role, grantee); err != nil {
			t.Fatalf("revoke failed: %v", err)
		}
		if len(r.GrantsOf(id)) != 0 {
			t.Error("expected no grants after revoke")
		}
		if err := r.RevokeRole(ctx, id, role, grantee); err != registry.ErrGrantNotFound {
			t.Errorf("expected ErrGrantNotFound, got %v", err)
		}
	})
}

func TestMemoryToken(t *testing.T) {
	ctx := context.Background()
	a := evm.BytesToAddress([]byte{0x0a})
	b := evm.BytesToAddress([]byte{0x0b})

	tok := registry.NewMemoryToken()
	tok.Mint(a, uint256.NewInt(100))

	t.Run("Transfer", func(t *testing.T) {
		if err := tok.Transfer(ctx, a, b, uint256.NewInt(30)); err != nil {
			t.Fatalf("transfer failed: %v", err)
		}
		balA, _ := tok.BalanceOf(ctx, a)
		balB, _ := tok.BalanceOf(ctx, b)
		if balA.Uint64() != 70 || balB.Uint64() != 30 {
			t.Errorf("unexpected balances: %s / %s", balA.Dec(), balB.Dec())
		}
	})

	t.Run("InsufficientBalance", func(t *testing.T) {
		if err := tok.Transfer(ctx, b, a, uint256.NewInt(1000)); err != registry.ErrInsufficientBalance {
			t.Errorf("expected ErrInsufficientBalance, got %v", err)
		}
	})

	t.Run("ZeroAmountNoop", func(t *testing.T) {
		unknown := evm.BytesToAddress([]byte{0x0c})
		if err := tok.Transfer(ctx, unknown, a, uint256.NewInt(0)); err != nil {
			t.Errorf("zero transfer from empty account should succeed, got %v", err)
		}
	})

	t.Run("Resolver", func(t *testing.T) {
		feeAddr := evm.BytesToAddress([]byte{0x0f})
		tokens := registry.MemoryTokens{feeAddr: tok}
		if _, err := tokens.FeeToken(feeAddr); err != nil {
			t.Errorf("expected resolver hit, got %v", err)
		}
		if _, err := tokens.FeeToken(a); !errors.Is(err, registry.ErrTokenNotFound) {
			t.Errorf("expected ErrTokenNotFound, got %v", err)
		}
	})
}
