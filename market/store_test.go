package market_test

import (
	"context"
	"testing"

	"github.com/holiman/uint256"

	"github.com/pflow-xyz/go-rental-market/evm"
	"github.com/pflow-xyz/go-rental-market/market"
)

func TestMemoryStore(t *testing.T) {
	runStoreTests(t, func() market.Store {
		return market.NewMemoryStore()
	})
}

func TestSQLiteStore(t *testing.T) {
	runStoreTests(t, func() market.Store {
		store, err := market.NewSQLiteStore(":memory:")
		if err != nil {
			t.Fatalf("failed to create sqlite store: %v", err)
		}
		return store
	})
}

func runStoreTests(t *testing.T, newStore func() market.Store) {
	lender := evm.BytesToAddress([]byte{0x01})
	regAddr := evm.BytesToAddress([]byte{0xf1})
	hash := evm.Keccak256([]byte("offer"))

	t.Run("CreatedFlag", func(t *testing.T) {
		store := newStore()
		defer store.Close()
		ctx := context.Background()

		created, err := store.IsCreated(ctx, hash)
		if err != nil {
			t.Fatalf("IsCreated failed: %v", err)
		}
		if created {
			t.Error("fresh hash should not be created")
		}

		if err := store.SetCreated(ctx, hash); err != nil {
			t.Fatalf("SetCreated failed: %v", err)
		}
		created, _ = store.IsCreated(ctx, hash)
		if !created {
			t.Error("hash should be created after SetCreated")
		}
	})

	t.Run("NonceDeadline", func(t *testing.T) {
		store := newStore()
		defer store.Close()
		ctx := context.Background()
		nonce := uint256.NewInt(7)

		deadline, err := store.NonceDeadline(ctx, lender, nonce)
		if err != nil {
			t.Fatalf("NonceDeadline failed: %v", err)
		}
		if deadline != 0 {
			t.Errorf("fresh nonce should have zero deadline, got %d", deadline)
		}

		if err := store.SetNonceDeadline(ctx, lender, nonce, 1000); err != nil {
			t.Fatalf("SetNonceDeadline failed: %v", err)
		}
		deadline, _ = store.NonceDeadline(ctx, lender, nonce)
		if deadline != 1000 {
			t.Errorf("expected deadline 1000, got %d", deadline)
		}

		// Overwrite (cancellation path: deadline forced to now).
		if err := store.SetNonceDeadline(ctx, lender, nonce, 500); err != nil {
			t.Fatalf("overwrite failed: %v", err)
		}
		deadline, _ = store.NonceDeadline(ctx, lender, nonce)
		if deadline != 500 {
			t.Errorf("expected overwritten deadline 500, got %d", deadline)
		}

		// Scoped per lender.
		other := evm.BytesToAddress([]byte{0x02})
		deadline, _ = store.NonceDeadline(ctx, other, nonce)
		if deadline != 0 {
			t.Errorf("other lender's nonce should be unused, got %d", deadline)
		}
	})

	t.Run("CommitmentNonce", func(t *testing.T) {
		store := newStore()
		defer store.Close()
		ctx := context.Background()

		nonce, err := store.CommitmentNonce(ctx, regAddr, 1)
		if err != nil {
			t.Fatalf("CommitmentNonce failed: %v", err)
		}
		if nonce != nil {
			t.Errorf("unclaimed commitment should return nil, got %s", nonce.Dec())
		}

		// Large nonces must round-trip exactly.
		big := uint256.MustFromDecimal("340282366920938463463374607431768211456")
		if err := store.SetCommitmentNonce(ctx, regAddr, 1, big); err != nil {
			t.Fatalf("SetCommitmentNonce failed: %v", err)
		}
		nonce, _ = store.CommitmentNonce(ctx, regAddr, 1)
		if nonce == nil || nonce.Cmp(big) != 0 {
			t.Errorf("commitment nonce round-trip mismatch: %v", nonce)
		}

		// Scoped per registry.
		otherReg := evm.BytesToAddress([]byte{0xf2})
		nonce, _ = store.CommitmentNonce(ctx, otherReg, 1)
		if nonce != nil {
			t.Error("other registry's commitment should be unclaimed")
		}
	})

	t.Run("Rental", func(t *testing.T) {
		store := newStore()
		defer store.Close()
		ctx := context.Background()

		_, ok, err := store.Rental(ctx, hash)
		if err != nil {
			t.Fatalf("Rental failed: %v", err)
		}
		if ok {
			t.Error("fresh hash should have no rental")
		}

		want := market.Rental{Borrower: lender, ExpirationDate: 1234}
		if err := store.SetRental(ctx, hash, want); err != nil {
			t.Fatalf("SetRental failed: %v", err)
		}
		got, ok, _ := store.Rental(ctx, hash)
		if !ok {
			t.Fatal("rental should exist")
		}
		if got != want {
			t.Errorf("expected %+v, got %+v", want, got)
		}

		// Overwrite (early termination path: expiration forced to now).
		want.ExpirationDate = 99
		if err := store.SetRental(ctx, hash, want); err != nil {
			t.Fatalf("overwrite failed: %v", err)
		}
		got, _, _ = store.Rental(ctx, hash)
		if got.ExpirationDate != 99 {
			t.Errorf("expected overwritten expiration 99, got %d", got.ExpirationDate)
		}
	})
}
