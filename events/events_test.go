package events_test

import (
	"context"
	"testing"

	"github.com/pflow-xyz/go-rental-market/evm"
	"github.com/pflow-xyz/go-rental-market/events"
)

func TestMemoryStore(t *testing.T) {
	runStoreTests(t, func() events.Store {
		return events.NewMemoryStore()
	})
}

func TestSQLiteStore(t *testing.T) {
	runStoreTests(t, func() events.Store {
		store, err := events.NewSQLiteStore(":memory:")
		if err != nil {
			t.Fatalf("failed to create sqlite store: %v", err)
		}
		return store
	})
}

func runStoreTests(t *testing.T, newStore func() events.Store) {
	hashA := evm.Keccak256([]byte("offer-a"))
	hashB := evm.Keccak256([]byte("offer-b"))

	t.Run("AppendAndRead", func(t *testing.T) {
		store := newStore()
		defer store.Close()
		ctx := context.Background()

		created, err := events.New(events.TypeRentalOfferCreated, hashA, 100, events.RentalOfferCreated{
			Lender: "0xaa", Nonce: "7",
		})
		if err != nil {
			t.Fatalf("new event failed: %v", err)
		}
		started, _ := events.New(events.TypeRentalStarted, hashA, 150, events.RentalStarted{
			Lender: "0xaa", Nonce: "7", Borrower: "0xbb", ExpirationDate: 200,
		})

		if err := store.Append(ctx, created, started); err != nil {
			t.Fatalf("append failed: %v", err)
		}

		got, err := store.Read(ctx, hashA.Hex())
		if err != nil {
			t.Fatalf("read failed: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("expected 2 events, got %d", len(got))
		}
		if got[0].Type != events.TypeRentalOfferCreated || got[1].Type != events.TypeRentalStarted {
			t.Errorf("unexpected order: %s, %s", got[0].Type, got[1].Type)
		}

		var payload events.RentalStarted
		if err := got[1].Decode(&payload); err != nil {
			t.Fatalf("decode failed: %v", err)
		}
		if payload.Borrower != "0xbb" || payload.ExpirationDate != 200 {
			t.Errorf("unexpected payload: %+v", payload)
		}
	})

	t.Run("FilterByType", func(t *testing.T) {
		store := newStore()
		defer store.Close()
		ctx := context.Background()

		e1, _ := events.New(events.TypeRentalOfferCreated, hashA, 1, events.RentalOfferCreated{Lender: "0xaa"})
		e2, _ := events.New(events.TypeRentalOfferCancelled, hashA, 2, events.RentalOfferCancelled{Lender: "0xaa"})
		e3, _ := events.New(events.TypeRentalOfferCreated, hashB, 3, events.RentalOfferCreated{Lender: "0xcc"})
		store.Append(ctx, e1, e2, e3)

		got, err := store.ReadAll(ctx, events.Filter{Types: []string{events.TypeRentalOfferCreated}})
		if err != nil {
			t.Fatalf("read all failed: %v", err)
		}
		if len(got) != 2 {
			t.Errorf("expected 2 created events, got %d", len(got))
		}
	})

	t.Run("FilterByLender", func(t *testing.T) {
		store := newStore()
		defer store.Close()
		ctx := context.Background()

		e1, _ := events.New(events.TypeRentalOfferCreated, hashA, 1, events.RentalOfferCreated{Lender: "0xaa"})
		e2, _ := events.New(events.TypeRentalOfferCreated, hashB, 2, events.RentalOfferCreated{Lender: "0xcc"})
		store.Append(ctx, e1, e2)

		got, err := store.ReadAll(ctx, events.Filter{Lender: "0xaa"})
		if err != nil {
			t.Fatalf("read all failed: %v", err)
		}
		if len(got) != 1 {
			t.Fatalf("expected 1 event for lender 0xaa, got %d", len(got))
		}
		if got[0].OfferHash != hashA.Hex() {
			t.Errorf("unexpected offer hash: %s", got[0].OfferHash)
		}
	})

	t.Run("OffersOf", func(t *testing.T) {
		store := newStore()
		defer store.Close()
		ctx := context.Background()

		e1, _ := events.New(events.TypeRentalOfferCreated, hashA, 1, events.RentalOfferCreated{Lender: "0xaa", Nonce: "1"})
		e2, _ := events.New(events.TypeRentalStarted, hashA, 2, events.RentalStarted{Lender: "0xaa", Borrower: "0xbb"})
		e3, _ := events.New(events.TypeRentalOfferCreated, hashB, 3, events.RentalOfferCreated{Lender: "0xcc", Nonce: "2"})
		store.Append(ctx, e1, e2, e3)

		offers, err := events.OffersOf(ctx, store, "0xaa")
		if err != nil {
			t.Fatalf("offers of failed: %v", err)
		}
		if len(offers) != 1 || offers[0] != hashA.Hex() {
			t.Errorf("expected [%s], got %v", hashA.Hex(), offers)
		}
	})

	t.Run("EmptyRead", func(t *testing.T) {
		store := newStore()
		defer store.Close()

		got, err := store.Read(context.Background(), hashA.Hex())
		if err != nil {
			t.Fatalf("read failed: %v", err)
		}
		if len(got) != 0 {
			t.Errorf("expected no events, got %d", len(got))
		}
	})
}

func TestEventIDsAreUnique(t *testing.T) {
	hash := evm.Keccak256([]byte("offer"))
	a, _ := events.New(events.TypeRentalEnded, hash, 1, events.RentalEnded{})
	b, _ := events.New(events.TypeRentalEnded, hash, 1, events.RentalEnded{})
	if a.ID == b.ID {
		t.Error("event ids must be unique")
	}
}
