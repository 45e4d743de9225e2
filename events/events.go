// Package events provides the marketplace's append-only event history.
// Events are the only externally queryable record of offers: there is no
// "list all offers" accessor anywhere in the core, and observers reconstruct
// offer state from RentalOfferCreated payloads alone.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/pflow-xyz/go-rental-market/evm"
)

// Event types emitted by the marketplace.
const (
	TypeRentalOfferCreated   = "RentalOfferCreated"
	TypeRentalStarted        = "RentalStarted"
	TypeRentalOfferCancelled = "RentalOfferCancelled"
	TypeRentalEnded          = "RentalEnded"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("events: store is closed")

// Event is one entry in the marketplace history. OfferHash is the stream
// identifier; Data is the type-specific JSON payload.
type Event struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	OfferHash string `json:"offer_hash"`
	Timestamp uint64 `json:"timestamp"`
	Data      []byte `json:"data"`
}

// RentalOfferCreated carries every offer field, so that observers can
// reconstruct the full offer from the event alone.
type RentalOfferCreated struct {
	Nonce              string   `json:"nonce"`
	TokenAddress       string   `json:"token_address"`
	TokenID            string   `json:"token_id"`
	TokenAmount        string   `json:"token_amount"`
	CommitmentID       uint64   `json:"commitment_id"`
	Lender             string   `json:"lender"`
	Borrower           string   `json:"borrower"`
	FeeTokenAddress    string   `json:"fee_token_address"`
	FeeAmountPerSecond string   `json:"fee_amount_per_second"`
	Deadline           uint64   `json:"deadline"`
	MinDuration        uint64   `json:"min_duration"`
	Roles              []string `json:"roles"`
	RolesData          []string `json:"roles_data"`
}

// RentalStarted records an acceptance.
type RentalStarted struct {
	Lender         string `json:"lender"`
	Nonce          string `json:"nonce"`
	Borrower       string `json:"borrower"`
	ExpirationDate uint64 `json:"expiration_date"`
}

// RentalOfferCancelled records a cancellation.
type RentalOfferCancelled struct {
	Lender string `json:"lender"`
	Nonce  string `json:"nonce"`
}

// RentalEnded records an early termination by the borrower.
type RentalEnded struct {
	Lender string `json:"lender"`
	Nonce  string `json:"nonce"`
}

// New creates an event with a fresh id and a JSON-encoded payload.
func New(eventType string, offerHash evm.Hash, timestamp uint64, payload any) (*Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("events: marshal payload: %w", err)
	}
	return &Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		OfferHash: offerHash.Hex(),
		Timestamp: timestamp,
		Data:      data,
	}, nil
}

// Decode unmarshals the event payload into out.
func (e *Event) Decode(out any) error {
	return json.Unmarshal(e.Data, out)
}

// Filter narrows ReadAll results. Zero fields match everything.
type Filter struct {
	OfferHash string
	Types     []string
	Lender    string // matches payloads carrying a "lender" field
}

// Store is an append-only sink of marketplace events.
type Store interface {
	// Append adds events to the history in order.
	Append(ctx context.Context, events ...*Event) error

	// Read returns the events of a single offer hash, oldest first.
	Read(ctx context.Context, offerHash string) ([]*Event, error)

	// ReadAll returns all events matching the filter, oldest first.
	ReadAll(ctx context.Context, filter Filter) ([]*Event, error)

	// Close releases the store's resources.
	Close() error
}

// OffersOf returns the distinct offer hashes a lender has created, in
// first-seen order, reconstructed from the event history alone.
func OffersOf(ctx context.Context, s Store, lender string) ([]string, error) {
	history, err := s.ReadAll(ctx, Filter{
		Types:  []string{TypeRentalOfferCreated},
		Lender: lender,
	})
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(history))
	var out []string
	for _, e := range history {
		if _, ok := seen[e.OfferHash]; ok {
			continue
		}
		seen[e.OfferHash] = struct{}{}
		out = append(out, e.OfferHash)
	}
	return out, nil
}

func (f Filter) matches(e *Event) bool {
	if f.OfferHash != "" && e.OfferHash != f.OfferHash {
		return false
	}
	if len(f.Types) > 0 {
		found := false
		for _, t := range f.Types {
			if e.Type == t {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.Lender != "" {
		var payload struct {
			Lender string `json:"lender"`
		}
		if err := json.Unmarshal(e.Data, &payload); err != nil || payload.Lender != f.Lender {
			return false
		}
	}
	return true
}
