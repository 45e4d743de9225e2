package events

import (
	"context"
	"sync"
)

// MemoryStore keeps the event history in memory. Safe for concurrent use.
type MemoryStore struct {
	mu     sync.RWMutex
	events []*Event
	closed bool
}

// NewMemoryStore creates an empty in-memory event store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Append adds events to the history in order.
func (s *MemoryStore) Append(_ context.Context, events ...*Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.events = append(s.events, events...)
	return nil
}

// Read returns the events of a single offer hash, oldest first.
func (s *MemoryStore) Read(ctx context.Context, offerHash string) ([]*Event, error) {
	return s.ReadAll(ctx, Filter{OfferHash: offerHash})
}

// ReadAll returns all events matching the filter, oldest first.
func (s *MemoryStore) ReadAll(_ context.Context, filter Filter) ([]*Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	var out []*Event
	for _, e := range s.events {
		if filter.matches(e) {
			out = append(out, e)
		}
	}
	return out, nil
}

// Close marks the store closed.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

var _ Store = (*MemoryStore)(nil)
