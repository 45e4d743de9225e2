package events

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists the event history in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) an event database at path. Use
// ":memory:" for an ephemeral store.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("events: open database: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS events (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL,
		type TEXT NOT NULL,
		offer_hash TEXT NOT NULL,
		timestamp INTEGER NOT NULL,
		data BLOB
	);

	CREATE INDEX IF NOT EXISTS idx_events_offer ON events(offer_hash);
	CREATE INDEX IF NOT EXISTS idx_events_type ON events(type);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("events: migrate: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Append adds events to the history in order, in one transaction.
func (s *SQLiteStore) Append(ctx context.Context, events ...*Event) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("events: begin: %w", err)
	}
	defer tx.Rollback()

	for _, e := range events {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO events (id, type, offer_hash, timestamp, data) VALUES (?, ?, ?, ?, ?)`,
			e.ID, e.Type, e.OfferHash, e.Timestamp, e.Data)
		if err != nil {
			return fmt.Errorf("events: insert: %w", err)
		}
	}
	return tx.Commit()
}

// Read returns the events of a single offer hash, oldest first.
func (s *SQLiteStore) Read(ctx context.Context, offerHash string) ([]*Event, error) {
	return s.ReadAll(ctx, Filter{OfferHash: offerHash})
}

// ReadAll returns all events matching the filter, oldest first. The lender
// filter matches on the JSON payload, same as the memory store.
func (s *SQLiteStore) ReadAll(ctx context.Context, filter Filter) ([]*Event, error) {
	query := `SELECT id, type, offer_hash, timestamp, data FROM events`
	var conds []string
	var args []any

	if filter.OfferHash != "" {
		conds = append(conds, "offer_hash = ?")
		args = append(args, filter.OfferHash)
	}
	if len(filter.Types) > 0 {
		placeholders := strings.Repeat("?,", len(filter.Types))
		conds = append(conds, fmt.Sprintf("type IN (%s)", placeholders[:len(placeholders)-1]))
		for _, t := range filter.Types {
			args = append(args, t)
		}
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY seq"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("events: query: %w", err)
	}
	defer rows.Close()

	var out []*Event
	for rows.Next() {
		e := &Event{}
		if err := rows.Scan(&e.ID, &e.Type, &e.OfferHash, &e.Timestamp, &e.Data); err != nil {
			return nil, fmt.Errorf("events: scan: %w", err)
		}
		if filter.Lender == "" || (Filter{Lender: filter.Lender}).matches(e) {
			out = append(out, e)
		}
	}
	return out, rows.Err()
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

var _ Store = (*SQLiteStore)(nil)
