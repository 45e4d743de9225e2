package market

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/holiman/uint256"
	_ "modernc.org/sqlite"

	"github.com/pflow-xyz/go-rental-market/evm"
)

// SQLiteStore is the persistent Store backend.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the marketplace state database at path.
// Use ":memory:" for an ephemeral store.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("market: open database: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS created_offers (
		offer_hash TEXT PRIMARY KEY
	);

	CREATE TABLE IF NOT EXISTS nonce_deadlines (
		lender TEXT NOT NULL,
		nonce TEXT NOT NULL,
		deadline INTEGER NOT NULL,
		PRIMARY KEY (lender, nonce)
	);

	CREATE TABLE IF NOT EXISTS commitment_nonces (
		registry TEXT NOT NULL,
		commitment_id INTEGER NOT NULL,
		nonce TEXT NOT NULL,
		PRIMARY KEY (registry, commitment_id)
	);

	CREATE TABLE IF NOT EXISTS rentals (
		offer_hash TEXT PRIMARY KEY,
		borrower TEXT NOT NULL,
		expiration_date INTEGER NOT NULL
	);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("market: migrate: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// IsCreated reports whether an offer hash has been created.
func (s *SQLiteStore) IsCreated(ctx context.Context, hash evm.Hash) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM created_offers WHERE offer_hash = ?`, hash.Hex()).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("market: query created: %w", err)
	}
	return true, nil
}

// SetCreated marks an offer hash created.
func (s *SQLiteStore) SetCreated(ctx context.Context, hash evm.Hash) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO created_offers (offer_hash) VALUES (?)`, hash.Hex())
	if err != nil {
		return fmt.Errorf("market: set created: %w", err)
	}
	return nil
}

// NonceDeadline returns the deadline for (lender, nonce), zero if unused.
func (s *SQLiteStore) NonceDeadline(ctx context.Context, lender evm.Address, nonce *uint256.Int) (uint64, error) {
	var deadline uint64
	err := s.db.QueryRowContext(ctx,
		`SELECT deadline FROM nonce_deadlines WHERE lender = ? AND nonce = ?`,
		lender.Hex(), nonce.Dec()).Scan(&deadline)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("market: query nonce deadline: %w", err)
	}
	return deadline, nil
}

// SetNonceDeadline records the deadline for (lender, nonce).
func (s *SQLiteStore) SetNonceDeadline(ctx context.Context, lender evm.Address, nonce *uint256.Int, deadline uint64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO nonce_deadlines (lender, nonce, deadline) VALUES (?, ?, ?)
		 ON CONFLICT (lender, nonce) DO UPDATE SET deadline = excluded.deadline`,
		lender.Hex(), nonce.Dec(), deadline)
	if err != nil {
		return fmt.Errorf("market: set nonce deadline: %w", err)
	}
	return nil
}

// CommitmentNonce returns the nonce that claimed a commitment, nil if none.
func (s *SQLiteStore) CommitmentNonce(ctx context.Context, registry evm.Address, commitmentID uint64) (*uint256.Int, error) {
	var dec string
	err := s.db.QueryRowContext(ctx,
		`SELECT nonce FROM commitment_nonces WHERE registry = ? AND commitment_id = ?`,
		registry.Hex(), commitmentID).Scan(&dec)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("market: query commitment nonce: %w", err)
	}
	nonce, err := uint256.FromDecimal(dec)
	if err != nil {
		return nil, fmt.Errorf("market: corrupt nonce %q: %w", dec, err)
	}
	return nonce, nil
}

// SetCommitmentNonce links a commitment to the nonce that claimed it.
func (s *SQLiteStore) SetCommitmentNonce(ctx context.Context, registry evm.Address, commitmentID uint64, nonce *uint256.Int) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO commitment_nonces (registry, commitment_id, nonce) VALUES (?, ?, ?)
		 ON CONFLICT (registry, commitment_id) DO UPDATE SET nonce = excluded.nonce`,
		registry.Hex(), commitmentID, nonce.Dec())
	if err != nil {
		return fmt.Errorf("market: set commitment nonce: %w", err)
	}
	return nil
}

// Rental returns the rental record for an offer hash, if any.
func (s *SQLiteStore) Rental(ctx context.Context, hash evm.Hash) (Rental, bool, error) {
	var borrower string
	var rental Rental
	err := s.db.QueryRowContext(ctx,
		`SELECT borrower, expiration_date FROM rentals WHERE offer_hash = ?`,
		hash.Hex()).Scan(&borrower, &rental.ExpirationDate)
	if err == sql.ErrNoRows {
		return Rental{}, false, nil
	}
	if err != nil {
		return Rental{}, false, fmt.Errorf("market: query rental: %w", err)
	}
	addr, err := evm.HexToAddress(borrower)
	if err != nil {
		return Rental{}, false, fmt.Errorf("market: corrupt borrower: %w", err)
	}
	rental.Borrower = addr
	return rental, true, nil
}

// SetRental writes the rental record for an offer hash.
func (s *SQLiteStore) SetRental(ctx context.Context, hash evm.Hash, rental Rental) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO rentals (offer_hash, borrower, expiration_date) VALUES (?, ?, ?)
		 ON CONFLICT (offer_hash) DO UPDATE SET borrower = excluded.borrower, expiration_date = excluded.expiration_date`,
		hash.Hex(), rental.Borrower.Hex(), rental.ExpirationDate)
	if err != nil {
		return fmt.Errorf("market: set rental: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

var _ Store = (*SQLiteStore)(nil)
