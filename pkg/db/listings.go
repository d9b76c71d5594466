package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

var ErrListingsAccountNotFound = errors.New("listings account not found")

// ListingsAccount is the listings service login of a profile.
type ListingsAccount struct {
	ID              int64
	ProfileID       int64
	Username        string
	Password        string
	BaseURL         string
	RefreshInterval time.Duration
	Debug           bool
}

// ListingsAccountStore reads and writes the listings login.
type ListingsAccountStore interface {
	Get(ctx context.Context, profileID int64) (*ListingsAccount, error)
	Upsert(ctx context.Context, a *ListingsAccount) error
	Delete(ctx context.Context, profileID int64) error
}

// ListingsAccounts returns a ListingsAccountStore for this database.
func (db *DB) ListingsAccounts() ListingsAccountStore {
	return &listingsAccountStore{db: db}
}

type listingsAccountStore struct {
	db *DB
}

func (s *listingsAccountStore) Get(ctx context.Context, profileID int64) (*ListingsAccount, error) {
	a := &ListingsAccount{}
	var refreshSeconds int64
	err := s.db.QueryRowContext(ctx, `
		SELECT id, profile_id, username, password, base_url, refresh_interval_seconds, debug
		FROM listings_accounts WHERE profile_id = ?
	`, profileID).Scan(&a.ID, &a.ProfileID, &a.Username, &a.Password, &a.BaseURL, &refreshSeconds, &a.Debug)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrListingsAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	a.RefreshInterval = time.Duration(refreshSeconds) * time.Second
	return a, nil
}

func (s *listingsAccountStore) Upsert(ctx context.Context, a *ListingsAccount) error {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO listings_accounts (profile_id, username, password, base_url, refresh_interval_seconds, debug)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (profile_id) DO UPDATE SET
			username = excluded.username,
			password = excluded.password,
			base_url = excluded.base_url,
			refresh_interval_seconds = excluded.refresh_interval_seconds,
			debug = excluded.debug,
			updated_at = datetime('now')
		RETURNING id
	`, a.ProfileID, a.Username, a.Password, a.BaseURL, int64(a.RefreshInterval/time.Second), a.Debug).Scan(&a.ID)
	if err != nil {
		return fmt.Errorf("failed to save listings account: %w", err)
	}
	return nil
}

func (s *listingsAccountStore) Delete(ctx context.Context, profileID int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM listings_accounts WHERE profile_id = ?`, profileID)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrListingsAccountNotFound
	}
	return nil
}
