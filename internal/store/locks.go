package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/CryptoUnit-blockchain/limiter/internal/model"
)

// GetLock returns the lock on account, or ErrNotFound.
func (t *Tx) GetLock(ctx context.Context, account model.Name) (model.Lock, error) {
	var (
		l       model.Lock
		created int64
	)
	err := t.tx.QueryRowContext(ctx, `
		SELECT account, created_at, note, payer
		FROM locks
		WHERE account = ?
	`, string(account)).Scan(&l.Account, &created, &l.Note, &l.Payer)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Lock{}, ErrNotFound
	}
	if err != nil {
		return model.Lock{}, fmt.Errorf("get lock: %w", err)
	}
	l.CreatedAt = fromUnix(created)
	return l, nil
}

// HasLock reports whether account is locked.
func (t *Tx) HasLock(ctx context.Context, account model.Name) (bool, error) {
	return t.exists(ctx, `SELECT 1 FROM locks WHERE account = ?`, string(account))
}

// PutLock inserts a lock or, if one exists, replaces its note and payer.
// The creation time of an existing lock is preserved.
func (t *Tx) PutLock(ctx context.Context, l model.Lock) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO locks (account, created_at, note, payer)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(account) DO UPDATE SET note = excluded.note, payer = excluded.payer
	`, string(l.Account), l.CreatedAt.Unix(), l.Note, string(l.Payer))
	if err != nil {
		return fmt.Errorf("put lock: %w", err)
	}
	return nil
}

// DeleteLock removes the lock on account, or returns ErrNotFound.
func (t *Tx) DeleteLock(ctx context.Context, account model.Name) error {
	return t.deleteOne(ctx, "delete lock", `DELETE FROM locks WHERE account = ?`, string(account))
}

// ListLocks returns every lock ordered by account.
func (t *Tx) ListLocks(ctx context.Context) ([]model.Lock, error) {
	rows, err := t.tx.QueryContext(ctx, `
		SELECT account, created_at, note, payer
		FROM locks
		ORDER BY account COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query locks: %w", err)
	}
	defer rows.Close()

	locks := []model.Lock{}
	for rows.Next() {
		var (
			l       model.Lock
			created int64
		)
		if err := rows.Scan(&l.Account, &created, &l.Note, &l.Payer); err != nil {
			return nil, fmt.Errorf("scan lock: %w", err)
		}
		l.CreatedAt = fromUnix(created)
		locks = append(locks, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate locks: %w", err)
	}
	return locks, nil
}
