package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/CryptoUnit-blockchain/limiter/internal/model"
)

// GetUsage returns the usage counter of account for currency, or ErrNotFound.
func (t *Tx) GetUsage(ctx context.Context, currency model.SymbolCode, account model.Name) (model.UsedLimit, error) {
	row := t.tx.QueryRowContext(ctx, `
		SELECT currency, account, amount, decimals, updated_at
		FROM used_limits
		WHERE currency = ? AND account = ?
	`, string(currency), string(account))
	u, err := scanUsage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.UsedLimit{}, ErrNotFound
	}
	return u, err
}

// PutUsage inserts or replaces a usage counter.
func (t *Tx) PutUsage(ctx context.Context, u model.UsedLimit) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO used_limits (currency, account, amount, decimals, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(currency, account) DO UPDATE SET
			amount = excluded.amount,
			decimals = excluded.decimals,
			updated_at = excluded.updated_at
	`,
		string(u.Currency),
		string(u.Account),
		u.Used.Amount,
		u.Used.Symbol.Precision,
		u.UpdatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("put usage: %w", err)
	}
	return nil
}

// DeleteUsage removes one usage counter, or returns ErrNotFound.
func (t *Tx) DeleteUsage(ctx context.Context, currency model.SymbolCode, account model.Name) error {
	return t.deleteOne(ctx, "delete usage", `
		DELETE FROM used_limits WHERE currency = ? AND account = ?
	`, string(currency), string(account))
}

// ListUsage returns usage counters of currency ordered by account, at most
// limit of them when limit > 0. An empty currency lists every counter.
func (t *Tx) ListUsage(ctx context.Context, currency model.SymbolCode, limit int) ([]model.UsedLimit, error) {
	query := `SELECT currency, account, amount, decimals, updated_at FROM used_limits`
	var args []any
	if currency != "" {
		query += ` WHERE currency = ?`
		args = append(args, string(currency))
	}
	query += ` ORDER BY currency COLLATE BINARY ASC, account COLLATE BINARY ASC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := t.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query usage: %w", err)
	}
	defer rows.Close()

	usage := []model.UsedLimit{}
	for rows.Next() {
		u, err := scanUsage(rows)
		if err != nil {
			return nil, err
		}
		usage = append(usage, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate usage: %w", err)
	}
	return usage, nil
}

func scanUsage(row rowScanner) (model.UsedLimit, error) {
	var (
		u        model.UsedLimit
		amount   int64
		decimals uint8
		updated  int64
	)
	err := row.Scan(&u.Currency, &u.Account, &amount, &decimals, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return model.UsedLimit{}, err
	}
	if err != nil {
		return model.UsedLimit{}, fmt.Errorf("scan usage: %w", err)
	}
	u.Used = asset(amount, string(u.Currency), decimals)
	u.UpdatedAt = fromUnix(updated)
	return u, nil
}
