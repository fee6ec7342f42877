package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/CryptoUnit-blockchain/limiter/internal/model"
)

// GetLimit returns the limit of currency, or ErrNotFound.
func (t *Tx) GetLimit(ctx context.Context, currency model.SymbolCode) (model.MonthlyLimit, error) {
	row := t.tx.QueryRowContext(ctx, `
		SELECT currency, amount, decimals, set_at, payer
		FROM limits
		WHERE currency = ?
	`, string(currency))
	l, err := scanLimit(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.MonthlyLimit{}, ErrNotFound
	}
	return l, err
}

// PutLimit inserts or replaces the limit of l.Currency.
func (t *Tx) PutLimit(ctx context.Context, l model.MonthlyLimit) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO limits (currency, amount, decimals, set_at, payer)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(currency) DO UPDATE SET
			amount = excluded.amount,
			decimals = excluded.decimals,
			set_at = excluded.set_at,
			payer = excluded.payer
	`,
		string(l.Currency),
		l.Ceiling.Amount,
		l.Ceiling.Symbol.Precision,
		l.SetAt.Unix(),
		string(l.Payer),
	)
	if err != nil {
		return fmt.Errorf("put limit: %w", err)
	}
	return nil
}

// DeleteLimit removes the limit of currency, or returns ErrNotFound.
func (t *Tx) DeleteLimit(ctx context.Context, currency model.SymbolCode) error {
	return t.deleteOne(ctx, "delete limit", `DELETE FROM limits WHERE currency = ?`, string(currency))
}

// ListLimits returns every configured limit ordered by currency.
func (t *Tx) ListLimits(ctx context.Context) ([]model.MonthlyLimit, error) {
	rows, err := t.tx.QueryContext(ctx, `
		SELECT currency, amount, decimals, set_at, payer
		FROM limits
		ORDER BY currency COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query limits: %w", err)
	}
	defer rows.Close()

	limits := []model.MonthlyLimit{}
	for rows.Next() {
		l, err := scanLimit(rows)
		if err != nil {
			return nil, err
		}
		limits = append(limits, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate limits: %w", err)
	}
	return limits, nil
}

func scanLimit(row rowScanner) (model.MonthlyLimit, error) {
	var (
		l        model.MonthlyLimit
		amount   int64
		decimals uint8
		setAt    int64
	)
	err := row.Scan(&l.Currency, &amount, &decimals, &setAt, &l.Payer)
	if errors.Is(err, sql.ErrNoRows) {
		return model.MonthlyLimit{}, err
	}
	if err != nil {
		return model.MonthlyLimit{}, fmt.Errorf("scan limit: %w", err)
	}
	l.Ceiling = asset(amount, string(l.Currency), decimals)
	l.SetAt = fromUnix(setAt)
	return l, nil
}
