package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/CryptoUnit-blockchain/limiter/internal/model"
)

func fromUnix(secs int64) time.Time {
	return time.Unix(secs, 0).UTC()
}

func asset(amount int64, code string, decimals uint8) model.Asset {
	return model.Asset{
		Amount: amount,
		Symbol: model.Symbol{Code: model.SymbolCode(code), Precision: decimals},
	}
}

// exists runs a SELECT 1 query and reports whether it returned a row.
func (t *Tx) exists(ctx context.Context, query string, args ...any) (bool, error) {
	var one int
	err := t.tx.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("exists: %w", err)
	}
	return true, nil
}

// deleteOne runs a DELETE that must affect exactly one row.
func (t *Tx) deleteOne(ctx context.Context, what, query string, args ...any) error {
	res, err := t.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
