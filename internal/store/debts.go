package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/CryptoUnit-blockchain/limiter/internal/model"
)

const debtColumns = `debtor, id, target, amount, symbol, decimals, created_at, memo, digest, payer`

// HasDebts reports whether debtor has at least one outstanding debt.
func (t *Tx) HasDebts(ctx context.Context, debtor model.Name) (bool, error) {
	return t.exists(ctx, `SELECT 1 FROM debts WHERE debtor = ? LIMIT 1`, string(debtor))
}

// InsertDebt stores d under the next id of its debtor's partition and
// returns that id. d.ID is ignored. Returns ErrConflict if the debtor
// already has a debt with the same digest.
func (t *Tx) InsertDebt(ctx context.Context, d model.Debt) (uint64, error) {
	id, err := t.nextDebtID(ctx, d.Debtor)
	if err != nil {
		return 0, err
	}

	_, err = t.tx.ExecContext(ctx, `
		INSERT INTO debts (`+debtColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		string(d.Debtor),
		id,
		string(d.Target),
		d.Amount.Amount,
		string(d.Amount.Symbol.Code),
		d.Amount.Symbol.Precision,
		d.CreatedAt.Unix(),
		d.Memo,
		d.Digest.String(),
		string(d.Payer),
	)
	if isUniqueViolation(err) {
		return 0, ErrConflict
	}
	if err != nil {
		return 0, fmt.Errorf("insert debt: %w", err)
	}
	return id, nil
}

// nextDebtID allocates the next id of debtor's partition, starting at 0.
// The sequence row outlives the debts, so a deleted id is never handed out
// again.
func (t *Tx) nextDebtID(ctx context.Context, debtor model.Name) (uint64, error) {
	var id uint64
	err := t.tx.QueryRowContext(ctx, `
		INSERT INTO debt_sequences (debtor, next_id)
		VALUES (?, 1)
		ON CONFLICT(debtor) DO UPDATE SET next_id = next_id + 1
		RETURNING next_id - 1
	`, string(debtor)).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("allocate debt id: %w", err)
	}
	return id, nil
}

// GetDebt returns the debt with the given id, or ErrNotFound.
func (t *Tx) GetDebt(ctx context.Context, debtor model.Name, id uint64) (model.Debt, error) {
	row := t.tx.QueryRowContext(ctx, `
		SELECT `+debtColumns+`
		FROM debts
		WHERE debtor = ? AND id = ?
	`, string(debtor), id)
	return scanDebtRow(row)
}

// FindDebtByDigest looks a debt up by its secondary key, or ErrNotFound.
func (t *Tx) FindDebtByDigest(ctx context.Context, debtor model.Name, digest model.Digest) (model.Debt, error) {
	row := t.tx.QueryRowContext(ctx, `
		SELECT `+debtColumns+`
		FROM debts
		WHERE debtor = ? AND digest = ?
	`, string(debtor), digest.String())
	return scanDebtRow(row)
}

// DeleteDebt removes one debt by id, or returns ErrNotFound.
func (t *Tx) DeleteDebt(ctx context.Context, debtor model.Name, id uint64) error {
	return t.deleteOne(ctx, "delete debt", `DELETE FROM debts WHERE debtor = ? AND id = ?`, string(debtor), id)
}

// ListDebts returns the debts of debtor ordered by id, or every debt
// ordered by (debtor, id) when debtor is empty.
func (t *Tx) ListDebts(ctx context.Context, debtor model.Name) ([]model.Debt, error) {
	query := `SELECT ` + debtColumns + ` FROM debts`
	var args []any
	if debtor != "" {
		query += ` WHERE debtor = ?`
		args = append(args, string(debtor))
	}
	query += ` ORDER BY debtor COLLATE BINARY ASC, id ASC`

	rows, err := t.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query debts: %w", err)
	}
	defer rows.Close()

	debts := []model.Debt{}
	for rows.Next() {
		d, err := scanDebt(rows)
		if err != nil {
			return nil, err
		}
		debts = append(debts, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate debts: %w", err)
	}
	return debts, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDebtRow(row *sql.Row) (model.Debt, error) {
	d, err := scanDebt(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Debt{}, ErrNotFound
	}
	return d, err
}

func scanDebt(row rowScanner) (model.Debt, error) {
	var (
		d        model.Debt
		amount   int64
		symbol   string
		decimals uint8
		created  int64
		digest   string
	)
	err := row.Scan(&d.Debtor, &d.ID, &d.Target, &amount, &symbol, &decimals, &created, &d.Memo, &digest, &d.Payer)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Debt{}, err
	}
	if err != nil {
		return model.Debt{}, fmt.Errorf("scan debt: %w", err)
	}

	d.Amount = asset(amount, symbol, decimals)
	d.CreatedAt = fromUnix(created)
	if d.Digest, err = model.ParseDigest(digest); err != nil {
		return model.Debt{}, fmt.Errorf("scan debt %s/%d: %w", d.Debtor, d.ID, err)
	}
	return d, nil
}
