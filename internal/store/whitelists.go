package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/CryptoUnit-blockchain/limiter/internal/model"
)

// InWhitelist reports whether account is listed under kind for currency.
func (t *Tx) InWhitelist(ctx context.Context, kind model.WhitelistKind, currency model.SymbolCode, account model.Name) (bool, error) {
	return t.exists(ctx, `
		SELECT 1 FROM whitelists
		WHERE kind = ? AND currency = ? AND account = ?
	`, string(kind), string(currency), string(account))
}

// InsertWhitelist adds an entry, or returns ErrConflict if it exists.
func (t *Tx) InsertWhitelist(ctx context.Context, e model.WhitelistEntry) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO whitelists (kind, currency, account, added_at, payer)
		VALUES (?, ?, ?, ?, ?)
	`, string(e.Kind), string(e.Currency), string(e.Account), e.AddedAt.Unix(), string(e.Payer))
	if isUniqueViolation(err) {
		return ErrConflict
	}
	if err != nil {
		return fmt.Errorf("insert whitelist: %w", err)
	}
	return nil
}

// DeleteWhitelist removes an entry, or returns ErrNotFound.
func (t *Tx) DeleteWhitelist(ctx context.Context, kind model.WhitelistKind, currency model.SymbolCode, account model.Name) error {
	return t.deleteOne(ctx, "delete whitelist", `
		DELETE FROM whitelists
		WHERE kind = ? AND currency = ? AND account = ?
	`, string(kind), string(currency), string(account))
}

// ListWhitelist returns entries filtered by kind and currency; an empty
// filter matches everything.
func (t *Tx) ListWhitelist(ctx context.Context, kind model.WhitelistKind, currency model.SymbolCode) ([]model.WhitelistEntry, error) {
	var (
		where []string
		args  []any
	)
	if kind != "" {
		where = append(where, "kind = ?")
		args = append(args, string(kind))
	}
	if currency != "" {
		where = append(where, "currency = ?")
		args = append(args, string(currency))
	}

	query := `SELECT kind, currency, account, added_at, payer FROM whitelists`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += ` ORDER BY currency COLLATE BINARY ASC, kind COLLATE BINARY ASC, account COLLATE BINARY ASC`

	rows, err := t.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query whitelists: %w", err)
	}
	defer rows.Close()

	entries := []model.WhitelistEntry{}
	for rows.Next() {
		var (
			e     model.WhitelistEntry
			added int64
		)
		if err := rows.Scan(&e.Kind, &e.Currency, &e.Account, &added, &e.Payer); err != nil {
			return nil, fmt.Errorf("scan whitelist: %w", err)
		}
		e.AddedAt = fromUnix(added)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate whitelists: %w", err)
	}
	return entries, nil
}
