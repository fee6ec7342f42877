package store

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/CryptoUnit-blockchain/limiter/internal/model"
)

// JournalEntry is one executed invocation as persisted in the journal.
// Args holds the JSON argument object exactly as the engine encoded it, so
// replay decodes the same bytes it hashed.
type JournalEntry struct {
	Seq           int64
	ID            string
	Token         string
	Op            model.Op
	Args          json.RawMessage
	Authority     model.Authority
	Now           time.Time
	Status        model.Status
	Code          string
	Reason        string
	Detail        string
	EngineVersion string
}

// AppendJournal writes e. Sequence numbers and ids are unique; a duplicate
// returns ErrConflict.
func (t *Tx) AppendJournal(ctx context.Context, e JournalEntry) error {
	authority, err := marshalAuthority(e.Authority)
	if err != nil {
		return fmt.Errorf("append journal: %w", err)
	}

	_, err = t.tx.ExecContext(ctx, `
		INSERT INTO invocations
		(seq, id, token, op, args, authority, now, status, code, reason, detail, engine_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		e.Seq,
		e.ID,
		e.Token,
		e.Op.String(),
		string(e.Args),
		authority,
		e.Now.Unix(),
		string(e.Status),
		e.Code,
		e.Reason,
		e.Detail,
		e.EngineVersion,
	)
	if isUniqueViolation(err) {
		return ErrConflict
	}
	if err != nil {
		return fmt.Errorf("append journal: %w", err)
	}
	return nil
}

// LastSeq returns the highest journaled sequence number, or 0 when the
// journal is empty.
func (s *Store) LastSeq(ctx context.Context) (int64, error) {
	var seq sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(seq) FROM invocations`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("last seq: %w", err)
	}
	return seq.Int64, nil
}

// ReadJournal returns journal entries with seq > after, in seq order, at
// most limit of them when limit > 0.
func (s *Store) ReadJournal(ctx context.Context, after int64, limit int) ([]JournalEntry, error) {
	query := `
		SELECT seq, id, token, op, args, authority, now, status, code, reason, detail, engine_version
		FROM invocations
		WHERE seq > ?
		ORDER BY seq ASC`
	args := []any{after}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query journal: %w", err)
	}
	defer rows.Close()

	entries := []JournalEntry{}
	for rows.Next() {
		e, err := scanJournal(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate journal: %w", err)
	}
	return entries, nil
}

// ReadJournalEntry returns the entry with the given content id, or
// ErrNotFound.
func (s *Store) ReadJournalEntry(ctx context.Context, id string) (JournalEntry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT seq, id, token, op, args, authority, now, status, code, reason, detail, engine_version
		FROM invocations
		WHERE id = ?
	`, id)
	e, err := scanJournal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return JournalEntry{}, ErrNotFound
	}
	return e, err
}

func scanJournal(row rowScanner) (JournalEntry, error) {
	var (
		e         JournalEntry
		op        string
		args      string
		authority string
		now       int64
	)
	err := row.Scan(&e.Seq, &e.ID, &e.Token, &op, &args, &authority, &now, &e.Status, &e.Code, &e.Reason, &e.Detail, &e.EngineVersion)
	if errors.Is(err, sql.ErrNoRows) {
		return JournalEntry{}, err
	}
	if err != nil {
		return JournalEntry{}, fmt.Errorf("scan journal: %w", err)
	}

	if e.Op, err = model.ParseOp(op); err != nil {
		return JournalEntry{}, fmt.Errorf("scan journal seq=%d: %w", e.Seq, err)
	}
	if e.Authority, err = unmarshalAuthority(authority); err != nil {
		return JournalEntry{}, fmt.Errorf("scan journal seq=%d: %w", e.Seq, err)
	}
	e.Args = json.RawMessage(args)
	e.Now = fromUnix(now)
	return e, nil
}

// marshalAuthority stores the signer set as a JSON array, HTML escaping off.
func marshalAuthority(a model.Authority) (string, error) {
	if a == nil {
		a = model.Authority{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(a); err != nil {
		return "", fmt.Errorf("marshal authority: %w", err)
	}
	// Encoder adds a trailing newline, remove it
	return strings.TrimSpace(buf.String()), nil
}

func unmarshalAuthority(data string) (model.Authority, error) {
	a := model.Authority{}
	if err := json.Unmarshal([]byte(data), &a); err != nil {
		return nil, fmt.Errorf("unmarshal authority: %w", err)
	}
	return a, nil
}
