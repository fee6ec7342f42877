package engine

import (
	"context"
	"fmt"

	"github.com/CryptoUnit-blockchain/limiter/internal/model"
	"github.com/CryptoUnit-blockchain/limiter/internal/store"
)

// Replay
//
// A journal entry carries everything an invocation depends on: the encoded
// arguments, the signers, Now and seq. Executing the same entries in seq
// order against an empty store must therefore reproduce every id, status,
// code, reason and detail. Correlation tokens are not compared; they come
// from the replaying engine's TokenGenerator.

// Mismatch is one field that came out differently on replay.
type Mismatch struct {
	Seq   int64    `json:"seq"`
	Op    model.Op `json:"-"`
	Field string   `json:"field"`
	Want  string   `json:"want"`
	Got   string   `json:"got"`
}

// String renders the mismatch for CLI output.
func (m Mismatch) String() string {
	return fmt.Sprintf("seq %d %s: %s: want %q, got %q", m.Seq, m.Op, m.Field, m.Want, m.Got)
}

// ReplayReport summarizes a replay run.
type ReplayReport struct {
	Entries    int        `json:"entries"`
	Mismatches []Mismatch `json:"mismatches"`
}

// OK reports whether the replay reproduced the journal exactly.
func (r ReplayReport) OK() bool { return len(r.Mismatches) == 0 }

// Replay re-executes entries in order. The engine's store must not already
// hold any of the entries' sequence numbers; use a fresh store.
//
// A replayed invocation that is rejected is not an error: the rejection is
// compared against the journal like any other outcome. Infrastructure
// errors stop the replay.
func (e *Engine) Replay(ctx context.Context, entries []store.JournalEntry) (ReplayReport, error) {
	report := ReplayReport{Mismatches: []Mismatch{}}

	last, err := e.store.LastSeq(ctx)
	if err != nil {
		return report, err
	}
	if len(entries) > 0 && last >= entries[0].Seq {
		return report, fmt.Errorf("replay store already at seq %d, journal starts at %d", last, entries[0].Seq)
	}

	for _, entry := range entries {
		args, err := model.DecodeArgs(entry.Op, entry.Args)
		if err != nil {
			// Malformed arguments were rejected before touching state.
			if entry.Status == model.StatusRejected && entry.Code == string(ErrCodeInvalidArgument) {
				report.Entries++
				continue
			}
			return report, fmt.Errorf("seq %d: %w", entry.Seq, err)
		}

		inv := model.Invocation{Args: args, Authority: entry.Authority, Now: entry.Now}
		got, err := e.execute(ctx, inv, entry.Seq)
		if err != nil && !IsRejection(err) {
			return report, fmt.Errorf("seq %d: %w", entry.Seq, err)
		}
		report.Entries++
		report.Mismatches = append(report.Mismatches, compareEntry(entry, got)...)
	}
	return report, nil
}

func compareEntry(want store.JournalEntry, got model.Result) []Mismatch {
	fields := []struct {
		name      string
		want, got string
	}{
		{"id", want.ID, got.ID},
		{"status", string(want.Status), string(got.Status)},
		{"code", want.Code, got.Code},
		{"reason", want.Reason, got.Reason},
		{"detail", want.Detail, got.Detail},
	}

	var out []Mismatch
	for _, f := range fields {
		if f.want != f.got {
			out = append(out, Mismatch{Seq: want.Seq, Op: want.Op, Field: f.name, Want: f.want, Got: f.got})
		}
	}
	return out
}
