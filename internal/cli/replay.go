package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/CryptoUnit-blockchain/limiter/internal/engine"
	"github.com/CryptoUnit-blockchain/limiter/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Limit int
}

// ReplayResult holds the replay outcome.
type ReplayResult struct {
	Entries       int               `json:"entries"`
	LastSeq       int64             `json:"last_seq"`
	Mismatches    []engine.Mismatch `json:"mismatches"`
	Deterministic bool              `json:"deterministic"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay the journal and verify determinism",
		Long: `Replay the journal into an empty in-memory database and verify that
every invocation reproduces its journaled id, status, code, reason and
detail. The configured database is only read.

Exit codes:
  0 - The journal replayed identically
  1 - Replay diverged from the journal
  2 - Command error (database not found, etc.)

Examples:
  limiter replay
  limiter replay --db ./limiter.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "replay only the first N entries (0 means all)")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	ctx := context.Background()

	a, err := openApp(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	entries, err := a.store.ReadJournal(ctx, 0, opts.Limit)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read journal", err)
	}

	report, err := replayEntries(ctx, a, entries)
	if err != nil {
		return WrapExitError(ExitCommandError, "replay failed", err)
	}

	result := ReplayResult{
		Entries:       report.Entries,
		Mismatches:    report.Mismatches,
		Deterministic: report.OK(),
	}
	if len(entries) > 0 {
		result.LastSeq = entries[len(entries)-1].Seq
	}

	if opts.Format == "json" {
		return outputReplayJSON(cmd.OutOrStdout(), result)
	}
	return outputReplayText(cmd.OutOrStdout(), result, opts.Verbose)
}

// replayEntries runs entries through a fresh engine that shares a's
// roles, policy and currencies but not its store or publisher.
func replayEntries(ctx context.Context, a *app, entries []store.JournalEntry) (engine.ReplayReport, error) {
	scratch, err := store.Open(":memory:")
	if err != nil {
		return engine.ReplayReport{}, err
	}
	defer scratch.Close()

	eng := engine.New(scratch, a.dir,
		engine.WithRoles(a.engine.Roles()),
		engine.WithPolicy(a.engine.Policy()),
		engine.WithLogger(a.log.WithField("replay", true)),
	)
	return eng.Replay(ctx, entries)
}

func outputReplayJSON(w io.Writer, result ReplayResult) error {
	response := CLIResponse{Status: "ok", Data: result}
	if !result.Deterministic {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    "E_DETERMINISM",
			Message: "determinism verification failed",
		}
	}

	if err := writeJSON(w, response); err != nil {
		return err
	}
	if !result.Deterministic {
		return NewExitError(ExitFailure, "determinism verification failed")
	}
	return nil
}

func outputReplayText(w io.Writer, result ReplayResult, verbose bool) error {
	if result.Entries == 0 {
		fmt.Fprintln(w, "No journal entries found.")
		return nil
	}

	fmt.Fprintf(w, "Replay Summary: %d entr%s through seq %d\n", result.Entries, plural(result.Entries, "y", "ies"), result.LastSeq)
	fmt.Fprintln(w)

	for _, m := range result.Mismatches {
		fmt.Fprintf(w, "✗ %s\n", m)
	}
	if verbose {
		fmt.Fprintf(w, "  Replayed: %d\n  Mismatches: %d\n\n", result.Entries, len(result.Mismatches))
	}

	if result.Deterministic {
		fmt.Fprintln(w, "✓ Journal verified deterministic")
		return nil
	}

	fmt.Fprintf(w, "✗ Determinism verification failed: %d mismatch(es)\n", len(result.Mismatches))
	return NewExitError(ExitFailure, "determinism verification failed")
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
