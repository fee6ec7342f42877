package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/CryptoUnit-blockchain/limiter/internal/model"
	"github.com/CryptoUnit-blockchain/limiter/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	After  int64
	Limit  int
	ID     string
	Op     string // optional - filter to one operation
	Status string // optional - filter to one status
}

// TraceEvent is one journal entry as shown by trace.
type TraceEvent struct {
	Seq           int64          `json:"seq"`
	ID            string         `json:"id"`
	Token         string         `json:"token"`
	Op            string         `json:"op"`
	Args          map[string]any `json:"args"`
	Signers       []string       `json:"signers"`
	Now           time.Time      `json:"now"`
	Status        string         `json:"status"`
	Code          string         `json:"code,omitempty"`
	Reason        string         `json:"reason,omitempty"`
	Detail        string         `json:"detail,omitempty"`
	EngineVersion string         `json:"engine_version"`
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	Timeline []TraceEvent `json:"timeline"`
	Stats    TraceStats   `json:"stats"`
}

// TraceStats counts the listed events by status.
type TraceStats struct {
	TotalEvents int `json:"total_events"`
	Committed   int `json:"committed"`
	Allowed     int `json:"allowed"`
	Rejected    int `json:"rejected"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "List journaled invocations",
		Long: `List journaled invocations in sequence order.

Every executed invocation, committed, allowed or rejected, is journaled
with its arguments, signers and the time it ran.

Examples:
  limiter trace
  limiter trace --after 120 --limit 20
  limiter trace --op decide --status rejected
  limiter trace --id 3f2a... --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().Int64Var(&opts.After, "after", 0, "only entries with seq greater than this")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "read at most this many entries (0 means all)")
	cmd.Flags().StringVar(&opts.ID, "id", "", "show the single entry with this invocation id")
	cmd.Flags().StringVar(&opts.Op, "op", "", "filter to one operation")
	cmd.Flags().StringVar(&opts.Status, "status", "", "filter to committed, allowed or rejected")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := context.Background()

	if opts.Op != "" {
		if _, err := model.ParseOp(opts.Op); err != nil {
			return WrapExitError(ExitCommandError, "invalid --op", err)
		}
	}

	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return err
	}
	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	var entries []store.JournalEntry
	if opts.ID != "" {
		entry, err := st.ReadJournalEntry(ctx, opts.ID)
		if errors.Is(err, store.ErrNotFound) {
			return WrapExitError(ExitCommandError, "invocation "+opts.ID, err)
		}
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read journal", err)
		}
		entries = append(entries, entry)
	} else {
		entries, err = st.ReadJournal(ctx, opts.After, opts.Limit)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read journal", err)
		}
	}

	result, err := buildTimeline(entries, opts.Op, opts.Status)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to decode journal", err)
	}

	if opts.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), CLIResponse{Status: "ok", Data: result})
	}
	outputTraceText(cmd.OutOrStdout(), result, opts.Verbose)
	return nil
}

// buildTimeline converts journal entries into trace events, keeping only
// those that match the op and status filters.
func buildTimeline(entries []store.JournalEntry, opFilter, statusFilter string) (TraceResult, error) {
	result := TraceResult{Timeline: []TraceEvent{}}

	for _, e := range entries {
		if opFilter != "" && e.Op.String() != opFilter {
			continue
		}
		if statusFilter != "" && string(e.Status) != statusFilter {
			continue
		}

		args, err := decodeArgs(e.Args)
		if err != nil {
			return result, fmt.Errorf("seq %d: %w", e.Seq, err)
		}
		signers := make([]string, 0, len(e.Authority))
		for _, n := range e.Authority {
			signers = append(signers, string(n))
		}

		result.Timeline = append(result.Timeline, TraceEvent{
			Seq:           e.Seq,
			ID:            e.ID,
			Token:         e.Token,
			Op:            e.Op.String(),
			Args:          args,
			Signers:       signers,
			Now:           e.Now.UTC(),
			Status:        string(e.Status),
			Code:          e.Code,
			Reason:        e.Reason,
			Detail:        e.Detail,
			EngineVersion: e.EngineVersion,
		})

		switch e.Status {
		case model.StatusCommitted:
			result.Stats.Committed++
		case model.StatusAllowed:
			result.Stats.Allowed++
		case model.StatusRejected:
			result.Stats.Rejected++
		}
	}
	result.Stats.TotalEvents = len(result.Timeline)
	return result, nil
}

// decodeArgs keeps numbers as json.Number so counts and ids print exactly.
func decodeArgs(raw json.RawMessage) (map[string]any, error) {
	args := map[string]any{}
	if len(raw) == 0 {
		return args, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&args); err != nil {
		return nil, err
	}
	return args, nil
}

func outputTraceText(w io.Writer, result TraceResult, verbose bool) {
	fmt.Fprintln(w, "=== Timeline ===")
	if len(result.Timeline) == 0 {
		fmt.Fprintln(w, "  (no events)")
	}
	for _, event := range result.Timeline {
		formatTimelineEvent(w, event, verbose)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Stats ===")
	fmt.Fprintf(w, "  Total Events: %d\n", result.Stats.TotalEvents)
	fmt.Fprintf(w, "  Committed:    %d\n", result.Stats.Committed)
	fmt.Fprintf(w, "  Allowed:      %d\n", result.Stats.Allowed)
	fmt.Fprintf(w, "  Rejected:     %d\n", result.Stats.Rejected)
}

func formatTimelineEvent(w io.Writer, event TraceEvent, verbose bool) {
	outcome := event.Detail
	if event.Status == string(model.StatusRejected) {
		outcome = event.Code + ": " + event.Reason
	}
	fmt.Fprintf(w, "  [%d] %s %s %s -> %s (%s)\n",
		event.Seq, event.Now.Format(time.RFC3339), event.Op, formatArgs(event.Args), event.Status, outcome)
	if verbose {
		fmt.Fprintf(w, "       As: %s\n", strings.Join(event.Signers, ", "))
		fmt.Fprintf(w, "       ID: %s  Token: %s\n", truncateID(event.ID), event.Token)
	}
}

// formatArgs formats a map of args for display with sorted keys.
func formatArgs(args map[string]any) string {
	if len(args) == 0 {
		return "{}"
	}

	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%s", k, formatValue(args[k])))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func formatValue(v any) string {
	switch val := v.(type) {
	case map[string]any:
		return formatArgs(val)
	case []any:
		parts := make([]string, len(val))
		for i, elem := range val {
			parts[i] = formatValue(elem)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case string:
		if val == "" {
			return `""`
		}
		return val
	default:
		return fmt.Sprintf("%v", v)
	}
}

// truncateID shortens a content hash for display.
func truncateID(id string) string {
	if len(id) <= 16 {
		return id
	}
	return id[:8] + "..." + id[len(id)-8:]
}
