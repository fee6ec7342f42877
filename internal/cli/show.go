package cli

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/CryptoUnit-blockchain/limiter/internal/model"
	"github.com/CryptoUnit-blockchain/limiter/internal/store"
)

// ShowOptions holds flags for the show command.
type ShowOptions struct {
	*RootOptions
	Debtor   string
	Currency string
	Kind     string
	Limit    int
}

// Tables that show can list.
var showTables = []string{"locks", "debts", "limits", "whitelists", "usage"}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ShowOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "show <locks|debts|limits|whitelists|usage>",
		Short: "List the current limiter state",
		Long: `List one table of the current limiter state.

Examples:
  limiter show locks
  limiter show debts --debtor dan
  limiter show whitelists --currency CUNT --kind to
  limiter show usage --currency CUNT --limit 20 --format json`,
		Args:          cobra.ExactArgs(1),
		ValidArgs:     showTables,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Debtor, "debtor", "", "debts: only this debtor")
	cmd.Flags().StringVar(&opts.Currency, "currency", "", "whitelists, usage: only this currency")
	cmd.Flags().StringVar(&opts.Kind, "kind", "", "whitelists: only from or to")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "usage: at most this many rows (0 means all)")

	return cmd
}

// table is the rendered form of one listing: a JSON payload plus text rows.
type table struct {
	data   any
	header []string
	rows   [][]string
}

func runShow(opts *ShowOptions, name string, cmd *cobra.Command) error {
	if opts.Kind != "" {
		if err := model.WhitelistKind(opts.Kind).Validate(); err != nil {
			return WrapExitError(ExitCommandError, "invalid --kind", err)
		}
	}

	var list func(ctx context.Context, tx *store.Tx) (table, error)
	switch name {
	case "locks":
		list = listLocks
	case "debts":
		list = func(ctx context.Context, tx *store.Tx) (table, error) {
			return listDebts(ctx, tx, model.Name(opts.Debtor))
		}
	case "limits":
		list = listLimits
	case "whitelists":
		list = func(ctx context.Context, tx *store.Tx) (table, error) {
			return listWhitelists(ctx, tx, model.WhitelistKind(opts.Kind), model.SymbolCode(opts.Currency))
		}
	case "usage":
		list = func(ctx context.Context, tx *store.Tx) (table, error) {
			return listUsage(ctx, tx, model.SymbolCode(opts.Currency), opts.Limit)
		}
	default:
		return NewExitError(ExitCommandError, fmt.Sprintf("unknown table %q: must be one of %v", name, showTables))
	}

	a, err := openApp(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	var t table
	err = a.store.View(context.Background(), func(tx *store.Tx) error {
		var err error
		t, err = list(context.Background(), tx)
		return err
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read "+name, err)
	}

	if opts.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), CLIResponse{Status: "ok", Data: t.data})
	}
	return renderTable(cmd, name, t)
}

func renderTable(cmd *cobra.Command, name string, t table) error {
	w := cmd.OutOrStdout()
	if len(t.rows) == 0 {
		fmt.Fprintf(w, "No %s found\n", name)
		return nil
	}

	data := pterm.TableData{t.header}
	data = append(data, t.rows...)
	out, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to render table", err)
	}
	fmt.Fprintln(w, out)
	fmt.Fprintf(w, "%d %s\n", len(t.rows), name)
	return nil
}

func listLocks(ctx context.Context, tx *store.Tx) (table, error) {
	locks, err := tx.ListLocks(ctx)
	if err != nil {
		return table{}, err
	}
	t := table{data: locks, header: []string{"Account", "Note", "Created", "Payer"}}
	for _, l := range locks {
		t.rows = append(t.rows, []string{string(l.Account), l.Note, formatTime(l.CreatedAt), string(l.Payer)})
	}
	return t, nil
}

func listDebts(ctx context.Context, tx *store.Tx, debtor model.Name) (table, error) {
	debts, err := tx.ListDebts(ctx, debtor)
	if err != nil {
		return table{}, err
	}
	t := table{data: debts, header: []string{"Debtor", "ID", "Target", "Amount", "Memo", "Created"}}
	for _, d := range debts {
		t.rows = append(t.rows, []string{
			string(d.Debtor),
			strconv.FormatUint(d.ID, 10),
			string(d.Target),
			d.Amount.String(),
			d.Memo,
			formatTime(d.CreatedAt),
		})
	}
	return t, nil
}

func listLimits(ctx context.Context, tx *store.Tx) (table, error) {
	limits, err := tx.ListLimits(ctx)
	if err != nil {
		return table{}, err
	}
	t := table{data: limits, header: []string{"Currency", "Ceiling", "Set", "Payer"}}
	for _, l := range limits {
		t.rows = append(t.rows, []string{string(l.Currency), l.Ceiling.String(), formatTime(l.SetAt), string(l.Payer)})
	}
	return t, nil
}

func listWhitelists(ctx context.Context, tx *store.Tx, kind model.WhitelistKind, currency model.SymbolCode) (table, error) {
	entries, err := tx.ListWhitelist(ctx, kind, currency)
	if err != nil {
		return table{}, err
	}
	t := table{data: entries, header: []string{"Currency", "Kind", "Account", "Added", "Payer"}}
	for _, e := range entries {
		t.rows = append(t.rows, []string{string(e.Currency), string(e.Kind), string(e.Account), formatTime(e.AddedAt), string(e.Payer)})
	}
	return t, nil
}

func listUsage(ctx context.Context, tx *store.Tx, currency model.SymbolCode, limit int) (table, error) {
	usage, err := tx.ListUsage(ctx, currency, limit)
	if err != nil {
		return table{}, err
	}
	t := table{data: usage, header: []string{"Currency", "Account", "Used", "Updated"}}
	for _, u := range usage {
		t.rows = append(t.rows, []string{string(u.Currency), string(u.Account), u.Used.String(), formatTime(u.UpdatedAt)})
	}
	return t, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
