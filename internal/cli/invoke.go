package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/CryptoUnit-blockchain/limiter/internal/engine"
	"github.com/CryptoUnit-blockchain/limiter/internal/model"
)

// InvokeOptions holds flags for the invoke command.
type InvokeOptions struct {
	*RootOptions
	Args    string
	Signers []string
	Now     string
}

// InvokeOutput is the JSON payload of invoke and decide.
type InvokeOutput struct {
	Op string `json:"op"`
	model.Result
}

// NewInvokeCommand creates the invoke command.
func NewInvokeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InvokeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "invoke <op>",
		Short: "Execute one operation against the database",
		Long: `Execute one operation against the database and journal it.

The operation is one of set_lock, clear_lock, record_debt, delete_debt,
remove_debt, set_limit, clear_limit, add_whitelist, remove_whitelist,
remove_usage, remove_usages or decide. Its arguments are a JSON object;
unknown fields are an error. --as lists the identities that signed.

A rejected invocation is still journaled and exits with status 1.

Examples:
  limiter invoke set_lock --args '{"account":"dan","note":"collections"}' --as debtadmin
  limiter invoke set_limit --args '{"ceiling":"100.0000 CUNT"}' --as cryptounit
  limiter invoke remove_usages --args '{"currency":"CUNT","count":50}' --as limiter`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInvoke(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Args, "args", "{}", "operation arguments as JSON")
	cmd.Flags().StringSliceVar(&opts.Signers, "as", nil, "signing identities (repeatable or comma separated)")
	cmd.Flags().StringVar(&opts.Now, "now", "", "invocation time as RFC 3339 (default current time)")

	return cmd
}

func runInvoke(opts *InvokeOptions, opName string, cmd *cobra.Command) error {
	op, err := model.ParseOp(opName)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid operation", err)
	}
	args, err := model.DecodeArgs(op, []byte(opts.Args))
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --args", err)
	}
	now, err := parseNow(opts.Now)
	if err != nil {
		return err
	}

	a, err := openApp(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	return execute(cmd, opts.RootOptions, a, model.Invocation{
		Args:      args,
		Authority: authority(opts.Signers),
		Now:       now,
	})
}

// execute runs inv and reports the result. A rejection is reported like a
// success and then turned into ExitFailure.
func execute(cmd *cobra.Command, opts *RootOptions, a *app, inv model.Invocation) error {
	res, err := a.engine.Execute(context.Background(), inv)
	if err != nil && !engine.IsRejection(err) {
		return WrapExitError(ExitCommandError, "invocation failed", err)
	}

	out := InvokeOutput{Op: inv.Args.Op().String(), Result: res}
	w := cmd.OutOrStdout()
	if opts.Format == "json" {
		if res.Status == model.StatusRejected {
			formatter := &OutputFormatter{Format: opts.Format, Writer: w}
			if err := formatter.Error(CodeRejected, res.Reason, out); err != nil {
				return err
			}
		} else if err := writeJSON(w, CLIResponse{Status: "ok", Data: out}); err != nil {
			return err
		}
	} else {
		printResult(w, out, opts.Verbose)
	}

	if res.Status == model.StatusRejected {
		return NewExitError(ExitFailure, fmt.Sprintf("%s rejected: %s", out.Op, res.Reason))
	}
	return nil
}

func printResult(w io.Writer, out InvokeOutput, verbose bool) {
	if out.Status == model.StatusRejected {
		fmt.Fprintf(w, "✗ [%d] %s %s [%s]: %s\n", out.Seq, out.Op, out.Status, out.Code, out.Reason)
	} else {
		fmt.Fprintf(w, "✓ [%d] %s %s: %s\n", out.Seq, out.Op, out.Status, out.Detail)
	}
	if verbose {
		fmt.Fprintf(w, "    id:    %s\n", out.ID)
		fmt.Fprintf(w, "    token: %s\n", out.Token)
	}
}

func authority(signers []string) model.Authority {
	auth := make(model.Authority, 0, len(signers))
	for _, s := range signers {
		auth = append(auth, model.Name(s))
	}
	return auth
}

func parseNow(s string) (time.Time, error) {
	if s == "" {
		return time.Now().UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, WrapExitError(ExitCommandError, "invalid --now", err)
	}
	return t, nil
}

// DecideOptions holds flags for the decide command.
type DecideOptions struct {
	*RootOptions
	Memo    string
	Signers []string
	Now     string
}

// NewDecideCommand creates the decide command, a shorthand for
// invoke decide signed by the transfer authority.
func NewDecideCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DecideOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "decide <from> <to> <amount>",
		Short: "Ask the gate whether a transfer may proceed",
		Long: `Ask the gate whether a transfer may proceed.

The amount is a quantity and symbol code, e.g. "12.5000 CUNT". Unless
--as is given the request is signed by the configured transfer authority.
An allowed transfer is counted against the sender's usage.

Examples:
  limiter decide alice bob "12.5000 CUNT"
  limiter decide dan tom "5.0000 CUNT" --memo loan --format json`,
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDecide(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Memo, "memo", "", "transfer memo")
	cmd.Flags().StringSliceVar(&opts.Signers, "as", nil, "signing identities (default the transfer authority)")
	cmd.Flags().StringVar(&opts.Now, "now", "", "invocation time as RFC 3339 (default current time)")

	return cmd
}

func runDecide(opts *DecideOptions, args []string, cmd *cobra.Command) error {
	amount, err := model.ParseAsset(args[2])
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid amount", err)
	}
	now, err := parseNow(opts.Now)
	if err != nil {
		return err
	}

	a, err := openApp(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	signers := opts.Signers
	if len(signers) == 0 {
		signers = []string{a.cfg.Roles.TransferAuthority}
	}

	return execute(cmd, opts.RootOptions, a, model.Invocation{
		Args: model.DecideArgs{
			From:   model.Name(args[0]),
			To:     model.Name(args[1]),
			Amount: amount,
			Memo:   opts.Memo,
		},
		Authority: authority(signers),
		Now:       now,
	})
}
