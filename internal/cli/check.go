package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"tacc.org/internal/postings"
)

type accountLine struct {
	Account string   `json:"account"`
	T       string   `json:"t"`
	Balance []string `json:"balance"`
}

// CheckReport is the result of replaying a posting file.
type CheckReport struct {
	Labels      []string      `json:"labels"`
	BalanceType string        `json:"balance_type"`
	Accounts    []accountLine `json:"accounts"`
	Total       string        `json:"total"`
	AutoBalance *accountLine  `json:"auto_balance,omitempty"`
	Balanced    bool          `json:"balanced"`
}

func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	var autoBalance string

	cmd := &cobra.Command{
		Use:   "check <postings.yaml>",
		Short: "Replay a posting file and report whether it balances",
		Long: `Replay every posting in a YAML file into a journal and print each
account's T form and the journal total.

Exits with status 1 when the journal is unbalanced. With --auto-balance the
negated total is posted to the named account first.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(rootOpts, args[0], autoBalance, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&autoBalance, "auto-balance", "", "post the correcting entry to this account")
	return cmd
}

func runCheck(opts *RootOptions, path, autoBalance string, w io.Writer) error {
	f, err := postings.Load(path)
	if err != nil {
		return err
	}
	j, err := f.Journal()
	if err != nil {
		return err
	}

	report := CheckReport{
		Labels:      j.Labels().Names(),
		BalanceType: j.BalanceType().String(),
	}
	if account := strings.TrimSpace(autoBalance); account != "" {
		correction, err := j.AutoBalance(account)
		if err != nil {
			return fmt.Errorf("auto-balance: %w", err)
		}
		report.AutoBalance = &accountLine{Account: account, T: correction.String(), Balance: fixed(correction.Balance())}
	}

	snap := j.Snapshot()
	for _, id := range j.Accounts() {
		m := snap[id]
		report.Accounts = append(report.Accounts, accountLine{Account: id, T: m.String(), Balance: fixed(m.Balance())})
	}
	total := j.Balance()
	report.Total = total.String()
	report.Balanced = total.IsZero()

	if opts.Format == "json" {
		err = writeJSON(w, report)
	} else {
		err = writeCheckText(w, report)
	}
	if err != nil {
		return err
	}
	if !report.Balanced {
		return ErrUnbalanced
	}
	return nil
}

func writeCheckText(w io.Writer, r CheckReport) error {
	width := len("total")
	for _, a := range r.Accounts {
		width = max(width, len(a.Account))
	}
	var b strings.Builder
	fmt.Fprintf(&b, "labels: %s (%s)\n", strings.Join(r.Labels, ", "), r.BalanceType)
	for _, a := range r.Accounts {
		fmt.Fprintf(&b, "%-*s  %s\n", width, a.Account, a.T)
	}
	fmt.Fprintf(&b, "%-*s  %s\n", width, "total", r.Total)
	if r.AutoBalance != nil {
		fmt.Fprintf(&b, "auto-balanced: %s %s\n", r.AutoBalance.Account, r.AutoBalance.T)
	}
	fmt.Fprintf(&b, "balanced: %t\n", r.Balanced)
	_, err := io.WriteString(w, b.String())
	return err
}
