package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"tacc.org/internal/tacc"
)

type reduceOptions struct {
	dr          []string
	cr          []string
	labels      []string
	balanceType string
}

type reduceReport struct {
	Labels   []string `json:"labels"`
	T        string   `json:"t"`
	Reduced  string   `json:"reduced"`
	Balance  []string `json:"balance"`
	Disjoint bool     `json:"disjoint"`
	Zero     bool     `json:"zero"`
}

func NewReduceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &reduceOptions{}

	cmd := &cobra.Command{
		Use:   "reduce",
		Short: "Net a T-account so each dimension has activity on one side only",
		Example: `  taccctl reduce --dr 100,20 --cr 30,50
  taccctl reduce --labels GBP,USD --dr 10 --cr 0,4 --balance-type credit`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReduce(rootOpts, opts, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringSliceVar(&opts.dr, "dr", nil, "debit amounts, comma separated")
	cmd.Flags().StringSliceVar(&opts.cr, "cr", nil, "credit amounts, comma separated")
	cmd.Flags().StringSliceVar(&opts.labels, "labels", nil, "dimension labels (default GBP, label_0, ...)")
	cmd.Flags().StringVar(&opts.balanceType, "balance-type", "debit", "debit or credit")
	return cmd
}

func runReduce(rootOpts *RootOptions, opts *reduceOptions, w io.Writer) error {
	bt, err := tacc.ParseBalanceType(opts.balanceType)
	if err != nil {
		return err
	}
	mdtOpts := []tacc.Option{tacc.WithBalanceType(bt)}
	if len(opts.labels) > 0 {
		mdtOpts = append(mdtOpts, tacc.WithLabels(opts.labels...))
	}
	m, err := tacc.New(toAny(opts.dr), toAny(opts.cr), mdtOpts...)
	if err != nil {
		return err
	}
	reduced := m.Reduce()

	if rootOpts.Format == "json" {
		return writeJSON(w, reduceReport{
			Labels:   m.Labels().Names(),
			T:        m.String(),
			Reduced:  reduced.String(),
			Balance:  fixed(m.Balance()),
			Disjoint: m.IsDisjoint(),
			Zero:     m.IsZero(),
		})
	}
	_, err = fmt.Fprintf(w, "t:       %s\nreduced: %s\nbalance: %s\n", m, reduced, m.Balance())
	return err
}
