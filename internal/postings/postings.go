// Package postings loads journals described in YAML files.
//
//	labels: [GBP, USD]
//	balance_type: debit
//	postings:
//	  - account: cash
//	    dr: ["100", "0"]
//	    cr: [0, 0]
package postings

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"tacc.org/internal/journal"
	"tacc.org/internal/tacc"
)

var ErrInvalidFile = errors.New("invalid posting file")

// Amount is a scalar amount kept as written. Quoted and bare numbers are
// both accepted.
type Amount string

func (a *Amount) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: amount must be a scalar", n.Line)
	}
	*a = Amount(strings.TrimSpace(n.Value))
	return nil
}

// Entry is one posting against an account.
type Entry struct {
	Account string   `yaml:"account"`
	Dr      []Amount `yaml:"dr,omitempty"`
	Cr      []Amount `yaml:"cr,omitempty"`
	Memo    string   `yaml:"memo,omitempty"`
}

// File is a parsed posting file.
type File struct {
	Labels      []string `yaml:"labels,omitempty"`
	BalanceType string   `yaml:"balance_type,omitempty"`
	Postings    []Entry  `yaml:"postings"`
}

// Load reads and parses path.
func Load(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

// Parse decodes a posting file. Unknown keys are rejected.
func Parse(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return &f, nil
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidFile, err)
	}
	for i, e := range f.Postings {
		if strings.TrimSpace(e.Account) == "" {
			return nil, fmt.Errorf("%w: posting %d has no account", ErrInvalidFile, i+1)
		}
	}
	return &f, nil
}

// LabelSet returns the declared labels, or default labels wide enough for
// the widest posting.
func (f *File) LabelSet() (*tacc.Labels, error) {
	if len(f.Labels) > 0 {
		return tacc.NewLabels(f.Labels...)
	}
	width := 1
	for _, e := range f.Postings {
		width = max(width, len(e.Dr), len(e.Cr))
	}
	return tacc.DefaultLabels(width), nil
}

// Journal replays every posting into a fresh journal keyed by account.
func (f *File) Journal() (*journal.Journal[string], error) {
	labels, err := f.LabelSet()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFile, err)
	}
	bt, err := tacc.ParseBalanceType(f.BalanceType)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFile, err)
	}

	j := journal.New[string](journal.WithLabels(labels), journal.WithBalanceType(bt))
	for i, e := range f.Postings {
		m, err := tacc.New(toAny(e.Dr), toAny(e.Cr),
			tacc.WithLabelSet(labels), tacc.WithBalanceType(bt), tacc.WithName(e.Account))
		if err != nil {
			return nil, fmt.Errorf("posting %d (%s): %w", i+1, e.Account, err)
		}
		if err := j.AddT(e.Account, m); err != nil {
			return nil, fmt.Errorf("posting %d (%s): %w", i+1, e.Account, err)
		}
	}
	return j, nil
}

func toAny(in []Amount) []any {
	out := make([]any, len(in))
	for i, v := range in {
		out[i] = string(v)
	}
	return out
}
