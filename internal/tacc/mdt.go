package tacc

import (
	"github.com/shopspring/decimal"
)

// MDT is a multi-dimensional T-account: debit and credit vectors over a
// shared label set. Values are immutable; every operation returns a new MDT
// carrying the receiver's labels, balance type and name. The zero MDT is the
// zero account over DefaultUnit.
type MDT struct {
	debits      Vector
	credits     Vector
	balanceType BalanceType
	name        string
}

type options struct {
	balanceType BalanceType
	name        string
	labelNames  []string
	labels      *Labels
}

// Option configures a new T-account.
type Option func(*options)

func WithBalanceType(bt BalanceType) Option {
	return func(o *options) { o.balanceType = bt }
}

func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithLabels names the dimensions explicitly.
func WithLabels(names ...string) Option {
	return func(o *options) {
		o.labelNames = names
		o.labels = nil
	}
}

// WithLabelSet reuses an existing label set.
func WithLabelSet(l *Labels) Option {
	return func(o *options) {
		o.labels = l
		o.labelNames = nil
	}
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o options) resolveLabels(n int) (*Labels, error) {
	switch {
	case o.labels != nil:
		return o.labels, nil
	case o.labelNames != nil:
		return NewLabels(o.labelNames...)
	default:
		return DefaultLabels(n), nil
	}
}

// New builds an MDT from raw debit and credit amounts. Without explicit
// labels the cardinality is the longer of the two inputs (at least one).
func New(drs, crs []any, opts ...Option) (MDT, error) {
	o := buildOptions(opts)
	labels, err := o.resolveLabels(max(len(drs), len(crs), 1))
	if err != nil {
		return MDT{}, err
	}
	debits, err := NewVector(labels, drs...)
	if err != nil {
		return MDT{}, err
	}
	credits, err := NewVector(labels, crs...)
	if err != nil {
		return MDT{}, err
	}
	return MDT{
		debits:      debits,
		credits:     credits,
		balanceType: o.balanceType,
		name:        o.name,
	}, nil
}

// MustNew is New that panics on error. Intended for literals in tests and
// examples.
func MustNew(drs, crs []any, opts ...Option) MDT {
	m, err := New(drs, crs, opts...)
	if err != nil {
		panic(err)
	}
	return m
}

// Zero returns the zero account over labels (DefaultUnit when nil).
func Zero(labels *Labels, opts ...Option) MDT {
	o := buildOptions(opts)
	return MDT{
		debits:      ZeroVector(labels),
		credits:     ZeroVector(labels),
		balanceType: o.balanceType,
		name:        o.name,
	}
}

func (m MDT) Debits() Vector           { return m.debits }
func (m MDT) Credits() Vector          { return m.credits }
func (m MDT) BalanceType() BalanceType { return m.balanceType }
func (m MDT) Name() string             { return m.name }
func (m MDT) Labels() *Labels          { return m.debits.Labels() }
func (m MDT) Cardinality() int         { return m.debits.Len() }
func (m MDT) AsMDT() MDT               { return m }

// At returns the debit and credit amounts at position i.
func (m MDT) At(i int) (dr, cr decimal.Decimal) {
	return m.debits.At(i), m.credits.At(i)
}

// Pair returns the debit and credit amounts for a label.
func (m MDT) Pair(label string) (dr, cr decimal.Decimal, ok bool) {
	i, ok := m.Labels().Index(label)
	if !ok {
		return decimal.Zero, decimal.Zero, false
	}
	dr, cr = m.At(i)
	return dr, cr, true
}

func (m MDT) clone(debits, credits Vector) MDT {
	return MDT{
		debits:      debits,
		credits:     credits,
		balanceType: m.balanceType,
		name:        m.name,
	}
}

// Clone returns a copy with the given vectors replaced; nil keeps the
// receiver's. Replacements must match the receiver's labels.
func (m MDT) Clone(debits, credits *Vector) (MDT, error) {
	d, c := m.debits, m.credits
	if debits != nil {
		if err := checkCompatible(m.Labels(), debits.Labels()); err != nil {
			return MDT{}, err
		}
		d = *debits
	}
	if credits != nil {
		if err := checkCompatible(m.Labels(), credits.Labels()); err != nil {
			return MDT{}, err
		}
		c = *credits
	}
	return m.clone(d, c), nil
}

// Neg reverses the entry by swapping the debit and credit sides.
func (m MDT) Neg() MDT { return m.clone(m.credits, m.debits) }

// Pos returns an equivalent copy.
func (m MDT) Pos() MDT { return m.clone(m.debits, m.credits) }

// Add sums debits with debits and credits with credits. Sides are not netted.
func (m MDT) Add(o MDT) (MDT, error) {
	if err := checkCompatible(m.Labels(), o.Labels()); err != nil {
		return MDT{}, err
	}
	return m.clone(m.debits.add(o.debits), m.credits.add(o.credits)), nil
}

// Sub subtracts side by side. Stored amounts may become negative.
func (m MDT) Sub(o MDT) (MDT, error) {
	if err := checkCompatible(m.Labels(), o.Labels()); err != nil {
		return MDT{}, err
	}
	return m.clone(m.debits.sub(o.debits), m.credits.sub(o.credits)), nil
}

// Equivalent reports whether both accounts hold the same net position in
// every dimension: dr[i] + o.cr[i] == cr[i] + o.dr[i]. Mismatched
// dimensions are reported as errors.
func (m MDT) Equivalent(o MDT) (bool, error) {
	if err := checkCompatible(m.Labels(), o.Labels()); err != nil {
		return false, err
	}
	for i := 0; i < m.Cardinality(); i++ {
		left := m.debits.At(i).Add(o.credits.At(i))
		right := m.credits.At(i).Add(o.debits.At(i))
		if !left.Equal(right) {
			return false, nil
		}
	}
	return true, nil
}

// Equal is Equivalent with mismatches treated as not equal.
func (m MDT) Equal(o MDT) bool {
	eq, err := m.Equivalent(o)
	return err == nil && eq
}

// IsZero reports a zero net position in every dimension, so fully offset
// accounts such as [50 // 50] are zero.
func (m MDT) IsZero() bool {
	return m.Equal(Zero(m.Labels()))
}

// DebitBalance is debits minus credits per dimension.
func (m MDT) DebitBalance() Vector { return m.debits.sub(m.credits) }

// CreditBalance is credits minus debits per dimension.
func (m MDT) CreditBalance() Vector { return m.credits.sub(m.debits) }

// Balance applies the account's balance type.
func (m MDT) Balance() Vector {
	if m.balanceType == Credit {
		return m.CreditBalance()
	}
	return m.DebitBalance()
}

// IsDisjoint reports activity on at most one side.
func (m MDT) IsDisjoint() bool {
	return m.debits.IsZero() || m.credits.IsZero()
}

// Reduce nets each dimension by removing min(dr, cr) from both sides.
// The result is equal to the receiver.
func (m MDT) Reduce() MDT {
	n := m.Cardinality()
	drs := make([]decimal.Decimal, n)
	crs := make([]decimal.Decimal, n)
	for i := 0; i < n; i++ {
		d, c := m.At(i)
		lo := decimal.Min(d, c)
		drs[i] = d.Sub(lo)
		crs[i] = c.Sub(lo)
	}
	return m.clone(newVector(m.Labels(), drs), newVector(m.Labels(), crs))
}

// String renders "[d1, d2 // c1, c2]" with two decimal places.
func (m MDT) String() string {
	return "[" + m.debits.String() + " // " + m.credits.String() + "]"
}
