package tacc

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// T is a traditional one-dimensional T-account. It behaves exactly like an
// MDT of cardinality 1 and adds scalar accessors. The zero T is [0.00 // 0.00]
// over DefaultUnit.
type T struct {
	MDT
}

// NewT builds a one-dimensional account. WithLabels may name one label.
func NewT(dr, cr any, opts ...Option) (T, error) {
	o := buildOptions(opts)
	if n := len(o.labelNames); n > 1 {
		return T{}, fmt.Errorf("%w: T takes one label, got %d", ErrConfiguration, n)
	}
	if o.labels != nil && o.labels.Len() != 1 {
		return T{}, fmt.Errorf("%w: T takes one label, got %d", ErrConfiguration, o.labels.Len())
	}
	m, err := New([]any{dr}, []any{cr}, opts...)
	if err != nil {
		return T{}, err
	}
	return T{MDT: m}, nil
}

// MustT is NewT that panics on error.
func MustT(dr, cr any, opts ...Option) T {
	t, err := NewT(dr, cr, opts...)
	if err != nil {
		panic(err)
	}
	return t
}

// FromMDT narrows a cardinality-1 MDT to a T.
func FromMDT(m MDT) (T, error) {
	if m.Cardinality() != 1 {
		return T{}, fmt.Errorf("%w: %d != 1", ErrCardinalityMismatch, m.Cardinality())
	}
	return T{MDT: m}, nil
}

func (t T) Dr() decimal.Decimal { return t.debits.At(0) }
func (t T) Cr() decimal.Decimal { return t.credits.At(0) }

func (t T) Neg() T    { return T{MDT: t.MDT.Neg()} }
func (t T) Pos() T    { return T{MDT: t.MDT.Pos()} }
func (t T) Reduce() T { return T{MDT: t.MDT.Reduce()} }

func (t T) Add(o T) (T, error) {
	m, err := t.MDT.Add(o.MDT)
	if err != nil {
		return T{}, err
	}
	return T{MDT: m}, nil
}

func (t T) Sub(o T) (T, error) {
	m, err := t.MDT.Sub(o.MDT)
	if err != nil {
		return T{}, err
	}
	return T{MDT: m}, nil
}

func (t T) Equivalent(o T) (bool, error) { return t.MDT.Equivalent(o.MDT) }
func (t T) Equal(o T) bool               { return t.MDT.Equal(o.MDT) }

func (t T) DebitBalance() decimal.Decimal  { return t.Dr().Sub(t.Cr()) }
func (t T) CreditBalance() decimal.Decimal { return t.Cr().Sub(t.Dr()) }

// Balance is the scalar balance under the account's balance type.
func (t T) Balance() decimal.Decimal {
	if t.balanceType == Credit {
		return t.CreditBalance()
	}
	return t.DebitBalance()
}
