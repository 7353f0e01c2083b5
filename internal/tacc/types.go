// Package tacc implements multi-dimensional T-accounts: paired debit/credit
// amount vectors with double-entry equality, netting and balance rules.
package tacc

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultUnit is the label of the primary dimension when none is given.
const DefaultUnit = "GBP"

var (
	ErrCardinalityMismatch = errors.New("cardinality mismatch")
	ErrLabelMismatch       = errors.New("label mismatch")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrConfiguration       = errors.New("invalid configuration")
)

// BalanceType decides the sign of a balance. The zero value is debit-normal.
type BalanceType int

const (
	Debit BalanceType = iota
	Credit
)

func (b BalanceType) String() string {
	if b == Credit {
		return "credit"
	}
	return "debit"
}

// ParseBalanceType accepts "debit"/"credit" (any case, "dr"/"cr" too).
// An empty string is debit-normal.
func ParseBalanceType(s string) (BalanceType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "debit", "dr":
		return Debit, nil
	case "credit", "cr":
		return Credit, nil
	default:
		return Debit, fmt.Errorf("%w: unknown balance type %q", ErrConfiguration, s)
	}
}

// Entry is anything that can be posted to a journal.
type Entry interface {
	AsMDT() MDT
}
