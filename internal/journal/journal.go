// Package journal accumulates T-account postings per account and checks the
// double-entry invariant across all of them.
package journal

import (
	"fmt"
	"sync"

	"tacc.org/internal/tacc"
)

// Option configures a Journal.
type Option func(*config)

type config struct {
	labels      *tacc.Labels
	balanceType tacc.BalanceType
}

// WithLabels fixes the journal's dimensions up front. Without it the first
// posting decides them.
func WithLabels(l *tacc.Labels) Option {
	return func(c *config) { c.labels = l }
}

// WithBalanceType sets the balance type of lazily created account totals.
func WithBalanceType(bt tacc.BalanceType) Option {
	return func(c *config) { c.balanceType = bt }
}

// Journal maps account identifiers to accumulated T-account totals. All
// totals share one label set. Safe for concurrent use.
type Journal[K comparable] struct {
	mu          sync.RWMutex
	labels      *tacc.Labels
	balanceType tacc.BalanceType
	totals      map[K]tacc.MDT
	order       []K
}

// New creates an empty journal.
func New[K comparable](opts ...Option) *Journal[K] {
	var c config
	for _, opt := range opts {
		opt(&c)
	}
	return &Journal[K]{
		labels:      c.labels,
		balanceType: c.balanceType,
		totals:      make(map[K]tacc.MDT),
	}
}

// Labels returns the journal's dimensions, or nil before the first posting
// when none were configured.
func (j *Journal[K]) Labels() *tacc.Labels {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.labels
}

// AddT accumulates t into the account's total. The account starts at zero
// on first reference. Postings whose labels differ from the journal's are
// rejected and leave the journal untouched.
func (j *Journal[K]) AddT(id K, t tacc.Entry) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.addLocked(id, t.AsMDT())
}

func (j *Journal[K]) addLocked(id K, m tacc.MDT) error {
	labels := j.labels
	if labels == nil {
		labels = m.Labels()
	}
	cur, ok := j.totals[id]
	if !ok {
		cur = tacc.Zero(labels, tacc.WithBalanceType(j.balanceType))
	}
	next, err := cur.Add(m)
	if err != nil {
		return fmt.Errorf("account %v: %w", id, err)
	}
	j.labels = labels
	if !ok {
		j.order = append(j.order, id)
	}
	j.totals[id] = next
	return nil
}

// Account returns the accumulated total for id.
func (j *Journal[K]) Account(id K) (tacc.MDT, bool) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	m, ok := j.totals[id]
	return m, ok
}

// Accounts lists account identifiers in first-posting order.
func (j *Journal[K]) Accounts() []K {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return append([]K(nil), j.order...)
}

// BalanceType is the balance type of lazily created account totals.
func (j *Journal[K]) BalanceType() tacc.BalanceType {
	return j.balanceType
}

func (j *Journal[K]) Len() int {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return len(j.totals)
}

// Balance sums every account total, starting from the journal's zero.
func (j *Journal[K]) Balance() tacc.MDT {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.balanceLocked()
}

func (j *Journal[K]) balanceLocked() tacc.MDT {
	sum := tacc.Zero(j.labels, tacc.WithBalanceType(j.balanceType))
	for _, id := range j.order {
		next, err := sum.Add(j.totals[id])
		if err != nil {
			// every stored total was added against j.labels
			panic(fmt.Sprintf("journal: inconsistent account %v: %v", id, err))
		}
		sum = next
	}
	return sum
}

// IsBalanced reports whether total debits equal total credits in every
// dimension.
func (j *Journal[K]) IsBalanced() bool {
	return j.Balance().IsZero()
}

// AutoBalance posts the negated total balance to id, after which the journal
// is balanced. The read and the posting happen under one lock.
//
// A journal with no labels yet has nothing to correct: the zero correction is
// returned without creating id, so the first real posting still decides the
// labels.
func (j *Journal[K]) AutoBalance(id K) (tacc.MDT, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	correction := j.balanceLocked().Neg()
	if j.labels == nil {
		return correction, nil
	}
	if err := j.addLocked(id, correction); err != nil {
		return tacc.MDT{}, err
	}
	return correction, nil
}

// Snapshot copies the account totals. Values are immutable so the copy is
// safe to read while the journal keeps changing.
func (j *Journal[K]) Snapshot() map[K]tacc.MDT {
	j.mu.RLock()
	defer j.mu.RUnlock()
	out := make(map[K]tacc.MDT, len(j.totals))
	for k, v := range j.totals {
		out[k] = v
	}
	return out
}
