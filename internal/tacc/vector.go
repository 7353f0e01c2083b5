package tacc

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Labels is an immutable ordered set of dimension names with a name → index map.
type Labels struct {
	names []string
	index map[string]int
}

var unitLabels = DefaultLabels(1)

// NewLabels validates names: at least one, none blank, no duplicates.
func NewLabels(names ...string) (*Labels, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: at least one label is required", ErrConfiguration)
	}
	l := &Labels{
		names: make([]string, len(names)),
		index: make(map[string]int, len(names)),
	}
	for i, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			return nil, fmt.Errorf("%w: label %d is blank", ErrConfiguration, i)
		}
		if _, dup := l.index[n]; dup {
			return nil, fmt.Errorf("%w: duplicate label %q", ErrConfiguration, n)
		}
		l.names[i] = n
		l.index[n] = i
	}
	return l, nil
}

// DefaultLabels returns DefaultUnit followed by label_0, label_1, ...
func DefaultLabels(n int) *Labels {
	if n < 1 {
		n = 1
	}
	names := make([]string, n)
	names[0] = DefaultUnit
	for i := 1; i < n; i++ {
		names[i] = fmt.Sprintf("label_%d", i-1)
	}
	l, _ := NewLabels(names...)
	return l
}

func (l *Labels) orUnit() *Labels {
	if l == nil {
		return unitLabels
	}
	return l
}

func (l *Labels) Len() int { return len(l.orUnit().names) }

// Names returns a copy of the label sequence.
func (l *Labels) Names() []string {
	return append([]string(nil), l.orUnit().names...)
}

func (l *Labels) Index(name string) (int, bool) {
	i, ok := l.orUnit().index[name]
	return i, ok
}

// Equal compares label sequences position by position.
func (l *Labels) Equal(o *Labels) bool {
	a, b := l.orUnit(), o.orUnit()
	if a == b {
		return true
	}
	if len(a.names) != len(b.names) {
		return false
	}
	for i := range a.names {
		if a.names[i] != b.names[i] {
			return false
		}
	}
	return true
}

func (l *Labels) String() string {
	return "(" + strings.Join(l.orUnit().names, ", ") + ")"
}

// Vector is a fixed-cardinality, immutable sequence of decimal amounts
// addressed by position or by label. The zero Vector is a single zero
// amount over DefaultUnit.
type Vector struct {
	labels  *Labels
	amounts []decimal.Decimal
}

// NewVector absolutizes raw inputs. Missing trailing amounts are zero; more
// amounts than labels is a configuration error. A nil labels argument
// yields DefaultLabels sized to the input.
func NewVector(labels *Labels, raw ...any) (Vector, error) {
	if labels == nil {
		labels = DefaultLabels(len(raw))
	}
	if len(raw) > labels.Len() {
		return Vector{}, fmt.Errorf("%w: %d amounts for %d labels", ErrConfiguration, len(raw), labels.Len())
	}
	parsed, err := ParseAmounts(raw)
	if err != nil {
		return Vector{}, err
	}
	amounts := make([]decimal.Decimal, labels.Len())
	copy(amounts, parsed)
	return Vector{labels: labels, amounts: amounts}, nil
}

// ZeroVector returns an all-zero vector over labels.
func ZeroVector(labels *Labels) Vector {
	labels = labels.orUnit()
	return Vector{labels: labels, amounts: make([]decimal.Decimal, labels.Len())}
}

// newVector trusts its amounts as-is; only fresh constructions absolutize.
func newVector(labels *Labels, amounts []decimal.Decimal) Vector {
	return Vector{labels: labels.orUnit(), amounts: amounts}
}

func (v Vector) Labels() *Labels { return v.labels.orUnit() }

func (v Vector) Len() int { return v.Labels().Len() }

// At returns the amount at position i. It panics when i is out of range.
func (v Vector) At(i int) decimal.Decimal {
	if i < 0 || i >= v.Len() {
		panic(fmt.Sprintf("tacc: index %d out of range for cardinality %d", i, v.Len()))
	}
	if i < len(v.amounts) {
		return v.amounts[i]
	}
	return decimal.Zero
}

// Get returns the amount for a label.
func (v Vector) Get(label string) (decimal.Decimal, bool) {
	i, ok := v.Labels().Index(label)
	if !ok {
		return decimal.Zero, false
	}
	return v.At(i), true
}

// Amounts returns a copy of the amounts in label order.
func (v Vector) Amounts() []decimal.Decimal {
	out := make([]decimal.Decimal, v.Len())
	for i := range out {
		out[i] = v.At(i)
	}
	return out
}

func (v Vector) IsZero() bool {
	for i := 0; i < v.Len(); i++ {
		if !v.At(i).IsZero() {
			return false
		}
	}
	return true
}

// IsNonNegative reports whether every stored amount is >= 0. Results of Sub
// may hold negative amounts.
func (v Vector) IsNonNegative() bool {
	for i := 0; i < v.Len(); i++ {
		if v.At(i).IsNegative() {
			return false
		}
	}
	return true
}

// Equal is structural: same labels and numerically equal amounts.
func (v Vector) Equal(o Vector) bool {
	if !v.Labels().Equal(o.Labels()) {
		return false
	}
	for i := 0; i < v.Len(); i++ {
		if !v.At(i).Equal(o.At(i)) {
			return false
		}
	}
	return true
}

// String renders amounts with two decimal places, half to even, comma
// separated.
func (v Vector) String() string {
	parts := make([]string, v.Len())
	for i := range parts {
		parts[i] = v.At(i).StringFixedBank(2)
	}
	return strings.Join(parts, ", ")
}

func (v Vector) zipWith(o Vector, fn func(a, b decimal.Decimal) decimal.Decimal) Vector {
	out := make([]decimal.Decimal, v.Len())
	for i := range out {
		out[i] = fn(v.At(i), o.At(i))
	}
	return newVector(v.Labels(), out)
}

func (v Vector) add(o Vector) Vector {
	return v.zipWith(o, decimal.Decimal.Add)
}

func (v Vector) sub(o Vector) Vector {
	return v.zipWith(o, decimal.Decimal.Sub)
}

func checkCompatible(a, b *Labels) error {
	if a.Len() != b.Len() {
		return fmt.Errorf("%w: %d != %d", ErrCardinalityMismatch, a.Len(), b.Len())
	}
	if !a.Equal(b) {
		return fmt.Errorf("%w: %s != %s", ErrLabelMismatch, a, b)
	}
	return nil
}
