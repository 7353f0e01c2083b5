package tacc

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	cases := map[string]struct {
		in   any
		want string
	}{
		"int":     {in: 42, want: "42"},
		"int64":   {in: int64(-7), want: "-7"},
		"uint64":  {in: uint64(math.MaxUint64), want: "18446744073709551615"},
		"string":  {in: " 10.25 ", want: "10.25"},
		"float":   {in: 0.1, want: "0.1"},
		"number":  {in: json.Number("3.50"), want: "3.5"},
		"decimal": {in: decimal.RequireFromString("1.005"), want: "1.005"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			got, err := ParseAmount(tc.in)
			require.NoError(t, err)
			assert.True(t, got.Equal(decimal.RequireFromString(tc.want)), "got %s", got)
		})
	}
}

func TestParseAmountRejects(t *testing.T) {
	for _, in := range []any{"abc", "", nil, math.NaN(), math.Inf(1), []int{1}, (*decimal.Decimal)(nil)} {
		_, err := ParseAmount(in)
		assert.ErrorIs(t, err, ErrInvalidAmount, "%v", in)
	}
}

func TestParseBalanceType(t *testing.T) {
	for in, want := range map[string]BalanceType{"": Debit, "debit": Debit, "DR": Debit, "Credit": Credit, "cr": Credit} {
		got, err := ParseBalanceType(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseBalanceType("sideways")
	assert.ErrorIs(t, err, ErrConfiguration)
	assert.Equal(t, "credit", Credit.String())
}
