package tacc

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a raw numeric input into an exact decimal. Strings are
// parsed, floats go through their shortest decimal form.
func ParseAmount(v any) (decimal.Decimal, error) {
	switch x := v.(type) {
	case decimal.Decimal:
		return x, nil
	case *decimal.Decimal:
		if x == nil {
			return decimal.Zero, fmt.Errorf("%w: nil", ErrInvalidAmount)
		}
		return *x, nil
	case string:
		return parseString(x)
	case json.Number:
		return parseString(string(x))
	case int:
		return decimal.NewFromInt(int64(x)), nil
	case int8:
		return decimal.NewFromInt(int64(x)), nil
	case int16:
		return decimal.NewFromInt(int64(x)), nil
	case int32:
		return decimal.NewFromInt(int64(x)), nil
	case int64:
		return decimal.NewFromInt(x), nil
	case uint:
		return fromUint(uint64(x)), nil
	case uint8:
		return fromUint(uint64(x)), nil
	case uint16:
		return fromUint(uint64(x)), nil
	case uint32:
		return fromUint(uint64(x)), nil
	case uint64:
		return fromUint(x), nil
	case float32:
		if math.IsNaN(float64(x)) || math.IsInf(float64(x), 0) {
			return decimal.Zero, fmt.Errorf("%w: %v", ErrInvalidAmount, x)
		}
		return decimal.NewFromFloat32(x), nil
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return decimal.Zero, fmt.Errorf("%w: %v", ErrInvalidAmount, x)
		}
		return decimal.NewFromFloat(x), nil
	default:
		return decimal.Zero, fmt.Errorf("%w: unsupported type %T", ErrInvalidAmount, v)
	}
}

func parseString(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return d, nil
}

func fromUint(u uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(u), 0)
}

// ParseAmounts converts and absolutizes every input.
func ParseAmounts(raw []any) ([]decimal.Decimal, error) {
	out := make([]decimal.Decimal, len(raw))
	for i, v := range raw {
		d, err := ParseAmount(v)
		if err != nil {
			return nil, fmt.Errorf("amount %d: %w", i, err)
		}
		out[i] = d.Abs()
	}
	return out, nil
}
