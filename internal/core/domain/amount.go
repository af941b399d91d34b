package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	hundred  = decimal.NewFromInt(100)
	maxMinor = decimal.NewFromInt(math.MaxInt64)
)

// Inputs outside these bounds are rejected before any rescaling, which costs
// time proportional to the exponent.
const (
	maxAmountExponent = 30
	maxAmountDigits   = 20
)

// ParseAmount converts a client supplied amount (JSON number or numeric string)
// into minor currency units. The scaled value is rounded half-up in decimal
// arithmetic, so 10.005 becomes 1001.
func ParseAmount(v any) (int64, error) {
	d, err := toDecimal(v)
	if err != nil {
		return 0, err
	}
	if !d.IsPositive() {
		return 0, fmt.Errorf("%w: amount must be greater than zero", ErrValidation)
	}
	if exp := int(d.Exponent()); exp > maxAmountExponent || exp < -maxAmountExponent {
		return 0, fmt.Errorf("%w: amount is out of range", ErrValidation)
	}
	if d.NumDigits()+int(d.Exponent()) > maxAmountDigits {
		return 0, fmt.Errorf("%w: amount is too large", ErrValidation)
	}

	minor := d.Mul(hundred).Round(0)
	if !minor.IsPositive() {
		return 0, fmt.Errorf("%w: amount is below the smallest currency unit", ErrValidation)
	}
	if minor.GreaterThan(maxMinor) {
		return 0, fmt.Errorf("%w: amount is too large", ErrValidation)
	}
	return minor.IntPart(), nil
}

func toDecimal(v any) (decimal.Decimal, error) {
	invalid := fmt.Errorf("%w: amount must be a number", ErrValidation)

	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return decimal.Decimal{}, invalid
		}
		return decimal.NewFromFloat(n), nil
	case float32:
		return toDecimal(float64(n))
	case int:
		return decimal.NewFromInt(int64(n)), nil
	case int64:
		return decimal.NewFromInt(n), nil
	case json.Number:
		return toDecimal(string(n))
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(n))
		if err != nil {
			return decimal.Decimal{}, invalid
		}
		return d, nil
	default:
		return decimal.Decimal{}, invalid
	}
}
