// Package money implements a fixed-point, 8-fractional-digit decimal
// amount type used end to end for obligation amounts, UTXO values, fees,
// dust thresholds, and change. It exists to keep the disburser off
// float64 entirely: every arithmetic operation on chain value goes
// through this package.
package money

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Scale is the number of fractional digits chain amounts are expressed
// in, matching satoshi precision.
const Scale = 8

// Zero is the additive identity.
var Zero = Amount{d: decimal.Zero}

// Amount is a fixed-point value with Scale fractional digits. The zero
// value is a valid zero amount.
type Amount struct {
	d decimal.Decimal
}

// New builds an Amount from a decimal string, e.g. "1.50000000". Returns
// an error if s is not a valid decimal literal.
func New(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, err
	}
	return Amount{d: d}, nil
}

// NewFromFloat builds an Amount from a float64. Used for literals in
// tests, float-typed config values, and the fee estimator's integer byte
// count; never used on a value that has passed through chain arithmetic.
func NewFromFloat(f float64) Amount {
	return Amount{d: decimal.NewFromFloat(f)}
}

// Round8 rounds a to Scale fractional digits using banker's rounding
// (round-half-to-even), matching the deterministic serialization the
// chain node expects for transaction output amounts.
func (a Amount) Round8() Amount {
	return Amount{d: a.d.RoundBank(Scale)}
}

// Add returns a+b.
func (a Amount) Add(b Amount) Amount {
	return Amount{d: a.d.Add(b.d)}
}

// Sub returns a-b.
func (a Amount) Sub(b Amount) Amount {
	return Amount{d: a.d.Sub(b.d)}
}

// Mul returns a*b.
func (a Amount) Mul(b Amount) Amount {
	return Amount{d: a.d.Mul(b.d)}
}

// MulFloat returns a*f, for percentage-style scaling where the
// multiplier itself is a plain float, not a chain value.
func (a Amount) MulFloat(f float64) Amount {
	return Amount{d: a.d.Mul(decimal.NewFromFloat(f))}
}

// Cmp compares a to b: -1 if a<b, 0 if a==b, 1 if a>b.
func (a Amount) Cmp(b Amount) int {
	return a.d.Cmp(b.d)
}

// GreaterThan reports whether a>b.
func (a Amount) GreaterThan(b Amount) bool {
	return a.d.GreaterThan(b.d)
}

// GreaterThanOrEqual reports whether a>=b.
func (a Amount) GreaterThanOrEqual(b Amount) bool {
	return a.d.GreaterThanOrEqual(b.d)
}

// LessThan reports whether a<b.
func (a Amount) LessThan(b Amount) bool {
	return a.d.LessThan(b.d)
}

// LessThanOrEqual reports whether a<=b.
func (a Amount) LessThanOrEqual(b Amount) bool {
	return a.d.LessThanOrEqual(b.d)
}

// IsPositive reports whether a>0.
func (a Amount) IsPositive() bool {
	return a.d.IsPositive()
}

// IsZero reports whether a==0.
func (a Amount) IsZero() bool {
	return a.d.IsZero()
}

// String returns the Scale-fractional-digit decimal text form used for
// node RPC serialization and journal/log display.
func (a Amount) String() string {
	return a.Round8().d.StringFixed(Scale)
}

// Float64 returns an inexact float64 view, for metrics and display only;
// never feed the result back into chain arithmetic.
func (a Amount) Float64() float64 {
	f, _ := a.d.Float64()
	return f
}

// MarshalJSON renders the amount as its fixed-point decimal string.
func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON parses either a JSON string or JSON number into an
// Amount, since node RPC responses serialize decimal amounts as bare
// JSON numbers.
func (a *Amount) UnmarshalJSON(b []byte) error {
	var d decimal.Decimal
	if err := json.Unmarshal(b, &d); err != nil {
		return err
	}
	a.d = d
	return nil
}

// Sum totals a slice of Amounts.
func Sum(amts []Amount) Amount {
	total := Zero
	for _, a := range amts {
		total = total.Add(a)
	}
	return total
}
