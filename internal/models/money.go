package models

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
)

// Money is an amount in minor units (cents / paise)
type Money int64

var hundred = big.NewInt(100)

// ParseMoney parses "12", "12.5" or "12.50"; more than two decimals are rounded
// half away from zero on the exact decimal value
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}
	r, ok := new(big.Rat).SetString(s)
	if !ok || strings.Contains(s, "/") {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	r.Mul(r, new(big.Rat).SetInt(hundred))

	num := new(big.Int).Abs(r.Num())
	den := r.Denom()
	q, rem := new(big.Int).QuoRem(num, den, new(big.Int))
	if rem.Lsh(rem, 1).Cmp(den) >= 0 {
		q.Add(q, big.NewInt(1))
	}
	if r.Sign() < 0 {
		q.Neg(q)
	}
	if !q.IsInt64() {
		return 0, fmt.Errorf("amount %q out of range", s)
	}
	return Money(q.Int64()), nil
}

// Times multiplies by a quantity
func (m Money) Times(qty int) Money {
	return m * Money(qty)
}

// PercentBP returns m * bp / 10000 rounded half-up (bp = basis points, 1800 = 18%)
func (m Money) PercentBP(bp int64) Money {
	v := int64(m) * bp
	if v >= 0 {
		return Money((v + 5000) / 10000)
	}
	return -Money((-v + 5000) / 10000)
}

// Float returns the amount in major units, for JSON payloads
func (m Money) Float() float64 {
	return float64(m) / 100
}

// String formats with exactly two decimals
func (m Money) String() string {
	sign := ""
	v := int64(m)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// MarshalJSON renders major units as a JSON number ("12.50")
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts a JSON number or numeric string in major units
func (m *Money) UnmarshalJSON(b []byte) error {
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		var s string
		if err2 := json.Unmarshal(b, &s); err2 != nil {
			return fmt.Errorf("invalid amount: %w", err)
		}
		n = json.Number(s)
	}
	v, err := ParseMoney(n.String())
	if err != nil {
		return err
	}
	*m = v
	return nil
}
