package pricing

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Money is an amount in paise.
type Money int64

func Rupees(r int64) Money { return Money(r * 100) }

// FromFloat rounds a rupee amount to the nearest paisa.
func FromFloat(f float64) Money { return Money(math.Round(f * 100)) }

func Parse(s string) (Money, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	return FromFloat(f), nil
}

func (m Money) Float() float64 { return float64(m) / 100 }

// String formats the amount the way the payment gateway expects it, e.g. "440.00".
func (m Money) String() string {
	sign := ""
	v := int64(m)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

func (m Money) Mul(n int) Money { return m * Money(n) }

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts a JSON number or a numeric string.
func (m *Money) UnmarshalJSON(b []byte) error {
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		var s string
		if err2 := json.Unmarshal(b, &s); err2 != nil {
			return fmt.Errorf("invalid amount: %s", b)
		}
		n = json.Number(s)
	}
	v, err := Parse(n.String())
	if err != nil {
		return err
	}
	*m = v
	return nil
}
