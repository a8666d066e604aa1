package staking

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"
)

// ErrInvalidAmount is returned when a Uint128 decimal string cannot be parsed
var ErrInvalidAmount = errors.New("invalid amount")

// Amount is a non-negative on-chain quantity in the smallest unit.
// The zero value is 0 and ready to use.
type Amount struct {
	v uint256.Int
}

// NewAmount creates an Amount from a uint64
func NewAmount(n uint64) Amount {
	var a Amount
	a.v.SetUint64(n)
	return a
}

// ParseAmount parses the decimal string encoding used by the chain
func ParseAmount(s string) (Amount, error) {
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return Amount{}, fmt.Errorf("%w: %q: %w", ErrInvalidAmount, s, err)
	}
	return Amount{v: *v}, nil
}

// MustParseAmount is ParseAmount for literals
func MustParseAmount(s string) Amount {
	a, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return a
}

// Add returns a + b
func (a Amount) Add(b Amount) Amount {
	var r Amount
	r.v.Add(&a.v, &b.v)
	return r
}

// Sub returns a - b, or 0 when b > a
func (a Amount) Sub(b Amount) Amount {
	var r Amount
	if a.v.Lt(&b.v) {
		return r
	}
	r.v.Sub(&a.v, &b.v)
	return r
}

// MulDiv returns a * mul / div with a full-width intermediate product.
// A zero divisor, or a quotient that does not fit, yields 0.
func (a Amount) MulDiv(mul, div Amount) Amount {
	var r Amount
	if div.v.IsZero() {
		return r
	}
	if _, overflow := r.v.MulDivOverflow(&a.v, &mul.v, &div.v); overflow {
		return Amount{}
	}
	return r
}

// IsZero reports whether the amount is 0
func (a Amount) IsZero() bool {
	return a.v.IsZero()
}

// Cmp compares a and b and returns -1, 0 or +1
func (a Amount) Cmp(b Amount) int {
	return a.v.Cmp(&b.v)
}

// String returns the decimal representation
func (a Amount) String() string {
	return a.v.Dec()
}

// MarshalText encodes the amount as a decimal string
func (a Amount) MarshalText() ([]byte, error) {
	return []byte(a.v.Dec()), nil
}

// UnmarshalText decodes a decimal string
func (a *Amount) UnmarshalText(text []byte) error {
	parsed, err := ParseAmount(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Sum adds up the given amounts
func Sum(amounts ...Amount) Amount {
	var total Amount
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}
