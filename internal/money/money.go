package money

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var ErrInvalidMoney = errors.New("invalid money amount")

// ParseDollars converts a user-entered numeric value (like 1500 or 1500.0)
// to whole game dollars as int64 safely. The game has no cents; fractional
// input is rejected rather than rounded.
func ParseDollars(v float64) (int64, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, ErrInvalidMoney
	}
	if v < 0 {
		return 0, ErrInvalidMoney
	}
	// Prevent overflow: int64 max ~9e18
	if v > 9e18 {
		return 0, fmt.Errorf("%w: too large", ErrInvalidMoney)
	}
	if v != math.Trunc(v) {
		return 0, fmt.Errorf("%w: fractional dollars not supported", ErrInvalidMoney)
	}
	return int64(v), nil
}

// Format renders an amount as a $-prefixed string with thousands separators,
// e.g. $1,500.
func Format(n int64) string {
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	return sign + "$" + withCommas(n)
}

func withCommas(n int64) string {
	str := fmt.Sprintf("%d", n)
	var b strings.Builder
	l := len(str)
	for i := 0; i < l; i++ {
		b.WriteByte(str[i])
		rem := l - i - 1
		if rem > 0 && rem%3 == 0 {
			b.WriteByte(',')
		}
	}
	return b.String()
}
