// Package core provides the domain types shared by every layer of fondi.
//
// Money is a fixed-point amount in cents. All arithmetic in the application
// happens on cents so that equality checks are exact; floats appear only at
// the display boundary.
package core

import (
	"strconv"
	"strings"
	"unicode"
)

// Money is an amount of currency in cents.
type Money struct {
	Cents int64
}

// ParseAmount converts a user-entered decimal string to Money.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and
// performs half-up rounding on the third decimal place. Zero is a valid
// result; callers that require a positive amount validate separately.
// Sign characters are rejected: amounts are entered as magnitudes.
//
// Examples:
//
//	ParseAmount("12.34") -> {1234}, nil
//	ParseAmount("12,34") -> {1234}, nil
//	ParseAmount("12.345") -> {1234}, nil (rounds down)
//	ParseAmount("12.346") -> {1235}, nil (rounds up)
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return Money{}, ErrInvalidAmount
	}
	if s == "." {
		return Money{}, ErrInvalidAmount
	}
	// Split into integer and fractional part
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return Money{}, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart {
		if !unicode.IsDigit(r) {
			return Money{}, ErrInvalidAmount
		}
	}
	for _, r := range fracPart {
		if !unicode.IsDigit(r) {
			return Money{}, ErrInvalidAmount
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	// Prevent overflow when multiplying by 100
	const maxSafeInt64 = (1<<63 - 1) / 100
	if iv > maxSafeInt64 {
		return Money{}, ErrInvalidAmount
	}
	// Take first two fractional digits; then half-up rounding on third
	var fracCents int64
	if len(fracPart) > 0 {
		d1 := int64(fracPart[0] - '0')
		fracCents = d1 * 10
		if len(fracPart) > 1 {
			d2 := int64(fracPart[1] - '0')
			fracCents += d2
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracCents++
			}
		}
	}
	return Money{Cents: iv*100 + fracCents}, nil
}

// MustParseAmount is ParseAmount for tests and constants; it panics on error.
func MustParseAmount(s string) Money {
	m, err := ParseAmount(s)
	if err != nil {
		panic("core: bad amount literal " + strconv.Quote(s))
	}
	return m
}

// Validate reports whether the amount is usable as an operation amount.
// Operation amounts must be strictly positive.
func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// IsZero reports whether the amount is exactly zero cents.
func (m Money) IsZero() bool { return m.Cents == 0 }

// String renders the exact decimal value with trailing zeros trimmed:
// 60000 cents -> "600", 60050 -> "600.5", -20000 -> "-200".
func (m Money) String() string {
	sign := ""
	c := m.Cents
	if c < 0 {
		sign = "-"
		c = -c
	}
	whole := c / 100
	frac := c % 100
	switch {
	case frac == 0:
		return sign + strconv.FormatInt(whole, 10)
	case frac%10 == 0:
		return sign + strconv.FormatInt(whole, 10) + "." + strconv.FormatInt(frac/10, 10)
	default:
		fs := strconv.FormatInt(frac, 10)
		if frac < 10 {
			fs = "0" + fs
		}
		return sign + strconv.FormatInt(whole, 10) + "." + fs
	}
}

// MarshalJSON encodes the amount as a bare decimal number, so API payloads
// carry plain numbers while the service keeps exact cents internally.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts a JSON number or a numeric string. A leading minus
// is honored so response shapes round-trip; request validation still rejects
// non-positive operation amounts.
func (m *Money) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*m = Money{}
		return nil
	}
	s = strings.Trim(s, `"`)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	parsed, err := ParseAmount(s)
	if err != nil {
		return err
	}
	if neg {
		parsed.Cents = -parsed.Cents
	}
	*m = parsed
	return nil
}

// Units returns the major-unit value as a float64 for display purposes only.
// Use cents for calculations to avoid floating-point precision issues.
func (m Money) Units() float64 {
	return float64(m.Cents) / 100.0
}
