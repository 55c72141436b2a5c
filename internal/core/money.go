// Package core defines the domain entities of the ledger: money, accounts,
// transactions, person-to-person debts and recurring payments.
//
// All amounts are stored as int64 minor units (cents). Parsing accepts both
// comma-decimal (1.234,56) and dot-decimal (1,234.56) conventions.
package core

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// Money is an amount in currency minor units.
type Money struct {
	Cents int64
}

// NewMoney builds a Money value from cents.
func NewMoney(cents int64) Money {
	return Money{Cents: cents}
}

func (m Money) IsZero() bool     { return m.Cents == 0 }
func (m Money) IsPositive() bool { return m.Cents > 0 }

func (m Money) Add(other Money) Money {
	return Money{Cents: m.Cents + other.Cents}
}

func (m Money) Sub(other Money) Money {
	return Money{Cents: m.Cents - other.Cents}
}

// Decimal returns the amount as a decimal in major units, for computations
// that need exact division (installment interest amortization).
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// Validate rejects non-positive amounts before they reach internal functions.
func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// ParseAmountCents converts a user-entered amount string to cents.
//
// Both separator conventions are accepted:
//
//	"1.234,56" -> 123456
//	"1,234.56" -> 123456
//	"50.000"   -> 5000000 (single separator followed by a 3-digit group is grouping)
//	"12.34"    -> 1234
//
// The third decimal digit rounds half-up. Signed, zero or unparsable input
// is rejected with ErrInvalidAmount.
func ParseAmountCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, " ", "")

	normalized, err := normalizeSeparators(s)
	if err != nil {
		return 0, err
	}

	parts := strings.Split(normalized, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart + fracPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}

	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	const maxSafe = (1<<63 - 1) / 100
	if iv > maxSafe {
		return 0, ErrInvalidAmount
	}

	// First two fractional digits, half-up rounding on the third.
	var fracCents int64
	if len(fracPart) > 0 {
		fracCents = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			fracCents += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracCents++
			}
		}
	}

	cents := iv*100 + fracCents
	if cents <= 0 {
		return 0, ErrInvalidAmount
	}
	return cents, nil
}

// normalizeSeparators rewrites s to use a single '.' decimal separator.
// When both '.' and ',' appear, the rightmost one is the decimal separator.
// A lone separator followed by exactly three digits is treated as grouping.
func normalizeSeparators(s string) (string, error) {
	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")

	switch {
	case lastDot >= 0 && lastComma >= 0:
		var thousands, dec string
		if lastDot > lastComma {
			thousands, dec = ",", "."
		} else {
			thousands, dec = ".", ","
		}
		s = strings.ReplaceAll(s, thousands, "")
		if strings.Count(s, dec) > 1 {
			return "", ErrInvalidAmount
		}
		return strings.Replace(s, dec, ".", 1), nil

	case lastDot >= 0:
		return normalizeSingle(s, ".", lastDot), nil
	case lastComma >= 0:
		return normalizeSingle(s, ",", lastComma), nil
	default:
		return s, nil
	}
}

func normalizeSingle(s, sep string, last int) string {
	// Multiple occurrences of the same separator can only be grouping.
	if strings.Count(s, sep) > 1 {
		return strings.ReplaceAll(s, sep, "")
	}
	if len(s)-last-1 == 3 {
		return strings.ReplaceAll(s, sep, "")
	}
	return strings.Replace(s, sep, ".", 1)
}
