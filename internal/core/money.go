// Package core provides the domain types shared by the stores and views.
//
// This file contains monetary amount handling. Amounts are kept as integer
// cents to avoid floating-point drift in the running totals.
package core

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Money is a monetary amount in cents. It is signed: the balance total may
// go negative, while transaction and fold amounts are validated positive.
type Money int64

// ParseAmount converts a decimal string to Money with half-up rounding on
// the third decimal place.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators. Only
// positive amounts are accepted. Returns ErrInvalidAmount for anything else.
//
// Examples:
//
//	ParseAmount("12.34") -> 1234, nil
//	ParseAmount("12,34") -> 1234, nil
//	ParseAmount("12.345") -> 1234, nil (rounds down)
//	ParseAmount("12.346") -> 1235, nil (rounds up)
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		// Only positive values allowed
		return 0, ErrInvalidAmount
	}
	parts := strings.Split(s, ".")
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
	for _, r := range intPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	for _, r := range fracPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	// Prevent overflow when multiplying by 100
	const maxSafeInt64 = (1<<63 - 1) / 100
	if iv > maxSafeInt64 {
		return 0, ErrInvalidAmount
	}
	// Take first two fractional digits; then half-up rounding on third
	var fracCents int64
	if len(fracPart) > 0 {
		d1 := int64(fracPart[0] - '0')
		fracCents = d1 * 10
		if len(fracPart) > 1 {
			d2 := int64(fracPart[1] - '0')
			fracCents += d2
			if len(fracPart) > 2 {
				if fracPart[2] >= '5' {
					fracCents++
				}
			}
		}
	}
	cents := iv*100 + fracCents
	if cents <= 0 {
		return 0, ErrInvalidAmount
	}
	return Money(cents), nil
}

// Validate rejects non-positive amounts. Only used on caller input; running
// totals are allowed to be negative.
func (m Money) Validate() error {
	if m <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Float returns the amount in currency units for display purposes.
// Use cents for calculations to avoid floating-point precision issues.
func (m Money) Float() float64 {
	return float64(m) / 100.0
}

// String renders the amount as a plain decimal, e.g. "12.34" or "-0.05".
func (m Money) String() string {
	c := int64(m)
	sign := ""
	if c < 0 {
		sign = "-"
		c = -c
	}
	return fmt.Sprintf("%s%d.%02d", sign, c/100, c%100)
}
