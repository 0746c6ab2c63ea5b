// Package core provides money parsing and handling utilities.
//
// Amounts are shopspring decimals. Display strings follow the Brazilian
// real format used by the backend's users: "R$ 1.234,56".
package core

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

const (
	currencySymbol = "R$"
	// nbsp separates the symbol from the number, like the pt-BR locale does.
	nbsp = "\u00a0"
)

var hundred = decimal.NewFromInt(100)

// ParseDisplayToAmount converts whatever the user typed into an amount.
//
// Every non-digit is dropped and the remaining digits are read as cents, so
// "R$ 1.234,56", "1234,56" and "123456" all yield 1234.56. An empty or
// all-zero digit string yields zero. It never fails.
func ParseDisplayToAmount(raw string) decimal.Decimal {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, raw)
	digits = strings.TrimLeft(digits, "0")
	if digits == "" {
		return decimal.Zero
	}
	cents, err := decimal.NewFromString(digits)
	if err != nil {
		return decimal.Zero
	}
	return cents.Div(hundred)
}

// FormatAmountForDisplay renders amount with two decimals (half away from
// zero), "." as thousands separator and "," as decimal separator.
//
// Examples:
//
//	FormatAmountForDisplay(1234.5)  -> "R$ 1.234,50"
//	FormatAmountForDisplay(-0.5)    -> "-R$ 0,50"
func FormatAmountForDisplay(amount decimal.Decimal) string {
	rounded := amount.Round(2)
	neg := rounded.IsNegative()
	fixed := rounded.Abs().StringFixed(2)

	intPart, fracPart, _ := strings.Cut(fixed, ".")
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	b.WriteString(currencySymbol)
	b.WriteString(nbsp)
	b.WriteString(groupThousands(intPart))
	b.WriteByte(',')
	b.WriteString(fracPart)
	return b.String()
}

// FormatValueForDisplay formats a raw numeric string ("12.5", "-3") the same
// way. Anything that does not parse as a number formats as zero.
func FormatValueForDisplay(raw string) string {
	v, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return FormatAmountForDisplay(decimal.Zero)
	}
	return FormatAmountForDisplay(v)
}

// Cents returns amount expressed in whole cents, rounded half away from zero.
func Cents(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).Round(0).IntPart()
}

// Sum adds amounts together.
func Sum(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	for _, r := range digits {
		if !unicode.IsDigit(r) {
			return digits
		}
	}
	head := len(digits) % 3
	var b strings.Builder
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
