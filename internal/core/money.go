// Package core provides money and form-value parsing for the dashboard.
//
// The remote API expects numeric JSON values for amount, phone number and
// PIN, so the form strings are coerced here before a request is built.
package core

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidPin    = errors.New("invalid pin")
	ErrInvalidPhone  = errors.New("receiver phone number must be 10 digits")
)

var phonePattern = regexp.MustCompile(`^\d{10}$`)

// ValidPhone reports whether s is exactly ten ASCII digits.
func ValidPhone(s string) bool {
	return phonePattern.MatchString(s)
}

// ParsePhone validates s and returns it as the number the API expects.
func ParsePhone(s string) (int64, error) {
	if !ValidPhone(s) {
		return 0, ErrInvalidPhone
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, ErrInvalidPhone
	}
	return n, nil
}

// ParseAmount converts a decimal string to an amount.
//
// Only a dot is a decimal separator. A comma is rejected rather than read as
// a separator or a thousands mark. Range checks belong to the banking API.
//
// Examples:
//
//	ParseAmount("100")   -> 100
//	ParseAmount("12.50") -> 12.5
//	ParseAmount("1,000") -> ErrInvalidAmount
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	if strings.Contains(s, ",") || strings.Count(s, ".") > 1 {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// ParsePin converts a PIN made of digits only.
func ParsePin(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidPin
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, ErrInvalidPin
		}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, ErrInvalidPin
	}
	return n, nil
}

// FormatAmount renders an amount with two decimals.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}
