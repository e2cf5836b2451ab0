package negotiation

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// ErrEmpty is returned when a field carries no value.
	ErrEmpty = errors.New("empty value")
	// ErrMalformed is returned when a field cannot be read as a number.
	ErrMalformed = errors.New("malformed number")
)

var (
	plainCommaDecimal = regexp.MustCompile(`^\d+(,\d+)?$`)
	plainDotDecimal   = regexp.MustCompile(`^\d+\.\d{1,2}$`)
	plainRate         = regexp.MustCompile(`^\d+([.,]\d+)?$`)
	termPattern       = regexp.MustCompile(`(?i)^(\d+)\s*(x|meses|mes|parcelas|months?)?$`)
	nonDigits         = regexp.MustCompile(`\D`)
)

var hundred = decimal.NewFromInt(100)

// ParseAmount reads an installment amount. Plain decimals ("250,50",
// "250.50", "1200") are read as written; anything else is treated as
// currency formatting: every non-digit is stripped and the remaining digits
// are read as cents.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrEmpty
	}
	if strings.HasPrefix(s, "-") {
		return decimal.Zero, fmt.Errorf("%w: negative amount %q", ErrMalformed, s)
	}
	if plainCommaDecimal.MatchString(s) || plainDotDecimal.MatchString(s) {
		d, err := decimal.NewFromString(strings.Replace(s, ",", ".", 1))
		if err != nil {
			return decimal.Zero, fmt.Errorf("%w: %q: %v", ErrMalformed, s, err)
		}
		return d, nil
	}

	digits := nonDigits.ReplaceAllString(s, "")
	if digits == "" {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrMalformed, s)
	}
	cents, err := decimal.NewFromString(digits)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q: %v", ErrMalformed, s, err)
	}
	return cents.Div(hundred), nil
}

// ParseTerm reads a remaining quantity of installments, optionally followed
// by a unit ("5", "5x", "12 meses").
func ParseTerm(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrEmpty
	}
	m := termPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("%w: term %q", ErrMalformed, s)
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, fmt.Errorf("%w: term %q: %v", ErrMalformed, s, err)
	}
	return n, nil
}

// ParseRate reads an interest rate in percent ("1,99", "2.5%").
func ParseRate(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
	if s == "" {
		return decimal.Zero, ErrEmpty
	}
	if !plainRate.MatchString(s) {
		return decimal.Zero, fmt.Errorf("%w: rate %q", ErrMalformed, s)
	}
	d, err := decimal.NewFromString(strings.Replace(s, ",", ".", 1))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: rate %q: %v", ErrMalformed, s, err)
	}
	return d, nil
}
