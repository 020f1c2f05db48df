// Package currencyutils provides amount parsing for statement exports.
package currencyutils

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/width"
)

// ErrEmptyAmount is returned for blank amount cells, which adapters treat as
// "no value in this column".
var ErrEmptyAmount = errors.New("empty amount")

var (
	currencyRe = regexp.MustCompile(`[¥$€£\s]|円|JPY`)
	negativeRe = regexp.MustCompile(`^[△▲]`)
)

// StandardizeAmount converts a statement amount into a string accepted by
// decimal.NewFromString. It folds full-width digits and signs, removes
// currency marks and thousands separators, and maps the Japanese negative
// markers △ and ▲ as well as accounting parentheses to a minus sign.
func StandardizeAmount(amountStr string) string {
	s := width.Fold.String(amountStr)
	s = strings.TrimSpace(s)

	negative := false
	if negativeRe.MatchString(s) {
		negative = true
		s = negativeRe.ReplaceAllString(s, "")
	}
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSuffix(strings.TrimPrefix(s, "("), ")")
	}

	s = currencyRe.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, "'", "")
	s = strings.ReplaceAll(s, "−", "-")

	if negative && s != "" && !strings.HasPrefix(s, "-") {
		s = "-" + s
	}
	return s
}

// ParseAmount parses a statement amount cell and rounds it to two decimals.
func ParseAmount(amountStr string) (decimal.Decimal, error) {
	standardized := StandardizeAmount(amountStr)
	if standardized == "" || standardized == "-" {
		return decimal.Zero, ErrEmptyAmount
	}

	amount, err := decimal.NewFromString(standardized)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse amount '%s': %w", amountStr, err)
	}
	return RoundAmount(amount), nil
}

// RoundAmount rounds to the two-decimal currency precision used in storage.
func RoundAmount(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(2)
}

// FormatAmount renders an amount with exactly two decimals.
func FormatAmount(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}
