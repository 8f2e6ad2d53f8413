// Package money normalizes Brazilian-locale currency values.
package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Parse converts an amount as found in a spreadsheet cell into a decimal.
// Accepted forms include "R$ 1.234,56", "1.234,56", "35,90", "1500" and
// "1500.50". Thousands separator is ".", decimal separator is ",".
func Parse(s string) (decimal.Decimal, error) {
	clean := strings.TrimSpace(s)
	clean = strings.TrimPrefix(clean, "R$")
	clean = strings.ReplaceAll(clean, " ", "")
	clean = strings.ReplaceAll(clean, " ", "")
	if clean == "" {
		return decimal.Zero, fmt.Errorf("empty amount")
	}

	switch {
	case strings.Contains(clean, ","):
		// Locale form: dots are thousands separators.
		clean = strings.ReplaceAll(clean, ".", "")
		clean = strings.Replace(clean, ",", ".", 1)
	case strings.Count(clean, ".") > 1:
		// "1.234.567" with no decimal part.
		clean = strings.ReplaceAll(clean, ".", "")
	case isThousandsOnly(clean):
		clean = strings.ReplaceAll(clean, ".", "")
	}

	d, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return d, nil
}

// isThousandsOnly reports whether a single dot in the value is a thousands
// separator rather than a decimal point ("1.234" vs "1500.50").
func isThousandsOnly(s string) bool {
	i := strings.Index(s, ".")
	return i >= 0 && len(s)-i-1 == 3
}

// FormatBRL renders a decimal as user-facing Brazilian currency text,
// e.g. 1234.56 -> "R$ 1.234,56".
func FormatBRL(d decimal.Decimal) string {
	fixed := d.StringFixed(2)

	neg := strings.HasPrefix(fixed, "-")
	fixed = strings.TrimPrefix(fixed, "-")

	parts := strings.SplitN(fixed, ".", 2)
	intPart, fracPart := parts[0], parts[1]

	var b strings.Builder
	lead := len(intPart) % 3
	if lead > 0 {
		b.WriteString(intPart[:lead])
	}
	for i := lead; i < len(intPart); i += 3 {
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(intPart[i : i+3])
	}

	sign := ""
	if neg {
		sign = "-"
	}
	return fmt.Sprintf("%sR$ %s,%s", sign, b.String(), fracPart)
}
