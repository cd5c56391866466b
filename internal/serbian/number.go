// Package serbian implements the number and date conventions used on Serbian
// fiscal receipts: "." groups thousands, "," separates decimals, dates are
// DD.MM.YYYY with a separate HH:MM clock.
package serbian

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FormatNumber renders a non-negative decimal in Serbian convention with
// exactly two fractional digits, e.g. 1234.56 -> "1.234,56".
func FormatNumber(v float64) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)
	intPart, fracPart, _ := strings.Cut(s, ".")
	return groupThousands(intPart) + "," + fracPart
}

// FormatCents renders an integer para amount, e.g. 218400 -> "2.184,00".
func FormatCents(cents int64) string {
	return FormatNumber(float64(cents) / 100)
}

// ParseNumber inverts FormatNumber: "1.234,56" -> 1234.56.
func ParseNumber(s string) (float64, error) {
	normalized := strings.ReplaceAll(strings.TrimSpace(s), ".", "")
	normalized = strings.ReplaceAll(normalized, ",", ".")
	v, err := strconv.ParseFloat(normalized, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing number %q: %w", s, err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("parsing number %q: not a finite number", s)
	}
	return v, nil
}

// Cents converts a decimal amount to integer para.
func Cents(v float64) int64 {
	return int64(math.Round(v * 100))
}

// groupThousands inserts a "." every three digits from the right.
func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
