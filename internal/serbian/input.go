package serbian

import "strings"

// FormatAmountInput reformats a partially typed amount after each keystroke:
// everything but digits and the decimal comma is stripped, a second comma
// reverts to the previous value, leading zeros collapse (an explicit single
// "0" survives), thousands separators are re-inserted and the fraction is
// capped at two digits.
func FormatAmountInput(text, previous string) string {
	var b strings.Builder
	for _, r := range text {
		if (r >= '0' && r <= '9') || r == ',' {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()

	if cleaned == "" {
		return ""
	}
	if strings.Count(cleaned, ",") > 1 {
		return previous
	}

	intPart, fracPart, hasComma := strings.Cut(cleaned, ",")
	stripped := strings.TrimLeft(intPart, "0")
	if stripped == "" && intPart == "0" {
		stripped = "0"
	}
	grouped := groupThousands(stripped)

	if hasComma {
		if len(fracPart) > 2 {
			fracPart = fracPart[:2]
		}
		return grouped + "," + fracPart
	}
	return grouped
}
