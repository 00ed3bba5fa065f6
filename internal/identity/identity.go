// Package identity validates and formats the 12-digit identity numbers
// printed on beneficiary cards. The same rules apply to OCR output and
// manual entry so both paths produce equally well-formed data.
package identity

import "strings"

const numberLength = 12

// Normalize strips spaces and dashes so scanned, OCR'd and hand-typed
// numbers compare equal.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r == ' ' || r == '-' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// IsValid reports whether s is a well-formed identity number: exactly 12
// digits, not starting with the reserved digits 0 or 1.
func IsValid(s string) bool {
	cleaned := Normalize(s)
	if len(cleaned) != numberLength {
		return false
	}
	for _, r := range cleaned {
		if r < '0' || r > '9' {
			return false
		}
	}
	return cleaned[0] != '0' && cleaned[0] != '1'
}

// Format renders a valid number as XXXX-XXXX-XXXX groups for display.
// Invalid input is returned unchanged.
func Format(s string) string {
	cleaned := Normalize(s)
	if len(cleaned) != numberLength {
		return s
	}
	return cleaned[0:4] + "-" + cleaned[4:8] + "-" + cleaned[8:12]
}

// Mask hides all but the last 4 digits. Every UI-facing surface must
// render identity numbers through this.
func Mask(s string) string {
	cleaned := Normalize(s)
	if len(cleaned) != numberLength {
		return s
	}
	return "XXXX-XXXX-" + cleaned[8:12]
}
