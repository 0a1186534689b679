// Package phone normalizes phone numbers into the digit-only key used for
// folder mappings and WhatsApp addressing.
package phone

import "strings"

// NormalizeKey reduces a phone number to its canonical digit-only key:
// non-digits are stripped, bare 10-digit national numbers get a leading "1"
// country code, and a "00" international dialing prefix is removed.
// Returns "" when the input contains no digits.
func NormalizeKey(value string) string {
	var b strings.Builder
	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if digits == "" {
		return ""
	}

	if len(digits) == 10 {
		return "1" + digits
	}

	if strings.HasPrefix(digits, "00") && len(digits) > 2 {
		return digits[2:]
	}

	return digits
}

// FormatForWhatsApp returns the address form the WhatsApp Cloud API expects,
// which is the same digit-only key.
func FormatForWhatsApp(value string) string {
	return NormalizeKey(value)
}
