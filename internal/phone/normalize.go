package phone

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// Digits strips every non-digit character.
func Digits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// CallingCode canonicalizes a country calling code to "+<digits>".
// Returns "" when the input has no digits.
func CallingCode(code string) string {
	d := Digits(code)
	if d == "" {
		return ""
	}
	return "+" + d
}

// Normalize builds the dialable number: calling code and body digits
// concatenated with no separator.
func Normalize(countryCode, body string) string {
	return CallingCode(countryCode) + Digits(body)
}

// MinimumLength is the advisory minimum digit count of the number body.
func MinimumLength(countryCode string) int {
	switch CallingCode(countryCode) {
	case "+1", "+44", "+91":
		return 10
	default:
		return 8
	}
}

// MeetsMinimumLength is advisory; callers must not reject numbers on it.
func MeetsMinimumLength(countryCode, body string) bool {
	return len(Digits(body)) >= MinimumLength(countryCode)
}

// Info is the advisory libphonenumber view of a dialable number.
type Info struct {
	Region string
	Valid  bool
}

// Inspect parses a dialable number without a default region.
// Parse failures yield the zero Info.
func Inspect(dialable string) Info {
	num, err := phonenumbers.Parse(dialable, "")
	if err != nil {
		return Info{}
	}
	return Info{
		Region: phonenumbers.GetRegionCodeForNumber(num),
		Valid:  phonenumbers.IsValidNumber(num),
	}
}
