package entities

import (
	"strings"
	"unicode"
)

// Currency is one record of the ISO 4217 reference table.
type Currency struct {
	Alpha3    string
	Name      string
	Numeric   string
	Exp       int
	Countries []string
}

// Country is the result of a country code lookup.
type Country struct {
	Code     string
	Alpha3   string
	Currency string
}

// NormalizeCode trims and uppercases a currency or country code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// IsAlpha3 reports whether code is a three-letter code after normalization.
func IsAlpha3(code string) bool {
	return isLetters(code, 3)
}

// IsCountryCode reports whether code is a two-letter country code.
func IsCountryCode(code string) bool {
	return isLetters(code, 2)
}

func isLetters(code string, n int) bool {
	if len(code) != n {
		return false
	}
	for _, r := range code {
		if !unicode.IsLetter(r) || r > unicode.MaxASCII {
			return false
		}
	}
	return true
}
