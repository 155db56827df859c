package registry

import "strings"

const cnpjLength = 14

// NormalizeDocument strips every character that is not an ASCII digit.
func NormalizeDocument(raw string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, raw)
}

// ValidFormat reports whether raw holds exactly 14 digits once normalized.
func ValidFormat(raw string) bool {
	return len(NormalizeDocument(raw)) == cnpjLength
}
