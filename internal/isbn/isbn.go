// Package isbn cleans and validates International Standard Book Numbers.
package isbn

import "strings"

// Placeholder is written by the Google Books enrichment step when a volume
// carries no industry identifiers. It is never a usable ISBN.
const Placeholder = "NO_ISBN_GOOGLE_API"

// Clean removes hyphens and spaces from an ISBN.
func Clean(isbn string) string {
	isbn = strings.TrimSpace(isbn)
	return strings.NewReplacer("-", "", " ", "").Replace(isbn)
}

// Valid13 reports whether s is an ISBN-13 with a correct check digit.
// Hyphens and spaces are ignored; anything else that is not an ASCII digit
// makes the number invalid.
func Valid13(s string) bool {
	s = Clean(s)
	if len(s) != 13 {
		return false
	}

	sum := 0
	for i := 0; i < 13; i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return false
		}
		if i == 12 {
			break
		}
		weight := 1
		if i%2 == 1 {
			weight = 3
		}
		sum += int(c-'0') * weight
	}

	checksum := (10 - sum%10) % 10
	return checksum == int(s[12]-'0')
}

// Valid13Ptr is Valid13 for nullable values; nil is never valid.
func Valid13Ptr(s *string) bool {
	if s == nil {
		return false
	}
	return Valid13(*s)
}

// Is13Digits reports whether the cleaned value is exactly 13 ASCII digits,
// without checking the check digit.
func Is13Digits(s string) bool {
	s = Clean(s)
	if len(s) != 13 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Usable reports whether s can serve as a dedup key: non-empty after
// cleaning and not the enrichment placeholder.
func Usable(s *string) bool {
	if s == nil {
		return false
	}
	c := Clean(*s)
	return c != "" && c != Placeholder
}
