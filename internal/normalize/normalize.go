// Package normalize canonicalizes free-text bibliographic fields.
//
// Every function treats nil as "absent" and never panics on malformed input.
// Functions that can fail to parse report a degraded flag instead of an
// error so that callers downgrade a single row rather than abort a run.
package normalize

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

var (
	// ScrapeSeparator splits author lists scraped from the web catalog.
	ScrapeSeparator = regexp.MustCompile(`,|;|\band\b`)

	// APISeparator splits the semicolon-joined lists of the API export.
	APISeparator = regexp.MustCompile(`;`)
)

// SplitList splits s on sep, trims every token and drops empty ones.
// A nil input yields an empty, non-nil slice.
func SplitList(s *string, sep *regexp.Regexp) []string {
	out := []string{}
	if s == nil {
		return out
	}
	for _, token := range sep.Split(*s, -1) {
		token = strings.TrimSpace(token)
		if token != "" {
			out = append(out, token)
		}
	}
	return out
}

// PrincipalAuthor returns the first author, or nil for an empty list.
func PrincipalAuthor(authors []string) *string {
	if len(authors) == 0 {
		return nil
	}
	first := authors[0]
	return &first
}

// Text trims, lowercases and collapses whitespace runs to single spaces.
func Text(s *string) *string {
	if s == nil {
		return nil
	}
	out := strings.ToLower(strings.Join(strings.Fields(norm.NFC.String(*s)), " "))
	return &out
}

// Date parses a free-text publication date. It returns the ISO 8601
// calendar date and its year. degraded is true when a value was present but
// could not be parsed; both results are then nil.
func Date(s *string) (iso *string, year *int32, degraded bool) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, nil, false
	}

	t, err := dateparse.ParseIn(strings.TrimSpace(*s), time.UTC)
	if err != nil || t.Year() < 1 || t.Year() > 9999 {
		return nil, nil, true
	}

	formatted := t.Format("2006-01-02")
	y, err := strconv.ParseInt(formatted[:4], 10, 32)
	if err != nil {
		return nil, nil, true
	}
	y32 := int32(y)
	return &formatted, &y32, false
}

// Language returns the canonical BCP 47 form of a language tag.
func Language(s *string) (tag *string, degraded bool) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, false
	}
	parsed, err := language.Parse(strings.TrimSpace(*s))
	if err != nil {
		return nil, true
	}
	out := parsed.String()
	return &out, false
}

// Currency returns the ISO 4217 code for s.
func Currency(s *string) (code *string, degraded bool) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, false
	}
	unit, err := currency.ParseISO(strings.ToUpper(strings.TrimSpace(*s)))
	if err != nil {
		return nil, true
	}
	out := unit.String()
	return &out, false
}

// Price parses a decimal amount. NaN and infinities count as unparsable.
func Price(s *string) (amount *float64, degraded bool) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(*s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, true
	}
	return &v, false
}
