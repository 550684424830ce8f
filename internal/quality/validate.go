// Package quality flags data-quality issues in raw source rows and computes
// the per-source quality metrics of a run.
package quality

import (
	"fmt"
	"regexp"

	"github.com/lehigh-university-libraries/bookmerge/internal/isbn"
	"github.com/lehigh-university-libraries/bookmerge/internal/normalize"
	"github.com/lehigh-university-libraries/bookmerge/internal/source"
)

// Validation flags, most severe first.
const (
	FlagNullTitle         = "null_title"
	FlagInvalidISBNFormat = "invalid_isbn_format"
	FlagInvalidDate       = "invalid_date"
	FlagInvalidLanguage   = "invalid_language"
	FlagInvalidCurrency   = "invalid_currency"
	FlagInvalidPrice      = "invalid_price"
	FlagInvalidPriceRange = "invalid_price_range"
	FlagValid             = "valid"
)

var severity = map[string]int{
	FlagNullTitle:         7,
	FlagInvalidISBNFormat: 6,
	FlagInvalidDate:       5,
	FlagInvalidLanguage:   4,
	FlagInvalidCurrency:   3,
	FlagInvalidPrice:      2,
	FlagInvalidPriceRange: 1,
}

var (
	languagePattern = regexp.MustCompile(`^[a-z]{2,3}(-[A-Z]{2})?$`)
	currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)
)

const (
	maxPrice = 1000.0
)

// DefaultMaxNullTitleRate is the null-title fraction above which a source
// is rejected.
const DefaultMaxNullTitleRate = 0.10

// NullTitleError is the fatal precondition raised when too many rows of a
// source have no title.
type NullTitleError struct {
	Source source.Name
	Rate   float64
	Max    float64
}

func (e *NullTitleError) Error() string {
	return fmt.Sprintf("too many null titles in %s: %.2f%% (max %.2f%%)", e.Source, e.Rate*100, e.Max*100)
}

// RowCheck holds every issue found on one row.
type RowCheck struct {
	Issues []string
}

// Flag returns the most severe issue, or "valid".
func (c RowCheck) Flag() string {
	flag := FlagValid
	best := 0
	for _, issue := range c.Issues {
		if severity[issue] > best {
			best = severity[issue]
			flag = issue
		}
	}
	return flag
}

// Has reports whether the row carries issue.
func (c RowCheck) Has(issue string) bool {
	for _, i := range c.Issues {
		if i == issue {
			return true
		}
	}
	return false
}

// Validation is the result of checking every row of one table.
type Validation struct {
	Source source.Name
	Checks []RowCheck
}

// Flags returns the validation flag of every row, in row order.
func (v *Validation) Flags() []string {
	flags := make([]string, len(v.Checks))
	for i, c := range v.Checks {
		flags[i] = c.Flag()
	}
	return flags
}

// Validate checks every row of table. Only present-but-malformed values are
// flagged; absent optional values are not an issue. Columns the source does
// not carry are never checked.
func Validate(table *source.Table) *Validation {
	v := &Validation{Source: table.Source, Checks: make([]RowCheck, len(table.Rows))}

	for i, row := range table.Rows {
		var issues []string

		if table.Has("title") && row.Get("title") == nil {
			issues = append(issues, FlagNullTitle)
		}
		if raw := row.Get("isbn13"); raw != nil && !isbn.Is13Digits(*raw) {
			issues = append(issues, FlagInvalidISBNFormat)
		}
		if _, _, degraded := normalize.Date(row.Get("pub_date")); degraded {
			issues = append(issues, FlagInvalidDate)
		}
		if raw := row.Get("language"); raw != nil && !languagePattern.MatchString(*raw) {
			issues = append(issues, FlagInvalidLanguage)
		}
		if raw := row.Get("price_currency"); raw != nil && !currencyPattern.MatchString(*raw) {
			issues = append(issues, FlagInvalidCurrency)
		}
		price, degraded := normalize.Price(row.Get("price_amount"))
		if degraded {
			issues = append(issues, FlagInvalidPrice)
		} else if price != nil && (*price <= 0 || *price > maxPrice) {
			issues = append(issues, FlagInvalidPriceRange)
		}

		v.Checks[i] = RowCheck{Issues: issues}
	}

	return v
}

// CheckNullTitles returns a *NullTitleError when the null-title rate of
// table exceeds maxRate. Tables without a title column or without rows pass.
func CheckNullTitles(table *source.Table, maxRate float64) error {
	if !table.Has("title") || len(table.Rows) == 0 {
		return nil
	}
	missing := 0
	for _, row := range table.Rows {
		if row.Get("title") == nil {
			missing++
		}
	}
	rate := float64(missing) / float64(len(table.Rows))
	if rate > maxRate {
		return &NullTitleError{Source: table.Source, Rate: rate, Max: maxRate}
	}
	return nil
}
