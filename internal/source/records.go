package source

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/lehigh-university-libraries/bookmerge/internal/isbn"
	"github.com/lehigh-university-libraries/bookmerge/internal/normalize"
)

// Records converts every row of the table into a typed Record. flags holds
// the validation flag of each row (same order); rows without a flag are
// marked "valid".
func (t *Table) Records(ingestedAt time.Time, flags []string) []Record {
	sep := normalize.APISeparator
	if t.Source == Scrape {
		sep = normalize.ScrapeSeparator
	}

	records := make([]Record, 0, len(t.Rows))
	for i, row := range t.Rows {
		flag := "valid"
		if i < len(flags) && flags[i] != "" {
			flag = flags[i]
		}
		records = append(records, newRecord(t.Source, i, row, sep, ingestedAt, flag))
	}
	return records
}

func newRecord(source Name, position int, row Row, sep *regexp.Regexp, ingestedAt time.Time, flag string) Record {
	authors := row.Get("authors")
	if authors == nil {
		authors = row.Get("author")
	}
	authorList := normalize.SplitList(authors, sep)
	price, badPrice := normalize.Price(row.Get("price_amount"))

	return Record{
		Source:          source,
		Position:        position,
		Title:           row.Get("title"),
		Subtitle:        row.Get("subtitle"),
		Authors:         authorList,
		AuthorPrincipal: normalize.PrincipalAuthor(authorList),
		Publisher:       row.Get("publisher"),
		PubDate:         row.Get("pub_date"),
		Language:        row.Get("language"),
		ISBN10:          cleanISBN(row.Get("isbn10")),
		ISBN13:          cleanISBN(row.Get("isbn13")),
		PriceAmount:     price,
		PriceInvalid:    badPrice,
		PriceCurrency:   row.Get("price_currency"),
		Categories:      normalize.SplitList(row.Get("categories"), sep),
		Rating:          parseFloat(row.Get("rating")),
		RatingsCount:    parseCount(row.Get("ratings_count")),
		BookURL:         row.Get("book_url"),
		ScrapeSource:    row.Get("scrape_source"),
		ScrapeDate:      row.Get("scrape_date"),
		GBID:            row.Get("gb_id"),
		QueryUsed:       row.Get("query_used"),
		IngestedAt:      ingestedAt,
		ValidationFlag:  flag,
	}
}

func cleanISBN(v *string) *string {
	if v == nil {
		return nil
	}
	c := isbn.Clean(*v)
	// CSV exporters sometimes turn numeric ISBNs into floats
	c = strings.TrimSuffix(c, ".0")
	if c == "" {
		return nil
	}
	return &c
}

func parseFloat(v *string) *float64 {
	f, _ := normalize.Price(v)
	return f
}

// parseCount accepts thousands separators ("1,234") and integral floats.
func parseCount(v *string) *int64 {
	if v == nil {
		return nil
	}
	s := strings.NewReplacer(",", "", " ", "").Replace(strings.TrimSpace(*v))
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return &n
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || math.IsInf(f, 0) {
		return nil
	}
	n := int64(f)
	return &n
}
