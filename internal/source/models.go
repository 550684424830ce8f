package source

import (
	"strings"
	"time"
)

// Name identifies an input source.
type Name string

const (
	// Scrape is the web catalog scrape (Goodreads).
	Scrape Name = "goodreads"
	// API is the Google Books API export.
	API Name = "googlebooks"
)

// Column orders of the two input artifacts.
var (
	ScrapeColumns = []string{
		"title", "author", "rating", "ratings_count", "book_url",
		"isbn10", "isbn13", "scrape_source", "scrape_date",
	}
	APIColumns = []string{
		"gb_id", "title", "subtitle", "authors", "publisher", "pub_date",
		"language", "categories", "isbn13", "isbn10", "price_amount",
		"price_currency", "query_used",
	}
)

// Row is one raw input row: column name to nullable text.
type Row map[string]*string

// Get returns the value of column, or nil when it is missing.
func (r Row) Get(column string) *string {
	v, ok := r[column]
	if !ok || Missing(v) {
		return nil
	}
	return v
}

// Table is a fully materialized raw source table.
type Table struct {
	Source  Name
	Columns []string
	Rows    []Row
}

// Has reports whether the table schema carries column.
func (t *Table) Has(column string) bool {
	for _, c := range t.Columns {
		if c == column {
			return true
		}
	}
	return false
}

// Missing reports whether a raw value counts as absent: nil, blank, or the
// literal "nan" some exporters write for empty cells.
func Missing(v *string) bool {
	if v == nil {
		return true
	}
	s := strings.TrimSpace(*v)
	return s == "" || strings.EqualFold(s, "nan")
}

// Record is the typed, normalized form of one source row. Records are built
// once per run and only read afterwards.
type Record struct {
	Source Name
	// Position is the row index in the source table.
	Position int

	Title           *string
	Subtitle        *string
	Authors         []string
	AuthorPrincipal *string
	Publisher       *string
	PubDate         *string
	Language        *string
	ISBN10          *string
	ISBN13          *string
	PriceAmount     *float64
	// PriceInvalid marks a price that was present but unparsable.
	PriceInvalid    bool
	PriceCurrency   *string
	Categories      []string

	// Scrape-only columns
	Rating       *float64
	RatingsCount *int64
	BookURL      *string
	ScrapeSource *string
	ScrapeDate   *string

	// API-only columns
	GBID      *string
	QueryUsed *string

	IngestedAt     time.Time
	ValidationFlag string
}
