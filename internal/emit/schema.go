package emit

import (
	"fmt"
	"io"
	"strings"
)

type column struct {
	name     string
	kind     string
	nullable bool
	note     string
}

var dimBookColumns = []column{
	{"book_id_chosen", "string", false, "ISBN-10 (API win), ISBN-13, or 16-char SHA-256 prefix"},
	{"title", "string", true, ""},
	{"title_normalized", "string", true, "trimmed, lowercased, single-spaced"},
	{"author_principal", "string", true, "first author"},
	{"authors", "list<string>", false, "empty list when unknown"},
	{"publisher", "string", true, ""},
	{"year_pub", "int32", true, ""},
	{"pub_date_iso", "string", true, "YYYY-MM-DD"},
	{"language_bcp", "string", true, "BCP 47 tag"},
	{"isbn10", "string", true, ""},
	{"isbn13", "string", true, ""},
	{"categories", "list<string>", false, "empty list when unknown"},
	{"price", "double", true, ""},
	{"currency_iso", "string", true, "ISO 4217 code"},
	{"fuente_ganadora", "string", false, "goodreads when the group had a scrape record, else googlebooks"},
	{"ts_last_update", "string", false, "RFC 3339 UTC"},
	{"isbn13_valid", "bool", false, "ISBN-13 checksum result"},
	{"validation_flag", "string", false, "valid, invalid_isbn, invalid_date, invalid_language, invalid_currency or invalid_price"},
}

var detailColumns = []column{
	{"title", "string", true, ""},
	{"subtitle", "string", true, "googlebooks only"},
	{"authors", "list<string>", false, ""},
	{"rating", "double", true, "goodreads only"},
	{"ratings_count", "int64", true, "goodreads only"},
	{"book_url", "string", true, "goodreads only"},
	{"scrape_source", "string", true, "goodreads only"},
	{"scrape_date", "string", true, "goodreads only"},
	{"gb_id", "string", true, "googlebooks only"},
	{"publisher", "string", true, "googlebooks only"},
	{"pub_date", "string", true, "googlebooks only, as received"},
	{"language", "string", true, "googlebooks only, as received"},
	{"categories", "list<string>", false, "googlebooks only"},
	{"price_amount", "double", true, "googlebooks only"},
	{"price_currency", "string", true, "googlebooks only, as received"},
	{"query_used", "string", true, "googlebooks only"},
	{"isbn10", "string", true, "hyphens and spaces removed"},
	{"isbn13", "string", true, "hyphens and spaces removed"},
	{"author_principal", "string", true, "first author"},
	{"validation_flag", "string", false, "most severe row issue, or valid"},
	{"_source_name", "string", false, "goodreads or googlebooks"},
	{"_ingestion_ts", "string", false, "RFC 3339 UTC"},
	{"_chosen", "bool", false, "own ISBN-10 or ISBN-13 is a canonical id"},
}

// SchemaDoc renders the schema description of both tables.
func SchemaDoc() string {
	var b strings.Builder
	b.WriteString("# Schema Documentation\n")
	writeTable(&b, DimBookFile, "One row per canonical book.", dimBookColumns)
	writeTable(&b, DetailFile, "Every pre-merge source record that passed the pre-filter.", detailColumns)
	return b.String()
}

func writeTable(b *strings.Builder, name, summary string, columns []column) {
	fmt.Fprintf(b, "\n## %s\n\n%s\n\n", name, summary)
	b.WriteString("| column | type | nullable | notes |\n|---|---|---|---|\n")
	for _, c := range columns {
		nullable := "no"
		if c.nullable {
			nullable = "yes"
		}
		fmt.Fprintf(b, "| %s | %s | %s | %s |\n", c.name, c.kind, nullable, c.note)
	}
}

// WriteSchema writes SchemaDoc to path.
func WriteSchema(path string) error {
	return WriteAtomic(path, func(w io.Writer) error {
		_, err := io.WriteString(w, SchemaDoc())
		return err
	})
}
