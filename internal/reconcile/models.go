package reconcile

import (
	"time"

	"github.com/lehigh-university-libraries/bookmerge/internal/isbn"
)

// Book is one canonical row of the dim_book table. At most one Book exists
// per dedup key and BookID is unique across a table.
type Book struct {
	BookID          string   `json:"book_id_chosen" parquet:"book_id_chosen"`
	Title           *string  `json:"title" parquet:"title"`
	TitleNormalized *string  `json:"title_normalized" parquet:"title_normalized"`
	AuthorPrincipal *string  `json:"author_principal" parquet:"author_principal"`
	Authors         []string `json:"authors" parquet:"authors,list"`
	Publisher       *string  `json:"publisher" parquet:"publisher"`
	YearPub         *int32   `json:"year_pub" parquet:"year_pub"`
	PubDateISO      *string  `json:"pub_date_iso" parquet:"pub_date_iso"`
	LanguageBCP     *string  `json:"language_bcp" parquet:"language_bcp"`
	ISBN10          *string  `json:"isbn10" parquet:"isbn10"`
	ISBN13          *string  `json:"isbn13" parquet:"isbn13"`
	Categories      []string `json:"categories" parquet:"categories,list"`
	Price           *float64 `json:"price" parquet:"price"`
	CurrencyISO     *string  `json:"currency_iso" parquet:"currency_iso"`
	FuenteGanadora  string   `json:"fuente_ganadora" parquet:"fuente_ganadora"`
	TSLastUpdate    string   `json:"ts_last_update" parquet:"ts_last_update"`
	ISBN13Valid     bool     `json:"isbn13_valid" parquet:"isbn13_valid"`
	ValidationFlag  string   `json:"validation_flag" parquet:"validation_flag"`

	// UpdatedAt is the latest ingestion timestamp of the records merged
	// into this book; TSLastUpdate is its formatted form.
	UpdatedAt time.Time `json:"-" parquet:"-"`
}

// DedupKey returns the usable ISBN-13, else the usable ISBN-10, else nil.
// It follows the same rule as Key so that records kept apart while grouping
// stay apart while deduplicating.
func (b *Book) DedupKey() *string {
	if isbn.Usable(b.ISBN13) {
		return b.ISBN13
	}
	if isbn.Usable(b.ISBN10) {
		return b.ISBN10
	}
	return nil
}

// Canonical row validation flags.
const (
	FlagValid           = "valid"
	FlagInvalidISBN     = "invalid_isbn"
	FlagInvalidDate     = "invalid_date"
	FlagInvalidLanguage = "invalid_language"
	FlagInvalidCurrency = "invalid_currency"
	FlagInvalidPrice    = "invalid_price"
)

// Result is the output of one reconciliation.
type Result struct {
	Books []Book
	// Groups is the number of source key groups that were merged.
	Groups int
	// Candidates is the number of merged records before deduplication.
	Candidates int
	// Collisions counts books dropped because their id was already taken.
	Collisions int
}
