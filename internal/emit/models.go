package emit

import (
	"github.com/lehigh-university-libraries/bookmerge/internal/pipeline"
	"github.com/lehigh-university-libraries/bookmerge/internal/reconcile"
	"github.com/lehigh-university-libraries/bookmerge/internal/source"
)

// DetailRow is one row of book_source_detail: the union of both source
// schemas plus the provenance columns. Scrape rows leave the API-only
// columns null and vice versa.
type DetailRow struct {
	Title    *string  `json:"title" parquet:"title"`
	Subtitle *string  `json:"subtitle" parquet:"subtitle"`
	Authors  []string `json:"authors" parquet:"authors,list"`

	// Scrape columns
	Rating       *float64 `json:"rating" parquet:"rating"`
	RatingsCount *int64   `json:"ratings_count" parquet:"ratings_count"`
	BookURL      *string  `json:"book_url" parquet:"book_url"`
	ScrapeSource *string  `json:"scrape_source" parquet:"scrape_source"`
	ScrapeDate   *string  `json:"scrape_date" parquet:"scrape_date"`

	// API columns
	GBID          *string  `json:"gb_id" parquet:"gb_id"`
	Publisher     *string  `json:"publisher" parquet:"publisher"`
	PubDate       *string  `json:"pub_date" parquet:"pub_date"`
	Language      *string  `json:"language" parquet:"language"`
	Categories    []string `json:"categories" parquet:"categories,list"`
	PriceAmount   *float64 `json:"price_amount" parquet:"price_amount"`
	PriceCurrency *string  `json:"price_currency" parquet:"price_currency"`
	QueryUsed     *string  `json:"query_used" parquet:"query_used"`

	ISBN10 *string `json:"isbn10" parquet:"isbn10"`
	ISBN13 *string `json:"isbn13" parquet:"isbn13"`

	AuthorPrincipal *string `json:"author_principal" parquet:"author_principal"`
	ValidationFlag  string  `json:"validation_flag" parquet:"validation_flag"`
	SourceName      string  `json:"_source_name" parquet:"_source_name"`
	IngestionTS     string  `json:"_ingestion_ts" parquet:"_ingestion_ts"`
	Chosen          bool    `json:"_chosen" parquet:"_chosen"`
}

// NewDetailRows converts pipeline detail rows into their table form.
func NewDetailRows(details []pipeline.DetailRow) []DetailRow {
	rows := make([]DetailRow, 0, len(details))
	for _, d := range details {
		r := d.Record
		row := DetailRow{
			Title:           r.Title,
			Subtitle:        r.Subtitle,
			Authors:         r.Authors,
			Rating:          r.Rating,
			RatingsCount:    r.RatingsCount,
			BookURL:         r.BookURL,
			ScrapeSource:    r.ScrapeSource,
			ScrapeDate:      r.ScrapeDate,
			GBID:            r.GBID,
			Publisher:       r.Publisher,
			PubDate:         r.PubDate,
			Language:        r.Language,
			PriceAmount:     r.PriceAmount,
			PriceCurrency:   r.PriceCurrency,
			QueryUsed:       r.QueryUsed,
			ISBN10:          r.ISBN10,
			ISBN13:          r.ISBN13,
			AuthorPrincipal: r.AuthorPrincipal,
			ValidationFlag:  r.ValidationFlag,
			SourceName:      string(r.Source),
			IngestionTS:     r.IngestedAt.UTC().Format(reconcile.TimestampFormat),
			Chosen:          d.Chosen,
		}
		// Categories only exist in the API export
		if r.Source == source.API {
			row.Categories = r.Categories
		}
		rows = append(rows, row)
	}
	return rows
}
