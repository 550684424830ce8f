package googlebooks

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	books "google.golang.org/api/books/v1"

	"github.com/lehigh-university-libraries/bookmerge/internal/isbn"
	"github.com/lehigh-university-libraries/bookmerge/internal/source"
)

// Row is one line of the API export. Empty fields are written as empty
// cells, which the loader reads back as null.
type Row struct {
	GBID          string
	Title         string
	Subtitle      string
	Authors       string
	Publisher     string
	PubDate       string
	Language      string
	Categories    string
	ISBN13        string
	ISBN10        string
	PriceAmount   string
	PriceCurrency string
	QueryUsed     string
}

// Record returns the fields in source.APIColumns order.
func (r Row) Record() []string {
	return []string{
		r.GBID, r.Title, r.Subtitle, r.Authors, r.Publisher, r.PubDate,
		r.Language, r.Categories, r.ISBN13, r.ISBN10, r.PriceAmount,
		r.PriceCurrency, r.QueryUsed,
	}
}

// NotFound is the row written for a book no query matched.
func NotFound() Row {
	return Row{ISBN13: isbn.Placeholder}
}

// ParseVolume flattens a volume into a Row. Volumes without any ISBN get the
// placeholder ISBN-13. The list price wins over the retail price.
func ParseVolume(v *books.Volume) Row {
	row := Row{GBID: v.Id}

	if info := v.VolumeInfo; info != nil {
		row.Title = info.Title
		row.Subtitle = info.Subtitle
		row.Authors = strings.Join(info.Authors, ";")
		row.Publisher = info.Publisher
		row.PubDate = info.PublishedDate
		row.Language = info.Language
		row.Categories = strings.Join(info.Categories, ";")
		for _, id := range info.IndustryIdentifiers {
			if id == nil {
				continue
			}
			switch id.Type {
			case "ISBN_13":
				row.ISBN13 = id.Identifier
			case "ISBN_10":
				row.ISBN10 = id.Identifier
			}
		}
	}
	if row.ISBN13 == "" && row.ISBN10 == "" {
		row.ISBN13 = isbn.Placeholder
	}

	if sale := v.SaleInfo; sale != nil {
		switch {
		case sale.ListPrice != nil:
			row.PriceAmount = formatAmount(sale.ListPrice.Amount)
			row.PriceCurrency = sale.ListPrice.CurrencyCode
		case sale.RetailPrice != nil:
			row.PriceAmount = formatAmount(sale.RetailPrice.Amount)
			row.PriceCurrency = sale.RetailPrice.CurrencyCode
		}
	}

	return row
}

func formatAmount(amount float64) string {
	return strconv.FormatFloat(amount, 'f', -1, 64)
}

// WriteCSV writes the header and rows of the API export.
func WriteCSV(w io.Writer, rows []Row) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(source.APIColumns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, r := range rows {
		if err := writer.Write(r.Record()); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}
