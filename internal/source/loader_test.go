package source

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const scrapeFixture = `{
  "metadata": {"query": "dune"},
  "data": [
    {"title": "Dune", "author": "Frank Herbert", "rating": 4.27, "ratings_count": "1,234,567",
     "book_url": "https://example.com/dune", "isbn10": null, "isbn13": 9780441013593,
     "scrape_source": "goodreads", "scrape_date": "2025-01-01"},
    {"title": "Good Omens", "author": ["Neil Gaiman", "Terry Pratchett"], "rating": "n/a",
     "isbn10": "0-06-085398-4", "isbn13": "", "scrape_source": "goodreads"}
  ]
}`

const apiFixture = "gb_id,title,subtitle,authors,publisher,pub_date,language,categories,isbn13,isbn10,price_amount,price_currency,query_used\n" +
	"abc,Dune,,Frank Herbert,Ace,1990-09-01,en,Fiction;Science Fiction,9780441013593,0441013597,9.99,EUR,isbn:9780441013593\n" +
	"def,,,,,,,,NO_ISBN_GOOGLE_API,,,,\n"

func TestReadJSON(t *testing.T) {
	table, err := ReadJSON(strings.NewReader(scrapeFixture), Scrape)
	if err != nil {
		t.Fatalf("ReadJSON failed: %v", err)
	}

	if len(table.Rows) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(table.Rows))
	}
	if !table.Has("scrape_date") {
		t.Error("Expected scrape schema columns")
	}

	isbn13 := table.Rows[0].Get("isbn13")
	if isbn13 == nil || *isbn13 != "9780441013593" {
		t.Errorf("Expected numeric ISBN to keep its literal form, got %v", isbn13)
	}
	if table.Rows[0].Get("isbn10") != nil {
		t.Error("Expected null isbn10 to be missing")
	}
	if table.Rows[1].Get("isbn13") != nil {
		t.Error("Expected empty isbn13 to be missing")
	}
	author := table.Rows[1].Get("author")
	if author == nil || *author != "Neil Gaiman; Terry Pratchett" {
		t.Errorf("Expected author array to be joined, got %v", author)
	}
}

func TestReadJSONBareArray(t *testing.T) {
	table, err := ReadJSON(strings.NewReader(`[{"title":"Dune"}]`), Scrape)
	if err != nil {
		t.Fatalf("ReadJSON failed: %v", err)
	}
	if len(table.Rows) != 1 {
		t.Errorf("Expected 1 row, got %d", len(table.Rows))
	}
}

func TestReadJSONWithoutData(t *testing.T) {
	if _, err := ReadJSON(strings.NewReader(`{"items": []}`), Scrape); err == nil {
		t.Error("Expected error for document without data list")
	}
}

func TestReadCSV(t *testing.T) {
	table, err := ReadCSV(strings.NewReader(apiFixture), API)
	if err != nil {
		t.Fatalf("ReadCSV failed: %v", err)
	}

	if len(table.Columns) != len(APIColumns) {
		t.Errorf("Expected %d columns, got %d", len(APIColumns), len(table.Columns))
	}
	if len(table.Rows) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(table.Rows))
	}
	if table.Rows[1].Get("title") != nil {
		t.Error("Expected empty CSV cell to be null")
	}
	publisher := table.Rows[0].Get("publisher")
	if publisher == nil || *publisher != "Ace" {
		t.Errorf("Expected publisher Ace, got %v", publisher)
	}
}

func TestMissing(t *testing.T) {
	blank, nan, value := "  ", "NaN", "x"
	if !Missing(nil) || !Missing(&blank) || !Missing(&nan) {
		t.Error("Expected nil, blank and nan to be missing")
	}
	if Missing(&value) {
		t.Error("Expected a value to be present")
	}
}

func TestLoaderMissingFile(t *testing.T) {
	loader := NewLoader(filepath.Join(t.TempDir(), "goodreads_books.json"), Scrape)

	_, err := loader.Load()
	if !errors.Is(err, ErrMissingInput) {
		t.Fatalf("Expected ErrMissingInput, got %v", err)
	}
	if !strings.Contains(err.Error(), "goodreads_books.json") {
		t.Errorf("Expected error to name the artifact, got %q", err.Error())
	}
}

func TestLoaderUnsupportedFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "books.txt")
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	if _, err := NewLoader(path, API).Load(); err == nil {
		t.Error("Expected error for unsupported format, got nil")
	}
}

func TestLoaderJSONL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "books.jsonl")
	data := `{"title":"Dune","isbn13":"9780441013593"}

{"title":"Emma","isbn13":"9780141439587","shelf":"classics"}
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	table, err := NewLoader(path, Scrape).Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(table.Rows) != 2 {
		t.Errorf("Expected 2 rows, got %d", len(table.Rows))
	}
	if !table.Has("shelf") {
		t.Error("Expected extra key to be added to the columns")
	}
}

func TestRecords(t *testing.T) {
	scrape, err := ReadJSON(strings.NewReader(scrapeFixture), Scrape)
	if err != nil {
		t.Fatalf("ReadJSON failed: %v", err)
	}
	ts := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	records := scrape.Records(ts, []string{"valid", "invalid_isbn_format"})
	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}

	dune := records[0]
	if dune.ISBN13 == nil || *dune.ISBN13 != "9780441013593" {
		t.Errorf("Unexpected ISBN13 %v", dune.ISBN13)
	}
	if dune.RatingsCount == nil || *dune.RatingsCount != 1234567 {
		t.Errorf("Expected ratings count 1234567, got %v", dune.RatingsCount)
	}
	if dune.Rating == nil || *dune.Rating != 4.27 {
		t.Errorf("Expected rating 4.27, got %v", dune.Rating)
	}
	if !dune.IngestedAt.Equal(ts) {
		t.Errorf("Expected ingestion timestamp %v, got %v", ts, dune.IngestedAt)
	}
	if dune.Publisher != nil || dune.Categories == nil || len(dune.Categories) != 0 {
		t.Error("Expected absent publisher and empty, non-nil categories")
	}

	omens := records[1]
	if len(omens.Authors) != 2 || omens.Authors[1] != "Terry Pratchett" {
		t.Errorf("Unexpected authors %v", omens.Authors)
	}
	if omens.AuthorPrincipal == nil || *omens.AuthorPrincipal != "Neil Gaiman" {
		t.Errorf("Unexpected principal author %v", omens.AuthorPrincipal)
	}
	if omens.ISBN10 == nil || *omens.ISBN10 != "0060853984" {
		t.Errorf("Expected cleaned ISBN10, got %v", omens.ISBN10)
	}
	if omens.Rating != nil {
		t.Error("Expected unparsable rating to be absent")
	}
	if omens.ValidationFlag != "invalid_isbn_format" {
		t.Errorf("Expected flag to carry over, got %s", omens.ValidationFlag)
	}

	api, err := ReadCSV(strings.NewReader(apiFixture), API)
	if err != nil {
		t.Fatalf("ReadCSV failed: %v", err)
	}
	apiRecords := api.Records(ts, nil)
	if apiRecords[0].ValidationFlag != "valid" {
		t.Errorf("Expected default flag valid, got %s", apiRecords[0].ValidationFlag)
	}
	if len(apiRecords[0].Categories) != 2 || apiRecords[0].Categories[1] != "Science Fiction" {
		t.Errorf("Unexpected categories %v", apiRecords[0].Categories)
	}
	if apiRecords[0].PriceAmount == nil || *apiRecords[0].PriceAmount != 9.99 {
		t.Errorf("Unexpected price %v", apiRecords[0].PriceAmount)
	}
	if len(apiRecords[1].Authors) != 0 || apiRecords[1].Authors == nil {
		t.Error("Expected empty, non-nil author list for missing authors")
	}
}
