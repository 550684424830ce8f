package mergecmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lehigh-university-libraries/bookmerge/internal/config"
	"github.com/lehigh-university-libraries/bookmerge/internal/emit"
	"github.com/lehigh-university-libraries/bookmerge/internal/quality"
	"github.com/lehigh-university-libraries/bookmerge/internal/reconcile"
	"github.com/lehigh-university-libraries/bookmerge/internal/source"
	"github.com/lehigh-university-libraries/bookmerge/internal/storage"
)

const scrapeJSON = `{"data": [
  {"title": "Dune", "author": "Frank Herbert", "rating": "4.27", "ratings_count": "1,234,567",
   "book_url": "https://www.goodreads.com/book/show/44767458-dune", "isbn10": null, "isbn13": "9780441013593",
   "scrape_source": "goodreads", "scrape_date": "2025-03-01"},
  {"title": "Emma", "author": "Jane Austen", "isbn13": "9780141439587"},
  {"title": "Walden", "author": "Henry David Thoreau and Bill McKibben", "isbn13": null}
]}`

const apiCSV = "gb_id,title,subtitle,authors,publisher,pub_date,language,categories,isbn13,isbn10,price_amount,price_currency,query_used\n" +
	"B1iZzQEACAAJ,Dune,,Frank Herbert,Ace,1990-09-01,en,Fiction,9780441013593,0441013597,9.99,USD,isbn:9780441013593\n" +
	"X2,Neuromancer,,William Gibson,Ace,1984,en,Fiction;Cyberpunk,9780441569595,0441569595,,,\"intitle:\"\"Neuromancer\"\"\"\n" +
	",,,,,,,,NO_ISBN_GOOGLE_API,,,,\n"

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	root := t.TempDir()
	cfg := config.New()
	cfg.LandingDir = filepath.Join(root, "landing")
	cfg.StandardDir = filepath.Join(root, "standard")
	cfg.DocsDir = filepath.Join(root, "docs")
	// The API export carries one title-less placeholder row out of three
	cfg.MaxNullTitleRate = 0.5
	require.NoError(t, os.MkdirAll(cfg.LandingDir, 0755))
	return cfg
}

func writeLanding(t *testing.T, cfg *config.Config, scrape, api string) {
	t.Helper()
	if scrape != "" {
		require.NoError(t, os.WriteFile(cfg.ScrapePath(), []byte(scrape), 0644))
	}
	if api != "" {
		require.NoError(t, os.WriteFile(cfg.APIPath(), []byte(api), 0644))
	}
}

func TestIntegrate(t *testing.T) {
	cfg := testConfig(t)
	cfg.SQLitePath = filepath.Join(t.TempDir(), "bookmerge.db")
	cfg.MetricsTextfile = filepath.Join(t.TempDir(), "bookmerge.prom")
	writeLanding(t, cfg, scrapeJSON, apiCSV)

	var out bytes.Buffer
	require.NoError(t, executeIntegrate(context.Background(), cfg, &out))

	books, err := emit.ReadParquet[reconcile.Book](filepath.Join(cfg.StandardDir, emit.DimBookFile), 0)
	require.NoError(t, err)
	require.Len(t, books, 3)

	byID := map[string]reconcile.Book{}
	for _, b := range books {
		byID[b.BookID] = b
	}
	dune, ok := byID["9780441013593"]
	require.True(t, ok, "Dune keeps its ISBN-13 id because the scrape record exists")
	assert.Equal(t, "goodreads", dune.FuenteGanadora)
	assert.Equal(t, "Ace", *dune.Publisher)
	assert.Contains(t, byID, "0441569595")
	assert.Contains(t, byID, "9780141439587")

	details, err := emit.ReadParquet[emit.DetailRow](filepath.Join(cfg.StandardDir, emit.DetailFile), 0)
	require.NoError(t, err)
	assert.Len(t, details, 4)

	assert.FileExists(t, filepath.Join(cfg.DocsDir, "quality_metrics.json"))
	assert.FileExists(t, filepath.Join(cfg.DocsDir, emit.SchemaFile))
	assert.FileExists(t, cfg.MetricsTextfile)

	store, err := storage.Open(context.Background(), cfg.SQLitePath)
	require.NoError(t, err)
	defer store.Close()
	n, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	summary := out.String()
	assert.Contains(t, summary, "Canonical books:    3")
	assert.Contains(t, summary, "Duplicates found:   1")
	assert.Contains(t, summary, "googlebooks")
	assert.Contains(t, summary, "(3 rows)")
}

func TestIntegrateMissingInputWritesNothing(t *testing.T) {
	cfg := testConfig(t)
	writeLanding(t, cfg, scrapeJSON, "")

	err := executeIntegrate(context.Background(), cfg, &bytes.Buffer{})
	require.Error(t, err)
	assert.ErrorIs(t, err, source.ErrMissingInput)
	assert.Contains(t, err.Error(), "googlebooks_books.csv")

	assert.NoDirExists(t, cfg.StandardDir)
	assert.NoDirExists(t, cfg.DocsDir)
}

func TestIntegrateNullTitlesWritesNothing(t *testing.T) {
	cfg := testConfig(t)
	api := apiCSV +
		",,,,,,,,9780306406157,,,,\n" +
		",,,,,,,,9780140449136,,,,\n"
	writeLanding(t, cfg, scrapeJSON, api)

	err := executeIntegrate(context.Background(), cfg, &bytes.Buffer{})
	require.Error(t, err)
	var nullErr *quality.NullTitleError
	assert.ErrorAs(t, err, &nullErr)
	assert.Contains(t, err.Error(), "googlebooks")

	assert.NoDirExists(t, cfg.StandardDir)
	assert.NoDirExists(t, cfg.DocsDir)
}

func TestIntegrateYAMLReport(t *testing.T) {
	cfg := testConfig(t)
	cfg.ReportFormat = "yaml"
	writeLanding(t, cfg, scrapeJSON, apiCSV)

	require.NoError(t, executeIntegrate(context.Background(), cfg, &bytes.Buffer{}))
	assert.FileExists(t, filepath.Join(cfg.DocsDir, "quality_metrics.yaml"))
}

func TestInspect(t *testing.T) {
	cfg := testConfig(t)
	writeLanding(t, cfg, scrapeJSON, apiCSV)
	require.NoError(t, executeIntegrate(context.Background(), cfg, &bytes.Buffer{}))

	var out bytes.Buffer
	require.NoError(t, executeInspect(&out, cfg.StandardDir, "dim_book", 2))
	assert.Contains(t, out.String(), "Loaded 2 rows")
	assert.Contains(t, out.String(), "Book ID")

	out.Reset()
	require.NoError(t, executeInspect(&out, cfg.StandardDir, "detail", 0))
	assert.Contains(t, out.String(), "Loaded 4 rows")
	assert.Contains(t, out.String(), "Chosen")

	err := executeInspect(&out, cfg.StandardDir, filepath.Join(cfg.StandardDir, "missing.parquet"), 0)
	assert.Error(t, err)
}

func TestInspectSQLite(t *testing.T) {
	cfg := testConfig(t)
	cfg.SQLitePath = filepath.Join(t.TempDir(), "bookmerge.db")
	writeLanding(t, cfg, scrapeJSON, apiCSV)
	require.NoError(t, executeIntegrate(context.Background(), cfg, &bytes.Buffer{}))

	var out bytes.Buffer
	require.NoError(t, executeInspectSQLite(context.Background(), &out, cfg.SQLitePath, "", 0))
	assert.Contains(t, out.String(), "Loaded 3 rows")

	out.Reset()
	require.NoError(t, executeInspectSQLite(context.Background(), &out, cfg.SQLitePath, "0441569595", 0))
	assert.Contains(t, out.String(), "Loaded 1 rows")
	assert.Contains(t, out.String(), "Neuromancer")

	err := executeInspectSQLite(context.Background(), &out, cfg.SQLitePath, "0000000000", 0)
	assert.ErrorContains(t, err, "not found")

	err = executeInspectSQLite(context.Background(), &out, filepath.Join(t.TempDir(), "none.db"), "", 0)
	assert.Error(t, err)
}

func TestISBNCommand(t *testing.T) {
	cmd := NewISBNCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)

	cmd.SetArgs([]string{"978-0-306-40615-7", "9780441013593"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "9780306406157")

	out.Reset()
	cmd.SetArgs([]string{"9780306406158"})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 1")
	assert.Contains(t, out.String(), "invalid")
}

func TestFormatFlags(t *testing.T) {
	assert.Equal(t, "-", formatFlags(map[string]int{"valid": 3}))
	assert.Equal(t, "invalid_date=1 null_title=2", formatFlags(map[string]int{"valid": 3, "null_title": 2, "invalid_date": 1}))
}
