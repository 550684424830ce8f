// Package storage mirrors the canonical book table into SQLite. Every run
// replaces the table as a whole.
package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/lehigh-university-libraries/bookmerge/internal/reconcile"
)

//go:embed schema.sql
var schemaSQL string

const bookColumns = `book_id_chosen, title, title_normalized, author_principal, authors,
	publisher, year_pub, pub_date_iso, language_bcp, isbn10, isbn13, categories,
	price, currency_iso, fuente_ganadora, ts_last_update, isbn13_valid, validation_flag`

// BookStore is the SQLite mirror of dim_book.
type BookStore struct {
	db   *sql.DB
	path string
}

// Open creates or opens the database at path.
func Open(ctx context.Context, path string) (*BookStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &BookStore{db: db, path: path}, nil
}

// Close releases the database.
func (s *BookStore) Close() error {
	return s.db.Close()
}

// Path returns the database file location.
func (s *BookStore) Path() string {
	return s.path
}

// ReplaceBooks swaps the stored table for books in a single transaction and
// records the run.
func (s *BookStore) ReplaceBooks(ctx context.Context, runID string, books []reconcile.Book) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM dim_book"); err != nil {
		return fmt.Errorf("clear dim_book: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO dim_book ("+bookColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, b := range books {
		authors, err := encodeList(b.Authors)
		if err != nil {
			return err
		}
		categories, err := encodeList(b.Categories)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx,
			b.BookID, b.Title, b.TitleNormalized, b.AuthorPrincipal, authors,
			b.Publisher, b.YearPub, b.PubDateISO, b.LanguageBCP, b.ISBN10, b.ISBN13, categories,
			b.Price, b.CurrencyISO, b.FuenteGanadora, b.TSLastUpdate, b.ISBN13Valid, b.ValidationFlag,
		); err != nil {
			return fmt.Errorf("insert book %s: %w", b.BookID, err)
		}
	}

	if runID != "" {
		if _, err := tx.ExecContext(ctx,
			"INSERT OR REPLACE INTO runs (run_id, finished_at, canonical_rows) VALUES (?, ?, ?)",
			runID, time.Now().UTC().Format(reconcile.TimestampFormat), len(books),
		); err != nil {
			return fmt.Errorf("record run: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Get returns the book with the given canonical id.
func (s *BookStore) Get(ctx context.Context, bookID string) (*reconcile.Book, bool, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+bookColumns+" FROM dim_book WHERE book_id_chosen = ?", bookID)
	book, err := scanBook(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return book, true, nil
}

// GetAll returns every stored book ordered by canonical id.
func (s *BookStore) GetAll(ctx context.Context) ([]reconcile.Book, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+bookColumns+" FROM dim_book ORDER BY book_id_chosen")
	if err != nil {
		return nil, fmt.Errorf("query books: %w", err)
	}
	defer rows.Close()

	var books []reconcile.Book
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, *book)
	}
	return books, rows.Err()
}

// Count returns the number of stored books.
func (s *BookStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM dim_book").Scan(&n); err != nil {
		return 0, fmt.Errorf("count books: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBook(row scanner) (*reconcile.Book, error) {
	var (
		b                 reconcile.Book
		authors, cats     string
		title, normalized sql.NullString
		author, publisher sql.NullString
		pubDate, lang     sql.NullString
		isbn10, isbn13    sql.NullString
		currency          sql.NullString
		year              sql.NullInt32
		price             sql.NullFloat64
	)
	if err := row.Scan(
		&b.BookID, &title, &normalized, &author, &authors,
		&publisher, &year, &pubDate, &lang, &isbn10, &isbn13, &cats,
		&price, &currency, &b.FuenteGanadora, &b.TSLastUpdate, &b.ISBN13Valid, &b.ValidationFlag,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan book: %w", err)
	}

	b.Title = nullString(title)
	b.TitleNormalized = nullString(normalized)
	b.AuthorPrincipal = nullString(author)
	b.Publisher = nullString(publisher)
	b.PubDateISO = nullString(pubDate)
	b.LanguageBCP = nullString(lang)
	b.ISBN10 = nullString(isbn10)
	b.ISBN13 = nullString(isbn13)
	b.CurrencyISO = nullString(currency)
	if year.Valid {
		b.YearPub = &year.Int32
	}
	if price.Valid {
		b.Price = &price.Float64
	}

	if err := json.Unmarshal([]byte(authors), &b.Authors); err != nil {
		return nil, fmt.Errorf("decode authors of %s: %w", b.BookID, err)
	}
	if err := json.Unmarshal([]byte(cats), &b.Categories); err != nil {
		return nil, fmt.Errorf("decode categories of %s: %w", b.BookID, err)
	}
	if ts, err := time.Parse(reconcile.TimestampFormat, b.TSLastUpdate); err == nil {
		b.UpdatedAt = ts
	}
	return &b, nil
}

func nullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	return &v.String
}

func encodeList(items []string) (string, error) {
	if items == nil {
		items = []string{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("encode list: %w", err)
	}
	return string(raw), nil
}
