package mergecmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/lehigh-university-libraries/bookmerge/internal/emit"
	"github.com/lehigh-university-libraries/bookmerge/internal/reconcile"
	"github.com/lehigh-university-libraries/bookmerge/internal/storage"
)

func executeInspect(w io.Writer, standardDir, name string, limit int) error {
	path := name
	switch name {
	case "dim_book", emit.DimBookFile:
		path = filepath.Join(standardDir, emit.DimBookFile)
	case "detail", emit.DetailFile:
		path = filepath.Join(standardDir, emit.DetailFile)
	}

	if filepath.Base(path) == emit.DetailFile {
		rows, err := emit.ReadParquet[emit.DetailRow](path, limit)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		fmt.Fprintf(w, "Loaded %d rows from %s\n", len(rows), path)
		fmt.Fprintln(w, detailTable(rows))
		return nil
	}

	books, err := emit.ReadParquet[reconcile.Book](path, limit)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	fmt.Fprintf(w, "Loaded %d rows from %s\n", len(books), path)
	fmt.Fprintln(w, bookTable(books))
	return nil
}

// executeInspectSQLite prints books from the SQLite mirror: the one with
// bookID when given, else the first limit books by id.
func executeInspectSQLite(ctx context.Context, w io.Writer, dbPath, bookID string, limit int) error {
	if _, err := os.Stat(dbPath); err != nil {
		return fmt.Errorf("failed to open SQLite mirror: %w", err)
	}
	store, err := storage.Open(ctx, dbPath)
	if err != nil {
		return fmt.Errorf("failed to open SQLite mirror: %w", err)
	}
	defer store.Close()

	var books []reconcile.Book
	if bookID != "" {
		book, found, err := store.Get(ctx, bookID)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("book %s not found in %s", bookID, dbPath)
		}
		books = append(books, *book)
	} else {
		books, err = store.GetAll(ctx)
		if err != nil {
			return err
		}
		if limit > 0 && len(books) > limit {
			books = books[:limit]
		}
	}

	fmt.Fprintf(w, "Loaded %d rows from %s\n", len(books), dbPath)
	fmt.Fprintln(w, bookTable(books))
	return nil
}

func bookTable(books []reconcile.Book) string {
	rows := make([][]string, 0, len(books))
	for _, b := range books {
		rows = append(rows, []string{
			b.BookID,
			truncate(str(b.Title), 40),
			truncate(str(b.AuthorPrincipal), 24),
			str(b.ISBN13),
			str(b.PubDateISO),
			b.FuenteGanadora,
			b.ValidationFlag,
		})
	}
	return renderTable(
		[]string{"Book ID", "Title", "Author", "ISBN-13", "Published", "Source", "Flag"},
		rows,
		nil,
	)
}

func detailTable(details []emit.DetailRow) string {
	rows := make([][]string, 0, len(details))
	for _, d := range details {
		rows = append(rows, []string{
			d.SourceName,
			truncate(str(d.Title), 40),
			strings.Join(d.Authors, "; "),
			str(d.ISBN10),
			str(d.ISBN13),
			d.ValidationFlag,
			strconv.FormatBool(d.Chosen),
		})
	}
	return renderTable(
		[]string{"Source", "Title", "Authors", "ISBN-10", "ISBN-13", "Flag", "Chosen"},
		rows,
		nil,
	)
}

func str(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
