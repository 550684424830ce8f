package mergecmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/lehigh-university-libraries/bookmerge/internal/config"
	"github.com/lehigh-university-libraries/bookmerge/internal/emit"
	"github.com/lehigh-university-libraries/bookmerge/internal/googlebooks"
	"github.com/lehigh-university-libraries/bookmerge/internal/source"
)

func executeEnrich(ctx context.Context, cfg *config.Config, output string, limit int) error {
	if ctx == nil {
		ctx = context.Background()
	}

	table, err := source.NewLoader(cfg.ScrapePath(), source.Scrape).Load()
	if err != nil {
		return fmt.Errorf("failed to load scrape export: %w", err)
	}

	list := googlebooks.BooksFromTable(table)
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	if cfg.GoogleBooksAPIKey == "" {
		slog.Warn("No Google Books API key configured, using the anonymous quota")
	}

	client, err := googlebooks.New(ctx, googlebooks.Config{
		APIKey:        cfg.GoogleBooksAPIKey,
		UserAgent:     cfg.UserAgent,
		RateLimit:     cfg.RateLimit(),
		RetryAttempts: cfg.RetryAttempts,
		RetryWait:     cfg.RetryWait(),
	})
	if err != nil {
		return err
	}

	rows, err := client.LookupAll(ctx, list)
	if err != nil {
		return fmt.Errorf("enrichment interrupted after %d of %d books: %w", len(rows), len(list), err)
	}

	if err := emit.WriteAtomic(output, func(w io.Writer) error {
		return googlebooks.WriteCSV(w, rows)
	}); err != nil {
		return fmt.Errorf("failed to write API export: %w", err)
	}

	slog.Info("API export written", "path", output, "rows", len(rows))
	return nil
}
