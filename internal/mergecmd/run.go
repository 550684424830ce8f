package mergecmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/lehigh-university-libraries/bookmerge/internal/config"
	"github.com/lehigh-university-libraries/bookmerge/internal/emit"
	"github.com/lehigh-university-libraries/bookmerge/internal/pipeline"
	"github.com/lehigh-university-libraries/bookmerge/internal/runmetrics"
	"github.com/lehigh-university-libraries/bookmerge/internal/source"
	"github.com/lehigh-university-libraries/bookmerge/internal/storage"
)

func executeIntegrate(ctx context.Context, cfg *config.Config, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	start := time.Now()
	runID := uuid.NewString()
	previous := slog.Default()
	slog.SetDefault(previous.With("run_id", runID))
	defer slog.SetDefault(previous)

	slog.Info("Starting integration run", "scrape", cfg.ScrapePath(), "api", cfg.APIPath())

	// Both inputs are read before anything is written
	scrape, err := source.NewLoader(cfg.ScrapePath(), source.Scrape).Load()
	if err != nil {
		return fmt.Errorf("failed to load scrape export: %w", err)
	}
	api, err := source.NewLoader(cfg.APIPath(), source.API).Load()
	if err != nil {
		return fmt.Errorf("failed to load API export: %w", err)
	}
	slog.Info("Sources loaded", "scrape_rows", len(scrape.Rows), "api_rows", len(api.Rows))

	result, err := pipeline.Run(pipeline.Inputs{Scrape: scrape, API: api}, pipeline.Options{
		MaxNullTitleRate: cfg.MaxNullTitleRate,
	})
	if err != nil {
		return err
	}

	emitter, err := emit.New(cfg.StandardDir, cfg.DocsDir, cfg.ReportFormat)
	if err != nil {
		return err
	}

	lock, err := emit.Lock(cfg.StandardDir)
	if err != nil {
		return err
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			slog.Warn("Failed to release output lock", "error", err)
		}
	}()

	paths, err := emitter.Emit(result, runID)
	if err != nil {
		return err
	}

	mirrored := 0
	if cfg.SQLitePath != "" {
		if mirrored, err = mirrorToSQLite(ctx, cfg.SQLitePath, runID, result); err != nil {
			return err
		}
	}

	if cfg.MetricsTextfile != "" {
		recorder := runmetrics.New()
		recorder.Record(result, time.Since(start), time.Now())
		if err := recorder.WriteTextfile(cfg.MetricsTextfile); err != nil {
			return err
		}
	}

	slog.Info("Integration run finished", "duration", time.Since(start).String())
	printSummary(out, runID, result, paths)
	if cfg.SQLitePath != "" {
		fmt.Fprintf(out, "sqlite:    %s (%d rows)\n", cfg.SQLitePath, mirrored)
	}
	return nil
}

// mirrorToSQLite replaces the mirrored table and returns its row count as
// read back from the database.
func mirrorToSQLite(ctx context.Context, path, runID string, result *pipeline.Output) (int, error) {
	store, err := storage.Open(ctx, path)
	if err != nil {
		return 0, fmt.Errorf("failed to open SQLite mirror: %w", err)
	}
	defer store.Close()

	if err := store.ReplaceBooks(ctx, runID, result.Books); err != nil {
		return 0, fmt.Errorf("failed to mirror dim_book: %w", err)
	}
	n, err := store.Count(ctx)
	if err != nil {
		return 0, err
	}
	if n != len(result.Books) {
		return n, fmt.Errorf("SQLite mirror holds %d rows, expected %d", n, len(result.Books))
	}
	slog.Info("Mirrored canonical table", "path", store.Path(), "rows", n)
	return n, nil
}
