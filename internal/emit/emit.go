// Package emit writes the artifacts of a run: the canonical and detail
// parquet tables, the quality report and the schema description.
package emit

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/lehigh-university-libraries/bookmerge/internal/pipeline"
)

// Artifact file names
const (
	DimBookFile = "dim_book.parquet"
	DetailFile  = "book_source_detail.parquet"
	SchemaFile  = "schema.md"
)

// Paths are the locations of the artifacts of one run.
type Paths struct {
	DimBook string
	Detail  string
	Metrics string
	Schema  string
}

// Emitter writes run artifacts below a standard (tables) and a docs
// (report, schema) directory.
type Emitter struct {
	standardDir  string
	docsDir      string
	reportFormat string
}

// New creates an Emitter. reportFormat is FormatJSON or FormatYAML.
func New(standardDir, docsDir, reportFormat string) (*Emitter, error) {
	if reportFormat == "" {
		reportFormat = FormatJSON
	}
	if !ValidFormat(reportFormat) {
		return nil, fmt.Errorf("unsupported report format %q", reportFormat)
	}
	return &Emitter{standardDir: standardDir, docsDir: docsDir, reportFormat: reportFormat}, nil
}

// Paths returns where Emit writes.
func (e *Emitter) Paths() Paths {
	return Paths{
		DimBook: filepath.Join(e.standardDir, DimBookFile),
		Detail:  filepath.Join(e.standardDir, DetailFile),
		Metrics: filepath.Join(e.docsDir, "quality_metrics."+e.reportFormat),
		Schema:  filepath.Join(e.docsDir, SchemaFile),
	}
}

// Emit writes every artifact of out, replacing those of a previous run.
func (e *Emitter) Emit(out *pipeline.Output, runID string) (Paths, error) {
	paths := e.Paths()

	slog.Info("Writing canonical table", "path", paths.DimBook, "rows", len(out.Books))
	if err := WriteParquet(paths.DimBook, out.Books); err != nil {
		return paths, fmt.Errorf("failed to write %s: %w", DimBookFile, err)
	}

	details := NewDetailRows(out.Details)
	slog.Info("Writing detail table", "path", paths.Detail, "rows", len(details))
	if err := WriteParquet(paths.Detail, details); err != nil {
		return paths, fmt.Errorf("failed to write %s: %w", DetailFile, err)
	}

	if err := WriteReport(paths.Metrics, e.reportFormat, out.Report, runID); err != nil {
		return paths, fmt.Errorf("failed to write quality report: %w", err)
	}
	if err := WriteSchema(paths.Schema); err != nil {
		return paths, fmt.Errorf("failed to write schema: %w", err)
	}

	return paths, nil
}
