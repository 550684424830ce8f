// Package pipeline runs one integration: raw source tables in, canonical
// books, detail rows and the quality report out. It performs no I/O.
package pipeline

import (
	"errors"
	"log/slog"
	"time"

	"github.com/lehigh-university-libraries/bookmerge/internal/quality"
	"github.com/lehigh-university-libraries/bookmerge/internal/reconcile"
	"github.com/lehigh-university-libraries/bookmerge/internal/source"
)

// Inputs are the two raw source tables of a run.
type Inputs struct {
	Scrape *source.Table
	API    *source.Table
}

// Options tunes a run.
type Options struct {
	// MaxNullTitleRate is the null-title fraction above which a source is
	// rejected. Zero means quality.DefaultMaxNullTitleRate.
	MaxNullTitleRate float64
	// IngestedAt stamps every record of the run. Zero means time.Now().
	IngestedAt time.Time
}

// DetailRow is one pre-merge source record as it appears in the detail
// table.
type DetailRow struct {
	Record source.Record
	// Raw is the untouched source row.
	Raw    source.Row
	Chosen bool
}

// Output is everything a run produces.
type Output struct {
	Books   []reconcile.Book
	Details []DetailRow
	Report  *quality.Report

	// Prefiltered counts records dropped for lacking a title or ISBN-13.
	Prefiltered int
	// Collisions counts canonical books dropped for a duplicate id.
	Collisions int
}

// ErrMissingTable is returned when a run is started without both tables.
var ErrMissingTable = errors.New("both source tables are required")

// Run executes the integration. The null-title precondition is checked
// before anything else so that a rejected run produces no output at all.
func Run(in Inputs, opts Options) (*Output, error) {
	if in.Scrape == nil || in.API == nil {
		return nil, ErrMissingTable
	}

	maxRate := opts.MaxNullTitleRate
	if maxRate <= 0 {
		maxRate = quality.DefaultMaxNullTitleRate
	}
	ingestedAt := opts.IngestedAt
	if ingestedAt.IsZero() {
		ingestedAt = time.Now()
	}
	ingestedAt = ingestedAt.UTC()

	tables := []*source.Table{in.Scrape, in.API}
	for _, t := range tables {
		if err := quality.CheckNullTitles(t, maxRate); err != nil {
			return nil, err
		}
	}

	// Metrics are computed over the unfiltered tables
	inputs := make([]quality.Input, 0, len(tables))
	var records []source.Record
	var raws []source.Row
	for _, t := range tables {
		validation := quality.Validate(t)
		inputs = append(inputs, quality.Input{Table: t, Validation: validation})
		records = append(records, t.Records(ingestedAt, validation.Flags())...)
		raws = append(raws, t.Rows...)
	}
	report := quality.Calculate(inputs...)

	kept, dropped := prefilter(records, raws)
	slog.Info("Pre-filtered source records", "kept", len(kept), "dropped", dropped)

	keptRecords := make([]source.Record, len(kept))
	for i, d := range kept {
		keptRecords[i] = d.Record
	}

	result := reconcile.Reconcile(keptRecords)
	for i, chosen := range reconcile.MarkChosen(keptRecords, result.Books) {
		kept[i].Chosen = chosen
	}

	report.DuplicatesFound = len(kept) - len(result.Books)

	slog.Info("Integration complete",
		"canonical_rows", len(result.Books),
		"detail_rows", len(kept),
		"duplicates_found", report.DuplicatesFound)

	return &Output{
		Books:       result.Books,
		Details:     kept,
		Report:      report,
		Prefiltered: dropped,
		Collisions:  result.Collisions,
	}, nil
}

// prefilter keeps the eligible records paired with their raw rows. Table.Records
// yields one record per row, so records and raws share indexes.
func prefilter(records []source.Record, raws []source.Row) ([]DetailRow, int) {
	out := make([]DetailRow, 0, len(records))
	for i := range records {
		if reconcile.Eligible(&records[i]) {
			out = append(out, DetailRow{Record: records[i], Raw: raws[i]})
		}
	}
	return out, len(records) - len(out)
}
