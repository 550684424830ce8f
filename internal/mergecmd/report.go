package mergecmd

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/lehigh-university-libraries/bookmerge/internal/emit"
	"github.com/lehigh-university-libraries/bookmerge/internal/pipeline"
	"github.com/lehigh-university-libraries/bookmerge/internal/quality"
	"github.com/lehigh-university-libraries/bookmerge/internal/source"
)

func printSummary(w io.Writer, runID string, result *pipeline.Output, paths emit.Paths) {
	report := result.Report

	fmt.Fprintln(w, "\n========================================")
	fmt.Fprintln(w, "Integration Summary")
	fmt.Fprintln(w, "========================================")
	fmt.Fprintf(w, "Run ID:             %s\n", runID)
	fmt.Fprintf(w, "Raw rows:           %d\n", report.TotalRows)
	fmt.Fprintf(w, "Pre-filtered:       %d\n", result.Prefiltered)
	fmt.Fprintf(w, "Detail rows:        %d\n", len(result.Details))
	fmt.Fprintf(w, "Canonical books:    %d\n", len(result.Books))
	fmt.Fprintf(w, "Duplicates found:   %d\n", report.DuplicatesFound)
	if result.Collisions > 0 {
		fmt.Fprintf(w, "Id collisions:      %d\n", result.Collisions)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Valid dates:        %.2f%%\n", report.ValidDatesPercent)
	fmt.Fprintf(w, "Valid languages:    %.2f%%\n", report.ValidLanguagesPercent)
	fmt.Fprintf(w, "Valid currencies:   %.2f%%\n", report.ValidCurrenciesPercent)
	fmt.Fprintln(w)

	fmt.Fprintln(w, sourceTable(report))
	fmt.Fprintln(w)

	fmt.Fprintf(w, "dim_book:  %s\n", paths.DimBook)
	fmt.Fprintf(w, "detail:    %s\n", paths.Detail)
	fmt.Fprintf(w, "metrics:   %s\n", paths.Metrics)
	fmt.Fprintf(w, "schema:    %s\n", paths.Schema)
}

// sourceTable renders one row per source: size, valid share and flag counts.
func sourceTable(report *quality.Report) string {
	names := make([]string, 0, len(report.Sources))
	for name := range report.Sources {
		names = append(names, string(name))
	}
	sort.Strings(names)

	rows := make([][]string, 0, len(names))
	for _, name := range names {
		m := report.Sources[source.Name(name)]
		rows = append(rows, []string{
			name,
			fmt.Sprintf("%d", m.RowCount),
			fmt.Sprintf("%.2f%%", m.ValidRowsPercent),
			formatFlags(m.FlagCounts),
		})
	}

	return renderTable(
		[]string{"Source", "Rows", "Valid", "Flags"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignRight, alignLeft},
	)
}

func formatFlags(counts map[string]int) string {
	var flags []string
	for flag := range counts {
		if flag != quality.FlagValid {
			flags = append(flags, flag)
		}
	}
	if len(flags) == 0 {
		return "-"
	}
	sort.Strings(flags)

	parts := make([]string, len(flags))
	for i, flag := range flags {
		parts[i] = fmt.Sprintf("%s=%d", flag, counts[flag])
	}
	return strings.Join(parts, " ")
}
