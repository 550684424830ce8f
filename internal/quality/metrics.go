package quality

import (
	"github.com/lehigh-university-libraries/bookmerge/internal/source"
)

// SourceMetrics describes one raw source table before cleaning.
type SourceMetrics struct {
	RowCount         int                `json:"row_count" yaml:"row_count"`
	NullPercent      map[string]float64 `json:"null_percent" yaml:"null_percent"`
	ValidRowsPercent float64            `json:"valid_rows_percent" yaml:"valid_rows_percent"`
	FlagCounts       map[string]int     `json:"flag_counts" yaml:"flag_counts"`
}

// Report is the quality report of a run. Sources are keyed by source name;
// the remaining fields are cross-source aggregates.
type Report struct {
	Sources                map[source.Name]SourceMetrics
	TotalRows              int
	ValidDatesPercent      float64
	ValidLanguagesPercent  float64
	ValidCurrenciesPercent float64
	// DuplicatesFound is the detail row count minus the canonical row
	// count. It is filled in after reconciliation.
	DuplicatesFound int
}

// Input pairs a raw table with its row validation.
type Input struct {
	Table      *source.Table
	Validation *Validation
}

// Calculate computes the report over the unfiltered tables. It never fails:
// an unparsable value only affects its own row's flag.
func Calculate(inputs ...Input) *Report {
	report := &Report{
		Sources: make(map[source.Name]SourceMetrics, len(inputs)),
	}

	var dates, languages, currencies []float64
	for _, in := range inputs {
		report.Sources[in.Table.Source] = sourceMetrics(in.Table, in.Validation)
		report.TotalRows += len(in.Table.Rows)

		dates = append(dates, columnValidPercent(in, "pub_date", FlagInvalidDate))
		languages = append(languages, columnValidPercent(in, "language", FlagInvalidLanguage))
		currencies = append(currencies, columnValidPercent(in, "price_currency", FlagInvalidCurrency))
	}

	report.ValidDatesPercent = calculateAverage(dates)
	report.ValidLanguagesPercent = calculateAverage(languages)
	report.ValidCurrenciesPercent = calculateAverage(currencies)

	return report
}

// Map flattens the report into the nested mapping that is serialized.
func (r *Report) Map() map[string]any {
	out := map[string]any{
		"total_rows":               r.TotalRows,
		"valid_dates_percent":      r.ValidDatesPercent,
		"valid_languages_percent":  r.ValidLanguagesPercent,
		"valid_currencies_percent": r.ValidCurrenciesPercent,
		"duplicates_found":         r.DuplicatesFound,
	}
	for name, m := range r.Sources {
		out[string(name)] = m
	}
	return out
}

func sourceMetrics(table *source.Table, validation *Validation) SourceMetrics {
	m := SourceMetrics{
		RowCount:    len(table.Rows),
		NullPercent: make(map[string]float64, len(table.Columns)),
		FlagCounts:  make(map[string]int),
	}

	for _, column := range table.Columns {
		missing := 0
		for _, row := range table.Rows {
			if row.Get(column) == nil {
				missing++
			}
		}
		m.NullPercent[column] = percent(missing, len(table.Rows))
	}

	valid := 0
	for _, flag := range validation.Flags() {
		m.FlagCounts[flag]++
		if flag == FlagValid {
			valid++
		}
	}
	m.ValidRowsPercent = percent(valid, len(table.Rows))

	return m
}

// columnValidPercent is the share of rows without issue. Sources that do not
// carry column count as fully valid.
func columnValidPercent(in Input, column, issue string) float64 {
	if !in.Table.Has(column) || len(in.Validation.Checks) == 0 {
		return 100
	}
	ok := 0
	for _, check := range in.Validation.Checks {
		if !check.Has(issue) {
			ok++
		}
	}
	return percent(ok, len(in.Validation.Checks))
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}

// calculateAverage calculates the average of a slice of scores
func calculateAverage(scores []float64) float64 {
	if len(scores) == 0 {
		return 0.0
	}

	sum := 0.0
	for _, score := range scores {
		sum += score
	}

	return sum / float64(len(scores))
}
