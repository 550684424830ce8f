// Package runmetrics exposes the outcome of a run as Prometheus gauges,
// written to a node-exporter textfile since a batch run has no endpoint to
// scrape.
package runmetrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/lehigh-university-libraries/bookmerge/internal/pipeline"
)

const namespace = "bookmerge"

// Recorder holds the gauges of one run on a private registry.
type Recorder struct {
	registry *prometheus.Registry

	sourceRows       *prometheus.GaugeVec
	sourceValidRatio *prometheus.GaugeVec
	flaggedRows      *prometheus.GaugeVec
	prefilteredRows  prometheus.Gauge
	canonicalRows    prometheus.Gauge
	detailRows       prometheus.Gauge
	duplicatesFound  prometheus.Gauge
	idCollisions     prometheus.Gauge
	runDuration      prometheus.Gauge
	lastSuccess      prometheus.Gauge
}

// New creates a Recorder with all gauges registered.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		sourceRows: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "source_rows",
			Help:      "Raw rows read per source.",
		}, []string{"source"}),
		sourceValidRatio: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "source_valid_ratio",
			Help:      "Fraction of raw rows without a validation issue, per source.",
		}, []string{"source"}),
		flaggedRows: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "source_flagged_rows",
			Help:      "Raw rows per source and validation flag.",
		}, []string{"source", "flag"}),
		prefilteredRows: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "prefiltered_rows",
			Help:      "Records dropped for lacking a title or ISBN-13.",
		}),
		canonicalRows: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "canonical_rows",
			Help:      "Rows in the canonical book table.",
		}),
		detailRows: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "detail_rows",
			Help:      "Rows in the source detail table.",
		}),
		duplicatesFound: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "duplicates_found",
			Help:      "Detail rows minus canonical rows.",
		}),
		idCollisions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "id_collisions",
			Help:      "Canonical books dropped because their id was already taken.",
		}),
		runDuration: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of the last run.",
		}),
		lastSuccess: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run.",
		}),
	}
}

// Record sets every gauge from the output of a successful run.
func (r *Recorder) Record(out *pipeline.Output, duration time.Duration, finished time.Time) {
	for name, m := range out.Report.Sources {
		src := string(name)
		r.sourceRows.WithLabelValues(src).Set(float64(m.RowCount))
		r.sourceValidRatio.WithLabelValues(src).Set(m.ValidRowsPercent / 100)
		for flag, n := range m.FlagCounts {
			r.flaggedRows.WithLabelValues(src, flag).Set(float64(n))
		}
	}
	r.prefilteredRows.Set(float64(out.Prefiltered))
	r.canonicalRows.Set(float64(len(out.Books)))
	r.detailRows.Set(float64(len(out.Details)))
	r.duplicatesFound.Set(float64(out.Report.DuplicatesFound))
	r.idCollisions.Set(float64(out.Collisions))
	r.runDuration.Set(duration.Seconds())
	r.lastSuccess.Set(float64(finished.Unix()))
}

// Registry returns the registry the gauges live on.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// WriteTextfile writes the gauges in the text exposition format. The file
// is replaced atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
