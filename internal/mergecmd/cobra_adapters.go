package mergecmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/bookmerge/internal/config"
	"github.com/lehigh-university-libraries/bookmerge/internal/logging"
)

// AddPersistentFlags registers the flags shared by every command.
func AddPersistentFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().String("config", "", "Path to a YAML config file (default $BOOKMERGE_CONFIG)")
	cmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error (default from config)")
	cmd.PersistentFlags().Bool("verbose", false, "Verbose logging (same as --log-level debug)")
}

// loadConfig loads the layered config and sets up logging from it.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.LogLevel = level
	}
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		cfg.LogLevel = "debug"
	}
	if _, err := logging.Setup(cfg.LogLevel); err != nil {
		return nil, fmt.Errorf("%w: %v", config.ErrInvalidConfig, err)
	}

	slog.Debug("Loaded config", "standard_dir", cfg.StandardDir, "docs_dir", cfg.DocsDir, "landing_dir", cfg.LandingDir)
	return cfg, nil
}

// NewIntegrateCmd creates the integrate command that runs the merge batch.
func NewIntegrateCmd() *cobra.Command {
	var (
		landingDir      string
		standardDir     string
		docsDir         string
		sqlitePath      string
		metricsTextfile string
		reportFormat    string
		maxNullTitle    float64
	)

	cmd := &cobra.Command{
		Use:   "integrate",
		Short: "Merge the scrape and API exports into the canonical book table",
		Long: `Read the catalog scrape (JSON) and the Google Books export (CSV) from the
landing directory, validate and measure both, deduplicate by ISBN and write:

  <standard>/dim_book.parquet            one row per canonical book
  <standard>/book_source_detail.parquet  every source record with provenance
  <docs>/quality_metrics.json|yaml       quality report
  <docs>/schema.md                       table descriptions

A missing input or a source with too many title-less rows aborts the run
before anything is written.`,
		Example: `  # Run with the default landing/, standard/ and docs/ directories
  bookmerge integrate

  # Write a YAML report and mirror the table into SQLite
  bookmerge integrate --report-format yaml --sqlite ./bookmerge.db`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("landing") {
				cfg.LandingDir = landingDir
			}
			if flags.Changed("standard") {
				cfg.StandardDir = standardDir
			}
			if flags.Changed("docs") {
				cfg.DocsDir = docsDir
			}
			if flags.Changed("sqlite") {
				cfg.SQLitePath = sqlitePath
			}
			if flags.Changed("metrics-textfile") {
				cfg.MetricsTextfile = metricsTextfile
			}
			if flags.Changed("report-format") {
				cfg.ReportFormat = reportFormat
			}
			if flags.Changed("max-null-title-rate") {
				cfg.MaxNullTitleRate = maxNullTitle
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			return executeIntegrate(cmd.Context(), cfg, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&landingDir, "landing", "", "Directory holding the input artifacts")
	cmd.Flags().StringVar(&standardDir, "standard", "", "Output directory for the parquet tables")
	cmd.Flags().StringVar(&docsDir, "docs", "", "Output directory for the quality report and schema")
	cmd.Flags().StringVar(&sqlitePath, "sqlite", "", "Also mirror dim_book into this SQLite database")
	cmd.Flags().StringVar(&metricsTextfile, "metrics-textfile", "", "Write Prometheus run metrics to this file")
	cmd.Flags().StringVar(&reportFormat, "report-format", "", "Quality report format (json or yaml)")
	cmd.Flags().Float64Var(&maxNullTitle, "max-null-title-rate", 0, "Abort when a source has more title-less rows than this fraction")

	return cmd
}

// NewEnrichCmd creates the enrich command that builds the API export.
func NewEnrichCmd() *cobra.Command {
	var output string
	var limit int

	cmd := &cobra.Command{
		Use:   "enrich",
		Short: "Look up scraped books in Google Books and write the API export",
		Long: `Look up every book of the catalog scrape in the Google Books volumes API,
by ISBN first, then by title and author, then by title alone, and write the
matches as the CSV consumed by integrate.

Requests are rate limited (rate_limit_seconds) and retried on server errors
(retry_attempts, retry_wait_seconds). Books nothing matched are written with
the NO_ISBN_GOOGLE_API placeholder.`,
		Example: `  # Enrich the default landing/goodreads_books.json
  GOOGLE_BOOKS_API_KEY=... bookmerge enrich

  # Try the first 5 books only
  bookmerge enrich --limit 5 --output /tmp/sample.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if output == "" {
				output = cfg.APIPath()
			}
			return executeEnrich(cmd.Context(), cfg, output, limit)
		},
	}

	cmd.Flags().StringVar(&output, "output", "", "Output CSV path (default <landing>/<api_file>)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Only enrich the first N books (0 for all)")

	return cmd
}

// NewInspectCmd creates the inspect command for emitted tables.
func NewInspectCmd() *cobra.Command {
	var limit int
	var standardDir string
	var sqlitePath string

	cmd := &cobra.Command{
		Use:   "inspect [dim_book|detail|FILE.parquet|BOOK_ID]",
		Short: "Print rows of an emitted table",
		Args:  cobra.MaximumNArgs(1),
		Example: `  # First 10 canonical books
  bookmerge inspect

  # Detail rows of another output directory
  bookmerge inspect detail --standard /data/standard --limit 0

  # One book from the SQLite mirror
  bookmerge inspect --sqlite data/bookmerge.db 9780441013593`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if sqlitePath != "" {
				bookID := ""
				if len(args) == 1 {
					bookID = args[0]
				}
				return executeInspectSQLite(cmd.Context(), cmd.OutOrStdout(), sqlitePath, bookID, limit)
			}
			if cmd.Flags().Changed("standard") {
				cfg.StandardDir = standardDir
			}
			table := "dim_book"
			if len(args) == 1 {
				table = args[0]
			}
			return executeInspect(cmd.OutOrStdout(), cfg.StandardDir, table, limit)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "Number of rows to print (0 for all)")
	cmd.Flags().StringVar(&standardDir, "standard", "", "Directory holding the parquet tables")
	cmd.Flags().StringVar(&sqlitePath, "sqlite", "", "Read books from this SQLite mirror instead; the argument is a book id")

	return cmd
}

// NewISBNCmd creates the isbn command that checks ISBN-13 checksums.
func NewISBNCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "isbn ISBN13...",
		Short:   "Validate ISBN-13 check digits",
		Args:    cobra.MinimumNArgs(1),
		Example: `  bookmerge isbn 978-0-306-40615-7 9780441013593`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeISBN(cmd.OutOrStdout(), args)
		},
	}
}
