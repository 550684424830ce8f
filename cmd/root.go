package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/bookmerge/internal/mergecmd"
)

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bookmerge",
		Short: "Merge scraped and Google Books metadata into one canonical book table",
		Long: `Bookmerge integrates a catalog scrape and a Google Books export into a
deduplicated, provenance-tracked book table with quality metrics.

Run "bookmerge enrich" to build the Google Books export from the scrape, then
"bookmerge integrate" to produce dim_book.parquet, the detail table, the
quality report and the schema document.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
		},
		SilenceUsage: true,
	}

	mergecmd.AddPersistentFlags(cmd)

	cmd.AddCommand(mergecmd.NewIntegrateCmd())
	cmd.AddCommand(mergecmd.NewEnrichCmd())
	cmd.AddCommand(mergecmd.NewInspectCmd())
	cmd.AddCommand(mergecmd.NewISBNCmd())

	return cmd
}
