package emit

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/lehigh-university-libraries/bookmerge/internal/quality"
)

// Report formats
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// ValidFormat reports whether format is a supported report format.
func ValidFormat(format string) bool {
	return format == FormatJSON || format == FormatYAML
}

// WriteReport serializes the quality report as JSON or YAML. Keys are sorted
// by both encoders, so the same report always produces the same bytes.
func WriteReport(path, format string, report *quality.Report, runID string) error {
	if !ValidFormat(format) {
		return fmt.Errorf("unsupported report format %q", format)
	}

	doc := report.Map()
	if runID != "" {
		doc["run_id"] = runID
	}

	return WriteAtomic(path, func(w io.Writer) error {
		switch format {
		case FormatYAML:
			encoder := yaml.NewEncoder(w)
			encoder.SetIndent(2)
			if err := encoder.Encode(doc); err != nil {
				return fmt.Errorf("failed to encode report: %w", err)
			}
			return encoder.Close()
		default:
			encoder := json.NewEncoder(w)
			encoder.SetIndent("", "  ")
			if err := encoder.Encode(doc); err != nil {
				return fmt.Errorf("failed to encode report: %w", err)
			}
			return nil
		}
	})
}
