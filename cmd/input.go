package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"

	"github.com/sells-group/outbound-cli/internal/ingest"
)

// loadRecords reads lead records from a CSV or XLSX path. Exactly one of
// the two must be set.
func loadRecords(csvPath, xlsxPath string) ([]map[string]string, error) {
	switch {
	case csvPath != "" && xlsxPath != "":
		return nil, eris.New("--csv and --xlsx are mutually exclusive")
	case csvPath != "":
		return ingest.ReadCSVFile(csvPath)
	case xlsxPath != "":
		return ingest.ReadXLSXFile(xlsxPath)
	default:
		return nil, eris.New("--csv or --xlsx is required")
	}
}

// writeJSONOutput writes v as indented JSON to path, or stdout when path is
// empty.
func writeJSONOutput(v any, path string) error {
	w := os.Stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return eris.Wrap(err, "create output file")
		}
		defer f.Close() //nolint:errcheck
		w = f
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
