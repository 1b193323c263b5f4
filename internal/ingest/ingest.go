// Package ingest reads lead files (CSV, XLSX) into header-mapped records for
// validation. It normalizes headers to the canonical lead field names and
// values to NFC.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"golang.org/x/text/unicode/norm"
)

// headerAliases maps the header spellings seen in exported lead lists to the
// canonical field names validation expects.
var headerAliases = map[string]string{
	"firstname":    "firstName",
	"first name":   "firstName",
	"first_name":   "firstName",
	"lastname":     "lastName",
	"last name":    "lastName",
	"last_name":    "lastName",
	"email":        "email",
	"e-mail":       "email",
	"company":      "company",
	"company name": "company",
	"title":        "title",
	"job title":    "title",
	"jobtitle":     "title",
	"phone":        "phone",
	"phone number": "phone",
	"website":      "website",
	"url":          "website",
	"industry":     "industry",
	"companysize":  "companySize",
	"company size": "companySize",
	"location":     "location",
	"name":         "name",
}

// canonicalHeader maps a raw header to its canonical field name, falling back
// to the trimmed original for unknown columns (they pass through untouched).
func canonicalHeader(h string) string {
	trimmed := strings.TrimSpace(h)
	if canonical, ok := headerAliases[strings.ToLower(trimmed)]; ok {
		return canonical
	}
	return trimmed
}

// mapRow pairs each header with the corresponding value in the row. Rows
// shorter than the header produce empty strings for the missing columns.
func mapRow(headers []string, row []string) map[string]string {
	rec := make(map[string]string, len(headers))
	for i, h := range headers {
		v := ""
		if i < len(row) {
			v = row[i]
		}
		rec[h] = strings.TrimSpace(norm.NFC.String(v))
	}
	return rec
}

// ReadCSV parses CSV lead data from r. The first row is the header; empty
// rows are skipped. Ragged rows are tolerated the same way spreadsheet
// exports produce them.
func ReadCSV(r io.Reader) ([]map[string]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // ragged rows allowed
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "ingest: parse csv")
	}
	if len(records) < 2 {
		return nil, nil // header only or empty
	}

	headers := make([]string, len(records[0]))
	for i, h := range records[0] {
		headers[i] = canonicalHeader(h)
	}

	var out []map[string]string
	for _, row := range records[1:] {
		if isEmptyRow(row) {
			continue
		}
		out = append(out, mapRow(headers, row))
	}
	return out, nil
}

// ReadCSVFile reads a CSV lead file from disk.
func ReadCSVFile(path string) ([]map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("ingest: open csv %s", path))
	}
	defer f.Close() //nolint:errcheck

	return ReadCSV(f)
}

// ReadXLSXFile reads the first sheet of an XLSX lead file. Same header
// contract as ReadCSV.
func ReadXLSXFile(path string) ([]map[string]string, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("ingest: open xlsx %s", path))
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("ingest: xlsx has no sheets")
	}

	sheet := f.Sheets[0]
	if len(sheet.Rows) < 2 {
		return nil, nil
	}

	headers := make([]string, len(sheet.Rows[0].Cells))
	for i, cell := range sheet.Rows[0].Cells {
		headers[i] = canonicalHeader(cell.String())
	}

	var out []map[string]string
	for _, row := range sheet.Rows[1:] {
		cells := make([]string, len(row.Cells))
		for i, cell := range row.Cells {
			cells[i] = cell.String()
		}
		if isEmptyRow(cells) {
			continue
		}
		out = append(out, mapRow(headers, cells))
	}
	return out, nil
}

func isEmptyRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
