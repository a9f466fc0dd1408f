// export/csv.go

// Package export writes tabular data as CSV or Excel workbooks, either to a
// writer or as a file download.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
)

// ErrRaggedRow is returned when a row's width differs from the header's.
var ErrRaggedRow = errors.New("export: row width does not match headers")

// Table is a header row plus data rows of the same width.
type Table struct {
	Headers []string
	Rows    [][]string
}

// Validate reports the first row whose width differs from the headers.
func (t Table) Validate() error {
	for i, row := range t.Rows {
		if len(row) != len(t.Headers) {
			return fmt.Errorf("%w: row %d has %d cells, want %d", ErrRaggedRow, i+1, len(row), len(t.Headers))
		}
	}
	return nil
}

// WriteCSV writes t as RFC 4180 CSV with CRLF line endings. Cells that a
// spreadsheet would evaluate as a formula are prefixed with a quote.
func WriteCSV(w io.Writer, t Table) error {
	if err := t.Validate(); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	cw.UseCRLF = true

	if len(t.Headers) > 0 {
		if err := cw.Write(t.Headers); err != nil {
			return err
		}
	}
	record := make([]string, len(t.Headers))
	for _, row := range t.Rows {
		for i, cell := range row {
			record[i] = neutralizeFormula(cell)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ServeCSV writes t as a CSV attachment named filename.
func ServeCSV(w http.ResponseWriter, filename string, t Table) error {
	if err := t.Validate(); err != nil {
		return err
	}
	setDownloadHeaders(w, "text/csv; charset=utf-8", filename)
	return WriteCSV(w, t)
}

func neutralizeFormula(s string) string {
	if s == "" {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r':
		return "'" + s
	}
	return s
}

func setDownloadHeaders(w http.ResponseWriter, contentType, filename string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
		"filename": strings.TrimSpace(filename),
	}))
}
