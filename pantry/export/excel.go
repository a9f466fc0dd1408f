// export/excel.go
package export

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

// ExcelContentType is the media type of .xlsx workbooks.
const ExcelContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const (
	minColWidth = 8
	maxColWidth = 80
)

// WriteExcel writes t to w as a single-sheet workbook. The header row is
// bold, shaded and frozen; columns are sized to their longest cell.
func WriteExcel(w io.Writer, sheet string, t Table) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if sheet == "" {
		sheet = "Sheet1"
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("export: rename sheet: %w", err)
	}

	widths := make([]int, len(t.Headers))
	writeRow := func(row int, values []string) error {
		cells := make([]any, len(values))
		for i, v := range values {
			cells[i] = v
			if n := utf8.RuneCountInString(v); n > widths[i] {
				widths[i] = n
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		return f.SetSheetRow(sheet, cell, &cells)
	}

	if len(t.Headers) > 0 {
		if err := writeRow(1, t.Headers); err != nil {
			return fmt.Errorf("export: header row: %w", err)
		}
		if err := styleHeader(f, sheet, len(t.Headers)); err != nil {
			return err
		}
	}
	for i, row := range t.Rows {
		if err := writeRow(i+2, row); err != nil {
			return fmt.Errorf("export: row %d: %w", i+1, err)
		}
	}

	for i, width := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if width < minColWidth {
			width = minColWidth
		}
		if width > maxColWidth {
			width = maxColWidth
		}
		if err := f.SetColWidth(sheet, col, col, float64(width+2)); err != nil {
			return err
		}
	}

	return f.Write(w)
}

// ExcelBytes renders t the way WriteExcel does and returns the workbook.
func ExcelBytes(sheet string, t Table) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteExcel(&buf, sheet, t); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ServeExcel writes t as an .xlsx attachment named filename. The workbook is
// rendered before any header is written so a failure can still become an
// error response.
func ServeExcel(w http.ResponseWriter, filename, sheet string, t Table) error {
	b, err := ExcelBytes(sheet, t)
	if err != nil {
		return err
	}
	setDownloadHeaders(w, ExcelContentType, filename)
	_, err = w.Write(b)
	return err
}

func styleHeader(f *excelize.File, sheet string, cols int) error {
	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "bottom", Color: "#000000", Style: 1},
		},
	})
	if err != nil {
		return fmt.Errorf("export: header style: %w", err)
	}
	end, err := excelize.CoordinatesToCellName(cols, 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", end, style); err != nil {
		return err
	}
	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}
