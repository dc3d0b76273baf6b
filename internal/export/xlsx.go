package export

import (
	"unicode/utf8"

	"jira-extract/internal/report"

	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"
)

const (
	headerColor = "0052CC"
	linkColor   = "0563C1"

	minColWidth = 10
	maxColWidth = 50
)

// ToExcel renders rows as a single-sheet workbook. The Epic/Story and Issue key cells link to their
// Jira pages; the URL columns themselves are not written.
func ToExcel(rows report.RowSet, sheetName string) ([]byte, error) {
	if len(rows) == 0 {
		return nil, &ExportError{Format: "Excel", Err: ErrEmpty}
	}
	buf, err := writeWorkbook(rows, SheetName(sheetName))
	if err != nil {
		return nil, &ExportError{Format: "Excel", Err: err}
	}
	log.Info().Int("rows", len(rows)).Msg("Exported rows to Excel with hyperlinks")
	return buf, nil
}

func writeWorkbook(rows report.RowSet, sheet string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{headerColor}},
	})
	if err != nil {
		return nil, err
	}
	linkStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Color: linkColor, Underline: "single"},
	})
	if err != nil {
		return nil, err
	}

	widths := make([]int, len(report.DisplayColumns))
	for i, h := range report.DisplayColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, err
		}
		widths[i] = utf8.RuneCountInString(h)
	}
	last, _ := excelize.CoordinatesToCellName(len(report.DisplayColumns), 1)
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return nil, err
	}

	epicCol := columnIndex(report.ColEpic)
	keyCol := columnIndex(report.ColIssueKey)

	for i, r := range rows {
		rowNum := i + 2
		for j, v := range r.Values() {
			cell, _ := excelize.CoordinatesToCellName(j+1, rowNum)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, err
			}
			widths[j] = max(widths[j], utf8.RuneCountInString(v))
		}
		if r.EpicKey != "" && r.EpicURL != "" {
			if err := setLink(f, sheet, epicCol, rowNum, r.EpicURL, linkStyle); err != nil {
				return nil, err
			}
		}
		if r.IssueURL != "" {
			if err := setLink(f, sheet, keyCol, rowNum, r.IssueURL, linkStyle); err != nil {
				return nil, err
			}
		}
	}

	for i, w := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		width := float64(min(max(w+2, minColWidth), maxColWidth))
		if err := f.SetColWidth(sheet, col, col, width); err != nil {
			return nil, err
		}
	}

	out, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func setLink(f *excelize.File, sheet string, col, row int, url string, style int) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	if err := f.SetCellHyperLink(sheet, cell, url, "External"); err != nil {
		return err
	}
	return f.SetCellStyle(sheet, cell, cell, style)
}

// columnIndex returns the 1-based spreadsheet column of a display header.
func columnIndex(header string) int {
	for i, h := range report.DisplayColumns {
		if h == header {
			return i + 1
		}
	}
	return 0
}
