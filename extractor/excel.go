package extractor

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/viant/casebot/document"
	"github.com/xuri/excelize/v2"
)

// excelExtractor extracts text from XLSX workbooks, one unit per sheet.
type excelExtractor struct{}

// NewExcel returns an Extractor for XLSX workbooks.
func NewExcel() Extractor {
	return &excelExtractor{}
}

func (s *excelExtractor) Extract(data []byte, meta map[string]string) (document.Units, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty workbook")
	}
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var units document.Units
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil || len(rows) == 0 {
			continue
		}
		header := rows[0]
		var b strings.Builder
		b.WriteString(buildHeaderLine(sheet, header))
		b.WriteByte('\n')
		for i := 1; i < len(rows); i++ {
			rowIdx := i + 1 // Excel rows are 1-based
			b.WriteString(buildRowLine(f, sheet, rowIdx, header, rows[i]))
			b.WriteByte('\n')
		}
		unit := document.NewUnit(b.String(), meta)
		unit.Meta[document.SheetKey] = sheet
		unit.Meta[document.RowRangeKey] = fmt.Sprintf("1-%d", len(rows))
		units = append(units, unit)
	}
	return units, nil
}

func buildHeaderLine(sheet string, header []string) string {
	var b strings.Builder
	b.WriteString("Sheet: ")
	b.WriteString(sheet)
	b.WriteString("\nHeader: ")
	b.WriteString(strings.Join(header, "\t"))
	return b.String()
}

func buildRowLine(f *excelize.File, sheet string, rowIdx int, header []string, row []string) string {
	maxCols := len(header)
	if len(row) > maxCols {
		maxCols = len(row)
	}
	var b strings.Builder
	b.WriteString("Row ")
	b.WriteString(strconv.Itoa(rowIdx))
	b.WriteString(": ")
	for col := 1; col <= maxCols; col++ {
		if col > 1 {
			b.WriteString("\t")
		}
		val := ""
		if col-1 < len(row) {
			val = row[col-1]
		}
		cellRef, _ := excelize.CoordinatesToCellName(col, rowIdx)
		formula, _ := f.GetCellFormula(sheet, cellRef)
		switch {
		case formula != "" && val != "":
			b.WriteString(val)
			b.WriteString(" (f=")
			b.WriteString(formula)
			b.WriteString(")")
		case formula != "":
			b.WriteString("f=")
			b.WriteString(formula)
		default:
			b.WriteString(val)
		}
	}
	return b.String()
}
