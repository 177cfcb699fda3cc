package extractor

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/shakinm/xlsReader/xls"
	"github.com/shakinm/xlsReader/xls/structure"
	"github.com/viant/casebot/document"
)

// xlsExtractor extracts text from legacy XLS workbooks, one unit per sheet.
type xlsExtractor struct{}

// NewXLS returns an Extractor for legacy XLS workbooks.
func NewXLS() Extractor {
	return &xlsExtractor{}
}

func (s *xlsExtractor) Extract(data []byte, meta map[string]string) (document.Units, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty workbook")
	}
	wb, err := xls.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	var units document.Units
	for i := 0; i < wb.GetNumberSheets(); i++ {
		sheet, err := wb.GetSheet(i)
		if err != nil || sheet == nil {
			continue
		}
		rows := sheet.GetRows()
		if len(rows) == 0 {
			continue
		}
		header := xlsRowValues(rows[0].GetCols())
		var b strings.Builder
		b.WriteString(buildHeaderLine(sheet.GetName(), header))
		b.WriteByte('\n')
		for r := 1; r < len(rows); r++ {
			b.WriteString(buildRowLineFromValues(r+1, header, xlsRowValues(rows[r].GetCols())))
			b.WriteByte('\n')
		}
		unit := document.NewUnit(b.String(), meta)
		unit.Meta[document.SheetKey] = sheet.GetName()
		unit.Meta[document.RowRangeKey] = fmt.Sprintf("1-%d", len(rows))
		units = append(units, unit)
	}
	return units, nil
}

func xlsRowValues(cols []structure.CellData) []string {
	out := make([]string, 0, len(cols))
	for _, col := range cols {
		val := col.GetString()
		if val == "" {
			if num := col.GetFloat64(); num != 0 {
				val = strconv.FormatFloat(num, 'f', -1, 64)
			} else if in := col.GetInt64(); in != 0 {
				val = strconv.FormatInt(in, 10)
			}
		}
		out = append(out, val)
	}
	return out
}

func buildRowLineFromValues(rowIdx int, header []string, row []string) string {
	maxCols := len(header)
	if len(row) > maxCols {
		maxCols = len(row)
	}
	values := make([]string, maxCols)
	copy(values, row)
	return "Row " + strconv.Itoa(rowIdx) + ": " + strings.Join(values, "\t")
}
