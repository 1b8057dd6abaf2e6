// Package export renders tabular reports as Excel workbooks.
package export

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"
)

const ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var ErrGenerateFailed = errors.New("failed to generate spreadsheet")

// Table is a single-sheet report: a merged title row, a header row, then data.
type Table struct {
	Sheet   string
	Title   string
	Headers []string
	Widths  []float64 // optional, per column
	Rows    [][]interface{}
}

// WriteXLSX renders t into an in-memory workbook.
func WriteXLSX(t Table) (*bytes.Buffer, error) {
	if len(t.Headers) == 0 {
		return nil, fmt.Errorf("%w: no columns", ErrGenerateFailed)
	}
	sheet := t.Sheet
	if sheet == "" {
		sheet = "Report"
	}

	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(sheet)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenerateFailed, err)
	}
	f.SetActiveSheet(idx)
	if sheet != "Sheet1" {
		f.DeleteSheet("Sheet1")
	}

	lastCol := colName(len(t.Headers))
	for i, w := range t.Widths {
		col := colName(i + 1)
		f.SetColWidth(sheet, col, col, w)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 13},
	})

	row := 1
	if t.Title != "" {
		f.SetCellValue(sheet, cell("A", row), t.Title)
		f.MergeCell(sheet, cell("A", row), cell(lastCol, row))
		f.SetCellStyle(sheet, cell("A", row), cell("A", row), titleStyle)
		row++
	}

	for i, h := range t.Headers {
		f.SetCellValue(sheet, cell(colName(i+1), row), h)
	}
	f.SetCellStyle(sheet, cell("A", row), cell(lastCol, row), headerStyle)
	row++

	for _, r := range t.Rows {
		for i, v := range r {
			f.SetCellValue(sheet, cell(colName(i+1), row), v)
		}
		row++
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenerateFailed, err)
	}
	return buf, nil
}

func colName(n int) string {
	name, _ := excelize.ColumnNumberToName(n)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
