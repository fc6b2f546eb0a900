package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

const xlsxSheet = "Timetable"

// XLSXExporter renders datasets into a single-sheet workbook.
type XLSXExporter struct{}

// NewXLSXExporter constructs an XLSX exporter.
func NewXLSXExporter() *XLSXExporter {
	return &XLSXExporter{}
}

// Render writes the title on the first row, headers on the next and the body
// below. Banner rows are merged across the day columns.
func (e *XLSXExporter) Render(data Dataset) ([]byte, error) {
	if err := data.validate("xlsx"); err != nil {
		return nil, err
	}
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", xlsxSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	width := len(data.Headers)
	lastCol, err := excelize.ColumnNumberToName(width)
	if err != nil {
		return nil, fmt.Errorf("resolve column: %w", err)
	}
	_ = f.SetColWidth(xlsxSheet, "A", "A", 14)
	if width > 1 {
		_ = f.SetColWidth(xlsxSheet, "B", lastCol, 22)
	}

	boldStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
	})
	if err != nil {
		return nil, fmt.Errorf("create style: %w", err)
	}
	bodyStyle, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
	})
	if err != nil {
		return nil, fmt.Errorf("create style: %w", err)
	}

	row := 1
	if data.Title != "" {
		_ = f.SetCellValue(xlsxSheet, "A1", data.Title)
		_ = f.MergeCell(xlsxSheet, "A1", lastCol+"1")
		_ = f.SetCellStyle(xlsxSheet, "A1", lastCol+"1", boldStyle)
		row++
	}

	for i, header := range data.Headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		_ = f.SetCellValue(xlsxSheet, cell, header)
	}
	first, _ := excelize.CoordinatesToCellName(1, row)
	last, _ := excelize.CoordinatesToCellName(width, row)
	_ = f.SetCellStyle(xlsxSheet, first, last, boldStyle)
	row++

	for _, item := range data.Rows {
		record := item.record(width)
		for i, value := range record {
			cell, _ := excelize.CoordinatesToCellName(i+1, row)
			_ = f.SetCellValue(xlsxSheet, cell, value)
		}
		first, _ := excelize.CoordinatesToCellName(1, row)
		last, _ := excelize.CoordinatesToCellName(width, row)
		if item.Banner != "" && width > 2 {
			start, _ := excelize.CoordinatesToCellName(2, row)
			_ = f.MergeCell(xlsxSheet, start, last)
			_ = f.SetCellStyle(xlsxSheet, first, last, boldStyle)
		} else {
			_ = f.SetCellStyle(xlsxSheet, first, last, bodyStyle)
		}
		row++
	}

	buf := &bytes.Buffer{}
	if err := f.Write(buf); err != nil {
		return nil, fmt.Errorf("render xlsx: %w", err)
	}
	return buf.Bytes(), nil
}
