package export

import (
	"io"
	"time"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Devices"

// WriteXLSX writes a single-sheet workbook with a bold header row and
// an autofilter over the data range.
func WriteXLSX(w io.Writer, meta Meta, rows []Row) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	for col, name := range columns {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheetName, cell, name); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheetName, cell, cell, headerStyle); err != nil {
			return err
		}
	}

	for i, row := range rows {
		for col, value := range row.cells() {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				return err
			}
		}
	}

	last, err := excelize.CoordinatesToCellName(len(columns), len(rows)+1)
	if err != nil {
		return err
	}
	if err := f.AutoFilter(sheetName, "A1:"+last, nil); err != nil {
		return err
	}

	title := "Scan report"
	if meta.Network != "" {
		title += " for " + meta.Network
	}
	if !meta.GeneratedAt.IsZero() {
		title += ", generated " + meta.GeneratedAt.Format(time.RFC3339)
	}
	if err := f.SetDocProps(&excelize.DocProperties{Title: title}); err != nil {
		return err
	}

	return f.Write(w)
}
