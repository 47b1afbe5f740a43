package export

import (
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/spigell/cv-screener/internal/candidate"
)

// SheetName is the worksheet holding the candidates in XLSX exports.
const SheetName = "Candidates"

// numeric columns are written as numbers so they sort in spreadsheets.
var numericColumns = map[string]bool{
	"years_of_experience": true,
	"match_score":         true,
}

// WriteXLSX saves a workbook with a bold header row and one row per candidate.
func WriteXLSX(path string, records []*candidate.Record) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	fields := candidate.Fields()
	header := make([]interface{}, len(fields))
	for i, name := range fields {
		header[i] = name
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	last, err := excelize.CoordinatesToCellName(len(fields), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetName, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	for i, values := range rows(records) {
		row := make([]interface{}, len(values))
		for col, value := range values {
			row[col] = value
			if numericColumns[fields[col]] {
				if n, err := strconv.Atoi(value); err == nil {
					row[col] = n
				}
			}
		}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save xlsx export: %w", err)
	}

	return nil
}
