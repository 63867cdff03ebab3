// Package report serializes export rows into downloadable spreadsheet form.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"
)

// SheetName is the single worksheet in the export workbook.
const SheetName = "Attendance Report"

// columnWidths mirrors the dashboard layout: name, email, registration ID,
// status, timestamp, scanned by, location.
var columnWidths = []float64{20, 30, 20, 10, 20, 15, 15}

// Workbook builds an xlsx workbook from export rows (header included).
func Workbook(rows [][]string) (*excelize.File, error) {
	f := excelize.NewFile()
	index, err := f.NewSheet(SheetName)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, err
		}
		values := make([]any, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return nil, err
		}
	}

	for i, width := range columnWidths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetColWidth(SheetName, col, col, width); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// WriteXLSX streams the workbook for rows into w.
func WriteXLSX(w io.Writer, rows [][]string) error {
	f, err := Workbook(rows)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteTo(w)
	return err
}

// WriteCSV streams rows as CSV into w.
func WriteCSV(w io.Writer, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

// Filename names the download for a given format ("xlsx" or "csv").
func Filename(format string, now time.Time) string {
	ext := "xlsx"
	if format == "csv" {
		ext = "csv"
	}
	return fmt.Sprintf("attendance-report-%s.%s", now.Format("2006-01-02"), ext)
}

// ContentType returns the MIME type for a given format.
func ContentType(format string) string {
	if format == "csv" {
		return "text/csv"
	}
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}
