// Package report renders a month of attendance records as an XLSX workbook.
package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/example/monthly-attendance/internal/attendance"
)

const (
	defaultSheet = "Sheet1"
	absentMark   = "כן"
	totalsLabel  = "סה״כ"
)

var headers = []string{
	"תאריך",
	"מקום עבודה",
	"חיסור",
	"שעת התחלה",
	"שעת סיום",
	"שעות פרונטליות",
	"שעות פרטניות",
	"שעות שהייה",
	"הערות",
}

// Columns of the three duration fields, 1-based.
const (
	colFrontal    = 6
	colIndividual = 7
	colStaying    = 8
)

// SheetName returns the worksheet name used for month.
func SheetName(month attendance.Month) string {
	return month.Key()
}

// WriteMonth writes one right-to-left sheet for month with a row per recorded
// day in date order and a totals row for the duration columns. Absent days
// leave their hour cells empty and add nothing to the totals.
func WriteMonth(w io.Writer, month attendance.Month, days []attendance.DayEntry) (err error) {
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	sheet := SheetName(month)
	if err = f.SetSheetName(defaultSheet, sheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	rtl := true
	if err = f.SetSheetView(sheet, 0, &excelize.ViewOptions{RightToLeft: &rtl}); err != nil {
		return fmt.Errorf("set sheet view: %w", err)
	}

	if err = f.SetSheetRow(sheet, "A1", &headers); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	lastHeader, _ := excelize.CoordinatesToCellName(len(headers), 1)
	if err = f.SetCellStyle(sheet, "A1", lastHeader, bold); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	var frontal, individual, staying int
	for i, entry := range days {
		row := i + 2
		record := entry.Record
		values := []any{month.Date(entry.Day).String(), record.Workplace, "", "", "", "", "", "", record.Comments}
		if record.IsAbsence {
			values[2] = absentMark
		} else {
			values[3] = record.StartHour
			values[4] = record.EndHour
			values[colFrontal-1] = record.FrontalHours
			values[colIndividual-1] = record.IndividualHours
			values[colStaying-1] = record.StayingHours
			frontal += record.FrontalHours
			individual += record.IndividualHours
			staying += record.StayingHours
		}

		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err = f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("write %s: %w", month.Date(entry.Day), err)
		}
	}

	totalsRow := len(days) + 2
	totals := map[int]any{1: totalsLabel, colFrontal: frontal, colIndividual: individual, colStaying: staying}
	for col, value := range totals {
		cell, _ := excelize.CoordinatesToCellName(col, totalsRow)
		if err = f.SetCellValue(sheet, cell, value); err != nil {
			return fmt.Errorf("write totals: %w", err)
		}
	}
	first, _ := excelize.CoordinatesToCellName(1, totalsRow)
	last, _ := excelize.CoordinatesToCellName(len(headers), totalsRow)
	if err = f.SetCellStyle(sheet, first, last, bold); err != nil {
		return fmt.Errorf("style totals: %w", err)
	}

	if err = f.SetColWidth(sheet, "A", "I", 16); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}

	if err = f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
