// Package report renders computation results as spreadsheets.
package report

import (
	"errors"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/warp/shift-allowance/allowance"
	"github.com/warp/shift-allowance/calendar"
)

const (
	SummarySheet = "Summary"
	timeLayout   = "15:04"
)

var (
	summaryHeader = []any{"Month", "Eligible Hours", "Progress %", "Tier", "Hours To Half", "Hours To Full", "CO Days"}
	detailHeader  = []any{"Date", "Start", "End", "Hours", "Description"}
)

// WriteXLSX writes a workbook with a Summary sheet (one row per assessment)
// and one sheet per month listing its day pieces. Month sheets are named
// YYYY-MM.
func WriteXLSX(w io.Writer, result allowance.ComputeResult, assessments []allowance.Assessment) error {
	if len(result.Day) != len(result.Month) {
		return errors.New("result has misaligned month and day lists")
	}

	wb := excelize.NewFile()
	defer wb.Close()

	if err := wb.SetSheetName("Sheet1", SummarySheet); err != nil {
		return err
	}
	bold, err := wb.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	if err := writeSummary(wb, assessments, bold); err != nil {
		return err
	}
	for i, month := range result.Month {
		name := calendar.MonthKey(month.Start)
		if i < len(assessments) {
			name = assessments[i].Month
		}
		if err := writeMonth(wb, name, month, result.Day[i], bold); err != nil {
			return fmt.Errorf("month %s: %w", name, err)
		}
	}

	wb.SetActiveSheet(0)
	_, err = wb.WriteTo(w)
	return err
}

func writeSummary(wb *excelize.File, assessments []allowance.Assessment, bold int) error {
	if err := wb.SetSheetRow(SummarySheet, "A1", &summaryHeader); err != nil {
		return err
	}
	if err := wb.SetCellStyle(SummarySheet, "A1", "G1", bold); err != nil {
		return err
	}
	for i, a := range assessments {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{
			a.Month,
			a.Hours.InexactFloat64(),
			a.Progress.InexactFloat64(),
			string(a.Tier),
			a.HoursToHalf.InexactFloat64(),
			a.HoursToFull.InexactFloat64(),
			a.EarnedCO,
		}
		if err := wb.SetSheetRow(SummarySheet, cell, &row); err != nil {
			return err
		}
	}
	return wb.SetColWidth(SummarySheet, "A", "G", 15)
}

func writeMonth(wb *excelize.File, name string, month allowance.Detail, pieces []allowance.Detail, bold int) error {
	if _, err := wb.NewSheet(name); err != nil {
		return err
	}
	if err := wb.SetSheetRow(name, "A1", &detailHeader); err != nil {
		return err
	}
	if err := wb.SetCellStyle(name, "A1", "E1", bold); err != nil {
		return err
	}

	rowNum := 2
	for _, p := range pieces {
		cell, err := excelize.CoordinatesToCellName(1, rowNum)
		if err != nil {
			return err
		}
		row := []any{
			calendar.DateOf(p.Start).String(),
			p.Start.Format(timeLayout),
			endClock(p),
			p.Hours.InexactFloat64(),
			p.Description,
		}
		if err := wb.SetSheetRow(name, cell, &row); err != nil {
			return err
		}
		rowNum++
	}

	total := []any{"Total", nil, nil, month.Hours.InexactFloat64()}
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return err
	}
	if err := wb.SetSheetRow(name, cell, &total); err != nil {
		return err
	}
	last, _ := excelize.CoordinatesToCellName(4, rowNum)
	if err := wb.SetCellStyle(name, cell, last, bold); err != nil {
		return err
	}
	return wb.SetColWidth(name, "E", "E", 30)
}

// endClock prints a piece ending on the next midnight as 24:00.
func endClock(p allowance.Detail) string {
	if !calendar.SameDate(p.Start, p.End) && p.End.Equal(calendar.NextMidnight(p.Start)) {
		return "24:00"
	}
	return p.End.Format(timeLayout)
}
