package exportsvc

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/biru-ka2/Attendify-sub000/core/attendance"
)

const (
	XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	sheetSummary  = "Summary"
	sheetSubjects = "Subjects"
	sheetDaily    = "Daily"
)

// StatementFilename returns the download name of a statement document with the given extension.
func StatementFilename(st attendance.Statement, ext string) string {
	return fmt.Sprintf("attendance-%s-%s.%s", st.Student.Ref, st.GeneratedAt.Format("20060102"), ext)
}

func rangeLabel(rng attendance.DateRange) string {
	from, to := rng.From, rng.To
	if from == "" {
		from = "beginning"
	}
	if to == "" {
		to = "today"
	}
	return from + " to " + to
}

// WriteXLSX renders st as a workbook with one sheet per statement section.
func WriteXLSX(w io.Writer, st attendance.Statement) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return errors.Wrap(err, "creating header style")
	}
	critical, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Color: "C00000"}})
	if err != nil {
		return errors.Wrap(err, "creating critical style")
	}

	if err := f.SetSheetName("Sheet1", sheetSummary); err != nil {
		return errors.Wrap(err, "naming summary sheet")
	}
	summary := [][]interface{}{
		{"Name", st.Student.Name},
		{"Roll number", st.Student.RollNumber},
		{"Course", st.Student.Course},
		{"Period", rangeLabel(st.Range)},
		{"Generated at", st.GeneratedAt.Format("2006-01-02 15:04 MST")},
		{},
		{"Total subjects", st.Summary.TotalSubjects},
		{"Total classes", st.Summary.TotalClasses},
		{"Total present", st.Summary.TotalPresent},
		{"Overall percentage", st.Summary.OverallPercentage},
		{"Status", st.Summary.Status},
	}
	if err := writeRows(f, sheetSummary, summary); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheetSummary, "A1", "A11", bold); err != nil {
		return errors.Wrap(err, "styling summary sheet")
	}
	if st.CriticalNotice {
		if err := f.SetCellStyle(sheetSummary, "B11", "B11", critical); err != nil {
			return errors.Wrap(err, "styling summary sheet")
		}
	}

	if _, err := f.NewSheet(sheetSubjects); err != nil {
		return errors.Wrap(err, "creating subjects sheet")
	}
	rows := [][]interface{}{{"Subject", "Total", "Present", "Absent", "Percentage", "Status"}}
	for _, r := range st.PerSubject {
		rows = append(rows, []interface{}{r.Subject, r.Total, r.Present, r.Absent, r.Percentage, r.Status})
	}
	if err := writeRows(f, sheetSubjects, rows); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheetSubjects, "A1", "F1", bold); err != nil {
		return errors.Wrap(err, "styling subjects sheet")
	}
	for i, r := range st.PerSubject {
		if r.Status != attendance.StandingCritical {
			continue
		}
		cell, _ := excelize.CoordinatesToCellName(6, i+2)
		if err := f.SetCellStyle(sheetSubjects, cell, cell, critical); err != nil {
			return errors.Wrap(err, "styling subjects sheet")
		}
	}

	if _, err := f.NewSheet(sheetDaily); err != nil {
		return errors.Wrap(err, "creating daily sheet")
	}
	rows = [][]interface{}{{"Subject", "Date", "Status"}}
	for _, b := range st.DailyBreakdown {
		for _, d := range b.Days {
			rows = append(rows, []interface{}{b.Subject, d.Date, string(d.Status)})
		}
	}
	if err := writeRows(f, sheetDaily, rows); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheetDaily, "A1", "C1", bold); err != nil {
		return errors.Wrap(err, "styling daily sheet")
	}

	if err := f.Write(w); err != nil {
		return errors.Wrap(err, "writing workbook")
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return errors.Wrap(err, "addressing cell")
		}
		row := row
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return errors.Wrapf(err, "writing %s row %d", sheet, i+1)
		}
	}
	return nil
}
