package exportsvc

import (
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/biru-ka2/Attendify-sub000/core/attendance"
)

type printer struct {
	w     io.Writer
	title *color.Color
	bad   *color.Color
	good  *color.Color
}

func newPrinter(w io.Writer, colored bool) *printer {
	p := &printer{
		w:     w,
		title: color.New(color.FgCyan, color.Bold),
		bad:   color.New(color.FgRed, color.Bold),
		good:  color.New(color.FgGreen),
	}
	if !colored {
		p.title.DisableColor()
		p.bad.DisableColor()
		p.good.DisableColor()
	}
	return p
}

func (p *printer) standing(s string) string {
	if s == attendance.StandingCritical {
		return p.bad.Sprint(s)
	}
	return p.good.Sprint(s)
}

func (p *printer) table(header []string, rows [][]string) {
	table := tablewriter.NewWriter(p.w)
	table.SetHeader(header)
	table.SetAutoFormatHeaders(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.AppendBulk(rows)
	table.Render()
}

func pct(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64) + "%"
}

// WriteText renders st as plain-text tables, for terminals & email bodies.
func WriteText(w io.Writer, st attendance.Statement, colored bool) error {
	p := newPrinter(w, colored)

	_, _ = p.title.Fprintln(w, "Attendance statement")
	_, _ = fmt.Fprintf(w, "Student: %s (%s)\n", st.Student.Name, st.Student.RollNumber)
	if st.Student.Course != "" {
		_, _ = fmt.Fprintf(w, "Course:  %s\n", st.Student.Course)
	}
	_, _ = fmt.Fprintf(w, "Period:  %s\n\n", rangeLabel(st.Range))

	_, _ = p.title.Fprintln(w, "Summary")
	p.table(
		[]string{"Subjects", "Classes", "Present", "Percentage", "Status"},
		[][]string{{
			strconv.Itoa(st.Summary.TotalSubjects),
			strconv.Itoa(st.Summary.TotalClasses),
			strconv.Itoa(st.Summary.TotalPresent),
			pct(st.Summary.OverallPercentage),
			p.standing(st.Summary.Status),
		}},
	)
	if st.CriticalNotice {
		_, _ = p.bad.Fprintln(w, "Attendance is below the required threshold.")
	}

	_, _ = p.title.Fprintln(w, "\nSubjects")
	rows := make([][]string, 0, len(st.PerSubject))
	for _, r := range st.PerSubject {
		rows = append(rows, []string{
			r.Subject, strconv.Itoa(r.Total), strconv.Itoa(r.Present), strconv.Itoa(r.Absent),
			pct(r.Percentage), p.standing(r.Status),
		})
	}
	p.table([]string{"Subject", "Total", "Present", "Absent", "Percentage", "Status"}, rows)

	_, _ = p.title.Fprintln(w, "\nDaily breakdown")
	rows = rows[:0]
	for _, b := range st.DailyBreakdown {
		for _, d := range b.Days {
			rows = append(rows, []string{b.Subject, d.Date, string(d.Status)})
		}
	}
	if len(rows) == 0 {
		_, _ = fmt.Fprintln(w, "No records in this period.")
		return nil
	}
	p.table([]string{"Subject", "Date", "Status"}, rows)
	return nil
}

var heatmapGlyphs = map[attendance.DayStatus]string{
	attendance.DayPresent: "#",
	attendance.DayAbsent:  "x",
	attendance.DayMarked:  "+",
	attendance.DayFuture:  " ",
	attendance.DayNoData:  ".",
}

// WriteHeatmap draws weeks as columns and weekdays as rows.
func WriteHeatmap(w io.Writer, weeks []attendance.Week, colored bool) error {
	p := newPrinter(w, colored)
	weekdays := []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

	_, _ = fmt.Fprint(w, "    ")
	last := ""
	for _, wk := range weeks {
		if wk.Month != last && wk.Month != "" {
			_, _ = fmt.Fprint(w, wk.Month[:1])
			last = wk.Month
		} else {
			_, _ = fmt.Fprint(w, " ")
		}
	}
	_, _ = fmt.Fprintln(w)

	for day := 0; day < 7; day++ {
		_, _ = fmt.Fprintf(w, "%s ", weekdays[day])
		for _, wk := range weeks {
			c := wk.Days[day]
			if c == nil {
				_, _ = fmt.Fprint(w, " ")
				continue
			}
			g := heatmapGlyphs[c.Status]
			switch c.Status {
			case attendance.DayPresent:
				g = p.good.Sprint(g)
			case attendance.DayAbsent:
				g = p.bad.Sprint(g)
			}
			_, _ = fmt.Fprint(w, g)
		}
		_, _ = fmt.Fprintln(w)
	}
	return nil
}
