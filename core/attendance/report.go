package attendance

import "sort"

// DefaultCriticalThreshold is the attendance percentage below which a student is in critical standing.
const DefaultCriticalThreshold = 75.0

const (
	StandingSatisfactory = "satisfactory"
	StandingCritical     = "critical"
)

type (
	ReportOptions struct {
		Threshold float64 // DefaultCriticalThreshold when <= 0
	}

	Summary struct {
		TotalSubjects     int     `json:"total_subjects"`
		TotalClasses      int     `json:"total_classes"`
		TotalPresent      int     `json:"total_present"`
		OverallPercentage float64 `json:"overall_percentage"`
		Status            string  `json:"status"`
	}

	SubjectRow struct {
		Subject    string  `json:"subject"`
		Total      int     `json:"total"`
		Present    int     `json:"present"`
		Absent     int     `json:"absent"`
		Percentage float64 `json:"percentage"`
		Status     string  `json:"status"`
	}

	DayRow struct {
		Date   string `json:"date"`
		Status Status `json:"status"`
	}

	SubjectBreakdown struct {
		Subject string   `json:"subject"`
		Days    []DayRow `json:"days"`
	}

	// Report is a student's statement over a date range.
	// Summary & PerSubject reflect all-time standing; only DailyBreakdown is limited to Range.
	Report struct {
		Range          DateRange          `json:"range"`
		Summary        Summary            `json:"summary"`
		PerSubject     []SubjectRow       `json:"per_subject"`
		DailyBreakdown []SubjectBreakdown `json:"daily_breakdown"`
		CriticalNotice bool               `json:"critical_notice"`
	}
)

func (o ReportOptions) threshold() float64 {
	if o.Threshold <= 0 {
		return DefaultCriticalThreshold
	}
	return o.Threshold
}

func standing(percentage, threshold float64) string {
	if percentage < threshold {
		return StandingCritical
	}
	return StandingSatisfactory
}

// BuildReport assembles the statement for rec over rng. It never fails: missing data yields zero rows.
// Subjects default to rec.Subjects() when nil; an open bound of rng is unbounded.
func BuildReport(rec Record, subjects []string, rng DateRange, opts ...ReportOptions) Report {
	var opt ReportOptions
	if len(opts) > 0 {
		opt = opts[0]
	}
	threshold := opt.threshold()
	if subjects == nil {
		subjects = rec.Subjects()
	}

	rows := make([]SubjectRow, 0, len(subjects))
	var sum Summary
	for _, s := range subjects {
		t := rec.SubjectTotals[s]
		absent := t.Total - t.Present
		if absent < 0 {
			absent = 0
		}
		pct := Round1(Percentage(t.Present, t.Total))
		rows = append(rows, SubjectRow{
			Subject:    s,
			Total:      t.Total,
			Present:    t.Present,
			Absent:     absent,
			Percentage: pct,
			Status:     standing(pct, threshold),
		})
		sum.TotalClasses += t.Total
		sum.TotalPresent += t.Present
	}
	sum.TotalSubjects = len(rows)
	sum.OverallPercentage = Round1(Percentage(sum.TotalPresent, sum.TotalClasses))
	sum.Status = standing(sum.OverallPercentage, threshold)

	return Report{
		Range:          rng,
		Summary:        sum,
		PerSubject:     rows,
		DailyBreakdown: breakdown(rec, subjects, rng),
		CriticalNotice: sum.Status == StandingCritical,
	}
}

// breakdown lists the explicitly logged days of each subject within rng, ascending.
// Days without an entry are no-data and never emitted.
func breakdown(rec Record, subjects []string, rng DateRange) []SubjectBreakdown {
	days := make(map[string][]DayRow, len(subjects))
	if !rng.Inverted() {
		for k, st := range rec.Daily {
			if st.Valid() && rng.Contains(k.Date) {
				days[k.Subject] = append(days[k.Subject], DayRow{Date: k.Date, Status: st})
			}
		}
	}

	out := make([]SubjectBreakdown, 0, len(subjects))
	for _, s := range subjects {
		rows := days[s]
		if rows == nil {
			rows = []DayRow{}
		}
		sort.Slice(rows, func(i, j int) bool { return rows[i].Date < rows[j].Date })
		out = append(out, SubjectBreakdown{Subject: s, Days: rows})
	}
	return out
}
