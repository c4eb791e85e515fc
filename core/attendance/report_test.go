package attendance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildReport(t *testing.T) {
	rec := osRecord()
	rec.Daily[key("OS", "2025-07-30")] = StatusAbsent
	mustMark(t, &rec, "CN", "2025-07-12", "2025-07-13", "2025-07-14")
	require.NoError(t, Verify(rec))

	rng := DateRange{From: "2025-07-13", To: "2025-07-20"}
	got := BuildReport(rec, nil, rng)

	assert.Equal(t, rng, got.Range)
	assert.Equal(t, Summary{
		TotalSubjects:     2,
		TotalClasses:      48,
		TotalPresent:      12,
		OverallPercentage: 25.0,
		Status:            StandingCritical,
	}, got.Summary)
	assert.True(t, got.CriticalNotice)

	assert.Equal(t, []SubjectRow{
		{Subject: "OS", Total: 45, Present: 9, Absent: 36, Percentage: 20.0, Status: StandingCritical},
		{Subject: "CN", Total: 3, Present: 3, Absent: 0, Percentage: 100, Status: StandingSatisfactory},
	}, got.PerSubject)

	assert.Equal(t, []SubjectBreakdown{
		{Subject: "OS", Days: []DayRow{
			{Date: "2025-07-13", Status: StatusPresent},
			{Date: "2025-07-19", Status: StatusPresent},
			{Date: "2025-07-20", Status: StatusPresent},
		}},
		{Subject: "CN", Days: []DayRow{
			{Date: "2025-07-13", Status: StatusPresent},
			{Date: "2025-07-14", Status: StatusPresent},
		}},
	}, got.DailyBreakdown)
}

func TestBuildReport_breakdownBounds(t *testing.T) {
	rec := osRecord()
	rec.Daily[key("OS", "2025-07-30")] = StatusAbsent

	tests := []struct {
		name string
		rng  DateRange
		want []string
	}{
		{name: "open", rng: DateRange{}, want: []string{
			"2025-07-12", "2025-07-13", "2025-07-19", "2025-07-20", "2025-07-22",
			"2025-07-23", "2025-07-24", "2025-07-25", "2025-07-26", "2025-07-30",
		}},
		{name: "from only", rng: DateRange{From: "2025-07-26"}, want: []string{"2025-07-26", "2025-07-30"}},
		{name: "to only", rng: DateRange{To: "2025-07-12"}, want: []string{"2025-07-12"}},
		{name: "inverted", rng: DateRange{From: "2025-07-26", To: "2025-07-12"}, want: []string{}},
		{name: "no entries", rng: DateRange{From: "2025-08-01", To: "2025-08-31"}, want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildReport(rec, nil, tt.rng)
			require.Len(t, got.DailyBreakdown, 1)
			dates := make([]string, 0)
			for _, d := range got.DailyBreakdown[0].Days {
				dates = append(dates, d.Date)
			}
			assert.Equal(t, tt.want, dates)
			// lifetime rows are unaffected by the range
			assert.Equal(t, 9, got.PerSubject[0].Present)
			assert.Equal(t, 9, got.Summary.TotalPresent)
		})
	}
}

func TestBuildReport_standing(t *testing.T) {
	tests := []struct {
		name      string
		tally     Tally
		threshold float64
		want      string
	}{
		{name: "exactly at threshold", tally: Tally{Present: 3, Total: 4}, want: StandingSatisfactory},
		{name: "just below", tally: Tally{Present: 74, Total: 100}, want: StandingCritical},
		{name: "no classes", tally: Tally{}, want: StandingCritical},
		{name: "custom threshold", tally: Tally{Present: 3, Total: 5}, threshold: 60, want: StandingSatisfactory},
		{name: "custom threshold below", tally: Tally{Present: 3, Total: 5}, threshold: 65, want: StandingCritical},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := NewRecord("s1", testNow)
			rec.SubjectTotals["OS"] = tt.tally
			rec = RecomputeOverall(rec)

			got := BuildReport(rec, nil, DateRange{}, ReportOptions{Threshold: tt.threshold})
			assert.Equal(t, tt.want, got.Summary.Status)
			assert.Equal(t, tt.want, got.PerSubject[0].Status)
			assert.Equal(t, tt.want == StandingCritical, got.CriticalNotice)
		})
	}
}

func TestBuildReport_summaryConsistency(t *testing.T) {
	rec := NewRecord("s1", testNow)
	for i, s := range []string{"OS", "CN", "DBMS", "AI"} {
		for _, d := range DatesBetween("2025-07-01", AddDays("2025-07-01", i*3)) {
			mustMark(t, &rec, s, d)
		}
		tl := rec.SubjectTotals[s]
		tl.Total += i * 2
		rec.SubjectTotals[s] = tl
	}
	rec = RecomputeOverall(rec)
	require.NoError(t, Verify(rec))

	for _, subjects := range [][]string{nil, {"OS"}, {"CN", "AI"}, {"ghost"}, {}} {
		got := BuildReport(rec, subjects, DateRange{From: "2025-07-03", To: "2025-07-05"})

		var present, total int
		for _, row := range got.PerSubject {
			present += row.Present
			total += row.Total
			assert.GreaterOrEqual(t, row.Absent, 0)
		}
		assert.Equal(t, present, got.Summary.TotalPresent)
		assert.Equal(t, total, got.Summary.TotalClasses)
		assert.Equal(t, len(got.PerSubject), got.Summary.TotalSubjects)
		assert.Equal(t, got.Summary.OverallPercentage < DefaultCriticalThreshold, got.Summary.Status == StandingCritical)
		assert.Len(t, got.DailyBreakdown, len(got.PerSubject))
	}
}

func TestBuildReport_empty(t *testing.T) {
	got := BuildReport(NewRecord("s1", testNow), nil, DateRange{From: "2025-07-01", To: "2025-07-31"})
	assert.Equal(t, Summary{Status: StandingCritical}, got.Summary)
	assert.Empty(t, got.PerSubject)
	assert.Empty(t, got.DailyBreakdown)
	assert.True(t, got.CriticalNotice)
}
