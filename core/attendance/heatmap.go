package attendance

import "time"

type DayStatus string

const (
	DayPresent DayStatus = "present"
	DayAbsent  DayStatus = "absent"
	DayMarked  DayStatus = "marked" // mixed statuses across subjects
	DayFuture  DayStatus = "future"
	DayNoData  DayStatus = "no-data"
)

// weeks start on Sunday
const weekStart = time.Sunday

type (
	Cell struct {
		Date   string    `json:"date"`
		Day    int       `json:"day"` // day of month
		Status DayStatus `json:"status"`
	}

	// Week is one heatmap column. Days is indexed by weekday; nil slots fall outside the window.
	Week struct {
		Month string   `json:"month"` // short month name of the first filled day
		Start string   `json:"start"` // date of the first filled day
		Days  [7]*Cell `json:"days"`
	}
)

// BuildGrid lays out the windowDays days ending at anchor (inclusive) as Sunday-first weeks.
// Days before the window stay nil; the anchor's week is completed with DayFuture cells.
// Dates missing from statusByDate are DayNoData.
func BuildGrid(statusByDate map[string]DayStatus, windowDays int, anchor string) []Week {
	end, ok := parseDate(anchor)
	if windowDays <= 0 || !ok {
		return []Week{}
	}

	start := end.AddDate(0, 0, -(windowDays - 1))
	weeks := make([]Week, 0, windowDays/7+2)

	var cur [7]*Cell
	filled := false
	flush := func() {
		weeks = append(weeks, newWeek(cur))
		cur = [7]*Cell{}
		filled = false
	}

	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if d.Weekday() == weekStart && filled {
			flush()
		}
		cur[d.Weekday()] = newCell(d, resolveStatus(statusByDate, d, end))
		filled = true
	}
	for d := end.AddDate(0, 0, 1); d.Weekday() != weekStart; d = d.AddDate(0, 0, 1) {
		cur[d.Weekday()] = newCell(d, DayFuture)
	}
	if filled {
		flush()
	}
	return weeks
}

func resolveStatus(statusByDate map[string]DayStatus, d, anchor time.Time) DayStatus {
	if d.After(anchor) {
		return DayFuture
	}
	switch st := statusByDate[formatDate(d)]; st {
	case DayPresent, DayAbsent, DayMarked:
		return st
	default:
		return DayNoData
	}
}

func newCell(d time.Time, st DayStatus) *Cell {
	return &Cell{Date: formatDate(d), Day: d.Day(), Status: st}
}

func newWeek(days [7]*Cell) Week {
	w := Week{Days: days}
	for _, c := range days {
		if c != nil {
			t, _ := parseDate(c.Date)
			w.Month = t.Format("Jan")
			w.Start = c.Date
			break
		}
	}
	return w
}
