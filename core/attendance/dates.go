package attendance

import (
	"time"

	"github.com/biru-ka2/Attendify-sub000/core"
)

// Dates are "YYYY-MM-DD" strings; that layout sorts lexicographically in calendar order,
// so range checks compare strings and only calendar stepping parses them.

// DateRange is an inclusive date range. An empty bound is open.
type DateRange struct {
	From string `json:"from,omitempty"`
	To   string `json:"to,omitempty"`
}

// Inverted reports whether From is after To; such a range selects nothing.
func (r DateRange) Inverted() bool {
	return r.From != "" && r.To != "" && r.From > r.To
}

// Contains reports whether date falls within the range.
func (r DateRange) Contains(date string) bool {
	return (r.From == "" || date >= r.From) && (r.To == "" || date <= r.To)
}

func ValidDate(date string) bool {
	return core.IsISODate(date)
}

func parseDate(date string) (time.Time, bool) {
	t, err := time.Parse(core.DateLayout, date)
	return t, err == nil
}

func formatDate(t time.Time) string {
	return t.Format(core.DateLayout)
}

// AddDays returns date shifted by n calendar days, or "" if date is invalid.
func AddDays(date string, n int) string {
	t, ok := parseDate(date)
	if !ok {
		return ""
	}
	return formatDate(t.AddDate(0, 0, n))
}

// DatesBetween returns every calendar date from..to inclusive.
func DatesBetween(from, to string) []string {
	start, ok1 := parseDate(from)
	end, ok2 := parseDate(to)
	if !ok1 || !ok2 || start.After(end) {
		return []string{}
	}

	dates := make([]string, 0, int(end.Sub(start).Hours()/24)+1)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		dates = append(dates, formatDate(d))
	}
	return dates
}

// Today returns the current UTC date.
func Today(now time.Time) string {
	return formatDate(now.UTC())
}
