package attendance

import "sort"

// SubjectView is one subject's attendance seen through a date range.
// Present and Dates are range-limited; Total is the subject's all-time total.
type SubjectView struct {
	Subject    string   `json:"subject"`
	Present    int      `json:"present"`
	Total      int      `json:"total"`
	Percentage float64  `json:"percentage"`
	Dates      []string `json:"dates"` // present dates within the range, ascending
}

// Project derives a per-subject view of rec limited to rng.
// Only the present side is narrowed by the range. An inverted range yields views with nothing present.
// Subjects default to rec.Subjects() when nil.
func Project(rec Record, subjects []string, rng DateRange) []SubjectView {
	if subjects == nil {
		subjects = rec.Subjects()
	}

	dates := make(map[string][]string, len(subjects))
	if !rng.Inverted() {
		for k, st := range rec.Daily {
			if st == StatusPresent && rng.Contains(k.Date) {
				dates[k.Subject] = append(dates[k.Subject], k.Date)
			}
		}
	}

	views := make([]SubjectView, 0, len(subjects))
	for _, s := range subjects {
		ds := dates[s]
		if ds == nil {
			ds = []string{}
		}
		sort.Strings(ds)
		total := rec.SubjectTotals[s].Total
		views = append(views, SubjectView{
			Subject:    s,
			Present:    len(ds),
			Total:      total,
			Percentage: Round1(Percentage(len(ds), total)),
			Dates:      ds,
		})
	}
	return views
}

// Totals sums projected views into an overall (present, total, percentage).
func Totals(views []SubjectView) (present, total int, percentage float64) {
	for _, v := range views {
		present += v.Present
		total += v.Total
	}
	return present, total, Round1(Percentage(present, total))
}

// DailyStatuses collapses rec's daily log into one status per date for the given subjects within rng.
// A date is DayPresent or DayAbsent when every entry on it agrees, DayMarked otherwise.
// Subjects default to all subjects when nil.
func DailyStatuses(rec Record, subjects []string, rng DateRange) map[string]DayStatus {
	out := make(map[string]DayStatus)
	if rng.Inverted() {
		return out
	}

	var include map[string]bool
	if subjects != nil {
		include = make(map[string]bool, len(subjects))
		for _, s := range subjects {
			include[s] = true
		}
	}

	for k, st := range rec.Daily {
		if (include != nil && !include[k.Subject]) || !rng.Contains(k.Date) || !st.Valid() {
			continue
		}
		ds := DayStatus(st)
		if prev, ok := out[k.Date]; ok && prev != ds {
			ds = DayMarked
		}
		out[k.Date] = ds
	}
	return out
}
