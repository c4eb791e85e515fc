package attendance

import (
	"math"
	"strings"
)

// percentEpsilon absorbs float noise when comparing a stored percentage to a recomputed one.
const percentEpsilon = 1e-9

// Percentage returns 100*present/total, or 0 when total is 0.
func Percentage(present, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(present) / float64(total) * 100
}

// Round1 rounds v half away from zero to one decimal place.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// RecomputeOverall rebuilds the overall aggregate from the per-subject tallies.
// Only Overall is reassigned; the record's maps are shared with rec.
func RecomputeOverall(rec Record) Record {
	var present, total int
	for _, t := range rec.SubjectTotals {
		present += t.Present
		total += t.Total
	}
	rec.Overall = Overall{
		Present:    present,
		Total:      total,
		Percentage: Percentage(present, total),
	}
	return rec
}

// Verify checks every ledger invariant and returns the first violation as a *ConsistencyFault.
// Subjects are checked in Subjects() order so that the reported fault is stable.
func Verify(rec Record) error {
	logged := make(map[string]int)
	for k, st := range rec.Daily {
		if !st.Valid() {
			return newFault(rec, k.Subject, InvDailyStatus, "unknown status %q on %s", st, k.Date)
		}
		if st == StatusPresent {
			logged[k.Subject]++
		}
	}

	var present, total int
	for _, s := range rec.Subjects() {
		t := rec.SubjectTotals[s]
		if t.Present < 0 || t.Total < 0 || t.Present > t.Total {
			return newFault(rec, s, InvSubjectBounds, "present=%d total=%d", t.Present, t.Total)
		}
		if t.Present != logged[s] {
			return newFault(rec, s, InvSubjectPresent, "tally says %d present, daily log has %d", t.Present, logged[s])
		}
		present += t.Present
		total += t.Total
	}
	for s, n := range logged {
		if !rec.HasSubject(s) {
			return newFault(rec, s, InvSubjectPresent, "daily log has %d present for a subject with no tally", n)
		}
	}

	if rec.Overall.Present != present {
		return newFault(rec, "", InvOverallPresent, "overall says %d, subjects sum to %d", rec.Overall.Present, present)
	}
	if rec.Overall.Total != total {
		return newFault(rec, "", InvOverallTotal, "overall says %d, subjects sum to %d", rec.Overall.Total, total)
	}
	if want := Percentage(present, total); math.Abs(rec.Overall.Percentage-want) > percentEpsilon {
		return newFault(rec, "", InvPercentage, "overall says %g, expected %g", rec.Overall.Percentage, want)
	}
	return nil
}

// Repair rebuilds the cached aggregates of rec from its daily log.
// Per-subject present counts come from the log; totals are kept unless they fall below present.
// Daily entries with an unknown status are dropped. rec itself is left untouched.
func Repair(rec Record) Record {
	out := rec.Clone()

	logged := make(map[string]int)
	for k, st := range out.Daily {
		if !st.Valid() {
			delete(out.Daily, k)
			continue
		}
		if _, ok := out.SubjectTotals[k.Subject]; !ok {
			out.SubjectTotals[k.Subject] = Tally{}
			out.SubjectOrder = append(out.SubjectOrder, k.Subject)
		}
		if st == StatusPresent {
			logged[k.Subject]++
		}
	}

	for s, t := range out.SubjectTotals {
		t.Present = logged[s]
		if t.Total < t.Present {
			t.Total = t.Present
		}
		out.SubjectTotals[s] = t
	}
	return RecomputeOverall(out)
}

// The apply* functions below mutate rec in place and expect the caller to own it (see Record.Clone).
// They report whether anything changed.

func applyMark(rec *Record, subject, date string) (bool, error) {
	key := DailyKey{Subject: subject, Date: date}
	if rec.Daily[key] == StatusPresent {
		return false, ErrAlreadyMarked
	}

	t, ok := rec.SubjectTotals[subject]
	if !ok {
		rec.SubjectOrder = append(rec.SubjectOrder, subject)
	}
	t.Present++
	t.Total++
	rec.SubjectTotals[subject] = t
	rec.Daily[key] = StatusPresent
	*rec = RecomputeOverall(*rec)
	return true, nil
}

func applyUnmark(rec *Record, subject, date string) (bool, error) {
	key := DailyKey{Subject: subject, Date: date}
	if rec.Daily[key] != StatusPresent {
		return false, ErrNotMarked
	}

	t, ok := rec.SubjectTotals[subject]
	if !ok {
		return false, newFault(*rec, subject, InvSubjectPresent, "%s is marked present but the subject has no tally", date)
	}
	if t.Present < 1 || t.Total < 1 {
		return false, newFault(*rec, subject, InvSubjectBounds, "unmark would take present=%d total=%d below zero", t.Present, t.Total)
	}
	t.Present--
	t.Total--
	rec.SubjectTotals[subject] = t
	delete(rec.Daily, key)
	*rec = RecomputeOverall(*rec)
	return true, nil
}

func applyAddSubject(rec *Record, subject string) bool {
	if rec.HasSubject(subject) {
		return false
	}
	rec.SubjectTotals[subject] = Tally{}
	rec.SubjectOrder = append(rec.SubjectOrder, subject)
	*rec = RecomputeOverall(*rec)
	return true
}

func applyRemoveSubject(rec *Record, subject string) bool {
	changed := rec.HasSubject(subject)
	delete(rec.SubjectTotals, subject)
	for k := range rec.Daily {
		if k.Subject == subject {
			delete(rec.Daily, k)
			changed = true
		}
	}
	if !changed {
		return false
	}

	order := rec.SubjectOrder[:0]
	for _, s := range rec.SubjectOrder {
		if s != subject {
			order = append(order, s)
		}
	}
	rec.SubjectOrder = order
	*rec = RecomputeOverall(*rec)
	return true
}

// NormalizeSubject trims the surrounding whitespace of a subject name.
// Subject names are otherwise case-sensitive.
func NormalizeSubject(subject string) string {
	return strings.TrimSpace(subject)
}
