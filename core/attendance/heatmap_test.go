package attendance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cellDates(w Week) []string {
	var dates []string
	for _, c := range w.Days {
		if c == nil {
			dates = append(dates, "")
			continue
		}
		dates = append(dates, c.Date)
	}
	return dates
}

func TestBuildGrid(t *testing.T) {
	statuses := map[string]DayStatus{
		"2025-07-14": DayPresent,
		"2025-07-15": DayAbsent,
		"2025-07-16": DayMarked,
		"2025-07-21": DayPresent, // after the anchor
		"2025-07-17": "bogus",
	}

	t.Run("anchor on week start", func(t *testing.T) {
		weeks := BuildGrid(statuses, 7, "2025-07-20") // a Sunday
		require.Len(t, weeks, 2)

		assert.Equal(t, []string{"", "2025-07-14", "2025-07-15", "2025-07-16", "2025-07-17", "2025-07-18", "2025-07-19"}, cellDates(weeks[0]))
		assert.Equal(t, "Jul", weeks[0].Month)
		assert.Equal(t, "2025-07-14", weeks[0].Start)
		assert.Equal(t, DayPresent, weeks[0].Days[1].Status)
		assert.Equal(t, DayAbsent, weeks[0].Days[2].Status)
		assert.Equal(t, DayMarked, weeks[0].Days[3].Status)
		assert.Equal(t, DayNoData, weeks[0].Days[4].Status)
		assert.Equal(t, DayNoData, weeks[0].Days[5].Status)
		assert.Equal(t, 14, weeks[0].Days[1].Day)

		assert.Equal(t, []string{"2025-07-20", "2025-07-21", "2025-07-22", "2025-07-23", "2025-07-24", "2025-07-25", "2025-07-26"}, cellDates(weeks[1]))
		assert.Equal(t, DayNoData, weeks[1].Days[0].Status)
		for _, c := range weeks[1].Days[1:] {
			assert.Equal(t, DayFuture, c.Status, c.Date)
		}
	})

	t.Run("anchor on week end", func(t *testing.T) {
		weeks := BuildGrid(statuses, 7, "2025-07-19") // a Saturday
		require.Len(t, weeks, 1)
		assert.Equal(t, []string{"2025-07-13", "2025-07-14", "2025-07-15", "2025-07-16", "2025-07-17", "2025-07-18", "2025-07-19"}, cellDates(weeks[0]))
	})

	t.Run("month boundary keeps the earlier month", func(t *testing.T) {
		weeks := BuildGrid(nil, 10, "2025-08-02")
		require.Len(t, weeks, 2)
		assert.Equal(t, "Jul", weeks[1].Month)
		assert.Equal(t, "2025-07-27", weeks[1].Start)
		assert.Equal(t, 2, weeks[1].Days[6].Day)
	})

	t.Run("empty window", func(t *testing.T) {
		assert.Empty(t, BuildGrid(statuses, 0, "2025-07-20"))
		assert.Empty(t, BuildGrid(statuses, -3, "2025-07-20"))
		assert.Empty(t, BuildGrid(statuses, 7, "20-07-2025"))
	})
}

func TestBuildGrid_completeness(t *testing.T) {
	anchors := DatesBetween("2025-02-23", "2025-03-01") // every weekday, across a month end
	for _, anchor := range anchors {
		for window := 1; window <= 70; window++ {
			weeks := BuildGrid(map[string]DayStatus{AddDays(anchor, 1): DayPresent}, window, anchor)

			minWeeks := (window + 6) / 7
			if len(weeks) < minWeeks || len(weeks) > minWeeks+1 {
				t.Fatalf("BuildGrid(%d, %s) = %d weeks; want %d..%d", window, anchor, len(weeks), minWeeks, minWeeks+1)
			}

			start := AddDays(anchor, -(window - 1))
			seen := make(map[string]int)
			for wi, w := range weeks {
				for slot, c := range w.Days {
					if c == nil {
						if wi != 0 {
							t.Fatalf("BuildGrid(%d, %s): nil slot in week %d", window, anchor, wi)
						}
						continue
					}
					if weekday := int(mustParse(t, c.Date).Weekday()); weekday != slot {
						t.Fatalf("BuildGrid(%d, %s): %s in slot %d", window, anchor, c.Date, slot)
					}
					if c.Date > anchor {
						if c.Status != DayFuture {
							t.Fatalf("BuildGrid(%d, %s): %s after anchor is %q", window, anchor, c.Date, c.Status)
						}
						continue
					}
					if c.Date < start {
						t.Fatalf("BuildGrid(%d, %s): %s before window start %s", window, anchor, c.Date, start)
					}
					seen[c.Date]++
				}
			}

			for _, d := range DatesBetween(start, anchor) {
				if seen[d] != 1 {
					t.Fatalf("BuildGrid(%d, %s): %s seen %d times", window, anchor, d, seen[d])
				}
			}
			if len(seen) != window {
				t.Fatalf("BuildGrid(%d, %s): %d dates in window; want %d", window, anchor, len(seen), window)
			}
		}
	}
}

func mustParse(t *testing.T, date string) time.Time {
	t.Helper()
	d, ok := parseDate(date)
	if !ok {
		t.Fatalf("invalid date %q", date)
	}
	return d
}
