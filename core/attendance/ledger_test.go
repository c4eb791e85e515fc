package attendance

import (
	"encoding/json"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 7, 20, 9, 30, 0, 0, time.UTC)

func key(subject, date string) DailyKey {
	return DailyKey{Subject: subject, Date: date}
}

func mustMark(t *testing.T, rec *Record, subject string, dates ...string) {
	t.Helper()
	for _, d := range dates {
		_, err := applyMark(rec, subject, d)
		require.NoError(t, err, "mark %s %s", subject, d)
	}
}

func TestDailyKey_text(t *testing.T) {
	tests := []struct {
		text    string
		want    DailyKey
		wantErr bool
	}{
		{text: "OS|2025-07-12", want: key("OS", "2025-07-12")},
		{text: "Data Structures|2025-01-02", want: key("Data Structures", "2025-01-02")},
		{text: "|2025-01-02", want: key("", "2025-01-02")},
		{text: "no separator", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			var k DailyKey
			err := k.UnmarshalText([]byte(tt.text))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, k)
			assert.Equal(t, tt.text, k.String())
		})
	}

	// Log survives JSON as an object keyed by "subject|date"
	log := Log{key("OS", "2025-07-12"): StatusPresent, key("CN", "2025-07-13"): StatusAbsent}
	data, err := json.Marshal(log)
	require.NoError(t, err)
	assert.JSONEq(t, `{"OS|2025-07-12":"present","CN|2025-07-13":"absent"}`, string(data))

	var back Log
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, log, back)
}

func TestRecomputeOverall(t *testing.T) {
	rec := NewRecord("s1", testNow)
	rec.SubjectTotals["OS"] = Tally{Present: 9, Total: 45}
	rec.SubjectTotals["CN"] = Tally{Present: 2, Total: 3}

	got := RecomputeOverall(rec)
	assert.Equal(t, 11, got.Overall.Present)
	assert.Equal(t, 48, got.Overall.Total)
	assert.InDelta(t, 22.916666, got.Overall.Percentage, 1e-5) // full precision
	assert.Equal(t, 22.9, Round1(got.Overall.Percentage))

	assert.Zero(t, RecomputeOverall(NewRecord("s2", testNow)).Overall.Percentage)
}

func TestRound1(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, 0},
		{20, 20},
		{66.666666, 66.7},
		{33.333333, 33.3},
		{12.25, 12.3},
		{100, 100},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Round1(tt.in), "Round1(%v)", tt.in)
	}
}

func TestApplyMark(t *testing.T) {
	rec := NewRecord("s1", testNow)

	changed, err := applyMark(&rec, "OS", "2025-07-12")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, Tally{Present: 1, Total: 1}, rec.SubjectTotals["OS"])
	assert.Equal(t, []string{"OS"}, rec.SubjectOrder)
	assert.Equal(t, Overall{Present: 1, Total: 1, Percentage: 100}, rec.Overall)

	before := rec.Clone()
	changed, err = applyMark(&rec, "OS", "2025-07-12")
	assert.Equal(t, ErrAlreadyMarked, err)
	assert.False(t, changed)
	assert.Equal(t, before, rec)
}

func TestApplyUnmark(t *testing.T) {
	t.Run("not marked", func(t *testing.T) {
		rec := NewRecord("s1", testNow)
		mustMark(t, &rec, "OS", "2025-07-12")
		before := rec.Clone()

		for _, k := range []DailyKey{key("OS", "2025-07-13"), key("CN", "2025-07-12")} {
			changed, err := applyUnmark(&rec, k.Subject, k.Date)
			assert.Equal(t, ErrNotMarked, err)
			assert.False(t, changed)
		}
		assert.Equal(t, before, rec)
	})

	t.Run("explicit absent is not marked", func(t *testing.T) {
		rec := NewRecord("s1", testNow)
		rec.Daily[key("OS", "2025-07-12")] = StatusAbsent
		rec.SubjectTotals["OS"] = Tally{Total: 1}
		rec = RecomputeOverall(rec)

		_, err := applyUnmark(&rec, "OS", "2025-07-12")
		assert.Equal(t, ErrNotMarked, err)
	})

	t.Run("below zero is a fault", func(t *testing.T) {
		rec := NewRecord("s1", testNow)
		rec.Daily[key("OS", "2025-07-12")] = StatusPresent
		rec.SubjectTotals["OS"] = Tally{}
		before := rec.Clone()

		changed, err := applyUnmark(&rec, "OS", "2025-07-12")
		require.Error(t, err)
		assert.False(t, changed)
		assert.True(t, IsConsistencyFault(err))
		assert.Equal(t, InvSubjectBounds, err.(*ConsistencyFault).Invariant)
		assert.Equal(t, before, rec)
	})

	t.Run("round trip", func(t *testing.T) {
		rec := NewRecord("s1", testNow)
		mustMark(t, &rec, "OS", "2025-07-12", "2025-07-13")
		mustMark(t, &rec, "CN", "2025-07-12")
		before := rec.Clone()

		mustMark(t, &rec, "OS", "2025-07-14")
		changed, err := applyUnmark(&rec, "OS", "2025-07-14")
		require.NoError(t, err)
		assert.True(t, changed)
		assert.Equal(t, before, rec)
	})
}

func TestApplySubjects(t *testing.T) {
	rec := NewRecord("s1", testNow)
	assert.True(t, applyAddSubject(&rec, "OS"))
	assert.False(t, applyAddSubject(&rec, "OS"))
	assert.True(t, applyAddSubject(&rec, "CN"))
	assert.Equal(t, []string{"OS", "CN"}, rec.Subjects())

	mustMark(t, &rec, "OS", "2025-07-12", "2025-07-13")
	mustMark(t, &rec, "CN", "2025-07-12")

	assert.True(t, applyRemoveSubject(&rec, "OS"))
	assert.False(t, applyRemoveSubject(&rec, "OS"))
	assert.Equal(t, []string{"CN"}, rec.Subjects())
	assert.Len(t, rec.Daily, 1)
	assert.Equal(t, Overall{Present: 1, Total: 1, Percentage: 100}, rec.Overall)
	assert.NoError(t, Verify(rec))
}

func TestVerify(t *testing.T) {
	valid := func() Record {
		rec := NewRecord("s1", testNow)
		rec.Daily[key("OS", "2025-07-12")] = StatusPresent
		rec.Daily[key("OS", "2025-07-13")] = StatusAbsent
		rec.SubjectTotals["OS"] = Tally{Present: 1, Total: 4}
		rec.SubjectTotals["CN"] = Tally{}
		rec.SubjectOrder = []string{"OS", "CN"}
		return RecomputeOverall(rec)
	}

	tests := []struct {
		name      string
		corrupt   func(rec *Record)
		invariant string
	}{
		{name: "valid", corrupt: func(rec *Record) {}},
		{
			name:      "overall total drift",
			corrupt:   func(rec *Record) { rec.Overall.Total++ },
			invariant: InvOverallTotal,
		},
		{
			name:      "overall present drift",
			corrupt:   func(rec *Record) { rec.Overall.Present-- },
			invariant: InvOverallPresent,
		},
		{
			name:      "stale percentage",
			corrupt:   func(rec *Record) { rec.Overall.Percentage = 50 },
			invariant: InvPercentage,
		},
		{
			name:      "tally ahead of log",
			corrupt:   func(rec *Record) { rec.SubjectTotals["OS"] = Tally{Present: 2, Total: 4} },
			invariant: InvSubjectPresent,
		},
		{
			name:      "present above total",
			corrupt:   func(rec *Record) { rec.SubjectTotals["OS"] = Tally{Present: 1, Total: 0} },
			invariant: InvSubjectBounds,
		},
		{
			name:      "log entry without tally",
			corrupt:   func(rec *Record) { rec.Daily[key("DBMS", "2025-07-12")] = StatusPresent },
			invariant: InvSubjectPresent,
		},
		{
			name:      "unknown status",
			corrupt:   func(rec *Record) { rec.Daily[key("OS", "2025-07-14")] = "late" },
			invariant: InvDailyStatus,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := valid()
			tt.corrupt(&rec)
			err := Verify(rec)
			if tt.invariant == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			fault, ok := err.(*ConsistencyFault)
			require.True(t, ok, "want *ConsistencyFault, got %T", err)
			assert.Equal(t, tt.invariant, fault.Invariant)
			assert.Equal(t, "s1", fault.StudentRef)

			repaired := Repair(rec)
			assert.NoError(t, Verify(repaired), "repair should restore consistency")
		})
	}
}

func TestRepair(t *testing.T) {
	rec := NewRecord("s1", testNow)
	rec.Daily[key("OS", "2025-07-12")] = StatusPresent
	rec.Daily[key("OS", "2025-07-13")] = StatusPresent
	rec.Daily[key("DBMS", "2025-07-13")] = StatusPresent
	rec.SubjectTotals["OS"] = Tally{Present: 5, Total: 10}
	rec.SubjectOrder = []string{"OS"}
	before := rec.Clone()

	got := Repair(rec)
	assert.Equal(t, before, rec, "input must be left untouched")
	assert.Equal(t, Tally{Present: 2, Total: 10}, got.SubjectTotals["OS"])
	assert.Equal(t, Tally{Present: 1, Total: 1}, got.SubjectTotals["DBMS"])
	assert.Equal(t, []string{"OS", "DBMS"}, got.Subjects())
	assert.Equal(t, 3, got.Overall.Present)
	assert.Equal(t, 11, got.Overall.Total)
	assert.NoError(t, Verify(got))
}

func TestMutations_preserveInvariants(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	subjects := []string{"OS", "CN", "DBMS"}
	dates := DatesBetween("2025-07-01", "2025-07-10")

	rec := NewRecord("s1", testNow)
	for i := 0; i < 2000; i++ {
		s := subjects[rnd.Intn(len(subjects))]
		d := dates[rnd.Intn(len(dates))]
		before := rec.Clone()

		var err error
		switch op := rnd.Intn(10); {
		case op < 6:
			_, err = applyMark(&rec, s, d)
		case op < 9:
			_, err = applyUnmark(&rec, s, d)
		default:
			applyAddSubject(&rec, s)
		}
		if err != nil {
			require.Contains(t, []error{ErrAlreadyMarked, ErrNotMarked}, err)
			require.Equal(t, before, rec, "rejected op #%d changed the record", i)
		}
		require.NoError(t, Verify(rec), "after op #%d", i)
	}
}
