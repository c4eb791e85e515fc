package testutil

import (
	"context"
	"io"
	"log"
	"os"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/biru-ka2/Attendify-sub000/core"
	"github.com/biru-ka2/Attendify-sub000/core/attendance"
	"github.com/biru-ka2/Attendify-sub000/core/student"
	"github.com/biru-ka2/Attendify-sub000/services/logger"
	"github.com/biru-ka2/Attendify-sub000/storage/database"
)

// NewConfig returns the configuration used by tests: memory storage, default attendance policy.
func NewConfig() *core.Config {
	conf := core.NewConfig()
	conf.TestMode = true
	conf.RollbarToken = ""
	conf.Storage.Driver = "memory"
	conf.Attendance.CriticalThreshold = attendance.DefaultCriticalThreshold
	conf.Attendance.MaxConflictRetries = 3
	return conf
}

// NewLogger returns a logger that reports nowhere.
func NewLogger(conf *core.Config) core.Logger {
	lgr := logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), conf)
	lgr.Enable(false)
	return lgr
}

// PrepareDB connects to TEST_DATABASE_NAME on the configured server, migrates it and empties the app tables.
// The test is skipped when TEST_DATABASE_NAME is not set.
func PrepareDB(t *testing.T) *sqlx.DB {
	t.Helper()
	name := os.Getenv("TEST_DATABASE_NAME")
	if name == "" {
		t.Skip("TEST_DATABASE_NAME not set")
	}

	conf := NewConfig()
	conf.Database.Name = name
	if err := database.CreateIfNotExist(conf); err != nil {
		t.Fatalf("database.CreateIfNotExist(): %v", err)
	}
	db, err := database.Open(conf)
	if err != nil {
		t.Fatalf("database.Open(): %v", err)
	}
	if err := database.Migrate(db.DB); err != nil {
		t.Fatalf("database.Migrate(): %v", err)
	}
	ResetDB(t, db)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func ResetDB(t *testing.T, db *sqlx.DB) {
	t.Helper()
	if _, err := db.Exec("TRUNCATE attendance_records, students"); err != nil {
		t.Fatalf("ResetDB(): %v", err)
	}
}

func PutStudent(t *testing.T, reg student.Registry, ref, name string) student.Student {
	t.Helper()
	stu := student.Student{
		Ref:        ref,
		Name:       name,
		RollNumber: "R-" + ref,
		Course:     "B.Tech CSE",
		Email:      ref + "@test.edu",
	}
	if err := reg.PutStudent(context.Background(), stu); err != nil {
		t.Fatalf("PutStudent() failed: %v", err)
	}
	return stu
}

// MarkDays marks subject present on every date in from..to.
func MarkDays(t *testing.T, svc *attendance.Service, ref, subject, from, to string) attendance.Record {
	t.Helper()
	var (
		rec attendance.Record
		err error
	)
	for _, date := range attendance.DatesBetween(from, to) {
		rec, err = svc.Mark(context.Background(), ref, attendance.MarkRequest{Subject: subject, Date: date})
		if err != nil {
			t.Fatalf("MarkDays(%s, %s) failed: %v", subject, date, err)
		}
	}
	return rec
}

// FixedNow returns a clock stuck at the given date (noon UTC).
func FixedNow(date string) func() time.Time {
	t, err := time.Parse(core.DateLayout, date)
	if err != nil {
		panic(err)
	}
	t = t.Add(12 * time.Hour)
	return func() time.Time { return t }
}
