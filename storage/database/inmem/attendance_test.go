package inmemdb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/biru-ka2/Attendify-sub000/core/attendance"
	"github.com/biru-ka2/Attendify-sub000/core/student"
	"github.com/biru-ka2/Attendify-sub000/tests"
)

func TestAttendanceRepository(t *testing.T) {
	testutil.RunRepositoryTests(t, func(t *testing.T) attendance.Repository {
		return NewAttendanceRepository(Open())
	})
}

func TestAttendanceRepository_isolation(t *testing.T) {
	ctx := context.Background()
	repo := NewAttendanceRepository(Open())

	rec, err := repo.CreateRecord(ctx, attendance.NewRecord("s1", testutil.FixedNow("2025-07-01")()))
	require.NoError(t, err)

	// mutating a returned record must not leak into the table
	rec.SubjectTotals["OS"] = attendance.Tally{Present: 1, Total: 1}
	got, err := repo.GetRecord(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, got.HasSubject("OS"))
}

func TestStudentDirectory(t *testing.T) {
	ctx := context.Background()
	dir := NewStudentDirectory(Open())

	_, err := dir.GetStudent(ctx, "s1")
	assert.Equal(t, student.ErrNotFound, err)

	want := testutil.PutStudent(t, dir, "s1", "Abebe Kebede")
	got, err := dir.GetStudent(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
