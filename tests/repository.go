package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/biru-ka2/Attendify-sub000/core/attendance"
)

// RunRepositoryTests checks the attendance.Repository contract against a fresh, empty repository.
func RunRepositoryTests(t *testing.T, newRepo func(t *testing.T) attendance.Repository) {
	ctx := context.Background()
	now := time.Date(2025, 7, 20, 10, 0, 0, 0, time.UTC)

	seeded := func(ref string) attendance.Record {
		rec := attendance.NewRecord(ref, now)
		rec.Daily[attendance.DailyKey{Subject: "OS", Date: "2025-07-12"}] = attendance.StatusPresent
		rec.Daily[attendance.DailyKey{Subject: "DBMS", Date: "2025-07-13"}] = attendance.StatusAbsent
		rec.SubjectTotals["OS"] = attendance.Tally{Present: 1, Total: 3}
		rec.SubjectTotals["DBMS"] = attendance.Tally{Present: 0, Total: 1}
		rec.SubjectOrder = []string{"OS", "DBMS"}
		return attendance.RecomputeOverall(rec)
	}

	t.Run("get missing", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.GetRecord(ctx, "nobody")
		assert.Equal(t, attendance.ErrNotFound, errors.Cause(err))
	})

	t.Run("create & get", func(t *testing.T) {
		repo := newRepo(t)
		created, err := repo.CreateRecord(ctx, seeded("s1"))
		require.NoError(t, err)
		assert.EqualValues(t, 1, created.Version)

		got, err := repo.GetRecord(ctx, "s1")
		require.NoError(t, err)
		assert.Equal(t, created.Daily, got.Daily)
		assert.Equal(t, created.SubjectTotals, got.SubjectTotals)
		assert.Equal(t, []string{"OS", "DBMS"}, got.SubjectOrder)
		assert.Equal(t, created.Overall, got.Overall)
		assert.EqualValues(t, 1, got.Version)
		assert.True(t, got.CreatedAt.Equal(now))
		assert.True(t, got.VerifiedAt.IsZero())
		assert.NoError(t, attendance.Verify(got))
	})

	t.Run("create twice", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.CreateRecord(ctx, seeded("s1"))
		require.NoError(t, err)
		_, err = repo.CreateRecord(ctx, seeded("s1"))
		assert.Equal(t, attendance.ErrRecordExists, errors.Cause(err))
	})

	t.Run("replace bumps version", func(t *testing.T) {
		repo := newRepo(t)
		rec, err := repo.CreateRecord(ctx, seeded("s1"))
		require.NoError(t, err)

		rec.SubjectTotals["CN"] = attendance.Tally{}
		rec.SubjectOrder = append(rec.SubjectOrder, "CN")
		rec.VerifiedAt = now.Add(time.Hour)
		saved, err := repo.ReplaceRecord(ctx, rec)
		require.NoError(t, err)
		assert.EqualValues(t, 2, saved.Version)

		got, err := repo.GetRecord(ctx, "s1")
		require.NoError(t, err)
		assert.EqualValues(t, 2, got.Version)
		assert.Equal(t, []string{"OS", "DBMS", "CN"}, got.SubjectOrder)
		assert.True(t, got.VerifiedAt.Equal(now.Add(time.Hour)))
	})

	t.Run("replace stale version", func(t *testing.T) {
		repo := newRepo(t)
		rec, err := repo.CreateRecord(ctx, seeded("s1"))
		require.NoError(t, err)
		_, err = repo.ReplaceRecord(ctx, rec)
		require.NoError(t, err)

		_, err = repo.ReplaceRecord(ctx, rec) // still at version 1
		assert.Equal(t, attendance.ErrVersionConflict, errors.Cause(err))
	})

	t.Run("replace missing", func(t *testing.T) {
		repo := newRepo(t)
		rec := seeded("ghost")
		rec.Version = 1
		_, err := repo.ReplaceRecord(ctx, rec)
		assert.Equal(t, attendance.ErrNotFound, errors.Cause(err))
	})

	t.Run("delete & list", func(t *testing.T) {
		repo := newRepo(t)
		for _, ref := range []string{"s2", "s1", "s3"} {
			_, err := repo.CreateRecord(ctx, seeded(ref))
			require.NoError(t, err)
		}
		refs, err := repo.ListStudentRefs(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"s1", "s2", "s3"}, refs)

		require.NoError(t, repo.DeleteRecord(ctx, "s2"))
		assert.Equal(t, attendance.ErrNotFound, errors.Cause(repo.DeleteRecord(ctx, "s2")))

		refs, err = repo.ListStudentRefs(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"s1", "s3"}, refs)
	})
}
