package inmemdb

import (
	"context"
	"sort"

	"github.com/biru-ka2/Attendify-sub000/core/attendance"
)

type attendanceRepository struct {
	db *attendanceTable
}

var _ attendance.Repository = (*attendanceRepository)(nil)

func NewAttendanceRepository(db *DB) attendance.Repository {
	return &attendanceRepository{db: db.attendance}
}

// records are cloned on the way in & out so callers never share maps with the table

func (repo *attendanceRepository) GetRecord(_ context.Context, ref string) (attendance.Record, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if rec, ok := repo.db.table[ref]; ok {
		return rec.Clone(), nil
	}
	return attendance.Record{}, attendance.ErrNotFound
}

func (repo *attendanceRepository) CreateRecord(_ context.Context, rec attendance.Record) (attendance.Record, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[rec.StudentRef]; ok {
		return attendance.Record{}, attendance.ErrRecordExists
	}
	stored := rec.Clone()
	stored.Version = 1
	repo.db.table[rec.StudentRef] = &stored
	return stored.Clone(), nil
}

func (repo *attendanceRepository) ReplaceRecord(_ context.Context, rec attendance.Record) (attendance.Record, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	cur, ok := repo.db.table[rec.StudentRef]
	if !ok {
		return attendance.Record{}, attendance.ErrNotFound
	}
	if cur.Version != rec.Version {
		return attendance.Record{}, attendance.ErrVersionConflict
	}
	stored := rec.Clone()
	stored.Version++
	repo.db.table[rec.StudentRef] = &stored
	return stored.Clone(), nil
}

func (repo *attendanceRepository) DeleteRecord(_ context.Context, ref string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[ref]; !ok {
		return attendance.ErrNotFound
	}
	delete(repo.db.table, ref)
	return nil
}

func (repo *attendanceRepository) ListStudentRefs(_ context.Context) ([]string, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	refs := make([]string, 0, len(repo.db.table))
	for ref := range repo.db.table {
		refs = append(refs, ref)
	}
	sort.Strings(refs)
	return refs, nil
}
