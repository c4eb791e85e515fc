package inmemdb

import (
	"context"

	"github.com/biru-ka2/Attendify-sub000/core/student"
)

type StudentDirectory struct {
	db *studentTable
}

var _ student.Registry = (*StudentDirectory)(nil)

func NewStudentDirectory(db *DB) *StudentDirectory {
	return &StudentDirectory{db: db.student}
}

func (dir *StudentDirectory) GetStudent(_ context.Context, ref string) (student.Student, error) {
	dir.db.RLock()
	defer dir.db.RUnlock()

	if stu, ok := dir.db.table[ref]; ok {
		return *stu, nil
	}
	return student.Student{}, student.ErrNotFound
}

func (dir *StudentDirectory) PutStudent(_ context.Context, stu student.Student) error {
	dir.db.Lock()
	defer dir.db.Unlock()
	dir.db.table[stu.Ref] = &stu
	return nil
}
