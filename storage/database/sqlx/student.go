package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/biru-ka2/Attendify-sub000/core"
	"github.com/biru-ka2/Attendify-sub000/core/student"
)

type studentDirectory struct {
	exec core.DBExecutor
}

var _ student.Registry = (*studentDirectory)(nil) // interface compliance check

func NewStudentDirectory(exec core.DBExecutor) *studentDirectory {
	return &studentDirectory{exec: exec}
}

func (dir studentDirectory) GetStudent(ctx context.Context, ref string) (student.Student, error) {
	var stu student.Student
	err := sqlx.GetContext(ctx, dir.exec, &stu, `
		SELECT ref, name, roll_number, course, email FROM students WHERE ref = $1`, ref)
	if err == sql.ErrNoRows {
		return student.Student{}, student.ErrNotFound
	}
	if err != nil {
		return student.Student{}, errors.Wrap(err, "selecting student")
	}
	return stu, nil
}

func (dir studentDirectory) PutStudent(ctx context.Context, stu student.Student) error {
	_, err := sqlx.NamedExecContext(ctx, dir.exec, `
		INSERT INTO students (ref, name, roll_number, course, email)
		VALUES (:ref, :name, :roll_number, :course, :email)
		ON CONFLICT (ref) DO UPDATE
		SET name = EXCLUDED.name, roll_number = EXCLUDED.roll_number,
		    course = EXCLUDED.course, email = EXCLUDED.email`, stu)
	if err != nil {
		return errors.Wrap(err, "upserting student")
	}
	return nil
}
