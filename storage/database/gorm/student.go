package gormrepos

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/biru-ka2/Attendify-sub000/core/student"
)

type studentDirectory struct {
	db *gorm.DB
}

var _ student.Registry = (*studentDirectory)(nil) // interface compliance check

func NewStudentDirectory(db *gorm.DB) *studentDirectory {
	return &studentDirectory{db: db}
}

func (dir studentDirectory) GetStudent(ctx context.Context, ref string) (student.Student, error) {
	var m studentModel
	err := dir.db.WithContext(ctx).Where("ref = ?", ref).Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return student.Student{}, student.ErrNotFound
	}
	if err != nil {
		return student.Student{}, errors.Wrap(err, "selecting student")
	}
	return student.Student{
		Ref:        m.Ref,
		Name:       m.Name,
		RollNumber: m.RollNumber,
		Course:     m.Course,
		Email:      m.Email,
	}, nil
}

func (dir studentDirectory) PutStudent(ctx context.Context, stu student.Student) error {
	m := studentModel{
		Ref:        stu.Ref,
		Name:       stu.Name,
		RollNumber: stu.RollNumber,
		Course:     stu.Course,
		Email:      stu.Email,
	}
	err := dir.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&m).Error
	return errors.Wrap(err, "upserting student")
}
