package gormrepos

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/biru-ka2/Attendify-sub000/core/attendance"
)

type attendanceRepository struct {
	db *gorm.DB
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *gorm.DB) *attendanceRepository {
	return &attendanceRepository{db: db}
}

func (repo attendanceRepository) toModel(rec attendance.Record) (attendanceModel, error) {
	data, err := json.Marshal(rec.Document())
	if err != nil {
		return attendanceModel{}, errors.Wrap(err, "encoding attendance document")
	}
	m := attendanceModel{
		StudentRef: rec.StudentRef,
		Data:       data,
		Version:    rec.Version,
		CreatedAt:  rec.CreatedAt.UTC(),
		UpdatedAt:  rec.UpdatedAt.UTC(),
	}
	if !rec.VerifiedAt.IsZero() {
		t := rec.VerifiedAt.UTC()
		m.VerifiedAt = &t
	}
	return m, nil
}

func (repo attendanceRepository) fromModel(m attendanceModel) (attendance.Record, error) {
	var doc attendance.Document
	if err := json.Unmarshal(m.Data, &doc); err != nil {
		return attendance.Record{}, errors.Wrapf(err, "decoding attendance document of %q", m.StudentRef)
	}
	rec := attendance.Record{
		StudentRef: m.StudentRef,
		Version:    m.Version,
		CreatedAt:  m.CreatedAt.UTC(),
		UpdatedAt:  m.UpdatedAt.UTC(),
	}
	if m.VerifiedAt != nil {
		rec.VerifiedAt = m.VerifiedAt.UTC()
	}
	rec.SetDocument(doc)
	return rec, nil
}

func (repo attendanceRepository) GetRecord(ctx context.Context, ref string) (attendance.Record, error) {
	var m attendanceModel
	err := repo.db.WithContext(ctx).Where("student_ref = ?", ref).Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return attendance.Record{}, attendance.ErrNotFound
	}
	if err != nil {
		return attendance.Record{}, errors.Wrap(err, "selecting attendance record")
	}
	return repo.fromModel(m)
}

func (repo attendanceRepository) CreateRecord(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	rec.Version = 1
	m, err := repo.toModel(rec)
	if err != nil {
		return attendance.Record{}, err
	}

	res := repo.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&m)
	if res.Error != nil {
		return attendance.Record{}, errors.Wrap(res.Error, "inserting attendance record")
	}
	if res.RowsAffected == 0 {
		return attendance.Record{}, attendance.ErrRecordExists
	}
	return rec.Clone(), nil
}

func (repo attendanceRepository) ReplaceRecord(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	m, err := repo.toModel(rec)
	if err != nil {
		return attendance.Record{}, err
	}

	res := repo.db.WithContext(ctx).Model(&attendanceModel{}).
		Where("student_ref = ? AND version = ?", rec.StudentRef, rec.Version).
		Updates(map[string]interface{}{
			"data":        m.Data,
			"version":     gorm.Expr("version + 1"),
			"updated_at":  m.UpdatedAt,
			"verified_at": m.VerifiedAt,
		})
	if res.Error != nil {
		return attendance.Record{}, errors.Wrap(res.Error, "updating attendance record")
	}
	if res.RowsAffected == 0 {
		if _, err := repo.GetRecord(ctx, rec.StudentRef); err != nil {
			return attendance.Record{}, err
		}
		return attendance.Record{}, attendance.ErrVersionConflict
	}

	saved := rec.Clone()
	saved.Version = rec.Version + 1
	return saved, nil
}

func (repo attendanceRepository) DeleteRecord(ctx context.Context, ref string) error {
	res := repo.db.WithContext(ctx).Where("student_ref = ?", ref).Delete(&attendanceModel{})
	if res.Error != nil {
		return errors.Wrap(res.Error, "deleting attendance record")
	}
	if res.RowsAffected == 0 {
		return attendance.ErrNotFound
	}
	return nil
}

func (repo attendanceRepository) ListStudentRefs(ctx context.Context) ([]string, error) {
	refs := make([]string, 0)
	err := repo.db.WithContext(ctx).Model(&attendanceModel{}).Order("student_ref").Pluck("student_ref", &refs).Error
	if err != nil {
		return nil, errors.Wrap(err, "listing attendance records")
	}
	return refs, nil
}

