package sqlxrepos

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/biru-ka2/Attendify-sub000/core"
	"github.com/biru-ka2/Attendify-sub000/core/attendance"
)

type attendanceRow struct {
	StudentRef string    `db:"student_ref"`
	Data       []byte    `db:"data"`
	Version    int64     `db:"version"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
	VerifiedAt null.Time `db:"verified_at"`
}

type attendanceRepository struct {
	exec core.DBExecutor
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(exec core.DBExecutor) *attendanceRepository {
	return &attendanceRepository{exec: exec}
}

func (repo attendanceRepository) toRow(rec attendance.Record) (attendanceRow, error) {
	data, err := json.Marshal(rec.Document())
	if err != nil {
		return attendanceRow{}, errors.Wrap(err, "encoding attendance document")
	}
	return attendanceRow{
		StudentRef: rec.StudentRef,
		Data:       data,
		Version:    rec.Version,
		CreatedAt:  rec.CreatedAt.UTC(),
		UpdatedAt:  rec.UpdatedAt.UTC(),
		VerifiedAt: null.NewTime(rec.VerifiedAt.UTC(), !rec.VerifiedAt.IsZero()),
	}, nil
}

func (repo attendanceRepository) fromRow(row attendanceRow) (attendance.Record, error) {
	var doc attendance.Document
	if err := json.Unmarshal(row.Data, &doc); err != nil {
		return attendance.Record{}, errors.Wrapf(err, "decoding attendance document of %q", row.StudentRef)
	}
	rec := attendance.Record{
		StudentRef: row.StudentRef,
		Version:    row.Version,
		CreatedAt:  row.CreatedAt.UTC(),
		UpdatedAt:  row.UpdatedAt.UTC(),
	}
	if row.VerifiedAt.Valid {
		rec.VerifiedAt = row.VerifiedAt.Time.UTC()
	}
	rec.SetDocument(doc)
	return rec, nil
}

func (repo attendanceRepository) GetRecord(ctx context.Context, ref string) (attendance.Record, error) {
	var row attendanceRow
	err := sqlx.GetContext(ctx, repo.exec, &row, `
		SELECT student_ref, data, version, created_at, updated_at, verified_at
		FROM attendance_records WHERE student_ref = $1`, ref)
	if err == sql.ErrNoRows {
		return attendance.Record{}, attendance.ErrNotFound
	}
	if err != nil {
		return attendance.Record{}, errors.Wrap(err, "selecting attendance record")
	}
	return repo.fromRow(row)
}

func (repo attendanceRepository) CreateRecord(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	rec.Version = 1
	row, err := repo.toRow(rec)
	if err != nil {
		return attendance.Record{}, err
	}

	var version int64
	err = sqlx.GetContext(ctx, repo.exec, &version, `
		INSERT INTO attendance_records (student_ref, data, version, created_at, updated_at, verified_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (student_ref) DO NOTHING
		RETURNING version`,
		row.StudentRef, row.Data, row.Version, row.CreatedAt, row.UpdatedAt, row.VerifiedAt)
	if err == sql.ErrNoRows {
		return attendance.Record{}, attendance.ErrRecordExists
	}
	if err != nil {
		return attendance.Record{}, errors.Wrap(err, "inserting attendance record")
	}
	return rec.Clone(), nil
}

func (repo attendanceRepository) ReplaceRecord(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	row, err := repo.toRow(rec)
	if err != nil {
		return attendance.Record{}, err
	}

	var version int64
	err = sqlx.GetContext(ctx, repo.exec, &version, `
		UPDATE attendance_records
		SET data = $1, version = version + 1, updated_at = $2, verified_at = $3
		WHERE student_ref = $4 AND version = $5
		RETURNING version`,
		row.Data, row.UpdatedAt, row.VerifiedAt, row.StudentRef, row.Version)
	if err == sql.ErrNoRows {
		if _, err := repo.GetRecord(ctx, rec.StudentRef); err != nil {
			return attendance.Record{}, err
		}
		return attendance.Record{}, attendance.ErrVersionConflict
	}
	if err != nil {
		return attendance.Record{}, errors.Wrap(err, "updating attendance record")
	}

	saved := rec.Clone()
	saved.Version = version
	return saved, nil
}

func (repo attendanceRepository) DeleteRecord(ctx context.Context, ref string) error {
	res, err := repo.exec.ExecContext(ctx, `DELETE FROM attendance_records WHERE student_ref = $1`, ref)
	if err != nil {
		return errors.Wrap(err, "deleting attendance record")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "deleting attendance record")
	}
	if n == 0 {
		return attendance.ErrNotFound
	}
	return nil
}

func (repo attendanceRepository) ListStudentRefs(ctx context.Context) ([]string, error) {
	refs := make([]string, 0)
	if err := sqlx.SelectContext(ctx, repo.exec, &refs, `SELECT student_ref FROM attendance_records ORDER BY student_ref`); err != nil {
		return nil, errors.Wrap(err, "listing attendance records")
	}
	return refs, nil
}
