package storage

import (
	"github.com/pkg/errors"

	"github.com/biru-ka2/Attendify-sub000/core"
	"github.com/biru-ka2/Attendify-sub000/core/attendance"
	"github.com/biru-ka2/Attendify-sub000/core/student"
	"github.com/biru-ka2/Attendify-sub000/storage/database"
	"github.com/biru-ka2/Attendify-sub000/storage/database/gorm"
	"github.com/biru-ka2/Attendify-sub000/storage/database/inmem"
	"github.com/biru-ka2/Attendify-sub000/storage/database/sqlx"
)

const (
	DriverMemory = "memory"
	DriverSQLX   = "sqlx"
	DriverGorm   = "gorm"
)

// Stores are the repositories backing the ledger, opened on the configured storage driver.
type Stores struct {
	Attendance attendance.Repository
	Students   student.Registry
	close      func() error
}

// Open opens conf.Storage.Driver, creating & migrating the database as needed.
func Open(conf *core.Config) (*Stores, error) {
	switch conf.Storage.Driver {
	case DriverMemory, "":
		db := inmemdb.Open()
		return &Stores{
			Attendance: inmemdb.NewAttendanceRepository(db),
			Students:   inmemdb.NewStudentDirectory(db),
			close:      func() error { return nil },
		}, nil

	case DriverSQLX:
		if err := database.CreateIfNotExist(conf); err != nil {
			return nil, errors.Wrap(err, "creating database")
		}
		db, err := database.Open(conf)
		if err != nil {
			return nil, err
		}
		if err = database.Migrate(db.DB); err != nil {
			_ = db.Close()
			return nil, errors.Wrap(err, "migrating database")
		}
		return &Stores{
			Attendance: sqlxrepos.NewAttendanceRepository(db),
			Students:   sqlxrepos.NewStudentDirectory(db),
			close:      db.Close,
		}, nil

	case DriverGorm:
		if conf.Database.Engine != "sqlite" {
			if err := database.CreateIfNotExist(conf); err != nil {
				return nil, errors.Wrap(err, "creating database")
			}
		}
		db, err := database.OpenGorm(conf)
		if err != nil {
			return nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, errors.Wrap(err, "getting gorm connection pool")
		}
		if err = gormrepos.AutoMigrate(db); err != nil {
			_ = sqlDB.Close()
			return nil, errors.Wrap(err, "migrating database")
		}
		return &Stores{
			Attendance: gormrepos.NewAttendanceRepository(db),
			Students:   gormrepos.NewStudentDirectory(db),
			close:      sqlDB.Close,
		}, nil
	}
	return nil, errors.Errorf("unknown storage driver %q", conf.Storage.Driver)
}

func (s *Stores) Close() error {
	return s.close()
}
