package inmemdb

import (
	"sync"

	"github.com/biru-ka2/Attendify-sub000/core/attendance"
	"github.com/biru-ka2/Attendify-sub000/core/student"
)

type (
	DB struct {
		attendance *attendanceTable
		student    *studentTable
	}

	attendanceTable struct {
		sync.RWMutex
		table map[string]*attendance.Record
	}

	studentTable struct {
		sync.RWMutex
		table map[string]*student.Student
	}
)

func Open() *DB {
	return &DB{
		attendance: &attendanceTable{table: make(map[string]*attendance.Record)},
		student:    &studentTable{table: make(map[string]*student.Student)},
	}
}
