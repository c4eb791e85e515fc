package main

import (
	"context"

	"github.com/biru-ka2/Attendify-sub000/core"
	"github.com/biru-ka2/Attendify-sub000/core/student"
)

// addStudent updates or creates a student.Student
func (cli *commandLine) addStudent(stu student.Student) error {
	stu.Ref = core.CleanString(stu.Ref)
	stu.Name = core.CleanString(stu.Name)
	stu.RollNumber = core.CleanString(stu.RollNumber)
	stu.Course = core.CleanString(stu.Course)
	stu.Email = core.CleanString(stu.Email, true /* lower */)
	return cli.students.PutStudent(context.Background(), stu)
}
