package student

import (
	"context"
	"errors"
)

var (
	// errors
	ErrNotFound = errors.New("student not found")
)

// Student holds the identity fields printed on attendance statements.
// Students are owned by the identity service; this package only reads them.
type Student struct {
	Ref        string `json:"ref" db:"ref"`
	Name       string `json:"name" db:"name"`
	RollNumber string `json:"roll_number" db:"roll_number"`
	Course     string `json:"course" db:"course"`
	Email      string `json:"email" db:"email"`
}

type (
	Directory interface {
		// GetStudent returns ErrNotFound when ref does not resolve to a student.
		GetStudent(ctx context.Context, ref string) (Student, error)
	}

	// Registry is a Directory that can also be written to, for seeding & admin tooling.
	Registry interface {
		Directory
		PutStudent(ctx context.Context, stu Student) error
	}
)
