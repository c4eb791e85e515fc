package attendance

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/biru-ka2/Attendify-sub000/core/student"
)

// Statement is a Report together with the identity fields printed on it.
type Statement struct {
	Student     student.Student `json:"student"`
	GeneratedAt time.Time       `json:"generated_at"`
	Report
}

type StatementBuilder struct {
	ledger   *Service
	students student.Directory
	opts     ReportOptions
	nowFunc  func() time.Time
}

func NewStatementBuilder(ledger *Service, students student.Directory, threshold float64) *StatementBuilder {
	return &StatementBuilder{
		ledger:   ledger,
		students: students,
		opts:     ReportOptions{Threshold: threshold},
		nowFunc:  time.Now,
	}
}

// Build resolves ref in the student directory and reports on its ledger over rng.
// It returns student.ErrNotFound when the student does not exist.
func (b *StatementBuilder) Build(ctx context.Context, ref string, rng DateRange) (Statement, error) {
	stu, err := b.students.GetStudent(ctx, ref)
	if err != nil {
		return Statement{}, err
	}
	rec, err := b.ledger.GetOrCreate(ctx, stu.Ref)
	if err != nil {
		return Statement{}, errors.Wrap(err, "loading attendance record")
	}
	return Statement{
		Student:     stu,
		GeneratedAt: b.nowFunc().UTC(),
		Report:      BuildReport(rec, nil, rng, b.opts),
	}, nil
}

// Threshold returns the critical threshold statements are built with.
func (b *StatementBuilder) Threshold() float64 {
	return b.opts.threshold()
}
