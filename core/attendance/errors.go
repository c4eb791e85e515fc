package attendance

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrAlreadyMarked   = errors.New("attendance already marked")
	ErrNotMarked       = errors.New("attendance not marked")
	ErrNotFound        = errors.New("attendance record not found")
	ErrRecordExists    = errors.New("attendance record already exists")
	ErrVersionConflict = errors.New("attendance record was modified concurrently")
)

// Invariant names reported by ConsistencyFault.
const (
	InvOverallPresent = "overall.present"
	InvOverallTotal   = "overall.total"
	InvPercentage     = "overall.percentage"
	InvSubjectPresent = "subject.present"
	InvSubjectBounds  = "subject.bounds"
	InvDailyStatus    = "daily.status"
)

// ConsistencyFault is returned when a record breaks one of the ledger invariants,
// or when a mutation would make it do so. The record is never clamped into shape silently.
type ConsistencyFault struct {
	StudentRef string
	Subject    string
	Invariant  string
	Detail     string
}

func (f *ConsistencyFault) Error() string {
	if f.Subject != "" {
		return fmt.Sprintf("consistency fault [%s] student %q subject %q: %s", f.Invariant, f.StudentRef, f.Subject, f.Detail)
	}
	return fmt.Sprintf("consistency fault [%s] student %q: %s", f.Invariant, f.StudentRef, f.Detail)
}

// IsConsistencyFault reports whether err (or its cause) is a *ConsistencyFault.
func IsConsistencyFault(err error) bool {
	_, ok := errors.Cause(err).(*ConsistencyFault)
	return ok
}

func newFault(rec Record, subject, invariant, format string, args ...interface{}) *ConsistencyFault {
	return &ConsistencyFault{
		StudentRef: rec.StudentRef,
		Subject:    subject,
		Invariant:  invariant,
		Detail:     fmt.Sprintf(format, args...),
	}
}
