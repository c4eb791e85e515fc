package attendance

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/biru-ka2/Attendify-sub000/core"
)

type (
	Repository interface {
		// GetRecord returns ErrNotFound when ref has no ledger yet.
		GetRecord(ctx context.Context, ref string) (Record, error)
		// CreateRecord stores a new ledger at version 1, or returns ErrRecordExists.
		CreateRecord(ctx context.Context, rec Record) (Record, error)
		// ReplaceRecord stores rec if the stored version still equals rec.Version, and bumps the version.
		// It returns ErrVersionConflict when another writer got there first.
		ReplaceRecord(ctx context.Context, rec Record) (Record, error)
		DeleteRecord(ctx context.Context, ref string) error
		ListStudentRefs(ctx context.Context) ([]string, error)
	}

	Service struct {
		repo       Repository
		logger     core.Logger
		locks      *keyedMutex
		maxRetries int
		nowFunc    func() time.Time
	}

	// VerifyResult is the outcome of verifying one ledger; Err is nil when it is consistent.
	VerifyResult struct {
		StudentRef string `json:"student_ref"`
		Err        error  `json:"-"`
	}
)

func NewService(repo Repository, logger core.Logger, conf *core.Config) *Service {
	retries := 3
	if conf != nil && conf.Attendance.MaxConflictRetries >= 0 {
		retries = conf.Attendance.MaxConflictRetries
	}
	return &Service{
		repo:       repo,
		logger:     logger,
		locks:      newKeyedMutex(),
		maxRetries: retries,
		nowFunc:    time.Now,
	}
}

func (svc *Service) now() time.Time {
	return svc.nowFunc().UTC()
}

func cleanRef(ref string) (string, error) {
	ref = core.CleanString(ref)
	if ref == "" {
		err := errors.New("student reference is required")
		return "", core.NewValidationError(err, core.FieldError{Field: "student_ref", Error: err.Error()})
	}
	return ref, nil
}

func (svc *Service) getOrCreate(ctx context.Context, ref string) (Record, error) {
	rec, err := svc.repo.GetRecord(ctx, ref)
	if err == nil {
		return rec, nil
	}
	if errors.Cause(err) != ErrNotFound {
		return Record{}, errors.Wrap(err, "getting attendance record")
	}

	rec, err = svc.repo.CreateRecord(ctx, NewRecord(ref, svc.now()))
	if errors.Cause(err) == ErrRecordExists {
		rec, err = svc.repo.GetRecord(ctx, ref)
	}
	if err != nil {
		return Record{}, errors.Wrap(err, "creating attendance record")
	}
	return rec, nil
}

// mutate runs fn on a private copy of ref's ledger and persists the result.
// Writes for one student are serialized in-process; version conflicts with other processes are retried.
// On failure the last stored record is returned along with the error.
func (svc *Service) mutate(ctx context.Context, ref string, verifyFirst bool, fn func(rec *Record) (bool, error)) (Record, error) {
	unlock := svc.locks.Lock(ref)
	defer unlock()

	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return Record{}, err
		}

		rec, err := svc.getOrCreate(ctx, ref)
		if err != nil {
			return Record{}, err
		}
		if verifyFirst {
			if err := Verify(rec); err != nil {
				svc.logFault(err)
				return rec, err
			}
		}

		next := rec.Clone()
		changed, err := fn(&next)
		if err != nil {
			svc.logFault(err)
			return rec, err
		}
		if !changed {
			return rec, nil
		}
		if err := Verify(next); err != nil {
			svc.logFault(err)
			return rec, err
		}

		next.UpdatedAt = svc.now()
		saved, err := svc.repo.ReplaceRecord(ctx, next)
		if errors.Cause(err) == ErrVersionConflict && attempt < svc.maxRetries {
			svc.logger.Warn(fmt.Sprintf("attendance: version conflict on %q, retrying (%d/%d)", ref, attempt+1, svc.maxRetries))
			continue
		}
		if err != nil {
			return rec, errors.Wrap(err, "replacing attendance record")
		}
		return saved, nil
	}
}

func (svc *Service) logFault(err error) {
	if f, ok := errors.Cause(err).(*ConsistencyFault); ok {
		svc.logger.Error(f.Error(), err, map[string]interface{}{
			"student_ref": f.StudentRef,
			"subject":     f.Subject,
			"invariant":   f.Invariant,
		})
	}
}

// GetOrCreate returns ref's ledger, creating an empty one on first access.
func (svc *Service) GetOrCreate(ctx context.Context, ref string) (Record, error) {
	ref, err := cleanRef(ref)
	if err != nil {
		return Record{}, err
	}
	return svc.getOrCreate(ctx, ref)
}

// Snapshot returns ref's ledger without creating it.
func (svc *Service) Snapshot(ctx context.Context, ref string) (Record, error) {
	ref, err := cleanRef(ref)
	if err != nil {
		return Record{}, err
	}
	return svc.repo.GetRecord(ctx, ref)
}

// Mark records subject as attended on date.
// It returns ErrAlreadyMarked, leaving the ledger as is, if that is already the case.
func (svc *Service) Mark(ctx context.Context, ref string, mr MarkRequest) (Record, error) {
	ref, err := cleanRef(ref)
	if err != nil {
		return Record{}, err
	}
	if err := mr.Validate(); err != nil {
		return Record{}, err
	}
	subject := NormalizeSubject(mr.Subject)

	rec, err := svc.mutate(ctx, ref, true, func(rec *Record) (bool, error) {
		return applyMark(rec, subject, mr.Date)
	})
	if err == nil {
		svc.logger.Info(fmt.Sprintf("attendance: %s marked present for %q on %s", ref, subject, mr.Date))
	}
	return rec, err
}

// Unmark reverts a previous Mark. It returns ErrNotMarked if subject is not marked present on date.
func (svc *Service) Unmark(ctx context.Context, ref string, mr MarkRequest) (Record, error) {
	ref, err := cleanRef(ref)
	if err != nil {
		return Record{}, err
	}
	if err := mr.Validate(); err != nil {
		return Record{}, err
	}
	subject := NormalizeSubject(mr.Subject)

	rec, err := svc.mutate(ctx, ref, true, func(rec *Record) (bool, error) {
		return applyUnmark(rec, subject, mr.Date)
	})
	if err == nil {
		svc.logger.Info(fmt.Sprintf("attendance: %s unmarked for %q on %s", ref, subject, mr.Date))
	}
	return rec, err
}

// AddSubject creates an empty tally for subject. Adding an existing subject is a no-op.
func (svc *Service) AddSubject(ctx context.Context, ref string, sr SubjectRequest) (Record, error) {
	ref, err := cleanRef(ref)
	if err != nil {
		return Record{}, err
	}
	if err := sr.Validate(); err != nil {
		return Record{}, err
	}
	subject := NormalizeSubject(sr.Subject)

	return svc.mutate(ctx, ref, true, func(rec *Record) (bool, error) {
		return applyAddSubject(rec, subject), nil
	})
}

// RemoveSubject deletes subject's tally along with every daily entry for it.
// This discards history and cannot be undone.
func (svc *Service) RemoveSubject(ctx context.Context, ref string, sr SubjectRequest) (Record, error) {
	ref, err := cleanRef(ref)
	if err != nil {
		return Record{}, err
	}
	if err := sr.Validate(); err != nil {
		return Record{}, err
	}
	subject := NormalizeSubject(sr.Subject)

	rec, err := svc.mutate(ctx, ref, true, func(rec *Record) (bool, error) {
		return applyRemoveSubject(rec, subject), nil
	})
	if err == nil {
		svc.logger.Warn(fmt.Sprintf("attendance: subject %q and its history removed from %s", subject, ref))
	}
	return rec, err
}

// Verify checks ref's stored ledger against the ledger invariants.
func (svc *Service) Verify(ctx context.Context, ref string) error {
	rec, err := svc.Snapshot(ctx, ref)
	if err != nil {
		return err
	}
	if err := Verify(rec); err != nil {
		svc.logFault(err)
		return err
	}
	return nil
}

// VerifyAll verifies every stored ledger. It stops early only when listing or loading fails.
func (svc *Service) VerifyAll(ctx context.Context) ([]VerifyResult, error) {
	refs, err := svc.repo.ListStudentRefs(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "listing attendance records")
	}

	results := make([]VerifyResult, 0, len(refs))
	for _, ref := range refs {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		err := svc.Verify(ctx, ref)
		if err != nil && !IsConsistencyFault(err) {
			return results, errors.Wrapf(err, "verifying %q", ref)
		}
		results = append(results, VerifyResult{StudentRef: ref, Err: err})
	}
	return results, nil
}

// Repair rebuilds ref's cached aggregates from its daily log and stamps VerifiedAt.
func (svc *Service) Repair(ctx context.Context, ref string) (Record, error) {
	ref, err := cleanRef(ref)
	if err != nil {
		return Record{}, err
	}
	if _, err := svc.repo.GetRecord(ctx, ref); err != nil {
		return Record{}, err
	}

	var before error
	rec, err := svc.mutate(ctx, ref, false, func(rec *Record) (bool, error) {
		before = Verify(*rec)
		*rec = Repair(*rec)
		rec.VerifiedAt = svc.now()
		return true, nil
	})
	if err == nil && before != nil {
		svc.logger.Warn(fmt.Sprintf("attendance: repaired %s (%v)", ref, before))
	}
	return rec, err
}

// Delete drops ref's whole ledger.
func (svc *Service) Delete(ctx context.Context, ref string) error {
	ref, err := cleanRef(ref)
	if err != nil {
		return err
	}
	unlock := svc.locks.Lock(ref)
	defer unlock()
	return svc.repo.DeleteRecord(ctx, ref)
}
