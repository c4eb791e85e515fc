package schedsvc

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"

	"github.com/biru-ka2/Attendify-sub000/core"
	"github.com/biru-ka2/Attendify-sub000/core/attendance"
)

// verifyTimeout bounds one pass over every ledger.
const verifyTimeout = 10 * time.Minute

type Verifier interface {
	VerifyAll(ctx context.Context) ([]attendance.VerifyResult, error)
}

// Scheduler runs the periodic ledger verification.
type Scheduler struct {
	cron   *cron.Cron
	logger core.Logger
}

// cronLogger adapts core.Logger to cron.Logger.
type cronLogger struct {
	logger core.Logger
}

var _ cron.Logger = cronLogger{}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, kvMap(keysAndValues))
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, err, kvMap(keysAndValues))
}

func kvMap(keysAndValues []interface{}) map[string]interface{} {
	m := make(map[string]interface{}, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		m[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return m
}

// New schedules VerifyAll on conf.Attendance.VerifySchedule. Overlapping runs are skipped.
func New(conf *core.Config, logger core.Logger, ledger Verifier) (*Scheduler, error) {
	cl := cronLogger{logger: logger}
	c := cron.New(
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)

	_, err := c.AddFunc(conf.Attendance.VerifySchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), verifyTimeout)
		defer cancel()
		if _, err := RunVerification(ctx, ledger, logger); err != nil {
			logger.Error(fmt.Sprintf("attendance verification: %v", err), err)
		}
	})
	if err != nil {
		return nil, errors.Wrapf(err, "scheduling verification %q", conf.Attendance.VerifySchedule)
	}
	return &Scheduler{cron: c, logger: logger}, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops scheduling and returns a context that is done once the running job, if any, completes.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

// RunVerification verifies every ledger and logs each fault. It returns the number of faulty ledgers.
func RunVerification(ctx context.Context, ledger Verifier, logger core.Logger) (int, error) {
	results, err := ledger.VerifyAll(ctx)
	if err != nil {
		return 0, err
	}

	var faults int
	for _, r := range results {
		if r.Err != nil {
			faults++
			logger.Warn(fmt.Sprintf("attendance verification: %s is inconsistent", r.StudentRef), r.Err)
		}
	}
	logger.Info(fmt.Sprintf("attendance verification: %d ledgers checked, %d faulty", len(results), faults))
	return faults, nil
}
