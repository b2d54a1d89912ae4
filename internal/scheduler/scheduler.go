// Package scheduler triggers the daily interaction report on a cron spec.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"course-chatter/internal/logger"
)

const (
	DefaultReportSpec = "0 21 * * *"
	DefaultRunTimeout = 2 * time.Minute
)

var ErrNoReportFunc = errors.New("scheduler: report function not set")

// ReportFunc produces and delivers one report.
type ReportFunc func(ctx context.Context) error

type Scheduler struct {
	cron    *cron.Cron
	spec    string
	timeout time.Duration
	entry   cron.EntryID
	report  ReportFunc

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a scheduler evaluating spec in UTC. An empty spec means
// DefaultReportSpec. A run that is still going when the next one is due
// makes the next one a no-op.
func New(spec string) *Scheduler {
	if spec == "" {
		spec = DefaultReportSpec
	}
	log := cronLogger{entry: logger.GetLogger(context.Background()).WithField("component", "scheduler")}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithLogger(log),
			cron.WithChain(cron.Recover(log), cron.SkipIfStillRunning(log)),
		),
		spec:    spec,
		timeout: DefaultRunTimeout,
		ctx:     ctx,
		cancel:  cancel,
	}
}

func (s *Scheduler) SetReportFunction(f ReportFunc) { s.report = f }

// SetRunTimeout bounds a single run. Non-positive values are ignored.
func (s *Scheduler) SetRunTimeout(d time.Duration) {
	if d > 0 {
		s.timeout = d
	}
}

func (s *Scheduler) Start() error {
	if s.report == nil {
		return ErrNoReportFunc
	}
	id, err := s.cron.AddFunc(s.spec, s.run)
	if err != nil {
		return fmt.Errorf("schedule report %q: %w", s.spec, err)
	}
	s.entry = id
	s.cron.Start()
	logger.Infof(s.ctx, "📅 Report scheduled on %q (UTC), next run %s", s.spec, s.Next().Format(time.RFC3339))
	return nil
}

// Next is the time of the next run, or zero before Start.
func (s *Scheduler) Next() time.Time {
	if s.entry == 0 {
		return time.Time{}
	}
	return s.cron.Entry(s.entry).Next
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()
	logger.Infof(ctx, "🕘 Generating daily report")
	if err := s.report(ctx); err != nil {
		logger.Errorf(ctx, "❌ Daily report failed: %v", err)
	}
}

// Stop cancels a running report and waits for it to return.
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
	logger.Infof(context.Background(), "📅 Scheduler stopped")
}

func (s *Scheduler) IsRunning() bool {
	return s.entry != 0 && len(s.cron.Entries()) > 0
}

// cronLogger routes cron's own messages to logrus.
type cronLogger struct {
	entry *logrus.Entry
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.entry.WithFields(fields(keysAndValues)).Debug(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.entry.WithError(err).WithFields(fields(keysAndValues)).Error(msg)
}

func fields(kv []interface{}) logrus.Fields {
	out := logrus.Fields{}
	for i := 0; i+1 < len(kv); i += 2 {
		out[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return out
}
