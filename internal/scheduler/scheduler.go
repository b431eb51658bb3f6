package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"fintech-ledger/config"
	"fintech-ledger/internal/core/domain"
	"fintech-ledger/internal/core/ports"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

const dayLayout = "2006-01-02"

// SettlementRunner performs one settlement sweep for a calendar day.
type SettlementRunner interface {
	RunScheduledSettlement(ctx context.Context, today time.Time) (*ports.SettlementReport, error)
}

// Recorder receives settlement run metrics.
type Recorder interface {
	ObserveSettlement(report *ports.SettlementReport, elapsed time.Duration)
	SettlementRun(result ports.SettlementRunResult)
}

// Scheduler triggers the daily card settlement sweep.
type Scheduler struct {
	cron    *cron.Cron
	spec    string
	runner  SettlementRunner
	lock    ports.SettlementLock // nil = no cross-instance guard
	metrics Recorder             // nil = metrics disabled
	audit   ports.AuditService   // nil = audit disabled
	loc     *time.Location
	lockTTL time.Duration
	log     zerolog.Logger
	now     func() time.Time
}

// Option configures optional collaborators.
type Option func(*Scheduler)

// WithLock guards each day's run with lock.
func WithLock(lock ports.SettlementLock) Option {
	return func(s *Scheduler) { s.lock = lock }
}

// WithMetrics reports each run to r.
func WithMetrics(r Recorder) Option {
	return func(s *Scheduler) { s.metrics = r }
}

// WithAudit records each completed run.
func WithAudit(a ports.AuditService) Option {
	return func(s *Scheduler) { s.audit = a }
}

// New creates a Scheduler from cfg. The cron expression is evaluated in
// the configured timezone, which also defines "today".
func New(cfg config.SettlementConfig, runner SettlementRunner, log zerolog.Logger, opts ...Option) (*Scheduler, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	s := &Scheduler{
		spec:    cfg.Cron,
		runner:  runner,
		loc:     loc,
		lockTTL: cfg.LockTTL,
		log:     log.With().Str("component", "settlement_scheduler").Logger(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	cl := cronLogger{log: s.log}
	s.cron = cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	if _, err := s.cron.AddFunc(cfg.Cron, func() {
		_, _ = s.RunOnce(context.Background())
	}); err != nil {
		return nil, fmt.Errorf("parsing settlement schedule %q: %w", cfg.Cron, err)
	}
	return s, nil
}

// Start begins firing the schedule in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Str("schedule", s.spec).Str("timezone", s.loc.String()).Msg("settlement scheduler started")
}

// Stop halts the schedule and waits for a running sweep, or for ctx.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.log.Info().Msg("settlement scheduler stopped")
	case <-ctx.Done():
		s.log.Warn().Msg("settlement scheduler stop timed out")
	}
}

// RunOnce executes today's sweep unless another instance already claimed
// it. A nil report with a nil error means the run was skipped.
func (s *Scheduler) RunOnce(ctx context.Context) (*ports.SettlementReport, error) {
	today := s.now().In(s.loc)
	day := today.Format(dayLayout)

	if s.lock != nil {
		acquired, err := s.lock.Acquire(ctx, day, s.lockTTL)
		switch {
		case err != nil:
			// Card rows that already settled today are skipped by the sweep.
			s.log.Warn().Err(err).Str("day", day).Msg("settlement lock unavailable, running unguarded")
		case !acquired:
			s.log.Info().Str("day", day).Msg("settlement already claimed for today")
			s.record(func(r Recorder) { r.SettlementRun(ports.SettlementRunLocked) })
			return nil, nil
		}
	}

	start := time.Now()
	report, err := s.runner.RunScheduledSettlement(ctx, today)
	if err != nil {
		s.log.Error().Err(err).Str("day", day).Msg("settlement run failed")
		s.record(func(r Recorder) { r.SettlementRun(ports.SettlementRunFailed) })
		return nil, err
	}
	elapsed := time.Since(start)
	s.record(func(r Recorder) { r.ObserveSettlement(report, elapsed) })

	if s.audit != nil {
		details, _ := json.Marshal(map[string]interface{}{
			"scanned":   report.Scanned,
			"settled":   report.Settled,
			"stopped":   report.Stopped,
			"skipped":   report.Skipped,
			"failed":    report.Failed,
			"collected": report.Collected,
		})
		s.audit.Log(ctx, &domain.AuditLog{
			Action:       domain.AuditActionSettlementRun,
			ResourceType: "settlement",
			ResourceID:   day,
			Details:      string(details),
		})
	}
	return report, nil
}

func (s *Scheduler) record(f func(Recorder)) {
	if s.metrics != nil {
		f(s.metrics)
	}
}

// cronLogger routes cron's internal logging through zerolog.
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
