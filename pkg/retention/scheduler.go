package retention

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultSchedule fires daily at 02:00.
const DefaultSchedule = "0 2 * * *"

// Timezone is the zone schedules are evaluated in.
const Timezone = "UTC"

// CleanupRunner runs one cleanup. *Engine implements it.
type CleanupRunner interface {
	RunCleanup(ctx context.Context) (*Summary, error)
}

// SchedulerStatus reports the scheduler state.
type SchedulerStatus struct {
	Running  bool       `json:"running"`
	Schedule string     `json:"schedule"`
	Timezone string     `json:"timezone"`
	NextRun  *time.Time `json:"next_run"`
}

// Scheduler runs cleanup on a cron schedule. At most one job handle is
// active at a time.
type Scheduler struct {
	runner   CleanupRunner
	expr     string
	schedule cron.Schedule
	now      func() time.Time
	logger   *slog.Logger

	mu     sync.Mutex
	cron   *cron.Cron
	cancel context.CancelFunc
}

// NewScheduler creates a stopped scheduler for expr, a standard five-field
// cron expression. An empty expr uses DefaultSchedule.
func NewScheduler(runner CleanupRunner, expr string) (*Scheduler, error) {
	if expr == "" {
		expr = DefaultSchedule
	}
	schedule, err := cron.ParseStandard("CRON_TZ=" + Timezone + " " + expr)
	if err != nil {
		return nil, fmt.Errorf("invalid cron schedule %q: %w", expr, err)
	}

	return &Scheduler{
		runner:   runner,
		expr:     expr,
		schedule: schedule,
		now:      time.Now,
		logger:   slog.Default().With("component", "retention.scheduler"),
	}, nil
}

// Start registers the recurring cleanup. A running job handle is stopped
// first, so restarting never leaves two handles. Jobs run with a context
// derived from ctx and the scheduler stops when ctx is done.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()

	ctx, cancel := context.WithCancel(ctx)

	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithChain(cron.Recover(cronLogger{s.logger})),
	)
	c.Schedule(s.schedule, cron.FuncJob(func() { s.run(ctx) }))
	c.Start()
	s.cron = c
	s.cancel = cancel

	s.logger.Info("retention scheduler started",
		"schedule", s.expr,
		"timezone", Timezone,
		"next_run", s.schedule.Next(s.now().UTC()),
	)

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.cron == c {
			s.stopLocked()
		}
	}()

	return nil
}

// Stop cancels the job handle and waits for a running cleanup to return.
// It is safe to call when nothing is running.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *Scheduler) stopLocked() {
	if s.cron == nil {
		return
	}
	s.cancel()
	<-s.cron.Stop().Done()
	s.cron = nil
	s.cancel = nil
	s.logger.Info("retention scheduler stopped")
}

// Status reports whether a job handle is registered and, if so, the next
// fire time strictly after now.
func (s *Scheduler) Status() SchedulerStatus {
	s.mu.Lock()
	running := s.cron != nil
	s.mu.Unlock()

	status := SchedulerStatus{
		Running:  running,
		Schedule: s.expr,
		Timezone: Timezone,
	}
	if running {
		next := s.schedule.Next(s.now().In(time.UTC))
		status.NextRun = &next
	}
	return status
}

func (s *Scheduler) run(ctx context.Context) {
	s.logger.Info("starting scheduled cleanup")

	summary, err := s.runner.RunCleanup(ctx)
	if err != nil {
		s.logger.Error("scheduled cleanup failed", "error", err)
		return
	}
	s.logger.Info("scheduled cleanup completed",
		"audio_files_deleted", summary.AudioFilesDeleted,
		"newsletters_deleted", summary.NewslettersDeleted,
		"errors", len(summary.Errors),
	)
}

// cronLogger adapts slog to cron.Logger so recovered job panics are logged.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append([]any{"error", err}, keysAndValues...)...)
}
