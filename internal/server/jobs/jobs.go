// Package jobs runs periodic background maintenance on a cron schedule.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

const defaultSweepTimeout = time.Minute

// Sweeper удаляет записи denylist с истекшим сроком
type Sweeper interface {
	DeleteExpiredTokens(ctx context.Context, now time.Time) (int, error)
}

// SweepRecorder получает количество удаленных записей, реализуется metrics
type SweepRecorder interface {
	RecordSweep(deleted int)
}

// SweepJob одна очистка denylist
type SweepJob struct {
	logger   *slog.Logger
	sweeper  Sweeper
	recorder SweepRecorder
	now      func() time.Time
	timeout  time.Duration
}

// NewSweepJob создает задачу очистки. recorder может быть nil.
func NewSweepJob(logger *slog.Logger, sweeper Sweeper, recorder SweepRecorder) *SweepJob {
	return &SweepJob{
		logger:   logger,
		sweeper:  sweeper,
		recorder: recorder,
		now:      time.Now,
		timeout:  defaultSweepTimeout,
	}
}

// Run удаляет истекшие записи и возвращает их количество
func (j *SweepJob) Run(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	deleted, err := j.sweeper.DeleteExpiredTokens(ctx, j.now())
	if err != nil {
		j.logger.ErrorContext(ctx, "Denylist sweep failed", slog.Any("error", err))
		return 0, fmt.Errorf("failed to sweep revoked tokens: %w", err)
	}

	if j.recorder != nil {
		j.recorder.RecordSweep(deleted)
	}

	j.logger.DebugContext(ctx, "Denylist sweep completed", slog.Int("deleted", deleted))

	return deleted, nil
}

// Scheduler запускает задачи по cron расписанию
type Scheduler struct {
	logger *slog.Logger
	cron   *cron.Cron
}

// NewScheduler создает планировщик. Следующий запуск задачи пропускается,
// если предыдущий еще не завершился.
func NewScheduler(logger *slog.Logger) *Scheduler {
	cronLogger := slogCronLogger{logger: logger}

	return &Scheduler{
		logger: logger,
		cron: cron.New(
			cron.WithLogger(cronLogger),
			cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		),
	}
}

// AddSweep регистрирует очистку denylist по расписанию schedule
// (стандартный cron или дескриптор вида "@every 10m")
func (s *Scheduler) AddSweep(ctx context.Context, schedule string, job *SweepJob) error {
	_, err := s.cron.AddFunc(schedule, func() {
		_, _ = job.Run(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule denylist sweep: %w", err)
	}

	s.logger.Info("Denylist sweep scheduled", slog.String("schedule", schedule))

	return nil
}

// Run запускает планировщик и блокируется до отмены ctx.
// После отмены дожидается завершения уже запущенных задач.
func (s *Scheduler) Run(ctx context.Context) error {
	s.cron.Start()

	<-ctx.Done()

	stopped := s.cron.Stop()
	<-stopped.Done()

	s.logger.Info("Scheduler stopped")

	return nil
}

// slogCronLogger адаптирует slog к cron.Logger
type slogCronLogger struct {
	logger *slog.Logger
}

func (l slogCronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l slogCronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append(keysAndValues, slog.Any("error", err))...)
}
