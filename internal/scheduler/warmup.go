// Package scheduler periodically recomputes cached performance insights for
// students whose grades changed recently.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/edupulse-api/pkg/jobs"
)

// JobType tags warmup jobs on the queue.
const JobType = "performance.warmup"

// WarmupPayload is the job payload for a single student.
type WarmupPayload struct {
	StudentID string
	TermID    string
}

type studentSource interface {
	ActiveStudents(ctx context.Context, since time.Time) ([]string, error)
}

type warmer interface {
	Warm(ctx context.Context, studentID, termID string) error
}

type jobQueue interface {
	Enqueue(job jobs.Job) error
}

type warmupRecorder interface {
	RecordWarmup(success bool)
}

// Config controls the warmup cadence.
type Config struct {
	Interval time.Duration
	Lookback time.Duration
}

// WarmupScheduler lists recently graded students on a schedule and fans them
// out to the job queue.
type WarmupScheduler struct {
	scheduler *gocron.Scheduler
	source    studentSource
	queue     jobQueue
	cfg       Config
	logger    *zap.Logger
	now       func() time.Time
}

// New constructs a warmup scheduler.
func New(source studentSource, queue jobQueue, cfg Config, logger *zap.Logger) *WarmupScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Lookback <= 0 {
		cfg.Lookback = cfg.Interval
	}
	return &WarmupScheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		source:    source,
		queue:     queue,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// Start registers the warmup job and runs the scheduler in the background.
func (s *WarmupScheduler) Start(ctx context.Context) error {
	if s.cfg.Interval <= 0 {
		return fmt.Errorf("warmup interval must be positive, got %s", s.cfg.Interval)
	}
	s.scheduler.SingletonModeAll()
	if _, err := s.scheduler.Every(s.cfg.Interval).Do(func() {
		if _, err := s.RunOnce(ctx); err != nil {
			s.logger.Error("performance warmup failed", zap.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("schedule warmup: %w", err)
	}
	s.scheduler.StartAsync()
	s.logger.Info("performance warmup scheduled", zap.Duration("interval", s.cfg.Interval), zap.Duration("lookback", s.cfg.Lookback))
	return nil
}

// Stop terminates the schedule.
func (s *WarmupScheduler) Stop() {
	s.scheduler.Stop()
}

// RunOnce enqueues one warmup job per student graded within the lookback
// window and returns how many were queued.
func (s *WarmupScheduler) RunOnce(ctx context.Context) (int, error) {
	since := s.now().Add(-s.cfg.Lookback)
	students, err := s.source.ActiveStudents(ctx, since)
	if err != nil {
		return 0, fmt.Errorf("list active students: %w", err)
	}

	queued := 0
	var errs []error
	for _, id := range students {
		job := jobs.Job{ID: uuid.NewString(), Type: JobType, Payload: WarmupPayload{StudentID: id}}
		if err := s.queue.Enqueue(job); err != nil {
			errs = append(errs, fmt.Errorf("enqueue %s: %w", id, err))
			continue
		}
		queued++
	}
	s.logger.Debug("performance warmup enqueued", zap.Int("students", len(students)), zap.Int("queued", queued))
	return queued, errors.Join(errs...)
}

// Handler processes warmup jobs by recomputing the student's insights.
func Handler(w warmer, recorder warmupRecorder) jobs.Handler {
	return func(ctx context.Context, job jobs.Job) error {
		payload, ok := job.Payload.(WarmupPayload)
		if !ok {
			return fmt.Errorf("job %s: unexpected payload %T", job.ID, job.Payload)
		}
		err := w.Warm(ctx, payload.StudentID, payload.TermID)
		if recorder != nil {
			recorder.RecordWarmup(err == nil)
		}
		return err
	}
}
