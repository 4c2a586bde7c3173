package jobs

import (
	"context"
	"encoding/json"
	"time"

	"hradmin/internal/platform/logger"
)

const (
	JobResetPurge = "password_reset_purge"

	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"

	defaultQueueSize = 128
)

type Task func(ctx context.Context) (any, error)

type RunStore interface {
	StartRun(ctx context.Context, jobType string) (string, error)
	FinishRun(ctx context.Context, runID, status string, details []byte) error
}

type Service struct {
	Runs  RunStore
	queue chan job
}

type job struct {
	Type string
	Run  Task
}

func New(runs RunStore, queueSize int) *Service {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	return &Service{Runs: runs, queue: make(chan job, queueSize)}
}

// Start consumes the queue until ctx is cancelled.
func (s *Service) Start(ctx context.Context) {
	go s.worker(ctx)
}

// Enqueue drops the job when the queue is full and reports whether it was
// accepted.
func (s *Service) Enqueue(ctx context.Context, jobType string, run Task) bool {
	select {
	case s.queue <- job{Type: jobType, Run: run}:
		return true
	default:
		logger.From(ctx).Warn("job queue full", "jobType", jobType)
		return false
	}
}

func (s *Service) RunNow(ctx context.Context, jobType string, run Task) (any, error) {
	return s.runJob(ctx, job{Type: jobType, Run: run})
}

// Schedule enqueues run every interval. A non-positive interval disables it.
func (s *Service) Schedule(ctx context.Context, jobType string, interval time.Duration, run Task) {
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Enqueue(ctx, jobType, run)
			}
		}
	}()
}

func (s *Service) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.queue:
			if _, err := s.runJob(ctx, j); err != nil {
				logger.From(ctx).Warn("job run failed", "jobType", j.Type, "err", err)
			}
		}
	}
}

func (s *Service) runJob(ctx context.Context, j job) (any, error) {
	log := logger.From(ctx)
	runID, err := s.Runs.StartRun(ctx, j.Type)
	if err != nil {
		log.Warn("job run insert failed", "jobType", j.Type, "err", err)
	}

	details, err := j.Run(ctx)
	status := StatusCompleted
	if err != nil {
		status = StatusFailed
		details = map[string]any{"error": err.Error()}
	}
	detailsJSON, marshalErr := json.Marshal(details)
	if marshalErr != nil || details == nil {
		detailsJSON = []byte("{}")
	}
	if runID != "" {
		if updErr := s.Runs.FinishRun(ctx, runID, status, detailsJSON); updErr != nil {
			log.Warn("job run update failed", "runId", runID, "err", updErr)
		}
	}
	return details, err
}
