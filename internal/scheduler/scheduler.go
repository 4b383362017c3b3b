// Package scheduler runs periodic housekeeping with robfig/cron.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/procyborg2222/SAFETAG/internal/observability"
)

// TaskFunc is a scheduled job.
type TaskFunc func(ctx context.Context) error

// Scheduler manages named cron tasks.
type Scheduler struct {
	cron    *cron.Cron
	log     *zap.Logger
	timeout time.Duration
	tasks   map[string]cron.EntryID
	mu      sync.Mutex
	running bool
}

// New creates a scheduler. Each run is bounded by timeout.
func New(log *zap.Logger, timeout time.Duration) *Scheduler {
	if timeout <= 0 {
		timeout = time.Minute
	}
	return &Scheduler{
		cron:    cron.New(),
		log:     observability.OrNop(log).Named("scheduler"),
		timeout: timeout,
		tasks:   make(map[string]cron.EntryID),
	}
}

// Add registers task under name, replacing any task with the same name.
// Schedules use the standard five-field format or descriptors such as "@every 10m".
func (s *Scheduler) Add(name, schedule string, task TaskFunc) error {
	if task == nil {
		return errors.New("scheduler: task is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.tasks[name]; ok {
		s.cron.Remove(id)
		delete(s.tasks, name)
	}
	id, err := s.cron.AddFunc(schedule, func() { s.run(name, task) })
	if err != nil {
		return fmt.Errorf("scheduler: add %s: %w", name, err)
	}
	s.tasks[name] = id
	s.log.Info("added task", zap.String("name", name), zap.String("schedule", schedule))
	return nil
}

// Tasks returns the registered task names.
func (s *Scheduler) Tasks() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.tasks))
	for name := range s.tasks {
		out = append(out, name)
	}
	return out
}

// RunNow executes the named task synchronously.
func (s *Scheduler) RunNow(name string, task TaskFunc) {
	s.run(name, task)
}

func (s *Scheduler) run(name string, task TaskFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	err := task(ctx)
	result := "success"
	if err != nil {
		result = "error"
		s.log.Error("task failed", zap.String("name", name), zap.Error(err))
	} else {
		s.log.Debug("task completed", zap.String("name", name), zap.Duration("latency", time.Since(start)))
	}
	observability.HousekeepingRuns.WithLabelValues(name, result).Inc()
}

// Start begins running tasks.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.cron.Start()
	s.running = true
	s.log.Info("scheduler started", zap.Int("tasks", len(s.tasks)))
}

// Stop waits for running tasks to finish or ctx to end.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.mu.Unlock()

	select {
	case <-s.cron.Stop().Done():
		s.log.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		s.log.Warn("scheduler stop timeout")
		return ctx.Err()
	}
}
