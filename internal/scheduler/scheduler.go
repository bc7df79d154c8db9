// Package scheduler runs recurring agent turns on cron expressions:
// each job analyzes an API input, plans against a goal, and executes a
// fixed message on the resulting agent.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/opentalon/agentsmith/internal/schema"
)

// Job is one recurring agent run.
type Job struct {
	Name     string
	Cron     string
	APIInput string
	Goal     string
	Message  string
	Provider string
}

// Runner executes one scheduled turn end to end.
type Runner interface {
	RunScheduled(ctx context.Context, job Job) (*schema.AgentExecution, error)
}

// RunRecord is the outcome of a job's most recent firing.
type RunRecord struct {
	At      time.Time
	Success bool
	Error   string
}

// Scheduler wraps a cron runner with per-job bookkeeping.
type Scheduler struct {
	cron    *cron.Cron
	runner  Runner
	logger  *zap.Logger
	timeout time.Duration

	mu       sync.RWMutex
	lastRuns map[string]RunRecord
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger attaches a logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(s *Scheduler) { s.logger = l }
}

// WithTimeout bounds one job firing. Default is five minutes.
func WithTimeout(d time.Duration) Option {
	return func(s *Scheduler) { s.timeout = d }
}

// New creates a stopped scheduler; call Start after adding jobs.
func New(runner Runner, opts ...Option) *Scheduler {
	s := &Scheduler{
		cron:     cron.New(),
		runner:   runner,
		logger:   zap.NewNop(),
		timeout:  5 * time.Minute,
		lastRuns: make(map[string]RunRecord),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Add registers a job. The cron field takes the standard five-field
// syntax plus @every descriptors.
func (s *Scheduler) Add(job Job) error {
	if job.Cron == "" {
		return fmt.Errorf("job %s: cron expression is required", job.Name)
	}
	_, err := s.cron.AddFunc(job.Cron, func() { s.fire(job) })
	if err != nil {
		return fmt.Errorf("job %s: %w", job.Name, err)
	}
	return nil
}

func (s *Scheduler) fire(job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	record := RunRecord{At: time.Now()}
	exec, err := s.runner.RunScheduled(ctx, job)
	switch {
	case err != nil:
		record.Error = err.Error()
		s.logger.Warn("scheduled run failed",
			zap.String("job", job.Name),
			zap.Error(err))
	case !exec.Success:
		record.Error = exec.Error
		s.logger.Warn("scheduled turn did not succeed",
			zap.String("job", job.Name),
			zap.String("error", exec.Error))
	default:
		record.Success = true
		s.logger.Info("scheduled run complete",
			zap.String("job", job.Name),
			zap.Int("function_calls", len(exec.FunctionCalls)))
	}

	s.mu.Lock()
	s.lastRuns[job.Name] = record
	s.mu.Unlock()
}

// LastRun reports the outcome of a job's most recent firing.
func (s *Scheduler) LastRun(name string) (RunRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.lastRuns[name]
	return record, ok
}

// Start begins firing jobs on their schedules.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits for in-flight jobs.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
