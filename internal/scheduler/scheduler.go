// Package scheduler runs the periodic rental jobs on cron schedules.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultJobTimeout bounds a single job run.
const DefaultJobTimeout = 5 * time.Minute

// Job is a named periodic task. Run reports how many records it touched.
type Job struct {
	Name string
	Spec string
	Run  func(ctx context.Context) (int, error)
}

// Scheduler wraps a seconds-precision cron running in UTC.
type Scheduler struct {
	cron    *cron.Cron
	logger  *slog.Logger
	timeout time.Duration

	// Job runs derive from ctx; Stop cancels it.
	parent context.Context
	ctx    context.Context
	cancel context.CancelFunc

	mu   sync.Mutex
	jobs map[string]Job
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the logger used for job runs.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) { s.logger = l }
}

// WithTimeout sets the per-run deadline.
func WithTimeout(d time.Duration) Option {
	return func(s *Scheduler) { s.timeout = d }
}

// WithContext sets the parent context of every job run.
func WithContext(ctx context.Context) Option {
	return func(s *Scheduler) { s.parent = ctx }
}

// New creates a scheduler and registers jobs. It fails on the first job
// whose spec does not parse.
func New(jobs []Job, opts ...Option) (*Scheduler, error) {
	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithSeconds(),
		),
		logger:  slog.Default(),
		timeout: DefaultJobTimeout,
		parent:  context.Background(),
		jobs:    make(map[string]Job),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.ctx, s.cancel = context.WithCancel(s.parent)

	for _, job := range jobs {
		if err := s.Register(job); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Register adds a job to the schedule.
func (s *Scheduler) Register(job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if job.Name == "" || job.Run == nil {
		return errors.New("job needs a name and a run function")
	}
	if _, ok := s.jobs[job.Name]; ok {
		return fmt.Errorf("job %q already registered", job.Name)
	}

	if _, err := s.cron.AddFunc(job.Spec, func() { s.runWithRecovery(job) }); err != nil {
		return fmt.Errorf("registering job %q: %w", job.Name, err)
	}
	s.jobs[job.Name] = job
	s.logger.Debug("job registered", "job", job.Name, "spec", job.Spec)
	return nil
}

// RunNow executes a registered job synchronously, outside its schedule.
func (s *Scheduler) RunNow(name string) (int, error) {
	s.mu.Lock()
	job, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return 0, fmt.Errorf("unknown job %q", name)
	}
	return s.run(job)
}

// Start begins running jobs in the background.
func (s *Scheduler) Start() {
	s.logger.Info("starting scheduler", "jobs", len(s.cron.Entries()))
	s.cron.Start()
}

// Stop halts the schedule, cancels running jobs and waits for them to
// return.
func (s *Scheduler) Stop() {
	done := s.cron.Stop()
	s.cancel()
	<-done.Done()
	s.logger.Info("scheduler stopped")
}

// Len returns the number of scheduled jobs.
func (s *Scheduler) Len() int {
	return len(s.cron.Entries())
}

func (s *Scheduler) runWithRecovery(job Job) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("job panicked", "job", job.Name, "panic", r)
		}
	}()
	_, _ = s.run(job)
}

func (s *Scheduler) run(job Job) (int, error) {
	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()

	start := time.Now()
	n, err := job.Run(ctx)
	if err != nil {
		s.logger.Error("job failed", "job", job.Name, "error", err, "duration", time.Since(start))
		return n, err
	}
	s.logger.Info("job completed", "job", job.Name, "affected", n, "duration", time.Since(start))
	return n, nil
}
