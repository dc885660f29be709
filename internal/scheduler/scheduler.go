// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler runs the blog's periodic maintenance jobs.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/olegiv/ocms-blog/internal/model"
)

// ErrUnknownJob is returned by Trigger for a name that was never added.
var ErrUnknownJob = errors.New("scheduler: unknown job")

// DefaultJobTimeout bounds a single run.
const DefaultJobTimeout = 10 * time.Minute

// JobFunc is the body of a job.
type JobFunc func(ctx context.Context) error

type job struct {
	name        string
	description string
	schedule    string
	entryID     cron.EntryID
	fn          JobFunc

	mu      sync.Mutex
	lastRun time.Time
	lastErr error
}

// JobInfo is the public view of a registered job.
type JobInfo struct {
	Name        string
	Description string
	Schedule    string
	LastRun     time.Time
	LastError   error
	NextRun     time.Time
}

// Scheduler wraps a cron instance. Runs of one job never overlap and a
// panicking job is recovered.
type Scheduler struct {
	cron    *cron.Cron
	logger  *slog.Logger
	timeout time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	mu   sync.RWMutex
	jobs map[string]*job
}

// New creates a new scheduler instance.
func New(logger *slog.Logger) *Scheduler {
	cl := cronLogger{logger: logger}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:    cron.New(cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		logger:  logger,
		timeout: DefaultJobTimeout,
		ctx:     ctx,
		cancel:  cancel,
		jobs:    make(map[string]*job),
	}
}

// Add schedules fn under name. schedule is a standard five-field cron
// expression or a descriptor such as "@hourly" or "@every 30m".
func (s *Scheduler) Add(name, description, schedule string, fn JobFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[name]; ok {
		return fmt.Errorf("job %q already added", name)
	}
	j := &job{name: name, description: description, schedule: schedule, fn: fn}
	id, err := s.cron.AddFunc(schedule, func() { s.run(s.ctx, j) })
	if err != nil {
		return fmt.Errorf("scheduling job %q: %w", name, err)
	}
	j.entryID = id
	s.jobs[name] = j
	return nil
}

// Trigger runs a job now, outside its schedule, and returns its error.
func (s *Scheduler) Trigger(ctx context.Context, name string) error {
	s.mu.RLock()
	j, ok := s.jobs[name]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}
	return s.run(ctx, j)
}

func (s *Scheduler) run(ctx context.Context, j *job) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	err := j.fn(ctx)

	j.mu.Lock()
	j.lastRun = start
	j.lastErr = err
	j.mu.Unlock()

	if err != nil {
		s.logger.Error("scheduled job failed", "category", model.EventCategorySystem, "job", j.name, "error", err)
		return err
	}
	s.logger.Debug("scheduled job finished", "job", j.name, "duration", time.Since(start).Round(time.Millisecond))
	return nil
}

// Jobs lists the registered jobs sorted by name.
func (s *Scheduler) Jobs() []JobInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]JobInfo, 0, len(s.jobs))
	for _, j := range s.jobs {
		j.mu.Lock()
		info := JobInfo{
			Name:        j.name,
			Description: j.description,
			Schedule:    j.schedule,
			LastRun:     j.lastRun,
			LastError:   j.lastErr,
			NextRun:     s.cron.Entry(j.entryID).Next,
		}
		j.mu.Unlock()
		out = append(out, info)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Name < out[b].Name })
	return out
}

// Start begins running jobs on their schedules.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))
}

// Stop cancels running jobs and waits for them to return.
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	args := append([]any{"category", model.EventCategorySystem, "error", err}, keysAndValues...)
	l.logger.Error("cron: "+msg, args...)
}
