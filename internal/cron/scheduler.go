// Package cron schedules the optional periodic run_health_check trigger
// (SPEC_FULL.md §2, cron scheduling row). It wraps robfig/cron/v3 directly rather
// than reimplementing the teacher's DB-backed scheduled-tasks system,
// since Case Nexus only ever schedules one kind of job per client.
package cron

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
)

// HealthCheckFunc runs a health check for clientID. Scheduler calls it on
// its own goroutine; callers must handle their own error reporting since
// Scheduler has no channel back to a client connection.
type HealthCheckFunc func(ctx context.Context, clientID string)

// Scheduler periodically triggers health checks for a set of clients.
type Scheduler struct {
	cron *cron.Cron
	run  HealthCheckFunc

	mu      sync.Mutex
	entries map[string]cron.EntryID
}

// New creates a Scheduler that invokes run on each fire. Schedule specs are
// six-field cron expressions (seconds minute hour dom month dow), so a
// periodic health check can run more often than once a minute if desired.
func New(run HealthCheckFunc) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithSeconds()),
		run:     run,
		entries: make(map[string]cron.EntryID),
	}
}

// Schedule registers or replaces clientID's periodic health check at spec.
// A client can only have one active schedule at a time; re-scheduling
// replaces the previous entry.
func (s *Scheduler) Schedule(clientID, spec string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.entries[clientID]; ok {
		s.cron.Remove(existing)
		delete(s.entries, clientID)
	}

	id, err := s.cron.AddFunc(spec, func() {
		s.run(context.Background(), clientID)
	})
	if err != nil {
		return fmt.Errorf("schedule health check for %s: %w", clientID, err)
	}
	s.entries[clientID] = id
	return nil
}

// Unschedule removes clientID's periodic health check, if any.
func (s *Scheduler) Unschedule(clientID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.entries[clientID]; ok {
		s.cron.Remove(id)
		delete(s.entries, clientID)
	}
}

// Start begins running scheduled jobs in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the scheduler and waits for any running job to complete.
func (s *Scheduler) Stop(ctx context.Context) error {
	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
