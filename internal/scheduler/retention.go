// Package scheduler runs periodic maintenance jobs on the task store.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/taskorbit/taskorbit/internal/config"
	"github.com/taskorbit/taskorbit/internal/database"
	"github.com/taskorbit/taskorbit/internal/database/tasks"
)

// RetentionScheduler purges completed tasks older than the configured age.
type RetentionScheduler struct {
	db  *database.Database
	cfg config.Retention

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.Mutex
	isRunning  bool
	cancelFunc context.CancelFunc
}

// NewRetentionScheduler creates a new scheduler instance.
func NewRetentionScheduler(db *database.Database, cfg config.Retention) *RetentionScheduler {
	return &RetentionScheduler{
		db:   db,
		cfg:  cfg,
		cron: cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow))),
	}
}

// Start begins the scheduler if retention is enabled.
func (s *RetentionScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if !s.cfg.Enabled {
		log.Printf("Retention scheduler: disabled")
		return nil
	}

	entryID, err := s.cron.AddFunc(s.cfg.Schedule, func() {
		s.runPurge()
	})
	if err != nil {
		return fmt.Errorf("invalid retention schedule %q: %w", s.cfg.Schedule, err)
	}
	s.entryID = entryID

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	log.Printf("Retention scheduler: started with schedule %q, purging tasks completed more than %s ago",
		s.cfg.Schedule, s.cfg.MaxAge)

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop gracefully stops the scheduler, waiting for a running purge to finish.
func (s *RetentionScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()

	s.isRunning = false
	// Release the derived context so the shutdown watcher goroutine exits
	// even when Stop is called directly.
	s.cancelFunc()
	s.cancelFunc = nil

	log.Printf("Retention scheduler: stopped")
}

// RunNow executes a purge immediately, outside the schedule.
func (s *RetentionScheduler) RunNow() (int64, error) {
	cutoff := time.Now().Add(-s.cfg.MaxAge)
	return tasks.NewRepository(s.db.DB).PurgeCompletedBefore(cutoff)
}

func (s *RetentionScheduler) runPurge() {
	purged, err := s.RunNow()
	if err != nil {
		log.Printf("Retention scheduler: purge failed: %v", err)
		return
	}
	if purged > 0 {
		log.Printf("Retention scheduler: purged %d completed tasks", purged)
	}
}
