// Package scheduler runs periodic library exports on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mrlokans/bookshelf/internal/exporters"
)

const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// LibrariesExporter exports every stored library.
type LibrariesExporter interface {
	ExportAll(ctx context.Context) ([]exporters.ExportResult, error)
}

// StatusStore persists the outcome of the last run.
type StatusStore interface {
	SetExportStatus(status, message string, count int) error
}

// ExportScheduler manages periodic exports of all stored libraries.
type ExportScheduler struct {
	exporter LibrariesExporter
	status   StatusStore
	schedule string
	timeout  time.Duration

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	cancelFunc context.CancelFunc
	exporting  atomic.Bool
}

// NewExportScheduler creates a new scheduler instance. timeout bounds a
// single run; zero means no bound.
func NewExportScheduler(exporter LibrariesExporter, status StatusStore, schedule string, timeout time.Duration) *ExportScheduler {
	return &ExportScheduler{
		exporter: exporter,
		status:   status,
		schedule: schedule,
		timeout:  timeout,
		cron:     cron.New(cron.WithParser(cronParser)),
	}
}

// Start registers the export job and starts the cron loop. The scheduler
// stops by itself when ctx is cancelled.
func (s *ExportScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if err := ValidateCronSchedule(s.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", s.schedule, err)
	}

	entryID, err := s.cron.AddFunc(s.schedule, s.runExport)
	if err != nil {
		return fmt.Errorf("failed to schedule export job: %w", err)
	}
	s.entryID = entryID

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	nextRun, _ := NextRunTime(s.schedule, time.Now())
	log.Printf("Export scheduler: started with schedule '%s' (%s). Next run: %v",
		s.schedule, CronDescription(s.schedule), nextRun)

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop waits for a running export to finish and stops the scheduler.
func (s *ExportScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()

	s.cron.Remove(s.entryID)
	if s.cancelFunc != nil {
		s.cancelFunc()
	}
	s.isRunning = false
	s.cancelFunc = nil

	log.Printf("Export scheduler: stopped")
}

// RunNow triggers an immediate export in the background.
func (s *ExportScheduler) RunNow() {
	go s.runExport()
}

// Schedule returns the cron expression of the export job.
func (s *ExportScheduler) Schedule() string {
	return s.schedule
}

// IsRunning returns whether the scheduler is active.
func (s *ExportScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextRun returns when the next export will occur.
func (s *ExportScheduler) NextRun() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}

	for _, entry := range s.cron.Entries() {
		if entry.ID == s.entryID {
			t := entry.Next
			return &t
		}
	}
	return nil
}

func (s *ExportScheduler) runExport() {
	if !s.exporting.CompareAndSwap(false, true) {
		log.Printf("Export scheduler: previous run still in progress, skipping")
		return
	}
	defer s.exporting.Store(false)

	ctx := context.Background()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	log.Printf("Export scheduler: starting export of all libraries")
	startTime := time.Now()

	results, err := s.exporter.ExportAll(ctx)
	if err != nil {
		errMsg := fmt.Sprintf("Exported %d libraries, then failed: %v", len(results), err)
		log.Printf("Export scheduler: %s", errMsg)
		s.recordStatus(StatusFailed, errMsg, len(results))
		return
	}

	books := 0
	for _, r := range results {
		books += r.Books
	}
	successMsg := fmt.Sprintf("Exported %d libraries, %d books in %v",
		len(results), books, time.Since(startTime).Round(time.Millisecond))
	log.Printf("Export scheduler: %s", successMsg)
	s.recordStatus(StatusSuccess, successMsg, len(results))
}

func (s *ExportScheduler) recordStatus(status, message string, count int) {
	if s.status == nil {
		return
	}
	if err := s.status.SetExportStatus(status, message, count); err != nil {
		log.Printf("Export scheduler: failed to record status: %v", err)
	}
}
