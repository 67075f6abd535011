// Package scheduler provides automated dataset refresh scheduling for the
// mediscan API. It performs the initial DRAP load, schedules a daily reload,
// and warns when the reference data goes stale.
package scheduler

import (
	"time"

	"github.com/go-co-op/gocron"
	"github.com/mediscan/mediscan-api/interfaces"
	"github.com/mediscan/mediscan-api/logging"
)

// Compile-time check to ensure Scheduler implements Scheduler interface
var _ interfaces.Scheduler = (*Scheduler)(nil)

// Scheduler coordinates dataset reloads using dependency injection
type Scheduler struct {
	dataStore interfaces.DataStore
	loader    interfaces.DatasetLoader
	scheduler *gocron.Scheduler
	stopMon   chan struct{}
}

// NewScheduler creates a new scheduler instance with injected dependencies
func NewScheduler(dataStore interfaces.DataStore, loader interfaces.DatasetLoader) *Scheduler {
	return &Scheduler{
		dataStore: dataStore,
		loader:    loader,
		scheduler: gocron.NewScheduler(time.Local),
		stopMon:   make(chan struct{}),
	}
}

// Start performs the initial dataset load and schedules a daily reload at
// 05:00. The initial load is allowed to fail: a missing dataset degrades
// the index to empty, it never blocks startup.
func (s *Scheduler) Start() error {
	s.reload()

	if _, err := s.scheduler.Every(1).Days().At("05:00").Do(s.reload); err != nil {
		logging.Error("Failed to schedule dataset reloads", "error", err)
		return err
	}

	s.scheduler.StartAsync()
	s.startStalenessMonitoring()

	return nil
}

// Stop stops the scheduler and its monitoring goroutine.
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
	close(s.stopMon)
}

// reload loads the dataset and swaps the index. A load failure keeps the
// previous index when one exists, and leaves an empty index otherwise.
func (s *Scheduler) reload() {
	if !s.dataStore.BeginUpdate() {
		logging.Info("Dataset reload already in progress, skipping...")
		return
	}
	defer s.dataStore.EndUpdate()

	start := time.Now()
	records, err := s.loader.LoadDataset()
	if err != nil {
		if s.dataStore.RecordCount() > 0 {
			logging.Warn("Dataset reload failed, keeping previous index", "error", err)
			return
		}
		logging.Warn("Dataset unavailable, continuing with empty index", "error", err)
		s.dataStore.LoadRecords(nil)
		return
	}

	s.dataStore.LoadRecords(records)
	logging.Info("Dataset loaded", "records", len(records), "duration", time.Since(start).String())
}

// startStalenessMonitoring warns hourly when the dataset has not been
// refreshed for over 25 hours.
func (s *Scheduler) startStalenessMonitoring() {
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()

		for {
			select {
			case <-s.stopMon:
				return
			case <-ticker.C:
				lastLoaded := s.dataStore.GetLastLoaded()
				if !lastLoaded.IsZero() && time.Since(lastLoaded) > 25*time.Hour {
					logging.Warn("Reference dataset hasn't been refreshed in over 25 hours",
						"last_loaded", lastLoaded.Format(time.RFC3339))
				}
			}
		}
	}()
}
