package service

import (
	"errors"
	"fmt"
	"log"
	"time"

	"video-scheduler/internal/models"
	"video-scheduler/internal/timeutil"
)

// PlanNotifier pushes a generated plan to operators
type PlanNotifier interface {
	SendDailyPlan(plan *models.DailyPlan) error
}

// Scheduler triggers schedule generation once per day and runs weekly
// maintenance. It is the only caller of the generator in normal
// operation; the "schedule already exists" guard keeps an overlapping
// trigger harmless.
type Scheduler struct {
	generator    *ScheduleGenerator
	maintenance  *PoolMaintenanceService
	backupSvc    *BackupService
	notifier     PlanNotifier
	generateTime string // Format: "HH:MM"
	stopChan     chan struct{}
}

// NewScheduler creates a new Scheduler
func NewScheduler(
	generator *ScheduleGenerator,
	maintenance *PoolMaintenanceService,
	backupSvc *BackupService,
	notifier PlanNotifier,
	generateTime string,
) *Scheduler {
	return &Scheduler{
		generator:    generator,
		maintenance:  maintenance,
		backupSvc:    backupSvc,
		notifier:     notifier,
		generateTime: generateTime,
		stopChan:     make(chan struct{}),
	}
}

// Start starts all scheduled tasks
func (s *Scheduler) Start() {
	go s.runDailyGeneration()
	go s.runWeeklyMaintenance()
	log.Printf("Scheduler started - Daily generation at %s, Weekly maintenance on Sundays at 03:00", s.generateTime)
}

// Stop stops all scheduled tasks
func (s *Scheduler) Stop() {
	close(s.stopChan)
}

// GenerateNow runs one generation pass for tomorrow outside the timer.
// Used by the CLI mode and shares the trigger's error handling.
func (s *Scheduler) GenerateNow() error {
	return s.generateAndNotify()
}

// runDailyGeneration plans tomorrow's schedule once per day
func (s *Scheduler) runDailyGeneration() {
	for {
		nextRun := s.calculateNextGenerateTime()
		duration := time.Until(nextRun)

		log.Printf("Next schedule generation at %s (in %v)", nextRun.Format("2006-01-02 15:04:05"), duration.Round(time.Minute))

		select {
		case <-time.After(duration):
			if err := s.generateAndNotify(); err != nil {
				log.Printf("Schedule generation failed: %v", err)
			}
		case <-s.stopChan:
			return
		}
	}
}

func (s *Scheduler) generateAndNotify() error {
	targetDate := timeutil.Tomorrow()
	log.Printf("Generating schedule for %s...", targetDate)

	plan, err := s.generator.Generate(targetDate)
	if errors.Is(err, ErrScheduleExists) {
		// A second trigger for the same date is "already done", not a fault.
		log.Printf("Schedule for %s already exists, skipping", targetDate)
		return nil
	}
	if err != nil {
		return err
	}

	log.Printf("Schedule generated for %s: %d videos (%d new, %d old) across %d channels",
		plan.Date, plan.TotalVideos, plan.NewVideos, plan.OldVideos, len(plan.Channels))

	if s.notifier != nil {
		if err := s.notifier.SendDailyPlan(plan); err != nil {
			log.Printf("Failed to send plan notification: %v", err)
		}
	}
	return nil
}

// runWeeklyMaintenance backs up the database and sweeps exhausted
// videos every Sunday at 03:00
func (s *Scheduler) runWeeklyMaintenance() {
	for {
		nextRun := s.calculateNextMaintenanceTime()
		duration := time.Until(nextRun)

		log.Printf("Next maintenance at %s (in %v)", nextRun.Format("2006-01-02 15:04:05"), duration.Round(time.Hour))

		select {
		case <-time.After(duration):
			log.Println("Running weekly maintenance...")
			backupPath, err := s.backupSvc.Backup()
			if err != nil {
				log.Printf("Failed to create backup: %v", err)
			} else {
				log.Printf("Backup created successfully: %s", backupPath)
			}

			sweep, err := s.maintenance.SweepExhausted()
			if err != nil {
				log.Printf("Failed to sweep exhausted videos: %v", err)
			} else {
				log.Printf("Exhaustion sweep done (threshold %d): %d old, %d new videos retired",
					sweep.Threshold, sweep.OldExhausted, sweep.NewExhausted)
			}
		case <-s.stopChan:
			return
		}
	}
}

// calculateNextGenerateTime calculates the next daily generation time
func (s *Scheduler) calculateNextGenerateTime() time.Time {
	now := time.Now()

	hour, minute := 20, 0 // Default to 20:00, plans land before midnight
	if s.generateTime != "" {
		fmt.Sscanf(s.generateTime, "%d:%d", &hour, &minute)
	}

	generateTime := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())

	if now.After(generateTime) {
		generateTime = generateTime.Add(24 * time.Hour)
	}

	return generateTime
}

// calculateNextMaintenanceTime calculates the next Sunday at 03:00
func (s *Scheduler) calculateNextMaintenanceTime() time.Time {
	now := time.Now()

	daysUntilSunday := (7 - int(now.Weekday())) % 7
	if daysUntilSunday == 0 {
		maintenanceTime := time.Date(now.Year(), now.Month(), now.Day(), 3, 0, 0, 0, now.Location())
		if now.After(maintenanceTime) {
			daysUntilSunday = 7
		}
	}

	nextSunday := now.AddDate(0, 0, daysUntilSunday)
	return time.Date(nextSunday.Year(), nextSunday.Month(), nextSunday.Day(), 3, 0, 0, 0, now.Location())
}
