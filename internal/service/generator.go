package service

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"video-scheduler/internal/models"
	"video-scheduler/internal/repository"
	"video-scheduler/internal/timeutil"
)

const (
	// sameChannelWindowDays is the exclusion window against repeats on
	// the same channel.
	sameChannelWindowDays = 15
	// crossChannelWindowDays is the exclusion window against repeats
	// across other channels.
	crossChannelWindowDays = 10
	// newVideoStartDay is the first day number on which a daily batch
	// includes a new-pool video.
	newVideoStartDay = 6
	// overFetchFactor pads pool queries because the pool-level filter
	// is looser than the authoritative per-candidate recheck.
	overFetchFactor = 3

	defaultVideosPerChannel = 4
)

var (
	// ErrConfigMissing means the singleton schedule config row is absent
	ErrConfigMissing = errors.New("schedule config not found")
	// ErrSystemPaused means generation is administratively disabled
	ErrSystemPaused = errors.New("schedule generation is paused")
	// ErrNoActiveChannels means there is nothing to schedule for
	ErrNoActiveChannels = errors.New("no active target channels configured")
	// ErrScheduleExists is the idempotency guard against double generation
	ErrScheduleExists = errors.New("schedule already exists for date")
)

// EligibilityError reports that a pool could not supply enough eligible
// candidates for one channel. The whole run fails; partial schedules
// are never committed.
type EligibilityError struct {
	ChannelName string
	VideoType   models.VideoType
	Needed      int
	Found       int
}

func (e *EligibilityError) Error() string {
	return fmt.Sprintf("not enough eligible %s videos for channel %s: need %d, found %d",
		e.VideoType, e.ChannelName, e.Needed, e.Found)
}

// DuplicateAssignmentError reports a video assigned twice within one
// generated plan. This is an invariant violation in the exclusion-set
// logic, never a recoverable condition.
type DuplicateAssignmentError struct {
	VideoID string
}

func (e *DuplicateAssignmentError) Error() string {
	return fmt.Sprintf("duplicate video assignment in generated plan: %s", e.VideoID)
}

// ScheduleGenerator allocates pool videos to target channels, one plan
// per calendar date.
type ScheduleGenerator struct {
	configRepo   *repository.ConfigRepository
	scheduleRepo *repository.ScheduleRepository
	usageRepo    *repository.UsageRepository
	oldPool      *repository.PoolRepository
	newPool      *repository.PoolRepository
	rng          *rand.Rand
}

// NewScheduleGenerator creates a new ScheduleGenerator
func NewScheduleGenerator(
	configRepo *repository.ConfigRepository,
	scheduleRepo *repository.ScheduleRepository,
	usageRepo *repository.UsageRepository,
	oldPool *repository.PoolRepository,
	newPool *repository.PoolRepository,
) *ScheduleGenerator {
	return &ScheduleGenerator{
		configRepo:   configRepo,
		scheduleRepo: scheduleRepo,
		usageRepo:    usageRepo,
		oldPool:      oldPool,
		newPool:      newPool,
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Generate plans and persists the schedule for targetDate. An empty
// date defaults to tomorrow. The whole multi-channel plan is computed
// in memory and validated before anything is written; every fatal error
// leaves zero rows behind.
func (g *ScheduleGenerator) Generate(targetDate string) (*models.DailyPlan, error) {
	if targetDate == "" {
		targetDate = timeutil.Tomorrow()
	}
	if _, err := time.Parse(timeutil.DateLayout, targetDate); err != nil {
		return nil, fmt.Errorf("invalid target date %q: %w", targetDate, err)
	}

	cfg, err := g.configRepo.Get()
	if err != nil {
		return nil, fmt.Errorf("failed to load schedule config: %w", err)
	}
	if cfg == nil {
		return nil, ErrConfigMissing
	}
	if cfg.SystemStatus != models.SystemStatusActive {
		return nil, ErrSystemPaused
	}

	channels, err := g.configRepo.GetActiveChannels()
	if err != nil {
		return nil, fmt.Errorf("failed to load target channels: %w", err)
	}
	if len(channels) == 0 {
		return nil, ErrNoActiveChannels
	}

	exists, err := g.scheduleRepo.ExistsForDate(targetDate)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing schedule: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("%w: %s", ErrScheduleExists, targetDate)
	}

	day := dayNumber(cfg.SystemStartDate, targetDate)
	newCount, oldCount := composition(day, cfg.VideosPerChannel)

	plan := &models.DailyPlan{
		Date:      targetDate,
		DayNumber: day,
	}

	// Ids taken earlier in this run. Threaded through the channel loop
	// explicitly so cross-channel collisions are impossible within one
	// plan; channels must therefore be planned sequentially.
	usedToday := make(map[string]bool)
	var usedOrder []string

	for _, ch := range channels {
		channelPlan, err := g.planChannel(ch, targetDate, newCount, oldCount, usedToday)
		if err != nil {
			return nil, err
		}

		for _, v := range channelPlan.Videos {
			usedOrder = append(usedOrder, v.VideoID)
			usedToday[v.VideoID] = true
			if v.VideoType == models.VideoTypeNew {
				plan.NewVideos++
			} else {
				plan.OldVideos++
			}
		}
		plan.TotalVideos += len(channelPlan.Videos)
		plan.Channels = append(plan.Channels, *channelPlan)
	}

	if err := validateNoDuplicates(usedOrder); err != nil {
		return nil, err
	}

	if err := g.scheduleRepo.BulkInsert(targetDate, plan); err != nil {
		return nil, fmt.Errorf("failed to persist schedule: %w", err)
	}

	// The schedule rows are the primary correctness guarantee. Tracker
	// and pool-counter lag only makes the next run's exclusions more
	// conservative, so failures here are logged and not rolled back.
	g.commitUsage(targetDate, plan)

	if err := g.configRepo.SetLastGeneratedDate(targetDate); err != nil {
		fmt.Printf("Warning: failed to update last generated date: %v\n", err)
	}

	return plan, nil
}

// planChannel selects, shuffles and slot-numbers one channel's batch.
// usedToday is read-only here; the caller appends after a successful plan.
func (g *ScheduleGenerator) planChannel(
	ch models.TargetChannel,
	targetDate string,
	newCount, oldCount int,
	usedToday map[string]bool,
) (*models.ChannelPlan, error) {
	sinceSame := timeutil.DaysAgo(targetDate, sameChannelWindowDays)
	sinceCross := timeutil.DaysAgo(targetDate, crossChannelWindowDays)

	sameUsed, err := g.usageRepo.GetUsedVideoIDs(repository.ScopeSameChannel, ch.ID, sinceSame)
	if err != nil {
		return nil, fmt.Errorf("failed to load same-channel exclusions for %s: %w", ch.Name, err)
	}
	crossUsed, err := g.usageRepo.GetUsedVideoIDs(repository.ScopeOtherChannels, ch.ID, sinceCross)
	if err != nil {
		return nil, fmt.Errorf("failed to load cross-channel exclusions for %s: %w", ch.Name, err)
	}

	excludeAll := make(map[string]bool, len(sameUsed)+len(crossUsed)+len(usedToday))
	for id := range sameUsed {
		excludeAll[id] = true
	}
	for id := range crossUsed {
		excludeAll[id] = true
	}
	for id := range usedToday {
		excludeAll[id] = true
	}

	newPicks, err := g.selectEligible(g.newPool, repository.SortNewestFirst, models.VideoTypeNew, newCount, excludeAll, ch, sinceSame, sinceCross)
	if err != nil {
		return nil, err
	}
	oldPicks, err := g.selectEligible(g.oldPool, repository.SortMostViewed, models.VideoTypeOld, oldCount, excludeAll, ch, sinceSame, sinceCross)
	if err != nil {
		return nil, err
	}

	// Shuffle so slot order does not correlate with new/old type.
	videos := append(newPicks, oldPicks...)
	g.shuffle(videos)
	for i := range videos {
		videos[i].SlotNumber = i + 1
	}

	return &models.ChannelPlan{
		ChannelID:   ch.ID,
		ChannelName: ch.Name,
		Videos:      videos,
	}, nil
}

// selectEligible over-fetches loose candidates from a pool, then runs
// the authoritative per-candidate recheck against the usage tracker.
// Accepted ids are added to excludeAll so later selections in the same
// channel cannot collide.
func (g *ScheduleGenerator) selectEligible(
	pool *repository.PoolRepository,
	sort repository.PoolSort,
	videoType models.VideoType,
	count int,
	excludeAll map[string]bool,
	ch models.TargetChannel,
	sinceSame, sinceCross string,
) ([]models.PlannedVideo, error) {
	if count <= 0 {
		return nil, nil
	}

	candidates, err := pool.GetAvailable(excludeAll, count*overFetchFactor, sort)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s for channel %s: %w", pool.Table(), ch.Name, err)
	}

	var picked []models.PlannedVideo
	for _, c := range candidates {
		if len(picked) == count {
			break
		}
		// The pool snapshot may already be stale against this run.
		if excludeAll[c.VideoID] {
			continue
		}

		usedSame, err := g.usageRepo.WasUsed(c.VideoID, repository.ScopeSameChannel, ch.ID, sinceSame)
		if err != nil {
			return nil, fmt.Errorf("failed to recheck %s: %w", c.VideoID, err)
		}
		usedCross, err := g.usageRepo.WasUsed(c.VideoID, repository.ScopeOtherChannels, ch.ID, sinceCross)
		if err != nil {
			return nil, fmt.Errorf("failed to recheck %s: %w", c.VideoID, err)
		}
		if usedSame || usedCross {
			continue
		}

		picked = append(picked, models.PlannedVideo{
			VideoID:    c.VideoID,
			VideoTitle: c.Title,
			VideoType:  videoType,
		})
		excludeAll[c.VideoID] = true
	}

	if len(picked) < count {
		return nil, &EligibilityError{
			ChannelName: ch.Name,
			VideoType:   videoType,
			Needed:      count,
			Found:       len(picked),
		}
	}
	return picked, nil
}

// commitUsage records every assignment in the usage tracker and bumps
// pool counters. Tracker first: it is the correctness source for future
// exclusion queries, the pool counter is best-effort telemetry.
func (g *ScheduleGenerator) commitUsage(targetDate string, plan *models.DailyPlan) {
	for _, channel := range plan.Channels {
		for _, v := range channel.Videos {
			if err := g.usageRepo.Record(v.VideoID, targetDate, channel.ChannelID, channel.ChannelName); err != nil {
				fmt.Printf("Warning: failed to record usage for %s on %s: %v\n", v.VideoID, channel.ChannelName, err)
			}

			pool := g.oldPool
			if v.VideoType == models.VideoTypeNew {
				pool = g.newPool
			}
			if err := pool.MarkUsed(v.VideoID, targetDate); err != nil {
				fmt.Printf("Warning: failed to mark %s used in %s: %v\n", v.VideoID, pool.Table(), err)
			}
		}
	}
}

// shuffle is an in-place Fisher-Yates over the combined selection
func (g *ScheduleGenerator) shuffle(videos []models.PlannedVideo) {
	for i := len(videos) - 1; i > 0; i-- {
		j := g.rng.Intn(i + 1)
		videos[i], videos[j] = videos[j], videos[i]
	}
}

// validateNoDuplicates enforces the whole-plan uniqueness invariant
func validateNoDuplicates(videoIDs []string) error {
	seen := make(map[string]bool, len(videoIDs))
	for _, id := range videoIDs {
		if seen[id] {
			return &DuplicateAssignmentError{VideoID: id}
		}
		seen[id] = true
	}
	return nil
}

// dayNumber counts days since the configured start date, starting at 1.
// An unset start date defaults to day 1.
func dayNumber(startDate, targetDate string) int {
	if startDate == "" {
		return 1
	}
	days, err := timeutil.DaysBetween(startDate, targetDate)
	if err != nil {
		return 1
	}
	return days + 1
}

// composition returns the new/old counts for one channel on a day
func composition(day, videosPerChannel int) (newCount, oldCount int) {
	if videosPerChannel <= 0 {
		videosPerChannel = defaultVideosPerChannel
	}
	if day < newVideoStartDay {
		return 0, videosPerChannel
	}
	return 1, videosPerChannel - 1
}
