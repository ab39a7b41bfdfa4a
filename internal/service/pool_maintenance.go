package service

import (
	"fmt"

	"video-scheduler/internal/models"
	"video-scheduler/internal/monitor"
	"video-scheduler/internal/repository"
)

const syncFetchLimit = 50

// SyncResult contains the results of a new-pool sync operation
type SyncResult struct {
	Added   int `json:"added"`
	Updated int `json:"updated"`
	Errors  int `json:"errors"`
}

// SweepResult contains the results of an exhaustion sweep
type SweepResult struct {
	Threshold    int   `json:"threshold"`
	OldExhausted int64 `json:"old_exhausted"`
	NewExhausted int64 `json:"new_exhausted"`
}

// PoolStats summarizes both pools for dashboards
type PoolStats struct {
	Old map[models.PoolStatus]int `json:"old"`
	New map[models.PoolStatus]int `json:"new"`
}

// PoolMaintenanceService keeps the candidate pools fed and trimmed:
// it syncs freshly processed videos from the monitoring pipeline into
// the new pool and sweeps over-scheduled videos into exhausted state.
type PoolMaintenanceService struct {
	monitorClient *monitor.Client
	configRepo    *repository.ConfigRepository
	oldPool       *repository.PoolRepository
	newPool       *repository.PoolRepository
}

// NewPoolMaintenanceService creates a new PoolMaintenanceService
func NewPoolMaintenanceService(
	monitorClient *monitor.Client,
	configRepo *repository.ConfigRepository,
	oldPool *repository.PoolRepository,
	newPool *repository.PoolRepository,
) *PoolMaintenanceService {
	return &PoolMaintenanceService{
		monitorClient: monitorClient,
		configRepo:    configRepo,
		oldPool:       oldPool,
		newPool:       newPool,
	}
}

// SyncNewVideos pulls recently processed videos from the monitoring
// pipeline and upserts them into the new pool. Per-video failures are
// counted and skipped, not fatal.
func (s *PoolMaintenanceService) SyncNewVideos() (*SyncResult, error) {
	videos, err := s.monitorClient.GetRecentVideos(syncFetchLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch videos from monitoring pipeline: %w", err)
	}

	result := &SyncResult{}
	for _, v := range videos {
		existing, err := s.newPool.GetByVideoID(v.VideoID)
		if err != nil {
			fmt.Printf("Warning: failed to look up pool video %s: %v\n", v.VideoID, err)
			result.Errors++
			continue
		}

		pv := &models.PoolVideo{
			VideoID:   v.VideoID,
			Title:     v.Title,
			Duration:  v.Duration,
			ViewCount: v.ViewCount,
		}
		if err := s.newPool.Upsert(pv); err != nil {
			fmt.Printf("Warning: failed to upsert pool video %s: %v\n", v.VideoID, err)
			result.Errors++
			continue
		}

		if existing == nil {
			result.Added++
		} else {
			result.Updated++
		}
	}

	return result, nil
}

// SweepExhausted marks over-scheduled videos exhausted in both pools,
// using the configured threshold. The generator never triggers this;
// it runs as scheduled maintenance or on operator request.
func (s *PoolMaintenanceService) SweepExhausted() (*SweepResult, error) {
	cfg, err := s.configRepo.Get()
	if err != nil {
		return nil, fmt.Errorf("failed to load schedule config: %w", err)
	}
	if cfg == nil {
		return nil, ErrConfigMissing
	}

	oldCount, err := s.oldPool.MarkExhausted(cfg.ExhaustThreshold)
	if err != nil {
		return nil, fmt.Errorf("failed to sweep old pool: %w", err)
	}
	newCount, err := s.newPool.MarkExhausted(cfg.ExhaustThreshold)
	if err != nil {
		return nil, fmt.Errorf("failed to sweep new pool: %w", err)
	}

	return &SweepResult{
		Threshold:    cfg.ExhaustThreshold,
		OldExhausted: oldCount,
		NewExhausted: newCount,
	}, nil
}

// Stats returns per-status counts for both pools
func (s *PoolMaintenanceService) Stats() (*PoolStats, error) {
	oldCounts, err := s.oldPool.CountByStatus()
	if err != nil {
		return nil, fmt.Errorf("failed to count old pool: %w", err)
	}
	newCounts, err := s.newPool.CountByStatus()
	if err != nil {
		return nil, fmt.Errorf("failed to count new pool: %w", err)
	}
	return &PoolStats{Old: oldCounts, New: newCounts}, nil
}
