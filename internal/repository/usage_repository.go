package repository

import (
	"video-scheduler/internal/models"
	"video-scheduler/internal/timeutil"
)

// UsageScope selects which channels an exclusion query covers
type UsageScope string

const (
	// ScopeSameChannel matches usage by the given channel only
	ScopeSameChannel UsageScope = "same"
	// ScopeOtherChannels matches usage by any channel except the given one
	ScopeOtherChannels UsageScope = "other"
)

// UsageRepository handles the append-only video usage ledger
type UsageRepository struct {
	db dbtx
}

// NewUsageRepository creates a new UsageRepository
func NewUsageRepository(sqliteDB *SQLiteDB) *UsageRepository {
	return &UsageRepository{db: sqliteDB.db}
}

// Record appends one usage entry. An exact duplicate of an existing
// (video, date, channel) row is silently ignored so retried commits
// never abort a run.
func (r *UsageRepository) Record(videoID, usedDate string, channelID int64, channelName string) error {
	_, err := r.db.Exec(`
		INSERT OR IGNORE INTO video_usage_tracker (video_id, used_date, target_channel_id, target_channel_name, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, videoID, usedDate, channelID, channelName, timeutil.Now())
	return err
}

// GetUsedVideoIDs returns the set of video ids used within
// [sinceDate, today] under the given scope.
func (r *UsageRepository) GetUsedVideoIDs(scope UsageScope, channelID int64, sinceDate string) (map[string]bool, error) {
	query := `
		SELECT DISTINCT video_id FROM video_usage_tracker
		WHERE used_date >= ? AND target_channel_id = ?
	`
	if scope == ScopeOtherChannels {
		query = `
		SELECT DISTINCT video_id FROM video_usage_tracker
		WHERE used_date >= ? AND target_channel_id != ?
	`
	}

	rows, err := r.db.Query(query, sinceDate, channelID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids[id] = true
	}
	return ids, rows.Err()
}

// WasUsed reports whether a single video appears in the ledger within
// [sinceDate, today] under the given scope. The generator uses this as
// the authoritative per-candidate recheck after the looser pool query.
func (r *UsageRepository) WasUsed(videoID string, scope UsageScope, channelID int64, sinceDate string) (bool, error) {
	query := `
		SELECT COUNT(*) FROM video_usage_tracker
		WHERE video_id = ? AND used_date >= ? AND target_channel_id = ?
	`
	if scope == ScopeOtherChannels {
		query = `
		SELECT COUNT(*) FROM video_usage_tracker
		WHERE video_id = ? AND used_date >= ? AND target_channel_id != ?
	`
	}

	var count int
	if err := r.db.QueryRow(query, videoID, sinceDate, channelID).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetByDate retrieves all usage entries for one date, newest first
func (r *UsageRepository) GetByDate(usedDate string) ([]models.UsageEntry, error) {
	rows, err := r.db.Query(`
		SELECT id, video_id, used_date, target_channel_id, target_channel_name, created_at
		FROM video_usage_tracker WHERE used_date = ? ORDER BY id DESC
	`, usedDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.UsageEntry
	for rows.Next() {
		var e models.UsageEntry
		if err := rows.Scan(&e.ID, &e.VideoID, &e.UsedDate, &e.TargetChannelID, &e.TargetChannelName, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Wipe deletes the whole ledger. Administrative reset only; normal
// operation never deletes usage rows.
func (r *UsageRepository) Wipe() error {
	_, err := r.db.Exec(`DELETE FROM video_usage_tracker`)
	return err
}
