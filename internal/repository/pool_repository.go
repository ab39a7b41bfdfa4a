package repository

import (
	"database/sql"
	"fmt"
	"strings"

	"video-scheduler/internal/models"
	"video-scheduler/internal/timeutil"
)

// PoolSort selects the candidate ranking of GetAvailable
type PoolSort string

const (
	// SortMostViewed ranks by engagement, highest view count first
	SortMostViewed PoolSort = "most_viewed"
	// SortNewestFirst ranks by recency of arrival in the pool
	SortNewestFirst PoolSort = "newest_first"
)

// PoolRepository handles one candidate-video pool table. The old and
// new pools share a shape and differ only in table name and default
// ranking, so both are served by this type.
type PoolRepository struct {
	db    dbtx
	table string
}

// NewOldPoolRepository creates the repository over the old-video pool
func NewOldPoolRepository(sqliteDB *SQLiteDB) *PoolRepository {
	return &PoolRepository{db: sqliteDB.db, table: "video_pool_old"}
}

// NewNewPoolRepository creates the repository over the new-video pool
func NewNewPoolRepository(sqliteDB *SQLiteDB) *PoolRepository {
	return &PoolRepository{db: sqliteDB.db, table: "video_pool_new"}
}

// Table returns the backing table name
func (r *PoolRepository) Table() string {
	return r.table
}

// Upsert inserts a candidate or refreshes title, duration and view
// count of an existing one. Usage counters are never reset by a sync.
func (r *PoolRepository) Upsert(video *models.PoolVideo) error {
	now := timeutil.Now()
	result, err := r.db.Exec(fmt.Sprintf(`
		INSERT INTO %s (video_id, title, duration, view_count, status, times_scheduled, last_scheduled_date, added_at)
		VALUES (?, ?, ?, ?, ?, 0, '', ?)
		ON CONFLICT(video_id) DO UPDATE SET title = excluded.title, duration = excluded.duration, view_count = excluded.view_count
	`, r.table), video.VideoID, video.Title, video.Duration, video.ViewCount, models.PoolStatusActive, now)
	if err != nil {
		return err
	}
	if id, err := result.LastInsertId(); err == nil && id > 0 {
		video.ID = id
	}
	return nil
}

// GetByVideoID retrieves a pool video by its external id
func (r *PoolRepository) GetByVideoID(videoID string) (*models.PoolVideo, error) {
	v := &models.PoolVideo{}
	err := r.db.QueryRow(fmt.Sprintf(`
		SELECT id, video_id, title, duration, view_count, status, times_scheduled, last_scheduled_date, added_at
		FROM %s WHERE video_id = ?
	`, r.table), videoID).Scan(
		&v.ID, &v.VideoID, &v.Title, &v.Duration, &v.ViewCount,
		&v.Status, &v.TimesScheduled, &v.LastScheduledDate, &v.AddedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

// GetAvailable returns up to limit active candidates whose video id is
// not in excludeIDs. This filter is deliberately loose: it cannot see
// exclusions decided earlier in the same run, so callers over-fetch and
// re-check each candidate against the usage tracker.
func (r *PoolRepository) GetAvailable(excludeIDs map[string]bool, limit int, sort PoolSort) ([]models.PoolVideo, error) {
	orderBy := "view_count DESC, id"
	if sort == SortNewestFirst {
		orderBy = "added_at DESC, id DESC"
	}

	where := "status = ?"
	args := []any{models.PoolStatusActive}
	if len(excludeIDs) > 0 {
		placeholders := make([]string, 0, len(excludeIDs))
		for id := range excludeIDs {
			placeholders = append(placeholders, "?")
			args = append(args, id)
		}
		where += fmt.Sprintf(" AND video_id NOT IN (%s)", strings.Join(placeholders, ", "))
	}
	args = append(args, limit)

	rows, err := r.db.Query(fmt.Sprintf(`
		SELECT id, video_id, title, duration, view_count, status, times_scheduled, last_scheduled_date, added_at
		FROM %s WHERE %s ORDER BY %s LIMIT ?
	`, r.table, where, orderBy), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var videos []models.PoolVideo
	for rows.Next() {
		var v models.PoolVideo
		err := rows.Scan(
			&v.ID, &v.VideoID, &v.Title, &v.Duration, &v.ViewCount,
			&v.Status, &v.TimesScheduled, &v.LastScheduledDate, &v.AddedAt,
		)
		if err != nil {
			return nil, err
		}
		videos = append(videos, v)
	}
	return videos, rows.Err()
}

// MarkUsed bumps the scheduling counter and last-scheduled date. The
// usage tracker, written separately by the service layer, remains the
// correctness source; this counter is telemetry for the exhaustion sweep.
func (r *PoolRepository) MarkUsed(videoID, date string) error {
	_, err := r.db.Exec(fmt.Sprintf(`
		UPDATE %s SET times_scheduled = times_scheduled + 1, last_scheduled_date = ? WHERE video_id = ?
	`, r.table), date, videoID)
	return err
}

// MarkExhausted transitions active videos at or above the scheduling
// threshold to exhausted and returns how many rows changed. Maintenance
// sweep only; the generator never calls this.
func (r *PoolRepository) MarkExhausted(threshold int) (int64, error) {
	result, err := r.db.Exec(fmt.Sprintf(`
		UPDATE %s SET status = ? WHERE status = ? AND times_scheduled >= ?
	`, r.table), models.PoolStatusExhausted, models.PoolStatusActive, threshold)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// Reactivate returns an exhausted video to the active pool. Manual
// operation; exhaustion never reverses automatically.
func (r *PoolRepository) Reactivate(videoID string) error {
	_, err := r.db.Exec(fmt.Sprintf(`
		UPDATE %s SET status = ? WHERE video_id = ?
	`, r.table), models.PoolStatusActive, videoID)
	return err
}

// CountByStatus returns row counts keyed by pool status
func (r *PoolRepository) CountByStatus() (map[models.PoolStatus]int, error) {
	rows, err := r.db.Query(fmt.Sprintf(`
		SELECT status, COUNT(*) FROM %s GROUP BY status
	`, r.table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[models.PoolStatus]int)
	for rows.Next() {
		var status models.PoolStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}
