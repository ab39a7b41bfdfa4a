package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"video-scheduler/internal/models"
	"video-scheduler/internal/timeutil"
)

// ScheduleRepository handles scheduled_videos database operations
type ScheduleRepository struct {
	db   dbtx
	base *sql.DB
}

// NewScheduleRepository creates a new ScheduleRepository
func NewScheduleRepository(sqliteDB *SQLiteDB) *ScheduleRepository {
	return &ScheduleRepository{db: sqliteDB.db, base: sqliteDB.db}
}

func (r *ScheduleRepository) BeginTx() (*sql.Tx, error) {
	if r.base == nil {
		return nil, errors.New("schedule repository: transactions not supported on tx-scoped repo")
	}
	return r.base.Begin()
}

func (r *ScheduleRepository) WithTx(tx *sql.Tx) *ScheduleRepository {
	return &ScheduleRepository{db: tx}
}

// ExistsForDate reports whether any schedule rows exist for a date
func (r *ScheduleRepository) ExistsForDate(date string) (bool, error) {
	var count int
	err := r.db.QueryRow(`
		SELECT COUNT(*) FROM scheduled_videos WHERE schedule_date = ?
	`, date).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// BulkInsert writes one pending row per planned slot inside a single
// transaction, so a failed write leaves zero rows for the date. The
// unique (schedule_date, target_channel_id, slot_number) index rejects
// a concurrent duplicate generation that slipped past ExistsForDate.
func (r *ScheduleRepository) BulkInsert(date string, plan *models.DailyPlan) error {
	tx, err := r.BeginTx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	now := timeutil.Now()
	for _, channel := range plan.Channels {
		for _, v := range channel.Videos {
			_, err := tx.Exec(`
				INSERT INTO scheduled_videos (schedule_date, target_channel_id, target_channel_name, slot_number, video_id, video_title, video_type, status, created_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			`, date, channel.ChannelID, channel.ChannelName, v.SlotNumber, v.VideoID, v.VideoTitle, v.VideoType, models.ScheduleStatusPending, now)
			if err != nil {
				return fmt.Errorf("failed to insert slot %d for channel %s: %w", v.SlotNumber, channel.ChannelName, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit schedule: %w", err)
	}
	return nil
}

// GetByDate retrieves all schedule rows for a date ordered by channel and slot
func (r *ScheduleRepository) GetByDate(date string) ([]models.ScheduledVideo, error) {
	rows, err := r.db.Query(`
		SELECT id, schedule_date, target_channel_id, target_channel_name, slot_number, video_id, video_title, video_type, status, error_message, retry_count, created_at, processing_at, ready_at, published_at
		FROM scheduled_videos WHERE schedule_date = ?
		ORDER BY target_channel_id, slot_number
	`, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var videos []models.ScheduledVideo
	for rows.Next() {
		var v models.ScheduledVideo
		err := rows.Scan(
			&v.ID, &v.ScheduleDate, &v.TargetChannelID, &v.TargetChannelName, &v.SlotNumber,
			&v.VideoID, &v.VideoTitle, &v.VideoType, &v.Status, &v.ErrorMessage, &v.RetryCount,
			&v.CreatedAt, &v.ProcessingAt, &v.ReadyAt, &v.PublishedAt,
		)
		if err != nil {
			return nil, err
		}
		videos = append(videos, v)
	}
	return videos, rows.Err()
}

// ChannelSummary aggregates one channel's slice of a daily schedule
type ChannelSummary struct {
	ChannelID   int64                         `json:"channel_id"`
	ChannelName string                        `json:"channel_name"`
	Total       int                           `json:"total"`
	New         int                           `json:"new"`
	Old         int                           `json:"old"`
	ByStatus    map[models.ScheduleStatus]int `json:"by_status"`
}

// ScheduleSummary aggregates a full daily schedule for dashboards
type ScheduleSummary struct {
	Date      string                        `json:"date"`
	Total     int                           `json:"total"`
	New       int                           `json:"new"`
	Old       int                           `json:"old"`
	ByStatus  map[models.ScheduleStatus]int `json:"by_status"`
	ByChannel []ChannelSummary              `json:"by_channel"`
}

// GetSummary aggregates counts by channel, status and video type for a
// date. Pure read, no side effects.
func (r *ScheduleRepository) GetSummary(date string) (*ScheduleSummary, error) {
	rows, err := r.db.Query(`
		SELECT target_channel_id, target_channel_name, video_type, status, COUNT(*)
		FROM scheduled_videos WHERE schedule_date = ?
		GROUP BY target_channel_id, target_channel_name, video_type, status
		ORDER BY target_channel_id
	`, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summary := &ScheduleSummary{
		Date:     date,
		ByStatus: make(map[models.ScheduleStatus]int),
	}
	byChannel := make(map[int64]*ChannelSummary)
	var order []int64

	for rows.Next() {
		var channelID int64
		var channelName string
		var videoType models.VideoType
		var status models.ScheduleStatus
		var n int
		if err := rows.Scan(&channelID, &channelName, &videoType, &status, &n); err != nil {
			return nil, err
		}

		ch, ok := byChannel[channelID]
		if !ok {
			ch = &ChannelSummary{
				ChannelID:   channelID,
				ChannelName: channelName,
				ByStatus:    make(map[models.ScheduleStatus]int),
			}
			byChannel[channelID] = ch
			order = append(order, channelID)
		}

		summary.Total += n
		summary.ByStatus[status] += n
		ch.Total += n
		ch.ByStatus[status] += n
		if videoType == models.VideoTypeNew {
			summary.New += n
			ch.New += n
		} else {
			summary.Old += n
			ch.Old += n
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, id := range order {
		summary.ByChannel = append(summary.ByChannel, *byChannel[id])
	}
	return summary, nil
}

// UpdateStatus moves a schedule row through the processing state
// machine, stamping the matching transition timestamp. Owned by the
// downstream processor, not the generator.
func (r *ScheduleRepository) UpdateStatus(id int64, status models.ScheduleStatus) error {
	column := ""
	switch status {
	case models.ScheduleStatusProcessing:
		column = "processing_at"
	case models.ScheduleStatusReady:
		column = "ready_at"
	case models.ScheduleStatusPublished:
		column = "published_at"
	case models.ScheduleStatusFailed:
		// failure keeps the timestamp of its last transition
	case models.ScheduleStatusPending:
		// re-queue after a failure, no timestamp to stamp
	default:
		return fmt.Errorf("unknown schedule status: %s", status)
	}

	if column == "" {
		_, err := r.db.Exec(`UPDATE scheduled_videos SET status = ? WHERE id = ?`, status, id)
		return err
	}
	_, err := r.db.Exec(fmt.Sprintf(`
		UPDATE scheduled_videos SET status = ?, %s = ? WHERE id = ?
	`, column), status, timeutil.Now(), id)
	return err
}

// SetError marks a row failed with a message and bumps its retry counter
func (r *ScheduleRepository) SetError(id int64, message string) error {
	_, err := r.db.Exec(`
		UPDATE scheduled_videos SET status = ?, error_message = ?, retry_count = retry_count + 1 WHERE id = ?
	`, models.ScheduleStatusFailed, message, id)
	return err
}
