package repository

import (
	"database/sql"

	"video-scheduler/internal/models"
	"video-scheduler/internal/timeutil"
)

// ConfigRepository handles ScheduleConfig and TargetChannel database operations
type ConfigRepository struct {
	db dbtx
}

// NewConfigRepository creates a new ConfigRepository
func NewConfigRepository(sqliteDB *SQLiteDB) *ConfigRepository {
	return &ConfigRepository{db: sqliteDB.db}
}

// EnsureDefault creates the singleton config row if it does not exist yet.
// The start date defaults to today so day numbering begins at 1.
func (r *ConfigRepository) EnsureDefault() error {
	now := timeutil.Now()
	_, err := r.db.Exec(`
		INSERT OR IGNORE INTO schedule_config (id, system_status, system_start_date, videos_per_channel, exhaust_threshold, created_at, updated_at)
		VALUES (1, ?, ?, 4, 5, ?, ?)
	`, models.SystemStatusActive, timeutil.Today(), now, now)
	return err
}

// Get retrieves the singleton config row
func (r *ConfigRepository) Get() (*models.ScheduleConfig, error) {
	cfg := &models.ScheduleConfig{}
	err := r.db.QueryRow(`
		SELECT id, system_status, system_start_date, last_schedule_generated_date, videos_per_channel, exhaust_threshold, created_at, updated_at
		FROM schedule_config WHERE id = 1
	`).Scan(
		&cfg.ID, &cfg.SystemStatus, &cfg.SystemStartDate, &cfg.LastScheduleGeneratedDate,
		&cfg.VideosPerChannel, &cfg.ExhaustThreshold, &cfg.CreatedAt, &cfg.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// SetSystemStatus switches schedule generation between active and paused
func (r *ConfigRepository) SetSystemStatus(status models.SystemStatus) error {
	_, err := r.db.Exec(`
		UPDATE schedule_config SET system_status = ?, updated_at = ? WHERE id = 1
	`, status, timeutil.Now())
	return err
}

// SetSystemStartDate resets the day-numbering epoch
func (r *ConfigRepository) SetSystemStartDate(date string) error {
	_, err := r.db.Exec(`
		UPDATE schedule_config SET system_start_date = ?, updated_at = ? WHERE id = 1
	`, date, timeutil.Now())
	return err
}

// SetVideosPerChannel updates the nominal slot count per channel
func (r *ConfigRepository) SetVideosPerChannel(count int) error {
	_, err := r.db.Exec(`
		UPDATE schedule_config SET videos_per_channel = ?, updated_at = ? WHERE id = 1
	`, count, timeutil.Now())
	return err
}

// SetLastGeneratedDate records the date of the last successful generation run
func (r *ConfigRepository) SetLastGeneratedDate(date string) error {
	_, err := r.db.Exec(`
		UPDATE schedule_config SET last_schedule_generated_date = ?, updated_at = ? WHERE id = 1
	`, date, timeutil.Now())
	return err
}

// CreateChannel inserts a new target channel
func (r *ConfigRepository) CreateChannel(channel *models.TargetChannel) error {
	now := timeutil.Now()
	result, err := r.db.Exec(`
		INSERT INTO target_channels (name, active, created_at) VALUES (?, ?, ?)
	`, channel.Name, channel.Active, now)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	channel.ID = id
	channel.CreatedAt = now
	return nil
}

// GetChannelByID retrieves a target channel by its ID
func (r *ConfigRepository) GetChannelByID(id int64) (*models.TargetChannel, error) {
	ch := &models.TargetChannel{}
	err := r.db.QueryRow(`
		SELECT id, name, active, created_at FROM target_channels WHERE id = ?
	`, id).Scan(&ch.ID, &ch.Name, &ch.Active, &ch.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return ch, nil
}

// GetActiveChannels retrieves all active target channels ordered by ID
func (r *ConfigRepository) GetActiveChannels() ([]models.TargetChannel, error) {
	return r.queryChannels(`
		SELECT id, name, active, created_at FROM target_channels WHERE active = TRUE ORDER BY id
	`)
}

// GetAllChannels retrieves every target channel ordered by ID
func (r *ConfigRepository) GetAllChannels() ([]models.TargetChannel, error) {
	return r.queryChannels(`
		SELECT id, name, active, created_at FROM target_channels ORDER BY id
	`)
}

func (r *ConfigRepository) queryChannels(query string) ([]models.TargetChannel, error) {
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var channels []models.TargetChannel
	for rows.Next() {
		var ch models.TargetChannel
		if err := rows.Scan(&ch.ID, &ch.Name, &ch.Active, &ch.CreatedAt); err != nil {
			return nil, err
		}
		channels = append(channels, ch)
	}
	return channels, rows.Err()
}

// SetChannelActive toggles a channel in or out of daily generation.
// Channels referenced by historical schedule rows are never deleted,
// only deactivated.
func (r *ConfigRepository) SetChannelActive(id int64, active bool) error {
	_, err := r.db.Exec(`
		UPDATE target_channels SET active = ? WHERE id = ?
	`, active, id)
	return err
}
