package repository

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// dbtx abstracts *sql.DB and *sql.Tx so repositories can run either
// directly or inside a caller-owned transaction.
type dbtx interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// SQLiteDB wraps the database connection
type SQLiteDB struct {
	db *sql.DB
}

// NewSQLiteDB creates a new SQLite database connection with connection pool settings
func NewSQLiteDB(dbPath string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// SQLite benefits from limited connections due to write locking
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return &SQLiteDB{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

// InitSchema creates the database tables and runs migrations
func (s *SQLiteDB) InitSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS schedule_config (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		system_status TEXT NOT NULL DEFAULT 'active',
		system_start_date TEXT NOT NULL DEFAULT '',
		last_schedule_generated_date TEXT NOT NULL DEFAULT '',
		videos_per_channel INTEGER NOT NULL DEFAULT 4,
		exhaust_threshold INTEGER NOT NULL DEFAULT 5,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS target_channels (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT UNIQUE NOT NULL,
		active BOOLEAN DEFAULT TRUE,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS video_pool_old (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		video_id TEXT UNIQUE NOT NULL,
		title TEXT NOT NULL,
		duration TEXT DEFAULT '',
		view_count INTEGER DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'active',
		times_scheduled INTEGER DEFAULT 0,
		last_scheduled_date TEXT DEFAULT '',
		added_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS video_pool_new (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		video_id TEXT UNIQUE NOT NULL,
		title TEXT NOT NULL,
		duration TEXT DEFAULT '',
		view_count INTEGER DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'active',
		times_scheduled INTEGER DEFAULT 0,
		last_scheduled_date TEXT DEFAULT '',
		added_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS video_usage_tracker (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		video_id TEXT NOT NULL,
		used_date TEXT NOT NULL,
		target_channel_id INTEGER NOT NULL,
		target_channel_name TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(video_id, used_date, target_channel_id)
	);

	CREATE TABLE IF NOT EXISTS scheduled_videos (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		schedule_date TEXT NOT NULL,
		target_channel_id INTEGER NOT NULL,
		target_channel_name TEXT NOT NULL,
		slot_number INTEGER NOT NULL,
		video_id TEXT NOT NULL,
		video_title TEXT NOT NULL,
		video_type TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		error_message TEXT DEFAULT '',
		retry_count INTEGER DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		processing_at TIMESTAMP,
		ready_at TIMESTAMP,
		published_at TIMESTAMP,
		UNIQUE(schedule_date, target_channel_id, slot_number)
	);

	CREATE INDEX IF NOT EXISTS idx_usage_date ON video_usage_tracker(used_date);
	CREATE INDEX IF NOT EXISTS idx_usage_channel_date ON video_usage_tracker(target_channel_id, used_date);
	CREATE INDEX IF NOT EXISTS idx_usage_video_date ON video_usage_tracker(video_id, used_date);
	CREATE INDEX IF NOT EXISTS idx_scheduled_date ON scheduled_videos(schedule_date);
	CREATE INDEX IF NOT EXISTS idx_scheduled_date_status ON scheduled_videos(schedule_date, status);
	CREATE INDEX IF NOT EXISTS idx_pool_old_status ON video_pool_old(status, view_count);
	CREATE INDEX IF NOT EXISTS idx_pool_new_status ON video_pool_new(status, added_at);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return err
	}

	return s.runMigrations()
}

// runMigrations executes pending database migrations
func (s *SQLiteDB) runMigrations() error {
	// Check if exhaust_threshold column exists
	var result string
	err := s.db.QueryRow("SELECT exhaust_threshold FROM schedule_config LIMIT 1").Scan(&result)
	if err != nil && err != sql.ErrNoRows {
		return s.migrateExhaustThreshold()
	}
	return nil
}

// migrateExhaustThreshold adds the exhaust_threshold column to configs
// created before the pool maintenance sweep existed
func (s *SQLiteDB) migrateExhaustThreshold() error {
	_, err := s.db.Exec(`ALTER TABLE schedule_config ADD COLUMN exhaust_threshold INTEGER NOT NULL DEFAULT 5`)
	return err
}
