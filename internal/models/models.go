package models

import "time"

// VideoType distinguishes which pool a scheduled video came from
type VideoType string

const (
	VideoTypeNew VideoType = "new"
	VideoTypeOld VideoType = "old"
)

// PoolStatus represents the lifecycle state of a pool video
type PoolStatus string

const (
	PoolStatusActive    PoolStatus = "active"
	PoolStatusExhausted PoolStatus = "exhausted"
)

// SystemStatus controls whether schedule generation runs
type SystemStatus string

const (
	SystemStatusActive SystemStatus = "active"
	SystemStatusPaused SystemStatus = "paused"
)

// ScheduleStatus is the state machine for a scheduled video row.
// The generator only ever creates rows as pending; the downstream
// processing pipeline moves them through the remaining states.
type ScheduleStatus string

const (
	ScheduleStatusPending    ScheduleStatus = "pending"
	ScheduleStatusProcessing ScheduleStatus = "processing"
	ScheduleStatusReady      ScheduleStatus = "ready"
	ScheduleStatusPublished  ScheduleStatus = "published"
	ScheduleStatusFailed     ScheduleStatus = "failed"
)

// ScheduleConfig is the singleton scheduling configuration row
type ScheduleConfig struct {
	ID                        int64        `json:"id"`
	SystemStatus              SystemStatus `json:"system_status"`
	SystemStartDate           string       `json:"system_start_date"` // YYYY-MM-DD, empty = unset
	LastScheduleGeneratedDate string       `json:"last_schedule_generated_date"`
	VideosPerChannel          int          `json:"videos_per_channel"`
	ExhaustThreshold          int          `json:"exhaust_threshold"`
	CreatedAt                 time.Time    `json:"created_at"`
	UpdatedAt                 time.Time    `json:"updated_at"`
}

// TargetChannel is a destination that receives a daily batch of videos
type TargetChannel struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// PoolVideo is a candidate video in either the old or the new pool
type PoolVideo struct {
	ID                int64      `json:"id"`
	VideoID           string     `json:"video_id"`
	Title             string     `json:"title"`
	Duration          string     `json:"duration"`
	ViewCount         int64      `json:"view_count"`
	Status            PoolStatus `json:"status"`
	TimesScheduled    int        `json:"times_scheduled"`
	LastScheduledDate string     `json:"last_scheduled_date"` // YYYY-MM-DD
	AddedAt           time.Time  `json:"added_at"`
}

// UsageEntry is one append-only ledger row recording an assignment
type UsageEntry struct {
	ID                int64     `json:"id"`
	VideoID           string    `json:"video_id"`
	UsedDate          string    `json:"used_date"` // YYYY-MM-DD
	TargetChannelID   int64     `json:"target_channel_id"`
	TargetChannelName string    `json:"target_channel_name"`
	CreatedAt         time.Time `json:"created_at"`
}

// ScheduledVideo is one persisted slot of a daily plan
type ScheduledVideo struct {
	ID                int64          `json:"id"`
	ScheduleDate      string         `json:"schedule_date"` // YYYY-MM-DD
	TargetChannelID   int64          `json:"target_channel_id"`
	TargetChannelName string         `json:"target_channel_name"`
	SlotNumber        int            `json:"slot_number"`
	VideoID           string         `json:"video_id"`
	VideoTitle        string         `json:"video_title"`
	VideoType         VideoType      `json:"video_type"`
	Status            ScheduleStatus `json:"status"`
	ErrorMessage      string         `json:"error_message"`
	RetryCount        int            `json:"retry_count"`
	CreatedAt         time.Time      `json:"created_at"`
	ProcessingAt      *time.Time     `json:"processing_at,omitempty"`
	ReadyAt           *time.Time     `json:"ready_at,omitempty"`
	PublishedAt       *time.Time     `json:"published_at,omitempty"`
}

// PlannedVideo is one slot of an in-memory channel plan before persistence
type PlannedVideo struct {
	SlotNumber int       `json:"slot_number"`
	VideoID    string    `json:"video_id"`
	VideoTitle string    `json:"video_title"`
	VideoType  VideoType `json:"video_type"`
}

// ChannelPlan is the ordered, slot-numbered selection for one channel
type ChannelPlan struct {
	ChannelID   int64          `json:"channel_id"`
	ChannelName string         `json:"channel_name"`
	Videos      []PlannedVideo `json:"videos"`
}

// DailyPlan is the full multi-channel plan for one date
type DailyPlan struct {
	Date        string        `json:"date"`
	DayNumber   int           `json:"day_number"`
	Channels    []ChannelPlan `json:"channels"`
	TotalVideos int           `json:"total_videos"`
	NewVideos   int           `json:"new_videos"`
	OldVideos   int           `json:"old_videos"`
}
