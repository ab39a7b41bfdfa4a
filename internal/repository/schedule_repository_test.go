package repository

import (
	"testing"

	"video-scheduler/internal/models"
)

func testPlan(date string) *models.DailyPlan {
	return &models.DailyPlan{
		Date:      date,
		DayNumber: 7,
		Channels: []models.ChannelPlan{
			{
				ChannelID:   1,
				ChannelName: "Channel A",
				Videos: []models.PlannedVideo{
					{SlotNumber: 1, VideoID: "vid-1", VideoTitle: "One", VideoType: models.VideoTypeNew},
					{SlotNumber: 2, VideoID: "vid-2", VideoTitle: "Two", VideoType: models.VideoTypeOld},
				},
			},
			{
				ChannelID:   2,
				ChannelName: "Channel B",
				Videos: []models.PlannedVideo{
					{SlotNumber: 1, VideoID: "vid-3", VideoTitle: "Three", VideoType: models.VideoTypeOld},
				},
			},
		},
	}
}

func TestBulkInsertAndGetByDate(t *testing.T) {
	db := newTestDB(t)
	repo := NewScheduleRepository(db)

	exists, err := repo.ExistsForDate("2026-09-01")
	if err != nil {
		t.Fatalf("ExistsForDate failed: %v", err)
	}
	if exists {
		t.Fatal("Expected no schedule before insert")
	}

	if err := repo.BulkInsert("2026-09-01", testPlan("2026-09-01")); err != nil {
		t.Fatalf("BulkInsert failed: %v", err)
	}

	exists, err = repo.ExistsForDate("2026-09-01")
	if err != nil {
		t.Fatalf("ExistsForDate failed: %v", err)
	}
	if !exists {
		t.Fatal("Expected schedule after insert")
	}

	videos, err := repo.GetByDate("2026-09-01")
	if err != nil {
		t.Fatalf("GetByDate failed: %v", err)
	}
	if len(videos) != 3 {
		t.Fatalf("Expected 3 rows, got %d", len(videos))
	}
	for _, v := range videos {
		if v.Status != models.ScheduleStatusPending {
			t.Errorf("Expected pending status, got %s", v.Status)
		}
	}
	// Ordered by channel then slot
	if videos[0].VideoID != "vid-1" || videos[1].VideoID != "vid-2" || videos[2].VideoID != "vid-3" {
		t.Errorf("Unexpected row order: %s, %s, %s", videos[0].VideoID, videos[1].VideoID, videos[2].VideoID)
	}
}

func TestBulkInsertIsAtomic(t *testing.T) {
	db := newTestDB(t)
	repo := NewScheduleRepository(db)

	// Duplicate (channel, slot) pair violates the unique index partway
	// through the batch; no rows may survive.
	bad := &models.DailyPlan{
		Date: "2026-09-01",
		Channels: []models.ChannelPlan{
			{
				ChannelID:   1,
				ChannelName: "Channel A",
				Videos: []models.PlannedVideo{
					{SlotNumber: 1, VideoID: "vid-1", VideoTitle: "One", VideoType: models.VideoTypeOld},
					{SlotNumber: 2, VideoID: "vid-2", VideoTitle: "Two", VideoType: models.VideoTypeOld},
					{SlotNumber: 2, VideoID: "vid-3", VideoTitle: "Three", VideoType: models.VideoTypeOld},
				},
			},
		},
	}

	if err := repo.BulkInsert("2026-09-01", bad); err == nil {
		t.Fatal("Expected BulkInsert to fail on duplicate slot")
	}

	videos, err := repo.GetByDate("2026-09-01")
	if err != nil {
		t.Fatalf("GetByDate failed: %v", err)
	}
	if len(videos) != 0 {
		t.Fatalf("Expected zero rows after failed batch, got %d", len(videos))
	}
}

func TestGetSummaryAggregation(t *testing.T) {
	db := newTestDB(t)
	repo := NewScheduleRepository(db)

	if err := repo.BulkInsert("2026-09-01", testPlan("2026-09-01")); err != nil {
		t.Fatalf("BulkInsert failed: %v", err)
	}

	summary, err := repo.GetSummary("2026-09-01")
	if err != nil {
		t.Fatalf("GetSummary failed: %v", err)
	}

	if summary.Total != 3 || summary.New != 1 || summary.Old != 2 {
		t.Errorf("Expected 3 total, 1 new, 2 old; got %d/%d/%d", summary.Total, summary.New, summary.Old)
	}
	if summary.ByStatus[models.ScheduleStatusPending] != 3 {
		t.Errorf("Expected 3 pending, got %d", summary.ByStatus[models.ScheduleStatusPending])
	}
	if len(summary.ByChannel) != 2 {
		t.Fatalf("Expected 2 channel summaries, got %d", len(summary.ByChannel))
	}
	if summary.ByChannel[0].ChannelName != "Channel A" || summary.ByChannel[0].Total != 2 {
		t.Errorf("Unexpected first channel summary: %+v", summary.ByChannel[0])
	}

	empty, err := repo.GetSummary("2026-09-02")
	if err != nil {
		t.Fatalf("GetSummary for empty date failed: %v", err)
	}
	if empty.Total != 0 || len(empty.ByChannel) != 0 {
		t.Errorf("Expected empty summary, got %+v", empty)
	}
}

func TestUpdateStatusStampsTransitions(t *testing.T) {
	db := newTestDB(t)
	repo := NewScheduleRepository(db)

	if err := repo.BulkInsert("2026-09-01", testPlan("2026-09-01")); err != nil {
		t.Fatalf("BulkInsert failed: %v", err)
	}
	videos, err := repo.GetByDate("2026-09-01")
	if err != nil {
		t.Fatalf("GetByDate failed: %v", err)
	}
	id := videos[0].ID

	for _, status := range []models.ScheduleStatus{
		models.ScheduleStatusProcessing,
		models.ScheduleStatusReady,
		models.ScheduleStatusPublished,
	} {
		if err := repo.UpdateStatus(id, status); err != nil {
			t.Fatalf("UpdateStatus %s failed: %v", status, err)
		}
	}

	videos, err = repo.GetByDate("2026-09-01")
	if err != nil {
		t.Fatalf("GetByDate failed: %v", err)
	}
	v := videos[0]
	if v.Status != models.ScheduleStatusPublished {
		t.Errorf("Expected published, got %s", v.Status)
	}
	if v.ProcessingAt == nil || v.ReadyAt == nil || v.PublishedAt == nil {
		t.Error("Expected all transition timestamps set")
	}
}

func TestSetErrorBumpsRetryCount(t *testing.T) {
	db := newTestDB(t)
	repo := NewScheduleRepository(db)

	if err := repo.BulkInsert("2026-09-01", testPlan("2026-09-01")); err != nil {
		t.Fatalf("BulkInsert failed: %v", err)
	}
	videos, _ := repo.GetByDate("2026-09-01")
	id := videos[0].ID

	if err := repo.SetError(id, "download timed out"); err != nil {
		t.Fatalf("SetError failed: %v", err)
	}
	if err := repo.SetError(id, "download timed out again"); err != nil {
		t.Fatalf("SetError failed: %v", err)
	}

	videos, _ = repo.GetByDate("2026-09-01")
	v := videos[0]
	if v.Status != models.ScheduleStatusFailed {
		t.Errorf("Expected failed, got %s", v.Status)
	}
	if v.RetryCount != 2 {
		t.Errorf("Expected retry count 2, got %d", v.RetryCount)
	}
	if v.ErrorMessage != "download timed out again" {
		t.Errorf("Unexpected error message: %s", v.ErrorMessage)
	}
}
