package notify

import (
	"strings"
	"testing"

	"video-scheduler/internal/models"
	"video-scheduler/internal/repository"
)

func TestFormatDailyPlan(t *testing.T) {
	plan := &models.DailyPlan{
		Date:        "2026-08-21",
		DayNumber:   11,
		TotalVideos: 4,
		NewVideos:   1,
		OldVideos:   3,
		Channels: []models.ChannelPlan{
			{
				ChannelName: "Channel A",
				Videos: []models.PlannedVideo{
					{SlotNumber: 1, VideoID: "old-1", VideoTitle: "Classic Hit", VideoType: models.VideoTypeOld},
					{SlotNumber: 2, VideoID: "new-1", VideoTitle: "Fresh Upload", VideoType: models.VideoTypeNew},
				},
			},
		},
	}

	got := FormatDailyPlan(plan)

	for _, want := range []string{
		"Schedule for 2026-08-21",
		"(day 11)",
		"4 videos total: 1 new, 3 old",
		"<b>Channel A</b>",
		"1. 🎞 Classic Hit",
		"2. 🆕 Fresh Upload",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("FormatDailyPlan missing %q in:\n%s", want, got)
		}
	}
}

func TestFormatScheduleEmpty(t *testing.T) {
	got := FormatSchedule("2026-08-21", nil)
	if !strings.Contains(got, "No schedule for 2026-08-21") {
		t.Errorf("Unexpected empty-schedule message: %s", got)
	}
}

func TestFormatScheduleGroupsByChannel(t *testing.T) {
	videos := []models.ScheduledVideo{
		{TargetChannelName: "Channel B", SlotNumber: 1, VideoTitle: "B One", VideoType: models.VideoTypeOld, Status: models.ScheduleStatusPending},
		{TargetChannelName: "Channel A", SlotNumber: 1, VideoTitle: "A One", VideoType: models.VideoTypeNew, Status: models.ScheduleStatusPublished},
		{TargetChannelName: "Channel A", SlotNumber: 2, VideoTitle: "A Two", VideoType: models.VideoTypeOld, Status: models.ScheduleStatusPending},
	}

	got := FormatSchedule("2026-08-21", videos)

	// Channels sorted by name, channel A first.
	aIdx := strings.Index(got, "<b>Channel A</b>")
	bIdx := strings.Index(got, "<b>Channel B</b>")
	if aIdx < 0 || bIdx < 0 || aIdx > bIdx {
		t.Errorf("Expected Channel A before Channel B in:\n%s", got)
	}
	if !strings.Contains(got, "1. 🆕 A One") {
		t.Errorf("Missing slot line in:\n%s", got)
	}
	if !strings.Contains(got, "published") {
		t.Errorf("Missing status in:\n%s", got)
	}
}

func TestFormatSummary(t *testing.T) {
	summary := &repository.ScheduleSummary{
		Date:  "2026-08-21",
		Total: 8,
		New:   2,
		Old:   6,
		ByStatus: map[models.ScheduleStatus]int{
			models.ScheduleStatusPending:   5,
			models.ScheduleStatusPublished: 3,
		},
		ByChannel: []repository.ChannelSummary{
			{ChannelName: "Channel A", Total: 4, New: 1, Old: 3},
			{ChannelName: "Channel B", Total: 4, New: 1, Old: 3},
		},
	}

	got := FormatSummary(summary)

	for _, want := range []string{
		"Summary for 2026-08-21",
		"8 videos: 2 new, 6 old",
		"pending: 5",
		"published: 3",
		"<b>Channel A</b>: 4 videos (1 new, 3 old)",
		"<b>Channel B</b>: 4 videos (1 new, 3 old)",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("FormatSummary missing %q in:\n%s", want, got)
		}
	}
}

func TestFormatSummaryEmpty(t *testing.T) {
	got := FormatSummary(&repository.ScheduleSummary{Date: "2026-08-21"})
	if !strings.Contains(got, "No schedule for 2026-08-21") {
		t.Errorf("Unexpected empty-summary message: %s", got)
	}
}
