package service

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"video-scheduler/internal/models"
	"video-scheduler/internal/monitor"
)

func newMaintenanceFixture(t *testing.T, handler http.HandlerFunc) (*fixture, *PoolMaintenanceService) {
	t.Helper()

	f := newFixture(t)

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := monitor.NewClient(server.URL, "test-key")
	svc := NewPoolMaintenanceService(client, f.configRepo, f.oldPool, f.newPool)
	return f, svc
}

func TestSyncNewVideosAddsAndUpdates(t *testing.T) {
	f, svc := newMaintenanceFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"videos": [
				{"video_id": "vid-1", "title": "First", "duration": "10:00", "view_count": 100},
				{"video_id": "vid-2", "title": "Second", "duration": "05:00", "view_count": 200}
			]
		}`))
	})

	// vid-1 already known: the sync must update it, not double-add.
	if err := f.newPool.Upsert(&models.PoolVideo{VideoID: "vid-1", Title: "Old Title", ViewCount: 50}); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	result, err := svc.SyncNewVideos()
	if err != nil {
		t.Fatalf("SyncNewVideos failed: %v", err)
	}
	if result.Added != 1 || result.Updated != 1 || result.Errors != 0 {
		t.Errorf("Expected 1 added / 1 updated / 0 errors, got %+v", result)
	}

	v, err := f.newPool.GetByVideoID("vid-1")
	if err != nil {
		t.Fatalf("GetByVideoID failed: %v", err)
	}
	if v == nil || v.Title != "First" || v.ViewCount != 100 {
		t.Errorf("Expected vid-1 refreshed from the pipeline, got %+v", v)
	}
}

func TestSyncNewVideosPropagatesFetchError(t *testing.T) {
	_, svc := newMaintenanceFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"status_code": 500, "status_message": "pipeline down"}`))
	})

	if _, err := svc.SyncNewVideos(); err == nil {
		t.Fatal("Expected error when the pipeline fetch fails")
	}
}

func TestSweepExhaustedUsesConfiguredThreshold(t *testing.T) {
	f, svc := newMaintenanceFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"videos": []}`))
	})
	f.seedConfig(t, testTargetDate, 4)

	f.seedPool(t, f.oldPool, "old", 2)
	// Default threshold is 5: schedule old-1 five times, old-2 four.
	for i := 0; i < 5; i++ {
		if err := f.oldPool.MarkUsed("old-1", testTargetDate); err != nil {
			t.Fatalf("MarkUsed failed: %v", err)
		}
	}
	for i := 0; i < 4; i++ {
		if err := f.oldPool.MarkUsed("old-2", testTargetDate); err != nil {
			t.Fatalf("MarkUsed failed: %v", err)
		}
	}

	result, err := svc.SweepExhausted()
	if err != nil {
		t.Fatalf("SweepExhausted failed: %v", err)
	}
	if result.Threshold != 5 {
		t.Errorf("Expected threshold 5, got %d", result.Threshold)
	}
	if result.OldExhausted != 1 || result.NewExhausted != 0 {
		t.Errorf("Expected 1 old / 0 new exhausted, got %+v", result)
	}

	v, err := f.oldPool.GetByVideoID("old-2")
	if err != nil {
		t.Fatalf("GetByVideoID failed: %v", err)
	}
	if v.Status != models.PoolStatusActive {
		t.Errorf("old-2 should stay active below the threshold, got %s", v.Status)
	}
}

func TestSweepExhaustedWithoutConfig(t *testing.T) {
	_, svc := newMaintenanceFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"videos": []}`))
	})

	if _, err := svc.SweepExhausted(); err == nil {
		t.Fatal("Expected error without config row")
	}
}

func TestStatsCountsBothPools(t *testing.T) {
	f, svc := newMaintenanceFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"videos": []}`))
	})

	f.seedPool(t, f.oldPool, "old", 3)
	f.seedPool(t, f.newPool, "new", 2)

	stats, err := svc.Stats()
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.Old[models.PoolStatusActive] != 3 {
		t.Errorf("Expected 3 active old videos, got %d", stats.Old[models.PoolStatusActive])
	}
	if stats.New[models.PoolStatusActive] != 2 {
		t.Errorf("Expected 2 active new videos, got %d", stats.New[models.PoolStatusActive])
	}
}
