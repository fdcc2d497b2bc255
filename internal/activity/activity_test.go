package activity

import (
	"path/filepath"
	"testing"
	"time"
)

func TestRecordSession_AndRollup(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "activity.db")
	store, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer store.Close()

	started := time.Date(2026, 7, 30, 10, 0, 0, 0, time.UTC)
	ended := started.Add(90 * time.Minute)

	if err := store.RecordSession("inst-1", "Survival", "Steve", started, ended, false, 0); err != nil {
		t.Fatalf("RecordSession failed: %v", err)
	}

	sessions, err := store.RecentSessions(10)
	if err != nil {
		t.Fatalf("RecentSessions failed: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("expected 1 session, got %d", len(sessions))
	}
	if sessions[0].DurationSecs != 5400 {
		t.Errorf("DurationSecs = %d, want 5400", sessions[0].DurationSecs)
	}

	totals, err := store.DailyTotals("inst-1", 5)
	if err != nil {
		t.Fatalf("DailyTotals failed: %v", err)
	}
	if len(totals) != 1 {
		t.Fatalf("expected 1 daily rollup row, got %d", len(totals))
	}
	if totals[0].TotalSeconds != 5400 {
		t.Errorf("TotalSeconds = %d, want 5400", totals[0].TotalSeconds)
	}
	if totals[0].Launches != 1 {
		t.Errorf("Launches = %d, want 1", totals[0].Launches)
	}
}

func TestRecordSession_AccumulatesSameDay(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "activity.db")
	store, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer store.Close()

	base := time.Date(2026, 7, 30, 9, 0, 0, 0, time.UTC)
	if err := store.RecordSession("inst-1", "Survival", "Steve", base, base.Add(30*time.Minute), false, 0); err != nil {
		t.Fatalf("first RecordSession failed: %v", err)
	}
	if err := store.RecordSession("inst-1", "Survival", "Steve", base.Add(time.Hour), base.Add(90*time.Minute), true, 1); err != nil {
		t.Fatalf("second RecordSession failed: %v", err)
	}

	totals, err := store.DailyTotals("inst-1", 5)
	if err != nil {
		t.Fatalf("DailyTotals failed: %v", err)
	}
	if len(totals) != 1 {
		t.Fatalf("expected rollup to stay on one day, got %d rows", len(totals))
	}
	if totals[0].TotalSeconds != 1800+1800 {
		t.Errorf("TotalSeconds = %d, want %d", totals[0].TotalSeconds, 3600)
	}
	if totals[0].Launches != 2 {
		t.Errorf("Launches = %d, want 2", totals[0].Launches)
	}
}
