package session

import (
	"os"
	"testing"
	"time"

	"github.com/palethea/palethea-launcher/internal/paths"
)

func TestStore_StartStopPersists(t *testing.T) {
	store := paths.NewAt(t.TempDir())
	s := NewStore(store)

	if err := s.Start("inst-1", 12345); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	running := s.Running()
	if len(running) != 1 {
		t.Fatalf("expected 1 running record, got %d", len(running))
	}
	if running["inst-1"].PID != 12345 {
		t.Errorf("PID = %d, want 12345", running["inst-1"].PID)
	}

	// A fresh Store loaded from the same path should see the persisted record.
	s2 := NewStore(store)
	if err := s2.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(s2.Running()) != 1 {
		t.Fatal("reloaded store should still have the persisted record")
	}

	if err := s.Stop("inst-1"); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if len(s.Running()) != 0 {
		t.Error("record should be gone after Stop")
	}
}

func TestCrashRecovery_DetectsDeadProcess(t *testing.T) {
	store := paths.NewAt(t.TempDir())
	s := NewStore(store)

	// A PID essentially guaranteed not to be alive.
	const deadPID = 999999
	if err := s.Start("inst-1", deadPID); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	crashed := make(chan string, 1)
	cr := NewCrashRecovery(s, func(instanceID string, rec Record) {
		crashed <- instanceID
	})

	cr.sweep()

	select {
	case id := <-crashed:
		if id != "inst-1" {
			t.Errorf("onCrash called with %q, want inst-1", id)
		}
	default:
		t.Fatal("expected onCrash to fire for a dead pid")
	}

	if len(s.Running()) != 0 {
		t.Error("crashed record should be cleared from the running set")
	}
}

func TestCrashRecovery_LeavesLiveProcessAlone(t *testing.T) {
	store := paths.NewAt(t.TempDir())
	s := NewStore(store)

	if err := s.Start("inst-1", os.Getpid()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	called := false
	cr := NewCrashRecovery(s, func(instanceID string, rec Record) {
		called = true
	})
	cr.sweep()

	if called {
		t.Error("onCrash should not fire for the test process's own live pid")
	}
	if len(s.Running()) != 1 {
		t.Error("live record should remain in the running set")
	}
}

func TestCrashRecovery_DiscardsStaleSessionWithoutCredit(t *testing.T) {
	store := paths.NewAt(t.TempDir())
	s := NewStore(store)

	const deadPID = 999999
	if err := s.Start("inst-1", deadPID); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	// Backdate the record past the sanity cap, as if the launcher were
	// closed for longer than a day before noticing the crash.
	rec := s.records["inst-1"]
	rec.StartedAt = time.Now().Add(-25 * time.Hour)
	s.records["inst-1"] = rec

	called := false
	cr := NewCrashRecovery(s, func(instanceID string, rec Record) {
		called = true
	})
	cr.sweep()

	if called {
		t.Error("onCrash should not fire for a session past the 24h sanity cap")
	}
	if len(s.Running()) != 0 {
		t.Error("stale record should still be cleared from the running set")
	}
}

func TestProcessAlive_Self(t *testing.T) {
	if !processAlive(os.Getpid()) {
		t.Error("processAlive should report true for the current process")
	}
}

func TestRecord_StartedAtIsRecent(t *testing.T) {
	store := paths.NewAt(t.TempDir())
	s := NewStore(store)
	before := time.Now()
	_ = s.Start("inst-1", os.Getpid())
	rec := s.Running()["inst-1"]
	if rec.StartedAt.Before(before.Add(-time.Second)) {
		t.Error("StartedAt should be set to roughly now")
	}
}
