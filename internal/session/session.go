// Package session supervises running game processes and accounts for
// playtime across crashes. A crash is any process exit the supervisor
// didn't initiate — the watcher reconciles the persisted "running" record
// against the OS process table every tick and folds in whatever playtime
// elapsed before it noticed.
package session

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/palethea/palethea-launcher/internal/paths"
)

// Record describes one in-flight launch, persisted so a relaunch of the
// launcher itself (after a host reboot, say) can still detect and credit
// an orphaned session.
type Record struct {
	InstanceID string    `json:"instanceId"`
	PID        int       `json:"pid"`
	StartedAt  time.Time `json:"startedAt"`
}

// Store is the on-disk active_sessions.json: InstanceID -> Record.
type Store struct {
	mu      sync.Mutex
	path    string
	records map[string]Record // keyed by InstanceID
}

func NewStore(store *paths.Store) *Store {
	return &Store{path: store.ActiveSessionsJSON(), records: map[string]Record{}}
}

func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(data, &s.records)
}

func (s *Store) save() error {
	data, err := json.MarshalIndent(s.records, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o644)
}

// Start registers instanceID as running under pid.
func (s *Store) Start(instanceID string, pid int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[instanceID] = Record{InstanceID: instanceID, PID: pid, StartedAt: time.Now()}
	return s.save()
}

// Stop clears instanceID's running record (normal exit).
func (s *Store) Stop(instanceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, instanceID)
	return s.save()
}

// Running returns a snapshot of all records believed to still be running.
func (s *Store) Running() map[string]Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]Record, len(s.records))
	for k, v := range s.records {
		out[k] = v
	}
	return out
}

// CrashRecovery periodically checks persisted Records against the live OS
// process table and reports ones whose process is gone without having
// gone through Stop — i.e. a crash or a kill -9 the supervisor didn't see.
// It runs on a cron schedule rather than a bare ticker so the same
// mechanism can later grow independent per-check schedules (e.g. a less
// frequent sweep for long afk sessions) without restructuring.
type CrashRecovery struct {
	store   *Store
	cron    *cron.Cron
	onCrash func(instanceID string, rec Record)
}

// CrashRecoveryMaxCredit caps how much elapsed time an orphaned session can
// credit toward playtime. Deliberately bounded: a clock change or a long
// hibernation before the launcher restarts would otherwise inflate playtime
// without limit. Sessions older than this are cleared but not credited.
const CrashRecoveryMaxCredit = 24 * time.Hour

// NewCrashRecovery builds a watcher that calls onCrash for every Record
// whose process has disappeared.
func NewCrashRecovery(store *Store, onCrash func(instanceID string, rec Record)) *CrashRecovery {
	return &CrashRecovery{
		store:   store,
		cron:    cron.New(),
		onCrash: onCrash,
	}
}

// Start begins the "@every 5s" sweep. Call Stop to end it.
func (c *CrashRecovery) Start() error {
	_, err := c.cron.AddFunc("@every 5s", c.sweep)
	if err != nil {
		return fmt.Errorf("scheduling crash recovery sweep: %w", err)
	}
	c.cron.Start()
	return nil
}

func (c *CrashRecovery) Stop() {
	ctx := c.cron.Stop()
	<-ctx.Done()
}

func (c *CrashRecovery) sweep() {
	for id, rec := range c.store.Running() {
		if processAlive(rec.PID) {
			continue
		}
		_ = c.store.Stop(id)
		if c.onCrash == nil {
			continue
		}
		if !rec.StartedAt.IsZero() && time.Since(rec.StartedAt) > CrashRecoveryMaxCredit {
			// Stale session past the sanity cap: discard without credit.
			continue
		}
		c.onCrash(id, rec)
	}
}
