package state

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"
)

// Version is stamped into new state files.
const Version = "1.0.0"

// Run modes persisted alongside the cursor. The continuous loop
// transitions between them; single-shot runs ignore them.
const (
	ModeActive  = "active"
	ModeIdle    = "idle"
	ModeStopped = "stopped"
)

// persistedState is the on-disk JSON shape of state.json.
type persistedState struct {
	LastUpdateID int64  `json:"last_update_id"`
	LastRunTime  string `json:"last_run_time"`
	Mode         string `json:"mode,omitempty"`
	Version      string `json:"version"`
}

// Tracker owns the last-acknowledged Telegram update id. The cursor is
// monotonically non-decreasing: Advance refuses to move it backwards, and
// Persist writes it synchronously so that a crash after acceptance can
// never re-deliver an already-seen update.
type Tracker struct {
	path        string
	cursor      int64
	mode        string
	lastRunTime time.Time

	now func() time.Time
}

// NewTracker returns a tracker backed by the given state file. Call Load
// before first use.
func NewTracker(path string) *Tracker {
	return &Tracker{
		path: path,
		mode: ModeActive,
		now:  time.Now,
	}
}

// Load reads the persisted state. A missing file yields the zero cursor;
// malformed JSON is logged and replaced with the zero cursor. Neither is
// an error: only a file that exists but cannot be read fails.
func (t *Tracker) Load() error {
	data, err := os.ReadFile(t.path)
	if err != nil {
		if os.IsNotExist(err) {
			t.cursor = 0
			return nil
		}
		return fmt.Errorf("failed to read state file: %w", err)
	}

	var st persistedState
	if err := json.Unmarshal(data, &st); err != nil {
		log.Printf("⚠️ malformed state file %s, resetting cursor: %v", t.path, err)
		t.cursor = 0
		t.mode = ModeActive
		return nil
	}

	if st.LastUpdateID < 0 {
		log.Printf("⚠️ negative cursor %d in %s, resetting to 0", st.LastUpdateID, t.path)
		st.LastUpdateID = 0
	}
	t.cursor = st.LastUpdateID
	if st.Mode != "" {
		t.mode = st.Mode
	}
	if ts, err := time.Parse(time.RFC3339, st.LastRunTime); err == nil {
		t.lastRunTime = ts
	}
	return nil
}

// Cursor returns the last acknowledged update id.
func (t *Tracker) Cursor() int64 {
	return t.cursor
}

// Advance moves the cursor to updateID. Out-of-order delivery is a no-op:
// the cursor never decreases. Reports whether the cursor changed.
func (t *Tracker) Advance(updateID int64) bool {
	if updateID < t.cursor {
		return false
	}
	t.cursor = updateID
	return true
}

// Mode returns the persisted run mode.
func (t *Tracker) Mode() string {
	return t.mode
}

// SetMode records a run mode transition. Persist must still be called.
func (t *Tracker) SetMode(mode string) {
	t.mode = mode
}

// LastRunTime returns the timestamp of the previous completed run, or the
// zero time when unknown.
func (t *Tracker) LastRunTime() time.Time {
	return t.lastRunTime
}

// TouchRunTime stamps the current time as the last run time.
func (t *Tracker) TouchRunTime() {
	t.lastRunTime = t.now()
}

// Persist writes the state file synchronously. Callers in the intake path
// persist before handing a message downstream, never after.
func (t *Tracker) Persist() error {
	st := persistedState{
		LastUpdateID: t.cursor,
		LastRunTime:  t.lastRunTime.UTC().Format(time.RFC3339),
		Mode:         t.mode,
		Version:      Version,
	}

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(t.path), 0755); err != nil {
		return fmt.Errorf("failed to create state dir: %w", err)
	}
	if err := os.WriteFile(t.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}
	return nil
}
